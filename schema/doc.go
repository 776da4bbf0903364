// Package schema describes records and tagged unions as ordered lists of typed
// fields and encodes them onto a bit stream.
//
// A record schema is built once, validated at construction, and then used to
// encode and decode any number of messages. The wire format of a record is the
// concatenation of its fields in declaration order; there are no tags, lengths
// or version numbers unless the schema declares them as fields.
//
// # Building Schemas
//
//	var position = schema.MustRecord("Position",
//	    schema.CompressedUint("id", 0, 100000),
//	    schema.CompressedFloat("x", -128, 128, 20),
//	    schema.CompressedFloat("y", -128, 128, 20),
//	    schema.Optional("connection", schema.RawOf(format.RawInt64)),
//	    schema.Skip("label", "position"),
//	)
//
//	packed, err := position.Marshal(schema.Values{uint64(7), 1.0, 1.0, nil, nil})
//	values, err := position.Unmarshal(packed)
//
// # Decoded Values
//
// Decoding produces canonical Go types: compressed int fields decode to
// int64, compressed uint and bits fields to uint64, float fields to float32,
// double fields to float64, raw fields to their native type, bytes to []byte,
// arrays to []any, nested records to Values and unions to UnionValue. Encoding
// accepts any Go numeric type for numeric fields as long as the value fits.
//
// # Tagged Unions
//
// A union writes the 0-based index of its case as a 32-bit coding key and then
// the case payload:
//
//	payload := schema.MustUnion("Payload",
//	    schema.NewCase("connection", connection),
//	    schema.NewCase("ping"),
//	)
//
// Decoding a key outside the declared cases fails with errs.ErrUnknownCase.
//
// # Recursive Records
//
// A record can hold values of its own type through a Ref placed inside an
// array, list or optional and resolved once the record exists:
//
//	ref := schema.NewRef("Vector")
//	vector := schema.MustRecord("Vector",
//	    schema.CompressedInt("number", -992, 99824),
//	    schema.BoundedArray("vectorArray", ref, 125),
//	)
//	err := ref.Resolve(vector)
//
// # Documents
//
// ParseDocument builds schemas from YAML or JSON, and Record.FromMap and
// Record.ToMap convert between Values and name-keyed maps for JSON payloads.
package schema
