package schema

import (
	"fmt"
	"strings"

	"github.com/arloliu/bitpack/bitstream"
	"github.com/arloliu/bitpack/errs"
	"github.com/arloliu/bitpack/format"
	"github.com/arloliu/bitpack/internal/hash"
)

// Values holds one value per record field, in field order. Skipped fields have
// a slot too; its content is ignored on encode and set to the field's default
// on decode.
type Values []any

// FieldLayout describes the wire footprint of one record field.
type FieldLayout struct {
	Name  string
	Kind  format.FieldKind
	Type  string
	Bits  int  // encoded width when Fixed
	Fixed bool // every value of the field has the same width
}

// Record is a compiled, immutable record schema.
//
// A Record is safe for concurrent use and may be shared by any number of
// encoders and decoders.
type Record struct {
	name        string
	fields      []Field
	index       map[string]int
	fixedBits   int
	fixed       bool
	desc        string
	fingerprint uint64
}

var _ Type = (*Record)(nil)

// NewRecord validates fields and compiles them into a record schema.
//
// Field names must be unique and non-empty, and at least one field is
// required. A *Ref may only appear inside an array, list or optional. Invalid
// compressor bounds, bit counts or max counts are reported here, with the
// offending field name.
func NewRecord(name string, fields ...Field) (*Record, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: record name is empty", errs.ErrInvalidSchema)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: record %s has no fields", errs.ErrInvalidSchema, name)
	}

	r := &Record{
		name:   name,
		fields: append([]Field(nil), fields...),
		index:  make(map[string]int, len(fields)),
		fixed:  true,
	}

	var desc strings.Builder
	desc.WriteString(name)
	desc.WriteByte('{')

	for i, f := range r.fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: record %s: field %d has no name", errs.ErrInvalidSchema, name, i)
		}
		if _, dup := r.index[f.Name]; dup {
			return nil, fmt.Errorf("%w: record %s: duplicate field %q", errs.ErrInvalidSchema, name, f.Name)
		}
		if f.Type == nil {
			return nil, fmt.Errorf("%w: record %s: field %q has no type", errs.ErrInvalidSchema, name, f.Name)
		}
		if ref, ok := f.Type.(*Ref); ok {
			return nil, fmt.Errorf("%w: record %s: field %q holds %s outside an array, list or optional",
				errs.ErrInvalidSchema, name, f.Name, ref)
		}
		if err := f.Type.validate(); err != nil {
			return nil, fmt.Errorf("record %s: field %q: %w", name, f.Name, err)
		}

		r.index[f.Name] = i

		if bits, ok := f.Type.FixedBits(); ok {
			r.fixedBits += bits
		} else {
			r.fixed = false
		}

		if i > 0 {
			desc.WriteByte(';')
		}
		desc.WriteString(f.Name)
		desc.WriteByte(':')
		desc.WriteString(f.Type.String())
	}

	desc.WriteByte('}')
	r.desc = desc.String()
	r.fingerprint = hash.Fingerprint(r.desc)

	return r, nil
}

// MustRecord is like NewRecord but panics on an invalid schema.
func MustRecord(name string, fields ...Field) *Record {
	r, err := NewRecord(name, fields...)
	if err != nil {
		panic(err)
	}

	return r
}

// Name returns the record name.
func (r *Record) Name() string { return r.name }

// NumFields returns the number of fields, skipped ones included.
func (r *Record) NumFields() int { return len(r.fields) }

// Field returns the i-th field.
func (r *Record) Field(i int) Field { return r.fields[i] }

// Fields returns a copy of the field list.
func (r *Record) Fields() []Field {
	return append([]Field(nil), r.fields...)
}

// FieldIndex returns the position of the named field.
func (r *Record) FieldIndex(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// Kind implements Type.
func (r *Record) Kind() format.FieldKind { return format.KindRecord }

// String returns the canonical description of the record, nested types
// included.
func (r *Record) String() string { return r.desc }

// FixedBits returns the encoded size in bits when every field has a fixed
// width.
func (r *Record) FixedBits() (int, bool) {
	if !r.fixed {
		return 0, false
	}

	return r.fixedBits, true
}

// Fingerprint returns the xxHash64 of the canonical description. Two records
// with the same fingerprint have the same wire format.
func (r *Record) Fingerprint() uint64 { return r.fingerprint }

// Layout reports the wire footprint of every field.
func (r *Record) Layout() []FieldLayout {
	layout := make([]FieldLayout, len(r.fields))
	for i, f := range r.fields {
		bits, fixed := f.Type.FixedBits()
		layout[i] = FieldLayout{
			Name:  f.Name,
			Kind:  f.Type.Kind(),
			Type:  f.Type.String(),
			Bits:  bits,
			Fixed: fixed,
		}
	}

	return layout
}

// Encode appends v to w in field order.
//
// On error w may hold a partial record and should be discarded.
func (r *Record) Encode(w *bitstream.Writer, v Values) error {
	if len(v) != len(r.fields) {
		return fmt.Errorf("%w: record %s has %d fields, got %d values",
			errs.ErrInvalidValue, r.name, len(r.fields), len(v))
	}

	for i, f := range r.fields {
		if err := f.Type.encode(w, v[i]); err != nil {
			return fmt.Errorf("%s.%s: %w", r.name, f.Name, err)
		}
	}

	return nil
}

// Decode reads a record written by Encode. It returns the first error and
// never a partially decoded record.
func (r *Record) Decode(rd *bitstream.Reader) (Values, error) {
	v := make(Values, len(r.fields))
	for i, f := range r.fields {
		fv, err := f.Type.decode(rd)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", r.name, f.Name, err)
		}
		v[i] = fv
	}

	return v, nil
}

// Marshal encodes v into a new packed message.
func (r *Record) Marshal(v Values) ([]byte, error) {
	w := bitstream.NewWriter()
	defer w.Release()

	if err := r.Encode(w, v); err != nil {
		return nil, err
	}

	return w.PackBytes(), nil
}

// Unmarshal decodes a packed message holding exactly one record.
// Unread bytes or non-zero padding fail with errs.ErrTrailingData.
func (r *Record) Unmarshal(data []byte) (Values, error) {
	rd := bitstream.NewReader(data)

	v, err := r.Decode(rd)
	if err != nil {
		return nil, err
	}
	if err := rd.Done(); err != nil {
		return nil, fmt.Errorf("%s: %w", r.name, err)
	}

	return v, nil
}

// FromMap converts a name-keyed document, such as decoded JSON, into Values.
//
// Missing optional fields are nil and missing skipped fields take their
// default. Any other missing field, or a key that names no field, is an error.
func (r *Record) FromMap(m map[string]any) (Values, error) {
	for key := range m {
		if _, ok := r.index[key]; !ok {
			return nil, fmt.Errorf("%w: record %s has no field %q", errs.ErrInvalidValue, r.name, key)
		}
	}

	v := make(Values, len(r.fields))
	for i, f := range r.fields {
		raw, ok := m[f.Name]
		if !ok {
			switch f.Type.Kind() {
			case format.KindOptional:
				continue
			case format.KindSkip:
				raw = nil
			default:
				return nil, fmt.Errorf("%w: record %s: missing field %q", errs.ErrInvalidValue, r.name, f.Name)
			}
		}

		fv, err := f.Type.fromDoc(raw)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", r.name, f.Name, err)
		}
		v[i] = fv
	}

	return v, nil
}

// ToMap converts Values into a name-keyed document suitable for JSON output.
func (r *Record) ToMap(v Values) map[string]any {
	m := make(map[string]any, len(r.fields))
	for i, f := range r.fields {
		if i < len(v) {
			m[f.Name] = f.Type.toDoc(v[i])
		}
	}

	return m
}

func (r *Record) validate() error { return nil }

func (r *Record) encode(w *bitstream.Writer, v any) error {
	switch x := v.(type) {
	case Values:
		return r.Encode(w, x)
	case []any:
		return r.Encode(w, Values(x))
	case map[string]any:
		values, err := r.FromMap(x)
		if err != nil {
			return err
		}

		return r.Encode(w, values)
	default:
		return fmt.Errorf("%w: record %s wants Values, got %T", errs.ErrInvalidValue, r.name, v)
	}
}

func (r *Record) decode(rd *bitstream.Reader) (any, error) {
	return r.Decode(rd)
}

func (r *Record) fromDoc(v any) (any, error) {
	switch x := v.(type) {
	case Values:
		return x, nil
	case map[string]any:
		return r.FromMap(x)
	default:
		return nil, fmt.Errorf("%w: record %s wants an object, got %T", errs.ErrInvalidValue, r.name, v)
	}
}

func (r *Record) toDoc(v any) any {
	if values, ok := v.(Values); ok {
		return r.ToMap(values)
	}

	return v
}
