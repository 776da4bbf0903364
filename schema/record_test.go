package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/bitpack/bitstream"
	"github.com/arloliu/bitpack/errs"
	"github.com/arloliu/bitpack/format"
)

var vecoComp = MustRecord("VecoComp",
	CompressedFloat("x", -128, 128, 20),
	CompressedFloat("y", -128, 128, 20),
)

// vector mirrors a record using every field kind.
var vector = MustRecord("Vector",
	Skip("string", "Vector"),
	CompressedFloat("float", 0, 10, 9),
	CompressedDouble("double", -1000, 1000, 60),
	CompressedInt("int", -992, 99824),
	CompressedInt("int8", -10, 39),
	CompressedUint("uint", 992, 99824),
	CompressedUint("uint8", 10, 39),
	Bits("number", 8),
	CompressedFloatArray("floatArray", -10, 10, 8, 128),
	CompressedDoubleArray("k", 10, 100, 8, 1992),
	CompressedIntArray("intArray", -992, 99824, 788723),
	CompressedUintArray("uint16Array", 1000, 23239, 98776),
	BoundedArray("boundedArray", RawOf(format.RawInt16), 16),
	Bytes("byts", 0),
	Bytes("bytess", 28),
	Raw("flag", format.RawBool),
	Raw("name", format.RawString),
	UnboundedArray("names", RawOf(format.RawString)),
	Optional("connectionId", RawOf(format.RawInt64)),
	Nested("veco", vecoComp),
)

func vectorValues() Values {
	return Values{
		nil,
		float32(5),
		-999.5,
		int64(-992),
		int64(39),
		uint64(99824),
		uint64(10),
		uint64(255),
		[]any{float32(-10), float32(0), float32(10)},
		[]any{10.0, 100.0},
		[]any{int64(0), int64(99824)},
		[]any{uint64(1000)},
		[]any{int16(-5), int16(5)},
		[]byte("unbounded blob"),
		[]byte{1, 2, 3},
		true,
		"vector",
		[]any{"a", "bc"},
		int64(-77),
		Values{float32(1), float32(-1)},
	}
}

func TestRecord_VecoCompScenario(t *testing.T) {
	packed, err := vecoComp.Marshal(Values{1.0, 1.0})
	require.NoError(t, err)
	require.Len(t, packed, 5, "two 20-bit fields pack into 40 bits")

	got, err := vecoComp.Unmarshal(packed)
	require.NoError(t, err)
	require.InDelta(t, 1.0, got[0], 0.01)
	require.InDelta(t, 1.0, got[1], 0.01)
}

func TestRecord_IdScenario(t *testing.T) {
	rec := MustRecord("Id", CompressedUint("id", 0, 100000))

	bits, fixed := rec.FixedBits()
	require.True(t, fixed)
	require.Equal(t, 17, bits)

	packed, err := rec.Marshal(Values{100000})
	require.NoError(t, err)
	require.Len(t, packed, 3)
}

func TestRecord_VectorRoundTrip(t *testing.T) {
	in := vectorValues()

	packed, err := vector.Marshal(in)
	require.NoError(t, err)

	got, err := vector.Unmarshal(packed)
	require.NoError(t, err)

	want := vectorValues()
	want[0] = "Vector" // skipped fields decode to their default

	// The coarsest fields are the 8-bit quantized arrays.
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 0.05)); diff != "" {
		t.Fatalf("decoded vector mismatch (-want +got):\n%s", diff)
	}
}

func TestRecord_CanonicalTypes(t *testing.T) {
	got, err := vector.Unmarshal(mustMarshal(t, vector, vectorValues()))
	require.NoError(t, err)

	require.IsType(t, float32(0), got[1])
	require.IsType(t, float64(0), got[2])
	require.IsType(t, int64(0), got[3])
	require.IsType(t, uint64(0), got[5])
	require.IsType(t, uint64(0), got[7])
	require.IsType(t, []any{}, got[8])
	require.IsType(t, []byte{}, got[13])
	require.IsType(t, int16(0), got[12].([]any)[0])
	require.IsType(t, Values{}, got[19])
}

func TestRecord_AcceptsGoNumericTypes(t *testing.T) {
	rec := MustRecord("Numbers",
		CompressedInt("i", -100, 100),
		CompressedUint("u", 0, 100),
		CompressedDouble("d", 0, 1, 16),
		Raw("r", format.RawUint8),
	)

	packed, err := rec.Marshal(Values{int8(-5), uint16(7), float32(0.5), 200})
	require.NoError(t, err)

	got, err := rec.Unmarshal(packed)
	require.NoError(t, err)
	require.Equal(t, int64(-5), got[0])
	require.Equal(t, uint64(7), got[1])
	require.InDelta(t, 0.5, got[2], 1e-4)
	require.Equal(t, uint8(200), got[3])
}

func TestRecord_EncodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		values  Values
		wantErr error
	}{
		{name: "wrong arity", values: Values{1}, wantErr: errs.ErrInvalidValue},
		{name: "int out of range", values: Values{101, 0, "s", []byte{}}, wantErr: errs.ErrValueOutOfRange},
		{name: "negative uint", values: Values{0, -1, "s", []byte{}}, wantErr: errs.ErrValueOutOfRange},
		{name: "fractional int", values: Values{1.5, 0, "s", []byte{}}, wantErr: errs.ErrInvalidValue},
		{name: "string type", values: Values{0, 0, 7, []byte{}}, wantErr: errs.ErrInvalidValue},
		{name: "bytes too long", values: Values{0, 0, "s", make([]byte, 5)}, wantErr: errs.ErrArrayTooLong},
	}

	rec := MustRecord("Errs",
		CompressedInt("i", -100, 100),
		CompressedUint("u", 0, 100),
		Raw("s", format.RawString),
		Bytes("b", 4),
	)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rec.Marshal(tt.values)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRecord_BitsAndRawOverflow(t *testing.T) {
	rec := MustRecord("Small", Bits("status", 3), Raw("b", format.RawInt8))

	_, err := rec.Marshal(Values{8, 0})
	require.ErrorIs(t, err, errs.ErrValueOutOfRange)

	_, err = rec.Marshal(Values{7, 128})
	require.ErrorIs(t, err, errs.ErrValueOutOfRange)

	packed, err := rec.Marshal(Values{7, -128})
	require.NoError(t, err)
	require.Len(t, packed, 2)
}

func TestNewRecord_Validation(t *testing.T) {
	tests := []struct {
		name    string
		build   func() (*Record, error)
		wantErr error
		context string
	}{
		{
			name:    "empty",
			build:   func() (*Record, error) { return NewRecord("Empty") },
			wantErr: errs.ErrInvalidSchema,
		},
		{
			name:    "no name",
			build:   func() (*Record, error) { return NewRecord("", Bits("a", 1)) },
			wantErr: errs.ErrInvalidSchema,
		},
		{
			name:    "duplicate field",
			build:   func() (*Record, error) { return NewRecord("Dup", Bits("a", 1), Bits("a", 2)) },
			wantErr: errs.ErrInvalidSchema,
		},
		{
			name:    "invalid int bounds",
			build:   func() (*Record, error) { return NewRecord("R", CompressedInt("level", 5, 1)) },
			wantErr: errs.ErrInvalidBounds,
			context: "level",
		},
		{
			name:    "invalid float bits",
			build:   func() (*Record, error) { return NewRecord("R", CompressedFloat("x", 0, 1, 33)) },
			wantErr: errs.ErrInvalidBitCount,
			context: "x",
		},
		{
			name:    "invalid bits width",
			build:   func() (*Record, error) { return NewRecord("R", Bits("flags", 65)) },
			wantErr: errs.ErrInvalidBitCount,
		},
		{
			name:    "invalid max count",
			build:   func() (*Record, error) { return NewRecord("R", CompressedIntArray("a", 0, 1, 0)) },
			wantErr: errs.ErrInvalidMaxCount,
		},
		{
			name:    "skip element",
			build:   func() (*Record, error) { return NewRecord("R", BoundedArray("a", SkipOf(nil), 4)) },
			wantErr: errs.ErrInvalidSchema,
		},
		{
			name:    "nil nested",
			build:   func() (*Record, error) { return NewRecord("R", Nested("inner", nil)) },
			wantErr: errs.ErrInvalidSchema,
		},
		{
			name: "list of zero-width records",
			build: func() (*Record, error) {
				return NewRecord("Batch", UnboundedArray("items", MustRecord("Marker", Skip("note", "x"))))
			},
			wantErr: errs.ErrInvalidSchema,
			context: "items",
		},
		{
			name:    "custom without factory",
			build:   func() (*Record, error) { return NewRecord("R", Custom("c", nil)) },
			wantErr: errs.ErrInvalidSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			require.ErrorIs(t, err, tt.wantErr)
			if tt.context != "" {
				require.ErrorContains(t, err, tt.context)
			}
		})
	}

	require.Panics(t, func() { MustRecord("Empty") })
}

func TestRecord_ZeroWidthElements(t *testing.T) {
	marker := MustRecord("Marker", Skip("note", "x"))
	bits, fixed := marker.FixedBits()
	require.True(t, fixed)
	require.Zero(t, bits)

	batch, err := NewRecord("Batch", BoundedArray("items", marker, 7))
	require.NoError(t, err)

	packed := mustMarshal(t, batch, Values{[]any{Values{nil}, Values{nil}, Values{nil}}})
	require.Len(t, packed, 1)

	got, err := batch.Unmarshal(packed)
	require.NoError(t, err)
	require.Equal(t, Values{[]any{Values{"x"}, Values{"x"}, Values{"x"}}}, got)
}

func TestRecord_Truncation(t *testing.T) {
	packed := mustMarshal(t, vector, vectorValues())

	for cut := 1; cut <= len(packed); cut++ {
		_, err := vector.Unmarshal(packed[:len(packed)-cut])
		require.Error(t, err, "cut %d bytes", cut)
	}
}

func TestRecord_TrailingData(t *testing.T) {
	packed := mustMarshal(t, vecoComp, Values{1.0, 2.0})

	_, err := vecoComp.Unmarshal(append(packed, 0))
	require.ErrorIs(t, err, errs.ErrTrailingData)

	rd := bitstream.NewReader(append(packed, 0))
	_, err = vecoComp.Decode(rd)
	require.NoError(t, err, "Decode alone leaves trailing data to the caller")
}

func TestRecord_LayoutAndFingerprint(t *testing.T) {
	layout := vecoComp.Layout()
	require.Len(t, layout, 2)
	require.Equal(t, FieldLayout{
		Name:  "x",
		Kind:  format.KindFloat,
		Type:  "float(-128,128,20)",
		Bits:  20,
		Fixed: true,
	}, layout[0])

	bits, fixed := vecoComp.FixedBits()
	require.True(t, fixed)
	require.Equal(t, 40, bits)

	_, fixed = vector.FixedBits()
	require.False(t, fixed)

	same := MustRecord("VecoComp",
		CompressedFloat("x", -128, 128, 20),
		CompressedFloat("y", -128, 128, 20),
	)
	require.Equal(t, vecoComp.Fingerprint(), same.Fingerprint())

	finer := MustRecord("VecoComp",
		CompressedFloat("x", -128, 128, 21),
		CompressedFloat("y", -128, 128, 20),
	)
	require.NotEqual(t, vecoComp.Fingerprint(), finer.Fingerprint())

	outer := MustRecord("Outer", Nested("v", vecoComp))
	outerFiner := MustRecord("Outer", Nested("v", finer))
	require.NotEqual(t, outer.Fingerprint(), outerFiner.Fingerprint(), "nested changes must change the fingerprint")
}

func TestRecord_Accessors(t *testing.T) {
	require.Equal(t, "Vector", vector.Name())
	require.Equal(t, 20, vector.NumFields())

	i, ok := vector.FieldIndex("veco")
	require.True(t, ok)
	require.Equal(t, "veco", vector.Field(i).Name)
	require.Equal(t, format.KindRecord, vector.Field(i).Type.Kind())

	_, ok = vector.FieldIndex("missing")
	require.False(t, ok)

	fields := vector.Fields()
	fields[0].Name = "changed"
	require.Equal(t, "string", vector.Field(0).Name)
}

func TestRecord_OptionalPresence(t *testing.T) {
	rec := MustRecord("Connection",
		CompressedInt("id", 0, 100000),
		Optional("connectionId", RawOf(format.RawInt64)),
		Nested("veco", vecoComp),
	)

	absent := mustMarshal(t, rec, Values{1, nil, Values{10.0, 10.0}})
	present := mustMarshal(t, rec, Values{1, int64(42), Values{10.0, 10.0}})

	// 17 + 1 + 40 bits, plus 64 when the connection id is present.
	require.Len(t, absent, 8)
	require.Len(t, present, 16)

	got, err := rec.Unmarshal(absent)
	require.NoError(t, err)
	require.Nil(t, got[1])

	got, err = rec.Unmarshal(present)
	require.NoError(t, err)
	require.Equal(t, int64(42), got[1])

	ptr := int64(9)
	got, err = rec.Unmarshal(mustMarshal(t, rec, Values{1, &ptr, Values{0.0, 0.0}}))
	require.NoError(t, err)
	require.Equal(t, int64(9), got[1])
}

func mustMarshal(t *testing.T, rec *Record, v Values) []byte {
	t.Helper()

	packed, err := rec.Marshal(v)
	require.NoError(t, err)

	return packed
}
