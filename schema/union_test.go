package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/bitpack/bitstream"
	"github.com/arloliu/bitpack/errs"
	"github.com/arloliu/bitpack/format"
)

var connectionPacket = MustRecord("ConnectionPacket",
	CompressedInt("id", 0, 100000),
	Optional("connectionId", RawOf(format.RawInt64)),
	Nested("veco", vecoComp),
)

var payloadUnion = MustUnion("Payload",
	NewCase("connection", connectionPacket),
	NewCase("case2"),
	NewCase("case3", RawOf(format.RawBool), IntOf(-5, 5)),
	NewCase("case4"),
)

var packet = MustRecord("Packet",
	CompressedUint("version", 0, 10000),
	UnionField("payload", payloadUnion),
)

func TestUnion_CodingKeyStability(t *testing.T) {
	tests := []struct {
		name  string
		value UnionValue
	}{
		{name: "connection", value: UnionValue{Case: 0, Payload: Values{int64(1), nil, Values{float32(10), float32(10)}}}},
		{name: "case2", value: UnionValue{Case: 1, Payload: Values{}}},
		{name: "case3", value: UnionValue{Case: 2, Payload: Values{true, int64(-5)}}},
		{name: "case4", value: UnionValue{Case: 3, Payload: Values{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := bitstream.NewWriter()
			require.NoError(t, payloadUnion.Encode(w, tt.value))
			packed := w.PackBytes()

			r := bitstream.NewReader(packed)
			key, err := r.ReadUint32()
			require.NoError(t, err)
			require.Equal(t, uint32(tt.value.Case), key, "coding key is the declaration index")

			got, err := payloadUnion.Decode(bitstream.NewReader(packed))
			require.NoError(t, err)
			require.Equal(t, tt.value.Case, got.Case)
			require.Len(t, got.Payload, len(tt.value.Payload))
		})
	}
}

func TestUnion_UnknownCase(t *testing.T) {
	w := bitstream.NewWriter()
	w.AppendCodingKey(4)

	_, err := payloadUnion.Decode(bitstream.NewReader(w.PackBytes()))
	require.ErrorIs(t, err, errs.ErrUnknownCase)

	w.Reset()
	w.AppendCodingKey(0xFFFFFFFF)
	_, err = payloadUnion.Decode(bitstream.NewReader(w.PackBytes()))
	require.ErrorIs(t, err, errs.ErrUnknownCase)
}

func TestUnion_EncodeErrors(t *testing.T) {
	w := bitstream.NewWriter()

	require.ErrorIs(t, payloadUnion.Encode(w, UnionValue{Case: 4}), errs.ErrInvalidValue)
	require.ErrorIs(t, payloadUnion.Encode(w, UnionValue{Case: -1}), errs.ErrInvalidValue)
	require.ErrorIs(t, payloadUnion.Encode(w, UnionValue{Case: 2, Payload: Values{true}}), errs.ErrInvalidValue)
	require.ErrorIs(t, payloadUnion.Encode(w, UnionValue{Case: 2, Payload: Values{true, 6}}), errs.ErrValueOutOfRange)
}

func TestUnion_PacketScenario(t *testing.T) {
	in := Values{
		1,
		UnionValue{Case: 0, Payload: Values{1, nil, Values{10.0, 10.0}}},
	}

	packed, err := packet.Marshal(in)
	require.NoError(t, err)
	// version 14 bits, coding key 32, id 17, presence 1, two floats 40.
	require.Len(t, packed, 13)

	got, err := packet.Unmarshal(packed)
	require.NoError(t, err)
	require.Equal(t, uint64(1), got[0])

	uv, ok := got[1].(UnionValue)
	require.True(t, ok)
	require.Equal(t, 0, uv.Case)
	require.Equal(t, int64(1), uv.Payload[0].(Values)[0])
	require.Nil(t, uv.Payload[0].(Values)[1])
	require.InDelta(t, 10.0, uv.Payload[0].(Values)[2].(Values)[0], 0.01)
}

func TestUnion_PointerValue(t *testing.T) {
	packed, err := packet.Marshal(Values{2, &UnionValue{Case: 1, Payload: Values{}}})
	require.NoError(t, err)

	got, err := packet.Unmarshal(packed)
	require.NoError(t, err)
	require.Equal(t, UnionValue{Case: 1, Payload: Values{}}, got[1])
}

func TestUnion_FixedBits(t *testing.T) {
	flags := MustUnion("Flags", NewCase("a", BitsOf(3)), NewCase("b", RawOf(format.RawBool), BitsOf(2)))
	bits, fixed := flags.FixedBits()
	require.True(t, fixed)
	require.Equal(t, 35, bits)

	_, fixed = payloadUnion.FixedBits()
	require.False(t, fixed)
}

func TestNewUnion_Validation(t *testing.T) {
	_, err := NewUnion("Empty")
	require.ErrorIs(t, err, errs.ErrInvalidSchema)

	_, err = NewUnion("", NewCase("a"))
	require.ErrorIs(t, err, errs.ErrInvalidSchema)

	_, err = NewUnion("Dup", NewCase("a"), NewCase("a"))
	require.ErrorIs(t, err, errs.ErrInvalidSchema)

	_, err = NewUnion("Bad", NewCase("a", IntOf(3, 3)))
	require.ErrorIs(t, err, errs.ErrInvalidBounds)

	_, err = NewUnion("Nil", NewCase("a", nil))
	require.ErrorIs(t, err, errs.ErrInvalidSchema)

	require.Panics(t, func() { MustUnion("Empty") })
}

func TestUnion_Accessors(t *testing.T) {
	require.Equal(t, "Payload", payloadUnion.Name())
	require.Equal(t, 4, payloadUnion.NumCases())
	require.Equal(t, "case3", payloadUnion.Case(2).Name)

	i, ok := payloadUnion.CaseIndex("case4")
	require.True(t, ok)
	require.Equal(t, 3, i)

	require.Equal(t, format.KindUnion, payloadUnion.Kind())
	require.Contains(t, payloadUnion.String(), "case3(bool,int(-5,5))")
}
