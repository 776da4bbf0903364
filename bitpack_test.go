package bitpack

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/arloliu/bitpack/bitstream"
	"github.com/arloliu/bitpack/errs"
	"github.com/arloliu/bitpack/format"
	"github.com/arloliu/bitpack/frame"
)

type position struct {
	ID   uint32  `bit:"uint,min=0,max=100000"`
	X    float32 `bit:"float,min=-128,max=128,bits=20"`
	Y    float32 `bit:"float,min=-128,max=128,bits=20"`
	Conn *int64
}

type ping struct {
	Seq uint16
	Ok  bool
}

func (p *ping) EncodeBits(w *bitstream.Writer) error {
	w.AppendUint16(p.Seq)
	w.AppendBool(p.Ok)

	return nil
}

func (p *ping) DecodeBits(r *bitstream.Reader) (err error) {
	if p.Seq, err = r.ReadUint16(); err != nil {
		return err
	}
	p.Ok, err = r.ReadBool()

	return err
}

func TestMarshal_Position(t *testing.T) {
	in := position{ID: 100000, X: 10, Y: -10}

	packed, err := Marshal(&in)
	require.NoError(t, err)
	// 17 + 20 + 20 + 1 presence bit.
	require.Len(t, packed, 8)

	var got position
	require.NoError(t, Unmarshal(packed, &got))
	require.Equal(t, in.ID, got.ID)
	require.InDelta(t, in.X, got.X, 0.001)
	require.InDelta(t, in.Y, got.Y, 0.001)
	require.Nil(t, got.Conn)

	conn := int64(42)
	in.Conn = &conn
	packed, err = Marshal(in)
	require.NoError(t, err)
	require.Len(t, packed, 16)

	require.NoError(t, Unmarshal(packed, &got))
	require.NotNil(t, got.Conn)
	require.Equal(t, conn, *got.Conn)
}

func TestMarshal_Encodable(t *testing.T) {
	packed, err := Marshal(ping{Seq: 0xBEEF, Ok: true})
	require.NoError(t, err)
	require.Equal(t, []byte{0xBE, 0xEF, 0x80}, packed)

	var got ping
	require.NoError(t, Unmarshal(packed, &got))
	require.Equal(t, ping{Seq: 0xBEEF, Ok: true}, got)

	_, err = SchemaOf(&got)
	require.NoError(t, err, "the struct is also bindable")
}

func TestUnmarshal_Errors(t *testing.T) {
	packed, err := Marshal(&position{ID: 1})
	require.NoError(t, err)

	var got position
	require.ErrorIs(t, Unmarshal(append(packed, 0), &got), errs.ErrTrailingData)
	require.ErrorIs(t, Unmarshal(packed[:4], &got), errs.ErrEndOfStream)
	require.ErrorIs(t, Unmarshal(packed, got), errs.ErrInvalidValue)

	_, err = Marshal(&position{ID: 100001})
	require.ErrorIs(t, err, errs.ErrValueOutOfRange)

	_, err = Marshal(42)
	require.ErrorIs(t, err, errs.ErrUnsupportedType)

	_, err = Marshal(nil)
	require.ErrorIs(t, err, errs.ErrUnsupportedType)
}

func TestEncode_Stream(t *testing.T) {
	w := NewWriter()
	defer w.Release()

	for i := range 3 {
		require.NoError(t, Encode(w, &position{ID: uint32(i)}))
	}

	r := NewReader(w.PackBytes())
	for i := range 3 {
		var p position
		require.NoError(t, Decode(r, &p))
		require.Equal(t, uint32(i), p.ID)
	}
	require.NoError(t, r.Done())
}

func TestSchemaOf(t *testing.T) {
	rec, err := SchemaOf(position{})
	require.NoError(t, err)
	require.Equal(t, "position", rec.Name())
	require.Equal(t, 4, rec.NumFields())

	layout := rec.Layout()
	require.Equal(t, format.KindUint, layout[0].Kind)
	require.Equal(t, 17, layout[0].Bits)
	require.Equal(t, format.KindOptional, layout[3].Kind)

	require.Same(t, rec, MustSchemaOf(&position{}))
	require.Panics(t, func() { MustSchemaOf(1) })
}

type otherPosition struct {
	ID uint32 `bit:"uint,min=0,max=1000"`
}

func TestMarshalFrame(t *testing.T) {
	in := position{ID: 5, X: 1.5, Y: 2.5}

	framed, err := MarshalFrame(&in, frame.WithCompression(format.CompressionS2), frame.WithBigEndian())
	require.NoError(t, err)

	h, err := frame.ParseHeader(framed)
	require.NoError(t, err)
	require.True(t, h.HasFingerprint)
	require.Equal(t, MustSchemaOf(in).Fingerprint(), h.Fingerprint)

	var got position
	require.NoError(t, UnmarshalFrame(framed, &got))
	require.Equal(t, uint32(5), got.ID)

	var other otherPosition
	require.ErrorIs(t, UnmarshalFrame(framed, &other), errs.ErrSchemaMismatch)

	framed, err = MarshalFrame(ping{Seq: 1})
	require.NoError(t, err)

	var p ping
	require.NoError(t, UnmarshalFrame(framed, &p))
	require.Equal(t, uint16(1), p.Seq)
}

func TestMarshal_SmallerThanBaselines(t *testing.T) {
	in := position{ID: 12345, X: 10, Y: -10}

	packed, err := Marshal(&in)
	require.NoError(t, err)

	mp, err := msgpack.Marshal(&in)
	require.NoError(t, err)

	js, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(&in)
	require.NoError(t, err)

	require.Less(t, len(packed), len(mp))
	require.Less(t, len(mp), len(js))
}

var sink []byte

func BenchmarkMarshal_Position(b *testing.B) {
	in := position{ID: 12345, X: 10, Y: -10}
	b.ReportAllocs()

	for b.Loop() {
		sink, _ = Marshal(&in)
	}
	b.ReportMetric(float64(len(sink)), "bytes/msg")
}

func BenchmarkMarshal_Encodable(b *testing.B) {
	in := &ping{Seq: 7, Ok: true}
	b.ReportAllocs()

	for b.Loop() {
		sink, _ = Marshal(in)
	}
	b.ReportMetric(float64(len(sink)), "bytes/msg")
}

func BenchmarkMarshal_MsgPack(b *testing.B) {
	in := position{ID: 12345, X: 10, Y: -10}
	b.ReportAllocs()

	for b.Loop() {
		sink, _ = msgpack.Marshal(&in)
	}
	b.ReportMetric(float64(len(sink)), "bytes/msg")
}

func BenchmarkMarshal_JsonIter(b *testing.B) {
	in := position{ID: 12345, X: 10, Y: -10}
	jsonIter := jsoniter.ConfigCompatibleWithStandardLibrary
	b.ReportAllocs()

	for b.Loop() {
		sink, _ = jsonIter.Marshal(&in)
	}
	b.ReportMetric(float64(len(sink)), "bytes/msg")
}

func BenchmarkUnmarshal_Position(b *testing.B) {
	packed, err := Marshal(&position{ID: 12345, X: 10, Y: -10})
	require.NoError(b, err)

	var out position
	b.ReportAllocs()

	for b.Loop() {
		if err := Unmarshal(packed, &out); err != nil {
			b.Fatal(err)
		}
	}
}
