package bitstream

import (
	"bytes"
	"math"
	"math/rand/v2"
	"testing"

	gobitstream "github.com/dgryski/go-bitstream"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/bitpack/errs"
)

func TestWriter_AppendBitsOrder(t *testing.T) {
	tests := []struct {
		name   string
		writes [][2]uint64 // value, bits
		want   []byte
	}{
		{name: "empty", writes: nil, want: []byte{}},
		{name: "single bit", writes: [][2]uint64{{1, 1}}, want: []byte{0x80}},
		{name: "msb first", writes: [][2]uint64{{0b101, 3}, {1, 1}}, want: []byte{0xB0}},
		{name: "masks high bits", writes: [][2]uint64{{0xFF, 4}}, want: []byte{0xF0}},
		{name: "crosses byte", writes: [][2]uint64{{0x7F, 7}, {0x3, 2}}, want: []byte{0xFF, 0x80}},
		{name: "zero bits", writes: [][2]uint64{{0xFF, 0}, {1, 1}}, want: []byte{0x80}},
		{name: "full word", writes: [][2]uint64{{0x0102030405060708, 64}}, want: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{
			name:   "word after odd offset",
			writes: [][2]uint64{{1, 1}, {math.MaxUint64, 64}},
			want:   []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x80},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter()
			defer w.Release()

			for _, wr := range tt.writes {
				w.AppendBits(wr[0], int(wr[1]))
			}

			require.Equal(t, tt.want, w.PackBytes())
		})
	}
}

func TestWriter_MatchesGoBitstream(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for run := range 50 {
		w := NewWriter()

		var oracle bytes.Buffer
		ow := gobitstream.NewWriter(&oracle)

		for range 200 {
			n := rng.IntN(64) + 1
			v := rng.Uint64()
			w.AppendBits(v, n)
			require.NoError(t, ow.WriteBits(v, n))
		}
		require.NoError(t, ow.Flush(gobitstream.Zero))

		require.Equal(t, oracle.Bytes(), w.PackBytes(), "run %d", run)
		w.Release()
	}
}

func TestWriter_InvalidBitCountPanics(t *testing.T) {
	w := NewWriter()
	require.Panics(t, func() { w.AppendBits(0, 65) })
	require.Panics(t, func() { w.AppendBits(0, -1) })
}

func TestWriter_PackBytesIdempotent(t *testing.T) {
	w := NewWriter()
	w.AppendBits(0b1, 1)

	first := w.PackBytes()
	second := w.PackBytes()
	require.Equal(t, first, second)
	require.Equal(t, 1, w.BitLen())

	// Appending after packing continues the same stream.
	w.AppendBits(0b1, 1)
	require.Equal(t, []byte{0xC0}, w.PackBytes())
	require.Equal(t, []byte{0x80}, first, "earlier result must not change")
}

func TestWriter_BitLen(t *testing.T) {
	w := NewWriter()
	w.AppendBits(0, 17)
	require.Equal(t, 17, w.BitLen())
	require.Equal(t, 3, w.ByteLen())
	require.Len(t, w.PackBytes(), 3)

	w.AppendUint64(0)
	require.Equal(t, 81, w.BitLen())
}

func TestWriter_ResetAndRelease(t *testing.T) {
	w := NewWriter()
	w.AppendUint32(0xDEADBEEF)
	w.Reset()
	require.Equal(t, 0, w.BitLen())
	require.Empty(t, w.PackBytes())

	w.Release()
	require.Panics(t, func() { w.AppendBool(true) })
	require.Panics(t, func() { w.PackBytes() })

	w.Reset()
	w.AppendUint8(0xAB)
	require.Equal(t, []byte{0xAB}, w.PackBytes())
}

func TestWriter_UseAfterRelease(t *testing.T) {
	tests := []struct {
		name string
		use  func(w *Writer)
	}{
		{name: "BitLen", use: func(w *Writer) { w.BitLen() }},
		{name: "ByteLen", use: func(w *Writer) { w.ByteLen() }},
		{name: "PackBytes", use: func(w *Writer) { w.PackBytes() }},
		{name: "AppendBits", use: func(w *Writer) { w.AppendBits(1, 1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter()
			w.AppendUint8(0x01)
			w.Release()

			require.PanicsWithValue(t, "bitstream: writer already released", func() { tt.use(w) })
		})
	}
}

func TestWriter_Descend(t *testing.T) {
	w := NewWriter()
	defer w.Release()

	for range MaxDepth {
		require.NoError(t, w.Descend())
	}
	require.ErrorIs(t, w.Descend(), errs.ErrInvalidValue)

	w.Ascend()
	require.NoError(t, w.Descend())

	w.Reset()
	require.NoError(t, w.Descend())
}

func TestWriter_AppendCount(t *testing.T) {
	w := NewWriter()

	require.NoError(t, w.AppendCount(5, 5))
	require.Equal(t, 3, w.BitLen())

	err := w.AppendCount(6, 5)
	require.ErrorIs(t, err, errs.ErrArrayTooLong)
	require.Equal(t, 3, w.BitLen(), "failed append must not write")

	require.ErrorIs(t, w.AppendCount(0, 0), errs.ErrInvalidMaxCount)
}

func TestWriter_AppendBytesAlignment(t *testing.T) {
	blob := []byte("0123456789abcdef-tail")

	t.Run("aligned", func(t *testing.T) {
		w := NewWriter()
		require.NoError(t, w.AppendBytes(blob, 255))
		packed := w.PackBytes()
		require.Len(t, packed, 1+len(blob))
		require.Equal(t, byte(len(blob)), packed[0])
		require.Equal(t, blob, packed[1:])
	})

	t.Run("unaligned", func(t *testing.T) {
		w := NewWriter()
		w.AppendBool(true)
		require.NoError(t, w.AppendBytes(blob, 255))

		r := NewReader(w.PackBytes())
		flag, err := r.ReadBool()
		require.NoError(t, err)
		require.True(t, flag)
		got, err := r.ReadBytes(255)
		require.NoError(t, err)
		require.Equal(t, blob, got)
		require.NoError(t, r.Done())
	})
}

func TestCountBits(t *testing.T) {
	tests := []struct {
		maxCount int
		want     int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{255, 8},
		{256, 9},
		{DefaultMaxBytes, 30},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, CountBits(tt.maxCount), "maxCount %d", tt.maxCount)
	}
}

func BenchmarkWriter_AppendBits(b *testing.B) {
	w := NewWriter()
	defer w.Release()

	for b.Loop() {
		w.Reset()
		for i := range 128 {
			w.AppendBits(uint64(i), 17)
		}
	}
}
