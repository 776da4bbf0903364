package bitstream

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/bitpack/errs"
)

type point struct {
	X int16
	Y int16
}

func (p *point) EncodeBits(w *Writer) error {
	w.AppendInt16(p.X)
	w.AppendInt16(p.Y)

	return nil
}

func (p *point) DecodeBits(r *Reader) (err error) {
	if p.X, err = r.ReadInt16(); err != nil {
		return err
	}
	p.Y, err = r.ReadInt16()

	return err
}

func TestArray_RoundTrip(t *testing.T) {
	points := []point{{1, 2}, {-3, 4}, {32767, -32768}}

	w := NewWriter()
	require.NoError(t, AppendArray(w, points, 4))
	require.Equal(t, 3+3*32, w.BitLen())

	r := NewReader(w.PackBytes())
	got, err := ReadArray[point](r, 4)
	require.NoError(t, err)
	require.NoError(t, r.Done())

	if diff := cmp.Diff(points, got); diff != "" {
		t.Fatalf("decoded points mismatch (-want +got):\n%s", diff)
	}
}

func TestArray_MaxCountEnforced(t *testing.T) {
	points := make([]point, 5)

	w := NewWriter()
	require.ErrorIs(t, AppendArray(w, points, 4), errs.ErrArrayTooLong)

	require.NoError(t, AppendArray(w, points, 7))
	_, err := ReadArray[point](NewReader(w.PackBytes()), 4)
	require.ErrorIs(t, err, errs.ErrArrayTooLong)
}

func TestArray_Empty(t *testing.T) {
	w := NewWriter()
	require.NoError(t, AppendArray[point](w, nil, 1))

	got, err := ReadArray[point](NewReader(w.PackBytes()), 1)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestUnboundedArray_RoundTrip(t *testing.T) {
	points := []point{{10, 20}, {30, 40}}

	w := NewWriter()
	require.NoError(t, AppendUnboundedArray(w, points))
	require.Equal(t, 32+2*32, w.BitLen())

	r := NewReader(w.PackBytes())
	got, err := ReadUnboundedArray[point](r)
	require.NoError(t, err)
	require.Equal(t, points, got)
}

func TestUnboundedArray_CountAboveInput(t *testing.T) {
	w := NewWriter()
	w.AppendUint32(1 << 30)
	w.AppendUint64(0)

	_, err := ReadUnboundedArray[point](NewReader(w.PackBytes()))
	require.ErrorIs(t, err, errs.ErrEndOfStream)
}

func TestArray_TruncatedElement(t *testing.T) {
	w := NewWriter()
	require.NoError(t, AppendArray(w, []point{{1, 1}, {2, 2}}, 2))
	packed := w.PackBytes()

	_, err := ReadArray[point](NewReader(packed[:len(packed)-2]), 2)
	require.ErrorIs(t, err, errs.ErrEndOfStream)
	require.ErrorContains(t, err, "element 1")
}

func TestSlice_RoundTrip(t *testing.T) {
	values := []uint8{3, 1, 4, 1, 5}
	appendNibble := func(w *Writer, v uint8) error {
		w.AppendBits(uint64(v), 4)
		return nil
	}
	readNibble := func(r *Reader) (uint8, error) {
		v, err := r.ReadBits(4)
		return uint8(v), err
	}

	w := NewWriter()
	require.NoError(t, AppendSlice(w, values, 8, appendNibble))
	require.Equal(t, 4+5*4, w.BitLen())

	got, err := ReadSlice(NewReader(w.PackBytes()), 8, readNibble)
	require.NoError(t, err)
	require.Equal(t, values, got)

	_, err = ReadSlice(NewReader(w.PackBytes()), 4, readNibble)
	require.ErrorIs(t, err, errs.ErrArrayTooLong)
}

func TestWriter_AppendAndRead(t *testing.T) {
	in := point{X: -1, Y: 1}

	w := NewWriter()
	require.NoError(t, w.Append(&in))

	var out point
	r := NewReader(w.PackBytes())
	require.NoError(t, r.Read(&out))
	require.Equal(t, in, out)
}
