// Package bitstream provides bit-addressable writers and readers for compact
// network messages.
//
// A Writer appends values at bit granularity and a Reader consumes them in the
// same order. There is no framing, no field tags and no length of the whole
// message: the wire format of a message is the concatenation of its fields in
// declared order, so both sides must agree on the schema.
//
// # Bit Order
//
// Bits are written most significant first. AppendBits(0b101, 3) followed by
// AppendBits(0b1, 1) produces the byte 0b1011_0000 once packed; the last
// partial byte is padded with zero bits.
//
// # Usage
//
//	w := bitstream.NewWriter()
//	defer w.Release()
//
//	w.AppendBool(true)
//	w.AppendBits(5, 3)
//	if err := w.AppendString("hello"); err != nil {
//	    return err
//	}
//	packed := w.PackBytes()
//
//	r := bitstream.NewReader(packed)
//	flag, _ := r.ReadBool()
//	status, _ := r.ReadBits(3)
//	name, err := r.ReadString()
//
// # Raw Widths
//
//   - bool: 1 bit
//   - int8/uint8: 8 bits, int16/uint16: 16 bits, int32/uint32: 32 bits
//   - int/uint/int64/uint64: 64 bits
//   - float32/float64: the IEEE-754 bit pattern
//   - string: 32-bit byte length followed by UTF-8 bytes
//
// # Bounded Collections
//
// Arrays and byte blobs carry an element count. When the schema declares a
// maximum count the prefix takes CountBits(maxCount) bits and readers reject
// larger counts with errs.ErrArrayTooLong before allocating anything.
//
// # Custom Types
//
// Types implementing Encodable and Decodable compose with the generic helpers:
//
//	type Point struct{ X, Y int16 }
//
//	func (p *Point) EncodeBits(w *bitstream.Writer) error {
//	    w.AppendInt16(p.X)
//	    w.AppendInt16(p.Y)
//	    return nil
//	}
//
//	func (p *Point) DecodeBits(r *bitstream.Reader) (err error) {
//	    if p.X, err = r.ReadInt16(); err != nil {
//	        return err
//	    }
//	    p.Y, err = r.ReadInt16()
//	    return err
//	}
//
//	err := bitstream.AppendArray(w, points, 16)
//	points, err := bitstream.ReadArray[Point](r, 16)
package bitstream
