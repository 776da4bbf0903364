package schema

import (
	"encoding/base64"
	"fmt"
	"reflect"

	"github.com/goccy/go-json"

	"github.com/arloliu/bitpack/bitstream"
	"github.com/arloliu/bitpack/errs"
	"github.com/arloliu/bitpack/format"
)

// elements returns the items of any slice or array value.
func elements(v any) ([]any, error) {
	if items, ok := v.([]any); ok {
		return items, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: want a slice, got %T", errs.ErrInvalidValue, v)
	}

	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}

	return items, nil
}

func elemsFromDoc(elem Type, v any) (any, error) {
	items, err := elements(v)
	if err != nil {
		return nil, err
	}

	out := make([]any, len(items))
	for i, item := range items {
		if out[i], err = elem.fromDoc(item); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}

	return out, nil
}

func elemsToDoc(elem Type, v any) any {
	items, err := elements(v)
	if err != nil {
		return v
	}

	out := make([]any, len(items))
	for i, item := range items {
		out[i] = elem.toDoc(item)
	}

	return out
}

type arrayType struct {
	elem     Type
	maxCount int
}

// ArrayOf returns an array of at most maxCount elements of elem, prefixed by a
// count of bitstream.CountBits(maxCount) bits. Decoded values are []any.
//
// With a compressed element type this is the compressed array representation.
func ArrayOf(elem Type, maxCount int) Type {
	return arrayType{elem: elem, maxCount: maxCount}
}

func (t arrayType) Kind() format.FieldKind { return format.KindArray }

func (t arrayType) String() string {
	return fmt.Sprintf("array(%s;%d)", typeString(t.elem), t.maxCount)
}

func (t arrayType) FixedBits() (int, bool) { return 0, false }

func (t arrayType) validate() error {
	if t.maxCount <= 0 {
		return fmt.Errorf("%w: %d", errs.ErrInvalidMaxCount, t.maxCount)
	}

	return validateElem(t.elem)
}

func (t arrayType) encode(w *bitstream.Writer, v any) error {
	items, err := elements(v)
	if err != nil {
		return err
	}

	return bitstream.AppendSlice(w, items, t.maxCount, t.elem.encode)
}

func (t arrayType) decode(r *bitstream.Reader) (any, error) {
	return bitstream.ReadSlice(r, t.maxCount, t.elem.decode)
}

func (t arrayType) fromDoc(v any) (any, error) { return elemsFromDoc(t.elem, v) }
func (t arrayType) toDoc(v any) any            { return elemsToDoc(t.elem, v) }

type listType struct {
	elem Type
}

// ListOf returns an array with a 32-bit count prefix and no declared maximum.
// Decoded values are []any.
func ListOf(elem Type) Type {
	return listType{elem: elem}
}

func (t listType) Kind() format.FieldKind { return format.KindUnboundedArray }
func (t listType) String() string         { return fmt.Sprintf("list(%s)", typeString(t.elem)) }
func (t listType) FixedBits() (int, bool) { return 0, false }

// validate rejects zero-width elements too: the decoder checks the count
// against the remaining bits, so a list of them could not be read back.
func (t listType) validate() error {
	if err := validateElem(t.elem); err != nil {
		return err
	}
	if bits, fixed := t.elem.FixedBits(); fixed && bits == 0 {
		return fmt.Errorf("%w: list elements %s take no bits", errs.ErrInvalidSchema, typeString(t.elem))
	}

	return nil
}

func (t listType) encode(w *bitstream.Writer, v any) error {
	items, err := elements(v)
	if err != nil {
		return err
	}
	if len(items) > bitstream.DefaultMaxBytes {
		return fmt.Errorf("%w: %d elements", errs.ErrArrayTooLong, len(items))
	}

	w.AppendBits(uint64(len(items)), 32)
	for i, item := range items {
		if err := t.elem.encode(w, item); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}

	return nil
}

func (t listType) decode(r *bitstream.Reader) (any, error) {
	n, err := r.ReadUnboundedCount()
	if err != nil {
		return nil, err
	}

	out := make([]any, 0, n)
	for i := range n {
		v, err := t.elem.decode(r)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}

	return out, nil
}

func (t listType) fromDoc(v any) (any, error) { return elemsFromDoc(t.elem, v) }
func (t listType) toDoc(v any) any            { return elemsToDoc(t.elem, v) }

type bytesType struct {
	maxCount int
}

// BytesOf returns a count-prefixed byte blob of at most maxCount bytes. A
// maxCount of zero selects bitstream.DefaultMaxBytes. Decoded values are []byte.
func BytesOf(maxCount int) Type {
	if maxCount == 0 {
		maxCount = bitstream.DefaultMaxBytes
	}

	return bytesType{maxCount: maxCount}
}

func (t bytesType) Kind() format.FieldKind { return format.KindBytes }

func (t bytesType) String() string {
	if t.maxCount == bitstream.DefaultMaxBytes {
		return "bytes"
	}

	return fmt.Sprintf("bytes(%d)", t.maxCount)
}

func (t bytesType) FixedBits() (int, bool) { return 0, false }

func (t bytesType) validate() error {
	if t.maxCount <= 0 || t.maxCount > bitstream.DefaultMaxBytes {
		return fmt.Errorf("%w: %d", errs.ErrInvalidMaxCount, t.maxCount)
	}

	return nil
}

func (t bytesType) encode(w *bitstream.Writer, v any) error {
	b, ok := v.([]byte)
	if !ok {
		return fmt.Errorf("%w: want []byte, got %T", errs.ErrInvalidValue, v)
	}

	return w.AppendBytes(b, t.maxCount)
}

func (t bytesType) decode(r *bitstream.Reader) (any, error) {
	return r.ReadBytes(t.maxCount)
}

// fromDoc accepts the base64 text JSON encoders produce for byte slices, or a
// list of byte values.
func (t bytesType) fromDoc(v any) (any, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		b, err := base64.StdEncoding.DecodeString(x)
		if err != nil {
			return nil, fmt.Errorf("%w: bytes must be base64: %w", errs.ErrInvalidValue, err)
		}

		return b, nil
	default:
		items, err := elements(v)
		if err != nil {
			return nil, err
		}

		out := make([]byte, len(items))
		for i, item := range items {
			n, err := toUint64(item)
			if err != nil || n > 0xFF {
				return nil, fmt.Errorf("%w: element %d is not a byte", errs.ErrInvalidValue, i)
			}
			out[i] = byte(n)
		}

		return out, nil
	}
}

func (t bytesType) toDoc(v any) any { return v }

type optionalType struct {
	elem Type
}

// OptionalOf returns a presence bit followed by elem when the value is not nil.
func OptionalOf(elem Type) Type {
	return optionalType{elem: elem}
}

func (t optionalType) Kind() format.FieldKind { return format.KindOptional }
func (t optionalType) String() string         { return fmt.Sprintf("optional(%s)", typeString(t.elem)) }
func (t optionalType) FixedBits() (int, bool) { return 0, false }
func (t optionalType) validate() error        { return validateElem(t.elem) }

func (t optionalType) encode(w *bitstream.Writer, v any) error {
	if isNil(v) {
		w.AppendBool(false)
		return nil
	}

	w.AppendBool(true)

	return t.elem.encode(w, deref(v))
}

func (t optionalType) decode(r *bitstream.Reader) (any, error) {
	present, err := r.ReadBool()
	if err != nil || !present {
		return nil, err
	}

	return t.elem.decode(r)
}

func (t optionalType) fromDoc(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	return t.elem.fromDoc(v)
}

func (t optionalType) toDoc(v any) any {
	if v == nil {
		return nil
	}

	return t.elem.toDoc(v)
}

type customType struct {
	factory func() bitstream.Codable
	name    string
}

// CustomOf returns a type whose values encode themselves. factory must return a
// new, empty value to decode into; decoded values are the factory's results.
func CustomOf(factory func() bitstream.Codable) Type {
	t := customType{factory: factory}
	if factory != nil {
		t.name = fmt.Sprintf("%T", factory())
	}

	return t
}

func (t customType) Kind() format.FieldKind { return format.KindCustom }
func (t customType) String() string         { return "custom(" + t.name + ")" }
func (t customType) FixedBits() (int, bool) { return 0, false }

func (t customType) validate() error {
	if t.factory == nil {
		return fmt.Errorf("%w: custom type without factory", errs.ErrInvalidSchema)
	}

	return nil
}

func (t customType) encode(w *bitstream.Writer, v any) error {
	e, ok := v.(bitstream.Encodable)
	if !ok {
		return fmt.Errorf("%w: %T does not implement bitstream.Encodable", errs.ErrInvalidValue, v)
	}

	return e.EncodeBits(w)
}

func (t customType) decode(r *bitstream.Reader) (any, error) {
	v := t.factory()
	if err := v.DecodeBits(r); err != nil {
		return nil, err
	}

	return v, nil
}

// fromDoc round-trips the document value through JSON into a new value.
func (t customType) fromDoc(v any) (any, error) {
	if _, ok := v.(bitstream.Encodable); ok {
		return v, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidValue, err)
	}

	out := t.factory()
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errs.ErrInvalidValue, t.name, err)
	}

	return out, nil
}

func (t customType) toDoc(v any) any { return v }

func validateElem(elem Type) error {
	if elem == nil {
		return fmt.Errorf("%w: missing element type", errs.ErrInvalidSchema)
	}
	if elem.Kind() == format.KindSkip {
		return fmt.Errorf("%w: skip is not a valid element type", errs.ErrInvalidSchema)
	}

	return elem.validate()
}

// typeString describes t inside a composite description. Named types are
// referenced by their full description so the fingerprint covers them.
func typeString(t Type) string {
	if t == nil {
		return "<nil>"
	}

	return t.String()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// deref unwraps pointers to plain values, keeping pointers that encode
// themselves.
func deref(v any) any {
	if _, ok := v.(bitstream.Encodable); ok {
		return v
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}

	return rv.Interface()
}
