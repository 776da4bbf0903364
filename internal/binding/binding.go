// Package binding derives record schemas from Go struct types and moves values
// between structs and schema.Values.
//
// Exported fields are encoded in declaration order. Untagged scalars use their
// raw width, pointers are optional values, nested structs become nested
// records and fields whose pointer type implements bitstream.Codable encode
// themselves. The `bit` struct tag selects compressed representations; see
// parseTag for the syntax.
package binding

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"sync"

	"github.com/arloliu/bitpack/bitstream"
	"github.com/arloliu/bitpack/errs"
	"github.com/arloliu/bitpack/format"
	"github.com/arloliu/bitpack/schema"
)

var (
	cache       sync.Map // reflect.Type -> *Binding
	codableType = reflect.TypeFor[bitstream.Codable]()
)

// Binding maps one struct type onto a schema record.
type Binding struct {
	typ    reflect.Type
	record *schema.Record
	fields []boundField
}

type boundField struct {
	index int
	conv  converter
}

// For returns the binding of t, which must be a struct or a pointer to one.
// Bindings are built once per type and cached.
//
// A struct may refer back to itself, or to a struct that contains it, through
// a pointer, slice or array field. The record then holds a schema.Ref named
// after the struct.
func For(t reflect.Type) (*Binding, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", errs.ErrUnsupportedType)
	}

	bd := &builder{index: make(map[reflect.Type]int), low: closed}

	return bd.lookup(t)
}

// Of returns the binding of v's type.
func Of(v any) (*Binding, error) {
	return For(reflect.TypeOf(v))
}

// closed marks a binding that refers to no struct still being built.
const closed = math.MaxInt

// builder derives the bindings reachable from one struct type. Structs under
// construction sit on stack; low is the lowest stack position referred to by
// the struct currently being built.
type builder struct {
	stack []*pendingType
	index map[reflect.Type]int
	low   int
}

type pendingType struct {
	b   *Binding
	ref *schema.Ref
}

// lookup returns the cached binding of t or builds it. Only bindings that do
// not depend on an enclosing struct are cached, so a type binds the same way
// whichever struct it is first reached from.
func (bd *builder) lookup(t reflect.Type) (*Binding, error) {
	if b, ok := cache.Load(t); ok {
		return b.(*Binding), nil
	}

	b, cacheable, err := bd.build(t)
	if err != nil {
		return nil, err
	}
	if !cacheable {
		return b, nil
	}

	actual, _ := cache.LoadOrStore(t, b)

	return actual.(*Binding), nil
}

func (bd *builder) build(t reflect.Type) (*Binding, bool, error) {
	if t.Kind() != reflect.Struct {
		return nil, false, fmt.Errorf("%w: %s is not a struct", errs.ErrUnsupportedType, t)
	}

	pos := len(bd.stack)
	pt := &pendingType{b: &Binding{typ: t}}
	bd.stack = append(bd.stack, pt)
	bd.index[t] = pos
	outer := bd.low
	bd.low = closed

	defer func() {
		bd.stack = bd.stack[:pos]
		delete(bd.index, t)
	}()

	b := pt.b
	var fields []schema.Field

	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		tg, err := parseTag(sf.Tag.Get(tagName))
		if err != nil {
			return nil, false, fmt.Errorf("%s.%s: %w", t.Name(), sf.Name, err)
		}

		if tg.skip {
			fields = append(fields, schema.Skip(sf.Name, nil))
			b.fields = append(b.fields, boundField{index: i, conv: skipConv{}})

			continue
		}

		ft, conv, err := bd.resolve(sf.Type, tg)
		if err != nil {
			return nil, false, fmt.Errorf("%s.%s: %w", t.Name(), sf.Name, err)
		}

		fields = append(fields, schema.Field{Name: sf.Name, Type: ft})
		b.fields = append(b.fields, boundField{index: i, conv: conv})
	}

	rec, err := schema.NewRecord(recordName(t), fields...)
	if err != nil {
		return nil, false, err
	}
	if pt.ref != nil {
		if err := pt.ref.Resolve(rec); err != nil {
			return nil, false, err
		}
	}
	b.record = rec

	low := bd.low
	if low >= pos {
		low = closed
	}
	bd.low = min(outer, low)

	return b, low == closed, nil
}

func recordName(t reflect.Type) string {
	if t.Name() == "" {
		return "struct"
	}

	return t.Name()
}

func (bd *builder) resolve(t reflect.Type, tg tag) (schema.Type, converter, error) {
	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface && reflect.PointerTo(t).Implements(codableType) {
		if !tg.isZero() {
			return nil, nil, fmt.Errorf("%w: %s encodes itself and takes no tag options", errs.ErrInvalidSchema, t)
		}

		factory := func() bitstream.Codable {
			return reflect.New(t).Interface().(bitstream.Codable)
		}

		return schema.CustomOf(factory), customConv{typ: t}, nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem, conv, err := bd.resolve(t.Elem(), tg)
		if err != nil {
			return nil, nil, err
		}

		return schema.OptionalOf(elem), optionalConv{elem: conv}, nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 && tg.scalar == "" && tg.bits == 0 &&
			(tg.container == "" || tg.container == "bytes") {
			return schema.BytesOf(tg.count), bytesConv{}, nil
		}
		if tg.container == "bytes" {
			return nil, nil, fmt.Errorf("%w: bytes needs a []byte field, got %s", errs.ErrInvalidSchema, t)
		}

		elem, conv, err := bd.resolve(t.Elem(), tg.elem())
		if err != nil {
			return nil, nil, fmt.Errorf("elem: %w", err)
		}

		if tg.count > 0 || tg.container == "array" {
			return schema.ArrayOf(elem, tg.count), sliceConv{elem: conv}, nil
		}

		return schema.ListOf(elem), sliceConv{elem: conv}, nil
	case reflect.Array:
		if tg.count != 0 && tg.count != t.Len() {
			return nil, nil, fmt.Errorf("%w: count=%d on %s", errs.ErrInvalidMaxCount, tg.count, t)
		}

		elem, conv, err := bd.resolve(t.Elem(), tg.elem())
		if err != nil {
			return nil, nil, fmt.Errorf("elem: %w", err)
		}

		return schema.ArrayOf(elem, t.Len()), arrayConv{elem: conv}, nil
	case reflect.Struct:
		if !tg.isZero() {
			return nil, nil, fmt.Errorf("%w: nested %s takes no tag options", errs.ErrInvalidSchema, t)
		}

		if pos, ok := bd.index[t]; ok {
			pt := bd.stack[pos]
			if pt.ref == nil {
				pt.ref = schema.NewRef(recordName(t))
			}
			bd.low = min(bd.low, pos)

			return pt.ref, refConv{b: pt.b}, nil
		}

		nested, err := bd.lookup(t)
		if err != nil {
			return nil, nil, err
		}

		return nested.record, structConv{b: nested}, nil
	default:
		return resolveScalar(t, tg)
	}
}

func resolveScalar(t reflect.Type, tg tag) (schema.Type, converter, error) {
	if tg.container != "" || tg.count != 0 {
		return nil, nil, fmt.Errorf("%w: %s is not a collection", errs.ErrInvalidSchema, t)
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch {
		case tg.scalar == "int":
			lo, hi, err := intBounds(t, tg)
			if err != nil {
				return nil, nil, err
			}

			return schema.IntOf(lo, hi), scalarConv{}, nil
		case tg.isZero():
			return schema.RawOf(rawInt(t)), scalarConv{}, nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		switch {
		case tg.scalar == "uint":
			lo, hi, err := uintBounds(t, tg)
			if err != nil {
				return nil, nil, err
			}

			return schema.UintOf(lo, hi), scalarConv{}, nil
		case tg.scalar == "" && !tg.hasBounds() && tg.bits > 0:
			if tg.bits > t.Bits() {
				return nil, nil, fmt.Errorf("%w: bits=%d on %s", errs.ErrInvalidBitCount, tg.bits, t)
			}

			return schema.BitsOf(tg.bits), scalarConv{}, nil
		case tg.isZero():
			return schema.RawOf(rawUint(t)), scalarConv{}, nil
		}
	case reflect.Float32, reflect.Float64:
		switch {
		case tg.scalar == "float":
			lo, hi, err := floatBounds(tg, 32)
			if err != nil {
				return nil, nil, err
			}

			return schema.FloatOf(float32(lo), float32(hi), tg.bits), scalarConv{}, nil
		case tg.scalar == "double" && t.Kind() == reflect.Float64:
			lo, hi, err := floatBounds(tg, 64)
			if err != nil {
				return nil, nil, err
			}

			return schema.DoubleOf(lo, hi, tg.bits), scalarConv{}, nil
		case tg.isZero() && t.Kind() == reflect.Float32:
			return schema.RawOf(format.RawFloat32), scalarConv{}, nil
		case tg.isZero():
			return schema.RawOf(format.RawFloat64), scalarConv{}, nil
		}
	case reflect.Bool:
		if tg.isZero() {
			return schema.RawOf(format.RawBool), scalarConv{}, nil
		}
	case reflect.String:
		if tg.isZero() {
			return schema.RawOf(format.RawString), scalarConv{}, nil
		}
	default:
		return nil, nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedType, t)
	}

	return nil, nil, fmt.Errorf("%w: tag options do not apply to %s", errs.ErrInvalidSchema, t)
}

func rawInt(t reflect.Type) format.RawType {
	switch t.Bits() {
	case 8:
		return format.RawInt8
	case 16:
		return format.RawInt16
	case 32:
		return format.RawInt32
	default:
		return format.RawInt64
	}
}

func rawUint(t reflect.Type) format.RawType {
	switch t.Bits() {
	case 8:
		return format.RawUint8
	case 16:
		return format.RawUint16
	case 32:
		return format.RawUint32
	default:
		return format.RawUint64
	}
}

// intBounds parses min and max and checks that both fit the field type.
func intBounds(t reflect.Type, tg tag) (int64, int64, error) {
	if tg.min == "" || tg.max == "" {
		return 0, 0, fmt.Errorf("%w: int needs min and max", errs.ErrInvalidBounds)
	}

	lo, err := strconv.ParseInt(tg.min, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: min %q: %w", errs.ErrInvalidBounds, tg.min, err)
	}
	hi, err := strconv.ParseInt(tg.max, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: max %q: %w", errs.ErrInvalidBounds, tg.max, err)
	}

	limit := int64(math.MaxInt64 >> (64 - t.Bits()))
	if lo < ^limit || hi > limit {
		return 0, 0, fmt.Errorf("%w: [%d, %d] does not fit %s", errs.ErrInvalidBounds, lo, hi, t)
	}

	return lo, hi, nil
}

func uintBounds(t reflect.Type, tg tag) (uint64, uint64, error) {
	if tg.min == "" || tg.max == "" {
		return 0, 0, fmt.Errorf("%w: uint needs min and max", errs.ErrInvalidBounds)
	}

	lo, err := strconv.ParseUint(tg.min, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: min %q: %w", errs.ErrInvalidBounds, tg.min, err)
	}
	hi, err := strconv.ParseUint(tg.max, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: max %q: %w", errs.ErrInvalidBounds, tg.max, err)
	}

	if limit := uint64(math.MaxUint64) >> (64 - t.Bits()); hi > limit {
		return 0, 0, fmt.Errorf("%w: [%d, %d] does not fit %s", errs.ErrInvalidBounds, lo, hi, t)
	}

	return lo, hi, nil
}

func floatBounds(tg tag, bitSize int) (float64, float64, error) {
	if tg.min == "" || tg.max == "" {
		return 0, 0, fmt.Errorf("%w: floating fields need min and max", errs.ErrInvalidBounds)
	}

	lo, err := strconv.ParseFloat(tg.min, bitSize)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: min %q: %w", errs.ErrInvalidBounds, tg.min, err)
	}
	hi, err := strconv.ParseFloat(tg.max, bitSize)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: max %q: %w", errs.ErrInvalidBounds, tg.max, err)
	}

	return lo, hi, nil
}

// Record returns the schema the struct is encoded with.
func (b *Binding) Record() *schema.Record {
	return b.record
}

// Type returns the bound struct type.
func (b *Binding) Type() reflect.Type {
	return b.typ
}

// Values converts v, a struct or a pointer to one, into record values.
func (b *Binding) Values(v any) (schema.Values, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: nil %s", errs.ErrInvalidValue, rv.Type())
		}
		rv = rv.Elem()
	}
	if rv.Type() != b.typ {
		return nil, fmt.Errorf("%w: want %s, got %s", errs.ErrInvalidValue, b.typ, rv.Type())
	}

	return b.values(rv, 0)
}

// SetValues stores values into dst, which must be a non-nil pointer to the
// bound struct.
func (b *Binding) SetValues(dst any, values schema.Values) error {
	rv, err := b.target(dst)
	if err != nil {
		return err
	}

	return b.setValues(rv, values)
}

// Encode appends v to w.
func (b *Binding) Encode(w *bitstream.Writer, v any) error {
	values, err := b.Values(v)
	if err != nil {
		return err
	}

	return b.record.Encode(w, values)
}

// Decode reads one record from r into dst. dst is left unchanged on error.
func (b *Binding) Decode(r *bitstream.Reader, dst any) error {
	rv, err := b.target(dst)
	if err != nil {
		return err
	}

	values, err := b.record.Decode(r)
	if err != nil {
		return err
	}

	tmp := reflect.New(b.typ).Elem()
	if err := b.setValues(tmp, values); err != nil {
		return err
	}
	rv.Set(tmp)

	return nil
}

func (b *Binding) target(dst any) (reflect.Value, error) {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: decode target must be a non-nil pointer, got %T", errs.ErrInvalidValue, dst)
	}
	if rv.Elem().Type() != b.typ {
		return reflect.Value{}, fmt.Errorf("%w: want *%s, got %T", errs.ErrInvalidValue, b.typ, dst)
	}

	return rv.Elem(), nil
}

func (b *Binding) values(rv reflect.Value, depth int) (schema.Values, error) {
	out := make(schema.Values, len(b.fields))
	for i, f := range b.fields {
		v, err := f.conv.toValue(rv.Field(f.index), depth)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", b.typ.Name(), b.typ.Field(f.index).Name, err)
		}
		out[i] = v
	}

	return out, nil
}

func (b *Binding) setValues(rv reflect.Value, values schema.Values) error {
	if len(values) != len(b.fields) {
		return fmt.Errorf("%w: %s has %d fields, got %d values", errs.ErrInvalidValue, b.typ, len(b.fields), len(values))
	}

	for i, f := range b.fields {
		if err := f.conv.setValue(rv.Field(f.index), values[i]); err != nil {
			return fmt.Errorf("%s.%s: %w", b.typ.Name(), b.typ.Field(f.index).Name, err)
		}
	}

	return nil
}
