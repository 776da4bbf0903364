package binding

import (
	"fmt"
	"reflect"

	"github.com/arloliu/bitpack/bitstream"
	"github.com/arloliu/bitpack/errs"
	"github.com/arloliu/bitpack/schema"
)

// converter moves one field between its Go representation and the value the
// schema type encodes. depth counts the self-referencing structs entered so
// far.
type converter interface {
	toValue(v reflect.Value, depth int) (any, error)
	setValue(dst reflect.Value, x any) error
}

type scalarConv struct{}

func (scalarConv) toValue(v reflect.Value, _ int) (any, error) {
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.String:
		return v.String(), nil
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedType, v.Type())
	}
}

func (scalarConv) setValue(dst reflect.Value, x any) error {
	rv := reflect.ValueOf(x)
	if !rv.IsValid() {
		return fmt.Errorf("%w: nil for %s", errs.ErrInvalidValue, dst.Type())
	}

	switch dst.Kind() {
	case reflect.Bool:
		if rv.Kind() != reflect.Bool {
			break
		}
		dst.SetBool(rv.Bool())

		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var n int64
		switch {
		case rv.CanInt():
			n = rv.Int()
		case rv.CanUint() && rv.Uint() <= 1<<63-1:
			n = int64(rv.Uint())
		default:
			return fmt.Errorf("%w: %T for %s", errs.ErrInvalidValue, x, dst.Type())
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("%w: %d overflows %s", errs.ErrValueOutOfRange, n, dst.Type())
		}
		dst.SetInt(n)

		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var n uint64
		switch {
		case rv.CanUint():
			n = rv.Uint()
		case rv.CanInt() && rv.Int() >= 0:
			n = uint64(rv.Int())
		default:
			return fmt.Errorf("%w: %T for %s", errs.ErrInvalidValue, x, dst.Type())
		}
		if dst.OverflowUint(n) {
			return fmt.Errorf("%w: %d overflows %s", errs.ErrValueOutOfRange, n, dst.Type())
		}
		dst.SetUint(n)

		return nil
	case reflect.Float32, reflect.Float64:
		if !rv.CanFloat() {
			break
		}
		dst.SetFloat(rv.Float())

		return nil
	case reflect.String:
		if rv.Kind() != reflect.String {
			break
		}
		dst.SetString(rv.String())

		return nil
	}

	return fmt.Errorf("%w: %T for %s", errs.ErrInvalidValue, x, dst.Type())
}

type bytesConv struct{}

func (bytesConv) toValue(v reflect.Value, _ int) (any, error) {
	return v.Bytes(), nil
}

func (bytesConv) setValue(dst reflect.Value, x any) error {
	b, ok := x.([]byte)
	if !ok {
		return fmt.Errorf("%w: %T for %s", errs.ErrInvalidValue, x, dst.Type())
	}
	dst.SetBytes(b)

	return nil
}

type sliceConv struct {
	elem converter
}

func (c sliceConv) toValue(v reflect.Value, depth int) (any, error) {
	return collect(c.elem, v, depth)
}

func (c sliceConv) setValue(dst reflect.Value, x any) error {
	items, ok := x.([]any)
	if !ok {
		return fmt.Errorf("%w: %T for %s", errs.ErrInvalidValue, x, dst.Type())
	}

	s := reflect.MakeSlice(dst.Type(), len(items), len(items))
	if err := fill(c.elem, s, items); err != nil {
		return err
	}
	dst.Set(s)

	return nil
}

// arrayConv binds Go arrays. Decoded arrays shorter than the Go array leave
// the remaining elements zero.
type arrayConv struct {
	elem converter
}

func (c arrayConv) toValue(v reflect.Value, depth int) (any, error) {
	return collect(c.elem, v, depth)
}

func (c arrayConv) setValue(dst reflect.Value, x any) error {
	items, ok := x.([]any)
	if !ok {
		return fmt.Errorf("%w: %T for %s", errs.ErrInvalidValue, x, dst.Type())
	}
	if len(items) > dst.Len() {
		return fmt.Errorf("%w: %d elements for %s", errs.ErrArrayTooLong, len(items), dst.Type())
	}

	dst.SetZero()

	return fill(c.elem, dst, items)
}

func collect(elem converter, v reflect.Value, depth int) ([]any, error) {
	out := make([]any, v.Len())
	for i := range out {
		x, err := elem.toValue(v.Index(i), depth)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = x
	}

	return out, nil
}

func fill(elem converter, dst reflect.Value, items []any) error {
	for i, item := range items {
		if err := elem.setValue(dst.Index(i), item); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}

	return nil
}

type optionalConv struct {
	elem converter
}

func (c optionalConv) toValue(v reflect.Value, depth int) (any, error) {
	if v.IsNil() {
		return nil, nil
	}

	return c.elem.toValue(v.Elem(), depth)
}

func (c optionalConv) setValue(dst reflect.Value, x any) error {
	if x == nil {
		dst.SetZero()
		return nil
	}

	p := reflect.New(dst.Type().Elem())
	if err := c.elem.setValue(p.Elem(), x); err != nil {
		return err
	}
	dst.Set(p)

	return nil
}

type structConv struct {
	b *Binding
}

func (c structConv) toValue(v reflect.Value, depth int) (any, error) {
	return c.b.values(v, depth)
}

func (c structConv) setValue(dst reflect.Value, x any) error {
	values, ok := x.(schema.Values)
	if !ok {
		return fmt.Errorf("%w: %T for %s", errs.ErrInvalidValue, x, dst.Type())
	}

	return c.b.setValues(dst, values)
}

// refConv binds a struct field that leads back to a struct still being built,
// such as a node's children. The schema side is a schema.Ref.
type refConv struct {
	b *Binding
}

func (c refConv) toValue(v reflect.Value, depth int) (any, error) {
	if depth >= bitstream.MaxDepth {
		return nil, fmt.Errorf("%w: %s nests deeper than %d", errs.ErrInvalidValue, c.b.typ, bitstream.MaxDepth)
	}

	return c.b.values(v, depth+1)
}

func (c refConv) setValue(dst reflect.Value, x any) error {
	return structConv(c).setValue(dst, x)
}

// customConv binds types whose pointer implements bitstream.Codable. Values
// travel through the schema as pointers to copies.
type customConv struct {
	typ reflect.Type
}

func (c customConv) toValue(v reflect.Value, _ int) (any, error) {
	p := reflect.New(c.typ)
	p.Elem().Set(v)

	return p.Interface(), nil
}

func (c customConv) setValue(dst reflect.Value, x any) error {
	rv := reflect.ValueOf(x)
	if !rv.IsValid() || rv.Type() != reflect.PointerTo(c.typ) || rv.IsNil() {
		return fmt.Errorf("%w: %T for %s", errs.ErrInvalidValue, x, dst.Type())
	}
	dst.Set(rv.Elem())

	return nil
}

type skipConv struct{}

func (skipConv) toValue(reflect.Value, int) (any, error) { return nil, nil }

func (skipConv) setValue(dst reflect.Value, _ any) error {
	dst.SetZero()
	return nil
}
