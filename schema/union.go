package schema

import (
	"fmt"
	"strings"

	"github.com/arloliu/bitpack/bitstream"
	"github.com/arloliu/bitpack/errs"
	"github.com/arloliu/bitpack/format"
)

// Case is one alternative of a tagged union: a name and the types of its
// payload values.
type Case struct {
	Name    string
	Payload []Type
}

// NewCase declares a union case.
func NewCase(name string, payload ...Type) Case {
	return Case{Name: name, Payload: payload}
}

// UnionValue is a decoded union: the 0-based case index and its payload.
type UnionValue struct {
	Case    int
	Payload Values
}

// Union is a compiled tagged union schema.
//
// A value is written as a 32-bit coding key, the 0-based declaration index of
// its case, followed by the case payload. Appending cases keeps existing
// coding keys stable; reordering or removing cases does not.
type Union struct {
	name  string
	cases []Case
	index map[string]int
	desc  string
}

var _ Type = (*Union)(nil)

// NewUnion validates and compiles a tagged union.
func NewUnion(name string, cases ...Case) (*Union, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: union name is empty", errs.ErrInvalidSchema)
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("%w: union %s has no cases", errs.ErrInvalidSchema, name)
	}

	u := &Union{
		name:  name,
		cases: make([]Case, len(cases)),
		index: make(map[string]int, len(cases)),
	}

	var desc strings.Builder
	desc.WriteString("union ")
	desc.WriteString(name)
	desc.WriteByte('{')

	for i, c := range cases {
		if c.Name == "" {
			return nil, fmt.Errorf("%w: union %s: case %d has no name", errs.ErrInvalidSchema, name, i)
		}
		if _, dup := u.index[c.Name]; dup {
			return nil, fmt.Errorf("%w: union %s: duplicate case %q", errs.ErrInvalidSchema, name, c.Name)
		}
		for j, t := range c.Payload {
			if err := validateElem(t); err != nil {
				return nil, fmt.Errorf("union %s: case %q: payload %d: %w", name, c.Name, j, err)
			}
		}

		u.index[c.Name] = i
		u.cases[i] = Case{Name: c.Name, Payload: append([]Type(nil), c.Payload...)}

		if i > 0 {
			desc.WriteByte('|')
		}
		desc.WriteString(c.Name)
		desc.WriteByte('(')
		for j, t := range c.Payload {
			if j > 0 {
				desc.WriteByte(',')
			}
			desc.WriteString(t.String())
		}
		desc.WriteByte(')')
	}

	desc.WriteByte('}')
	u.desc = desc.String()

	return u, nil
}

// MustUnion is like NewUnion but panics on an invalid schema.
func MustUnion(name string, cases ...Case) *Union {
	u, err := NewUnion(name, cases...)
	if err != nil {
		panic(err)
	}

	return u
}

// Name returns the union name.
func (u *Union) Name() string { return u.name }

// NumCases returns the number of declared cases.
func (u *Union) NumCases() int { return len(u.cases) }

// Case returns the case with coding key i.
func (u *Union) Case(i int) Case { return u.cases[i] }

// CaseIndex returns the coding key of the named case.
func (u *Union) CaseIndex(name string) (int, bool) {
	i, ok := u.index[name]
	return i, ok
}

// Kind implements Type.
func (u *Union) Kind() format.FieldKind { return format.KindUnion }

// String returns the canonical description of the union.
func (u *Union) String() string { return u.desc }

// FixedBits returns the encoded width when every case payload has the same
// fixed width.
func (u *Union) FixedBits() (int, bool) {
	width := -1
	for _, c := range u.cases {
		bits := 0
		for _, t := range c.Payload {
			n, ok := t.FixedBits()
			if !ok {
				return 0, false
			}
			bits += n
		}

		if width >= 0 && bits != width {
			return 0, false
		}
		width = bits
	}

	return 32 + width, true
}

// Encode writes the coding key of v.Case followed by its payload.
func (u *Union) Encode(w *bitstream.Writer, v UnionValue) error {
	if v.Case < 0 || v.Case >= len(u.cases) {
		return fmt.Errorf("%w: union %s has no case %d", errs.ErrInvalidValue, u.name, v.Case)
	}

	c := u.cases[v.Case]
	if len(v.Payload) != len(c.Payload) {
		return fmt.Errorf("%w: case %s.%s takes %d values, got %d",
			errs.ErrInvalidValue, u.name, c.Name, len(c.Payload), len(v.Payload))
	}

	w.AppendCodingKey(uint32(v.Case))
	for i, t := range c.Payload {
		if err := t.encode(w, v.Payload[i]); err != nil {
			return fmt.Errorf("%s.%s[%d]: %w", u.name, c.Name, i, err)
		}
	}

	return nil
}

// Decode reads a union written by Encode. Coding keys outside the declared
// cases fail with errs.ErrUnknownCase.
func (u *Union) Decode(r *bitstream.Reader) (UnionValue, error) {
	key, err := r.ReadCodingKey(len(u.cases))
	if err != nil {
		return UnionValue{}, fmt.Errorf("%s: %w", u.name, err)
	}

	c := u.cases[key]
	payload := make(Values, len(c.Payload))
	for i, t := range c.Payload {
		if payload[i], err = t.decode(r); err != nil {
			return UnionValue{}, fmt.Errorf("%s.%s[%d]: %w", u.name, c.Name, i, err)
		}
	}

	return UnionValue{Case: int(key), Payload: payload}, nil
}

func (u *Union) validate() error { return nil }

func (u *Union) encode(w *bitstream.Writer, v any) error {
	switch x := v.(type) {
	case UnionValue:
		return u.Encode(w, x)
	case *UnionValue:
		if x == nil {
			return fmt.Errorf("%w: nil union value", errs.ErrInvalidValue)
		}

		return u.Encode(w, *x)
	case map[string]any:
		uv, err := u.fromDoc(x)
		if err != nil {
			return err
		}

		return u.Encode(w, uv.(UnionValue))
	default:
		return fmt.Errorf("%w: union %s wants UnionValue, got %T", errs.ErrInvalidValue, u.name, v)
	}
}

func (u *Union) decode(r *bitstream.Reader) (any, error) {
	return u.Decode(r)
}

// fromDoc accepts {"case": name, "payload": [...]}. The payload may be omitted
// for cases without values.
func (u *Union) fromDoc(v any) (any, error) {
	switch x := v.(type) {
	case UnionValue:
		return x, nil
	case map[string]any:
		name, ok := x["case"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: union %s: \"case\" must be a case name", errs.ErrInvalidValue, u.name)
		}

		idx, ok := u.index[name]
		if !ok {
			return nil, fmt.Errorf("%w: union %s has no case %q", errs.ErrUnknownCase, u.name, name)
		}

		c := u.cases[idx]
		var items []any
		if raw, ok := x["payload"]; ok && raw != nil {
			var err error
			if items, err = elements(raw); err != nil {
				return nil, err
			}
		}
		if len(items) != len(c.Payload) {
			return nil, fmt.Errorf("%w: case %s.%s takes %d values, got %d",
				errs.ErrInvalidValue, u.name, name, len(c.Payload), len(items))
		}

		payload := make(Values, len(items))
		for i, item := range items {
			pv, err := c.Payload[i].fromDoc(item)
			if err != nil {
				return nil, fmt.Errorf("%s.%s[%d]: %w", u.name, name, i, err)
			}
			payload[i] = pv
		}

		return UnionValue{Case: idx, Payload: payload}, nil
	default:
		return nil, fmt.Errorf("%w: union %s wants an object, got %T", errs.ErrInvalidValue, u.name, v)
	}
}

func (u *Union) toDoc(v any) any {
	uv, ok := v.(UnionValue)
	if !ok || uv.Case < 0 || uv.Case >= len(u.cases) {
		return v
	}

	c := u.cases[uv.Case]
	payload := make([]any, len(uv.Payload))
	for i, pv := range uv.Payload {
		if i < len(c.Payload) {
			payload[i] = c.Payload[i].toDoc(pv)
		}
	}

	return map[string]any{"case": c.Name, "payload": payload}
}
