package schema

import (
	"fmt"
	"sync/atomic"

	"github.com/arloliu/bitpack/bitstream"
	"github.com/arloliu/bitpack/errs"
	"github.com/arloliu/bitpack/format"
)

// Ref is a named reference to a record that is declared later, typically the
// record that contains it. It lets a record hold children of its own type:
//
//	ref := schema.NewRef("Tree")
//	tree := schema.MustRecord("Tree",
//		schema.Bits("value", 8),
//		schema.BoundedArray("children", ref, 125),
//	)
//	err := ref.Resolve(tree)
//
// A Ref must sit inside an array, list or optional so that every value ends.
// It cannot be a record field on its own. Nesting is limited to
// bitstream.MaxDepth levels on encode and decode.
//
// The description of a Ref is its record name, which keeps the descriptions
// and fingerprints of recursive records finite.
type Ref struct {
	name string
	rec  atomic.Pointer[Record]
}

var _ Type = (*Ref)(nil)

// NewRef returns an unresolved reference to the record called name.
func NewRef(name string) *Ref {
	return &Ref{name: name}
}

// Resolve binds the reference to rec. It fails when rec has another name or
// the reference is already resolved.
func (r *Ref) Resolve(rec *Record) error {
	if rec == nil {
		return fmt.Errorf("%w: ref %s resolved to nil", errs.ErrInvalidSchema, r.name)
	}
	if rec.name != r.name {
		return fmt.Errorf("%w: ref %s resolved to record %s", errs.ErrInvalidSchema, r.name, rec.name)
	}
	if !r.rec.CompareAndSwap(nil, rec) {
		return fmt.Errorf("%w: ref %s already resolved", errs.ErrInvalidSchema, r.name)
	}

	return nil
}

// Record returns the referenced record, or nil before Resolve.
func (r *Ref) Record() *Record { return r.rec.Load() }

func (r *Ref) Kind() format.FieldKind { return format.KindRecord }
func (r *Ref) String() string         { return "ref(" + r.name + ")" }
func (r *Ref) FixedBits() (int, bool) { return 0, false }

func (r *Ref) validate() error {
	if r.name == "" {
		return fmt.Errorf("%w: ref has no record name", errs.ErrInvalidSchema)
	}

	return nil
}

func (r *Ref) target() (*Record, error) {
	rec := r.rec.Load()
	if rec == nil {
		return nil, fmt.Errorf("%w: ref %s is not resolved", errs.ErrInvalidSchema, r.name)
	}

	return rec, nil
}

func (r *Ref) encode(w *bitstream.Writer, v any) error {
	rec, err := r.target()
	if err != nil {
		return err
	}
	if err := w.Descend(); err != nil {
		return err
	}
	defer w.Ascend()

	return rec.encode(w, v)
}

func (r *Ref) decode(rd *bitstream.Reader) (any, error) {
	rec, err := r.target()
	if err != nil {
		return nil, err
	}
	if err := rd.Descend(); err != nil {
		return nil, err
	}
	defer rd.Ascend()

	return rec.decode(rd)
}

func (r *Ref) fromDoc(v any) (any, error) {
	rec, err := r.target()
	if err != nil {
		return nil, err
	}

	return rec.fromDoc(v)
}

func (r *Ref) toDoc(v any) any {
	rec := r.rec.Load()
	if rec == nil {
		return v
	}

	return rec.toDoc(v)
}
