package binding

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/bitpack/bitstream"
	"github.com/arloliu/bitpack/errs"
	"github.com/arloliu/bitpack/format"
	"github.com/arloliu/bitpack/schema"
)

type treeVector struct {
	Number   int16
	Name     string
	Children []treeVector `bit:"array,count=125"`
}

type linkedNode struct {
	Value uint8
	Next  *linkedNode
}

type department struct {
	Name  string
	Teams []team `bit:"array,count=8"`
}

type team struct {
	Lead   string
	Parent *department
}

func roundTrip[T any](t *testing.T, in T) T {
	t.Helper()

	b, err := For(reflect.TypeFor[T]())
	require.NoError(t, err)

	w := bitstream.NewWriter()
	defer w.Release()
	require.NoError(t, b.Encode(w, &in))

	var got T
	r := bitstream.NewReader(w.PackBytes())
	require.NoError(t, b.Decode(r, &got))
	require.NoError(t, r.Done())

	return got
}

func newChain(n int) *linkedNode {
	var head *linkedNode
	for i := range n {
		head = &linkedNode{Value: uint8(i), Next: head}
	}

	return head
}

func TestBinding_RecursiveVector(t *testing.T) {
	in := treeVector{
		Number: 1,
		Name:   "root",
		Children: []treeVector{
			{Number: 2, Name: "leaf"},
			{Number: 3, Name: "branch", Children: []treeVector{
				{Number: 4, Name: "a"},
				{Number: -5, Name: "b", Children: []treeVector{{Number: 6}}},
			}},
		},
	}

	got := roundTrip(t, in)
	if diff := cmp.Diff(in, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("decoded tree mismatch (-want +got):\n%s", diff)
	}
}

func TestBinding_RecursiveSchema(t *testing.T) {
	b, err := For(reflect.TypeFor[treeVector]())
	require.NoError(t, err)

	ref := schema.NewRef("treeVector")
	want := schema.MustRecord("treeVector",
		schema.Raw("Number", format.RawInt16),
		schema.Raw("Name", format.RawString),
		schema.BoundedArray("Children", ref, 125),
	)
	require.NoError(t, ref.Resolve(want))

	require.Equal(t, want.String(), b.Record().String())
	require.Equal(t, want.Fingerprint(), b.Record().Fingerprint())
	require.Contains(t, b.Record().String(), "array(ref(treeVector);125)")
}

func TestBinding_LinkedList(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr error
	}{
		{name: "single", length: 1},
		{name: "short", length: 4},
		{name: "deepest", length: bitstream.MaxDepth + 1},
		{name: "too deep", length: bitstream.MaxDepth + 2, wantErr: errs.ErrInvalidValue},
	}

	b, err := For(reflect.TypeFor[linkedNode]())
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newChain(tt.length)

			w := bitstream.NewWriter()
			defer w.Release()

			err := b.Encode(w, in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			var got linkedNode
			require.NoError(t, b.Decode(bitstream.NewReader(w.PackBytes()), &got))
			require.Equal(t, *in, got)
		})
	}
}

func TestBinding_PointerCycle(t *testing.T) {
	b, err := For(reflect.TypeFor[linkedNode]())
	require.NoError(t, err)

	n := &linkedNode{Value: 1}
	n.Next = n

	w := bitstream.NewWriter()
	defer w.Release()
	require.ErrorIs(t, b.Encode(w, n), errs.ErrInvalidValue)
}

func TestBinding_MutualRecursion(t *testing.T) {
	db, err := For(reflect.TypeFor[department]())
	require.NoError(t, err)
	require.Contains(t, db.Record().String(), "array(team{")
	require.Contains(t, db.Record().String(), "optional(ref(department))")

	// team binds as its own root even after department was bound.
	tb, err := For(reflect.TypeFor[team]())
	require.NoError(t, err)
	require.Contains(t, tb.Record().String(), "optional(department{")
	require.Contains(t, tb.Record().String(), "array(ref(team);8)")

	in := department{
		Name: "research",
		Teams: []team{
			{Lead: "ada"},
			{Lead: "grace", Parent: &department{Name: "compilers", Teams: []team{{Lead: "fran"}}}},
		},
	}

	got := roundTrip(t, in)
	if diff := cmp.Diff(in, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("decoded department mismatch (-want +got):\n%s", diff)
	}
}
