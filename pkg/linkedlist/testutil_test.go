package linkedlist

import (
	"testing"

	"github.com/randalmurphal/linkedlist/pkg/linkedlist/alloc"
	"github.com/stretchr/testify/require"
)

// newTestList creates a list backed by an instrumented allocator.
func newTestList(t *testing.T) (*List, *alloc.Instrumented) {
	t.Helper()
	a := alloc.NewInstrumented(alloc.System{})
	l, err := New(a)
	require.NoError(t, err)
	return l, a
}

// filledList creates a list holding values in order.
func filledList(t *testing.T, values ...uint32) (*List, *alloc.Instrumented) {
	t.Helper()
	l, a := newTestList(t)
	for _, v := range values {
		require.NoError(t, l.InsertEnd(v))
	}
	return l, a
}

// values walks the chain with a step bound of size+1, failing the test if
// the chain is longer than that (which includes any cycle).
func values(t *testing.T, l *List) []uint32 {
	t.Helper()
	out := []uint32{}
	limit := l.size + 1
	var steps uint
	for n := l.head; n != nil; n = n.next {
		steps++
		require.LessOrEqual(t, steps, limit, "chain longer than size+1 steps")
		out = append(out, n.data)
	}
	return out
}

// iterate collects every element reachable from an iterator at index.
func iterate(t *testing.T, l *List, index uint) ([]uint32, []uint) {
	t.Helper()
	it, err := NewIterator(l, index)
	require.NoError(t, err)
	defer func() { require.NoError(t, it.Delete()) }()

	var data []uint32
	var idx []uint
	for ok := true; ok; ok = it.Advance() {
		data = append(data, it.Data())
		idx = append(idx, it.Index())
	}
	return data, idx
}
