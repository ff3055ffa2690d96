package linkedlist

import (
	"log/slog"

	"github.com/randalmurphal/linkedlist/pkg/linkedlist/alloc"
)

// Iterator is a forward-only cursor over a List.
//
// An iterator does not own the list or its nodes and is never registered
// with the list. Removing the node an iterator points at leaves the iterator
// referring to a released node, and no check detects this. Deleting an
// iterator never affects the list.
//
// An iterator is either positioned on an element or exhausted. NewIterator
// only returns positioned iterators. Advance moves forward and reports
// false once it runs off the end; from then on the iterator stays exhausted.
type Iterator struct {
	list  *List
	node  *node
	index uint
	data  uint32
	block *alloc.Block
}

// NewIterator creates an iterator positioned at index.
//
// The iterator's memory comes from the list's allocator. Returns ErrNilList,
// ErrAllocFailed, or ErrOutOfRange when index is not below the reachable
// length (including every index on an empty list). On failure nothing stays
// allocated.
func NewIterator(l *List, index uint) (*Iterator, error) {
	if l == nil {
		return nil, indexErr("create_iterator", index, ErrNilList)
	}

	b := l.alloc.Alloc(iteratorSize)
	if b == nil {
		l.logger.Debug("iterator allocation failed",
			slog.Uint64("index", uint64(index)),
			slog.Uint64("size_bytes", uint64(iteratorSize)),
		)
		return nil, indexErr("create_iterator", index, ErrAllocFailed)
	}

	it := &Iterator{list: l, node: l.head, block: b}
	for it.node != nil && it.index < index {
		it.node = it.node.next
		it.index++
	}

	if it.node == nil {
		l.alloc.Free(it.block)
		return nil, indexErr("create_iterator", index, ErrOutOfRange)
	}

	it.data = it.node.data
	return it, nil
}

// Advance moves to the next element.
//
// It returns true when the iterator lands on an element and false when it
// moves past the last one, which is the normal end of iteration. Advancing
// a nil or exhausted iterator returns false and changes nothing.
func (it *Iterator) Advance() bool {
	if it == nil || it.node == nil {
		return false
	}

	it.node = it.node.next
	it.index++
	if it.node == nil {
		return false
	}
	it.data = it.node.data
	return true
}

// Valid reports whether the iterator is positioned on an element.
func (it *Iterator) Valid() bool {
	return it != nil && it.node != nil
}

// Data returns the value cached at the last successful positioning.
// Only meaningful while Valid is true.
func (it *Iterator) Data() uint32 {
	if it == nil {
		return 0
	}
	return it.data
}

// Index returns the iterator's position. After exhaustion it is one past
// the last element.
func (it *Iterator) Index() uint {
	if it == nil {
		return Invalid
	}
	return it.index
}

// List returns the list the iterator was created over.
func (it *Iterator) List() *List {
	if it == nil {
		return nil
	}
	return it.list
}

// Err returns ErrExhausted once the iterator has moved past the end,
// ErrNilIterator for a nil iterator, and nil otherwise.
func (it *Iterator) Err() error {
	if it == nil {
		return ErrNilIterator
	}
	if it.node == nil {
		return ErrExhausted
	}
	return nil
}

// Delete releases the iterator's own memory. The list and its nodes are
// left untouched.
func (it *Iterator) Delete() error {
	if it == nil {
		return opErr("delete_iterator", ErrNilIterator)
	}

	b := it.block
	it.block = nil
	it.node = nil
	if it.list != nil {
		it.list.alloc.Free(b)
	}
	it.list = nil
	return nil
}
