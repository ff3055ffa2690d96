// Package linkedlist provides a singly linked list of uint32 values with
// pluggable allocation and a forward iterator.
package linkedlist

import (
	"errors"
	"fmt"
)

// Sentinel errors for handle validity.
var (
	// ErrNilList indicates an operation was called on a nil *List.
	ErrNilList = errors.New("list is nil")

	// ErrNilIterator indicates an operation was called on a nil *Iterator.
	ErrNilIterator = errors.New("iterator is nil")

	// ErrNoAllocator indicates New was called without an allocator.
	ErrNoAllocator = errors.New("allocator cannot be nil")
)

// Sentinel errors for list and iterator operations.
var (
	// ErrAllocFailed indicates the allocator returned no block.
	ErrAllocFailed = errors.New("allocation failed")

	// ErrOutOfRange indicates the index is past the reachable end of the list.
	ErrOutOfRange = errors.New("index out of range")

	// ErrEmpty indicates a removal from an empty list.
	ErrEmpty = errors.New("list is empty")

	// ErrNotFound indicates no element holds the requested value.
	ErrNotFound = errors.New("value not found")

	// ErrExhausted indicates the iterator has moved past the last element.
	// It marks the normal end of iteration, not a fault.
	ErrExhausted = errors.New("iterator exhausted")
)

// Sentinel errors for structural validation.
var (
	// ErrCycle indicates the node chain loops back on itself.
	ErrCycle = errors.New("node chain contains a cycle")

	// ErrSizeMismatch indicates the tracked size disagrees with the chain length.
	ErrSizeMismatch = errors.New("tracked size does not match chain length")
)

// OpError wraps an error with the operation and index that produced it.
type OpError struct {
	// Op is the operation that failed (e.g., "insert_at").
	Op string
	// Index is the requested position, when the operation takes one.
	Index uint
	// HasIndex reports whether Index is meaningful.
	HasIndex bool
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.HasIndex {
		return fmt.Sprintf("%s at index %d: %v", e.Op, e.Index, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *OpError) Unwrap() error {
	return e.Err
}

func opErr(op string, err error) error {
	return &OpError{Op: op, Err: err}
}

func indexErr(op string, index uint, err error) error {
	return &OpError{Op: op, Index: index, HasIndex: true, Err: err}
}
