/*
Package linkedlist provides a singly linked list of uint32 values whose
memory comes from a caller-supplied allocator.

# Overview

A List owns a chain of nodes. Every node, the list header, and every
Iterator are obtained from an alloc.Allocator and handed back to it when
released, so callers can count, pool, or fail allocations:

	a := alloc.NewInstrumented(alloc.System{})
	list, err := linkedlist.New(a)
	if err != nil {
	    log.Fatal(err)
	}
	defer list.Delete()

	for v := uint32(1); v <= 4; v++ {
	    if err := list.InsertEnd(v); err != nil {
	        log.Fatal(err)
	    }
	}
	fmt.Println(list.Size()) // 4

The allocator can also be assembled from two functions with alloc.Registry.

# Positions

Positions are zero based. InsertAt accepts 0 through Size(); RemoveAt and
NewIterator accept 0 through Size()-1. Bounds are found by walking the chain
rather than by comparing against Size, and a failed bounds check happens
before any allocation.

# Sentinels and Errors

Size and Find return Invalid (the maximum uint) when there is no answer.
Every other failure is an error wrapping one of the package sentinels:

	if err := list.RemoveAt(7); errors.Is(err, linkedlist.ErrOutOfRange) {
	    // nothing was removed
	}

An operation that fails leaves the list exactly as it was.

# Iteration

	it, err := linkedlist.NewIterator(list, 0)
	if err != nil {
	    return err
	}
	defer it.Delete()
	for ok := true; ok; ok = it.Advance() {
	    fmt.Println(it.Index(), it.Data())
	}

Advance returns false once it moves past the last element; that is the end
of iteration, not an error. For allocation-free iteration use List.All.

# Thread Safety

Nothing in this package is safe for concurrent use. An iterator is a plain
alias into the list: the list must not be mutated while iterators over it
are in use.
*/
package linkedlist
