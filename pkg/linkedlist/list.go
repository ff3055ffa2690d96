package linkedlist

import (
	"fmt"
	"iter"
	"log/slog"
	"math"

	"github.com/randalmurphal/linkedlist/pkg/linkedlist/alloc"
)

// Invalid is returned by Size and Find when there is no meaningful result:
// the list is nil, or the value is absent.
const Invalid uint = math.MaxUint

// List is a singly linked list of uint32 values.
//
// The list owns its header and every node, all obtained from the allocator
// passed to New and returned to it on removal or Delete. Size counts every
// node reachable from the head.
//
// List is NOT safe for concurrent use. Iterators created over a list are not
// notified of structural changes; callers must not insert into or remove from
// a list while iterators over it are still in use.
//
// Methods may be called on a nil *List; they report ErrNilList (or Invalid)
// instead of panicking. Calling any method after Delete is a caller error.
type List struct {
	head   *node
	size   uint
	alloc  alloc.Allocator
	block  *alloc.Block
	logger *slog.Logger
}

// New creates an empty list whose memory comes from a.
//
// Returns ErrNoAllocator if a is nil and ErrAllocFailed if the allocator
// cannot provide the list header. New never allocates nodes.
func New(a alloc.Allocator, opts ...Option) (*List, error) {
	if a == nil {
		return nil, opErr("create", ErrNoAllocator)
	}

	cfg := listConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := a.Alloc(listSize)
	if b == nil {
		cfg.logger.Debug("list header allocation failed",
			slog.Uint64("size_bytes", uint64(listSize)),
		)
		return nil, opErr("create", ErrAllocFailed)
	}

	return &List{
		alloc:  a,
		block:  b,
		logger: cfg.logger,
	}, nil
}

// Delete releases every node and then the list header.
// The list must not be used afterwards.
func (l *List) Delete() error {
	if l == nil {
		return opErr("delete", ErrNilList)
	}

	n := l.head
	for n != nil {
		next := n.next
		l.alloc.Free(n.detach())
		n = next
	}
	l.head = nil
	l.size = 0

	b := l.block
	l.block = nil
	l.alloc.Free(b)
	return nil
}

// Size returns the number of elements, or Invalid if l is nil.
func (l *List) Size() uint {
	if l == nil {
		return Invalid
	}
	return l.size
}

// newNode allocates a detached node holding v.
func (l *List) newNode(op string, v uint32) (*node, error) {
	b := l.alloc.Alloc(nodeSize)
	if b == nil {
		l.logger.Debug("node allocation failed",
			slog.String("op", op),
			slog.Uint64("size_bytes", uint64(nodeSize)),
		)
		return nil, ErrAllocFailed
	}
	return &node{data: v, block: b}, nil
}

// InsertEnd appends v as the new tail. The tail is found by walking from the
// head, so the cost is linear in the list length.
//
// On error the list is unchanged.
func (l *List) InsertEnd(v uint32) error {
	if l == nil {
		return opErr("insert_end", ErrNilList)
	}

	n, err := l.newNode("insert_end", v)
	if err != nil {
		return opErr("insert_end", err)
	}

	if l.head == nil {
		l.head = n
	} else {
		tail := l.head
		for tail.next != nil {
			tail = tail.next
		}
		tail.next = n
	}
	l.size++
	return nil
}

// InsertFront links v in as the new head.
//
// On error the list is unchanged.
func (l *List) InsertFront(v uint32) error {
	if l == nil {
		return opErr("insert_front", ErrNilList)
	}

	n, err := l.newNode("insert_front", v)
	if err != nil {
		return opErr("insert_front", err)
	}

	n.next = l.head
	l.head = n
	l.size++
	return nil
}

// predecessor walks index-1 links from the head and returns the node found
// there, or nil if the chain ends first. index must be at least 1.
func (l *List) predecessor(index uint) *node {
	cur := l.head
	for i := index; i > 1 && cur != nil; i-- {
		cur = cur.next
	}
	return cur
}

// InsertAt inserts v so that it ends up at position index.
//
// Index 0 is InsertFront and index Size() appends. Any index whose
// predecessor is not reachable fails with ErrOutOfRange before anything is
// allocated.
func (l *List) InsertAt(index uint, v uint32) error {
	if l == nil {
		return indexErr("insert_at", index, ErrNilList)
	}
	if index == 0 {
		return l.InsertFront(v)
	}

	prev := l.predecessor(index)
	if prev == nil {
		return indexErr("insert_at", index, ErrOutOfRange)
	}

	n, err := l.newNode("insert_at", v)
	if err != nil {
		return indexErr("insert_at", index, err)
	}

	n.next = prev.next
	prev.next = n
	l.size++
	return nil
}

// Find returns the position of the first element equal to v, or Invalid if
// there is none or l is nil.
func (l *List) Find(v uint32) uint {
	if l == nil {
		return Invalid
	}
	var i uint
	for n := l.head; n != nil; n = n.next {
		if n.data == v {
			return i
		}
		i++
	}
	return Invalid
}

// Lookup is Find with an error instead of the Invalid sentinel.
func (l *List) Lookup(v uint32) (uint, error) {
	if l == nil {
		return Invalid, opErr("lookup", ErrNilList)
	}
	i := l.Find(v)
	if i == Invalid {
		return Invalid, opErr("lookup", ErrNotFound)
	}
	return i, nil
}

// RemoveAt unlinks and releases the element at index.
//
// Returns ErrEmpty on an empty list and ErrOutOfRange when index is not
// below the reachable length.
func (l *List) RemoveAt(index uint) error {
	if l == nil {
		return indexErr("remove_at", index, ErrNilList)
	}
	if l.head == nil {
		return indexErr("remove_at", index, ErrEmpty)
	}

	var target *node
	if index == 0 {
		target = l.head
		l.head = target.next
	} else {
		prev := l.predecessor(index)
		if prev == nil || prev.next == nil {
			return indexErr("remove_at", index, ErrOutOfRange)
		}
		target = prev.next
		prev.next = target.next
	}

	l.alloc.Free(target.detach())
	l.size--
	return nil
}

// All returns an iterator over (index, value) pairs from head to tail.
// It allocates nothing and, like Iterator, must not outlive a structural
// change to the list.
func (l *List) All() iter.Seq2[uint, uint32] {
	return func(yield func(uint, uint32) bool) {
		if l == nil {
			return
		}
		var i uint
		for n := l.head; n != nil; n = n.next {
			if !yield(i, n.data) {
				return
			}
			i++
		}
	}
}

// Validate checks that the chain is acyclic and that its length equals Size.
func (l *List) Validate() error {
	if l == nil {
		return opErr("validate", ErrNilList)
	}

	// Floyd's tortoise and hare.
	slow, fast := l.head, l.head
	for fast != nil && fast.next != nil {
		slow = slow.next
		fast = fast.next.next
		if slow == fast {
			return opErr("validate", ErrCycle)
		}
	}

	var count uint
	for n := l.head; n != nil; n = n.next {
		count++
	}
	if count != l.size {
		return opErr("validate", fmt.Errorf("%w: size %d, chain length %d", ErrSizeMismatch, l.size, count))
	}
	return nil
}
