package alloc

import "errors"

// Sentinel errors for allocator registration and lookup.
var (
	// ErrNilAllocFunc indicates RegisterAlloc was called with a nil function.
	ErrNilAllocFunc = errors.New("allocation function cannot be nil")

	// ErrNilFreeFunc indicates RegisterFree was called with a nil function.
	ErrNilFreeFunc = errors.New("release function cannot be nil")

	// ErrUnknownProfile indicates no allocator factory is registered under a name.
	ErrUnknownProfile = errors.New("unknown allocator profile")
)

// Block is a unit of memory handed out by an Allocator.
// Size is the number of bytes that were requested.
type Block struct {
	Size uintptr
}

// AllocFunc allocates a block of the given size.
// It returns nil when the allocation fails.
type AllocFunc func(size uintptr) *Block

// FreeFunc releases a block previously returned by the matching AllocFunc.
type FreeFunc func(b *Block)

// Allocator allocates and releases blocks.
//
// Alloc returns nil on failure. Free must accept every block Alloc returned,
// exactly once.
type Allocator interface {
	Alloc(size uintptr) *Block
	Free(b *Block)
}
