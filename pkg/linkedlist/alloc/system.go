package alloc

// System allocates blocks from the Go heap. Free is a no-op; the garbage
// collector reclaims a block once nothing references it.
type System struct{}

// Compile-time interface check.
var _ Allocator = System{}

// Alloc returns a new block of the given size. It never fails.
func (System) Alloc(size uintptr) *Block {
	return &Block{Size: size}
}

// Free does nothing.
func (System) Free(*Block) {}
