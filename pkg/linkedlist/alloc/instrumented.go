package alloc

import "sync"

// Stats contains allocation statistics collected by Instrumented.
type Stats struct {
	Allocs       uint64 // Successful allocations
	Failures     uint64 // Allocations that returned nil
	Frees        uint64 // Releases of live blocks
	InvalidFrees uint64 // Releases of nil, unknown, or already released blocks
	LiveBlocks   uint64 // Blocks allocated and not yet released
	LiveBytes    uint64 // Bytes held by live blocks
	PeakBytes    uint64 // Highest LiveBytes observed
}

// Instrumented wraps an allocator and records every call made through it.
// It can also be told to fail upcoming allocations, which is how callers
// exercise allocation failure paths deterministically.
type Instrumented struct {
	mu   sync.Mutex
	next Allocator

	live map[*Block]struct{}

	failNext  bool
	failAfter int // successful allocations left before failing; -1 when unset
	lastOK    bool

	stats Stats
}

// Compile-time interface check.
var _ Allocator = (*Instrumented)(nil)

// NewInstrumented wraps next. A nil next wraps System.
func NewInstrumented(next Allocator) *Instrumented {
	if next == nil {
		next = System{}
	}
	return &Instrumented{
		next:      next,
		live:      make(map[*Block]struct{}),
		failAfter: -1,
	}
}

// FailNext makes the next allocation return nil. The flag clears after
// that allocation.
func (a *Instrumented) FailNext() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failNext = true
}

// FailAfter lets n more allocations succeed and fails every allocation after
// that until FailAfter(-1) or Reset is called.
func (a *Instrumented) FailAfter(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n < 0 {
		n = -1
	}
	a.failAfter = n
}

// Alloc allocates through the wrapped allocator unless a failure is pending.
func (a *Instrumented) Alloc(size uintptr) *Block {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.failNext {
		a.failNext = false
		return a.failLocked()
	}
	if a.failAfter == 0 {
		return a.failLocked()
	}

	b := a.next.Alloc(size)
	if b == nil {
		return a.failLocked()
	}
	if a.failAfter > 0 {
		a.failAfter--
	}

	a.live[b] = struct{}{}
	a.lastOK = true
	a.stats.Allocs++
	a.stats.LiveBlocks++
	a.stats.LiveBytes += uint64(b.Size)
	if a.stats.LiveBytes > a.stats.PeakBytes {
		a.stats.PeakBytes = a.stats.LiveBytes
	}
	return b
}

func (a *Instrumented) failLocked() *Block {
	a.lastOK = false
	a.stats.Failures++
	return nil
}

// Free releases b through the wrapped allocator. Releasing a block this
// allocator does not consider live is counted as an invalid free and is not
// forwarded.
func (a *Instrumented) Free(b *Block) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.live[b]; !ok || b == nil {
		a.stats.InvalidFrees++
		return
	}
	delete(a.live, b)
	a.stats.Frees++
	a.stats.LiveBlocks--
	a.stats.LiveBytes -= uint64(b.Size)
	a.next.Free(b)
}

// LastAllocSucceeded reports whether the most recent allocation succeeded.
func (a *Instrumented) LastAllocSucceeded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastOK
}

// Stats returns a copy of the collected statistics.
func (a *Instrumented) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Live returns the number of blocks allocated and not yet released.
func (a *Instrumented) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// Balanced reports whether every allocated block was released exactly once.
func (a *Instrumented) Balanced() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live) == 0 && a.stats.InvalidFrees == 0 && a.stats.Allocs == a.stats.Frees
}

// Reset clears statistics, pending failures and live block tracking.
// Blocks still live are forgotten, not released.
func (a *Instrumented) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.live = make(map[*Block]struct{})
	a.failNext = false
	a.failAfter = -1
	a.lastOK = false
	a.stats = Stats{}
}
