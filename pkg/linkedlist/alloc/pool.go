package alloc

import "sync"

// PoolStats contains counters collected by Pool.
type PoolStats struct {
	Outstanding int    // Blocks handed out and not yet returned
	Idle        int    // Released blocks waiting for reuse
	Reused      uint64 // Allocations served from an idle block
	Exhausted   uint64 // Allocations refused because the pool was at capacity
	BadFrees    uint64 // Releases of nil blocks or blocks not handed out by the pool
}

// Pool keeps released blocks in per-size free lists and hands them out again
// before allocating new ones. A positive capacity caps the number of blocks
// outstanding at once; allocations beyond it fail.
//
// Only blocks currently handed out are accepted back. Releasing a block
// twice, or one the pool never allocated, is counted in BadFrees and
// otherwise ignored, so a block is never given to two holders.
type Pool struct {
	mu       sync.Mutex
	capacity int
	idle     map[uintptr][]*Block
	out      map[*Block]struct{}
	stats    PoolStats
}

// Compile-time interface check.
var _ Allocator = (*Pool)(nil)

// NewPool creates a pool. capacity <= 0 means unlimited.
func NewPool(capacity int) *Pool {
	return &Pool{
		capacity: capacity,
		idle:     make(map[uintptr][]*Block),
		out:      make(map[*Block]struct{}),
	}
}

// Alloc returns an idle block of the same size if one exists, otherwise a new
// block. Returns nil when the pool is at capacity.
func (p *Pool) Alloc(size uintptr) *Block {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.capacity > 0 && p.stats.Outstanding >= p.capacity {
		p.stats.Exhausted++
		return nil
	}

	var b *Block
	if free := p.idle[size]; len(free) > 0 {
		b = free[len(free)-1]
		p.idle[size] = free[:len(free)-1]
		p.stats.Idle--
		p.stats.Reused++
	} else {
		b = &Block{Size: size}
	}
	p.out[b] = struct{}{}
	p.stats.Outstanding++
	return b
}

// Free returns b to the pool's free list for its size.
func (p *Pool) Free(b *Block) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.out[b]; !ok {
		p.stats.BadFrees++
		return
	}
	delete(p.out, b)
	p.idle[b.Size] = append(p.idle[b.Size], b)
	p.stats.Idle++
	p.stats.Outstanding--
}

// Capacity returns the configured capacity (0 or less means unlimited).
func (p *Pool) Capacity() int {
	return p.capacity
}

// Stats returns a copy of the pool counters.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
