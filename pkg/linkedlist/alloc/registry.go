package alloc

import "sync"

// Registry is an Allocator backed by two substitutable function slots.
// Both slots are empty until registered.
type Registry struct {
	mu    sync.RWMutex
	alloc AllocFunc
	free  FreeFunc
}

// Compile-time interface check.
var _ Allocator = (*Registry)(nil)

// NewRegistry creates a registry with no functions registered.
func NewRegistry() *Registry {
	return &Registry{}
}

// Bind creates a registry whose slots route to a. A nil a yields an empty
// registry, which fails every allocation.
func Bind(a Allocator) *Registry {
	if a == nil {
		return NewRegistry()
	}
	return &Registry{
		alloc: a.Alloc,
		free:  a.Free,
	}
}

// RegisterAlloc stores the allocation function, replacing any previous one.
// A nil fn is rejected and the previous function is kept.
func (r *Registry) RegisterAlloc(fn AllocFunc) error {
	if fn == nil {
		return ErrNilAllocFunc
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alloc = fn
	return nil
}

// RegisterFree stores the release function, replacing any previous one.
// A nil fn is rejected and the previous function is kept.
func (r *Registry) RegisterFree(fn FreeFunc) error {
	if fn == nil {
		return ErrNilFreeFunc
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.free = fn
	return nil
}

// Registered reports whether both slots are filled.
func (r *Registry) Registered() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.alloc != nil && r.free != nil
}

// Alloc calls the registered allocation function.
// Returns nil if none is registered.
func (r *Registry) Alloc(size uintptr) *Block {
	r.mu.RLock()
	fn := r.alloc
	r.mu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn(size)
}

// Free calls the registered release function.
// Does nothing if none is registered or b is nil.
func (r *Registry) Free(b *Block) {
	if b == nil {
		return
	}
	r.mu.RLock()
	fn := r.free
	r.mu.RUnlock()
	if fn == nil {
		return
	}
	fn(b)
}
