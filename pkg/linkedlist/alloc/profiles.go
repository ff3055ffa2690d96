package alloc

import (
	"fmt"
	"sort"
	"sync"

	"github.com/randalmurphal/linkedlist/pkg/linkedlist/config"
)

// Factory builds an allocator from configuration.
type Factory func(cfg config.Config) (Allocator, error)

// Profiles maps allocator names to factories.
// It is safe for concurrent use.
type Profiles struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewProfiles creates an empty profile set.
func NewProfiles() *Profiles {
	return &Profiles{
		factories: make(map[string]Factory),
	}
}

// DefaultProfiles returns a profile set with "system" and "pool" registered.
//
// The "pool" profile reads pool_capacity (default 0, unlimited).
func DefaultProfiles() *Profiles {
	p := NewProfiles()
	p.Register("system", func(config.Config) (Allocator, error) {
		return System{}, nil
	})
	p.Register("pool", func(cfg config.Config) (Allocator, error) {
		capacity := cfg.Int("pool_capacity", 0)
		if capacity < 0 {
			return nil, fmt.Errorf("pool_capacity must not be negative, got %d", capacity)
		}
		return NewPool(capacity), nil
	})
	return p
}

// Register adds or replaces the factory for name.
// Panics if name is empty or f is nil.
func (p *Profiles) Register(name string, f Factory) {
	if name == "" {
		panic("alloc: profile name cannot be empty")
	}
	if f == nil {
		panic("alloc: profile factory cannot be nil")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.factories[name] = f
}

// Lookup returns the factory registered under name.
func (p *Profiles) Lookup(name string) (Factory, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	f, ok := p.factories[name]
	return f, ok
}

// Names returns the registered profile names in sorted order.
func (p *Profiles) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.factories))
	for name := range p.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates the allocator registered under name.
func (p *Profiles) Build(name string, cfg config.Config) (Allocator, error) {
	f, ok := p.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	a, err := f(cfg)
	if err != nil {
		return nil, fmt.Errorf("build allocator %q: %w", name, err)
	}
	return a, nil
}

// FromConfig builds an allocator from these keys:
//
//	allocator:     profile name (default "system")
//	instrument:    wrap the result in an Instrumented allocator
//	fail_after:    with instrument, allocations allowed before failures start
//
// Profile-specific keys such as pool_capacity are passed to the factory.
func (p *Profiles) FromConfig(cfg config.Config) (Allocator, error) {
	a, err := p.Build(cfg.String("allocator", "system"), cfg)
	if err != nil {
		return nil, err
	}
	if !cfg.Bool("instrument", false) {
		return a, nil
	}
	inst := NewInstrumented(a)
	if n := cfg.Int("fail_after", -1); n >= 0 {
		inst.FailAfter(n)
	}
	return inst, nil
}
