/*
Package alloc provides the memory allocation capability used by linked lists.

# Overview

Every structure a list owns (its header, each node, each iterator) is
obtained from an [Allocator] and handed back to the same allocator when it is
released. The allocator is passed explicitly to linkedlist.New, so callers can
instrument, fail-inject, or pool memory without touching any global state.

A [Block] is the unit an allocator hands out. A nil *Block means the
allocation failed; callers must treat that as a recoverable error.

# Registry

[Registry] holds a pair of substitutable functions, one to allocate and one to
release. Both slots start empty. Registering a nil function fails and leaves
the previous function in place:

	reg := alloc.NewRegistry()
	_ = reg.RegisterAlloc(func(size uintptr) *alloc.Block {
	    return &alloc.Block{Size: size}
	})
	_ = reg.RegisterFree(func(*alloc.Block) {})

	list, err := linkedlist.New(reg)

Allocating through a registry with no allocation function registered returns
nil, so the calling operation fails with an allocation error instead of
panicking. Releasing with no release function registered is a no-op.

Use [Bind] to route an existing [Allocator] through a registry.

# Implementations

  - [System]: plain Go allocation; Free is a no-op and the GC reclaims memory.
  - [Instrumented]: wraps another allocator, counts calls, tracks live
    blocks, detects invalid or repeated frees, and injects failures.
  - [Pool]: reuses released blocks per size and enforces a capacity limit.

[Profiles] maps names to allocator factories so allocators can be selected
from configuration:

	cfg, _ := config.FromYAML([]byte("allocator: pool\npool_capacity: 64\ninstrument: true"))
	a, err := alloc.DefaultProfiles().FromConfig(cfg)

# Thread Safety

Registry, Instrumented and Pool are safe for concurrent use. The lists that
use them are not.
*/
package alloc
