package observability

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/linkedlist/pkg/linkedlist/alloc"
)

// MeteredAllocator forwards to another allocator and reports every call to
// a MetricsRecorder. Refused allocations are also logged at Debug.
type MeteredAllocator struct {
	next    alloc.Allocator
	metrics MetricsRecorder
	logger  *slog.Logger
}

// Compile-time interface check.
var _ alloc.Allocator = (*MeteredAllocator)(nil)

// NewMeteredAllocator wraps next. A nil metrics recorder records nothing and
// a nil logger logs nothing.
func NewMeteredAllocator(next alloc.Allocator, metrics MetricsRecorder, logger *slog.Logger) *MeteredAllocator {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &MeteredAllocator{
		next:    next,
		metrics: metrics,
		logger:  logger,
	}
}

// Unwrap returns the wrapped allocator.
func (m *MeteredAllocator) Unwrap() alloc.Allocator {
	return m.next
}

// Alloc forwards to the wrapped allocator and records the outcome.
func (m *MeteredAllocator) Alloc(size uintptr) *alloc.Block {
	b := m.next.Alloc(size)
	m.metrics.RecordAlloc(context.Background(), size, b != nil)
	if b == nil {
		LogAllocFailure(m.logger, size)
	}
	return b
}

// Free forwards to the wrapped allocator and records the release. A nil
// block is ignored.
func (m *MeteredAllocator) Free(b *alloc.Block) {
	if b == nil {
		return
	}
	size := b.Size
	m.next.Free(b)
	m.metrics.RecordFree(context.Background(), size)
}
