package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records allocator and workload metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordAlloc records an allocation attempt of sizeBytes.
	RecordAlloc(ctx context.Context, sizeBytes uintptr, ok bool)

	// RecordFree records the release of a block of sizeBytes.
	RecordFree(ctx context.Context, sizeBytes uintptr)

	// RecordOp records one list operation with its duration and error.
	RecordOp(ctx context.Context, op string, duration time.Duration, err error)

	// RecordScript records a completed script run.
	RecordScript(ctx context.Context, success bool, duration time.Duration)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	allocs        metric.Int64Counter
	allocFailures metric.Int64Counter
	frees         metric.Int64Counter
	liveBlocks    metric.Int64UpDownCounter
	blockSize     metric.Int64Histogram
	ops           metric.Int64Counter
	opErrors      metric.Int64Counter
	opLatency     metric.Float64Histogram
	scripts       metric.Int64Counter
	scriptLatency metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily creates the shared OTel instruments.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("linkedlist")
	m := &otelMetrics{}
	var err error

	if m.allocs, err = meter.Int64Counter("linkedlist.alloc.count",
		metric.WithDescription("Number of successful allocations"),
	); err != nil {
		return nil, err
	}
	if m.allocFailures, err = meter.Int64Counter("linkedlist.alloc.failures",
		metric.WithDescription("Number of allocations the allocator refused"),
	); err != nil {
		return nil, err
	}
	if m.frees, err = meter.Int64Counter("linkedlist.free.count",
		metric.WithDescription("Number of released blocks"),
	); err != nil {
		return nil, err
	}
	if m.liveBlocks, err = meter.Int64UpDownCounter("linkedlist.alloc.live_blocks",
		metric.WithDescription("Blocks allocated and not yet released"),
	); err != nil {
		return nil, err
	}
	if m.blockSize, err = meter.Int64Histogram("linkedlist.alloc.size_bytes",
		metric.WithDescription("Requested block size"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if m.ops, err = meter.Int64Counter("linkedlist.op.count",
		metric.WithDescription("Number of list operations"),
	); err != nil {
		return nil, err
	}
	if m.opErrors, err = meter.Int64Counter("linkedlist.op.errors",
		metric.WithDescription("Number of list operations that returned an error"),
	); err != nil {
		return nil, err
	}
	if m.opLatency, err = meter.Float64Histogram("linkedlist.op.latency_ms",
		metric.WithDescription("List operation latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.scripts, err = meter.Int64Counter("linkedlist.script.runs",
		metric.WithDescription("Number of workload script runs"),
	); err != nil {
		return nil, err
	}
	if m.scriptLatency, err = meter.Float64Histogram("linkedlist.script.latency_ms",
		metric.WithDescription("Workload script latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordAlloc records an allocation attempt.
func (m *otelMetrics) RecordAlloc(ctx context.Context, sizeBytes uintptr, ok bool) {
	if !ok {
		m.allocFailures.Add(ctx, 1)
		return
	}
	m.allocs.Add(ctx, 1)
	m.liveBlocks.Add(ctx, 1)
	m.blockSize.Record(ctx, int64(sizeBytes))
}

// RecordFree records a release.
func (m *otelMetrics) RecordFree(ctx context.Context, _ uintptr) {
	m.frees.Add(ctx, 1)
	m.liveBlocks.Add(ctx, -1)
}

// RecordOp records a list operation.
func (m *otelMetrics) RecordOp(ctx context.Context, op string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("op", op))
	m.ops.Add(ctx, 1, attrs)
	m.opLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		m.opErrors.Add(ctx, 1, attrs)
	}
}

// RecordScript records a script run.
func (m *otelMetrics) RecordScript(ctx context.Context, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	m.scripts.Add(ctx, 1, attrs)
	m.scriptLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
}
