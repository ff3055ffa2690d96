package workload

import (
	"log/slog"

	"github.com/randalmurphal/linkedlist/pkg/linkedlist/alloc"
	llerrors "github.com/randalmurphal/linkedlist/pkg/linkedlist/errors"
	"github.com/randalmurphal/linkedlist/pkg/linkedlist/observability"
)

// runnerConfig holds Runner settings.
type runnerConfig struct {
	logger    *slog.Logger
	metrics   observability.MetricsRecorder
	metered   bool
	spans     observability.SpanManager
	retry     llerrors.RetryConfig
	runID     string
	allocator alloc.Allocator
	profiles  *alloc.Profiles
}

func defaultRunnerConfig() runnerConfig {
	return runnerConfig{
		logger:   slog.Default(),
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
		retry:    llerrors.ImmediateRetry,
		profiles: alloc.DefaultProfiles(),
	}
}

// Option configures a Runner.
type Option func(*runnerConfig)

// WithLogger sets the logger for run and step records.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(c *runnerConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics enables OpenTelemetry metrics through the global meter
// provider. Allocations are counted through a metered allocator.
func WithMetrics(enabled bool) Option {
	return func(c *runnerConfig) {
		c.metered = enabled
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithMetricsRecorder enables metrics with a specific recorder.
func WithMetricsRecorder(rec observability.MetricsRecorder) Option {
	return func(c *runnerConfig) {
		if rec != nil {
			c.metrics = rec
			c.metered = true
		}
	}
}

// WithTracing enables OpenTelemetry spans through the global tracer
// provider.
func WithTracing(enabled bool) Option {
	return func(c *runnerConfig) {
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithRetry sets the retry configuration used by steps marked retry in
// scripts without a retry section.
// Default: errors.ImmediateRetry
func WithRetry(cfg llerrors.RetryConfig) Option {
	return func(c *runnerConfig) {
		c.retry = cfg
	}
}

// WithRunID fixes the run ID. Default: a random UUID per run.
func WithRunID(id string) Option {
	return func(c *runnerConfig) {
		c.runID = id
	}
}

// WithAllocator makes every run use the given allocator and ignore the
// script's allocator section.
func WithAllocator(a alloc.Allocator) Option {
	return func(c *runnerConfig) {
		c.allocator = a
	}
}

// WithProfiles sets the allocator profiles scripts may name.
// Default: alloc.DefaultProfiles()
func WithProfiles(p *alloc.Profiles) Option {
	return func(c *runnerConfig) {
		if p != nil {
			c.profiles = p
		}
	}
}
