// Package observability provides logging, metrics and tracing for linked
// list workloads and their allocators.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger returns a logger that tags every record with the run ID and
// script name.
func EnrichLogger(logger *slog.Logger, runID, script string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("script", script),
	)
}

// LogScriptStart logs the start of a script run.
func LogScriptStart(logger *slog.Logger, runID string, steps int) {
	if logger == nil {
		return
	}
	logger.Info("script run starting",
		slog.String("run_id", runID),
		slog.Int("steps", steps),
	)
}

// LogScriptComplete logs successful script completion.
func LogScriptComplete(logger *slog.Logger, runID string, durationMs float64, steps int) {
	if logger == nil {
		return
	}
	logger.Info("script run completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("steps_executed", steps),
	)
}

// LogScriptError logs a failed script run.
func LogScriptError(logger *slog.Logger, runID string, err error, durationMs float64, step int) {
	if logger == nil {
		return
	}
	logger.Error("script run failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.Int("failed_step", step),
	)
}

// LogStep logs a completed step.
func LogStep(logger *slog.Logger, step int, op string, attempts int) {
	if logger == nil {
		return
	}
	logger.Debug("step completed",
		slog.Int("step", step),
		slog.String("op", op),
		slog.Int("attempts", attempts),
	)
}

// LogStepError logs a step whose outcome did not match its expectation.
func LogStepError(logger *slog.Logger, step int, op string, err error) {
	if logger == nil {
		return
	}
	logger.Error("step failed",
		slog.Int("step", step),
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}

// LogRetry logs a failed attempt that is about to be retried.
func LogRetry(logger *slog.Logger, step int, op string, attempt int, err error, backoff time.Duration) {
	if logger == nil {
		return
	}
	logger.Debug("retrying step",
		slog.Int("step", step),
		slog.String("op", op),
		slog.Int("attempt", attempt),
		slog.String("error", err.Error()),
		slog.Duration("backoff", backoff),
	)
}

// LogAllocFailure logs an allocation the allocator refused.
func LogAllocFailure(logger *slog.Logger, sizeBytes uintptr) {
	if logger == nil {
		return
	}
	logger.Debug("allocation failed",
		slog.Uint64("size_bytes", uint64(sizeBytes)),
	)
}

// TimedOperation measures the duration of an operation.
// The returned function reports elapsed milliseconds.
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
