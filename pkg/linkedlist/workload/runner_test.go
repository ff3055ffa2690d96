package workload

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/randalmurphal/linkedlist/pkg/linkedlist"
	"github.com/randalmurphal/linkedlist/pkg/linkedlist/alloc"
	"github.com/randalmurphal/linkedlist/pkg/linkedlist/config"
	llerrors "github.com/randalmurphal/linkedlist/pkg/linkedlist/errors"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func mustParse(t *testing.T, src string) *Script {
	t.Helper()
	s, err := ParseScript([]byte(src))
	require.NoError(t, err)
	return s
}

func TestRun_Testdata(t *testing.T) {
	for _, name := range []string{"empty_list.yaml", "insertion.yaml"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScript(filepath.Join("testdata", name))
			require.NoError(t, err)

			report, err := NewRunner(WithLogger(quietLogger())).Run(context.Background(), s)
			require.NoError(t, err)
			require.NotNil(t, report)

			assert.Len(t, report.Steps, len(s.Steps))
			assert.NotEmpty(t, report.RunID)
			require.NotNil(t, report.Alloc, "instrumented allocator reports stats")
			assert.True(t, report.Balanced(), "stats: %+v", *report.Alloc)
		})
	}
}

func TestRun_StopsAtFirstMismatch(t *testing.T) {
	s := mustParse(t, `
name: mismatch
allocator: {instrument: true}
steps:
  - {op: create_list, list: a}
  - {op: insert_end, list: a, value: 5}
  - {op: size, list: a, expect: 2}
  - {op: insert_end, list: a, value: 6}
`)
	report, err := NewRunner(WithLogger(quietLogger())).Run(context.Background(), s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedResult)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, 2, stepErr.Step)
	assert.Equal(t, OpSize, stepErr.Op)

	require.NotNil(t, report)
	require.Len(t, report.Steps, 3)
	assert.Equal(t, uint64(1), report.Steps[2].Result)
	assert.Equal(t, []string{"list:a"}, report.Leaked)
	assert.True(t, report.Balanced(), "cleanup releases the open list")
}

func TestRun_ExpectationOutcomes(t *testing.T) {
	tests := []struct {
		name string
		step string
		want error
	}{
		{"unexpected success", `{op: size, list: a, fail: out_of_bounds}`, ErrUnexpectedSuccess},
		{"wrong category", `{op: remove_at, list: a, index: 0, fail: not_found}`, ErrWrongFailure},
		{"unexpected error", `{op: remove_at, list: a, index: 0}`, linkedlist.ErrEmpty},
		{"duplicate handle", `{op: create_list, list: a, fail: allocation}`, ErrDuplicateHandle},
		{"no fault injection", `{op: fail_next_alloc}`, ErrNoFaultInjection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustParse(t, "steps:\n  - {op: create_list, list: a}\n  - "+tt.step+"\n")
			_, err := NewRunner(WithLogger(quietLogger())).Run(context.Background(), s)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRun_UnknownNamesAreNilHandles(t *testing.T) {
	s := mustParse(t, `
steps:
  - {op: insert_end, list: ghost, value: 1, fail: nil_handle}
  - {op: find, list: ghost, value: 1, fail: nil_handle}
  - {op: advance, iterator: ghost, fail: nil_handle}
  - {op: data, iterator: ghost, fail: nil_handle}
  - {op: delete_iterator, iterator: ghost, fail: nil_handle}
  - {op: create_iterator, list: ghost, iterator: it, fail: nil_handle}
`)
	_, err := NewRunner(WithLogger(quietLogger())).Run(context.Background(), s)
	require.NoError(t, err)
}

func TestRun_RetryRecoversInjectedFailure(t *testing.T) {
	s := mustParse(t, `
allocator: {instrument: true}
steps:
  - {op: create_list, list: a}
  - {op: fail_next_alloc}
  - {op: insert_end, list: a, values: [1, 2], retry: true}
  - {op: size, list: a, expect: 2}
  - {op: fail_next_alloc}
  - {op: insert_end, list: a, value: 3, fail: allocation}
  - {op: size, list: a, expect: 2}
  - {op: delete_list, list: a}
`)
	report, err := NewRunner(
		WithLogger(quietLogger()),
		WithRetry(llerrors.ImmediateRetry),
	).Run(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Steps[2].Attempts, "one failed and two successful inserts")
	assert.Equal(t, 1, report.Steps[5].Attempts)
	assert.Empty(t, report.Leaked)
	require.NotNil(t, report.Alloc)
	assert.Equal(t, uint64(2), report.Alloc.Failures)
	assert.True(t, report.Balanced())
}

func TestRun_RetryExhausted(t *testing.T) {
	s := mustParse(t, `
steps:
  - {op: create_list, list: a}
  - {op: insert_end, list: a, value: 1, retry: true, fail: allocation}
`)
	inst := alloc.NewInstrumented(nil)
	inst.FailAfter(1) // the list header succeeds, every node fails

	report, err := NewRunner(
		WithLogger(quietLogger()),
		WithAllocator(inst),
		WithRetry(llerrors.NewRetryConfig(llerrors.WithMaxAttempts(4), llerrors.WithInitialBackoff(0))),
	).Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Steps[1].Attempts)
}

func TestRun_WithAllocatorSharesState(t *testing.T) {
	inst := alloc.NewInstrumented(nil)
	s := mustParse(t, `
allocator: {allocator: does-not-exist}
steps:
  - {op: create_list, list: a}
  - {op: insert_end, list: a, values: [1, 2, 3]}
`)
	report, err := NewRunner(WithLogger(quietLogger()), WithAllocator(inst)).Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []string{"list:a"}, report.Leaked)
	assert.True(t, inst.Balanced())
	assert.Equal(t, uint64(4), inst.Stats().Allocs)
}

func TestRun_UnknownAllocatorProfile(t *testing.T) {
	s := mustParse(t, `
allocator: {allocator: does-not-exist}
steps: []
`)
	report, err := NewRunner(WithLogger(quietLogger())).Run(context.Background(), s)
	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, alloc.ErrUnknownProfile)
}

func TestRun_CustomProfiles(t *testing.T) {
	p := alloc.NewProfiles()
	p.Register("tiny", func(_ config.Config) (alloc.Allocator, error) {
		return alloc.NewPool(2), nil
	})
	s := mustParse(t, `
allocator: {allocator: tiny, instrument: true}
steps:
  - {op: create_list, list: a}
  - {op: insert_end, list: a, value: 1}
  - {op: insert_end, list: a, value: 2, fail: allocation}
`)
	report, err := NewRunner(WithLogger(quietLogger()), WithProfiles(p)).Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, report.Balanced())
}

func TestRun_StaleIteratorHandlesReleased(t *testing.T) {
	s := mustParse(t, `
allocator: {instrument: true}
steps:
  - {op: create_list, list: a}
  - {op: insert_end, list: a, value: 1}
  - {op: create_iterator, list: a, iterator: it}
  - {op: delete_list, list: a}
`)
	report, err := NewRunner(WithLogger(quietLogger())).Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []string{"iterator:it"}, report.Leaked)
	assert.True(t, report.Balanced())
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := mustParse(t, `steps: [{op: create_list, list: a}]`)
	report, err := NewRunner(WithLogger(quietLogger())).Run(ctx, s)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Empty(t, report.Steps)
}

func TestRun_InvalidScript(t *testing.T) {
	_, err := NewRunner().Run(context.Background(), &Script{Steps: []Step{{Op: "nope"}}})
	assert.ErrorIs(t, err, ErrUnknownOp)
}

func TestRun_RunIDAndLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := mustParse(t, `
name: logged
steps:
  - {op: create_list, list: a}
  - {op: delete_list, list: a}
`)
	report, err := NewRunner(WithLogger(logger), WithRunID("run-42")).Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "run-42", report.RunID)

	out := buf.String()
	assert.Contains(t, out, "script run starting")
	assert.Contains(t, out, "script run completed")
	assert.Contains(t, out, "run_id=run-42")
	assert.Contains(t, out, "script=logged")
}

func TestRun_MetricsAndTracing(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	origMP, origTP := otel.GetMeterProvider(), otel.GetTracerProvider()
	otel.SetMeterProvider(mp)
	otel.SetTracerProvider(tp)
	defer func() {
		otel.SetMeterProvider(origMP)
		otel.SetTracerProvider(origTP)
		_ = mp.Shutdown(context.Background())
		_ = tp.Shutdown(context.Background())
	}()

	s := mustParse(t, `
name: observed
allocator: {instrument: true}
steps:
  - {op: create_list, list: a}
  - {op: insert_end, list: a, values: [1, 2]}
  - {op: fail_next_alloc}
  - {op: insert_front, list: a, value: 0, fail: allocation}
  - {op: delete_list, list: a}
`)
	_, err := NewRunner(
		WithLogger(quietLogger()),
		WithMetrics(true),
		WithTracing(true),
	).Run(context.Background(), s)
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, len(s.Steps)+1)
	assert.Equal(t, "linkedlist.script", spans[len(spans)-1].Name)
	assert.Equal(t, "linkedlist.step.create_list", spans[0].Name)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names["linkedlist.op.count"])
	assert.True(t, names["linkedlist.alloc.count"])
	assert.True(t, names["linkedlist.alloc.failures"])
	assert.True(t, names["linkedlist.script.runs"])
}

func TestRun_ConcurrentRuns(t *testing.T) {
	s := mustParse(t, `
allocator: {instrument: true}
steps:
  - {op: create_list, list: a}
  - {op: insert_end, list: a, values: [1, 2, 3]}
  - {op: remove_at, list: a, index: 1}
  - {op: delete_list, list: a}
`)
	r := NewRunner(WithLogger(quietLogger()))

	errs := make(chan error, 8)
	for range 8 {
		go func() {
			report, err := r.Run(context.Background(), s)
			if err == nil && !report.Balanced() {
				err = errors.New("unbalanced allocator")
			}
			errs <- err
		}()
	}
	for range 8 {
		select {
		case err := <-errs:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("runs did not finish")
		}
	}
}

func TestRun_ScriptRetrySection(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := mustParse(t, `
allocator: {instrument: true}
retry:
  max_attempts: 5
  initial_backoff: 0
  jitter: 0
steps:
  - {op: create_list, list: a}
  - {op: fail_next_alloc}
  - {op: insert_end, list: a, value: 1, retry: true}
  - {op: insert_end, list: a, value: 2, retry: true}
  - {op: size, list: a, expect: 2}
  - {op: delete_list, list: a}
`)
	// The runner's own configuration would give up after one call.
	report, err := NewRunner(WithLogger(logger), WithRetry(llerrors.NoRetry)).Run(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Steps[2].Attempts)
	assert.Equal(t, 1, report.Steps[3].Attempts)
	assert.True(t, report.Balanced())

	out := buf.String()
	assert.Contains(t, out, "retrying step")
	assert.Contains(t, out, "step=2")
	assert.Contains(t, out, "op=insert_end")
}

func TestRun_ScriptRetryExhaustsConfiguredAttempts(t *testing.T) {
	inst := alloc.NewInstrumented(nil)
	inst.FailAfter(1)

	s := mustParse(t, `
retry: {max_attempts: 4, initial_backoff: 0}
steps:
  - {op: create_list, list: a}
  - {op: insert_front, list: a, value: 1, retry: true, fail: allocation}
`)
	report, err := NewRunner(WithLogger(quietLogger()), WithAllocator(inst)).Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Steps[1].Attempts)
	assert.Equal(t, uint64(4), inst.Stats().Failures)
}

func TestRun_InvalidRetrySection(t *testing.T) {
	s := mustParse(t, `
retry: {max_attempts: 0}
steps: [{op: create_list, list: a}]
`)
	report, err := NewRunner(WithLogger(quietLogger())).Run(context.Background(), s)
	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, llerrors.ErrInvalidRetryConfig)
}

func TestRun_RetryRecordedAsSpanEvent(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	orig := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		otel.SetTracerProvider(orig)
		_ = tp.Shutdown(context.Background())
	}()

	s := mustParse(t, `
allocator: {instrument: true}
steps:
  - {op: create_list, list: a}
  - {op: fail_next_alloc}
  - {op: insert_end, list: a, value: 1, retry: true}
`)
	_, err := NewRunner(WithLogger(quietLogger()), WithTracing(true)).Run(context.Background(), s)
	require.NoError(t, err)

	var found bool
	for _, sp := range exporter.GetSpans() {
		if sp.Name != "linkedlist.step.insert_end" {
			continue
		}
		for _, ev := range sp.Events {
			if ev.Name == "step.retry" {
				found = true
			}
		}
	}
	assert.True(t, found, "retried insert carries a step.retry event")
}
