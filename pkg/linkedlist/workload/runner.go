package workload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/linkedlist/pkg/linkedlist"
	"github.com/randalmurphal/linkedlist/pkg/linkedlist/alloc"
	"github.com/randalmurphal/linkedlist/pkg/linkedlist/config"
	llerrors "github.com/randalmurphal/linkedlist/pkg/linkedlist/errors"
	"github.com/randalmurphal/linkedlist/pkg/linkedlist/observability"
)

// Runner executes scripts. A Runner holds no per-run state and may run
// several scripts concurrently; each run builds its own allocator unless
// WithAllocator shares one.
type Runner struct {
	cfg runnerConfig
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	cfg := defaultRunnerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Runner{cfg: cfg}
}

// run is the state of one script execution.
type run struct {
	cfg    *runnerConfig
	retry  llerrors.RetryConfig
	logger *slog.Logger
	cur    int // index of the step being executed
	alloc  alloc.Allocator
	inst   *alloc.Instrumented
	lists  map[string]*linkedlist.List
	iters  map[string]*linkedlist.Iterator
}

// Run executes s and returns its report.
//
// The returned error is a *StepError for the first step whose outcome did
// not match its expectation, or for the step at which ctx was cancelled.
// The report is returned in both cases and covers the steps executed.
// Open handles are released before Run returns.
func (r *Runner) Run(ctx context.Context, s *Script) (report *Report, runErr error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	a, err := r.allocatorFor(s)
	if err != nil {
		return nil, err
	}
	retry, err := r.retryFor(s)
	if err != nil {
		return nil, err
	}

	runID := r.cfg.runID
	if runID == "" {
		runID = uuid.New().String()
	}
	logger := observability.EnrichLogger(r.cfg.logger, runID, s.Name)

	rn := &run{
		cfg:    &r.cfg,
		retry:  retry,
		logger: logger,
		alloc:  a,
		inst:   findInstrumented(a),
		lists:  make(map[string]*linkedlist.List),
		iters:  make(map[string]*linkedlist.Iterator),
	}
	if r.cfg.metered {
		rn.alloc = observability.NewMeteredAllocator(a, r.cfg.metrics, logger)
	}

	report = &Report{RunID: runID, Script: s.Name}
	done := observability.TimedOperation()
	start := time.Now()

	observability.LogScriptStart(logger, runID, len(s.Steps))
	ctx, span := r.cfg.spans.StartScriptSpan(ctx, s.Name, runID)
	defer func() {
		r.cfg.spans.EndSpanWithError(span, runErr)
	}()

	failed := -1
	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			runErr = &StepError{Step: i, Op: st.Op, Err: err}
			failed = i
			break
		}

		res, err := rn.step(ctx, i, st)
		report.Steps = append(report.Steps, res)
		if err != nil {
			observability.LogStepError(logger, i, st.Op, err)
			runErr = &StepError{Step: i, Op: st.Op, Err: err}
			failed = i
			break
		}
		observability.LogStep(logger, i, st.Op, res.Attempts)
	}

	report.Leaked = rn.cleanup()
	if rn.inst != nil {
		stats := rn.inst.Stats()
		report.Alloc = &stats
	}
	report.Duration = time.Since(start)

	r.cfg.metrics.RecordScript(ctx, runErr == nil, report.Duration)
	if runErr != nil {
		observability.LogScriptError(logger, runID, runErr, done(), failed)
	} else {
		observability.LogScriptComplete(logger, runID, done(), len(report.Steps))
	}
	return report, runErr
}

// allocatorFor returns the allocator a run of s uses.
func (r *Runner) allocatorFor(s *Script) (alloc.Allocator, error) {
	if r.cfg.allocator != nil {
		return r.cfg.allocator, nil
	}
	a, err := r.cfg.profiles.FromConfig(config.New(s.Allocator))
	if err != nil {
		return nil, fmt.Errorf("build allocator: %w", err)
	}
	return a, nil
}

// retryFor returns the retry configuration for steps of s marked retry.
func (r *Runner) retryFor(s *Script) (llerrors.RetryConfig, error) {
	if len(s.Retry) == 0 {
		return r.cfg.retry, nil
	}
	cfg, err := llerrors.RetryFromConfig(config.New(s.Retry))
	if err != nil {
		return llerrors.RetryConfig{}, fmt.Errorf("retry: %w", err)
	}
	return cfg, nil
}

// findInstrumented looks through wrapping allocators for an Instrumented one.
func findInstrumented(a alloc.Allocator) *alloc.Instrumented {
	for a != nil {
		if inst, ok := a.(*alloc.Instrumented); ok {
			return inst
		}
		u, ok := a.(interface{ Unwrap() alloc.Allocator })
		if !ok {
			return nil
		}
		a = u.Unwrap()
	}
	return nil
}

// step executes st and judges its outcome. The returned error is non-nil
// when the run must stop.
func (rn *run) step(ctx context.Context, i int, st Step) (StepResult, error) {
	ctx, span := rn.cfg.spans.StartStepSpan(ctx, i, st.Op)
	rn.cur = i

	res := StepResult{Step: i, Op: st.Op}
	start := time.Now()
	res.Result, res.HasValue, res.Err = rn.exec(ctx, st, &res.Attempts)
	res.Duration = time.Since(start)
	if res.Attempts == 0 {
		res.Attempts = 1
	}

	rn.cfg.metrics.RecordOp(ctx, st.Op, res.Duration, res.Err)

	err := judge(st, res)
	rn.cfg.spans.EndSpanWithError(span, err)
	return res, err
}

// judge compares a step's outcome with its expectation.
func judge(st Step, res StepResult) error {
	if errors.Is(res.Err, ErrDuplicateHandle) || errors.Is(res.Err, ErrNoFaultInjection) {
		return res.Err
	}

	if st.Fail != "" {
		want, _ := llerrors.ParseCategory(st.Fail)
		if res.Err == nil {
			return fmt.Errorf("%w: want %s", ErrUnexpectedSuccess, want)
		}
		if got := llerrors.Categorize(res.Err); got != want {
			return fmt.Errorf("%w: want %s, got %s: %w", ErrWrongFailure, want, got, res.Err)
		}
		return nil
	}

	if res.Err != nil {
		return res.Err
	}
	if st.Expect != nil && (!res.HasValue || res.Result != *st.Expect) {
		return fmt.Errorf("%w: want %d, got %d", ErrUnexpectedResult, *st.Expect, res.Result)
	}
	return nil
}

// exec performs the operation. attempts accumulates the number of calls
// made through retry.
func (rn *run) exec(ctx context.Context, st Step, attempts *int) (uint64, bool, error) {
	l := rn.lists[st.List]
	it := rn.iters[st.Iterator]

	switch st.Op {
	case OpCreateList:
		if _, ok := rn.lists[st.List]; ok {
			return 0, false, fmt.Errorf("%w: list %q", ErrDuplicateHandle, st.List)
		}
		l, err := attempt(ctx, rn, st, attempts, func() (*linkedlist.List, error) {
			return linkedlist.New(rn.alloc, linkedlist.WithLogger(rn.logger))
		})
		if err != nil {
			return 0, false, err
		}
		rn.lists[st.List] = l
		return 0, false, nil

	case OpDeleteList:
		delete(rn.lists, st.List)
		return 0, false, l.Delete()

	case OpSize:
		return uint64(l.Size()), true, nil

	case OpInsertEnd, OpInsertFront:
		insert := l.InsertEnd
		if st.Op == OpInsertFront {
			insert = l.InsertFront
		}
		values := st.Values
		if len(values) == 0 {
			values = []uint32{st.Value}
		}
		for _, v := range values {
			if _, err := attempt(ctx, rn, st, attempts, func() (struct{}, error) {
				return struct{}{}, insert(v)
			}); err != nil {
				return 0, false, err
			}
		}
		return 0, false, nil

	case OpInsertAt:
		_, err := attempt(ctx, rn, st, attempts, func() (struct{}, error) {
			return struct{}{}, l.InsertAt(st.Index, st.Value)
		})
		return 0, false, err

	case OpFind:
		idx, err := l.Lookup(st.Value)
		if err != nil {
			return 0, false, err
		}
		return uint64(idx), true, nil

	case OpRemoveAt:
		return 0, false, l.RemoveAt(st.Index)

	case OpValidate:
		return 0, false, l.Validate()

	case OpCreateIterator:
		if _, ok := rn.iters[st.Iterator]; ok {
			return 0, false, fmt.Errorf("%w: iterator %q", ErrDuplicateHandle, st.Iterator)
		}
		it, err := attempt(ctx, rn, st, attempts, func() (*linkedlist.Iterator, error) {
			return linkedlist.NewIterator(l, st.Index)
		})
		if err != nil {
			return 0, false, err
		}
		rn.iters[st.Iterator] = it
		return 0, false, nil

	case OpDeleteIterator:
		delete(rn.iters, st.Iterator)
		return 0, false, it.Delete()

	case OpAdvance:
		if !it.Advance() {
			return 0, false, it.Err()
		}
		return 0, false, nil

	case OpData:
		if !it.Valid() {
			return 0, false, it.Err()
		}
		return uint64(it.Data()), true, nil

	case OpFailNextAlloc:
		if rn.inst == nil {
			return 0, false, ErrNoFaultInjection
		}
		rn.inst.FailNext()
		rn.cfg.spans.AddSpanEvent(ctx, "fault.injected", attribute.String("kind", "next_alloc"))
		return 0, false, nil
	}

	return 0, false, fmt.Errorf("%w %q", ErrUnknownOp, st.Op)
}

// attempt calls fn once, or under the run's retry configuration when the
// step asks for it. Retried failures are logged and become span events.
func attempt[T any](ctx context.Context, rn *run, st Step, attempts *int, fn func() (T, error)) (T, error) {
	cfg := llerrors.NoRetry
	if st.Retry {
		cfg = rn.retry
		step, next := rn.cur, cfg.OnRetry
		cfg.OnRetry = func(ev llerrors.RetryEvent) {
			observability.LogRetry(rn.logger, step, st.Op, ev.Attempt, ev.Err, ev.Backoff)
			rn.cfg.spans.AddSpanEvent(ctx, "step.retry",
				attribute.Int("attempt", ev.Attempt),
				attribute.String("category", ev.Category.String()),
			)
			if next != nil {
				next(ev)
			}
		}
	}
	res := llerrors.WithRetryContext(ctx, cfg, func(context.Context) (T, error) {
		return fn()
	})
	*attempts += res.Attempts
	return res.Value, res.Err
}

// cleanup releases every open handle, iterators first, and returns their
// names sorted.
func (rn *run) cleanup() []string {
	var leaked []string
	for name, it := range rn.iters {
		leaked = append(leaked, "iterator:"+name)
		if err := it.Delete(); err != nil {
			rn.logger.Warn("release iterator", slog.String("iterator", name), slog.String("error", err.Error()))
		}
	}
	for name, l := range rn.lists {
		leaked = append(leaked, "list:"+name)
		if err := l.Delete(); err != nil {
			rn.logger.Warn("release list", slog.String("list", name), slog.String("error", err.Error()))
		}
	}
	clear(rn.iters)
	clear(rn.lists)
	slices.Sort(leaked)
	return leaked
}
