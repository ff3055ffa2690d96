package workload

import (
	"time"

	"github.com/randalmurphal/linkedlist/pkg/linkedlist/alloc"
)

// StepResult is the outcome of one executed step.
type StepResult struct {
	Step int
	Op   string

	// Result is the value produced by size, find and data steps.
	Result   uint64
	HasValue bool

	// Err is the error the operation returned, expected or not.
	Err error

	// Attempts counts executions, greater than one only for retried steps.
	Attempts int

	Duration time.Duration
}

// Report summarizes a script run.
type Report struct {
	RunID  string
	Script string

	// Steps holds one result per executed step. A run stopped by a failing
	// step includes that step last.
	Steps []StepResult

	// Leaked names the lists and iterators still open at the end of the
	// script, released by the runner afterwards.
	Leaked []string

	// Alloc is the allocator state after cleanup. It is nil when the
	// allocator is not instrumented.
	Alloc *alloc.Stats

	Duration time.Duration
}

// Balanced reports whether every block the run allocated was released and
// no invalid release occurred. It is false when no statistics are available.
func (r *Report) Balanced() bool {
	if r == nil || r.Alloc == nil {
		return false
	}
	s := r.Alloc
	return s.LiveBlocks == 0 && s.InvalidFrees == 0 && s.Allocs == s.Frees
}
