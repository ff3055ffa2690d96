// Package workload replays scripted operation sequences against linked lists.
//
// A script names an allocator configuration and a list of steps. Each step
// performs one public list or iterator operation on a named handle and may
// state what it expects: a result value, or the category of the error the
// operation must fail with. Steps run in order and the run stops at the first
// step whose outcome differs from its expectation.
//
//	name: head-removal
//	allocator:
//	  allocator: system
//	  instrument: true
//	steps:
//	  - {op: create_list, list: a}
//	  - {op: insert_end, list: a, values: [1, 2, 3]}
//	  - {op: remove_at, list: a, index: 0}
//	  - {op: size, list: a, expect: 2}
//	  - {op: remove_at, list: a, index: 7, fail: out_of_bounds}
//
// Supported ops:
//
//	create_list, delete_list, size, insert_end, insert_front, insert_at,
//	find, remove_at, validate, create_iterator, delete_iterator, advance,
//	data, fail_next_alloc
//
// A list or iterator name that was never created, or was already deleted,
// stands for a nil handle, so scripts can exercise nil_handle failures.
//
// find fails with not_found when the value is absent. advance and data fail
// with end_of_sequence once the iterator is past the end. fail_next_alloc
// needs an instrumented allocator and makes the next allocation fail.
//
// A step with retry: true is wrapped in the retry configuration, so
// allocation failures are retried before the outcome is judged. The script's
// retry section (see errors.RetryFromConfig) overrides the runner's
// configuration for that script, and each retried failure is logged at
// Debug and recorded as a span event:
//
//	retry:
//	  max_attempts: 5
//	  initial_backoff: 1ms
//	  jitter: 0
//
// Handles still open when the script ends are released (iterators first),
// and the report says which ones were left open. With an instrumented
// allocator the report also carries allocation statistics, so a script can be
// checked for leaks.
//
// Runs are observable: WithLogger, WithMetrics and WithTracing enable slog
// records, OpenTelemetry metrics (including per-allocation counters through a
// metered allocator) and spans per script and per step.
package workload
