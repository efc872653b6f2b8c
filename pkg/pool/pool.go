package pool

import (
	"context"
	"sync"

	"github.com/vilicvane/promise-pool/pkg/common/validation"
)

// Processor is the caller-supplied function that executes one task.
// It receives the item payload and the index assigned at admission.
// The index is stable across retry attempts of the same task.
//
// A panic inside the processor is recovered and treated exactly like a
// returned error.
type Processor[T any] func(ctx context.Context, item T, index int) error

// ProgressFunc observes every attempt outcome, retries included.
// It is invoked synchronously; events from concurrent tasks are serialized.
//
// A returned error (or a panic) is fatal to the pool: no further events are
// delivered, no further tasks are admitted, and the completion handle is
// rejected with the captured error once in-flight tasks settle. Tasks already
// admitted are never aborted.
type ProgressFunc func(Event) error

// Snapshot is a consistent view of the pool counters.
// Total == Fulfilled + Rejected + Pending at every observable instant.
type Snapshot struct {
	// Fulfilled is the number of tasks that completed successfully.
	Fulfilled int

	// Rejected is the number of tasks that exhausted their retry budget.
	Rejected int

	// Pending is the number of tasks that have not reached a terminal outcome.
	Pending int

	// Total is the number of tasks enqueued since construction or the last reset.
	Total int

	// Running is the number of admitted, in-flight tasks.
	Running int

	// Backlog is the number of tasks waiting for admission.
	Backlog int
}

// Event describes the outcome of a single processor attempt.
type Event struct {
	// Index identifies the task. Indices are assigned in enqueue order,
	// starting at 0, and are never reused within a run cycle.
	Index int

	// Err is nil for a successful attempt. For failures it carries the
	// processor error (or the recovered panic).
	Err error

	// RetriesRemaining is the retry budget left when a failure was reported:
	// positive while the task will be retried, 0 on the terminal failure,
	// Unlimited for an unbounded budget. It is 0 on success events.
	RetriesRemaining int

	// Counts is the counter snapshot taken when the outcome was recorded.
	Counts Snapshot
}

// Success reports whether the attempt succeeded.
func (e Event) Success() bool {
	return e.Err == nil
}

// Result is the final counter snapshot of a completed run.
type Result struct {
	Fulfilled int
	Rejected  int
	Total     int
}

// Completion is delivered once on the handle returned by Start.
// Err is non-nil only when a progress observer failed; per-task errors are
// visible through progress events and the Rejected count, never here.
type Completion struct {
	Result Result
	Err    error
}

// Pool is a bounded-concurrency task execution engine. Items are admitted in
// FIFO order up to the concurrency bound, retried per the configured policy,
// and counted into a final Result.
//
// All methods are safe for concurrent use. Misuse (adding to a completed
// pool, pausing a paused pool, resuming a non-paused pool) returns a
// non-fatal diagnostic error and leaves the pool unchanged; see the errors
// package IsDiagnostic helper.
type Pool[T any] interface {
	// Add appends items to the backlog in order. When the pool is started
	// and not paused this triggers an admission sweep. Items added while
	// paused are queued and admitted only on Resume. Returns ErrCompleted
	// if the pool already delivered its completion result.
	Add(items ...T) error

	// Start registers the progress observer, begins admission, and returns
	// the one-shot completion handle. The handle receives exactly one
	// Completion per run cycle. In endless mode Start returns nil: the pool
	// never reaches terminal completion and progress events are the only
	// output. Calling Start again before Reset is a no-op that returns the
	// same handle.
	//
	// ctx is passed through to every processor invocation of this run; the
	// pool itself never cancels admitted work.
	Start(ctx context.Context, progress ProgressFunc) <-chan Completion

	// Pause stops further admission and returns a drain signal that fires
	// once every in-flight task has reached a terminal outcome (immediately
	// when nothing is running). In-flight tasks, retries included, are never
	// cancelled. Returns ErrAlreadyPaused if the pool is already paused or
	// draining; the existing drain signal is returned alongside.
	Pause() (<-chan struct{}, error)

	// Resume clears the paused state and triggers a fresh admission sweep.
	// Returns ErrNotPaused if the pool is not paused.
	Resume() error

	// Reset pauses the pool, awaits full drain, then clears the backlog,
	// counters, observer, and any captured observer error, returning the
	// pool to its initial empty state. The returned channel closes once the
	// pool is cleared. Reset must not race another in-flight Reset or Pause.
	Reset() <-chan struct{}

	// SetConcurrency changes the admission bound. A lowered bound is honored
	// from the very next admission sweep; tasks already in flight keep
	// their slots.
	SetConcurrency(n int) error

	// Concurrency returns the current admission bound.
	Concurrency() int

	// SetRetry changes the retry policy for tasks admitted after the call.
	// Tasks already admitted keep the policy captured at their admission.
	SetRetry(policy RetryPolicy) error

	// Retry returns the current retry policy.
	Retry() RetryPolicy

	// Snapshot returns the current counters.
	Snapshot() Snapshot
}

// Config holds configuration options for creating a Pool.
type Config[T any] struct {
	// Concurrency is the maximum number of simultaneously admitted tasks.
	// Required; must be positive.
	Concurrency int

	// Endless disables terminal completion: the pool keeps accepting
	// enqueues even after backlog and in-flight count reach zero.
	Endless bool

	// Retry is the retry policy applied to each task at admission time.
	// The zero value disables retries.
	Retry RetryPolicy

	// InitialItems are enqueued, in order, at construction.
	InitialItems []T
}

// pool implements the Pool interface. One mutex serializes admission sweeps
// and every counter mutation; a second mutex serializes observer delivery so
// that observers may re-enter the pool (for example Add from a progress
// callback) without deadlocking.
type pool[T any] struct {
	processor Processor[T]
	endless   bool

	mu          sync.Mutex
	concurrency int
	retry       RetryPolicy
	backlog     []T
	fulfilled   int
	rejected    int
	pending     int
	total       int
	running     int
	nextIndex   int
	started     bool
	settled     bool
	completion  chan Completion
	runCtx      context.Context
	observer    ProgressFunc
	observerErr error
	paused      bool
	drain       chan struct{}

	notifyMu sync.Mutex
}

// New creates a pool that executes items with the given processor.
func New[T any](processor Processor[T], config Config[T]) (Pool[T], error) {
	if processor == nil {
		return nil, validation.ValidateNotNil("pool", "processor", nil)
	}
	if err := validation.ValidatePositive("pool", "concurrency", config.Concurrency); err != nil {
		return nil, err
	}
	if err := config.Retry.validate(); err != nil {
		return nil, err
	}

	p := &pool[T]{
		processor:   processor,
		endless:     config.Endless,
		concurrency: config.Concurrency,
		retry:       config.Retry,
	}

	if len(config.InitialItems) > 0 {
		p.backlog = append(p.backlog, config.InitialItems...)
		p.total = len(config.InitialItems)
		p.pending = len(config.InitialItems)
	}

	return p, nil
}

// Snapshot returns the current counters.
func (p *pool[T]) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// snapshotLocked must be called with p.mu held.
func (p *pool[T]) snapshotLocked() Snapshot {
	return Snapshot{
		Fulfilled: p.fulfilled,
		Rejected:  p.rejected,
		Pending:   p.pending,
		Total:     p.total,
		Running:   p.running,
		Backlog:   len(p.backlog),
	}
}
