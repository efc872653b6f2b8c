package pool

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	pperrors "github.com/vilicvane/promise-pool/pkg/common/errors"
)

// Add appends items to the backlog and triggers an admission sweep when the
// pool is started and not paused.
func (p *pool[T]) Add(items ...T) error {
	if len(items) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.settled {
		return pperrors.ErrCompleted
	}

	p.backlog = append(p.backlog, items...)
	p.total += len(items)
	p.pending += len(items)

	// Items queued during a pause are admitted only on Resume.
	if p.started && !p.paused {
		p.sweepLocked()
	}
	return nil
}

// Start begins admission and returns the one-shot completion handle.
func (p *pool[T]) Start(ctx context.Context, progress ProgressFunc) <-chan Completion {
	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return p.completion
	}

	p.started = true
	p.runCtx = ctx
	p.observer = progress
	if !p.endless {
		// One-shot handle, settled exactly once by the terminal check.
		p.completion = make(chan Completion, 1)
	}

	p.sweepLocked()
	return p.completion
}

// sweepLocked is the admission sweep: it moves backlog items into execution
// while a concurrency slot is free, then evaluates terminal completion.
// Sweeps never interleave; p.mu must be held.
func (p *pool[T]) sweepLocked() {
	if !p.started || p.paused {
		return
	}

	// A captured observer failure suppresses all further admission.
	if p.observerErr == nil {
		for p.running < p.concurrency && len(p.backlog) > 0 {
			item := p.backlog[0]
			var zero T
			p.backlog[0] = zero
			p.backlog = p.backlog[1:]

			index := p.nextIndex
			p.nextIndex++
			p.running++

			// The task captures the retry policy in force at admission.
			go p.work(p.runCtx, item, index, p.retry)
		}
	}

	p.checkTerminalLocked()
}

// checkTerminalLocked settles the completion handle when the run is over.
// This is the only path to terminal completion. p.mu must be held.
func (p *pool[T]) checkTerminalLocked() {
	if p.endless || p.settled {
		return
	}

	if p.observerErr != nil {
		if p.running == 0 {
			p.settleLocked(Completion{
				Result: Result{Fulfilled: p.fulfilled, Rejected: p.rejected, Total: p.total},
				Err:    p.observerErr,
			})
		}
		return
	}

	if p.running == 0 && len(p.backlog) == 0 {
		p.settleLocked(Completion{
			Result: Result{Fulfilled: p.fulfilled, Rejected: p.rejected, Total: p.total},
		})
	}
}

// settleLocked delivers the completion exactly once. p.mu must be held.
func (p *pool[T]) settleLocked(c Completion) {
	if p.settled {
		return
	}
	p.settled = true
	if p.completion != nil {
		p.completion <- c
	}
}

// work runs one admitted task to its terminal outcome, re-invoking the
// processor per the captured retry policy. The concurrency slot is held for
// the whole lifetime of the task, backoff waits included.
func (p *pool[T]) work(ctx context.Context, item T, index int, policy RetryPolicy) {
	remaining := policy.Limit

	for attempt := 0; ; attempt++ {
		err := p.invoke(ctx, item, index)
		if err == nil {
			p.finish(index, nil)
			return
		}

		if remaining == 0 {
			p.finish(index, err)
			return
		}

		p.mu.Lock()
		ev := Event{Index: index, Err: err, RetriesRemaining: remaining, Counts: p.snapshotLocked()}
		p.mu.Unlock()
		p.emit(ev)

		if remaining > 0 {
			remaining--
		}
		if delay := policy.Delay(attempt); delay > 0 {
			time.Sleep(delay)
		}
	}
}

// finish records a terminal outcome, emits the terminal progress event,
// releases the concurrency slot, and re-triggers admission or the drain check.
func (p *pool[T]) finish(index int, err error) {
	p.mu.Lock()
	if err == nil {
		p.fulfilled++
	} else {
		p.rejected++
	}
	p.pending--
	ev := Event{Index: index, Err: err, Counts: p.snapshotLocked()}
	p.mu.Unlock()

	p.emit(ev)

	p.mu.Lock()
	p.running--
	if p.paused {
		if p.running == 0 {
			close(p.drain)
		}
	} else {
		p.sweepLocked()
	}
	p.mu.Unlock()
}

// invoke calls the processor with panic recovery; a panic is reported as a
// task failure.
func (p *pool[T]) invoke(ctx context.Context, item T, index int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor panicked: %v\nstack trace:\n%s", r, debug.Stack())
		}
	}()
	return p.processor(ctx, item, index)
}

// emit delivers one progress event. Delivery is serialized so observers see
// events one at a time; after an observer failure no further events are
// delivered.
func (p *pool[T]) emit(ev Event) {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	observer := p.observer
	failed := p.observerErr != nil
	p.mu.Unlock()

	if observer == nil || failed {
		return
	}

	if err := observe(observer, ev); err != nil {
		p.mu.Lock()
		if p.observerErr == nil {
			p.observerErr = err
		}
		p.mu.Unlock()
	}
}

// observe calls the progress func with panic recovery; a panic is captured
// as an observer failure.
func observe(fn ProgressFunc, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("progress observer panicked: %v\nstack trace:\n%s", r, debug.Stack())
		}
	}()
	return fn(ev)
}
