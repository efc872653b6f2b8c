package pool

import (
	pperrors "github.com/vilicvane/promise-pool/pkg/common/errors"
	"github.com/vilicvane/promise-pool/pkg/common/validation"
)

// Pause blocks further admission and returns a drain signal that closes once
// no admitted task remains in flight.
func (p *pool[T]) Pause() (<-chan struct{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused {
		return p.drain, pperrors.ErrAlreadyPaused
	}

	p.paused = true
	p.drain = make(chan struct{})
	if p.running == 0 {
		close(p.drain)
	}
	return p.drain, nil
}

// Resume clears the draining state and triggers a fresh admission sweep.
func (p *pool[T]) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.paused {
		return pperrors.ErrNotPaused
	}

	p.paused = false
	p.drain = nil
	p.sweepLocked()
	return nil
}

// Reset pauses the pool, waits for the drain to complete, then restores the
// initial empty state. The returned channel closes once the pool is cleared.
func (p *pool[T]) Reset() <-chan struct{} {
	cleared := make(chan struct{})

	// Reuse the existing drain signal when already paused.
	drain, _ := p.Pause()

	go func() {
		<-drain

		p.mu.Lock()
		p.backlog = nil
		p.fulfilled = 0
		p.rejected = 0
		p.pending = 0
		p.total = 0
		p.running = 0
		p.nextIndex = 0
		p.started = false
		p.settled = false
		p.completion = nil
		p.runCtx = nil
		p.observer = nil
		p.observerErr = nil
		p.paused = false
		p.drain = nil
		p.mu.Unlock()

		close(cleared)
	}()

	return cleared
}

// SetConcurrency changes the admission bound. A raised bound triggers an
// immediate sweep; a lowered bound is honored from the next sweep without
// evicting in-flight tasks.
func (p *pool[T]) SetConcurrency(n int) error {
	if err := validation.ValidatePositive("pool", "concurrency", n); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.concurrency = n
	if p.started && !p.paused {
		p.sweepLocked()
	}
	return nil
}

// Concurrency returns the current admission bound.
func (p *pool[T]) Concurrency() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.concurrency
}

// SetRetry changes the retry policy for tasks admitted after the call.
func (p *pool[T]) SetRetry(policy RetryPolicy) error {
	if err := policy.validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.retry = policy
	return nil
}

// Retry returns the current retry policy.
func (p *pool[T]) Retry() RetryPolicy {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.retry
}
