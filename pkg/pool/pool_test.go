package pool

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vilicvane/promise-pool/internal/testutil"
	pperrors "github.com/vilicvane/promise-pool/pkg/common/errors"
)

// eventLog collects progress events; delivery is serialized by the pool but
// assertions run from the test goroutine.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) observe(ev Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	return nil
}

func (l *eventLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

func (l *eventLog) all() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

func succeed(ctx context.Context, item int, index int) error {
	return nil
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		proc    Processor[int]
		config  Config[int]
		wantErr bool
	}{
		{"valid", succeed, Config[int]{Concurrency: 2}, false},
		{"valid with retry", succeed, Config[int]{Concurrency: 1, Retry: RetryPolicy{Limit: 3, Interval: time.Millisecond}}, false},
		{"unlimited retries", succeed, Config[int]{Concurrency: 1, Retry: RetryPolicy{Limit: Unlimited}}, false},
		{"nil processor", nil, Config[int]{Concurrency: 2}, true},
		{"zero concurrency", succeed, Config[int]{}, true},
		{"negative concurrency", succeed, Config[int]{Concurrency: -1}, true},
		{"bad retry limit", succeed, Config[int]{Concurrency: 1, Retry: RetryPolicy{Limit: -2}}, true},
		{"negative interval", succeed, Config[int]{Concurrency: 1, Retry: RetryPolicy{Interval: -time.Second}}, true},
		{"negative multiplier", succeed, Config[int]{Concurrency: 1, Retry: RetryPolicy{Multiplier: -1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.proc, tt.config)
			if tt.wantErr {
				testutil.AssertError(t, err)
				if !errors.Is(err, pperrors.ErrInvalidConfiguration) {
					t.Errorf("want a validation error, got %v", err)
				}
				return
			}
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, p.Concurrency(), tt.config.Concurrency)
		})
	}
}

func TestAllTasksSucceed(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	log := &eventLog{}
	p, err := New(succeed, Config[int]{Concurrency: 2})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, p.Add(1, 2, 3, 4, 5))
	done := p.Start(ctx, log.observe)

	select {
	case completion := <-done:
		testutil.AssertNoError(t, completion.Err)
		testutil.AssertEqual(t, completion.Result, Result{Fulfilled: 5, Rejected: 0, Total: 5})
	case <-ctx.Done():
		t.Fatal("timeout waiting for completion")
	}

	testutil.AssertEqual(t, log.len(), 5)
	for _, ev := range log.all() {
		if !ev.Success() {
			t.Errorf("unexpected failure event for index %d: %v", ev.Index, ev.Err)
		}
	}
}

func TestIndicesAssignedInEnqueueOrder(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	var mu sync.Mutex
	byIndex := make(map[int]string)

	p, err := New(func(ctx context.Context, item string, index int) error {
		mu.Lock()
		byIndex[index] = item
		mu.Unlock()
		return nil
	}, Config[string]{Concurrency: 1})
	testutil.AssertNoError(t, err)

	items := []string{"a", "b", "c", "d", "e"}
	testutil.AssertNoError(t, p.Add(items...))
	<-p.Start(ctx, nil)

	mu.Lock()
	defer mu.Unlock()
	testutil.AssertEqual(t, len(byIndex), len(items))
	for i, want := range items {
		testutil.AssertEqual(t, byIndex[i], want)
	}
}

func TestConcurrencyBound(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	var current, peak int32
	p, err := New(func(ctx context.Context, item int, index int) error {
		n := atomic.AddInt32(&current, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&current, -1)
		return nil
	}, Config[int]{Concurrency: 2})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, p.Add(1, 2, 3, 4, 5, 6))
	<-p.Start(ctx, nil)

	if got := atomic.LoadInt32(&peak); got > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", got)
	}
}

func TestCounterInvariantHolds(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	p, err := New(func(ctx context.Context, item int, index int) error {
		if item%2 == 0 {
			return errors.New("even items fail")
		}
		return nil
	}, Config[int]{Concurrency: 3, Retry: RetryPolicy{Limit: 1}})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, p.Add(1, 2, 3, 4, 5, 6, 7, 8))
	done := p.Start(ctx, func(ev Event) error {
		c := ev.Counts
		if c.Total != c.Fulfilled+c.Rejected+c.Pending {
			t.Errorf("invariant broken in event for index %d: %+v", ev.Index, c)
		}
		return nil
	})

	completion := <-done
	testutil.AssertNoError(t, completion.Err)
	testutil.AssertEqual(t, completion.Result, Result{Fulfilled: 4, Rejected: 4, Total: 8})

	s := p.Snapshot()
	testutil.AssertEqual(t, s.Pending, 0)
	testutil.AssertEqual(t, s.Running, 0)
	testutil.AssertEqual(t, s.Total, s.Fulfilled+s.Rejected)
}

func TestAddAfterCompletionIsDiagnostic(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	p, err := New(succeed, Config[int]{Concurrency: 1})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, p.Add(1, 2))
	<-p.Start(ctx, nil)

	err = p.Add(3)
	testutil.AssertError(t, err)
	if !errors.Is(err, pperrors.ErrCompleted) {
		t.Errorf("want ErrCompleted, got %v", err)
	}
	if !pperrors.IsDiagnostic(err) {
		t.Error("ErrCompleted should be a diagnostic")
	}

	// The rejected call is a no-op.
	testutil.AssertEqual(t, p.Snapshot().Total, 2)
}

func TestInitialItems(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	p, err := New(succeed, Config[int]{
		Concurrency:  2,
		InitialItems: []int{10, 20, 30},
	})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, p.Snapshot().Backlog, 3)

	completion := <-p.Start(ctx, nil)
	testutil.AssertEqual(t, completion.Result, Result{Fulfilled: 3, Rejected: 0, Total: 3})
}

func TestStartWithEmptyBacklogCompletesImmediately(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	p, err := New(succeed, Config[int]{Concurrency: 1})
	testutil.AssertNoError(t, err)

	completion := <-p.Start(ctx, nil)
	testutil.AssertNoError(t, completion.Err)
	testutil.AssertEqual(t, completion.Result, Result{})
}

func TestStartTwiceReturnsSameHandle(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	p, err := New(succeed, Config[int]{Concurrency: 1})
	testutil.AssertNoError(t, err)

	first := p.Start(ctx, nil)
	second := p.Start(ctx, nil)
	testutil.AssertEqual(t, first == second, true)
}

func TestProcessorPanicIsTaskFailure(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	log := &eventLog{}
	p, err := New(func(ctx context.Context, item int, index int) error {
		panic("processor exploded")
	}, Config[int]{Concurrency: 1})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, p.Add(1))
	completion := <-p.Start(ctx, log.observe)

	testutil.AssertNoError(t, completion.Err)
	testutil.AssertEqual(t, completion.Result, Result{Fulfilled: 0, Rejected: 1, Total: 1})

	events := log.all()
	testutil.AssertEqual(t, len(events), 1)
	if events[0].Err == nil || !strings.Contains(events[0].Err.Error(), "panicked") {
		t.Errorf("event should carry the recovered panic, got %v", events[0].Err)
	}
}

func TestEndlessMode(t *testing.T) {
	var successes int32
	p, err := New(succeed, Config[int]{Concurrency: 2, Endless: true})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, p.Add(1, 2, 3))
	done := p.Start(context.Background(), func(ev Event) error {
		if ev.Success() {
			atomic.AddInt32(&successes, 1)
		}
		return nil
	})

	if done != nil {
		t.Fatal("endless pools should return no completion handle")
	}

	testutil.Eventually(t, testutil.TestTimeout, func() bool {
		return atomic.LoadInt32(&successes) == 3 && p.Snapshot().Running == 0
	})

	// The pool keeps accepting work after backlog and in-flight reach zero.
	testutil.AssertNoError(t, p.Add(4, 5))
	testutil.Eventually(t, testutil.TestTimeout, func() bool {
		return atomic.LoadInt32(&successes) == 5
	})

	testutil.AssertEqual(t, p.Snapshot().Total, 5)
}

func TestObserverErrorRejectsCompletion(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	var invocations int32
	observerErr := errors.New("observer refused the event")

	p, err := New(func(ctx context.Context, item int, index int) error {
		atomic.AddInt32(&invocations, 1)
		return nil
	}, Config[int]{Concurrency: 1})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, p.Add(1, 2, 3))
	done := p.Start(ctx, func(ev Event) error {
		return observerErr
	})

	select {
	case completion := <-done:
		if !errors.Is(completion.Err, observerErr) {
			t.Fatalf("completion should reject with the observer error, got %v", completion.Err)
		}
	case <-ctx.Done():
		t.Fatal("timeout waiting for rejected completion")
	}

	// Only the task admitted before the capture ran; admission stopped.
	testutil.AssertEqual(t, atomic.LoadInt32(&invocations), int32(1))
	testutil.AssertEqual(t, p.Snapshot().Backlog, 2)
}

func TestObserverPanicIsCaptured(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	p, err := New(succeed, Config[int]{Concurrency: 1})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, p.Add(1))
	completion := <-p.Start(ctx, func(ev Event) error {
		panic("observer exploded")
	})

	testutil.AssertError(t, completion.Err)
	if !strings.Contains(completion.Err.Error(), "panicked") {
		t.Errorf("completion error should carry the recovered panic, got %v", completion.Err)
	}
}

func TestAddNothingIsNoOp(t *testing.T) {
	p, err := New(succeed, Config[int]{Concurrency: 1})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, p.Add())
	testutil.AssertEqual(t, p.Snapshot().Total, 0)
}
