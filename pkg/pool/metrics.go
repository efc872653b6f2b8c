package pool

import (
	"context"
	"time"

	"github.com/vilicvane/promise-pool/pkg/metrics"
)

// MetricsPool wraps a Pool with Prometheus metrics collection.
type MetricsPool[T any] struct {
	pool     Pool[T]
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a pool with metrics enabled under the given name.
func NewWithMetrics[T any](processor Processor[T], config Config[T], name string, metricsConfig metrics.Config) (Pool[T], error) {
	base, err := New(processor, config)
	if err != nil {
		return nil, err
	}

	if !metricsConfig.Enabled {
		return base, nil
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	mp := &MetricsPool[T]{
		pool:     base,
		name:     name,
		registry: registry,
		enabled:  true,
	}

	mp.updateGauges()
	return mp, nil
}

// updateGauges refreshes the current state gauges.
func (mp *MetricsPool[T]) updateGauges() {
	if !mp.enabled {
		return
	}
	s := mp.pool.Snapshot()
	mp.registry.PoolRunning.WithLabelValues(mp.name).Set(float64(s.Running))
	mp.registry.PoolBacklog.WithLabelValues(mp.name).Set(float64(s.Backlog))
	mp.registry.PoolPending.WithLabelValues(mp.name).Set(float64(s.Pending))
}

// Add enqueues items and counts them.
func (mp *MetricsPool[T]) Add(items ...T) error {
	err := mp.pool.Add(items...)
	if err == nil && mp.enabled {
		mp.registry.TasksAdded.WithLabelValues(mp.name).Add(float64(len(items)))
	}
	mp.updateGauges()
	return err
}

// Start begins admission with an instrumented progress observer chained in
// front of the caller's observer.
func (mp *MetricsPool[T]) Start(ctx context.Context, progress ProgressFunc) <-chan Completion {
	instrumented := func(ev Event) error {
		if mp.enabled {
			mp.registry.AttemptsTotal.WithLabelValues(mp.name).Inc()
			switch {
			case ev.Success():
				mp.registry.TasksFulfilled.WithLabelValues(mp.name).Inc()
			case ev.RetriesRemaining == 0:
				mp.registry.TasksRejected.WithLabelValues(mp.name).Inc()
			default:
				mp.registry.TaskRetries.WithLabelValues(mp.name).Inc()
			}
			mp.updateGauges()
		}
		if progress != nil {
			return progress(ev)
		}
		return nil
	}

	return mp.pool.Start(ctx, instrumented)
}

// Pause pauses the pool and observes the drain duration.
func (mp *MetricsPool[T]) Pause() (<-chan struct{}, error) {
	start := time.Now()
	drain, err := mp.pool.Pause()
	if err == nil && mp.enabled {
		go func() {
			<-drain
			mp.registry.DrainDuration.WithLabelValues(mp.name).Observe(time.Since(start).Seconds())
			mp.updateGauges()
		}()
	}
	return drain, err
}

// Resume resumes admission.
func (mp *MetricsPool[T]) Resume() error {
	err := mp.pool.Resume()
	mp.updateGauges()
	return err
}

// Reset resets the pool and refreshes the gauges once cleared.
func (mp *MetricsPool[T]) Reset() <-chan struct{} {
	cleared := mp.pool.Reset()
	if !mp.enabled {
		return cleared
	}

	done := make(chan struct{})
	go func() {
		<-cleared
		mp.updateGauges()
		close(done)
	}()
	return done
}

// SetConcurrency changes the admission bound.
func (mp *MetricsPool[T]) SetConcurrency(n int) error {
	return mp.pool.SetConcurrency(n)
}

// Concurrency returns the current admission bound.
func (mp *MetricsPool[T]) Concurrency() int {
	return mp.pool.Concurrency()
}

// SetRetry changes the retry policy for later admissions.
func (mp *MetricsPool[T]) SetRetry(policy RetryPolicy) error {
	return mp.pool.SetRetry(policy)
}

// Retry returns the current retry policy.
func (mp *MetricsPool[T]) Retry() RetryPolicy {
	return mp.pool.Retry()
}

// Snapshot returns the current counters.
func (mp *MetricsPool[T]) Snapshot() Snapshot {
	return mp.pool.Snapshot()
}

// MetricsEnabled returns true if metrics are currently enabled.
func (mp *MetricsPool[T]) MetricsEnabled() bool {
	return mp.enabled
}
