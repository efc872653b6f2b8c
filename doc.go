/*
Package promisepool provides a bounded-concurrency task execution engine
with per-task retry, cooperative pause/resume, and progress reporting.

Core (pkg/pool):
  - pool: the Pool scheduler with FIFO admission up to a concurrency bound,
    per-task retry with exponential backoff, pause/drain, endless mode,
    and a one-shot completion handle

Companions (pkg/feed):
  - CronFeeder: cron-scheduled item sources for long-running pools
  - RedisFeeder: feed a pool from a Redis list

Observability (pkg/metrics):
  - Prometheus instrumentation via pool.NewWithMetrics

Example usage:

	import (
		"github.com/vilicvane/promise-pool/pkg/pool"
	)

	p, _ := pool.New(processItem, pool.Config[string]{
		Concurrency: 4,
		Retry:       pool.RetryPolicy{Limit: 2, Interval: 100 * time.Millisecond},
	})

	p.Add("a", "b", "c")
	done := p.Start(ctx, nil)
	result := <-done
*/
package promisepool
