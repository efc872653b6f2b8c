/*
Package pool provides a bounded-concurrency task execution engine with
per-task retry, cooperative pause/resume, and progress reporting.

A Pool accepts a dynamically growing queue of work items and executes at most
Concurrency of them at a time via a caller-supplied Processor. Items are
admitted strictly in enqueue (FIFO) order and each receives a unique index,
stable across retry attempts.

Basic usage:

	p, err := pool.New(func(ctx context.Context, url string, index int) error {
		return fetch(ctx, url)
	}, pool.Config[string]{Concurrency: 4})
	if err != nil {
		log.Fatal(err)
	}

	p.Add("https://example.com", "https://example.org")
	done := p.Start(context.Background(), nil)

	completion := <-done
	fmt.Printf("fulfilled=%d rejected=%d total=%d\n",
		completion.Result.Fulfilled, completion.Result.Rejected, completion.Result.Total)

Retries:

Failed tasks are re-invoked up to the configured budget while holding their
concurrency slot, with exponential backoff:

	p, _ := pool.New(process, pool.Config[Job]{
		Concurrency: 8,
		Retry: pool.RetryPolicy{
			Limit:       3,
			Interval:    100 * time.Millisecond,
			MaxInterval: 5 * time.Second,
			Multiplier:  2,
		},
	})

A budget of pool.Unlimited retries forever. RetryPolicy.Delay is a pure
function of the attempt number and can be inspected directly.

Progress observation:

Start accepts an observer that receives an Event after every attempt,
retries included, with a consistent counter snapshot:

	done := p.Start(ctx, func(ev pool.Event) error {
		if !ev.Success() {
			log.Printf("task %d failed (%d retries left): %v",
				ev.Index, ev.RetriesRemaining, ev.Err)
		}
		return nil
	})

An error returned by the observer is fatal to the pool: admission stops and
the completion handle is rejected with that error once in-flight tasks
settle. Per-task failures are never fatal; they surface only through events
and the Rejected count.

Pause, resume, reset:

	drain, _ := p.Pause() // stop admitting, keep in-flight work
	<-drain               // every admitted task reached a terminal outcome
	p.Resume()            // admission continues where it left off

	<-p.Reset()           // drain, then clear all state for reuse

Endless mode:

With Config.Endless the pool never reaches terminal completion and Start
returns a nil handle; pair it with the feed package to keep a long-running
pool supplied with work.

Metrics:

NewWithMetrics wraps a pool with Prometheus instrumentation; see the
metrics package.

All operations are safe for concurrent use. Admission sweeps and counter
updates are serialized, so at every observable instant
Total == Fulfilled + Rejected + Pending and Running never exceeds the
configured bound. The pool never cancels an in-flight processor call: a
processor that never returns permanently holds its slot and blocks both
completion and drain.
*/
package pool
