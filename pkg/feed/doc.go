// Package feed provides sources that enqueue items into a pool on a schedule
// or from external systems.
//
// Feeders are companions to the endless pool mode: the pool executes whatever
// the feeder enqueues, and the feeder keeps enqueueing for the lifetime of the
// process.
//
// Two feeders are provided:
//
//   - CronFeeder pulls batches from caller-supplied sources on cron schedules.
//   - RedisFeeder pops items from a Redis list and decodes them into the pool.
//
// Example:
//
//	p, _ := pool.New(process, pool.Config[string]{Concurrency: 4, Endless: true})
//	p.Start(ctx, nil)
//
//	f := feed.NewCronFeeder[string](feed.CronConfig[string]{Name: "jobs", Sink: p})
//	f.Schedule("hourly-sync", "0 0 * * * *", fetchPendingJobs)
//	f.Start()
//	defer func() { <-f.Stop() }()
package feed
