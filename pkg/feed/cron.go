package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	pperrors "github.com/vilicvane/promise-pool/pkg/common/errors"
	"github.com/vilicvane/promise-pool/pkg/common/validation"
	"github.com/vilicvane/promise-pool/pkg/metrics"
)

// Source produces a batch of items to enqueue. A nil or empty batch is a
// valid no-op result.
type Source[T any] func(ctx context.Context) ([]T, error)

// Sink receives the items a feeder produces. pool.Pool implements Sink.
type Sink[T any] interface {
	Add(items ...T) error
}

// CronConfig holds CronFeeder configuration.
type CronConfig[T any] struct {
	// Name labels this feeder in metrics. Required when metrics are enabled.
	Name string

	// Sink receives every item the sources produce. Required.
	Sink Sink[T]

	// Location resolves cron expressions (default: time.Local).
	Location *time.Location

	// TickInterval is how often schedules are checked (default: 50ms).
	TickInterval time.Duration

	// Metrics configures Prometheus instrumentation.
	Metrics metrics.Config
}

type cronEntry[T any] struct {
	id       string
	schedule cron.Schedule
	source   Source[T]
	next     time.Time
}

// CronFeeder pulls batches from registered sources on cron schedules and
// enqueues them into the sink.
type CronFeeder[T any] struct {
	name         string
	sink         Sink[T]
	location     *time.Location
	tickInterval time.Duration
	parser       cron.Parser
	registry     *metrics.Registry

	mu      sync.Mutex
	entries map[string]*cronEntry[T]
	running bool
	stopped bool
	done    chan struct{}
	exited  chan struct{}
}

// NewCronFeeder creates a cron feeder. Schedules may be registered before or
// after Start.
func NewCronFeeder[T any](config CronConfig[T]) (*CronFeeder[T], error) {
	if config.Sink == nil {
		return nil, validation.ValidateNotNil("feed", "sink", nil)
	}

	location := config.Location
	if location == nil {
		location = time.Local
	}

	tickInterval := config.TickInterval
	if tickInterval <= 0 {
		tickInterval = 50 * time.Millisecond
	}

	var registry *metrics.Registry
	if config.Metrics.Enabled {
		if config.Name == "" {
			return nil, validation.ValidateNotEmpty("feed", "name", "")
		}
		if config.Metrics.Registry != nil {
			registry = metrics.NewRegistry(config.Metrics.Registry)
		} else {
			registry = metrics.DefaultRegistry
		}
	}

	return &CronFeeder[T]{
		name:         config.Name,
		sink:         config.Sink,
		location:     location,
		tickInterval: tickInterval,
		parser: cron.NewParser(
			cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
		),
		registry: registry,
		entries:  make(map[string]*cronEntry[T]),
	}, nil
}

// Schedule registers a source under the given id and cron expression.
// Expressions use six fields (seconds included) or descriptors such as
// "@every 30s".
func (f *CronFeeder[T]) Schedule(id string, cronExpr string, source Source[T]) error {
	if err := validation.ValidateNotEmpty("feed", "id", id); err != nil {
		return err
	}
	if cronExpr == "" {
		return validation.ValidateNotEmpty("feed", "cronExpr", "")
	}
	if source == nil {
		return validation.ValidateNotNil("feed", "source", nil)
	}

	schedule, err := f.parser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("feed: invalid cron expression %q: %w", cronExpr, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.entries[id]; exists {
		return fmt.Errorf("feed: schedule %q already exists", id)
	}

	f.entries[id] = &cronEntry[T]{
		id:       id,
		schedule: schedule,
		source:   source,
		next:     schedule.Next(time.Now().In(f.location)),
	}
	return nil
}

// Cancel removes a schedule. It reports whether the id was registered.
func (f *CronFeeder[T]) Cancel(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.entries[id]; exists {
		delete(f.entries, id)
		return true
	}
	return false
}

// Start begins the tick loop. Feeders are one-shot: starting again after
// Stop returns ErrFeederStopped.
func (f *CronFeeder[T]) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stopped {
		return pperrors.ErrFeederStopped
	}
	if f.running {
		return fmt.Errorf("feed: feeder already running")
	}

	f.running = true
	f.done = make(chan struct{})
	f.exited = make(chan struct{})

	go f.run(f.done, f.exited)
	return nil
}

// Stop halts the tick loop. The returned channel closes once the loop exits.
// Items already enqueued into the sink are unaffected.
func (f *CronFeeder[T]) Stop() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.running {
		f.stopped = true
		stopped := make(chan struct{})
		close(stopped)
		return stopped
	}

	f.running = false
	f.stopped = true
	close(f.done)
	return f.exited
}

func (f *CronFeeder[T]) run(done, exited chan struct{}) {
	defer close(exited)

	ticker := time.NewTicker(f.tickInterval)
	defer ticker.Stop()

	ctx := context.Background()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			f.fireDue(ctx)
		}
	}
}

// fireDue pulls every source whose schedule has elapsed and enqueues the
// resulting batches.
func (f *CronFeeder[T]) fireDue(ctx context.Context) {
	now := time.Now().In(f.location)

	f.mu.Lock()
	due := make([]*cronEntry[T], 0, len(f.entries))
	for _, entry := range f.entries {
		if !entry.next.After(now) {
			due = append(due, entry)
			entry.next = entry.schedule.Next(now)
		}
	}
	f.mu.Unlock()

	for _, entry := range due {
		items, err := entry.source(ctx)
		if err != nil {
			f.countError()
			continue
		}
		if len(items) == 0 {
			continue
		}
		if err := f.sink.Add(items...); err != nil {
			// A completed sink is a terminal condition for the feeder, but
			// diagnostics are the sink's to report; count and move on.
			if !pperrors.IsDiagnostic(err) {
				f.countError()
			}
			continue
		}
		f.countItems(len(items))
	}
}

func (f *CronFeeder[T]) countItems(n int) {
	if f.registry != nil {
		f.registry.FeedItems.WithLabelValues(f.name).Add(float64(n))
	}
}

func (f *CronFeeder[T]) countError() {
	if f.registry != nil {
		f.registry.FeedErrors.WithLabelValues(f.name).Inc()
	}
}
