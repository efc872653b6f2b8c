package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	pperrors "github.com/vilicvane/promise-pool/pkg/common/errors"
	"github.com/vilicvane/promise-pool/pkg/common/validation"
	"github.com/vilicvane/promise-pool/pkg/metrics"
)

// listPopper is the slice of the Redis client the feeder needs.
// redis.UniversalClient satisfies it.
type listPopper interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// RedisConfig holds RedisFeeder configuration.
type RedisConfig[T any] struct {
	// Name labels this feeder in metrics. Required when metrics are enabled.
	Name string

	// Client is the Redis connection. Required.
	Client redis.UniversalClient

	// Key is the Redis list to pop from. Required.
	Key string

	// Decode turns a popped list element into an item. Required.
	Decode func(string) (T, error)

	// Sink receives every decoded item. Required.
	Sink Sink[T]

	// PopTimeout bounds each blocking pop (default: 1s). Shorter timeouts
	// make Stop more responsive at the cost of more round trips.
	PopTimeout time.Duration

	// Metrics configures Prometheus instrumentation.
	Metrics metrics.Config
}

// RedisFeeder pops elements from a Redis list with BLPOP, decodes them, and
// enqueues them into the sink. Elements that fail to decode are dropped and
// counted as feed errors.
type RedisFeeder[T any] struct {
	name       string
	client     listPopper
	key        string
	decode     func(string) (T, error)
	sink       Sink[T]
	popTimeout time.Duration
	registry   *metrics.Registry

	mu      sync.Mutex
	running bool
	stopped bool
	cancel  context.CancelFunc
	exited  chan struct{}
}

// NewRedisFeeder creates a Redis list feeder.
func NewRedisFeeder[T any](config RedisConfig[T]) (*RedisFeeder[T], error) {
	if config.Client == nil {
		return nil, validation.ValidateNotNil("feed", "client", nil)
	}
	if err := validation.ValidateNotEmpty("feed", "key", config.Key); err != nil {
		return nil, err
	}
	if config.Decode == nil {
		return nil, validation.ValidateNotNil("feed", "decode", nil)
	}
	if config.Sink == nil {
		return nil, validation.ValidateNotNil("feed", "sink", nil)
	}

	popTimeout := config.PopTimeout
	if popTimeout <= 0 {
		popTimeout = time.Second
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

	return &RedisFeeder[T]{
		name:       config.Name,
		client:     config.Client,
		key:        config.Key,
		decode:     config.Decode,
		sink:       config.Sink,
		popTimeout: popTimeout,
		registry:   registry,
	}, nil
}

// Start begins the pop loop. Feeders are one-shot: starting again after
// Stop returns ErrFeederStopped.
func (f *RedisFeeder[T]) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stopped {
		return pperrors.ErrFeederStopped
	}
	if f.running {
		return fmt.Errorf("feed: feeder already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	f.running = true
	f.cancel = cancel
	f.exited = make(chan struct{})

	go f.run(ctx, f.exited)
	return nil
}

// Stop halts the pop loop. The returned channel closes once the loop exits;
// a pop already in flight is abandoned via context cancellation.
func (f *RedisFeeder[T]) Stop() <-chan struct{} {
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
	f.cancel()
	return f.exited
}

func (f *RedisFeeder[T]) run(ctx context.Context, exited chan struct{}) {
	defer close(exited)

	for {
		if ctx.Err() != nil {
			return
		}

		values, err := f.client.BLPop(ctx, f.popTimeout, f.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Timed out with nothing to pop.
				continue
			}
			if ctx.Err() != nil {
				return
			}
			f.countError()
			continue
		}

		// BLPOP replies [key, element].
		if len(values) < 2 {
			continue
		}

		item, err := f.decode(values[1])
		if err != nil {
			f.countError()
			continue
		}

		if err := f.sink.Add(item); err != nil {
			if errors.Is(err, pperrors.ErrCompleted) {
				// The sink will never accept again; popping more would lose
				// elements.
				return
			}
			f.countError()
			continue
		}
		f.countItems(1)
	}
}

func (f *RedisFeeder[T]) countItems(n int) {
	if f.registry != nil {
		f.registry.FeedItems.WithLabelValues(f.name).Add(float64(n))
	}
}

func (f *RedisFeeder[T]) countError() {
	if f.registry != nil {
		f.registry.FeedErrors.WithLabelValues(f.name).Inc()
	}
}
