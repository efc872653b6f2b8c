// Package metrics provides Prometheus instrumentation for promise-pool components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for promise-pool components.
type Registry struct {
	// Pool Metrics
	TasksAdded     *prometheus.CounterVec
	TasksFulfilled *prometheus.CounterVec
	TasksRejected  *prometheus.CounterVec
	TaskRetries    *prometheus.CounterVec
	AttemptsTotal  *prometheus.CounterVec
	PoolRunning    *prometheus.GaugeVec
	PoolBacklog    *prometheus.GaugeVec
	PoolPending    *prometheus.GaugeVec
	DrainDuration  *prometheus.HistogramVec

	// Feeder Metrics
	FeedItems  *prometheus.CounterVec
	FeedErrors *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by promise-pool components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		TasksAdded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "promisepool",
				Subsystem: "pool",
				Name:      "tasks_added_total",
				Help:      "Total number of tasks enqueued into the pool",
			},
			[]string{"pool_name"},
		),

		TasksFulfilled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "promisepool",
				Subsystem: "pool",
				Name:      "tasks_fulfilled_total",
				Help:      "Total number of tasks that completed successfully",
			},
			[]string{"pool_name"},
		),

		TasksRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "promisepool",
				Subsystem: "pool",
				Name:      "tasks_rejected_total",
				Help:      "Total number of tasks that exhausted their retry budget",
			},
			[]string{"pool_name"},
		),

		TaskRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "promisepool",
				Subsystem: "pool",
				Name:      "task_retries_total",
				Help:      "Total number of retry attempts scheduled",
			},
			[]string{"pool_name"},
		),

		AttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "promisepool",
				Subsystem: "pool",
				Name:      "attempts_total",
				Help:      "Total number of processor invocations reported",
			},
			[]string{"pool_name"},
		),

		PoolRunning: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "promisepool",
				Subsystem: "pool",
				Name:      "running_tasks",
				Help:      "Number of tasks currently admitted and in flight",
			},
			[]string{"pool_name"},
		),

		PoolBacklog: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "promisepool",
				Subsystem: "pool",
				Name:      "backlog_tasks",
				Help:      "Number of tasks waiting for admission",
			},
			[]string{"pool_name"},
		),

		PoolPending: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "promisepool",
				Subsystem: "pool",
				Name:      "pending_tasks",
				Help:      "Number of tasks that have not reached a terminal outcome",
			},
			[]string{"pool_name"},
		),

		DrainDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "promisepool",
				Subsystem: "pool",
				Name:      "drain_duration_seconds",
				Help:      "Time between a pause request and drain completion",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pool_name"},
		),

		FeedItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "promisepool",
				Subsystem: "feed",
				Name:      "items_total",
				Help:      "Total number of items fed into pools",
			},
			[]string{"feeder_name"},
		),

		FeedErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "promisepool",
				Subsystem: "feed",
				Name:      "errors_total",
				Help:      "Total number of source or decode errors in feeders",
			},
			[]string{"feeder_name"},
		),
	}
}
