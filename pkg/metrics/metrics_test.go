package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	registry := NewRegistry(reg)

	if registry.TasksAdded == nil || registry.TasksFulfilled == nil || registry.TasksRejected == nil {
		t.Fatal("pool counters should be initialized")
	}
	if registry.PoolRunning == nil || registry.PoolBacklog == nil || registry.PoolPending == nil {
		t.Fatal("pool gauges should be initialized")
	}
	if registry.DrainDuration == nil {
		t.Fatal("drain histogram should be initialized")
	}
	if registry.FeedItems == nil || registry.FeedErrors == nil {
		t.Fatal("feeder counters should be initialized")
	}
}

func TestRegistryRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	registry := NewRegistry(reg)

	registry.TasksAdded.WithLabelValues("test_pool").Add(3)
	registry.TasksFulfilled.WithLabelValues("test_pool").Inc()
	registry.PoolRunning.WithLabelValues("test_pool").Set(2)

	if got := promtestutil.ToFloat64(registry.TasksAdded.WithLabelValues("test_pool")); got != 3 {
		t.Errorf("TasksAdded = %v, want 3", got)
	}
	if got := promtestutil.ToFloat64(registry.TasksFulfilled.WithLabelValues("test_pool")); got != 1 {
		t.Errorf("TasksFulfilled = %v, want 1", got)
	}
	if got := promtestutil.ToFloat64(registry.PoolRunning.WithLabelValues("test_pool")); got != 2 {
		t.Errorf("PoolRunning = %v, want 2", got)
	}
}

func TestSeparateRegistriesDoNotConflict(t *testing.T) {
	a := NewRegistry(prometheus.NewRegistry())
	b := NewRegistry(prometheus.NewRegistry())

	a.TasksAdded.WithLabelValues("p").Inc()

	if got := promtestutil.ToFloat64(b.TasksAdded.WithLabelValues("p")); got != 0 {
		t.Errorf("registries should be independent, got %v", got)
	}
}
