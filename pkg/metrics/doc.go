/*
Package metrics provides Prometheus instrumentation for promise-pool components.

Metrics are grouped in a Registry so that multiple instrumented components can
share one set of collectors, distinguished by the pool_name or feeder_name
label. The package-level DefaultRegistry registers against
prometheus.DefaultRegisterer; create a dedicated Registry for tests or for
applications that manage their own registries:

	reg := prometheus.NewRegistry()
	registry := metrics.NewRegistry(reg)

Components accept a metrics.Config and record into the registry it names.
Expose the metrics with promhttp as usual:

	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
*/
package metrics
