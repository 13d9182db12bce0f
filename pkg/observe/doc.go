// Package observe provides fastctx.Observer implementations backed by
// Prometheus and OpenTelemetry.
//
// Usage:
//
//	metrics := observe.NewMetrics(observe.WithNamespace("myapp"))
//	tracing := observe.NewTracing(observe.WithTracerName("myapp"))
//
//	var People = fastctx.Create(Person{},
//	    fastctx.WithName("people"),
//	    fastctx.WithObserver(fastctx.Observers(metrics, tracing)),
//	)
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
package observe
