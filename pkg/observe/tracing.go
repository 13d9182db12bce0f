package observe

import (
	"context"

	"github.com/vango-dev/fastctx/pkg/fastctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name.
const defaultTracerName = "fastctx"

// TracingConfig configures the OpenTelemetry observer.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "fastctx").
	TracerName string

	// Tracer overrides the tracer resolved from the global provider.
	Tracer trace.Tracer
}

// TracingOption configures the OpenTelemetry observer.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracer sets the tracer explicitly.
func WithTracer(tracer trace.Tracer) TracingOption {
	return func(c *TracingConfig) {
		c.Tracer = tracer
	}
}

// Tracing records one span per Set. It implements fastctx.Observer; the
// other callbacks are not traced.
//
// Span attributes:
//   - fastctx.store: store name
//   - fastctx.fields: fields in the partial update
//   - fastctx.subscribers: listeners in the notification snapshot
//   - fastctx.notified: listeners actually invoked (set at end)
//
// The span is parented on the context the store's scope was activated with,
// not on the context of the caller of Set. A scope activated inside a traced
// request joins that trace; a long-lived scope activated on
// context.Background gives root spans.
type Tracing struct {
	tracer trace.Tracer
}

var _ fastctx.Observer = (*Tracing)(nil)

// NewTracing creates the tracing observer. The tracer uses the global
// OpenTelemetry tracer provider unless WithTracer is given.
func NewTracing(opts ...TracingOption) *Tracing {
	config := TracingConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	tracer := config.Tracer
	if tracer == nil {
		tracer = otel.Tracer(config.TracerName)
	}
	return &Tracing{tracer: tracer}
}

// SetStarted implements fastctx.Observer.
func (t *Tracing) SetStarted(e fastctx.SetEvent) func(fastctx.SetResult) {
	ctx := e.Context
	if ctx == nil {
		ctx = context.Background()
	}

	_, span := t.tracer.Start(ctx, "fastctx.set",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("fastctx.store", e.Store),
			attribute.StringSlice("fastctx.fields", e.Fields),
			attribute.Int("fastctx.subscribers", e.Subscribers),
		),
	)
	return func(r fastctx.SetResult) {
		span.SetAttributes(attribute.Int("fastctx.notified", r.Notified))
		span.SetStatus(codes.Ok, "")
		span.End()
	}
}

// SelectorEvaluated implements fastctx.Observer.
func (t *Tracing) SelectorEvaluated(string, bool) {}

// SubscriptionsChanged implements fastctx.Observer.
func (t *Tracing) SubscriptionsChanged(string, int) {}

// ScopesChanged implements fastctx.Observer.
func (t *Tracing) ScopesChanged(string, int) {}
