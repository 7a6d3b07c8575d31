package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/reactive/pkg/reactive"
)

const defaultTracerName = "reactive"

// OTelConfig configures the OpenTelemetry hooks.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "reactive").
	TracerName string

	// TracerProvider overrides the global provider.
	TracerProvider trace.TracerProvider

	// Context is the parent of top-level spans (default: context.Background()).
	Context context.Context

	// TraceFlushes creates a span per effect queue flush. Enabled by default.
	TraceFlushes bool
}

// OTelOption configures the OpenTelemetry hooks.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithParentContext sets the context top-level spans are started from.
func WithParentContext(ctx context.Context) OTelOption {
	return func(c *OTelConfig) {
		c.Context = ctx
	}
}

// WithTraceFlushes enables or disables flush spans.
func WithTraceFlushes(enabled bool) OTelOption {
	return func(c *OTelConfig) {
		c.TraceFlushes = enabled
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName:   defaultTracerName,
		Context:      context.Background(),
		TraceFlushes: true,
	}
}

// OTelHooks traces transactions, actions and flushes. Spans nest in the
// order the runtime reports them, so an action run inside a transaction
// becomes its child. Effect runs, cyclic effects and watch failures are
// recorded as events on the innermost open span.
type OTelHooks struct {
	config OTelConfig
	tracer trace.Tracer

	mu    sync.Mutex
	stack []context.Context
}

// OpenTelemetry creates tracing hooks. The tracer comes from the global
// provider unless WithTracerProvider is given; configure it in main()
// before installing the hooks.
func OpenTelemetry(opts ...OTelOption) *OTelHooks {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}
	var tracer trace.Tracer
	if config.TracerProvider != nil {
		tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		tracer = otel.Tracer(config.TracerName)
	}
	return &OTelHooks{config: config, tracer: tracer}
}

func (o *OTelHooks) current() context.Context {
	if n := len(o.stack); n > 0 {
		return o.stack[n-1]
	}
	return o.config.Context
}

// start opens a span under the innermost one and returns its finisher.
func (o *OTelHooks) start(name string, attrs ...attribute.KeyValue) func(error, ...attribute.KeyValue) {
	o.mu.Lock()
	ctx, span := o.tracer.Start(o.current(), name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(time.Now()),
	)
	o.stack = append(o.stack, ctx)
	depth := len(o.stack)
	o.mu.Unlock()

	return func(err error, end ...attribute.KeyValue) {
		if len(end) > 0 {
			span.SetAttributes(end...)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()

		o.mu.Lock()
		if len(o.stack) >= depth {
			o.stack = o.stack[:depth-1]
		}
		o.mu.Unlock()
	}
}

func (o *OTelHooks) event(name string, attrs ...attribute.KeyValue) {
	o.mu.Lock()
	ctx := o.current()
	o.mu.Unlock()
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

func (o *OTelHooks) FlushStarted(pending int) func(int, error) {
	if !o.config.TraceFlushes {
		return func(int, error) {}
	}
	end := o.start("reactive.flush", attribute.Int("reactive.pending", pending))
	return func(ran int, err error) {
		end(err, attribute.Int("reactive.effects_ran", ran))
	}
}

func (o *OTelHooks) EffectRan(name string, d time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("reactive.effect", name),
		attribute.Int64("reactive.duration_us", d.Microseconds()),
	}
	if err != nil {
		attrs = append(attrs, attribute.String("reactive.error", err.Error()))
	}
	o.event("effect", attrs...)
}

func (o *OTelHooks) TxStarted(name string) func(error) {
	end := o.start("reactive.tx "+name, attribute.String("reactive.tx", name))
	return func(err error) { end(err) }
}

func (o *OTelHooks) ActionStarted(name string) func(error) {
	if name == "" {
		name = "anonymous"
	}
	end := o.start("reactive.action "+name, attribute.String("reactive.action", name))
	return func(err error) { end(err) }
}

func (o *OTelHooks) CyclicEffect(name string, runs int) {
	o.event("cyclic_effect",
		attribute.String("reactive.effect", name),
		attribute.Int("reactive.runs", runs),
	)
}

func (o *OTelHooks) WatchFailed(name, stage string, err error) {
	o.event("watch_failed",
		attribute.String("reactive.watch", name),
		attribute.String("reactive.stage", stage),
		attribute.String("reactive.error", err.Error()),
	)
}

var _ reactive.Hooks = (*OTelHooks)(nil)
