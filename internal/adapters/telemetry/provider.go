// Package telemetry adapts OpenTelemetry tracing to the launcher's console output.
package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/launchpad/internal/core/ports"
)

// QuietAttribute marks spans that are traced but not announced by the renderer.
const QuietAttribute attribute.Key = "launchpad.quiet"

var _ ports.Tracer = (*OTelTracer)(nil)

// OTelTracer is a concrete implementation of ports.Tracer using OpenTelemetry.
// It owns its TracerProvider so that concurrent runs never share span processors.
type OTelTracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer

	mu       sync.RWMutex
	renderer ports.Renderer
}

// NewOTelTracer creates a new OTelTracer with the given instrumentation name.
// Extra span processors (exporters, recorders) receive every span.
func NewOTelTracer(name string, processors ...sdktrace.SpanProcessor) *OTelTracer {
	opts := make([]sdktrace.TracerProviderOption, 0, len(processors))
	for _, p := range processors {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}
	provider := sdktrace.NewTracerProvider(opts...)

	return &OTelTracer{
		provider: provider,
		tracer:   provider.Tracer(name),
	}
}

// WithRenderer routes span lifecycle events and span output to renderer.
func (t *OTelTracer) WithRenderer(renderer ports.Renderer) *OTelTracer {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.renderer = renderer
	t.provider.RegisterSpanProcessor(NewBridge(renderer))
	return t
}

// Shutdown ends the provider, which stops the renderer.
func (t *OTelTracer) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}

// Start creates a new span.
func (t *OTelTracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var startOpts []trace.SpanStartOption
	if cfg.Quiet {
		startOpts = append(startOpts, trace.WithAttributes(attribute.Bool(string(QuietAttribute), true)))
	}

	ctx, span := t.tracer.Start(ctx, name, startOpts...)

	t.mu.RLock()
	renderer := t.renderer
	t.mu.RUnlock()

	s := &OTelSpan{span: span}
	if renderer != nil && !cfg.Quiet {
		s.renderer = renderer
		s.spanID = span.SpanContext().SpanID().String()
	}
	return ctx, s
}

// EmitPlan records the planned build targets on the current span and announces them.
func (t *OTelTracer) EmitPlan(ctx context.Context, targets []string) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("plan_emitted", trace.WithAttributes(
			attribute.StringSlice("targets", targets),
		))
	}

	t.mu.RLock()
	renderer := t.renderer
	t.mu.RUnlock()

	if renderer != nil {
		renderer.OnPlanEmit(targets)
	}
}

// OTelSpan is a concrete implementation of ports.Span using OpenTelemetry.
type OTelSpan struct {
	span     trace.Span
	renderer ports.Renderer
	spanID   string
}

// End completes the span.
func (s *OTelSpan) End() {
	s.span.End()
}

// RecordError records an error for the span.
func (s *OTelSpan) RecordError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// SetAttribute adds a key-value pair to the span.
func (s *OTelSpan) SetAttribute(key string, value any) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	case []string:
		s.span.SetAttributes(attribute.StringSlice(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

// Write satisfies io.Writer by streaming p to the renderer, or by adding a log
// event to the span when nothing renders it.
func (s *OTelSpan) Write(p []byte) (n int, err error) {
	if s.renderer != nil {
		s.renderer.OnTaskLog(s.spanID, p)
		return len(p), nil
	}
	s.span.AddEvent("log", trace.WithAttributes(attribute.String("message", string(p))))
	return len(p), nil
}
