package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartScriptSpan starts a span covering a whole script run.
	StartScriptSpan(ctx context.Context, script, runID string) (context.Context, trace.Span)

	// StartStepSpan starts a child span for one step.
	StartStepSpan(ctx context.Context, step int, op string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct {
	tracer trace.Tracer
}

// NewSpanManager returns a SpanManager that uses the global OTel tracer
// provider as configured at the time of the call.
func NewSpanManager() SpanManager {
	return &otelSpanManager{tracer: otel.Tracer("linkedlist")}
}

// StartScriptSpan starts a span for the script run.
func (m *otelSpanManager) StartScriptSpan(ctx context.Context, script, runID string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "linkedlist.script",
		trace.WithAttributes(
			attribute.String("script.name", script),
			attribute.String("run.id", runID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartStepSpan starts a span for one step.
func (m *otelSpanManager) StartStepSpan(ctx context.Context, step int, op string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "linkedlist.step."+op,
		trace.WithAttributes(
			attribute.Int("step.index", step),
			attribute.String("step.op", op),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
