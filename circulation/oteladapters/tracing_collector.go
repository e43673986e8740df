package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// AttrOutcome is set on spans whose status has no OpenTelemetry status code, e.g. "rejected" or "idempotent".
const AttrOutcome = "outcome"

// TracingCollector implements circulation.TracingCollector with an OpenTelemetry tracer.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector creates a collector on a tracer from your TracerProvider.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan starts a span as a child of the span in ctx, if any.
func (t *TracingCollector) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, circulation.SpanContext) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(toAttributes(attrs)...))

	return ctx, &SpanContext{span: span}
}

// FinishSpan sets the final attributes and the status, then ends the span.
// Spans not started by this collector are ignored.
func (t *TracingCollector) FinishSpan(spanCtx circulation.SpanContext, status string, attrs map[string]string) {
	wrapped, ok := spanCtx.(*SpanContext)
	if !ok {
		return
	}

	wrapped.span.SetAttributes(toAttributes(attrs)...)
	wrapped.SetStatus(status)
	wrapped.span.End()
}

var _ circulation.TracingCollector = (*TracingCollector)(nil)

// SpanContext wraps an OpenTelemetry span.
type SpanContext struct {
	span trace.Span
}

// SetStatus maps a status string to an OpenTelemetry status code.
// Business rejections are expected outcomes, so they leave the span code unset and only record the outcome.
func (s *SpanContext) SetStatus(status string) {
	switch status {
	case "ok", "success", "completed":
		s.span.SetStatus(codes.Ok, "")
	case "error", "failed", "failure":
		s.span.SetStatus(codes.Error, "Operation failed")
	case "canceled", "cancelled":
		s.span.SetStatus(codes.Error, "Operation canceled")
	case "timeout":
		s.span.SetStatus(codes.Error, "Operation timed out")
	case "conflict", "concurrency_conflict":
		s.span.SetStatus(codes.Error, "Concurrency conflict")
	default:
		s.span.SetAttributes(attribute.String(AttrOutcome, status))
	}
}

func (s *SpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

var _ circulation.SpanContext = (*SpanContext)(nil)
