package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/AntonStoeckl/library-circulation-go/circulation/oteladapters"
)

func newTracing(t *testing.T) (*oteladapters.TracingCollector, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	return oteladapters.NewTracingCollector(provider.Tracer("test")), exporter
}

func Test_TracingCollector_StartAndFinishSpan(t *testing.T) {
	// setup
	collector, exporter := newTracing(t)

	// act
	_, span := collector.StartSpan(context.Background(), "circulation.unit_of_work", map[string]string{
		"operation": "unit_of_work",
		"db.system": "sqlite3",
	})
	span.AddAttribute("record_id", "42")
	collector.FinishSpan(span, "success", map[string]string{"duration_ms": "1.25"})

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "circulation.unit_of_work", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assertSpanHasAttribute(t, spans[0], "operation", "unit_of_work")
	assertSpanHasAttribute(t, spans[0], "db.system", "sqlite3")
	assertSpanHasAttribute(t, spans[0], "record_id", "42")
	assertSpanHasAttribute(t, spans[0], "duration_ms", "1.25")
}

func Test_TracingCollector_ChildSpan(t *testing.T) {
	// setup
	collector, exporter := newTracing(t)

	// act
	ctx, parent := collector.StartSpan(context.Background(), "command.handle", nil)
	_, child := collector.StartSpan(ctx, "circulation.unit_of_work", nil)
	collector.FinishSpan(child, "success", nil)
	collector.FinishSpan(parent, "success", nil)

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
}

func Test_TracingCollector_StatusMapping(t *testing.T) {
	collector, exporter := newTracing(t)

	testCases := []struct {
		status          string
		expectedCode    codes.Code
		expectedOutcome string
	}{
		{"success", codes.Ok, ""},
		{"ok", codes.Ok, ""},
		{"error", codes.Error, ""},
		{"canceled", codes.Error, ""},
		{"timeout", codes.Error, ""},
		{"conflict", codes.Error, ""},
		{"concurrency_conflict", codes.Error, ""},
		{"rejected", codes.Unset, "rejected"},
		{"idempotent", codes.Unset, "idempotent"},
	}

	for _, tc := range testCases {
		t.Run(tc.status, func(t *testing.T) {
			// setup
			exporter.Reset()

			// act
			_, span := collector.StartSpan(context.Background(), "test", nil)
			collector.FinishSpan(span, tc.status, nil)

			// assert
			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tc.expectedCode, spans[0].Status.Code)

			if tc.expectedOutcome != "" {
				assertSpanHasAttribute(t, spans[0], oteladapters.AttrOutcome, tc.expectedOutcome)
			}
		})
	}
}

type foreignSpan struct{}

func (foreignSpan) SetStatus(string)            {}
func (foreignSpan) AddAttribute(string, string) {}

func Test_TracingCollector_FinishSpan_IgnoresForeignSpans(t *testing.T) {
	// setup
	collector, exporter := newTracing(t)

	// act & assert
	assert.NotPanics(t, func() {
		collector.FinishSpan(foreignSpan{}, "success", nil)
	})
	assert.Empty(t, exporter.GetSpans())
}

func assertSpanHasAttribute(t *testing.T, span tracetest.SpanStub, key, expected string) {
	t.Helper()

	for _, attr := range span.Attributes {
		if attr.Key == attribute.Key(key) {
			assert.Equal(t, expected, attr.Value.AsString(), "attribute %s", key)
			return
		}
	}

	t.Errorf("span %s has no attribute %s", span.Name, key)
}
