package testdoubles

import (
	"context"
	"maps"
	"sync"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// SpySpanContext is a circulation.SpanContext that remembers its status and attributes.
type SpySpanContext struct {
	status     string
	attributes map[string]string
	mu         sync.Mutex
}

// SetStatus implements circulation.SpanContext.
func (c *SpySpanContext) SetStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status = status
}

// AddAttribute implements circulation.SpanContext.
func (c *SpySpanContext) AddAttribute(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.attributes[key] = value
}

// SpySpanRecord represents a started span and, once finished, its outcome.
type SpySpanRecord struct {
	Name            string
	StartAttributes map[string]string
	Status          string
	EndAttributes   map[string]string
	Finished        bool
	span            *SpySpanContext
}

// TracingCollectorSpy is a circulation.TracingCollector that captures all spans.
type TracingCollectorSpy struct {
	records []*SpySpanRecord
	mu      sync.Mutex
}

var _ circulation.TracingCollector = (*TracingCollectorSpy)(nil)

// NewTracingCollectorSpy creates a new TracingCollectorSpy.
func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{records: make([]*SpySpanRecord, 0)}
}

// StartSpan implements circulation.TracingCollector.
func (s *TracingCollectorSpy) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, circulation.SpanContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	span := &SpySpanContext{attributes: make(map[string]string)}
	s.records = append(s.records, &SpySpanRecord{
		Name:            name,
		StartAttributes: maps.Clone(attrs),
		span:            span,
	})

	return ctx, span
}

// FinishSpan implements circulation.TracingCollector.
func (s *TracingCollectorSpy) FinishSpan(spanCtx circulation.SpanContext, status string, attrs map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.span == spanCtx {
			record.Status = status
			record.EndAttributes = maps.Clone(attrs)
			record.Finished = true

			return
		}
	}
}

// Spans returns copies of all captured spans.
func (s *TracingCollectorSpy) Spans() []SpySpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	spans := make([]SpySpanRecord, 0, len(s.records))
	for _, record := range s.records {
		spans = append(spans, *record)
	}

	return spans
}

// FinishedSpans returns all finished spans with the given name.
func (s *TracingCollectorSpy) FinishedSpans(name string) []SpySpanRecord {
	finished := make([]SpySpanRecord, 0)

	for _, span := range s.Spans() {
		if span.Name == name && span.Finished {
			finished = append(finished, span)
		}
	}

	return finished
}
