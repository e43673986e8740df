package testdoubles

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// SpyMetricRecord represents one recorded metrics call.
type SpyMetricRecord struct {
	Kind     string // "duration", "counter" or "value"
	Metric   string
	Duration time.Duration
	Value    float64
	Labels   map[string]string
}

// MetricsCollectorSpy is a circulation.ContextualMetricsCollector that captures all calls.
type MetricsCollectorSpy struct {
	records []SpyMetricRecord
	mu      sync.Mutex
}

var _ circulation.ContextualMetricsCollector = (*MetricsCollectorSpy)(nil)

// NewMetricsCollectorSpy creates a new MetricsCollectorSpy.
func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{records: make([]SpyMetricRecord, 0)}
}

func (s *MetricsCollectorSpy) record(r SpyMetricRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// copy labels to avoid external modifications
	r.Labels = maps.Clone(r.Labels)
	s.records = append(s.records, r)
}

// RecordDuration implements circulation.MetricsCollector.
func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.record(SpyMetricRecord{Kind: "duration", Metric: metric, Duration: duration, Labels: labels})
}

// IncrementCounter implements circulation.MetricsCollector.
func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.record(SpyMetricRecord{Kind: "counter", Metric: metric, Value: 1, Labels: labels})
}

// RecordValue implements circulation.MetricsCollector.
func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.record(SpyMetricRecord{Kind: "value", Metric: metric, Value: value, Labels: labels})
}

// RecordDurationContext implements circulation.ContextualMetricsCollector.
func (s *MetricsCollectorSpy) RecordDurationContext(_ context.Context, metric string, duration time.Duration, labels map[string]string) {
	s.RecordDuration(metric, duration, labels)
}

// IncrementCounterContext implements circulation.ContextualMetricsCollector.
func (s *MetricsCollectorSpy) IncrementCounterContext(_ context.Context, metric string, labels map[string]string) {
	s.IncrementCounter(metric, labels)
}

// RecordValueContext implements circulation.ContextualMetricsCollector.
func (s *MetricsCollectorSpy) RecordValueContext(_ context.Context, metric string, value float64, labels map[string]string) {
	s.RecordValue(metric, value, labels)
}

// Records returns a copy of all captured calls.
func (s *MetricsCollectorSpy) Records() []SpyMetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]SpyMetricRecord, len(s.records))
	copy(records, s.records)

	return records
}

// Count returns how many calls for metric carried all the given labels.
func (s *MetricsCollectorSpy) Count(metric string, labels map[string]string) int {
	count := 0

	for _, record := range s.Records() {
		if record.Metric == metric && hasLabels(record.Labels, labels) {
			count++
		}
	}

	return count
}

// Has checks if at least one call for metric carried all the given labels.
func (s *MetricsCollectorSpy) Has(metric string, labels map[string]string) bool {
	return s.Count(metric, labels) > 0
}

func hasLabels(actual, expected map[string]string) bool {
	for key, value := range expected {
		if actual[key] != value {
			return false
		}
	}

	return true
}
