package sqlengine

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/sqlengine/internal/adapters"
)

const (
	logMsgSQLExecuted     = "executed sql for: "
	logMsgOperation       = "circulation store: "
	logMsgCloseRowsFailed = "failed to close database rows"
	logAttrError          = "error"
	logAttrQuery          = "query"
	logAttrDurationMS     = "duration_ms"

	metricUnitDuration         = "circulation_unit_of_work_duration_seconds"
	metricQueryDuration        = "circulation_query_duration_seconds"
	metricDatabaseErrors       = "circulation_database_errors_total"
	metricConcurrencyConflicts = "circulation_concurrency_conflicts_total"

	spanNameUnitOfWork = "circulation.unit_of_work"
	spanAttrOperation  = "operation"
	spanAttrDialect    = "db.system"
	spanAttrErrorType  = "error_type"
	spanAttrDurationMS = "duration_ms"

	labelStatus       = "status"
	labelConflictType = "conflict_type"

	statusSuccess  = "success"
	statusRejected = "rejected"
	statusConflict = "conflict"
	statusError    = "error"

	errorTypeConcurrency = "concurrency_conflict"
	errorTypeBusiness    = "business_rule"
	errorTypeCanceled    = "canceled"
	errorTypeDatabase    = "database"

	actionUnitOfWork = "unit_of_work"
	actionMigrate    = "migrate"
	actionQuery      = "query"
	actionInsert     = "insert"
	actionUpdate     = "update"
)

// businessErrors are outcomes of rules, not failures of the store.
var businessErrors = []error{
	circulation.ErrNotFound,
	circulation.ErrUnavailable,
	circulation.ErrAlreadyClosed,
	circulation.ErrConflict,
	circulation.ErrDuplicateKey,
	circulation.ErrCheckoutLimitReached,
	circulation.ErrInvalidInput,
	circulation.ErrInvalidCredentials,
	circulation.ErrInconsistentState,
}

// classify maps an outcome to a status and an error type for spans and metrics.
func classify(err error) (status, errorType string) {
	switch {
	case err == nil:
		return statusSuccess, ""
	case errors.Is(err, circulation.ErrConcurrencyConflict):
		return statusConflict, errorTypeConcurrency
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return statusError, errorTypeCanceled
	}

	for _, businessErr := range businessErrors {
		if errors.Is(err, businessErr) {
			return statusRejected, errorTypeBusiness
		}
	}

	return statusError, errorTypeDatabase
}

// logQueryWithDuration logs SQL statements with execution time at debug level if a logger is configured.
func (s *Store) logQueryWithDuration(ctx context.Context, sqlQuery, action string, duration time.Duration) {
	args := []any{logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery}

	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+action, args...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, args...)
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (s *Store) logOperation(ctx context.Context, action string, args ...any) {
	if s.logger != nil {
		s.logger.Info(logMsgOperation+action, args...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

// logWarn logs non-critical failures at warn level if a logger is configured.
func (s *Store) logWarn(ctx context.Context, message string, err error) {
	if s.logger != nil {
		s.logger.Warn(message, logAttrError, err.Error())
	}

	if s.contextualLogger != nil {
		s.contextualLogger.WarnContext(ctx, message, logAttrError, err.Error())
	}
}

// logError logs error information at the error level if a logger is configured.
func (s *Store) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if s.logger != nil {
		s.logger.Error(message, allArgs...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// closeRows closes database rows and logs any errors.
func (s *Store) closeRows(ctx context.Context, rows adapters.DBRows) {
	if err := rows.Close(); err != nil {
		s.logWarn(ctx, logMsgCloseRowsFailed, err)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// recordDuration records a duration metric, with context if the collector supports it.
func (s *Store) recordDuration(ctx context.Context, metric string, duration time.Duration, operation, status string) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{spanAttrOperation: operation, labelStatus: status}

	if contextual, ok := s.metricsCollector.(circulation.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	s.metricsCollector.RecordDuration(metric, duration, labels)
}

// incrementCounter increments a counter metric, with context if the collector supports it.
func (s *Store) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if s.metricsCollector == nil {
		return
	}

	if contextual, ok := s.metricsCollector.(circulation.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	s.metricsCollector.IncrementCounter(metric, labels)
}

// recordDatabaseError counts a failed statement.
func (s *Store) recordDatabaseError(ctx context.Context, operation string) {
	s.incrementCounter(ctx, metricDatabaseErrors, map[string]string{
		spanAttrOperation: operation,
		labelStatus:       statusError,
		spanAttrErrorType: errorTypeDatabase,
	})
}

// recordConcurrencyConflict counts a unit of work that lost a race.
func (s *Store) recordConcurrencyConflict(ctx context.Context, operation string) {
	s.incrementCounter(ctx, metricConcurrencyConflicts, map[string]string{
		spanAttrOperation: operation,
		labelConflictType: "concurrency",
	})
}

// === Unit of work observers ===

// unitTracingObserver encapsulates the tracing span lifecycle of one unit of work.
type unitTracingObserver struct {
	store *Store
	span  circulation.SpanContext
}

// startUnitTracing opens a span for a unit of work if a tracing collector is configured.
func (s *Store) startUnitTracing(ctx context.Context) (*unitTracingObserver, context.Context) {
	observer := &unitTracingObserver{store: s}

	if s.tracingCollector == nil {
		return observer, ctx
	}

	ctx, observer.span = s.tracingCollector.StartSpan(ctx, spanNameUnitOfWork, map[string]string{
		spanAttrOperation: actionUnitOfWork,
		spanAttrDialect:   s.dialect,
	})

	return observer, ctx
}

func (o *unitTracingObserver) finish(status, errorType string, duration time.Duration) {
	if o.span == nil {
		return
	}

	attrs := map[string]string{
		spanAttrDurationMS: strconv.FormatFloat(toMilliseconds(duration), 'f', 2, 64),
	}

	if errorType != "" {
		attrs[spanAttrErrorType] = errorType
	}

	o.store.tracingCollector.FinishSpan(o.span, status, attrs)
}

// unitMetricsObserver encapsulates the metrics collection of one unit of work.
type unitMetricsObserver struct {
	store *Store
	ctx   context.Context
}

func (s *Store) startUnitMetrics(ctx context.Context) *unitMetricsObserver {
	return &unitMetricsObserver{store: s, ctx: ctx}
}

func (o *unitMetricsObserver) record(status, errorType string, duration time.Duration) {
	o.store.recordDuration(o.ctx, metricUnitDuration, duration, actionUnitOfWork, status)

	switch errorType {
	case errorTypeConcurrency:
		o.store.recordConcurrencyConflict(o.ctx, actionUnitOfWork)
	case errorTypeDatabase:
		o.store.recordDatabaseError(o.ctx, actionUnitOfWork)
	}
}

// finishUnit records the outcome of a unit of work on all configured observers.
func (s *Store) finishUnit(
	ctx context.Context,
	tracing *unitTracingObserver,
	metrics *unitMetricsObserver,
	err error,
	duration time.Duration,
) {
	status, errorType := classify(err)

	if errorType == errorTypeConcurrency {
		s.logOperation(ctx, logMsgConcurrencyConflict, logAttrDurationMS, toMilliseconds(duration))
	}

	tracing.finish(status, errorType, duration)
	metrics.record(status, errorType, duration)
}
