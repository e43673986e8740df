// Package testdoubles provides test doubles (spies) for the observability interfaces of package circulation.
//
//   - MetricsCollectorSpy: captures metrics recording calls for verification
//   - TracingCollectorSpy: captures started and finished spans
//   - ContextualLoggerSpy: captures context-aware log calls
//   - LogHandlerSpy: a slog.Handler that captures records, for *slog.Logger based loggers
//
// They allow testing observability instrumentation without a telemetry backend.
package testdoubles
