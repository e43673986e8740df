package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/oteladapters"
)

// ServiceName identifies the process in telemetry.
const ServiceName = "library-circulation"

const (
	metricExportInterval = 15 * time.Second
	shutdownTimeout      = 5 * time.Second
)

// Observability bundles what the engine and the handlers are instrumented with.
// Metrics and Tracing are nil unless an OTLP endpoint is configured.
type Observability struct {
	Logger           *slog.Logger
	ContextualLogger circulation.ContextualLogger
	Metrics          circulation.ContextualMetricsCollector
	Tracing          circulation.TracingCollector

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

// NewObservability instruments the process. Without cfg.OTelEndpoint only logging is set up.
func NewObservability(ctx context.Context, cfg Config, logger *slog.Logger) (*Observability, error) {
	o := &Observability{
		Logger:           logger,
		ContextualLogger: oteladapters.NewSlogBridgeLoggerWithHandler(logger.Handler()),
	}

	if cfg.OTelEndpoint == "" {
		return o, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating otel resource: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(cfg.OTelEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating otlp trace exporter: %w", err)
	}

	metricExporter, err := otlpmetricgrpc.New(
		ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OTelEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating otlp metric exporter: %w", err)
	}

	o.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)

	o.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter,
			sdkmetric.WithInterval(metricExportInterval))),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(o.tracerProvider)
	otel.SetMeterProvider(o.meterProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	o.Tracing = oteladapters.NewTracingCollector(o.tracerProvider.Tracer(ServiceName))
	o.Metrics = oteladapters.NewMetricsCollector(o.meterProvider.Meter(ServiceName))

	logger.Info("opentelemetry enabled", "endpoint", cfg.OTelEndpoint)

	return o, nil
}

// Shutdown flushes and stops the providers. It is a no-op without OpenTelemetry.
func (o *Observability) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error

	if o.tracerProvider != nil {
		errs = append(errs, o.tracerProvider.Shutdown(ctx))
	}

	if o.meterProvider != nil {
		errs = append(errs, o.meterProvider.Shutdown(ctx))
	}

	return errors.Join(errs...)
}
