package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry bundles the tracer, meter and the service-level counters.
type Telemetry struct {
	Tracer trace.Tracer
	Meter  metric.Meter

	MessagesProcessed metric.Int64Counter
	SessionsCreated   metric.Int64Counter
	AdvisoryQueries   metric.Int64Counter

	shutdown func()
}

// Init initializes OpenTelemetry tracing and metrics with stdout exporters.
func Init(ctx context.Context) (*Telemetry, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName("sokolink-advisor"),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	traceExporter, err := stdouttrace.New(
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	metricExporter, err := stdoutmetric.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				metricExporter,
				sdkmetric.WithInterval(30*time.Second),
			),
		),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	t := &Telemetry{
		Tracer: tp.Tracer("sokolink-advisor"),
		Meter:  mp.Meter("sokolink-advisor"),
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			tp.Shutdown(ctx)
			mp.Shutdown(ctx)
		},
	}

	if err := t.initCounters(); err != nil {
		return nil, err
	}

	return t, nil
}

// Noop returns a Telemetry backed by the global no-op providers, for tests
// and for callers that run without exporters.
func Noop() *Telemetry {
	t := &Telemetry{
		Tracer:   trace.NewNoopTracerProvider().Tracer("sokolink-advisor"),
		Meter:    otel.GetMeterProvider().Meter("sokolink-advisor-noop"),
		shutdown: func() {},
	}
	// Counter creation on a no-op meter cannot fail.
	_ = t.initCounters()
	return t
}

func (t *Telemetry) initCounters() error {
	var err error

	t.MessagesProcessed, err = t.Meter.Int64Counter("webhook.messages.processed",
		metric.WithDescription("Inbound WhatsApp messages processed"))
	if err != nil {
		return fmt.Errorf("failed to create counter: %w", err)
	}

	t.SessionsCreated, err = t.Meter.Int64Counter("sessions.created",
		metric.WithDescription("Sessions created"))
	if err != nil {
		return fmt.Errorf("failed to create counter: %w", err)
	}

	t.AdvisoryQueries, err = t.Meter.Int64Counter("advisory.queries",
		metric.WithDescription("Advisory queries executed"))
	if err != nil {
		return fmt.Errorf("failed to create counter: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the providers.
func (t *Telemetry) Shutdown() {
	t.shutdown()
}
