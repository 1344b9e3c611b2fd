package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/config"
)

// Telemetry records audit and discovery activity. A noop implementation is
// returned when telemetry is disabled so callers never branch.
type Telemetry interface {
	Tracer() trace.Tracer
	RecordAudit(ctx context.Context, domain string, criticalIssues int, duration time.Duration)
	RecordDiscovery(ctx context.Context, query string, found int, duration time.Duration)
	Shutdown(ctx context.Context) error
}

type telemetry struct {
	tracer         trace.Tracer
	meter          metric.Meter
	tracerProvider *sdktrace.TracerProvider

	auditCounter      metric.Int64Counter
	auditDuration     metric.Float64Histogram
	discoveryCounter  metric.Int64Counter
	discoveryDuration metric.Float64Histogram
}

func New(ctx context.Context, cfg config.TelemetryConfig) (Telemetry, error) {
	if !cfg.Enabled {
		return &noopTelemetry{}, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdktrace.SpanExporter

	switch cfg.ExporterType {
	case "otlp":
		client := otlptracehttp.NewClient(
			otlptracehttp.WithEndpoint(cfg.Endpoint),
			otlptracehttp.WithInsecure(),
		)
		exp, err := otlptrace.New(ctx, client)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		exporter = exp
	default:
		return &noopTelemetry{}, nil
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRate)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	meter := otel.Meter(cfg.ServiceName)

	t := &telemetry{
		tracer:         tp.Tracer(cfg.ServiceName),
		meter:          meter,
		tracerProvider: tp,
	}

	if t.auditCounter, err = meter.Int64Counter("siteaudit.audits.total"); err != nil {
		return nil, err
	}
	if t.auditDuration, err = meter.Float64Histogram("siteaudit.audit.duration_seconds"); err != nil {
		return nil, err
	}
	if t.discoveryCounter, err = meter.Int64Counter("siteaudit.discoveries.total"); err != nil {
		return nil, err
	}
	if t.discoveryDuration, err = meter.Float64Histogram("siteaudit.discovery.duration_seconds"); err != nil {
		return nil, err
	}

	return t, nil
}

func (t *telemetry) Tracer() trace.Tracer { return t.tracer }

func (t *telemetry) RecordAudit(ctx context.Context, domain string, criticalIssues int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("domain", domain),
		attribute.Int("critical_issues", criticalIssues),
	)
	t.auditCounter.Add(ctx, 1, attrs)
	t.auditDuration.Record(ctx, duration.Seconds(), attrs)
}

func (t *telemetry) RecordDiscovery(ctx context.Context, query string, found int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("query", query),
		attribute.Int("domains_found", found),
	)
	t.discoveryCounter.Add(ctx, 1, attrs)
	t.discoveryDuration.Record(ctx, duration.Seconds(), attrs)
}

func (t *telemetry) Shutdown(ctx context.Context) error {
	return t.tracerProvider.Shutdown(ctx)
}

type noopTelemetry struct{}

func (n *noopTelemetry) Tracer() trace.Tracer { return otel.Tracer("siteaudit/noop") }

func (n *noopTelemetry) RecordAudit(context.Context, string, int, time.Duration)     {}
func (n *noopTelemetry) RecordDiscovery(context.Context, string, int, time.Duration) {}

func (n *noopTelemetry) Shutdown(context.Context) error { return nil }
