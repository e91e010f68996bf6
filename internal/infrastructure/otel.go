package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"salesdash/internal/config"
)

// MeterName is the instrumentation scope for every salesdash instrument.
const MeterName = "salesdash"

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// OTelConfigFrom maps the metrics section of the app config.
func OTelConfigFrom(cfg config.MetricsConfig) *OTelConfig {
	return &OTelConfig{
		ServiceName:    config.AppName,
		ServiceVersion: config.AppVersion,
		Environment:    cfg.Environment,
		TraceExporter:  cfg.TraceExporter,
		EnableMetrics:  cfg.Enabled,
		EnableTracing:  cfg.Tracing,
		SampleRatio:    cfg.SampleRatio,
	}
}

// InitializeOTel sets up the global tracer and meter providers. Disabled
// signals fall back to the otel no-op globals.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = OTelConfigFrom(config.Default().Metrics)
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx := context.Background()
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", instanceID()),
	)

	providers := &OTelProviders{Logger: logger}

	if cfg.EnableTracing && cfg.TraceExporter != "none" {
		if err := initializeTracing(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}
	if providers.Tracer == nil {
		providers.Tracer = otel.Tracer(MeterName)
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}
	if providers.Meter == nil {
		providers.Meter = otel.Meter(MeterName)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "OpenTelemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", providers.TracerProvider != nil),
		slog.Bool("metrics_enabled", providers.MeterProvider != nil))

	return providers, nil
}

func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	if cfg.TraceExporter != "stdout" {
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)
	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))
	return nil
}

func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	exporter, err := prometheus.New()
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
	providers.PrometheusHTTP = promhttp.Handler()
	otel.SetMeterProvider(mp)

	providers.Logger.InfoContext(ctx, "Metrics initialized", slog.String("exporter", "prometheus"))
	return nil
}

// Shutdown flushes and stops the providers that were started.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

// SalesMetrics holds the application instruments.
type SalesMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	RefreshesTotal    metric.Int64Counter
	RefreshDuration   metric.Float64Histogram
	RowsLoaded        metric.Int64Gauge
	RecomputesTotal   metric.Int64Counter
	RecomputeDuration metric.Float64Histogram
	RowsFiltered      metric.Int64Histogram

	WebSocketClients metric.Int64UpDownCounter
}

// NewSalesMetrics creates every instrument on meter.
func NewSalesMetrics(meter metric.Meter) (*SalesMetrics, error) {
	var (
		m   SalesMetrics
		err error
	)

	if m.HTTPRequestsTotal, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests")); err != nil {
		return nil, err
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter("http_active_requests",
		metric.WithDescription("Number of active HTTP requests")); err != nil {
		return nil, err
	}
	if m.RefreshesTotal, err = meter.Int64Counter("dataset_refreshes_total",
		metric.WithDescription("Dataset refreshes by outcome")); err != nil {
		return nil, err
	}
	if m.RefreshDuration, err = meter.Float64Histogram("dataset_refresh_duration_seconds",
		metric.WithDescription("Time to fetch, normalize and aggregate a dataset"), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.RowsLoaded, err = meter.Int64Gauge("dataset_rows",
		metric.WithDescription("Sales lines in the current snapshot")); err != nil {
		return nil, err
	}
	if m.RecomputesTotal, err = meter.Int64Counter("report_recomputes_total",
		metric.WithDescription("Report recomputations")); err != nil {
		return nil, err
	}
	if m.RecomputeDuration, err = meter.Float64Histogram("report_recompute_duration_seconds",
		metric.WithDescription("Filter and aggregate duration"), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.RowsFiltered, err = meter.Int64Histogram("report_rows_selected",
		metric.WithDescription("Rows selected by a report filter")); err != nil {
		return nil, err
	}
	if m.WebSocketClients, err = meter.Int64UpDownCounter("websocket_clients",
		metric.WithDescription("Connected websocket clients")); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordRefresh records one refresh attempt. It is a no-op on nil metrics.
func RecordRefresh(ctx context.Context, m *SalesMetrics, source string, rows int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", status),
	)
	m.RefreshesTotal.Add(ctx, 1, attrs)
	m.RefreshDuration.Record(ctx, duration.Seconds(), attrs)
	if err == nil {
		m.RowsLoaded.Record(ctx, int64(rows))
	}
}

// RecordRecompute records one filter plus aggregate pass.
func RecordRecompute(ctx context.Context, m *SalesMetrics, rows int, filtered bool, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("filtered", filtered))
	m.RecomputesTotal.Add(ctx, 1, attrs)
	m.RecomputeDuration.Record(ctx, duration.Seconds(), attrs)
	m.RowsFiltered.Record(ctx, int64(rows), attrs)
}

// TraceIDFromContext extracts the otel trace ID from context.
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

func instanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}
