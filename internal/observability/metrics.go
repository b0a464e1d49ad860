package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"gymdash/internal/config"
	"gymdash/internal/models"
	contextutils "gymdash/internal/utils"
)

func newResource(ctx context.Context, cfg *config.OpenTelemetryConfig) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otel resource: %w", err)
	}
	return res, nil
}

// InitMetrics initializes OpenTelemetry metrics
func InitMetrics(cfg *config.OpenTelemetryConfig) (result0 *metric.MeterProvider, err error) {
	ctx := context.Background()

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var exporter metric.Exporter
	switch cfg.Protocol {
	case "grpc":
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
			otlpmetricgrpc.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp grpc metric exporter: %w", err)
		}
		exporter = exp
	case "http":
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(cfg.Endpoint),
			otlpmetrichttp.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exp, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp http metric exporter: %w", err)
		}
		exporter = exp
	default:
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "unsupported otel protocol: %s", cfg.Protocol)
	}

	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter)),
		metric.WithResource(res),
	)
	return mp, nil
}

// LifecycleMetrics counts feature request lifecycle events.
type LifecycleMetrics struct {
	created     otelmetric.Int64Counter
	transitions otelmetric.Int64Counter
	overrides   otelmetric.Int64Counter
	slaOutcomes otelmetric.Int64Counter
	partials    otelmetric.Int64Counter
}

// NewLifecycleMetrics registers the counters on the global meter provider.
// When metrics are disabled the global provider is a no-op and so are the counters.
func NewLifecycleMetrics() (*LifecycleMetrics, error) {
	return NewLifecycleMetricsWithMeter(otel.Meter(TracerName))
}

// NewLifecycleMetricsWithMeter registers the counters on the given meter.
func NewLifecycleMetricsWithMeter(meter otelmetric.Meter) (*LifecycleMetrics, error) {
	m := &LifecycleMetrics{}
	var err error
	if m.created, err = meter.Int64Counter("feature_requests.created",
		otelmetric.WithDescription("Feature requests submitted")); err != nil {
		return nil, err
	}
	if m.transitions, err = meter.Int64Counter("feature_requests.transitions",
		otelmetric.WithDescription("Regular status transitions applied")); err != nil {
		return nil, err
	}
	if m.overrides, err = meter.Int64Counter("feature_requests.overrides",
		otelmetric.WithDescription("Staff status overrides applied")); err != nil {
		return nil, err
	}
	if m.slaOutcomes, err = meter.Int64Counter("feature_requests.sla_outcomes",
		otelmetric.WithDescription("Requests reaching a terminal state, by whether the SLA was met")); err != nil {
		return nil, err
	}
	if m.partials, err = meter.Int64Counter("feature_requests.partial_failures",
		otelmetric.WithDescription("Requests created without their initial comment")); err != nil {
		return nil, err
	}
	return m, nil
}

// RequestCreated counts a submission.
func (m *LifecycleMetrics) RequestCreated(ctx context.Context, category models.Category, priority models.Priority) {
	if m == nil {
		return
	}
	m.created.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("category", string(category)),
		attribute.String("priority", string(priority)),
	))
}

// StatusChanged counts a transition or override.
func (m *LifecycleMetrics) StatusChanged(ctx context.Context, kind models.EventKind, from, to models.Status) {
	if m == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("from", string(from)),
		attribute.String("to", string(to)),
	)
	switch kind {
	case models.EventKindOverride:
		m.overrides.Add(ctx, 1, attrs)
	case models.EventKindTransition:
		m.transitions.Add(ctx, 1, attrs)
	}
}

// SLAOutcome counts a terminal request by outcome.
func (m *LifecycleMetrics) SLAOutcome(ctx context.Context, priority models.Priority, met bool) {
	if m == nil {
		return
	}
	m.slaOutcomes.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("priority", string(priority)),
		attribute.Bool("met", met),
	))
}

// PartialFailure counts a request whose initial comment could not be stored.
func (m *LifecycleMetrics) PartialFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.partials.Add(ctx, 1)
}
