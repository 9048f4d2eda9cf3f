package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	registrations metric.Int64Counter
	paymentEvents metric.Int64Counter
	mailQueued    metric.Int64Counter
	rateRefreshes metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "modoocon"
	}
	meter := provider.Meter(name)

	registrations, err := meter.Int64Counter("modoocon_registrations_total")
	if err != nil {
		return nil, err
	}
	paymentEvents, err := meter.Int64Counter("modoocon_payment_events_total")
	if err != nil {
		return nil, err
	}
	mailQueued, err := meter.Int64Counter("modoocon_mail_queued_total")
	if err != nil {
		return nil, err
	}
	rateRefreshes, err := meter.Int64Counter("modoocon_rate_refreshes_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		registrations: registrations,
		paymentEvents: paymentEvents,
		mailQueued:    mailQueued,
		rateRefreshes: rateRefreshes,
	}, nil
}

// RecordRegistration increments registration counts by outcome.
func (m *Metrics) RecordRegistration(ctx context.Context, outcome string) {
	if m == nil || m.registrations == nil {
		return
	}
	m.registrations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", strings.TrimSpace(outcome)),
	))
}

// RecordPaymentEvent increments payment event counts.
func (m *Metrics) RecordPaymentEvent(ctx context.Context, method, eventType string) {
	if m == nil || m.paymentEvents == nil {
		return
	}
	m.paymentEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", strings.TrimSpace(method)),
		attribute.String("event_type", strings.TrimSpace(eventType)),
	))
}

// RecordMailQueued increments queued mail counts by template kind.
func (m *Metrics) RecordMailQueued(ctx context.Context, kind string) {
	if m == nil || m.mailQueued == nil {
		return
	}
	m.mailQueued.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", strings.TrimSpace(kind)),
	))
}

// RecordRateRefresh increments exchange-rate refresh counts by outcome.
func (m *Metrics) RecordRateRefresh(ctx context.Context, outcome string) {
	if m == nil || m.rateRefreshes == nil {
		return
	}
	m.rateRefreshes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", strings.TrimSpace(outcome)),
	))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}
