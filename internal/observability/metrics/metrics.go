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
	sessionsStarted  metric.Int64Counter
	sessionsClosed   metric.Int64Counter
	shiftsClosed     metric.Int64Counter
	billsCreated     metric.Int64Counter
	rateLimitDenied  metric.Int64Counter
	chargeMinor      metric.Int64Counter
	varianceAbsMinor metric.Int64Counter
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
		name = "baize"
	}
	meter := provider.Meter(name)

	sessionsStarted, err := meter.Int64Counter("baize_sessions_started_total")
	if err != nil {
		return nil, err
	}
	sessionsClosed, err := meter.Int64Counter("baize_sessions_closed_total")
	if err != nil {
		return nil, err
	}
	shiftsClosed, err := meter.Int64Counter("baize_shifts_closed_total")
	if err != nil {
		return nil, err
	}
	billsCreated, err := meter.Int64Counter("baize_bills_created_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("baize_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}
	chargeMinor, err := meter.Int64Counter("baize_table_charge_minor_total")
	if err != nil {
		return nil, err
	}
	varianceAbsMinor, err := meter.Int64Counter("baize_shift_variance_abs_minor_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		sessionsStarted:  sessionsStarted,
		sessionsClosed:   sessionsClosed,
		shiftsClosed:     shiftsClosed,
		billsCreated:     billsCreated,
		rateLimitDenied:  rateLimitDenied,
		chargeMinor:      chargeMinor,
		varianceAbsMinor: varianceAbsMinor,
	}, nil
}

// RecordSessionStarted increments session start counts per table type.
func (m *Metrics) RecordSessionStarted(ctx context.Context, tableType string) {
	if m == nil {
		return
	}
	m.sessionsStarted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("table_type", strings.TrimSpace(tableType)),
	))
}

// RecordSessionClosed increments close counts and accumulates charged amounts.
func (m *Metrics) RecordSessionClosed(ctx context.Context, tableType string, chargeMinor int64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("table_type", strings.TrimSpace(tableType)))
	m.sessionsClosed.Add(ctx, 1, attrs)
	if chargeMinor > 0 {
		m.chargeMinor.Add(ctx, chargeMinor, attrs)
	}
}

// RecordShiftClosed increments shift close counts and accumulates absolute variance.
func (m *Metrics) RecordShiftClosed(ctx context.Context, register string, varianceMinor int64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("register", strings.TrimSpace(register)))
	m.shiftsClosed.Add(ctx, 1, attrs)
	if varianceMinor < 0 {
		varianceMinor = -varianceMinor
	}
	m.varianceAbsMinor.Add(ctx, varianceMinor, attrs)
}

// RecordBillCreated increments bill counts per payment method.
func (m *Metrics) RecordBillCreated(ctx context.Context, paymentMethod string) {
	if m == nil {
		return
	}
	m.billsCreated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("payment_method", strings.TrimSpace(paymentMethod)),
	))
}

// RecordRateLimitDenied increments deny counts per endpoint.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
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
