package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/sandeepkv93/session-auth-service/internal/config"
)

const meterName = "session-auth-service"

type appMetrics struct {
	authRegister       metric.Int64Counter
	authLogin          metric.Int64Counter
	authRefresh        metric.Int64Counter
	authLogout         metric.Int64Counter
	tokenValidation    metric.Int64Counter
	rateLimitDecision  metric.Int64Counter
	repositoryOp       metric.Int64Counter
	readinessProbe     metric.Int64Counter
	readinessProbeTime metric.Float64Histogram
}

var (
	metricsOnce sync.Once
	metrics     *appMetrics
)

// instruments are bound to the global meter, which delegates to whatever provider InitMetrics installs later.
func instruments() *appMetrics {
	metricsOnce.Do(func() {
		meter := otel.Meter(meterName)
		m := &appMetrics{}
		m.authRegister, _ = meter.Int64Counter("auth.register.attempts")
		m.authLogin, _ = meter.Int64Counter("auth.login.attempts")
		m.authRefresh, _ = meter.Int64Counter("auth.refresh.attempts")
		m.authLogout, _ = meter.Int64Counter("auth.logout.attempts")
		m.tokenValidation, _ = meter.Int64Counter("auth.access_token.validations")
		m.rateLimitDecision, _ = meter.Int64Counter("http.rate_limit.decisions")
		m.repositoryOp, _ = meter.Int64Counter("repository.operations")
		m.readinessProbe, _ = meter.Int64Counter("health.readiness.probes")
		m.readinessProbeTime, _ = meter.Float64Histogram("health.readiness.probe.duration", metric.WithUnit("s"))
		metrics = m
	})
	return metrics
}

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}
	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp)
	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func newResource(ctx context.Context, cfg *config.Config) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("deployment.environment", cfg.OTELEnvironment),
		),
	)
}

func RecordAuthRegister(ctx context.Context, status string) {
	instruments().authRegister.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordAuthLogin(ctx context.Context, status string) {
	instruments().authLogin.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordAuthRefresh(ctx context.Context, status string) {
	instruments().authRefresh.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordAuthLogout(ctx context.Context, status string) {
	instruments().authLogout.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordAccessTokenValidation(ctx context.Context, outcome, source string) {
	instruments().tokenValidation.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("source", source),
	))
}

func RecordRateLimitDecision(ctx context.Context, scope, decision, mode, keyType string) {
	instruments().rateLimitDecision.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("decision", decision),
		attribute.String("mode", mode),
		attribute.String("key_type", keyType),
	))
}

func RecordRepositoryOperation(ctx context.Context, entity, operation, outcome string) {
	instruments().repositoryOp.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordReadinessProbe(ctx context.Context, name string, healthy bool, elapsed time.Duration) {
	m := instruments()
	attrs := metric.WithAttributes(
		attribute.String("check", name),
		attribute.Bool("healthy", healthy),
	)
	m.readinessProbe.Add(ctx, 1, attrs)
	m.readinessProbeTime.Record(ctx, elapsed.Seconds(), attrs)
}
