package tracing

import (
	"context"
	"fmt"

	appconfig "github.com/Sokol111/ecommerce-product-sync/pkg/core/config"
	otelconfig "github.com/Sokol111/ecommerce-product-sync/pkg/observability/config"
	otelinternal "github.com/Sokol111/ecommerce-product-sync/pkg/observability/internal"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// newTracerProvider exports spans over OTLP gRPC. Without a collector
// endpoint spans are sampled but never leave the process, which still gives
// consumers valid trace ids to log and propagate.
func newTracerProvider(ctx context.Context, log *zap.Logger, cfg otelconfig.Config, appCfg appconfig.AppConfig) (*sdktrace.TracerProvider, error) {
	res, err := otelinternal.NewResource(ctx, appCfg)
	if err != nil {
		return nil, err
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Tracing.SampleRatio))),
	}

	if cfg.OtelCollectorEndpoint == "" {
		log.Info("tracing: no collector endpoint, spans stay in process")
		return sdktrace.NewTracerProvider(opts...), nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OtelCollectorEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(append(opts, sdktrace.WithBatcher(exporter))...), nil
}
