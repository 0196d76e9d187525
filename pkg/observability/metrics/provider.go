package metrics

import (
	"context"
	"fmt"

	appconfig "github.com/Sokol111/ecommerce-product-sync/pkg/core/config"
	otelconfig "github.com/Sokol111/ecommerce-product-sync/pkg/observability/config"
	otelinternal "github.com/Sokol111/ecommerce-product-sync/pkg/observability/internal"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

func newMeterProvider(ctx context.Context, log *zap.Logger, cfg otelconfig.Config, appCfg appconfig.AppConfig) (*sdkmetric.MeterProvider, error) {
	res, err := otelinternal.NewResource(ctx, appCfg)
	if err != nil {
		return nil, err
	}

	if cfg.OtelCollectorEndpoint == "" {
		log.Info("metrics: no collector endpoint, measurements stay in process")
		return sdkmetric.NewMeterProvider(sdkmetric.WithResource(res)), nil
	}

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OtelCollectorEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.Metrics.Interval))
	return sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader)), nil
}
