// Package config holds OpenTelemetry settings.
package config

import (
	"time"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	DefaultMetricsInterval      = 10 * time.Second
	DefaultShutdownTimeout      = 5 * time.Second
	DefaultRuntimeStatsInterval = time.Second

	TracingComponentName = "tracing"
	MetricsComponentName = "metrics"
)

type Config struct {
	// OtelCollectorEndpoint is the OTLP gRPC endpoint. Empty keeps telemetry in process.
	OtelCollectorEndpoint string
	Tracing               TracingConfig
	Metrics               MetricsConfig
}

type TracingConfig struct {
	Enabled bool
	// SampleRatio is the share of root spans recorded, in [0, 1].
	SampleRatio float64
}

type MetricsConfig struct {
	Enabled  bool
	Interval time.Duration
}

// NewConfigModule provides Config from viper, or cfg when it is non-nil.
func NewConfigModule(cfg *Config) fx.Option {
	if cfg != nil {
		return fx.Supply(*cfg)
	}
	return fx.Provide(newConfig)
}

func newConfig(v *viper.Viper, log *zap.Logger) Config {
	v.SetDefault("observability.metrics.interval", DefaultMetricsInterval)
	v.SetDefault("observability.tracing.sample-ratio", 1.0)

	cfg := Config{
		OtelCollectorEndpoint: v.GetString("observability.otel-collector-endpoint"),
		Tracing: TracingConfig{
			Enabled:     v.GetBool("observability.tracing.enabled"),
			SampleRatio: v.GetFloat64("observability.tracing.sample-ratio"),
		},
		Metrics: MetricsConfig{
			Enabled:  v.GetBool("observability.metrics.enabled"),
			Interval: v.GetDuration("observability.metrics.interval"),
		},
	}
	if cfg.Metrics.Interval <= 0 {
		cfg.Metrics.Interval = DefaultMetricsInterval
	}
	cfg.Tracing.SampleRatio = min(max(cfg.Tracing.SampleRatio, 0), 1)

	log.Info("loaded observability config",
		zap.Bool("tracing", cfg.Tracing.Enabled),
		zap.Bool("metrics", cfg.Metrics.Enabled),
		zap.String("endpoint", cfg.OtelCollectorEndpoint),
	)
	return cfg
}
