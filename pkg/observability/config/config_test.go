package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := newConfig(viper.New(), zap.NewNop())
		assert.False(t, cfg.Tracing.Enabled)
		assert.Equal(t, DefaultMetricsInterval, cfg.Metrics.Interval)
		assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)
	})

	t.Run("sample ratio is clamped", func(t *testing.T) {
		v := viper.New()
		v.Set("observability.tracing.sample-ratio", 2.5)
		assert.Equal(t, 1.0, newConfig(v, zap.NewNop()).Tracing.SampleRatio)

		v.Set("observability.tracing.sample-ratio", -1)
		assert.Equal(t, 0.0, newConfig(v, zap.NewNop()).Tracing.SampleRatio)
	})

	t.Run("configured", func(t *testing.T) {
		v := viper.New()
		v.Set("observability.otel-collector-endpoint", "otel:4317")
		v.Set("observability.tracing.enabled", true)
		v.Set("observability.metrics.enabled", true)
		v.Set("observability.metrics.interval", "30s")

		cfg := newConfig(v, zap.NewNop())
		assert.Equal(t, "otel:4317", cfg.OtelCollectorEndpoint)
		assert.True(t, cfg.Tracing.Enabled)
		assert.True(t, cfg.Metrics.Enabled)
		assert.Equal(t, 30*time.Second, cfg.Metrics.Interval)
	})
}
