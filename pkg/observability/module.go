// Package observability wires tracing and metrics.
package observability

import (
	otelconfig "github.com/Sokol111/ecommerce-product-sync/pkg/observability/config"
	"github.com/Sokol111/ecommerce-product-sync/pkg/observability/metrics"
	"github.com/Sokol111/ecommerce-product-sync/pkg/observability/tracing"
	"go.uber.org/fx"
)

type options struct {
	cfg *otelconfig.Config
}

type Option func(*options)

// WithConfig supplies a fixed configuration.
func WithConfig(cfg otelconfig.Config) Option {
	return func(o *options) { o.cfg = &cfg }
}

func NewObservabilityModule(opts ...Option) fx.Option {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return fx.Options(
		otelconfig.NewConfigModule(o.cfg),
		tracing.NewTracingModule(),
		metrics.NewMetricsModule(),
	)
}
