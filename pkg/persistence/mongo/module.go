package mongo

import (
	"context"

	"github.com/Sokol111/ecommerce-product-sync/pkg/core/health"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewMongoModule provides Mongo. A non-nil cfg replaces the viper configuration.
func NewMongoModule(cfg *Config) fx.Option {
	provideConfig := fx.Provide(newConfig)
	if cfg != nil {
		provideConfig = fx.Supply(*cfg)
	}
	return fx.Options(
		provideConfig,
		fx.Provide(provideMongo),
	)
}

func provideMongo(lc fx.Lifecycle, log *zap.Logger, conf Config, readiness health.ComponentManager) (Mongo, error) {
	c, err := newClient(log, conf)
	if err != nil {
		return nil, err
	}

	markReady := readiness.AddComponent("mongo")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := c.ping(ctx); err != nil {
				return err
			}
			markReady()
			return nil
		},
		OnStop: c.disconnect,
	})
	return c, nil
}
