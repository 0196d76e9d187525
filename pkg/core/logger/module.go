package logger

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewZapLoggingModule provides the process *zap.Logger and routes fx events
// through it. A non-nil cfg replaces the viper-based configuration.
func NewZapLoggingModule(cfg *Config) fx.Option {
	provideConfig := fx.Provide(newConfig)
	if cfg != nil {
		provideConfig = fx.Provide(func(*viper.Viper) Config { return *cfg })
	}
	return fx.Options(
		provideConfig,
		fx.Provide(provideLogger),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)
}

func provideLogger(lc fx.Lifecycle, cfg Config) (*zap.Logger, error) {
	log, err := New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			// stderr/stdout can't be synced on most terminals
			if err := log.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) && !errors.Is(err, syscall.ENOTTY) {
				return err
			}
			return nil
		},
	})
	return log, nil
}
