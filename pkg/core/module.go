// Package core assembles configuration, logging and readiness for an fx
// application.
package core

import (
	"time"

	"github.com/Sokol111/ecommerce-product-sync/pkg/core/config"
	"github.com/Sokol111/ecommerce-product-sync/pkg/core/health"
	"github.com/Sokol111/ecommerce-product-sync/pkg/core/logger"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

type coreOptions struct {
	appConfig    *config.AppConfig
	loggerConfig *logger.Config
	configFile   string
	viper        *viper.Viper
	dotEnvPath   string
	noDotEnv     bool
}

type Option func(*coreOptions)

// WithAppConfig supplies a fixed AppConfig instead of reading APP_* variables.
func WithAppConfig(cfg config.AppConfig) Option {
	return func(o *coreOptions) { o.appConfig = &cfg }
}

// WithLoggerConfig supplies a fixed logger configuration.
func WithLoggerConfig(cfg logger.Config) Option {
	return func(o *coreOptions) { o.loggerConfig = &cfg }
}

// WithConfigFile reads the given file instead of CONFIG_FILE.
func WithConfigFile(path string) Option {
	return func(o *coreOptions) { o.configFile = path }
}

// WithViper uses v instead of building a viper from the config file.
func WithViper(v *viper.Viper) Option {
	return func(o *coreOptions) { o.viper = v }
}

// WithEnvFile loads variables from path instead of .env.
func WithEnvFile(path string) Option {
	return func(o *coreOptions) { o.dotEnvPath = path }
}

// WithoutEnvFile skips loading .env.
func WithoutEnvFile() Option {
	return func(o *coreOptions) { o.noDotEnv = true }
}

func NewCoreModule(opts ...Option) fx.Option {
	o := &coreOptions{}
	for _, opt := range opts {
		opt(o)
	}

	dotEnv := fx.Options()
	if !o.noDotEnv {
		dotEnv = config.NewDotEnvModule(o.dotEnvPath)
	}

	viperModule := config.NewViperModule(o.configFile)
	if o.viper != nil {
		viperModule = config.SupplyViperModule(o.viper)
	}

	return fx.Options(
		fx.StartTimeout(time.Minute),
		fx.StopTimeout(time.Minute),
		dotEnv,
		viperModule,
		config.NewAppConfigModule(o.appConfig),
		logger.NewZapLoggingModule(o.loggerConfig),
		health.NewReadinessModule(),
	)
}
