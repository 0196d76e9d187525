package config

import (
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	envAppEnv            = "APP_ENV"
	envAppServiceName    = "APP_SERVICE_NAME"
	envAppServiceVersion = "APP_SERVICE_VERSION"
)

const (
	defaultServiceName    = "product-sync"
	defaultServiceVersion = "dev"
)

// AppConfig describes the running service.
type AppConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    Environment
}

// Environment is the deployment environment.
type Environment string

const (
	EnvLocal      Environment = "local"
	EnvDev        Environment = "dev"
	EnvProduction Environment = "pro"
)

func (e Environment) IsValid() bool {
	switch e {
	case EnvLocal, EnvDev, EnvProduction:
		return true
	}
	return false
}

func (e Environment) String() string {
	return string(e)
}

// NewAppConfigModule provides AppConfig. When cfg is nil it is read from the
// environment, otherwise the given value is supplied as is.
func NewAppConfigModule(cfg *AppConfig) fx.Option {
	provide := fx.Provide(LoadAppConfig)
	if cfg != nil {
		provide = fx.Supply(*cfg)
	}
	return fx.Module("appconfig",
		provide,
		fx.Invoke(func(log *zap.Logger, conf AppConfig) {
			log.Info("application configuration loaded",
				zap.String("service", conf.ServiceName),
				zap.String("version", conf.ServiceVersion),
				zap.Stringer("environment", conf.Environment),
			)
		}),
	)
}

// LoadAppConfig reads AppConfig from APP_* environment variables.
// Name and version fall back to defaults; APP_ENV must be valid when set.
func LoadAppConfig() (AppConfig, error) {
	env := Environment(os.Getenv(envAppEnv))
	if env == "" {
		env = EnvLocal
	}
	if !env.IsValid() {
		return AppConfig{}, &InvalidValueError{Key: envAppEnv, Value: string(env)}
	}

	return AppConfig{
		ServiceName:    getenv(envAppServiceName, defaultServiceName),
		ServiceVersion: getenv(envAppServiceVersion, defaultServiceVersion),
		Environment:    env,
	}, nil
}

// InvalidValueError reports a setting that is present but unusable.
type InvalidValueError struct {
	Key   string
	Value string
}

func (e *InvalidValueError) Error() string {
	return "invalid value for " + e.Key + ": " + e.Value
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
