package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const envConfigFile = "CONFIG_FILE"

// FilePath is the configuration file to read. Empty means none.
type FilePath string

// NewViperModule provides a *viper.Viper that reads the file named by path,
// or by CONFIG_FILE when path is empty, and lets environment variables
// override every key ("consumer.max-concurrent-calls" is overridden by
// CONSUMER_MAX_CONCURRENT_CALLS).
func NewViperModule(path string) fx.Option {
	if path == "" {
		path = os.Getenv(envConfigFile)
	}
	return fx.Module("viper",
		fx.Supply(FilePath(path)),
		fx.Provide(NewViper),
		fx.Invoke(logLoaded),
	)
}

// SupplyViperModule provides an already built viper, for callers that need
// the configuration before the application graph is assembled.
func SupplyViperModule(v *viper.Viper) fx.Option {
	return fx.Module("viper",
		fx.Supply(v),
		fx.Invoke(logLoaded),
	)
}

func logLoaded(log *zap.Logger, v *viper.Viper) {
	log.Info("configuration loaded",
		zap.String("configFile", v.ConfigFileUsed()),
		zap.Int("settingsCount", len(v.AllKeys())),
	)
}

// NewViper builds the viper instance used by every component config.
func NewViper(configFile FilePath) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if configFile == "" {
		return v, nil
	}

	v.SetConfigFile(string(configFile))
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file [%s]: %w", configFile, err)
	}
	return v, nil
}
