package logger

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Config controls how the process logger is built.
type Config struct {
	Level           zapcore.Level
	Development     bool
	OutputPaths     []string
	StacktraceLevel zapcore.Level
}

// DefaultConfig is used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Level:           zapcore.InfoLevel,
		StacktraceLevel: zapcore.ErrorLevel,
	}
}

func newConfig(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()
	cfg.Development = v.GetBool("logger.development")
	cfg.OutputPaths = v.GetStringSlice("logger.output-paths")

	if raw := v.GetString("logger.level"); raw != "" {
		level, err := zapcore.ParseLevel(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid log level '%s': %w", raw, err)
		}
		cfg.Level = level
	}
	if raw := v.GetString("logger.stacktrace-level"); raw != "" {
		level, err := zapcore.ParseLevel(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid stacktrace level '%s': %w", raw, err)
		}
		cfg.StacktraceLevel = level
	}
	return cfg, nil
}
