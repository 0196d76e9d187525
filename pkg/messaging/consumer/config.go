package consumer

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultMaxConcurrentCalls = 5
	DefaultPrefetchCount      = 10
	DefaultProcessingTimeout  = 30 * time.Second
	DefaultSettleTimeout      = 10 * time.Second
	DefaultErrorLogInterval   = 5 * time.Minute
)

type Config struct {
	// MaxConcurrentCalls bounds handler executions in flight.
	MaxConcurrentCalls int
	// PrefetchCount is how many messages the receiver pulls ahead.
	PrefetchCount int
	// ProcessingTimeout bounds one message, decode to settlement.
	ProcessingTimeout time.Duration
	// ReceiveBackoff paces the loop after transport errors.
	ReceiveBackoff BackoffConfig
	// ErrorLogInterval is how often a repeating transport error is logged at WARN.
	ErrorLogInterval time.Duration
}

type BackoffConfig struct {
	Initial time.Duration
	Max     time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxConcurrentCalls: DefaultMaxConcurrentCalls,
		PrefetchCount:      DefaultPrefetchCount,
		ProcessingTimeout:  DefaultProcessingTimeout,
		ReceiveBackoff:     BackoffConfig{Initial: 200 * time.Millisecond, Max: 30 * time.Second},
		ErrorLogInterval:   DefaultErrorLogInterval,
	}
}

func (c Config) Validate() error {
	if c.MaxConcurrentCalls < 1 {
		return fmt.Errorf("consumer.max-concurrent-calls must be positive, got %d", c.MaxConcurrentCalls)
	}
	if c.PrefetchCount < 0 {
		return fmt.Errorf("consumer.prefetch-count must not be negative, got %d", c.PrefetchCount)
	}
	if c.ProcessingTimeout <= 0 {
		return fmt.Errorf("consumer.processing-timeout must be positive, got %s", c.ProcessingTimeout)
	}
	if c.ReceiveBackoff.Initial <= 0 || c.ReceiveBackoff.Max < c.ReceiveBackoff.Initial {
		return fmt.Errorf("invalid consumer.receive-backoff: initial %s, max %s", c.ReceiveBackoff.Initial, c.ReceiveBackoff.Max)
	}
	return nil
}

// NewConfig reads the consumer.* keys.
func NewConfig(v *viper.Viper) (Config, error) {
	d := DefaultConfig()
	v.SetDefault("consumer.max-concurrent-calls", d.MaxConcurrentCalls)
	v.SetDefault("consumer.prefetch-count", d.PrefetchCount)
	v.SetDefault("consumer.processing-timeout", d.ProcessingTimeout)
	v.SetDefault("consumer.receive-backoff.initial", d.ReceiveBackoff.Initial)
	v.SetDefault("consumer.receive-backoff.max", d.ReceiveBackoff.Max)
	v.SetDefault("consumer.error-log-interval", d.ErrorLogInterval)

	cfg := Config{
		MaxConcurrentCalls: v.GetInt("consumer.max-concurrent-calls"),
		PrefetchCount:      v.GetInt("consumer.prefetch-count"),
		ProcessingTimeout:  v.GetDuration("consumer.processing-timeout"),
		ReceiveBackoff: BackoffConfig{
			Initial: v.GetDuration("consumer.receive-backoff.initial"),
			Max:     v.GetDuration("consumer.receive-backoff.max"),
		},
		ErrorLogInterval: v.GetDuration("consumer.error-log-interval"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
