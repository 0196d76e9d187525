package publisher

import (
	"fmt"
	"time"

	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/envelope"
	"github.com/spf13/viper"
)

const DefaultTimeout = 10 * time.Second

type Config struct {
	// ContentType selects the envelope codec for outgoing messages.
	ContentType string
	// Timeout bounds one detached publish.
	Timeout time.Duration
}

func DefaultConfig() Config {
	return Config{ContentType: envelope.ContentTypeJSON, Timeout: DefaultTimeout}
}

func (c Config) Validate() error {
	if _, err := envelope.ForContentType(c.ContentType); err != nil {
		return fmt.Errorf("invalid publisher.content-type: %w", err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("publisher.timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// NewConfig reads the publisher.* keys.
func NewConfig(v *viper.Viper) (Config, error) {
	d := DefaultConfig()
	v.SetDefault("publisher.content-type", d.ContentType)
	v.SetDefault("publisher.timeout", d.Timeout)

	cfg := Config{
		ContentType: v.GetString("publisher.content-type"),
		Timeout:     v.GetDuration("publisher.timeout"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
