package kafka

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sokol111/ecommerce-product-sync/pkg/core/config"
	"github.com/spf13/viper"
)

const (
	// Default values.
	defaultAutoOffsetReset   = "earliest"
	defaultMaxDeliveryCount  = 10
	defaultRedeliveryInitial = 1 * time.Second
	defaultRedeliveryMax     = 1 * time.Minute
	defaultPollTimeout       = 100 * time.Millisecond
	defaultReadinessTimeout  = 60 * time.Second
	defaultCommitInterval    = 3 * time.Second

	// Validation bounds.
	maxMaxDeliveryCount = 1000
	maxReadinessTimeout = 10 * time.Minute
)

// Config represents the Kafka transport configuration.
type Config struct {
	Brokers          string        // Comma-separated bootstrap servers (required)
	Topic            string        // Topic events are published to and consumed from (required)
	GroupID          string        // Consumer group ID (required)
	AutoOffsetReset  string        // "earliest" or "latest"
	DLQTopic         string        // Dead-letter topic, defaults to "{topic}.dlq"
	MaxDeliveryCount int           // Deliveries before a message is dead-lettered
	Redelivery       BackoffConfig // Delay before an abandoned message is delivered again
	PollTimeout      time.Duration // Upper bound of one broker poll inside Receive
	CommitInterval   time.Duration // auto.commit.interval.ms
	ReadinessTimeout time.Duration // Time to wait for the topic at startup (0 = no wait)
	FailOnTopicError bool          // Whether a missing topic fails startup
}

type BackoffConfig struct {
	Initial time.Duration
	Max     time.Duration
}

// newConfig reads the kafka.* keys.
func newConfig(v *viper.Viper) (Config, error) {
	v.SetDefault("kafka.auto-offset-reset", defaultAutoOffsetReset)
	v.SetDefault("kafka.max-delivery-count", defaultMaxDeliveryCount)
	v.SetDefault("kafka.redelivery.initial", defaultRedeliveryInitial)
	v.SetDefault("kafka.redelivery.max", defaultRedeliveryMax)
	v.SetDefault("kafka.poll-timeout", defaultPollTimeout)
	v.SetDefault("kafka.commit-interval", defaultCommitInterval)
	v.SetDefault("kafka.readiness-timeout", defaultReadinessTimeout)

	cfg := Config{
		Brokers:          strings.TrimSpace(v.GetString("kafka.brokers")),
		Topic:            strings.TrimSpace(v.GetString("kafka.topic")),
		GroupID:          strings.TrimSpace(v.GetString("kafka.group-id")),
		AutoOffsetReset:  v.GetString("kafka.auto-offset-reset"),
		DLQTopic:         strings.TrimSpace(v.GetString("kafka.dlq-topic")),
		MaxDeliveryCount: v.GetInt("kafka.max-delivery-count"),
		Redelivery: BackoffConfig{
			Initial: v.GetDuration("kafka.redelivery.initial"),
			Max:     v.GetDuration("kafka.redelivery.max"),
		},
		PollTimeout:      v.GetDuration("kafka.poll-timeout"),
		CommitInterval:   v.GetDuration("kafka.commit-interval"),
		ReadinessTimeout: v.GetDuration("kafka.readiness-timeout"),
		FailOnTopicError: v.GetBool("kafka.fail-on-topic-error"),
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.DLQTopic == "" && cfg.Topic != "" {
		cfg.DLQTopic = cfg.Topic + ".dlq"
	}
	if cfg.MaxDeliveryCount == 0 {
		cfg.MaxDeliveryCount = defaultMaxDeliveryCount
	}
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = defaultPollTimeout
	}
	if cfg.CommitInterval == 0 {
		cfg.CommitInterval = defaultCommitInterval
	}
}

// Validate reports the first invalid setting. Absent brokers, topic or group
// are config.ErrConfigurationMissing.
func (c Config) Validate() error {
	if c.Brokers == "" {
		return config.Missing("kafka.brokers")
	}
	if c.Topic == "" {
		return config.Missing("kafka.topic")
	}
	if c.GroupID == "" {
		return config.Missing("kafka.group-id")
	}
	if c.AutoOffsetReset != "earliest" && c.AutoOffsetReset != "latest" {
		return fmt.Errorf("kafka.auto-offset-reset must be 'earliest' or 'latest', got: %s", c.AutoOffsetReset)
	}
	if c.DLQTopic == c.Topic {
		return fmt.Errorf("kafka.dlq-topic cannot be the same as kafka.topic")
	}
	if c.MaxDeliveryCount < 1 || c.MaxDeliveryCount > maxMaxDeliveryCount {
		return fmt.Errorf("kafka.max-delivery-count must be between 1 and %d, got: %d", maxMaxDeliveryCount, c.MaxDeliveryCount)
	}
	if c.Redelivery.Initial <= 0 || c.Redelivery.Max < c.Redelivery.Initial {
		return fmt.Errorf("invalid kafka.redelivery: initial %v, max %v", c.Redelivery.Initial, c.Redelivery.Max)
	}
	if c.PollTimeout < 0 {
		return fmt.Errorf("kafka.poll-timeout cannot be negative, got: %v", c.PollTimeout)
	}
	if c.ReadinessTimeout < 0 || c.ReadinessTimeout > maxReadinessTimeout {
		return fmt.Errorf("kafka.readiness-timeout must be between 0 and %v, got: %v", maxReadinessTimeout, c.ReadinessTimeout)
	}
	return nil
}
