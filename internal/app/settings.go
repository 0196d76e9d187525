package app

import (
	"time"

	"github.com/Sokol111/ecommerce-product-sync/pkg/core/config"
	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/channel/memory"
	"github.com/Sokol111/ecommerce-product-sync/pkg/projection"
	"github.com/Sokol111/ecommerce-product-sync/pkg/projection/mongostore"
	"github.com/spf13/viper"
)

type TransportKind string

const (
	TransportKafka  TransportKind = "kafka"
	TransportMemory TransportKind = "memory"
)

type StoreKind string

const (
	StoreMongo  StoreKind = "mongo"
	StoreMemory StoreKind = "memory"
)

// Settings select the transport and projection store. They are read before
// the fx graph is built because they decide which modules it contains.
type Settings struct {
	Transport TransportKind
	Memory    MemorySettings
	Store     StoreKind
	// Collection is the Mongo collection holding projections.
	Collection string
	Retry      projection.RetryConfig
}

type MemorySettings struct {
	Entity           string
	MaxDeliveryCount int
	RedeliveryDelay  time.Duration
}

func LoadSettings(v *viper.Viper) (Settings, error) {
	retry := projection.DefaultRetryConfig()
	v.SetDefault("transport.kind", string(TransportMemory))
	v.SetDefault("transport.memory.entity", "products")
	v.SetDefault("transport.memory.max-delivery-count", memory.DefaultMaxDeliveryCount)
	v.SetDefault("transport.memory.redelivery-delay", time.Second)
	v.SetDefault("projection.store", string(StoreMemory))
	v.SetDefault("projection.collection", mongostore.DefaultCollection)
	v.SetDefault("projection.retry.initial-interval", retry.InitialInterval)
	v.SetDefault("projection.retry.max-interval", retry.MaxInterval)
	v.SetDefault("projection.retry.max-retries", retry.MaxRetries)

	s := Settings{
		Transport: TransportKind(v.GetString("transport.kind")),
		Memory: MemorySettings{
			Entity:           v.GetString("transport.memory.entity"),
			MaxDeliveryCount: v.GetInt("transport.memory.max-delivery-count"),
			RedeliveryDelay:  v.GetDuration("transport.memory.redelivery-delay"),
		},
		Store:      StoreKind(v.GetString("projection.store")),
		Collection: v.GetString("projection.collection"),
		Retry: projection.RetryConfig{
			InitialInterval: v.GetDuration("projection.retry.initial-interval"),
			MaxInterval:     v.GetDuration("projection.retry.max-interval"),
			MaxRetries:      v.GetUint64("projection.retry.max-retries"),
		},
	}
	return s, s.Validate()
}

func (s Settings) Validate() error {
	switch s.Transport {
	case TransportKafka:
	case TransportMemory:
		if s.Memory.Entity == "" {
			return config.Missing("transport.memory.entity")
		}
	default:
		return &config.InvalidValueError{Key: "transport.kind", Value: string(s.Transport)}
	}

	switch s.Store {
	case StoreMemory:
	case StoreMongo:
		if s.Collection == "" {
			return config.Missing("projection.collection")
		}
	default:
		return &config.InvalidValueError{Key: "projection.store", Value: string(s.Store)}
	}
	return nil
}
