// Package kafka is a channel.Transport over Kafka, built on
// confluent-kafka-go.
package kafka

import (
	"context"
	"fmt"

	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/channel"
	confluent "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// Transport opens one producer per sender and one consumer per receiver.
type Transport struct {
	cfg         Config
	log         *zap.Logger
	newProducer func(*confluent.ConfigMap) (producerClient, error)
	newConsumer func(*confluent.ConfigMap) (consumerClient, error)
}

func NewTransport(cfg Config, log *zap.Logger) *Transport {
	return &Transport{
		cfg:         cfg,
		log:         log.With(zap.String("component", "kafka"), zap.String("topic", cfg.Topic)),
		newProducer: newConfluentProducer,
		newConsumer: newConfluentConsumer,
	}
}

func (t *Transport) Endpoint() channel.Endpoint {
	return channel.Endpoint{Namespace: t.cfg.Brokers, Entity: t.cfg.Topic}
}

func (t *Transport) OpenSender(context.Context) (channel.Sender, error) {
	p, err := t.newProducer(t.producerConfig())
	if err != nil {
		return nil, transportError(fmt.Errorf("failed to create producer: %w", err), t.Endpoint())
	}
	return newSender(p, t.cfg.Topic, t.Endpoint(), t.log), nil
}

func (t *Transport) OpenReceiver(_ context.Context, opts channel.ReceiverOptions) (channel.Receiver, error) {
	c, err := t.newConsumer(t.consumerConfig(opts))
	if err != nil {
		return nil, transportError(fmt.Errorf("failed to create consumer: %w", err), t.Endpoint())
	}

	p, err := t.newProducer(t.producerConfig())
	if err != nil {
		_ = c.Close()
		return nil, transportError(fmt.Errorf("failed to create dead-letter producer: %w", err), t.Endpoint())
	}
	dlqEndpoint := channel.Endpoint{Namespace: t.cfg.Brokers, Entity: t.cfg.DLQTopic}
	deadLetter := newSender(p, t.cfg.DLQTopic, dlqEndpoint, t.log)

	r := newReceiver(c, deadLetter, t.cfg, t.Endpoint(), t.log.With(zap.String("groupId", t.cfg.GroupID)))

	t.log.Info("subscribing to topic")
	if err := c.SubscribeTopics([]string{t.cfg.Topic}, r.onRebalance); err != nil {
		_ = r.Close()
		return nil, transportError(fmt.Errorf("failed to subscribe: %w", err), t.Endpoint())
	}
	return r, nil
}

func (t *Transport) producerConfig() *confluent.ConfigMap {
	return &confluent.ConfigMap{
		"bootstrap.servers": t.cfg.Brokers,
		"acks":              "all",
	}
}

func (t *Transport) consumerConfig(opts channel.ReceiverOptions) *confluent.ConfigMap {
	prefetch := opts.PrefetchCount
	if prefetch < 1 {
		prefetch = 1
	}
	return &confluent.ConfigMap{
		"bootstrap.servers":        t.cfg.Brokers,
		"group.id":                 t.cfg.GroupID,
		"enable.auto.commit":       true,
		"enable.auto.offset.store": false,
		"auto.commit.interval.ms":  int(t.cfg.CommitInterval.Milliseconds()),
		"auto.offset.reset":        t.cfg.AutoOffsetReset,
		"queued.min.messages":      prefetch,
	}
}

func newConfluentProducer(cm *confluent.ConfigMap) (producerClient, error) {
	p, err := confluent.NewProducer(cm)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func newConfluentConsumer(cm *confluent.ConfigMap) (consumerClient, error) {
	c, err := confluent.NewConsumer(cm)
	if err != nil {
		return nil, err
	}
	return c, nil
}
