package kafka

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/channel"
	confluent "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

const flushTimeoutMs = 5000

// producerClient is the subset of *kafka.Producer the transport uses.
type producerClient interface {
	Produce(msg *confluent.Message, deliveryChan chan confluent.Event) error
	Flush(timeoutMs int) int
	Close()
}

type sender struct {
	producer producerClient
	topic    string
	endpoint channel.Endpoint
	log      *zap.Logger
	closed   atomic.Bool
}

func newSender(producer producerClient, topic string, endpoint channel.Endpoint, log *zap.Logger) *sender {
	return &sender{producer: producer, topic: topic, endpoint: endpoint, log: log}
}

// Send produces msg and waits for its delivery report.
func (s *sender) Send(ctx context.Context, msg channel.Message) error {
	return s.produce(ctx, toKafkaMessage(s.topic, msg))
}

func (s *sender) produce(ctx context.Context, m *confluent.Message) error {
	if s.closed.Load() {
		return channel.ErrClosed
	}

	deliveryChan := make(chan confluent.Event, 1)
	if err := s.producer.Produce(m, deliveryChan); err != nil {
		return transportError(fmt.Errorf("failed to produce to %s: %w", s.topic, err), s.endpoint)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-deliveryChan:
		report, ok := e.(*confluent.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event %T", e)
		}
		if report.TopicPartition.Error != nil {
			return transportError(fmt.Errorf("failed to deliver to %s: %w", s.topic, report.TopicPartition.Error), s.endpoint)
		}
		return nil
	}
}

func (s *sender) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if remaining := s.producer.Flush(flushTimeoutMs); remaining > 0 {
		s.log.Warn("producer closed with undelivered messages", zap.Int("remaining", remaining))
	}
	s.producer.Close()
	return nil
}
