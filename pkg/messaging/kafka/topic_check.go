package kafka

import (
	"context"
	"fmt"
	"time"

	confluent "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

const topicRetryInterval = 5 * time.Second

// metadataProvider is the interface for getting Kafka metadata.
type metadataProvider interface {
	GetMetadata(topic *string, allTopics bool, timeoutMs int) (*confluent.Metadata, error)
}

// waitForTopic polls metadata until topic exists with at least one
// partition or ctx is done.
func waitForTopic(ctx context.Context, p metadataProvider, topic string, log *zap.Logger) error {
	var lastErr error
	for {
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("%w: %v", ctx.Err(), lastErr)
			}
			return ctx.Err()
		default:
		}

		timeout := 5 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			if remaining := time.Until(deadline); remaining < timeout {
				timeout = remaining
			}
		}

		lastErr = checkTopic(p, topic, timeout)
		if lastErr == nil {
			log.Info("topic is ready", zap.String("topic", topic))
			return nil
		}
		log.Warn("topic not ready, retrying", zap.String("topic", topic), zap.Error(lastErr))
		sleep(ctx, topicRetryInterval)
	}
}

func checkTopic(p metadataProvider, topic string, timeout time.Duration) error {
	metadata, err := p.GetMetadata(&topic, false, int(timeout.Milliseconds()))
	if err != nil {
		return fmt.Errorf("failed to get topic metadata: %w", err)
	}

	topicMeta, ok := metadata.Topics[topic]
	if !ok {
		return fmt.Errorf("topic %s not found in metadata", topic)
	}
	if topicMeta.Error.Code() != confluent.ErrNoError {
		return fmt.Errorf("topic %s has error: %s", topic, topicMeta.Error.String())
	}
	if len(topicMeta.Partitions) == 0 {
		return fmt.Errorf("topic %s has no partitions", topic)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
