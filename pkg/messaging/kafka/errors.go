package kafka

import (
	"errors"

	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/channel"
	confluent "github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// classify maps a librdkafka error to a transport fault reason.
func classify(err error) channel.Reason {
	var kafkaErr confluent.Error
	if !errors.As(err, &kafkaErr) {
		return channel.ReasonOther
	}

	if kafkaErr.IsTimeout() {
		return channel.ReasonTimeout
	}
	if kafkaErr.IsFatal() {
		return channel.ReasonFatal
	}

	switch kafkaErr.Code() {
	case confluent.ErrUnknownTopicOrPart, confluent.ErrUnknownTopic:
		return channel.ReasonEntityNotFound
	case confluent.ErrTransport, confluent.ErrAllBrokersDown, confluent.ErrNetworkException,
		confluent.ErrLeaderNotAvailable, confluent.ErrNotLeaderForPartition:
		return channel.ReasonBrokerConnection
	case confluent.ErrThrottlingQuotaExceeded:
		return channel.ReasonThrottled
	}

	if kafkaErr.IsRetriable() {
		return channel.ReasonThrottled
	}
	return channel.ReasonOther
}

// transportError wraps err with its classification.
func transportError(err error, endpoint channel.Endpoint) error {
	if err == nil {
		return nil
	}
	return channel.AsTransportError(err, classify(err), endpoint)
}
