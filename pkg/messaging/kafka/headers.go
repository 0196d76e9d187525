package kafka

import (
	"fmt"

	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/channel"
	confluent "github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

const (
	headerMessageID   = "message-id"
	headerContentType = "content-type"

	headerDLQTopic         = "dlq.original.topic"
	headerDLQPartition     = "dlq.original.partition"
	headerDLQOffset        = "dlq.original.offset"
	headerDLQError         = "dlq.error"
	headerDLQTimestamp     = "dlq.timestamp"
	headerDLQDeliveryCount = "dlq.delivery-count"
)

func toKafkaMessage(topic string, msg channel.Message) *confluent.Message {
	headers := make([]confluent.Header, 0, len(msg.Headers)+2)
	headers = append(headers,
		confluent.Header{Key: headerMessageID, Value: []byte(msg.ID)},
		confluent.Header{Key: headerContentType, Value: []byte(msg.ContentType)},
	)
	for k, v := range msg.Headers {
		headers = append(headers, confluent.Header{Key: k, Value: []byte(v)})
	}

	var key []byte
	if msg.Key != "" {
		key = []byte(msg.Key)
	}
	return &confluent.Message{
		TopicPartition: confluent.TopicPartition{Topic: &topic, Partition: confluent.PartitionAny},
		Key:            key,
		Value:          msg.Body,
		Headers:        headers,
	}
}

// fromKafkaMessage converts a consumed record. Records without a message-id
// header get one derived from their position.
func fromKafkaMessage(m *confluent.Message) channel.Message {
	msg := channel.Message{
		Key:     string(m.Key),
		Body:    m.Value,
		Headers: make(map[string]string, len(m.Headers)),
	}
	for _, h := range m.Headers {
		switch h.Key {
		case headerMessageID:
			msg.ID = string(h.Value)
		case headerContentType:
			msg.ContentType = string(h.Value)
		default:
			msg.Headers[h.Key] = string(h.Value)
		}
	}
	if msg.ID == "" {
		msg.ID = fmt.Sprintf("%s/%d/%d", topicName(m), m.TopicPartition.Partition, m.TopicPartition.Offset)
	}
	return msg
}

func topicName(m *confluent.Message) string {
	if m.TopicPartition.Topic == nil {
		return ""
	}
	return *m.TopicPartition.Topic
}
