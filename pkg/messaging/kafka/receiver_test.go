package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/channel"
	confluent "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testTopic = "products"

func testConfig() Config {
	return Config{
		Brokers:          "localhost:9092",
		Topic:            testTopic,
		GroupID:          "product-sync",
		AutoOffsetReset:  "earliest",
		DLQTopic:         testTopic + ".dlq",
		MaxDeliveryCount: 3,
		Redelivery:       BackoffConfig{Initial: time.Millisecond, Max: 5 * time.Millisecond},
		PollTimeout:      time.Millisecond,
		CommitInterval:   time.Second,
	}
}

func newTestReceiver(cfg Config, records ...*confluent.Message) (*receiver, *fakeConsumer, *fakeProducer) {
	c := &fakeConsumer{records: records}
	p := &fakeProducer{}
	endpoint := channel.Endpoint{Namespace: cfg.Brokers, Entity: cfg.Topic}
	dlq := newSender(p, cfg.DLQTopic, endpoint, zap.NewNop())
	return newReceiver(c, dlq, cfg, endpoint, zap.NewNop()), c, p
}

func mustReceive(t *testing.T, r *receiver) channel.Delivery {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), time.Second)
	defer cancel()
	d, err := r.Receive(ctx)
	require.NoError(t, err)
	return d
}

func TestReceiver_ConvertsRecords(t *testing.T) {
	r, _, _ := newTestReceiver(testConfig(), record(testTopic, 0, 5, "msg-1"))

	d := mustReceive(t, r)
	msg := d.Message()
	assert.Equal(t, "msg-1", msg.ID)
	assert.Equal(t, "42", msg.Key)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, map[string]string{"event-type": "ProductCreatedEvent"}, msg.Headers)
	assert.Equal(t, 1, d.DeliveryCount())
}

func TestReceiver_StoresOffsetsBehindWatermark(t *testing.T) {
	r, c, _ := newTestReceiver(testConfig(),
		record(testTopic, 0, 0, "a"),
		record(testTopic, 0, 1, "b"),
		record(testTopic, 0, 2, "c"),
	)
	a, b, cc := mustReceive(t, r), mustReceive(t, r), mustReceive(t, r)

	require.NoError(t, cc.Complete(t.Context()))
	assert.Empty(t, c.storedOffsets())

	require.NoError(t, a.Complete(t.Context()))
	assert.Equal(t, []int64{1}, c.storedOffsets())

	require.NoError(t, b.Complete(t.Context()))
	assert.Equal(t, []int64{1, 3}, c.storedOffsets())
}

func TestReceiver_AbandonRedeliversWithIncrementedCount(t *testing.T) {
	r, c, _ := newTestReceiver(testConfig(), record(testTopic, 0, 0, "a"))

	first := mustReceive(t, r)
	require.NoError(t, first.Abandon(t.Context(), errors.New("not found")))

	second := mustReceive(t, r)
	assert.Equal(t, "a", second.Message().ID)
	assert.Equal(t, 2, second.DeliveryCount())
	assert.Empty(t, c.storedOffsets(), "abandoned message holds the watermark")

	require.NoError(t, second.Complete(t.Context()))
	assert.Equal(t, []int64{1}, c.storedOffsets())
}

func TestReceiver_SettlesOnce(t *testing.T) {
	r, c, _ := newTestReceiver(testConfig(), record(testTopic, 0, 0, "a"))

	d := mustReceive(t, r)
	require.NoError(t, d.Complete(t.Context()))
	require.NoError(t, d.Abandon(t.Context(), errors.New("late")))

	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Millisecond)
	defer cancel()
	_, err := r.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "completed message must not be redelivered")
	assert.Equal(t, []int64{1}, c.storedOffsets())
}

func TestReceiver_DeadLettersAfterMaxDeliveries(t *testing.T) {
	cfg := testConfig()
	r, c, p := newTestReceiver(cfg, record(testTopic, 2, 7, "a"))

	var d channel.Delivery
	for i := 1; i <= cfg.MaxDeliveryCount; i++ {
		d = mustReceive(t, r)
		assert.Equal(t, i, d.DeliveryCount())
		require.NoError(t, d.Abandon(t.Context(), errors.New("store unavailable")))
	}

	produced := p.messages()
	require.Len(t, produced, 1)
	dl := produced[0]
	assert.Equal(t, cfg.DLQTopic, *dl.TopicPartition.Topic)
	assert.Equal(t, []byte("42"), dl.Key)

	headers := map[string]string{}
	for _, h := range dl.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, testTopic, headers[headerDLQTopic])
	assert.Equal(t, "2", headers[headerDLQPartition])
	assert.Equal(t, "7", headers[headerDLQOffset])
	assert.Equal(t, "store unavailable", headers[headerDLQError])
	assert.Equal(t, "3", headers[headerDLQDeliveryCount])
	assert.Equal(t, "a", headers[headerMessageID])
	assert.NotEmpty(t, headers[headerDLQTimestamp])

	assert.Equal(t, []int64{8}, c.storedOffsets(), "dead-lettered message is completed")
}

func TestReceiver_DeadLetterFailureKeepsMessage(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDeliveryCount = 1
	r, c, p := newTestReceiver(cfg, record(testTopic, 0, 0, "a"))
	p.failWith = confluent.NewError(confluent.ErrMsgSizeTooLarge, "too large", false)

	d := mustReceive(t, r)
	assert.Error(t, d.Abandon(t.Context(), errors.New("boom")))
	assert.Empty(t, c.storedOffsets())

	again := mustReceive(t, r)
	assert.Equal(t, 2, again.DeliveryCount())
}

func TestReceiver_RevokedPartitionIsNotRedelivered(t *testing.T) {
	r, c, _ := newTestReceiver(testConfig(), record(testTopic, 1, 0, "a"))

	d := mustReceive(t, r)
	topic := testTopic
	require.NoError(t, r.onRebalance(nil, confluent.RevokedPartitions{
		Partitions: []confluent.TopicPartition{{Topic: &topic, Partition: 1}},
	}))

	require.NoError(t, d.Abandon(t.Context(), errors.New("late")))

	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Millisecond)
	defer cancel()
	_, err := r.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, c.storedOffsets())
}

func TestReceiver_ReadErrorsAreTransportErrors(t *testing.T) {
	r, c, _ := newTestReceiver(testConfig())
	c.readErrs = []error{confluent.NewError(confluent.ErrAllBrokersDown, "all brokers down", false)}

	_, err := r.Receive(t.Context())

	var te *channel.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, channel.ReasonBrokerConnection, te.Reason)
	assert.Equal(t, testTopic, te.Endpoint.Entity)
}

func TestReceiver_Close(t *testing.T) {
	r, c, p := newTestReceiver(testConfig(), record(testTopic, 0, 0, "a"))
	d := mustReceive(t, r)
	require.NoError(t, d.Abandon(t.Context(), errors.New("retry")))

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	_, err := r.Receive(t.Context())
	assert.ErrorIs(t, err, channel.ErrClosed)
	assert.True(t, c.closed)
	assert.Equal(t, 1, c.commits)
	assert.True(t, p.closed)
}

func TestRedeliveryDelay(t *testing.T) {
	cfg := BackoffConfig{Initial: 100 * time.Millisecond, Max: 400 * time.Millisecond}

	first := redeliveryDelay(cfg, 1)
	assert.GreaterOrEqual(t, first, 50*time.Millisecond)
	assert.LessOrEqual(t, first, 150*time.Millisecond)

	late := redeliveryDelay(cfg, 20)
	assert.LessOrEqual(t, late, 600*time.Millisecond)
	assert.GreaterOrEqual(t, late, 200*time.Millisecond)
}
