package kafka

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/channel"
	"github.com/cenkalti/backoff/v4"
	confluent "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// consumerClient is the subset of *kafka.Consumer the transport uses.
type consumerClient interface {
	SubscribeTopics(topics []string, rebalanceCb confluent.RebalanceCb) error
	ReadMessage(timeout time.Duration) (*confluent.Message, error)
	StoreOffsets(offsets []confluent.TopicPartition) ([]confluent.TopicPartition, error)
	Commit() ([]confluent.TopicPartition, error)
	Close() error
}

// receiver consumes one topic. Offsets are stored only behind the
// watermark of completed messages and committed by librdkafka's auto commit.
// Abandoned messages are redelivered locally after a backoff; once they
// exhaust their deliveries they go to the dead-letter topic.
type receiver struct {
	consumer   consumerClient
	deadLetter *sender
	tracker    *offsetTracker
	cfg        Config
	endpoint   channel.Endpoint
	log        *zap.Logger

	mu     sync.Mutex
	ready  []*delivery
	timers map[*time.Timer]struct{}
	closed bool
}

func newReceiver(consumer consumerClient, deadLetter *sender, cfg Config, endpoint channel.Endpoint, log *zap.Logger) *receiver {
	return &receiver{
		consumer:   consumer,
		deadLetter: deadLetter,
		tracker:    newOffsetTracker(),
		cfg:        cfg,
		endpoint:   endpoint,
		log:        log,
		timers:     make(map[*time.Timer]struct{}),
	}
}

// Receive returns the next due redelivery or the next record from the
// broker. Poll timeouts are not errors; Receive keeps polling until ctx is
// done.
func (r *receiver) Receive(ctx context.Context) (channel.Delivery, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, closed := r.nextRedelivery()
		if closed {
			return nil, channel.ErrClosed
		}
		if d != nil {
			return d, nil
		}

		m, err := r.consumer.ReadMessage(r.cfg.PollTimeout)
		if err != nil {
			if classify(err) == channel.ReasonTimeout {
				continue
			}
			return nil, transportError(err, r.endpoint)
		}

		pos := r.tracker.track(m.TopicPartition.Partition, int64(m.TopicPartition.Offset))
		return &delivery{r: r, raw: m, msg: fromKafkaMessage(m), pos: pos, count: 1}, nil
	}
}

func (r *receiver) nextRedelivery() (*delivery, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, true
	}
	for len(r.ready) > 0 {
		d := r.ready[0]
		r.ready = r.ready[1:]
		if r.tracker.owns(d.pos) {
			return d, false
		}
	}
	return nil, false
}

func (r *receiver) complete(pos position) error {
	next, ok := r.tracker.complete(pos)
	if !ok {
		return nil
	}
	topic := r.cfg.Topic
	_, err := r.consumer.StoreOffsets([]confluent.TopicPartition{{
		Topic:     &topic,
		Partition: pos.partition,
		Offset:    confluent.Offset(next),
	}})
	if err != nil {
		r.log.Error("failed to store offset",
			zap.Int32("partition", pos.partition),
			zap.Int64("offset", next),
			zap.Error(err))
		return transportError(err, r.endpoint)
	}
	return nil
}

func (r *receiver) abandon(ctx context.Context, d *delivery, reason error) error {
	if !r.tracker.owns(d.pos) {
		// The partition moved to another member, which resumes from the
		// committed offset and will see the message again.
		return nil
	}

	if d.count >= r.cfg.MaxDeliveryCount {
		if err := r.sendToDeadLetter(ctx, d, reason); err != nil {
			r.log.Error("failed to dead-letter message, scheduling another delivery",
				zap.String("messageId", d.msg.ID),
				zap.Int("deliveryCount", d.count),
				zap.Error(err))
			r.schedule(d.redelivered())
			return err
		}
		return r.complete(d.pos)
	}

	r.schedule(d.redelivered())
	return nil
}

func (r *receiver) sendToDeadLetter(ctx context.Context, d *delivery, reason error) error {
	reasonText := "max delivery count exceeded"
	if reason != nil {
		reasonText = reason.Error()
	}

	m := &confluent.Message{
		TopicPartition: confluent.TopicPartition{Topic: &r.cfg.DLQTopic, Partition: confluent.PartitionAny},
		Key:            d.raw.Key,
		Value:          d.raw.Value,
		Headers: append(append([]confluent.Header(nil), d.raw.Headers...),
			confluent.Header{Key: headerDLQTopic, Value: []byte(topicName(d.raw))},
			confluent.Header{Key: headerDLQPartition, Value: []byte(strconv.Itoa(int(d.pos.partition)))},
			confluent.Header{Key: headerDLQOffset, Value: []byte(strconv.FormatInt(d.pos.offset, 10))},
			confluent.Header{Key: headerDLQError, Value: []byte(reasonText)},
			confluent.Header{Key: headerDLQTimestamp, Value: []byte(time.Now().UTC().Format(time.RFC3339))},
			confluent.Header{Key: headerDLQDeliveryCount, Value: []byte(strconv.Itoa(d.count))},
		),
	}
	if err := r.deadLetter.produce(ctx, m); err != nil {
		return err
	}

	r.log.Warn("message sent to DLQ",
		zap.String("dlqTopic", r.cfg.DLQTopic),
		zap.String("messageId", d.msg.ID),
		zap.String("key", d.msg.Key),
		zap.Int32("originalPartition", d.pos.partition),
		zap.Int64("originalOffset", d.pos.offset),
		zap.Int("deliveryCount", d.count),
		zap.String("reason", reasonText))
	return nil
}

// schedule makes d receivable again after the redelivery backoff.
func (r *receiver) schedule(d *delivery) {
	delay := redeliveryDelay(r.cfg.Redelivery, d.count-1)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.timers, timer)
		if !r.closed {
			r.ready = append(r.ready, d)
		}
	})
	r.timers[timer] = struct{}{}
}

// redeliveryDelay returns the exponential backoff for the given attempt,
// starting at 1.
func redeliveryDelay(cfg BackoffConfig, attempt int) time.Duration {
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(cfg.Initial),
		backoff.WithMaxInterval(cfg.Max),
		backoff.WithMaxElapsedTime(0),
	)
	delay := b.NextBackOff()
	for i := 1; i < attempt; i++ {
		delay = b.NextBackOff()
	}
	return delay
}

func (r *receiver) onRebalance(_ *confluent.Consumer, ev confluent.Event) error {
	switch e := ev.(type) {
	case confluent.AssignedPartitions:
		logPartitionEvent(r.log, "partitions assigned", e.Partitions)
	case confluent.RevokedPartitions:
		logPartitionEvent(r.log, "partitions revoked", e.Partitions)
		ids := make([]int32, len(e.Partitions))
		for i, p := range e.Partitions {
			ids[i] = p.Partition
		}
		r.tracker.revoke(ids...)
	}
	return nil
}

// Close stops redelivery timers, commits stored offsets and closes the
// consumer. Messages still pending are delivered again after a restart.
func (r *receiver) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	for t := range r.timers {
		t.Stop()
	}
	r.timers = nil
	r.ready = nil
	r.mu.Unlock()

	if pending := r.tracker.pending(); pending > 0 {
		r.log.Info("closing receiver with unfinished messages", zap.Int("pending", pending))
	}

	if _, err := r.consumer.Commit(); err != nil {
		var kafkaErr confluent.Error
		if !errors.As(err, &kafkaErr) || kafkaErr.Code() != confluent.ErrNoOffset {
			r.log.Warn("failed to commit offsets on close", zap.Error(err))
		}
	}

	_ = r.deadLetter.Close()
	r.log.Info("closing kafka consumer")
	return r.consumer.Close()
}

func logPartitionEvent(log *zap.Logger, event string, partitions []confluent.TopicPartition) {
	if len(partitions) == 0 {
		log.Warn(event + ": no partitions")
		return
	}

	partitionIDs := make([]int32, len(partitions))
	for idx, partition := range partitions {
		partitionIDs[idx] = partition.Partition
	}

	log.Info(event,
		zap.Int("partitionCount", len(partitions)),
		zap.Int32s("partitions", partitionIDs))
}

type delivery struct {
	r       *receiver
	raw     *confluent.Message
	msg     channel.Message
	pos     position
	count   int
	settled atomic.Bool
}

func (d *delivery) Message() channel.Message { return d.msg }

func (d *delivery) DeliveryCount() int { return d.count }

func (d *delivery) Complete(context.Context) error {
	if !d.settled.CompareAndSwap(false, true) {
		return nil
	}
	return d.r.complete(d.pos)
}

func (d *delivery) Abandon(ctx context.Context, reason error) error {
	if !d.settled.CompareAndSwap(false, true) {
		return nil
	}
	return d.r.abandon(ctx, d, reason)
}

// redelivered returns a fresh, unsettled delivery of the same record.
func (d *delivery) redelivered() *delivery {
	return &delivery{r: d.r, raw: d.raw, msg: d.msg.Clone(), pos: d.pos, count: d.count + 1}
}
