package kafka

import (
	"sync"
	"time"

	confluent "github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// fakeConsumer serves scripted records and errors, then times out.
type fakeConsumer struct {
	mu         sync.Mutex
	records    []*confluent.Message
	readErrs   []error
	stored     []confluent.TopicPartition
	topics     []string
	rebalance  confluent.RebalanceCb
	commits    int
	closed     bool
	subscribeE error
}

func (c *fakeConsumer) SubscribeTopics(topics []string, cb confluent.RebalanceCb) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = topics
	c.rebalance = cb
	return c.subscribeE
}

func (c *fakeConsumer) ReadMessage(timeout time.Duration) (*confluent.Message, error) {
	c.mu.Lock()
	if len(c.readErrs) > 0 {
		err := c.readErrs[0]
		c.readErrs = c.readErrs[1:]
		c.mu.Unlock()
		return nil, err
	}
	if len(c.records) > 0 {
		m := c.records[0]
		c.records = c.records[1:]
		c.mu.Unlock()
		return m, nil
	}
	c.mu.Unlock()
	time.Sleep(timeout)
	return nil, confluent.NewError(confluent.ErrTimedOut, "timed out", false)
}

func (c *fakeConsumer) StoreOffsets(offsets []confluent.TopicPartition) ([]confluent.TopicPartition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stored = append(c.stored, offsets...)
	return offsets, nil
}

func (c *fakeConsumer) Commit() ([]confluent.TopicPartition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commits++
	return nil, confluent.NewError(confluent.ErrNoOffset, "no offset", false)
}

func (c *fakeConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConsumer) storedOffsets() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int64, len(c.stored))
	for i, tp := range c.stored {
		out[i] = int64(tp.Offset)
	}
	return out
}

// fakeProducer acknowledges every message, or fails delivery with failWith.
type fakeProducer struct {
	mu       sync.Mutex
	produced []*confluent.Message
	failWith error
	flushed  bool
	closed   bool
}

func (p *fakeProducer) Produce(msg *confluent.Message, deliveryChan chan confluent.Event) error {
	p.mu.Lock()
	p.produced = append(p.produced, msg)
	failWith := p.failWith
	p.mu.Unlock()

	report := *msg
	report.TopicPartition.Error = failWith
	go func() { deliveryChan <- &report }()
	return nil
}

func (p *fakeProducer) Flush(int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushed = true
	return 0
}

func (p *fakeProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *fakeProducer) messages() []*confluent.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*confluent.Message(nil), p.produced...)
}

func record(topic string, partition int32, offset int64, id string) *confluent.Message {
	return &confluent.Message{
		TopicPartition: confluent.TopicPartition{Topic: &topic, Partition: partition, Offset: confluent.Offset(offset)},
		Key:            []byte("42"),
		Value:          []byte(`{"eventType":"ProductCreatedEvent","payload":{}}`),
		Headers: []confluent.Header{
			{Key: headerMessageID, Value: []byte(id)},
			{Key: headerContentType, Value: []byte("application/json")},
			{Key: "event-type", Value: []byte("ProductCreatedEvent")},
		},
	}
}
