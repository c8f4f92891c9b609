package kafka

import (
	"context"
	"sort"

	"github.com/IBM/sarama"
)

// Producer publishes outbox events synchronously so the relay only marks a
// record sent once the broker acknowledged it.
type Producer struct {
	sync sarama.SyncProducer
}

// NewConfig returns the idempotent producer settings used by the relay.
func NewConfig(clientID string) *sarama.Config {
	cfg := sarama.NewConfig()
	if clientID != "" {
		cfg.ClientID = clientID
	}
	cfg.Version = sarama.V2_1_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 5
	cfg.Net.MaxOpenRequests = 1
	return cfg
}

func NewProducer(brokers []string, cfg *sarama.Config) (*Producer, error) {
	if cfg == nil {
		cfg = NewConfig("staybook")
	}
	sync, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &Producer{sync: sync}, nil
}

// NewProducerFrom wraps an existing sync producer, e.g. sarama/mocks in tests.
func NewProducerFrom(sync sarama.SyncProducer) *Producer {
	return &Producer{sync: sync}
}

func (p *Producer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	hs := make([]sarama.RecordHeader, 0, len(keys))
	for _, k := range keys {
		hs = append(hs, sarama.RecordHeader{Key: []byte(k), Value: []byte(headers[k])})
	}
	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(payload),
		Headers: hs,
	}
	_, _, err := p.sync.SendMessage(msg)
	return err
}

func (p *Producer) Close() error {
	if p.sync == nil {
		return nil
	}
	return p.sync.Close()
}
