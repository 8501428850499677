// Package events publishes version mutation events for downstream consumers
// (search indexers, audit trails, peer caches).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

// DefaultTopic receives VersionsChanged events.
const DefaultTopic = "history.versions"

// VersionsChanged is emitted once per completed batch.
type VersionsChanged struct {
	Op        string    `json:"op"`
	ActorID   int64     `json:"actor_id"`
	TypeAlias string    `json:"type_alias"`
	Applied   []int64   `json:"applied"`
	Pruned    []int64   `json:"pruned"`
	At        time.Time `json:"at"`
}

// Publisher delivers events.
type Publisher interface {
	PublishVersionsChanged(ctx context.Context, ev VersionsChanged) error
}

// Noop drops events.
type Noop struct{}

func (Noop) PublishVersionsChanged(context.Context, VersionsChanged) error { return nil }

// Kafka publishes through a sarama SyncProducer, keyed by type alias so
// events for one content type stay ordered.
type Kafka struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafka dials the brokers.
func NewKafka(brokers []string, topic string) (*Kafka, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true
	cfg.Metadata.Retry.Backoff = 250 * time.Millisecond

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewKafkaWithProducer(p, topic), nil
}

// NewKafkaWithProducer wraps an existing producer.
func NewKafkaWithProducer(p sarama.SyncProducer, topic string) *Kafka {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Kafka{producer: p, topic: topic}
}

// PublishVersionsChanged implements Publisher.
func (k *Kafka) PublishVersionsChanged(_ context.Context, ev VersionsChanged) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(ev.TypeAlias),
		Value: sarama.ByteEncoder(payload),
	}
	if _, _, err := k.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Op, err)
	}
	return nil
}

// Close flushes and closes the producer.
func (k *Kafka) Close() error { return k.producer.Close() }
