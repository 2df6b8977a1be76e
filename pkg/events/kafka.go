package events

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// PublishResult holds the outcome of an asynchronous publish
type PublishResult struct {
	Error error
}

// Publisher defines the interface for emitting session events
type Publisher interface {
	// PublishAsync sends an event to the feed without blocking the caller.
	// The returned channel receives exactly one result when the write completes.
	PublishAsync(ctx context.Context, key, value []byte) <-chan PublishResult

	// Close gracefully shuts down the publisher
	Close() error
}

// KafkaPublisher implements Publisher using kafka-go
type KafkaPublisher struct {
	writer *kafka.Writer
}

// KafkaConfig holds Kafka publisher configuration
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// NewKafkaPublisher creates a new KafkaPublisher instance.
// Messages are keyed by player id so that each player's sessions
// land on one partition in order.
func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{},
	}

	return &KafkaPublisher{writer: writer}
}

// PublishAsync sends an event to Kafka from a separate goroutine
func (p *KafkaPublisher) PublishAsync(ctx context.Context, key, value []byte) <-chan PublishResult {
	resultChan := make(chan PublishResult, 1)

	msg := kafka.Message{
		Key:   key,
		Value: value,
	}

	go func() {
		err := p.writer.WriteMessages(ctx, msg)
		resultChan <- PublishResult{Error: err}
		close(resultChan)
	}()

	return resultChan
}

// Close gracefully shuts down the publisher
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
