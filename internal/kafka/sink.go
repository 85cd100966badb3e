package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"assetwatch/internal/notify"
)

// Sink errors
var (
	ErrSinkClosed      = errors.New("event sink is closed")
	ErrSerializeFailed = errors.New("failed to serialize event")
)

// EventSink mirrors every broadcast notification event into a Kafka topic
// so downstream consumers can replay the alert/metric stream. Implements
// notify.EventSink.
type EventSink struct {
	writer *kafka.Writer
	closed atomic.Bool

	published atomic.Uint64
	failed    atomic.Uint64
}

// NewEventSink creates a Kafka-backed event sink
func NewEventSink(brokers []string, topic string) (*EventSink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // Partition by event type
		BatchTimeout: 100 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &EventSink{writer: writer}, nil
}

// Publish sends one event to the topic
func (s *EventSink) Publish(ctx context.Context, event notify.Event) error {
	if s.closed.Load() {
		return ErrSinkClosed
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.failed.Add(1)
		return fmt.Errorf("%w: %v", ErrSerializeFailed, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Type),
		Value: data,
		Time:  time.Now().UTC(),
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		s.failed.Add(1)
		return fmt.Errorf("publish event: %w", err)
	}

	s.published.Add(1)
	return nil
}

// Stats returns sink counters
func (s *EventSink) Stats() (published, failed uint64) {
	return s.published.Load(), s.failed.Load()
}

// Close flushes and closes the underlying writer
func (s *EventSink) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.writer.Close()
}
