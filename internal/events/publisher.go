package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

// EventPublisher publishes session lifecycle events. Publishing is best
// effort from the engine's point of view; callers log failures and move on.
type EventPublisher interface {
	PublishSessionEvent(ctx context.Context, event SessionEvent) error
	Close() error
}

type kafkaEventPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewKafkaEventPublisher creates a watermill Kafka publisher for session
// events.
func NewKafkaEventPublisher(brokers []string, topic string, logger *slog.Logger) (EventPublisher, error) {
	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return &kafkaEventPublisher{
		publisher: publisher,
		topic:     topic,
	}, nil
}

func (p *kafkaEventPublisher) PublishSessionEvent(_ context.Context, event SessionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal session event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("user_id", event.UserID)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish session event: %w", err)
	}
	return nil
}

func (p *kafkaEventPublisher) Close() error {
	return p.publisher.Close()
}

// MockEventPublisher records events in memory for tests and local runs
// without a broker.
type MockEventPublisher struct {
	logger *slog.Logger

	mu     sync.Mutex
	events []SessionEvent
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

func (p *MockEventPublisher) PublishSessionEvent(_ context.Context, event SessionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	if p.logger != nil {
		p.logger.Debug("session event published",
			"type", event.Type,
			"user_id", event.UserID,
			"assessment_id", event.AssessmentID)
	}
	return nil
}

func (p *MockEventPublisher) Close() error { return nil }

// Events returns a copy of everything published so far.
func (p *MockEventPublisher) Events() []SessionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]SessionEvent, len(p.events))
	copy(out, p.events)
	return out
}
