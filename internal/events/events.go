// Package events publishes domain events to a message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/harentsoaR/carrental-api/internal/config"
)

const (
	TopicUserCreated    = "user.created"
	TopicBookingCreated = "booking.created"
	TopicBookingUpdated = "booking.updated"
	TopicBookingDeleted = "booking.deleted"
)

// Event is the envelope written to every topic.
type Event struct {
	EventType  string      `json:"event_type"`
	Data       interface{} `json:"data"`
	OccurredAt time.Time   `json:"occurred_at"`
}

func NewEvent(eventType string, data interface{}) Event {
	return Event{EventType: eventType, Data: data, OccurredAt: time.Now().UTC()}
}

func (e Event) Encode() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", e.EventType, err)
	}
	return b, nil
}

// Publisher delivers an event to the topic named by its type.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// New builds the publisher selected by cfg.Driver.
func New(ctx context.Context, cfg config.EventsConfig, log *zap.Logger) (Publisher, error) {
	switch cfg.Driver {
	case "", "none":
		log.Info("event publishing disabled")
		return Noop{}, nil
	case "kafka":
		return NewKafkaPublisher(ctx, cfg.KafkaBrokers, log)
	case "nats":
		return NewNATSPublisher(cfg.NATSURL, log)
	}
	return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
}
