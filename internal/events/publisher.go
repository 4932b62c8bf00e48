package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"coachgest-backend/pkg/messagequeue"
)

// Publisher emits domain events.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// BusPublisher wraps each event in an Envelope and sends it to the message queue,
// using the event type as routing key.
type BusPublisher struct {
	mq     messagequeue.Publisher
	logger *zap.Logger
	now    func() time.Time
}

// NewBusPublisher creates a BusPublisher.
func NewBusPublisher(mq messagequeue.Publisher, logger *zap.Logger) *BusPublisher {
	return &BusPublisher{mq: mq, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func (p *BusPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", evt.EventType(), err)
	}
	body, err := json.Marshal(Envelope{
		ID:         uuid.NewString(),
		Type:       evt.EventType(),
		OccurredAt: p.now(),
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", evt.EventType(), err)
	}
	if err := p.mq.Publish(ctx, evt.EventType(), body); err != nil {
		return err
	}
	p.logger.Debug("Event published", zap.String("type", evt.EventType()))
	return nil
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
