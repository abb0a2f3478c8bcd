// Package events publishes appointment lifecycle notifications for
// downstream consumers (reminders, analytics). Publishing is best effort:
// a failed publish is logged and never fails the originating request.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	AppointmentBooked        = "appointment.booked"
	AppointmentCancelled     = "appointment.cancelled"
	AppointmentStatusChanged = "appointment.status_changed"
)

// Event is the envelope written to the broker.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// New builds an event with a fresh id around payload.
func New(eventType string, payload interface{}, now time.Time) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: now.UTC(),
		Payload:    raw,
	}, nil
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// LogPublisher writes events to the application log. Used when no broker
// is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With().Str("component", "events").Logger()}
}

func (p *LogPublisher) Publish(_ context.Context, evt Event) error {
	p.logger.Info().
		Str("event_id", evt.ID).
		Str("event_type", evt.Type).
		RawJSON("payload", evt.Payload).
		Msg("event")
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Emitter is the domain-facing helper: it builds the envelope, publishes,
// and logs failures instead of returning them.
type Emitter struct {
	pub    Publisher
	logger zerolog.Logger
	now    func() time.Time
}

func NewEmitter(pub Publisher, logger zerolog.Logger) *Emitter {
	return &Emitter{pub: pub, logger: logger, now: time.Now}
}

func (e *Emitter) Emit(ctx context.Context, eventType string, payload interface{}) {
	if e == nil || e.pub == nil {
		return
	}
	evt, err := New(eventType, payload, e.now())
	if err != nil {
		e.logger.Warn().Err(err).Str("event_type", eventType).Msg("encode event")
		return
	}
	if err := e.pub.Publish(ctx, evt); err != nil {
		e.logger.Warn().Err(err).Str("event_type", eventType).Str("event_id", evt.ID).Msg("publish event")
	}
}
