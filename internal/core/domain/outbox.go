package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
	OutboxStatusDead    OutboxStatus = "dead"
)

type OutboxStatus string

// OutboxEvent is a message waiting to be delivered to the broker.
type OutboxEvent struct {
	ID            string
	Topic         string
	Key           string
	Payload       []byte
	Status        OutboxStatus
	Attempts      int
	LastError     string
	CreatedAt     time.Time
	NextAttemptAt time.Time
	SentAt        time.Time
}

func NewOutboxEvent(topic, key string, payload []byte) *OutboxEvent {
	now := time.Now().UTC()
	return &OutboxEvent{
		ID:            uuid.New().String(),
		Topic:         topic,
		Key:           key,
		Payload:       payload,
		Status:        OutboxStatusPending,
		CreatedAt:     now,
		NextAttemptAt: now,
	}
}

func (e *OutboxEvent) IsPending() bool {
	return e.Status == OutboxStatusPending
}

// IsDue returns whether a pending event can be published at the given time.
func (e *OutboxEvent) IsDue(now time.Time) bool {
	return e.IsPending() && !e.NextAttemptAt.After(now)
}

func (e *OutboxEvent) MarkSent() {
	e.Status = OutboxStatusSent
	e.SentAt = time.Now().UTC()
	e.LastError = ""
}

// MarkFailed records a failed delivery. The event is given up once it has
// been attempted maxAttempts times.
func (e *OutboxEvent) MarkFailed(err error, retryAfter time.Duration, maxAttempts int) {
	e.Attempts++
	if err != nil {
		e.LastError = err.Error()
	}
	if maxAttempts > 0 && e.Attempts >= maxAttempts {
		e.Status = OutboxStatusDead
		return
	}
	e.NextAttemptAt = time.Now().UTC().Add(retryAfter)
}

// OutboxRepository persists the events not yet delivered to the broker.
type OutboxRepository interface {
	// AddEvent stores a new event.
	AddEvent(ctx context.Context, event *OutboxEvent) error
	// GetDueEvents returns at most limit pending events whose next attempt is
	// not after now, oldest first.
	GetDueEvents(ctx context.Context, now time.Time, limit int) ([]OutboxEvent, error)
	// GetEventsByStatus returns all the events with the given status.
	GetEventsByStatus(ctx context.Context, status OutboxStatus) ([]OutboxEvent, error)
	// UpdateEvent allows to commit changes to an event atomically.
	UpdateEvent(
		ctx context.Context,
		id string,
		updateFn func(e *OutboxEvent) (*OutboxEvent, error),
	) error
}
