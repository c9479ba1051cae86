package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/domain"
)

type outboxInmemoryStore struct {
	events map[string]domain.OutboxEvent
	locker *sync.RWMutex
}

type outboxRepositoryImpl struct {
	store *outboxInmemoryStore
}

// NewOutboxRepositoryImpl returns a new inmemory OutboxRepository
// implementation.
func NewOutboxRepositoryImpl(store *outboxInmemoryStore) domain.OutboxRepository {
	return &outboxRepositoryImpl{store}
}

func (r *outboxRepositoryImpl) AddEvent(
	_ context.Context, event *domain.OutboxEvent,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	r.store.events[event.ID] = copyEvent(*event)
	return nil
}

func (r *outboxRepositoryImpl) GetDueEvents(
	_ context.Context, now time.Time, limit int,
) ([]domain.OutboxEvent, error) {
	events := r.findEvents(func(e domain.OutboxEvent) bool {
		return e.IsDue(now)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (r *outboxRepositoryImpl) GetEventsByStatus(
	_ context.Context, status domain.OutboxStatus,
) ([]domain.OutboxEvent, error) {
	return r.findEvents(func(e domain.OutboxEvent) bool {
		return e.Status == status
	}), nil
}

func (r *outboxRepositoryImpl) UpdateEvent(
	_ context.Context,
	id string,
	updateFn func(e *domain.OutboxEvent) (*domain.OutboxEvent, error),
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	event, ok := r.store.events[id]
	if !ok {
		return domain.ErrOutboxEventNotFound
	}
	event = copyEvent(event)

	updatedEvent, err := updateFn(&event)
	if err != nil {
		return err
	}
	r.store.events[id] = copyEvent(*updatedEvent)
	return nil
}

func (r *outboxRepositoryImpl) findEvents(
	filter func(domain.OutboxEvent) bool,
) []domain.OutboxEvent {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	events := make([]domain.OutboxEvent, 0)
	for _, e := range r.store.events {
		if filter(e) {
			events = append(events, copyEvent(e))
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	return events
}

func copyEvent(event domain.OutboxEvent) domain.OutboxEvent {
	payload := make([]byte, len(event.Payload))
	copy(payload, event.Payload)
	event.Payload = payload
	return event
}
