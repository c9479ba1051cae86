package dbbadger

import (
	"context"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/domain"
)

type outboxRepositoryImpl struct {
	store *badgerhold.Store
}

func newOutboxRepositoryImpl(store *badgerhold.Store) domain.OutboxRepository {
	return &outboxRepositoryImpl{store}
}

func (r *outboxRepositoryImpl) AddEvent(
	_ context.Context, event *domain.OutboxEvent,
) error {
	return r.store.Insert(event.ID, *event)
}

func (r *outboxRepositoryImpl) GetDueEvents(
	_ context.Context, now time.Time, limit int,
) ([]domain.OutboxEvent, error) {
	query := badgerhold.Where("Status").Eq(domain.OutboxStatusPending)
	events, err := r.findEvents(query)
	if err != nil {
		return nil, err
	}

	dueEvents := make([]domain.OutboxEvent, 0, len(events))
	for _, e := range events {
		if limit > 0 && len(dueEvents) >= limit {
			break
		}
		if e.IsDue(now) {
			dueEvents = append(dueEvents, e)
		}
	}
	return dueEvents, nil
}

func (r *outboxRepositoryImpl) GetEventsByStatus(
	_ context.Context, status domain.OutboxStatus,
) ([]domain.OutboxEvent, error) {
	query := badgerhold.Where("Status").Eq(status)
	return r.findEvents(query)
}

func (r *outboxRepositoryImpl) UpdateEvent(
	_ context.Context,
	id string,
	updateFn func(e *domain.OutboxEvent) (*domain.OutboxEvent, error),
) error {
	return r.store.Badger().Update(func(tx *badger.Txn) error {
		var event domain.OutboxEvent
		if err := r.store.TxGet(tx, id, &event); err != nil {
			if err == badgerhold.ErrNotFound {
				return domain.ErrOutboxEventNotFound
			}
			return err
		}

		updatedEvent, err := updateFn(&event)
		if err != nil {
			return err
		}
		return r.store.TxUpdate(tx, id, *updatedEvent)
	})
}

func (r *outboxRepositoryImpl) findEvents(
	query *badgerhold.Query,
) ([]domain.OutboxEvent, error) {
	var events []domain.OutboxEvent
	if err := r.store.Find(&events, query); err != nil {
		return nil, err
	}
	if events == nil {
		events = make([]domain.OutboxEvent, 0)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	return events, nil
}
