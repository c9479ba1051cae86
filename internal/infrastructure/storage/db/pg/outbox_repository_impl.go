package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/domain"
)

type outboxRepositoryImpl struct {
	db     *bun.DB
	execTx execTxFunc
}

func NewOutboxRepositoryImpl(db *bun.DB, execTx execTxFunc) domain.OutboxRepository {
	return &outboxRepositoryImpl{db, execTx}
}

func (r *outboxRepositoryImpl) AddEvent(
	ctx context.Context, event *domain.OutboxEvent,
) error {
	_, err := r.db.NewInsert().Model(toOutboxEventModel(*event)).Exec(ctx)
	return err
}

func (r *outboxRepositoryImpl) GetDueEvents(
	ctx context.Context, now time.Time, limit int,
) ([]domain.OutboxEvent, error) {
	var models []outboxEventModel
	query := r.db.NewSelect().
		Model(&models).
		Where("oe.status = ?", string(domain.OutboxStatusPending)).
		Where("oe.next_attempt_at <= ?", now).
		Order("oe.created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	return toOutboxEvents(models), nil
}

func (r *outboxRepositoryImpl) GetEventsByStatus(
	ctx context.Context, status domain.OutboxStatus,
) ([]domain.OutboxEvent, error) {
	var models []outboxEventModel
	if err := r.db.NewSelect().
		Model(&models).
		Where("oe.status = ?", string(status)).
		Order("oe.created_at ASC").
		Scan(ctx); err != nil {
		return nil, err
	}
	return toOutboxEvents(models), nil
}

func (r *outboxRepositoryImpl) UpdateEvent(
	ctx context.Context,
	id string,
	updateFn func(e *domain.OutboxEvent) (*domain.OutboxEvent, error),
) error {
	return r.execTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		model := new(outboxEventModel)
		if err := tx.NewSelect().
			Model(model).
			Where("oe.id = ?", id).
			For("UPDATE").
			Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrOutboxEventNotFound
			}
			return err
		}

		event := model.toDomain()
		updatedEvent, err := updateFn(&event)
		if err != nil {
			return err
		}

		_, err = tx.NewUpdate().
			Model(toOutboxEventModel(*updatedEvent)).
			WherePK().
			Exec(ctx)
		return err
	})
}

func toOutboxEvents(models []outboxEventModel) []domain.OutboxEvent {
	events := make([]domain.OutboxEvent, 0, len(models))
	for i := range models {
		events = append(events, models[i].toDomain())
	}
	return events
}
