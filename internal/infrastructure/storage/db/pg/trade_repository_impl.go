package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/domain"
)

type execTxFunc func(
	ctx context.Context, txBody func(ctx context.Context, tx bun.Tx) error,
) error

type tradeRepositoryImpl struct {
	db     *bun.DB
	execTx execTxFunc
}

func NewTradeRepositoryImpl(db *bun.DB, execTx execTxFunc) domain.TradeRepository {
	return &tradeRepositoryImpl{db, execTx}
}

func (r *tradeRepositoryImpl) AddTrade(
	ctx context.Context, trade *domain.Trade,
) error {
	model := toTradeModel(*trade)

	if err := r.execTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().
			Model(model).
			ExcludeColumn("id").
			Returning("id").
			Exec(ctx); err != nil {
			return err
		}

		if len(model.OfferedCards) <= 0 {
			return nil
		}
		for _, c := range model.OfferedCards {
			c.TradeID = model.ID
		}
		_, err := tx.NewInsert().
			Model(&model.OfferedCards).
			ExcludeColumn("id").
			Returning("id").
			Exec(ctx)
		return err
	}); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrPendingTradeExists
		}
		return err
	}

	*trade = model.toDomain()
	return nil
}

func (r *tradeRepositoryImpl) RestoreTrade(
	ctx context.Context, trade *domain.Trade,
) error {
	model := toTradeModel(*trade)

	if err := r.execTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(model).Exec(ctx); err != nil {
			return err
		}
		if len(model.OfferedCards) > 0 {
			if _, err := tx.NewInsert().
				Model(&model.OfferedCards).
				Exec(ctx); err != nil {
				return err
			}
		}

		for _, table := range []string{"trades", "trade_offered_cards"} {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(
				"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), "+
					"(SELECT COALESCE(MAX(id), 1) FROM %[1]s))", table,
			)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		if isUniqueViolation(err, tradePrimaryKey, offeredCardPrimaryKey) {
			return domain.ErrTradeExists
		}
		if isUniqueViolation(err) {
			return domain.ErrPendingTradeExists
		}
		return err
	}
	return nil
}

func (r *tradeRepositoryImpl) GetTradeById(
	ctx context.Context, id int64,
) (*domain.Trade, error) {
	return r.getTrade(ctx, r.db, id)
}

func (r *tradeRepositoryImpl) GetAllTrades(
	ctx context.Context,
) ([]domain.Trade, error) {
	return r.findTrades(ctx, nil)
}

func (r *tradeRepositoryImpl) GetTradesByListingId(
	ctx context.Context, listingID int64,
) ([]domain.Trade, error) {
	return r.findTrades(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("t.listing_id = ?", listingID)
	})
}

func (r *tradeRepositoryImpl) GetTradesByRequestingUserId(
	ctx context.Context, userID int64,
) ([]domain.Trade, error) {
	return r.findTrades(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("t.requesting_user_id = ?", userID)
	})
}

func (r *tradeRepositoryImpl) GetTradesByListingOwnerUserId(
	ctx context.Context, userID int64,
) ([]domain.Trade, error) {
	return r.findTrades(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("t.listing_owner_user_id = ?", userID)
	})
}

func (r *tradeRepositoryImpl) GetPendingTradesByListingId(
	ctx context.Context, listingID int64,
) ([]domain.Trade, error) {
	return r.findTrades(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("t.listing_id = ?", listingID).
			Where("t.status = ?", domain.TradeStatusPending.String())
	})
}

func (r *tradeRepositoryImpl) GetPendingTradeByListingAndUser(
	ctx context.Context, listingID, userID int64,
) (*domain.Trade, error) {
	trades, err := r.findTrades(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("t.listing_id = ?", listingID).
			Where("t.requesting_user_id = ?", userID).
			Where("t.status = ?", domain.TradeStatusPending.String())
	})
	if err != nil {
		return nil, err
	}
	if len(trades) <= 0 {
		return nil, nil
	}
	return &trades[0], nil
}

func (r *tradeRepositoryImpl) UpdateTrade(
	ctx context.Context,
	id int64,
	updateFn func(t *domain.Trade) (*domain.Trade, error),
) (*domain.Trade, error) {
	trade, err := r.getTrade(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	version := trade.Version

	updatedTrade, err := updateFn(trade)
	if err != nil {
		return nil, err
	}
	if updatedTrade.Version != version {
		return nil, domain.ErrConcurrentModification
	}

	// Offered cards are immutable, only the trade row changes.
	res, err := r.db.NewUpdate().
		Model((*tradeModel)(nil)).
		Set("status = ?", updatedTrade.Status.String()).
		Set("updated_at = ?", updatedTrade.UpdatedAt).
		Set("version = version + 1").
		Where("id = ?", id).
		Where("version = ?", int64(version)).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrPendingTradeExists
		}
		return nil, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows <= 0 {
		return nil, domain.ErrConcurrentModification
	}

	updatedTrade.Version = version + 1
	return updatedTrade, nil
}

func (r *tradeRepositoryImpl) DeleteTrade(ctx context.Context, id int64) error {
	res, err := r.db.NewDelete().
		Model((*tradeModel)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows <= 0 {
		return domain.ErrTradeNotFound
	}
	return nil
}

func (r *tradeRepositoryImpl) getTrade(
	ctx context.Context, db bun.IDB, id int64,
) (*domain.Trade, error) {
	model := new(tradeModel)
	if err := db.NewSelect().
		Model(model).
		Relation("OfferedCards", orderCards).
		Where("t.id = ?", id).
		Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTradeNotFound
		}
		return nil, err
	}

	trade := model.toDomain()
	return &trade, nil
}

func (r *tradeRepositoryImpl) findTrades(
	ctx context.Context, filter func(*bun.SelectQuery) *bun.SelectQuery,
) ([]domain.Trade, error) {
	var models []tradeModel
	query := r.db.NewSelect().
		Model(&models).
		Relation("OfferedCards", orderCards).
		Order("t.id ASC")
	if filter != nil {
		query = filter(query)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}

	trades := make([]domain.Trade, 0, len(models))
	for i := range models {
		trades = append(trades, models[i].toDomain())
	}
	return trades, nil
}

func orderCards(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Order("oc.position ASC")
}
