package dbbadger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v3"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/domain"
)

const (
	tradeSequenceKey       = "seq_trade_id"
	offeredCardSequenceKey = "seq_offered_card_id"
	sequenceBandwidth      = 100
)

// pendingTrade is the record that reserves the only pending trade allowed
// for a listing and requesting user pair.
type pendingTrade struct {
	TradeID int64
}

type tradeRepositoryImpl struct {
	store   *badgerhold.Store
	tradeID *badger.Sequence
	cardID  *badger.Sequence
}

func newTradeRepositoryImpl(store *badgerhold.Store) (*tradeRepositoryImpl, error) {
	tradeSeq, err := store.Badger().GetSequence(
		[]byte(tradeSequenceKey), sequenceBandwidth,
	)
	if err != nil {
		return nil, fmt.Errorf("opening trade id sequence: %w", err)
	}
	cardSeq, err := store.Badger().GetSequence(
		[]byte(offeredCardSequenceKey), sequenceBandwidth,
	)
	if err != nil {
		tradeSeq.Release()
		return nil, fmt.Errorf("opening offered card id sequence: %w", err)
	}

	return &tradeRepositoryImpl{store, tradeSeq, cardSeq}, nil
}

func (r *tradeRepositoryImpl) AddTrade(
	_ context.Context, trade *domain.Trade,
) error {
	newTrade := *trade
	newTrade.OfferedCards = make([]domain.OfferedCard, len(trade.OfferedCards))
	copy(newTrade.OfferedCards, trade.OfferedCards)

	tradeID, err := nextID(r.tradeID)
	if err != nil {
		return err
	}
	newTrade.ID = tradeID
	for i := range newTrade.OfferedCards {
		cardID, err := nextID(r.cardID)
		if err != nil {
			return err
		}
		newTrade.OfferedCards[i].ID = cardID
		newTrade.OfferedCards[i].TradeID = tradeID
	}

	if err := r.insertTrade(newTrade); err != nil {
		return err
	}

	*trade = newTrade
	return nil
}

func (r *tradeRepositoryImpl) RestoreTrade(
	_ context.Context, trade *domain.Trade,
) error {
	if err := skipIDs(r.tradeID, trade.ID); err != nil {
		return err
	}
	for _, c := range trade.OfferedCards {
		if err := skipIDs(r.cardID, c.ID); err != nil {
			return err
		}
	}

	newTrade := *trade
	newTrade.OfferedCards = make([]domain.OfferedCard, len(trade.OfferedCards))
	copy(newTrade.OfferedCards, trade.OfferedCards)

	err := r.insertTrade(newTrade)
	if errors.Is(err, badgerhold.ErrKeyExists) {
		return domain.ErrTradeExists
	}
	return err
}

func (r *tradeRepositoryImpl) insertTrade(newTrade domain.Trade) error {
	err := r.store.Badger().Update(func(tx *badger.Txn) error {
		if err := r.store.TxInsert(tx, newTrade.ID, newTrade); err != nil {
			return err
		}
		if !newTrade.IsPending() {
			return nil
		}

		key := pendingTradeKey(newTrade.ListingID, newTrade.RequestingUserID)
		var pending pendingTrade
		err := r.store.TxGet(tx, key, &pending)
		if err == nil {
			return domain.ErrPendingTradeExists
		}
		if err != badgerhold.ErrNotFound {
			return err
		}
		return r.store.TxInsert(tx, key, pendingTrade{TradeID: newTrade.ID})
	})
	// The only key read by a concurrent insert is the pending one.
	if errors.Is(err, badger.ErrConflict) {
		return domain.ErrPendingTradeExists
	}
	return err
}

func (r *tradeRepositoryImpl) GetTradeById(
	_ context.Context, id int64,
) (*domain.Trade, error) {
	var trade domain.Trade
	if err := r.store.Get(id, &trade); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrTradeNotFound
		}
		return nil, err
	}
	return &trade, nil
}

func (r *tradeRepositoryImpl) GetAllTrades(
	_ context.Context,
) ([]domain.Trade, error) {
	return r.findTrades(nil)
}

func (r *tradeRepositoryImpl) GetTradesByListingId(
	_ context.Context, listingID int64,
) ([]domain.Trade, error) {
	query := badgerhold.Where("ListingID").Eq(listingID)
	return r.findTrades(query)
}

func (r *tradeRepositoryImpl) GetTradesByRequestingUserId(
	_ context.Context, userID int64,
) ([]domain.Trade, error) {
	query := badgerhold.Where("RequestingUserID").Eq(userID)
	return r.findTrades(query)
}

func (r *tradeRepositoryImpl) GetTradesByListingOwnerUserId(
	_ context.Context, userID int64,
) ([]domain.Trade, error) {
	query := badgerhold.Where("ListingOwnerUserID").Eq(userID)
	return r.findTrades(query)
}

func (r *tradeRepositoryImpl) GetPendingTradesByListingId(
	_ context.Context, listingID int64,
) ([]domain.Trade, error) {
	query := badgerhold.Where("ListingID").Eq(listingID).
		And("Status").Eq(domain.TradeStatusPending)
	return r.findTrades(query)
}

func (r *tradeRepositoryImpl) GetPendingTradeByListingAndUser(
	ctx context.Context, listingID, userID int64,
) (*domain.Trade, error) {
	var pending pendingTrade
	if err := r.store.Get(
		pendingTradeKey(listingID, userID), &pending,
	); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.GetTradeById(ctx, pending.TradeID)
}

func (r *tradeRepositoryImpl) UpdateTrade(
	_ context.Context,
	id int64,
	updateFn func(t *domain.Trade) (*domain.Trade, error),
) (*domain.Trade, error) {
	var updatedTrade *domain.Trade

	err := r.store.Badger().Update(func(tx *badger.Txn) error {
		var trade domain.Trade
		if err := r.store.TxGet(tx, id, &trade); err != nil {
			if err == badgerhold.ErrNotFound {
				return domain.ErrTradeNotFound
			}
			return err
		}
		version := trade.Version
		wasPending := trade.IsPending()

		t, err := updateFn(&trade)
		if err != nil {
			return err
		}
		if t.Version != version {
			return domain.ErrConcurrentModification
		}
		t.Version++

		if wasPending && !t.IsPending() {
			key := pendingTradeKey(t.ListingID, t.RequestingUserID)
			if err := r.store.TxDelete(
				tx, key, pendingTrade{},
			); err != nil && err != badgerhold.ErrNotFound {
				return err
			}
		}

		if err := r.store.TxUpdate(tx, id, *t); err != nil {
			return err
		}
		updatedTrade = t
		return nil
	})
	if err != nil {
		if errors.Is(err, badger.ErrConflict) {
			return nil, domain.ErrConcurrentModification
		}
		return nil, err
	}

	return updatedTrade, nil
}

func (r *tradeRepositoryImpl) DeleteTrade(_ context.Context, id int64) error {
	return r.store.Badger().Update(func(tx *badger.Txn) error {
		var trade domain.Trade
		if err := r.store.TxGet(tx, id, &trade); err != nil {
			if err == badgerhold.ErrNotFound {
				return domain.ErrTradeNotFound
			}
			return err
		}

		if trade.IsPending() {
			key := pendingTradeKey(trade.ListingID, trade.RequestingUserID)
			if err := r.store.TxDelete(
				tx, key, pendingTrade{},
			); err != nil && err != badgerhold.ErrNotFound {
				return err
			}
		}
		return r.store.TxDelete(tx, id, domain.Trade{})
	})
}

func (r *tradeRepositoryImpl) findTrades(
	query *badgerhold.Query,
) ([]domain.Trade, error) {
	var trades []domain.Trade
	if err := r.store.Find(&trades, query); err != nil {
		return nil, err
	}
	if trades == nil {
		trades = make([]domain.Trade, 0)
	}

	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].ID < trades[j].ID
	})
	return trades, nil
}

func (r *tradeRepositoryImpl) close() {
	for _, seq := range []*badger.Sequence{r.tradeID, r.cardID} {
		if err := seq.Release(); err != nil {
			log.WithError(err).Warn("failed to release id sequence")
		}
	}
}

func pendingTradeKey(listingID, userID int64) string {
	return fmt.Sprintf("%d:%d", listingID, userID)
}

// nextID returns positive ids, badger sequences start from zero.
func nextID(seq *badger.Sequence) (int64, error) {
	n, err := seq.Next()
	if err != nil {
		return 0, fmt.Errorf("generating id: %w", err)
	}
	return int64(n) + 1, nil
}

// skipIDs moves the sequence past the given id so that it is never handed
// out again. At least one value is always consumed.
func skipIDs(seq *badger.Sequence, id int64) error {
	if id <= 0 {
		return fmt.Errorf("invalid id %d", id)
	}
	for {
		n, err := seq.Next()
		if err != nil {
			return fmt.Errorf("generating id: %w", err)
		}
		if int64(n)+1 >= id {
			return nil
		}
	}
}
