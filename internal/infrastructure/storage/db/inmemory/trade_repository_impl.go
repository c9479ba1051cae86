package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/domain"
)

type pendingKey struct {
	listingID int64
	userID    int64
}

type tradeInmemoryStore struct {
	trades map[int64]domain.Trade
	// pendingByOwner indexes the only pending trade allowed for every
	// listing and requesting user pair.
	pendingByOwner map[pendingKey]int64
	lastTradeID    int64
	lastCardID     int64
	locker         *sync.RWMutex
}

type tradeRepositoryImpl struct {
	store *tradeInmemoryStore
}

// NewTradeRepositoryImpl returns a new inmemory TradeRepository implementation.
func NewTradeRepositoryImpl(store *tradeInmemoryStore) domain.TradeRepository {
	return &tradeRepositoryImpl{store}
}

func (r *tradeRepositoryImpl) AddTrade(
	_ context.Context, trade *domain.Trade,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	key := pendingKey{trade.ListingID, trade.RequestingUserID}
	if trade.IsPending() {
		if _, ok := r.store.pendingByOwner[key]; ok {
			return domain.ErrPendingTradeExists
		}
	}

	r.store.lastTradeID++
	trade.ID = r.store.lastTradeID
	for i := range trade.OfferedCards {
		r.store.lastCardID++
		trade.OfferedCards[i].ID = r.store.lastCardID
		trade.OfferedCards[i].TradeID = trade.ID
	}

	r.store.trades[trade.ID] = copyTrade(*trade)
	if trade.IsPending() {
		r.store.pendingByOwner[key] = trade.ID
	}
	return nil
}

func (r *tradeRepositoryImpl) RestoreTrade(
	_ context.Context, trade *domain.Trade,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if _, ok := r.store.trades[trade.ID]; ok {
		return domain.ErrTradeExists
	}
	key := pendingKey{trade.ListingID, trade.RequestingUserID}
	if trade.IsPending() {
		if _, ok := r.store.pendingByOwner[key]; ok {
			return domain.ErrPendingTradeExists
		}
	}

	if trade.ID > r.store.lastTradeID {
		r.store.lastTradeID = trade.ID
	}
	for _, c := range trade.OfferedCards {
		if c.ID > r.store.lastCardID {
			r.store.lastCardID = c.ID
		}
	}

	r.store.trades[trade.ID] = copyTrade(*trade)
	if trade.IsPending() {
		r.store.pendingByOwner[key] = trade.ID
	}
	return nil
}

func (r *tradeRepositoryImpl) GetTradeById(
	_ context.Context, id int64,
) (*domain.Trade, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	trade, ok := r.store.trades[id]
	if !ok {
		return nil, domain.ErrTradeNotFound
	}
	trade = copyTrade(trade)
	return &trade, nil
}

func (r *tradeRepositoryImpl) GetAllTrades(
	_ context.Context,
) ([]domain.Trade, error) {
	return r.findTrades(func(domain.Trade) bool { return true }), nil
}

func (r *tradeRepositoryImpl) GetTradesByListingId(
	_ context.Context, listingID int64,
) ([]domain.Trade, error) {
	return r.findTrades(func(t domain.Trade) bool {
		return t.ListingID == listingID
	}), nil
}

func (r *tradeRepositoryImpl) GetTradesByRequestingUserId(
	_ context.Context, userID int64,
) ([]domain.Trade, error) {
	return r.findTrades(func(t domain.Trade) bool {
		return t.RequestingUserID == userID
	}), nil
}

func (r *tradeRepositoryImpl) GetTradesByListingOwnerUserId(
	_ context.Context, userID int64,
) ([]domain.Trade, error) {
	return r.findTrades(func(t domain.Trade) bool {
		return t.ListingOwnerUserID == userID
	}), nil
}

func (r *tradeRepositoryImpl) GetPendingTradesByListingId(
	_ context.Context, listingID int64,
) ([]domain.Trade, error) {
	return r.findTrades(func(t domain.Trade) bool {
		return t.ListingID == listingID && t.IsPending()
	}), nil
}

func (r *tradeRepositoryImpl) GetPendingTradeByListingAndUser(
	_ context.Context, listingID, userID int64,
) (*domain.Trade, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	id, ok := r.store.pendingByOwner[pendingKey{listingID, userID}]
	if !ok {
		return nil, nil
	}
	trade := copyTrade(r.store.trades[id])
	return &trade, nil
}

func (r *tradeRepositoryImpl) UpdateTrade(
	_ context.Context,
	id int64,
	updateFn func(t *domain.Trade) (*domain.Trade, error),
) (*domain.Trade, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	current, ok := r.store.trades[id]
	if !ok {
		return nil, domain.ErrTradeNotFound
	}
	trade := copyTrade(current)

	updatedTrade, err := updateFn(&trade)
	if err != nil {
		return nil, err
	}
	if updatedTrade.Version != current.Version {
		return nil, domain.ErrConcurrentModification
	}

	key := pendingKey{current.ListingID, current.RequestingUserID}
	if current.IsPending() && !updatedTrade.IsPending() {
		delete(r.store.pendingByOwner, key)
	}

	updatedTrade.Version++
	r.store.trades[id] = copyTrade(*updatedTrade)
	result := copyTrade(*updatedTrade)
	return &result, nil
}

func (r *tradeRepositoryImpl) DeleteTrade(_ context.Context, id int64) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	trade, ok := r.store.trades[id]
	if !ok {
		return domain.ErrTradeNotFound
	}

	key := pendingKey{trade.ListingID, trade.RequestingUserID}
	if r.store.pendingByOwner[key] == id {
		delete(r.store.pendingByOwner, key)
	}
	delete(r.store.trades, id)
	return nil
}

func (r *tradeRepositoryImpl) findTrades(
	filter func(domain.Trade) bool,
) []domain.Trade {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	trades := make([]domain.Trade, 0)
	for _, trade := range r.store.trades {
		if filter(trade) {
			trades = append(trades, copyTrade(trade))
		}
	}
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].ID < trades[j].ID
	})
	return trades
}

func copyTrade(trade domain.Trade) domain.Trade {
	cards := make([]domain.OfferedCard, len(trade.OfferedCards))
	copy(cards, trade.OfferedCards)
	trade.OfferedCards = cards
	return trade
}
