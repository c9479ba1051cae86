package domain

import "context"

// TradeRepository is the abstraction for any kind of database intended to
// persist Trades.
type TradeRepository interface {
	// AddTrade persists a new trade and its offered cards in a single atomic
	// write. The store assigns the ids of the trade and of every offered card.
	// ErrPendingTradeExists is returned if the trade is pending and another
	// pending one exists for the same listing and requesting user.
	AddTrade(ctx context.Context, trade *Trade) error
	// RestoreTrade persists a trade keeping the ids it already carries, for
	// it and for its offered cards. The store id generators are moved past
	// the restored ids. ErrTradeExists is returned if the id is taken.
	RestoreTrade(ctx context.Context, trade *Trade) error
	// GetTradeById returns the trade with the given id, with its offered
	// cards, or ErrTradeNotFound.
	GetTradeById(ctx context.Context, id int64) (*Trade, error)
	// GetAllTrades returns all the trades stored in the repository.
	GetAllTrades(ctx context.Context) ([]Trade, error)
	// GetTradesByListingId returns all the trades proposed for a listing.
	GetTradesByListingId(ctx context.Context, listingID int64) ([]Trade, error)
	// GetTradesByRequestingUserId returns all the trades proposed by a user.
	GetTradesByRequestingUserId(ctx context.Context, userID int64) ([]Trade, error)
	// GetTradesByListingOwnerUserId returns all the trades proposed for
	// listings owned by the given user.
	GetTradesByListingOwnerUserId(ctx context.Context, userID int64) ([]Trade, error)
	// GetPendingTradesByListingId returns the pending trades of a listing.
	GetPendingTradesByListingId(ctx context.Context, listingID int64) ([]Trade, error)
	// GetPendingTradeByListingAndUser returns the pending trade of the given
	// user for the listing, or nil if there is none.
	GetPendingTradeByListingAndUser(
		ctx context.Context, listingID, userID int64,
	) (*Trade, error)
	// UpdateTrade allows to commit changes to a trade atomically. The updated
	// trade is stored only if nobody else changed it in the meantime,
	// otherwise ErrConcurrentModification is returned.
	UpdateTrade(
		ctx context.Context,
		id int64,
		updateFn func(t *Trade) (*Trade, error),
	) (*Trade, error)
	// DeleteTrade removes a trade and its offered cards.
	DeleteTrade(ctx context.Context, id int64) error
}
