package trade

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/domain"
)

// HandleListingDeleted cancels every pending trade of a listing removed from
// the listing service. Trades in a terminal status are left untouched.
// Returns the number of cancelled trades.
func (s *Service) HandleListingDeleted(
	ctx context.Context, listingID int64,
) (int, error) {
	trades, err := s.repoManager.TradeRepository().GetPendingTradesByListingId(
		ctx, listingID,
	)
	if err != nil {
		return 0, err
	}

	count := s.cancelTrades(ctx, trades)
	log.Infof(
		"listing %d deleted, cancelled %d pending trade(s)", listingID, count,
	)
	return count, nil
}

// HandleUserDeleted cancels every pending trade either requested by the
// removed user or targeting one of their listings.
func (s *Service) HandleUserDeleted(
	ctx context.Context, userID int64,
) (int, error) {
	repo := s.repoManager.TradeRepository()

	requested, err := repo.GetTradesByRequestingUserId(ctx, userID)
	if err != nil {
		return 0, err
	}
	received, err := repo.GetTradesByListingOwnerUserId(ctx, userID)
	if err != nil {
		return 0, err
	}

	seen := make(map[int64]struct{})
	pending := make([]domain.Trade, 0)
	for _, trade := range append(requested, received...) {
		if _, ok := seen[trade.ID]; ok || !trade.IsPending() {
			continue
		}
		seen[trade.ID] = struct{}{}
		pending = append(pending, trade)
	}

	count := s.cancelTrades(ctx, pending)
	log.Infof("user %d deleted, cancelled %d pending trade(s)", userID, count)
	return count, nil
}

func (s *Service) cancelTrades(ctx context.Context, trades []domain.Trade) int {
	count := 0
	for _, trade := range trades {
		repo := s.repoManager.TradeRepository()
		if _, err := repo.UpdateTrade(
			ctx, trade.ID, func(t *domain.Trade) (*domain.Trade, error) {
				if err := t.Cancel(); err != nil {
					return nil, err
				}
				return t, nil
			},
		); err != nil {
			// Decided or cancelled in the meanwhile.
			if errors.Is(err, domain.ErrTradeMustBePending) {
				continue
			}
			log.WithError(err).Warnf("failed to cancel trade %d", trade.ID)
			continue
		}
		count++
	}
	return count
}
