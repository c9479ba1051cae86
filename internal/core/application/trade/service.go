package trade

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/application"
	"github.com/251027-Java/P3-Group2/trade-service/internal/core/application/pubsub"
	"github.com/251027-Java/P3-Group2/trade-service/internal/core/domain"
	"github.com/251027-Java/P3-Group2/trade-service/internal/core/ports"
)

// Service is the negotiation engine. It validates trade proposals against
// the listing and user services and drives every trade through its
// lifecycle.
type Service struct {
	repoManager ports.RepoManager
	listingSvc  ports.ListingService
	userSvc     ports.UserService
	pubsub      *pubsub.Service
}

func NewService(
	repoManager ports.RepoManager,
	listingSvc ports.ListingService,
	userSvc ports.UserService,
	pubsubSvc *pubsub.Service,
) (*Service, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if listingSvc == nil {
		return nil, fmt.Errorf("missing listing service")
	}
	if userSvc == nil {
		return nil, fmt.Errorf("missing user service")
	}
	if pubsubSvc == nil {
		return nil, fmt.Errorf("missing pubsub service")
	}
	return &Service{repoManager, listingSvc, userSvc, pubsubSvc}, nil
}

// CreateTradeRequest opens a pending trade on an active listing on behalf of
// the requesting user.
func (s *Service) CreateTradeRequest(
	ctx context.Context,
	listingID, requestingUserID int64, offeredCardIDs []int64,
) (*domain.Trade, error) {
	if listingID <= 0 {
		return nil, application.ValidationError("%s", domain.ErrInvalidListingID)
	}
	if requestingUserID <= 0 {
		return nil, application.ValidationError("%s", domain.ErrInvalidUserID)
	}
	if err := domain.ValidateOfferedCards(offeredCardIDs); err != nil {
		return nil, application.ValidationError("%s", err)
	}

	log.Infof(
		"creating trade request for listing %d by user %d",
		listingID, requestingUserID,
	)

	listing, err := s.getListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !listing.IsActive() {
		return nil, application.InvalidOperationError(
			"Cannot create trade request for inactive listing",
		)
	}

	if _, err := s.userSvc.GetUser(ctx, requestingUserID); err != nil {
		logRemoteError(err, "user", requestingUserID)
		return nil, application.NotFoundError("User not found: %d", requestingUserID)
	}

	if listing.OwnerUserID == requestingUserID {
		return nil, application.InvalidOperationError(
			"Cannot create trade request for your own listing",
		)
	}

	repo := s.repoManager.TradeRepository()
	existing, err := repo.GetPendingTradeByListingAndUser(
		ctx, listingID, requestingUserID,
	)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, application.InvalidOperationError(
			"Pending trade request already exists for this listing",
		)
	}

	trade, err := domain.NewTrade(
		listingID, requestingUserID, listing.OwnerUserID, offeredCardIDs,
	)
	if err != nil {
		return nil, application.ValidationError("%s", err)
	}
	if err := repo.AddTrade(ctx, trade); err != nil {
		if errors.Is(err, domain.ErrPendingTradeExists) {
			return nil, application.InvalidOperationError(
				"Pending trade request already exists for this listing",
			)
		}
		return nil, err
	}
	log.Infof("trade created with id %d", trade.ID)

	if err := s.pubsub.PublishTradeCreatedEvent(ctx, *trade); err != nil {
		log.WithError(err).Warnf("failed to publish event for trade %d", trade.ID)
	}

	return trade, nil
}

// AcceptTradeRequest accepts a pending trade on behalf of the listing owner.
// The listing is marked completed and every competing pending trade for the
// same listing is rejected. Each of these steps commits on its own.
func (s *Service) AcceptTradeRequest(
	ctx context.Context, tradeID, listingOwnerID int64,
) (*domain.Trade, error) {
	if err := validateDecision(tradeID, listingOwnerID); err != nil {
		return nil, err
	}

	log.Infof(
		"accepting trade request %d by listing owner %d", tradeID, listingOwnerID,
	)

	trade, err := s.getPendingTradeOwnedBy(ctx, tradeID, listingOwnerID, "accept")
	if err != nil {
		return nil, err
	}

	acceptedTrade, err := s.updateTrade(ctx, *trade, (*domain.Trade).Accept)
	if err != nil {
		return nil, decisionError(err, "accept")
	}

	if err := s.listingSvc.MarkListingCompleted(ctx, trade.ListingID); err != nil {
		log.WithError(err).Warnf(
			"failed to mark listing %d as completed", trade.ListingID,
		)
	}

	s.rejectCompetingTrades(ctx, *acceptedTrade)

	if err := s.pubsub.PublishTradeAcceptedEvent(ctx, *acceptedTrade); err != nil {
		log.WithError(err).Warnf(
			"failed to publish event for trade %d", acceptedTrade.ID,
		)
	}

	log.Infof("trade request %d accepted", tradeID)
	return acceptedTrade, nil
}

// DeclineTradeRequest rejects a pending trade on behalf of the listing owner.
func (s *Service) DeclineTradeRequest(
	ctx context.Context, tradeID, listingOwnerID int64,
) (*domain.Trade, error) {
	if err := validateDecision(tradeID, listingOwnerID); err != nil {
		return nil, err
	}

	log.Infof(
		"declining trade request %d by listing owner %d", tradeID, listingOwnerID,
	)

	trade, err := s.getPendingTradeOwnedBy(ctx, tradeID, listingOwnerID, "decline")
	if err != nil {
		return nil, err
	}

	declinedTrade, err := s.updateTrade(ctx, *trade, (*domain.Trade).Reject)
	if err != nil {
		return nil, decisionError(err, "decline")
	}

	if err := s.pubsub.PublishTradeDeclinedEvent(ctx, *declinedTrade); err != nil {
		log.WithError(err).Warnf(
			"failed to publish event for trade %d", declinedTrade.ID,
		)
	}

	log.Infof("trade request %d declined", tradeID)
	return declinedTrade, nil
}

func (s *Service) GetTradeById(
	ctx context.Context, tradeID int64,
) (*domain.Trade, error) {
	trade, err := s.repoManager.TradeRepository().GetTradeById(ctx, tradeID)
	if err != nil {
		if errors.Is(err, domain.ErrTradeNotFound) {
			return nil, application.NotFoundError("Trade not found: %d", tradeID)
		}
		return nil, err
	}
	return trade, nil
}

func (s *Service) GetAllTrades(ctx context.Context) ([]domain.Trade, error) {
	trades, err := s.repoManager.TradeRepository().GetAllTrades(ctx)
	return tradeList(trades), err
}

func (s *Service) GetTradesByListingId(
	ctx context.Context, listingID int64,
) ([]domain.Trade, error) {
	trades, err := s.repoManager.TradeRepository().GetTradesByListingId(
		ctx, listingID,
	)
	return tradeList(trades), err
}

func (s *Service) GetTradesByRequestingUserId(
	ctx context.Context, userID int64,
) ([]domain.Trade, error) {
	trades, err := s.repoManager.TradeRepository().GetTradesByRequestingUserId(
		ctx, userID,
	)
	return tradeList(trades), err
}

func (s *Service) getListing(
	ctx context.Context, listingID int64,
) (*ports.Listing, error) {
	listing, err := s.listingSvc.GetListing(ctx, listingID)
	if err != nil {
		logRemoteError(err, "listing", listingID)
		return nil, application.NotFoundError("Listing not found: %d", listingID)
	}
	return listing, nil
}

// getPendingTradeOwnedBy loads the trade and makes sure it can be decided by
// the given user, who must be the current owner of the listing.
func (s *Service) getPendingTradeOwnedBy(
	ctx context.Context, tradeID, listingOwnerID int64, action string,
) (*domain.Trade, error) {
	trade, err := s.GetTradeById(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if !trade.IsPending() {
		return nil, application.InvalidOperationError(
			"Only pending trades can be %s", pastTense(action),
		)
	}

	listing, err := s.getListing(ctx, trade.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.OwnerUserID != listingOwnerID {
		return nil, application.InvalidOperationError(
			"Only the listing owner can %s trade requests", action,
		)
	}
	return trade, nil
}

// updateTrade applies the transition to the stored trade as long as it did
// not change since it was read.
func (s *Service) updateTrade(
	ctx context.Context, trade domain.Trade, transition func(*domain.Trade) error,
) (*domain.Trade, error) {
	return s.repoManager.TradeRepository().UpdateTrade(
		ctx, trade.ID, func(t *domain.Trade) (*domain.Trade, error) {
			if t.Version != trade.Version {
				return nil, domain.ErrConcurrentModification
			}
			if err := transition(t); err != nil {
				return nil, err
			}
			return t, nil
		},
	)
}

func (s *Service) rejectCompetingTrades(
	ctx context.Context, acceptedTrade domain.Trade,
) {
	trades, err := s.repoManager.TradeRepository().GetPendingTradesByListingId(
		ctx, acceptedTrade.ListingID,
	)
	if err != nil {
		log.WithError(err).Warnf(
			"failed to fetch competing trades for listing %d",
			acceptedTrade.ListingID,
		)
		return
	}

	for _, trade := range trades {
		if trade.ID == acceptedTrade.ID {
			continue
		}
		rejectedTrade, err := s.updateTrade(ctx, trade, (*domain.Trade).Reject)
		if err != nil {
			log.WithError(err).Warnf("failed to reject competing trade %d", trade.ID)
			continue
		}
		log.Debugf("competing trade %d rejected", trade.ID)

		if err := s.pubsub.PublishTradeDeclinedEvent(ctx, *rejectedTrade); err != nil {
			log.WithError(err).Warnf(
				"failed to publish event for trade %d", rejectedTrade.ID,
			)
		}
	}
}

func validateDecision(tradeID, listingOwnerID int64) error {
	if tradeID <= 0 {
		return application.ValidationError("trade id must be a positive number")
	}
	if listingOwnerID <= 0 {
		return application.ValidationError("%s", domain.ErrInvalidUserID)
	}
	return nil
}

func decisionError(err error, action string) error {
	switch {
	case errors.Is(err, domain.ErrTradeMustBePending):
		return application.InvalidOperationError(
			"Only pending trades can be %s", pastTense(action),
		)
	case errors.Is(err, domain.ErrConcurrentModification):
		return application.InvalidOperationError(
			"Trade was modified concurrently, retry later",
		)
	case errors.Is(err, domain.ErrTradeNotFound):
		return application.NotFoundError("%s", err)
	default:
		return err
	}
}

func logRemoteError(err error, resource string, id int64) {
	if errors.Is(err, ports.ErrServiceUnreachable) {
		log.WithError(err).Errorf("%s service unreachable while fetching %s %d",
			resource, resource, id,
		)
		return
	}
	log.WithError(err).Warnf("failed to fetch %s %d", resource, id)
}

func pastTense(action string) string {
	if strings.HasSuffix(action, "e") {
		return action + "d"
	}
	return action + "ed"
}

func tradeList(trades []domain.Trade) []domain.Trade {
	if trades == nil {
		return []domain.Trade{}
	}
	return trades
}
