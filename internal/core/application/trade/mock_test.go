package trade_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/domain"
	"github.com/251027-Java/P3-Group2/trade-service/internal/core/ports"
)

type mockListingService struct {
	mock.Mock
}

func (m *mockListingService) GetListing(
	ctx context.Context, id int64,
) (*ports.Listing, error) {
	args := m.Called(ctx, id)
	var res *ports.Listing
	if a := args.Get(0); a != nil {
		res = a.(*ports.Listing)
	}
	return res, args.Error(1)
}

func (m *mockListingService) MarkListingCompleted(
	ctx context.Context, id int64,
) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) GetUser(
	ctx context.Context, id int64,
) (*ports.User, error) {
	args := m.Called(ctx, id)
	var res *ports.User
	if a := args.Get(0); a != nil {
		res = a.(*ports.User)
	}
	return res, args.Error(1)
}

// racingRepoManager simulates a concurrent update happening right after a
// trade is read.
type racingRepoManager struct {
	ports.RepoManager
}

func (m racingRepoManager) TradeRepository() domain.TradeRepository {
	return racingTradeRepository{m.RepoManager.TradeRepository()}
}

type racingTradeRepository struct {
	domain.TradeRepository
}

func (r racingTradeRepository) GetTradeById(
	ctx context.Context, id int64,
) (*domain.Trade, error) {
	trade, err := r.TradeRepository.GetTradeById(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := r.TradeRepository.UpdateTrade(
		ctx, id, func(t *domain.Trade) (*domain.Trade, error) { return t, nil },
	); err != nil {
		return nil, err
	}
	return trade, nil
}
