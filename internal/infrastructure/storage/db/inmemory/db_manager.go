package inmemory

import (
	"sync"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/domain"
	"github.com/251027-Java/P3-Group2/trade-service/internal/core/ports"
)

type repoManager struct {
	tradeRepository  domain.TradeRepository
	outboxRepository domain.OutboxRepository
}

// NewRepoManager returns a RepoManager that keeps everything in memory.
func NewRepoManager() ports.RepoManager {
	tradeStore := &tradeInmemoryStore{
		trades:         make(map[int64]domain.Trade),
		pendingByOwner: make(map[pendingKey]int64),
		locker:         &sync.RWMutex{},
	}
	outboxStore := &outboxInmemoryStore{
		events: make(map[string]domain.OutboxEvent),
		locker: &sync.RWMutex{},
	}

	return &repoManager{
		tradeRepository:  NewTradeRepositoryImpl(tradeStore),
		outboxRepository: NewOutboxRepositoryImpl(outboxStore),
	}
}

func (r *repoManager) TradeRepository() domain.TradeRepository {
	return r.tradeRepository
}

func (r *repoManager) OutboxRepository() domain.OutboxRepository {
	return r.outboxRepository
}

func (r *repoManager) Close() {}
