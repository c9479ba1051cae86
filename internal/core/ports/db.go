package ports

import "github.com/251027-Java/P3-Group2/trade-service/internal/core/domain"

// RepoManager gives access to the repositories of the trade service.
type RepoManager interface {
	TradeRepository() domain.TradeRepository
	OutboxRepository() domain.OutboxRepository
	Close()
}
