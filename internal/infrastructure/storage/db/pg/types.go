package postgresdb

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/domain"
)

type tradeModel struct {
	bun.BaseModel `bun:"table:trades,alias:t"`

	ID                 int64               `bun:"id,pk,autoincrement"`
	ListingID          int64               `bun:"listing_id,notnull"`
	RequestingUserID   int64               `bun:"requesting_user_id,notnull"`
	ListingOwnerUserID int64               `bun:"listing_owner_user_id,notnull"`
	Status             string              `bun:"status,notnull,default:'pending'"`
	CreatedAt          time.Time           `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt          time.Time           `bun:"updated_at,notnull,default:current_timestamp"`
	Version            int64               `bun:"version,notnull,default:0"`
	OfferedCards       []*offeredCardModel `bun:"rel:has-many,join:id=trade_id"`
}

type offeredCardModel struct {
	bun.BaseModel `bun:"table:trade_offered_cards,alias:oc"`

	ID       int64 `bun:"id,pk,autoincrement"`
	TradeID  int64 `bun:"trade_id,notnull"`
	CardID   int64 `bun:"card_id,notnull"`
	Position int   `bun:"position,notnull"`
}

type outboxEventModel struct {
	bun.BaseModel `bun:"table:outbox_events,alias:oe"`

	ID            string    `bun:"id,pk"`
	Topic         string    `bun:"topic,notnull"`
	Key           string    `bun:"key,notnull"`
	Payload       []byte    `bun:"payload,type:bytea,notnull"`
	Status        string    `bun:"status,notnull"`
	Attempts      int       `bun:"attempts,notnull"`
	LastError     string    `bun:"last_error,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
	NextAttemptAt time.Time `bun:"next_attempt_at,notnull"`
	SentAt        time.Time `bun:"sent_at,nullzero"`
}

func toTradeModel(trade domain.Trade) *tradeModel {
	cards := make([]*offeredCardModel, 0, len(trade.OfferedCards))
	for _, c := range trade.OfferedCards {
		cards = append(cards, &offeredCardModel{
			ID:       c.ID,
			TradeID:  trade.ID,
			CardID:   c.CardID,
			Position: c.Position,
		})
	}
	return &tradeModel{
		ID:                 trade.ID,
		ListingID:          trade.ListingID,
		RequestingUserID:   trade.RequestingUserID,
		ListingOwnerUserID: trade.ListingOwnerUserID,
		Status:             trade.Status.String(),
		CreatedAt:          trade.CreatedAt,
		UpdatedAt:          trade.UpdatedAt,
		Version:            int64(trade.Version),
		OfferedCards:       cards,
	}
}

func (m *tradeModel) toDomain() domain.Trade {
	cards := make([]domain.OfferedCard, 0, len(m.OfferedCards))
	for _, c := range m.OfferedCards {
		cards = append(cards, domain.OfferedCard{
			ID:       c.ID,
			TradeID:  c.TradeID,
			CardID:   c.CardID,
			Position: c.Position,
		})
	}
	return domain.Trade{
		ID:                 m.ID,
		ListingID:          m.ListingID,
		RequestingUserID:   m.RequestingUserID,
		ListingOwnerUserID: m.ListingOwnerUserID,
		Status:             domain.TradeStatus(m.Status),
		OfferedCards:       cards,
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
		Version:            uint64(m.Version),
	}
}

func toOutboxEventModel(e domain.OutboxEvent) *outboxEventModel {
	return &outboxEventModel{
		ID:            e.ID,
		Topic:         e.Topic,
		Key:           e.Key,
		Payload:       e.Payload,
		Status:        string(e.Status),
		Attempts:      e.Attempts,
		LastError:     e.LastError,
		CreatedAt:     e.CreatedAt,
		NextAttemptAt: e.NextAttemptAt,
		SentAt:        e.SentAt,
	}
}

func (m *outboxEventModel) toDomain() domain.OutboxEvent {
	return domain.OutboxEvent{
		ID:            m.ID,
		Topic:         m.Topic,
		Key:           m.Key,
		Payload:       m.Payload,
		Status:        domain.OutboxStatus(m.Status),
		Attempts:      m.Attempts,
		LastError:     m.LastError,
		CreatedAt:     m.CreatedAt.UTC(),
		NextAttemptAt: m.NextAttemptAt.UTC(),
		SentAt:        m.SentAt.UTC(),
	}
}
