package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/domain"
	"github.com/251027-Java/P3-Group2/trade-service/internal/core/ports"
)

const (
	EventTradeCreated  = "TRADE_CREATED"
	EventTradeAccepted = "TRADE_ACCEPTED"
	EventTradeDeclined = "TRADE_DECLINED"
)

// Service turns trade state changes into events and stores them in the
// outbox. Delivery to the broker is up to the Dispatcher.
type Service struct {
	outbox domain.OutboxRepository
}

func NewService(outbox domain.OutboxRepository) (*Service, error) {
	if outbox == nil {
		return nil, fmt.Errorf("missing outbox repository")
	}
	return &Service{outbox}, nil
}

func (s *Service) PublishTradeCreatedEvent(
	ctx context.Context, trade domain.Trade,
) error {
	return s.publishTradeEvent(ctx, EventTradeCreated, trade)
}

func (s *Service) PublishTradeAcceptedEvent(
	ctx context.Context, trade domain.Trade,
) error {
	return s.publishTradeEvent(ctx, EventTradeAccepted, trade)
}

func (s *Service) PublishTradeDeclinedEvent(
	ctx context.Context, trade domain.Trade,
) error {
	return s.publishTradeEvent(ctx, EventTradeDeclined, trade)
}

func (s *Service) publishTradeEvent(
	ctx context.Context, eventType string, trade domain.Trade,
) error {
	payload := map[string]interface{}{
		"eventType":        eventType,
		"tradeId":          trade.ID,
		"listingId":        trade.ListingID,
		"requestingUserId": trade.RequestingUserID,
		"timestamp":        time.Now().UnixMilli(),
	}
	message, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	key := strconv.FormatInt(trade.ID, 10)
	event := domain.NewOutboxEvent(ports.TopicTradeEvents, key, message)
	if err := s.outbox.AddEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to enqueue %s event: %w", eventType, err)
	}
	return nil
}
