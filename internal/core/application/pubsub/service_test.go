package pubsub_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/application/pubsub"
	"github.com/251027-Java/P3-Group2/trade-service/internal/core/domain"
	"github.com/251027-Java/P3-Group2/trade-service/internal/core/ports"
	"github.com/251027-Java/P3-Group2/trade-service/internal/infrastructure/storage/db/inmemory"
)

var ctx = context.Background()

func TestPublishTradeEvents(t *testing.T) {
	trade := domain.Trade{
		ID:                 7,
		ListingID:          3,
		RequestingUserID:   2,
		ListingOwnerUserID: 1,
		Status:             domain.TradeStatusPending,
	}

	tests := []struct {
		name      string
		publish   func(*pubsub.Service) error
		eventType string
	}{
		{
			name: "created",
			publish: func(s *pubsub.Service) error {
				return s.PublishTradeCreatedEvent(ctx, trade)
			},
			eventType: pubsub.EventTradeCreated,
		},
		{
			name: "accepted",
			publish: func(s *pubsub.Service) error {
				return s.PublishTradeAcceptedEvent(ctx, trade)
			},
			eventType: pubsub.EventTradeAccepted,
		},
		{
			name: "declined",
			publish: func(s *pubsub.Service) error {
				return s.PublishTradeDeclinedEvent(ctx, trade)
			},
			eventType: pubsub.EventTradeDeclined,
		},
	}

	for i := range tests {
		tt := tests[i]

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			outbox := inmemory.NewRepoManager().OutboxRepository()
			svc, err := pubsub.NewService(outbox)
			require.NoError(t, err)

			err = tt.publish(svc)
			require.NoError(t, err)

			events, err := outbox.GetEventsByStatus(ctx, domain.OutboxStatusPending)
			require.NoError(t, err)
			require.Len(t, events, 1)

			event := events[0]
			require.Equal(t, ports.TopicTradeEvents, event.Topic)
			require.Equal(t, "7", event.Key)

			payload := map[string]interface{}{}
			err = json.Unmarshal(event.Payload, &payload)
			require.NoError(t, err)
			require.Equal(t, tt.eventType, payload["eventType"])
			require.EqualValues(t, 7, payload["tradeId"])
			require.EqualValues(t, 3, payload["listingId"])
			require.EqualValues(t, 2, payload["requestingUserId"])
			require.NotZero(t, payload["timestamp"])
		})
	}
}

func TestNewServiceWithoutOutbox(t *testing.T) {
	svc, err := pubsub.NewService(nil)
	require.Error(t, err)
	require.Nil(t, svc)
}
