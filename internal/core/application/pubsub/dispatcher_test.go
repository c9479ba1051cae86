package pubsub_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/application/pubsub"
	"github.com/251027-Java/P3-Group2/trade-service/internal/core/domain"
	"github.com/251027-Java/P3-Group2/trade-service/internal/core/ports"
	"github.com/251027-Java/P3-Group2/trade-service/internal/infrastructure/storage/db/inmemory"
)

func TestDispatcherFlush(t *testing.T) {
	t.Run("publishes_due_events", func(t *testing.T) {
		outbox := inmemory.NewRepoManager().OutboxRepository()
		addEvents(t, outbox, 3)

		publisher := &mockPublisher{}
		publisher.On("Publish", mock.Anything, mock.MatchedBy(func(msg ports.Message) bool {
			return msg.Topic == "trade-events"
		})).Return(nil)

		dispatcher, err := pubsub.NewDispatcher(outbox, publisher, pubsub.DispatcherOpts{})
		require.NoError(t, err)

		sent, err := dispatcher.Flush(ctx)
		require.NoError(t, err)
		require.Equal(t, 3, sent)
		publisher.AssertNumberOfCalls(t, "Publish", 3)

		events, err := outbox.GetEventsByStatus(ctx, domain.OutboxStatusSent)
		require.NoError(t, err)
		require.Len(t, events, 3)
		for _, e := range events {
			publisher.AssertCalled(t, "Publish", mock.Anything, ports.Message{
				ID:      e.ID,
				Topic:   e.Topic,
				Key:     e.Key,
				Payload: e.Payload,
			})
		}

		sent, err = dispatcher.Flush(ctx)
		require.NoError(t, err)
		require.Zero(t, sent)
		publisher.AssertNumberOfCalls(t, "Publish", 3)
	})

	t.Run("respects_batch_size", func(t *testing.T) {
		outbox := inmemory.NewRepoManager().OutboxRepository()
		addEvents(t, outbox, 5)

		publisher := &mockPublisher{}
		publisher.On("Publish", mock.Anything, mock.Anything).
			Return(nil)

		dispatcher, err := pubsub.NewDispatcher(
			outbox, publisher, pubsub.DispatcherOpts{BatchSize: 2},
		)
		require.NoError(t, err)

		sent, err := dispatcher.Flush(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, sent)

		events, err := outbox.GetEventsByStatus(ctx, domain.OutboxStatusPending)
		require.NoError(t, err)
		require.Len(t, events, 3)
	})

	t.Run("retries_with_backoff", func(t *testing.T) {
		outbox := inmemory.NewRepoManager().OutboxRepository()
		addEvents(t, outbox, 1)

		publisher := &mockPublisher{}
		publisher.On("Publish", mock.Anything, mock.Anything).
			Return(fmt.Errorf("broker unreachable"))

		dispatcher, err := pubsub.NewDispatcher(outbox, publisher, pubsub.DispatcherOpts{})
		require.NoError(t, err)

		before := time.Now().UTC()
		sent, err := dispatcher.Flush(ctx)
		require.NoError(t, err)
		require.Zero(t, sent)

		events, err := outbox.GetEventsByStatus(ctx, domain.OutboxStatusPending)
		require.NoError(t, err)
		require.Len(t, events, 1)
		event := events[0]
		require.Equal(t, 1, event.Attempts)
		require.Equal(t, "broker unreachable", event.LastError)
		require.True(t, event.NextAttemptAt.After(before))

		// Not due yet, nothing is published.
		sent, err = dispatcher.Flush(ctx)
		require.NoError(t, err)
		require.Zero(t, sent)
		publisher.AssertNumberOfCalls(t, "Publish", 1)
	})

	t.Run("gives_up_after_max_attempts", func(t *testing.T) {
		outbox := inmemory.NewRepoManager().OutboxRepository()
		addEvents(t, outbox, 1)

		publisher := &mockPublisher{}
		publisher.On("Publish", mock.Anything, mock.Anything).
			Return(fmt.Errorf("broker unreachable"))

		dispatcher, err := pubsub.NewDispatcher(
			outbox, publisher, pubsub.DispatcherOpts{MaxAttempts: 1},
		)
		require.NoError(t, err)

		_, err = dispatcher.Flush(ctx)
		require.NoError(t, err)

		events, err := outbox.GetEventsByStatus(ctx, domain.OutboxStatusDead)
		require.NoError(t, err)
		require.Len(t, events, 1)
	})
}

func TestDispatcherStartStop(t *testing.T) {
	outbox := inmemory.NewRepoManager().OutboxRepository()
	addEvents(t, outbox, 2)

	publisher := &mockPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything).
		Return(nil)

	dispatcher, err := pubsub.NewDispatcher(
		outbox, publisher, pubsub.DispatcherOpts{Interval: 10 * time.Millisecond},
	)
	require.NoError(t, err)

	dispatcher.Start()
	dispatcher.Start()
	require.Eventually(t, func() bool {
		events, _ := outbox.GetEventsByStatus(ctx, domain.OutboxStatusSent)
		return len(events) == 2
	}, 2*time.Second, 10*time.Millisecond)
	dispatcher.Stop()
	dispatcher.Stop()
}

func TestFailingNewDispatcher(t *testing.T) {
	outbox := inmemory.NewRepoManager().OutboxRepository()

	_, err := pubsub.NewDispatcher(nil, &mockPublisher{}, pubsub.DispatcherOpts{})
	require.Error(t, err)
	_, err = pubsub.NewDispatcher(outbox, nil, pubsub.DispatcherOpts{})
	require.Error(t, err)
}

func addEvents(t *testing.T, outbox domain.OutboxRepository, num int) {
	for i := 0; i < num; i++ {
		event := domain.NewOutboxEvent(
			"trade-events", fmt.Sprint(i+1), []byte(`{"eventType":"TRADE_CREATED"}`),
		)
		event.CreatedAt = event.CreatedAt.Add(time.Duration(i) * time.Millisecond)
		require.NoError(t, outbox.AddEvent(ctx, event))
	}
}
