package redisbroker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/require"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/ports"
	redisbroker "github.com/251027-Java/P3-Group2/trade-service/internal/infrastructure/broker/redis"
)

func TestPublish(t *testing.T) {
	db, mock := redismock.NewClientMock()
	pub := redisbroker.NewPublisher(db)

	payload := []byte(`{"eventType":"TRADE_CREATED","tradeId":1}`)
	mock.ExpectPublish("trade-events", payload).SetVal(1)

	err := pub.Publish(context.Background(), ports.Message{
		ID: "event-1", Topic: "trade-events", Key: "1", Payload: payload,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	pub := redisbroker.NewPublisher(db)

	payload := []byte(`{}`)
	mock.ExpectPublish("trade-events", payload).SetErr(errors.New("connection refused"))

	err := pub.Publish(context.Background(), ports.Message{
		ID: "event-1", Topic: "trade-events", Key: "1", Payload: payload,
	})
	require.Error(t, err)
}

func TestPublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := redisbroker.NewClient("localhost:6379")
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("redis not available, skipping integration test")
		return
	}

	sub := redisbroker.NewSubscriber(client)
	msgs, err := sub.Subscribe(ctx, "test-listing-deleted")
	require.NoError(t, err)

	pub := redisbroker.NewPublisher(redisbroker.NewClient("localhost:6379"))
	defer pub.Close()

	payload := []byte(`{"listingId":7}`)
	require.NoError(t, pub.Publish(ctx, ports.Message{
		Topic: "test-listing-deleted", Payload: payload,
	}))

	select {
	case msg := <-msgs:
		require.Equal(t, "test-listing-deleted", msg.Topic)
		require.Equal(t, payload, msg.Payload)
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}
