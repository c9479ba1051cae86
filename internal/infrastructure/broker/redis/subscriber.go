package redisbroker

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/ports"
)

type subscriber struct {
	client *redis.Client
}

func NewSubscriber(client *redis.Client) ports.Subscriber {
	return &subscriber{client}
}

func (s *subscriber) Subscribe(
	ctx context.Context, topics ...string,
) (<-chan ports.Message, error) {
	pubsub := s.client.Subscribe(ctx, topics...)
	// Wait for the subscription to be confirmed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("could not subscribe to %v: %w", topics, err)
	}

	in := pubsub.Channel()
	msgs := make(chan ports.Message)
	go func() {
		defer close(msgs)
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-in:
				if !ok {
					return
				}
				select {
				case msgs <- ports.Message{
					Topic:   m.Channel,
					Payload: []byte(m.Payload),
				}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return msgs, nil
}

func (s *subscriber) Close() error {
	return s.client.Close()
}

// NewClient returns a client for the redis server at the given address.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}
