package redisbroker

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/ports"
)

type publisher struct {
	client *redis.Client
}

// NewPublisher returns a Publisher on top of redis pub/sub channels, one per
// topic. Redis has no notion of message key or id, so they are dropped.
func NewPublisher(client *redis.Client) ports.Publisher {
	return &publisher{client}
}

func (p *publisher) Publish(ctx context.Context, msg ports.Message) error {
	return p.client.Publish(ctx, msg.Topic, msg.Payload).Err()
}

func (p *publisher) Close() error {
	return p.client.Close()
}
