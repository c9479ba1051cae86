package ports

import "context"

const (
	TopicTradeEvents    = "trade-events"
	TopicListingDeleted = "listing-deleted"
	TopicUserEvents     = "user-events"
)

// Message is what goes through the broker. The ID is stable across
// redeliveries of the same message so that consumers can deduplicate them.
type Message struct {
	ID      string
	Topic   string
	Key     string
	Payload []byte
}

// Publisher delivers a message to the broker.
type Publisher interface {
	// Publish sends the message payload for its topic. The key is used by
	// brokers supporting it to route or partition the message, the id by
	// those supporting message ids.
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber receives messages from the broker.
type Subscriber interface {
	// Subscribe starts consuming the given topics and returns a channel of
	// messages that is closed once the context is done or the subscription
	// breaks.
	Subscribe(ctx context.Context, topics ...string) (<-chan Message, error)
	Close() error
}
