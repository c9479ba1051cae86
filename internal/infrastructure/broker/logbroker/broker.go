package logbroker

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/ports"
)

type publisher struct{}

// NewPublisher returns a Publisher that only logs the messages. It is used
// when the service runs without a broker.
func NewPublisher() ports.Publisher {
	return publisher{}
}

func (publisher) Publish(_ context.Context, msg ports.Message) error {
	log.WithFields(log.Fields{
		"id":    msg.ID,
		"topic": msg.Topic,
		"key":   msg.Key,
	}).Debugf("publish %s", msg.Payload)
	return nil
}

func (publisher) Close() error {
	return nil
}

type subscriber struct{}

// NewSubscriber returns a Subscriber that never receives anything.
func NewSubscriber() ports.Subscriber {
	return subscriber{}
}

func (subscriber) Subscribe(
	ctx context.Context, _ ...string,
) (<-chan ports.Message, error) {
	msgs := make(chan ports.Message)
	go func() {
		<-ctx.Done()
		close(msgs)
	}()
	return msgs, nil
}

func (subscriber) Close() error {
	return nil
}
