package rabbitmq

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/ports"
)

type publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a Publisher that routes every message to the
// marketplace exchange using the topic as routing key.
func NewPublisher(url string) (ports.Publisher, error) {
	conn, ch, err := SetupConn(url)
	if err != nil {
		return nil, err
	}
	return &publisher{conn, ch}, nil
}

func (p *publisher) Publish(ctx context.Context, msg ports.Message) error {
	return p.ch.PublishWithContext(ctx,
		ExchangeName, // exchange
		msg.Topic,    // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ID,
			Timestamp:    time.Now().UTC(),
			Headers:      amqp.Table{"key": msg.Key},
			Body:         msg.Payload,
		},
	)
}

func (p *publisher) Close() error {
	if err := p.ch.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}
