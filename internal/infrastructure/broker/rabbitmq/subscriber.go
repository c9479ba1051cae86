package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/ports"
)

type subscriber struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// NewSubscriber returns a Subscriber consuming from a durable queue with the
// given name, so that messages are not lost while the service is down. An
// empty name makes the broker assign a temporary exclusive queue.
func NewSubscriber(url, queue string) (ports.Subscriber, error) {
	conn, ch, err := SetupConn(url)
	if err != nil {
		return nil, err
	}
	return &subscriber{conn, ch, queue}, nil
}

func (s *subscriber) Subscribe(
	ctx context.Context, topics ...string,
) (<-chan ports.Message, error) {
	durable := len(s.queue) > 0
	q, err := s.ch.QueueDeclare(
		s.queue,  // name
		durable,  // durable
		!durable, // delete when unused
		!durable, // exclusive
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("could not declare queue: %w", err)
	}

	for _, topic := range topics {
		if err := s.ch.QueueBind(
			q.Name,       // queue name
			topic,        // routing key
			ExchangeName, // exchange
			false,
			nil,
		); err != nil {
			return nil, fmt.Errorf("could not bind queue to %s: %w", topic, err)
		}
	}

	deliveries, err := s.ch.Consume(
		q.Name, // queue
		"",     // consumer tag
		true,   // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return nil, fmt.Errorf("could not start consume: %w", err)
	}

	msgs := make(chan ports.Message)
	go func() {
		defer close(msgs)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				key, _ := d.Headers["key"].(string)
				select {
				case msgs <- ports.Message{
					ID:      d.MessageId,
					Topic:   d.RoutingKey,
					Key:     key,
					Payload: d.Body,
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
	if err := s.ch.Close(); err != nil {
		return err
	}
	return s.conn.Close()
}
