package pubsub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/domain"
	"github.com/251027-Java/P3-Group2/trade-service/internal/core/ports"
)

const (
	DefaultInterval    = time.Second
	DefaultBatchSize   = 50
	DefaultMaxAttempts = 10
	DefaultPublishRate = 100

	backoffBase = 500 * time.Millisecond
	backoffMax  = time.Minute
)

var (
	outboxPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trade_outbox_events_published_total",
		Help: "Outbox events delivered to the broker",
	}, []string{"topic"})

	outboxFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trade_outbox_publish_failures_total",
		Help: "Failed attempts to deliver outbox events",
	}, []string{"topic"})

	outboxDead = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trade_outbox_events_dead_total",
		Help: "Outbox events given up after too many attempts",
	}, []string{"topic"})
)

type DispatcherOpts struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	// PublishRate is the max number of events published per second.
	PublishRate int
}

func (o DispatcherOpts) withDefaults() DispatcherOpts {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.PublishRate <= 0 {
		o.PublishRate = DefaultPublishRate
	}
	return o
}

// Dispatcher periodically drains the outbox by publishing the due events
// to the broker.
type Dispatcher struct {
	outbox    domain.OutboxRepository
	publisher ports.Publisher
	opts      DispatcherOpts
	limiter   ratelimit.Limiter

	lock     *sync.Mutex
	quitChan chan struct{}
	doneChan chan struct{}
}

func NewDispatcher(
	outbox domain.OutboxRepository, publisher ports.Publisher,
	opts DispatcherOpts,
) (*Dispatcher, error) {
	if outbox == nil {
		return nil, fmt.Errorf("missing outbox repository")
	}
	if publisher == nil {
		return nil, fmt.Errorf("missing publisher")
	}
	opts = opts.withDefaults()

	return &Dispatcher{
		outbox:    outbox,
		publisher: publisher,
		opts:      opts,
		limiter:   ratelimit.New(opts.PublishRate),
		lock:      &sync.Mutex{},
	}, nil
}

// Start runs the dispatch loop in background. It's a no-op if already
// running.
func (d *Dispatcher) Start() {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.quitChan != nil {
		return
	}
	d.quitChan = make(chan struct{})
	d.doneChan = make(chan struct{})

	go d.loop(d.quitChan, d.doneChan)
	log.Debugf("outbox dispatcher started, interval %s", d.opts.Interval)
}

// Stop terminates the dispatch loop and waits for the ongoing batch.
func (d *Dispatcher) Stop() {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.quitChan == nil {
		return
	}
	close(d.quitChan)
	<-d.doneChan
	d.quitChan = nil
	d.doneChan = nil
	log.Debug("outbox dispatcher stopped")
}

func (d *Dispatcher) loop(quit, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(d.opts.Interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-quit
		cancel()
	}()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			if _, err := d.Flush(ctx); err != nil && ctx.Err() == nil {
				log.WithError(err).Warn("outbox dispatcher: failed to flush events")
			}
		}
	}
}

// Flush publishes one batch of due events and returns how many of them have
// been delivered.
func (d *Dispatcher) Flush(ctx context.Context) (int, error) {
	events, err := d.outbox.GetDueEvents(ctx, time.Now().UTC(), d.opts.BatchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, event := range events {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		d.limiter.Take()

		pubErr := d.publisher.Publish(ctx, ports.Message{
			ID:      event.ID,
			Topic:   event.Topic,
			Key:     event.Key,
			Payload: event.Payload,
		})
		if err := d.outbox.UpdateEvent(
			ctx, event.ID, func(e *domain.OutboxEvent) (*domain.OutboxEvent, error) {
				if pubErr == nil {
					e.MarkSent()
					return e, nil
				}
				e.MarkFailed(pubErr, backoff(e.Attempts), d.opts.MaxAttempts)
				return e, nil
			},
		); err != nil {
			log.WithError(err).Warnf(
				"outbox dispatcher: failed to update event %s", event.ID,
			)
			continue
		}

		if pubErr == nil {
			sent++
			outboxPublished.WithLabelValues(event.Topic).Inc()
			continue
		}

		outboxFailures.WithLabelValues(event.Topic).Inc()
		if event.Attempts+1 >= d.opts.MaxAttempts {
			outboxDead.WithLabelValues(event.Topic).Inc()
			log.WithError(pubErr).Errorf(
				"outbox dispatcher: giving up on event %s for topic %s after %d attempts",
				event.ID, event.Topic, event.Attempts+1,
			)
			continue
		}
		log.WithError(pubErr).Debugf(
			"outbox dispatcher: failed to publish event %s, will retry", event.ID,
		)
	}
	return sent, nil
}

// backoff returns the delay before the next attempt of an event that already
// failed the given number of times.
func backoff(attempts int) time.Duration {
	delay := backoffBase
	for i := 0; i < attempts; i++ {
		delay *= 2
		if delay >= backoffMax {
			return backoffMax
		}
	}
	return delay
}
