package eventsinterface

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/ports"
	"github.com/251027-Java/P3-Group2/trade-service/internal/interfaces"
)

const eventUserDeleted = "USER_DELETED"

// Reconciler is the subset of the negotiation engine reacting to upstream
// deletions.
type Reconciler interface {
	HandleListingDeleted(ctx context.Context, listingID int64) (int, error)
	HandleUserDeleted(ctx context.Context, userID int64) (int, error)
}

type ServiceOpts struct {
	Subscriber ports.Subscriber
	TradeSvc   Reconciler
}

func (o ServiceOpts) validate() error {
	if o.Subscriber == nil {
		return fmt.Errorf("missing subscriber")
	}
	if o.TradeSvc == nil {
		return fmt.Errorf("trade app service must not be null")
	}
	return nil
}

type service struct {
	opts ServiceOpts

	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

// NewService returns a consumer of listing-deleted and user-events messages
// that cancels the pending trades affected by the deletion.
func NewService(opts ServiceOpts) (interfaces.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}
	return &service{opts: opts, wg: &sync.WaitGroup{}}, nil
}

func (s *service) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	msgs, err := s.opts.Subscriber.Subscribe(
		ctx, ports.TopicListingDeleted, ports.TopicUserEvents,
	)
	if err != nil {
		cancel()
		return err
	}
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					log.Warn("event subscription closed")
					return
				}
				HandleMessage(ctx, s.opts.TradeSvc, msg)
			}
		}
	}()

	log.Infof(
		"listening for events on topics %s, %s",
		ports.TopicListingDeleted, ports.TopicUserEvents,
	)
	return nil
}

func (s *service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	log.Debug("stopped event consumer")
}

// HandleMessage decodes an inbound message and applies it. Malformed or
// unknown messages are logged and dropped.
func HandleMessage(ctx context.Context, svc Reconciler, msg ports.Message) {
	switch msg.Topic {
	case ports.TopicListingDeleted:
		var event listingDeletedEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			log.WithError(err).Warn("dropping malformed listing-deleted event")
			return
		}
		if event.ListingID == nil {
			log.Warn("dropping listing-deleted event without listingId")
			return
		}
		if _, err := svc.HandleListingDeleted(ctx, int64(*event.ListingID)); err != nil {
			log.WithError(err).Errorf(
				"failed to handle deletion of listing %d", *event.ListingID,
			)
		}

	case ports.TopicUserEvents:
		var event userEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			log.WithError(err).Warn("dropping malformed user event")
			return
		}
		if event.EventType != eventUserDeleted {
			log.Debugf("ignoring user event %s", event.EventType)
			return
		}
		if event.UserID == nil {
			log.Warn("dropping USER_DELETED event without userId")
			return
		}
		if _, err := svc.HandleUserDeleted(ctx, int64(*event.UserID)); err != nil {
			log.WithError(err).Errorf(
				"failed to handle deletion of user %d", *event.UserID,
			)
		}

	default:
		log.Debugf("ignoring message for unknown topic %s", msg.Topic)
	}
}

type listingDeletedEvent struct {
	ListingID *id `json:"listingId"`
}

type userEvent struct {
	EventType string `json:"eventType"`
	UserID    *id    `json:"userId"`
}

// id accepts both a JSON number and a numeric string.
type id int64

func (i *id) UnmarshalJSON(buf []byte) error {
	str := strings.Trim(string(buf), `"`)
	v, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", buf)
	}
	*i = id(v)
	return nil
}
