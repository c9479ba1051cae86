package domain

import (
	"fmt"
	"time"
)

const (
	TradeStatusPending   TradeStatus = "pending"
	TradeStatusAccepted  TradeStatus = "accepted"
	TradeStatusRejected  TradeStatus = "rejected"
	TradeStatusCancelled TradeStatus = "cancelled"
)

// TradeStatus is the stage of a trade proposal's lifecycle.
type TradeStatus string

func (s TradeStatus) String() string {
	return string(s)
}

// IsValid returns whether the status is one of the known ones.
func (s TradeStatus) IsValid() bool {
	switch s {
	case TradeStatusPending, TradeStatusAccepted,
		TradeStatusRejected, TradeStatusCancelled:
		return true
	default:
		return false
	}
}

// ParseTradeStatus converts the given string to a TradeStatus.
func ParseTradeStatus(str string) (TradeStatus, error) {
	status := TradeStatus(str)
	if !status.IsValid() {
		return "", fmt.Errorf("unknown trade status %q", str)
	}
	return status, nil
}

// OfferedCard is a card the requesting user puts on the table. CardID is an
// opaque reference to the catalog and is never resolved locally.
type OfferedCard struct {
	ID       int64
	TradeID  int64
	CardID   int64
	Position int
}

// Trade is a proposal from a requesting user to acquire the card of a listing
// in exchange for a fixed set of offered cards.
type Trade struct {
	ID                 int64
	ListingID          int64
	RequestingUserID   int64
	ListingOwnerUserID int64
	Status             TradeStatus
	OfferedCards       []OfferedCard
	CreatedAt          time.Time
	UpdatedAt          time.Time
	// Version is bumped by the store at every successful update.
	Version uint64
}

// NewTrade returns a pending trade for the given listing. The listing owner
// is the one resolved at creation time.
func NewTrade(
	listingID, requestingUserID, listingOwnerUserID int64, cardIDs []int64,
) (*Trade, error) {
	if listingID <= 0 {
		return nil, ErrInvalidListingID
	}
	if requestingUserID <= 0 || listingOwnerUserID <= 0 {
		return nil, ErrInvalidUserID
	}
	if err := ValidateOfferedCards(cardIDs); err != nil {
		return nil, err
	}

	cards := make([]OfferedCard, 0, len(cardIDs))
	for i, cardID := range cardIDs {
		cards = append(cards, OfferedCard{CardID: cardID, Position: i})
	}

	now := time.Now().UTC()
	return &Trade{
		ListingID:          listingID,
		RequestingUserID:   requestingUserID,
		ListingOwnerUserID: listingOwnerUserID,
		Status:             TradeStatusPending,
		OfferedCards:       cards,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// ValidateOfferedCards makes sure at least one card is offered and every
// card id is positive and unique.
func ValidateOfferedCards(cardIDs []int64) error {
	if len(cardIDs) <= 0 {
		return ErrNoOfferedCards
	}
	seen := make(map[int64]struct{}, len(cardIDs))
	for _, cardID := range cardIDs {
		if cardID <= 0 {
			return ErrInvalidCardID
		}
		if _, ok := seen[cardID]; ok {
			return ErrDuplicatedOfferedCard
		}
		seen[cardID] = struct{}{}
	}
	return nil
}

// Accept moves a pending trade to accepted.
func (t *Trade) Accept() error {
	return t.transition(TradeStatusAccepted)
}

// Reject moves a pending trade to rejected, either because the listing owner
// declined it or because a competing trade was accepted.
func (t *Trade) Reject() error {
	return t.transition(TradeStatusRejected)
}

// Cancel moves a pending trade to cancelled. It is used when the listing or
// one of the involved users is removed upstream.
func (t *Trade) Cancel() error {
	return t.transition(TradeStatusCancelled)
}

func (t *Trade) IsPending() bool {
	return t.Status == TradeStatusPending
}

func (t *Trade) IsAccepted() bool {
	return t.Status == TradeStatusAccepted
}

func (t *Trade) IsRejected() bool {
	return t.Status == TradeStatusRejected
}

func (t *Trade) IsCancelled() bool {
	return t.Status == TradeStatusCancelled
}

// IsTerminal returns whether the trade reached a status it can never leave.
func (t *Trade) IsTerminal() bool {
	return t.IsAccepted() || t.IsRejected() || t.IsCancelled()
}

// OfferedCardIDs returns the catalog ids of the offered cards in the order
// they were offered.
func (t *Trade) OfferedCardIDs() []int64 {
	ids := make([]int64, 0, len(t.OfferedCards))
	for _, c := range t.OfferedCards {
		ids = append(ids, c.CardID)
	}
	return ids
}

func (t *Trade) transition(status TradeStatus) error {
	if !t.IsPending() {
		return ErrTradeMustBePending
	}
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return nil
}
