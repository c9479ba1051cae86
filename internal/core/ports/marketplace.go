package ports

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrListingNotFound is returned when the listing service does not know
	// the requested listing.
	ErrListingNotFound = errors.New("listing not found")
	// ErrUserNotFound is returned when the user service does not know the
	// requested user.
	ErrUserNotFound = errors.New("user not found")
	// ErrServiceUnreachable is returned when a remote service cannot be
	// reached, times out, or answers with an unexpected status.
	ErrServiceUnreachable = errors.New("remote service unreachable")
)

const (
	ListingStatusActive    ListingStatus = "active"
	ListingStatusCompleted ListingStatus = "completed"
	ListingStatusCancelled ListingStatus = "cancelled"
)

type ListingStatus string

// Listing is the snapshot of a listing owned by the listing service.
type Listing struct {
	ID              int64
	OwnerUserID     int64
	CardID          int64
	ConditionRating int
	Status          ListingStatus
	CreatedAt       time.Time
}

func (l Listing) IsActive() bool {
	return l.Status == ListingStatusActive
}

// User is the snapshot of a user owned by the user service.
type User struct {
	ID       int64
	Username string
	Email    string
	Role     string
}

// ListingService is the remote accessor for the listing service.
type ListingService interface {
	// GetListing returns the listing with the given id, ErrListingNotFound if
	// it does not exist or ErrServiceUnreachable.
	GetListing(ctx context.Context, id int64) (*Listing, error)
	// MarkListingCompleted asks the listing service to close the listing.
	MarkListingCompleted(ctx context.Context, id int64) error
}

// UserService is the remote accessor for the user service.
type UserService interface {
	// GetUser returns the user with the given id, ErrUserNotFound if it does
	// not exist or ErrServiceUnreachable.
	GetUser(ctx context.Context, id int64) (*User, error)
}
