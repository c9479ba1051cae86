package domain

import "errors"

var (
	// ErrInvalidListingID ...
	ErrInvalidListingID = errors.New("listing id must be a positive number")
	// ErrInvalidUserID ...
	ErrInvalidUserID = errors.New("user id must be a positive number")
	// ErrInvalidCardID ...
	ErrInvalidCardID = errors.New("offered card id must be a positive number")
	// ErrNoOfferedCards is returned when a trade is proposed without any card
	// in exchange.
	ErrNoOfferedCards = errors.New("at least one card must be offered")
	// ErrDuplicatedOfferedCard ...
	ErrDuplicatedOfferedCard = errors.New("the same card cannot be offered twice")
	// ErrTradeMustBePending is returned when trying to change the status of a
	// trade that already reached a terminal one.
	ErrTradeMustBePending = errors.New("trade must be pending")
)

var (
	// ErrTradeNotFound ...
	ErrTradeNotFound = errors.New("trade not found")
	// ErrTradeExists is returned when restoring a trade whose id is taken.
	ErrTradeExists = errors.New("trade already exists")
	// ErrPendingTradeExists is returned by the store when a second pending
	// trade for the same listing and requesting user is persisted.
	ErrPendingTradeExists = errors.New(
		"pending trade request already exists for this listing",
	)
	// ErrConcurrentModification is returned when a trade changed in the store
	// between the moment it was read and the one it was updated.
	ErrConcurrentModification = errors.New("trade was modified concurrently")
	// ErrOutboxEventNotFound ...
	ErrOutboxEventNotFound = errors.New("outbox event not found")
)
