package booking

import (
	"context"
	"errors"
)

// ErrNotFound is returned for unknown booking ids and unmatched call ids.
var ErrNotFound = errors.New("booking: not found")

// Store is durable keyed storage for bookings. Every mutation is durable
// before the call returns; Update is atomic with respect to other updates on
// the same id.
type Store interface {
	// Create allocates a fresh id, writes an initial record with status
	// pending, and returns the id.
	Create(ctx context.Context, f Fields) (string, error)

	// Get returns the booking with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (Booking, error)

	// FindByCallID returns the booking whose restaurant or confirmation call
	// id equals callID, or ErrNotFound. Call ids are provider-unique, so at
	// most one booking matches.
	FindByCallID(ctx context.Context, callID string) (Booking, error)

	// Update applies a partial field merge to the booking with the given id.
	// Returns ErrNotFound if the id does not exist.
	Update(ctx context.Context, id string, u Update) error

	// ListAll returns every booking, newest first.
	ListAll(ctx context.Context) ([]Booking, error)
}
