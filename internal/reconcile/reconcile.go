// Package reconcile sweeps bookings whose outbound call never produced a
// completion report. Without it a lost report leaves a booking in
// calling_restaurant or notifying_user forever.
package reconcile

import (
	"context"
	"log"
	"time"

	"github.com/example/tablecall/internal/booking"
)

// Sweeper periodically scans for bookings stuck waiting on a call past the
// deadline. A stale restaurant leg is marked failed (the report is presumed
// lost and the reservation unverified); a stale customer leg is marked
// notified, since the reservation itself was already confirmed.
type Sweeper struct {
	Store    booking.Store
	Interval time.Duration

	// Deadline is how long a booking may wait on a completion report,
	// measured from creation.
	Deadline time.Duration

	now func() time.Time
}

func (s *Sweeper) Run(ctx context.Context) error {
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	s.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass. Exported so the server can also trigger it on demand.
func (s *Sweeper) Sweep(ctx context.Context) {
	all, err := s.Store.ListAll(ctx)
	if err != nil {
		log.Printf("[reconcile] list bookings failed: %v", err)
		return
	}

	cutoff := s.clock().Add(-s.Deadline)
	for _, b := range all {
		if !b.CreatedAt.Before(cutoff) {
			continue
		}

		var to booking.Status
		switch b.Status {
		case booking.StatusCallingRestaurant:
			to = booking.StatusFailed
		case booking.StatusNotifyingUser:
			to = booking.StatusNotified
		default:
			continue
		}

		if err := s.Store.Update(ctx, b.ID, booking.Update{Status: &to}); err != nil {
			log.Printf("[reconcile] booking %s: %v", b.ID, err)
			continue
		}
		log.Printf("[reconcile] booking %s stuck in %s past deadline, marked %s", b.ID, b.Status, to)
	}
}

func (s *Sweeper) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}
