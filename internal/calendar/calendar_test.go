package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tablecall/internal/booking"
)

func TestParseStart(t *testing.T) {
	got, err := ParseStart("2026-02-22", "7:00 PM")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 22, 19, 0, 0, 0, time.UTC), got)

	got, err = ParseStart("2026-02-22", "19:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 22, 19, 30, 0, 0, time.UTC), got)

	_, err = ParseStart("tonight", "7:00 PM")
	assert.Error(t, err)

	_, err = ParseStart("2026-02-22", "sevenish")
	assert.Error(t, err)
}

func TestAddBookingWithoutCredentials(t *testing.T) {
	c := New(context.Background(), Config{})
	_, err := c.AddBooking(context.Background(), booking.Booking{
		RestaurantName: "Saffron House",
		Date:           "2026-02-22",
		Time:           "7:00 PM",
	})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
