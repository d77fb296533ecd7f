package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFields(name string) Fields {
	return Fields{
		CustomerName:    "Dana",
		CustomerPhone:   "+15550001111",
		RestaurantName:  name,
		RestaurantPhone: "+15551234567",
		Location:        "500 Curry Ave, San Jose, CA",
		Date:            "2026-02-22",
		Time:            "7:00 PM",
		PartySize:       4,
	}
}

func strptr(s string) *string { return &s }

func statusptr(s Status) *Status { return &s }

func TestMemStoreCreateAndGet(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	id, err := s.Create(ctx, testFields("Saffron House"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	b, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, "Saffron House", b.RestaurantName)
	assert.Equal(t, 4, b.PartySize)
	assert.Empty(t, b.RestaurantCallID)
	assert.False(t, b.CreatedAt.IsZero())

	_, err = s.Get(ctx, "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreCreateUniqueIDs(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := s.Create(ctx, testFields(fmt.Sprintf("Restaurant %d", i)))
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestMemStoreFindByCallID(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	id1, err := s.Create(ctx, testFields("Saffron House"))
	require.NoError(t, err)
	id2, err := s.Create(ctx, testFields("Masala Garden"))
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, id1, Update{RestaurantCallID: strptr("call-aaa")}))
	require.NoError(t, s.Update(ctx, id2, Update{ConfirmationCallID: strptr("call-bbb")}))

	b, err := s.FindByCallID(ctx, "call-aaa")
	require.NoError(t, err)
	assert.Equal(t, id1, b.ID)

	b, err = s.FindByCallID(ctx, "call-bbb")
	require.NoError(t, err)
	assert.Equal(t, id2, b.ID)

	_, err = s.FindByCallID(ctx, "call-zzz")
	assert.ErrorIs(t, err, ErrNotFound)

	// An empty call id never matches a record with unset call ids.
	_, err = s.FindByCallID(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreUpdatePartialMerge(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	id, err := s.Create(ctx, testFields("Saffron House"))
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, id, Update{
		Status:           statusptr(StatusCallingRestaurant),
		RestaurantCallID: strptr("call-1"),
	}))
	require.NoError(t, s.Update(ctx, id, Update{
		Status:              statusptr(StatusConfirmed),
		ConfirmationDetails: strptr("Booking confirmed for Dana"),
	}))

	b, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, b.Status)
	assert.Equal(t, "call-1", b.RestaurantCallID, "untouched field survives later updates")
	assert.Equal(t, "Booking confirmed for Dana", b.ConfirmationDetails)

	assert.ErrorIs(t, s.Update(ctx, "no-such-id", Update{Status: statusptr(StatusFailed)}), ErrNotFound)
}

func TestMemStoreConcurrentUpdatesDoNotCrossContaminate(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	id1, err := s.Create(ctx, testFields("Saffron House"))
	require.NoError(t, err)
	id2, err := s.Create(ctx, testFields("Masala Garden"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Update(ctx, id1, Update{
				Status:              statusptr(StatusConfirmed),
				ConfirmationDetails: strptr("details one"),
			})
		}()
		go func() {
			defer wg.Done()
			_ = s.Update(ctx, id2, Update{
				Status:           statusptr(StatusFailed),
				RestaurantCallID: strptr("call-two"),
			})
		}()
	}
	wg.Wait()

	b1, err := s.Get(ctx, id1)
	require.NoError(t, err)
	b2, err := s.Get(ctx, id2)
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, b1.Status)
	assert.Equal(t, "details one", b1.ConfirmationDetails)
	assert.Empty(t, b1.RestaurantCallID)

	assert.Equal(t, StatusFailed, b2.Status)
	assert.Equal(t, "call-two", b2.RestaurantCallID)
	assert.Empty(t, b2.ConfirmationDetails)
}

func TestMemStoreListAllNewestFirst(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Create(ctx, testFields(fmt.Sprintf("Restaurant %d", i)))
		require.NoError(t, err)
	}

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt))
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusNotified.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusError.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusCallingRestaurant.Terminal())
	assert.False(t, StatusConfirmed.Terminal())
	assert.False(t, StatusNotifyingUser.Terminal())
}
