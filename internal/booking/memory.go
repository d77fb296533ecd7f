package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is a fully in-memory Store. Safe for concurrent use; intended for
// unit testing and development. Each record carries its own mutex so updates
// to different bookings never contend; the outer lock only guards the map.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]*memRecord
}

type memRecord struct {
	mu sync.Mutex
	b  Booking
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]*memRecord)}
}

func (s *MemStore) Create(_ context.Context, f Fields) (string, error) {
	id := uuid.NewString()
	rec := &memRecord{b: Booking{
		ID:              id,
		Status:          StatusPending,
		CreatedAt:       time.Now().UTC(),
		CustomerName:    f.CustomerName,
		CustomerPhone:   f.CustomerPhone,
		RestaurantName:  f.RestaurantName,
		RestaurantPhone: f.RestaurantPhone,
		Location:        f.Location,
		Date:            f.Date,
		Time:            f.Time,
		PartySize:       f.PartySize,
	}}

	s.mu.Lock()
	s.records[id] = rec
	s.mu.Unlock()
	return id, nil
}

func (s *MemStore) Get(_ context.Context, id string) (Booking, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return Booking{}, ErrNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.b, nil
}

func (s *MemStore) FindByCallID(_ context.Context, callID string) (Booking, error) {
	if callID == "" {
		return Booking{}, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		rec.mu.Lock()
		b := rec.b
		rec.mu.Unlock()
		if b.RestaurantCallID == callID || b.ConfirmationCallID == callID {
			return b, nil
		}
	}
	return Booking{}, ErrNotFound
}

func (s *MemStore) Update(_ context.Context, id string, u Update) error {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	rec.mu.Lock()
	u.apply(&rec.b)
	rec.mu.Unlock()
	return nil
}

func (s *MemStore) ListAll(_ context.Context) ([]Booking, error) {
	s.mu.RLock()
	out := make([]Booking, 0, len(s.records))
	for _, rec := range s.records {
		rec.mu.Lock()
		out = append(out, rec.b)
		rec.mu.Unlock()
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
