package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/tablecall/internal/db"
)

const bookingColumns = `id,status,created_at,customer_name,customer_phone,restaurant_name,restaurant_phone,location,reservation_date,reservation_time,party_size,restaurant_call_id,confirmation_call_id,confirmation_details,calendar_event_id`

// PGStore persists bookings in postgres. Update is a single UPDATE statement,
// so concurrent updates to the same row serialize at the database and updates
// to different rows never contend.
type PGStore struct {
	db *db.DB
}

var _ Store = (*PGStore)(nil)

func NewPGStore(d *db.DB) *PGStore { return &PGStore{db: d} }

func (s *PGStore) Create(ctx context.Context, f Fields) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(ctx, `
INSERT INTO bookings(id,status,created_at,customer_name,customer_phone,restaurant_name,restaurant_phone,location,reservation_date,reservation_time,party_size)
VALUES ($1,$2,now(),$3,$4,$5,$6,$7,$8,$9,$10)`,
		id, StatusPending, f.CustomerName, f.CustomerPhone, f.RestaurantName, f.RestaurantPhone, f.Location, f.Date, f.Time, f.PartySize,
	)
	if err != nil {
		return "", fmt.Errorf("create booking: %w", err)
	}
	return id, nil
}

func (s *PGStore) Get(ctx context.Context, id string) (Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	return scanBooking(row)
}

func (s *PGStore) FindByCallID(ctx context.Context, callID string) (Booking, error) {
	row := s.db.QueryRow(ctx, `
SELECT `+bookingColumns+` FROM bookings
WHERE restaurant_call_id=$1 OR confirmation_call_id=$1
LIMIT 1`, callID)
	return scanBooking(row)
}

func (s *PGStore) Update(ctx context.Context, id string, u Update) error {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if u.Status != nil {
		add("status", *u.Status)
	}
	if u.RestaurantCallID != nil {
		add("restaurant_call_id", *u.RestaurantCallID)
	}
	if u.ConfirmationCallID != nil {
		add("confirmation_call_id", *u.ConfirmationCallID)
	}
	if u.ConfirmationDetails != nil {
		add("confirmation_details", *u.ConfirmationDetails)
	}
	if u.CalendarEventID != nil {
		add("calendar_event_id", *u.CalendarEventID)
	}
	if len(sets) == 0 {
		// Nothing to change; still report unknown ids.
		_, err := s.Get(ctx, id)
		return err
	}

	args = append(args, id)
	affected, err := s.db.Exec(ctx,
		fmt.Sprintf(`UPDATE bookings SET %s WHERE id=$%d`, strings.Join(sets, ","), len(args)),
		args...,
	)
	if err != nil {
		return fmt.Errorf("update booking %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) ListAll(ctx context.Context) ([]Booking, error) {
	rows, err := s.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(row scanner) (Booking, error) {
	var (
		b         Booking
		createdAt time.Time

		restaurantCallID, confirmationCallID, details, calendarEventID *string
	)
	err := row.Scan(
		&b.ID, &b.Status, &createdAt,
		&b.CustomerName, &b.CustomerPhone,
		&b.RestaurantName, &b.RestaurantPhone, &b.Location, &b.Date, &b.Time, &b.PartySize,
		&restaurantCallID, &confirmationCallID, &details, &calendarEventID,
	)
	if err != nil {
		if errors.Is(db.WrapNotFound(err), db.ErrNotFound) {
			return Booking{}, ErrNotFound
		}
		return Booking{}, err
	}
	b.CreatedAt = createdAt
	if restaurantCallID != nil {
		b.RestaurantCallID = *restaurantCallID
	}
	if confirmationCallID != nil {
		b.ConfirmationCallID = *confirmationCallID
	}
	if details != nil {
		b.ConfirmationDetails = *details
	}
	if calendarEventID != nil {
		b.CalendarEventID = *calendarEventID
	}
	return b, nil
}
