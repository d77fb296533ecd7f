package booking

import "time"

// Status is the workflow state of a booking. A booking only moves forward:
//
//	pending → calling_restaurant → {confirmed | failed | error}
//	confirmed → notifying_user → notified
//
// failed, error and notified are terminal.
type Status string

const (
	StatusPending           Status = "pending"
	StatusCallingRestaurant Status = "calling_restaurant"
	StatusConfirmed         Status = "confirmed"
	StatusNotifyingUser     Status = "notifying_user"
	StatusNotified          Status = "notified"
	StatusFailed            Status = "failed"
	StatusError             Status = "error"
)

// Terminal reports whether no further transition is defined from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusNotified, StatusFailed, StatusError:
		return true
	}
	return false
}

// Booking is one instance of the reservation workflow. Reservation parameters
// are immutable after creation; the call ids are each set exactly once and
// act as correlation keys for inbound completion events.
type Booking struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`

	RestaurantName  string `json:"restaurant_name"`
	RestaurantPhone string `json:"restaurant_phone"`
	Location        string `json:"location"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	PartySize       int    `json:"party_size"`

	RestaurantCallID    string `json:"restaurant_call_id,omitempty"`
	ConfirmationCallID  string `json:"confirmation_call_id,omitempty"`
	ConfirmationDetails string `json:"confirmation_details,omitempty"`
	CalendarEventID     string `json:"calendar_event_id,omitempty"`
}

// Fields holds the immutable reservation parameters supplied at creation.
type Fields struct {
	CustomerName  string
	CustomerPhone string

	RestaurantName  string
	RestaurantPhone string
	Location        string
	Date            string
	Time            string
	PartySize       int
}

// Update is a partial field merge applied atomically per booking id.
// Nil pointers leave the field untouched.
type Update struct {
	Status              *Status
	RestaurantCallID    *string
	ConfirmationCallID  *string
	ConfirmationDetails *string
	CalendarEventID     *string
}

func (u Update) apply(b *Booking) {
	if u.Status != nil {
		b.Status = *u.Status
	}
	if u.RestaurantCallID != nil {
		b.RestaurantCallID = *u.RestaurantCallID
	}
	if u.ConfirmationCallID != nil {
		b.ConfirmationCallID = *u.ConfirmationCallID
	}
	if u.ConfirmationDetails != nil {
		b.ConfirmationDetails = *u.ConfirmationDetails
	}
	if u.CalendarEventID != nil {
		b.CalendarEventID = *u.CalendarEventID
	}
}
