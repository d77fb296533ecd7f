// Package calendar writes confirmed bookings to Google Calendar. The adapter
// is best-effort: callers treat every failure, including missing credentials,
// as non-fatal.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/example/tablecall/internal/booking"
)

// ErrNotConfigured is returned when Google credentials are absent.
var ErrNotConfigured = errors.New("calendar: google credentials not configured")

const eventsURL = "https://www.googleapis.com/calendar/v3/calendars/%s/events"

type Client struct {
	hc         *http.Client
	calendarID string
	timezone   string
	configured bool
}

type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	CalendarID   string
	Timezone     string
}

func New(ctx context.Context, cfg Config) *Client {
	c := &Client{
		calendarID: cfg.CalendarID,
		timezone:   cfg.Timezone,
	}
	if c.calendarID == "" {
		c.calendarID = "primary"
	}
	if c.timezone == "" {
		c.timezone = "America/Los_Angeles"
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return c
	}

	oc := oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: "https://oauth2.googleapis.com/token"},
		Scopes:       []string{"https://www.googleapis.com/auth/calendar"},
	}
	c.hc = oauth2.NewClient(ctx, oc.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken}))
	c.hc.Timeout = 10 * time.Second
	c.configured = true
	return c
}

type event struct {
	Summary     string    `json:"summary"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Start       eventTime `json:"start"`
	End         eventTime `json:"end"`
	Reminders   reminders `json:"reminders"`
}

type eventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type reminders struct {
	UseDefault bool       `json:"useDefault"`
	Overrides  []reminder `json:"overrides"`
}

type reminder struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

type createdEvent struct {
	ID       string `json:"id"`
	HTMLLink string `json:"htmlLink"`
}

// AddBooking creates a two-hour dinner event for a confirmed booking and
// returns the calendar event id.
func (c *Client) AddBooking(ctx context.Context, b booking.Booking) (string, error) {
	if !c.configured {
		return "", ErrNotConfigured
	}

	start, err := ParseStart(b.Date, b.Time)
	if err != nil {
		return "", err
	}
	end := start.Add(2 * time.Hour)

	ev := event{
		Summary:     fmt.Sprintf("Dinner at %s", b.RestaurantName),
		Location:    b.Location,
		Description: fmt.Sprintf("Table for %d, reservation under %s.\nBooked via tablecall.", b.PartySize, b.CustomerName),
		Start:       eventTime{DateTime: start.Format("2006-01-02T15:04:05"), TimeZone: c.timezone},
		End:         eventTime{DateTime: end.Format("2006-01-02T15:04:05"), TimeZone: c.timezone},
		Reminders: reminders{
			UseDefault: false,
			Overrides: []reminder{
				{Method: "popup", Minutes: 60},
				{Method: "email", Minutes: 1440},
			},
		},
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf(eventsURL, url.PathEscape(c.calendarID)), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("calendar: %w", err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("calendar: insert failed (status=%d): %s", res.StatusCode, resBody)
	}

	var created createdEvent
	if err := json.Unmarshal(resBody, &created); err != nil {
		return "", fmt.Errorf("calendar: decode response: %w", err)
	}
	return created.ID, nil
}

// ParseStart parses the booking's free-form date and time strings. Dates are
// YYYY-MM-DD; times are either "7:00 PM" or 24h "19:00". Relative dates like
// "tonight" do not parse and the calendar write is skipped for them.
func ParseStart(date, timeStr string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 3:04 PM", "2006-01-02 15:04"} {
		if t, err := time.Parse(layout, date+" "+timeStr); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("calendar: cannot parse %q %q", date, timeStr)
}
