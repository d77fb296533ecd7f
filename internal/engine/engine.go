// Package engine drives the booking workflow: it starts searches and
// bookings on behalf of the voice assistant and routes asynchronous
// call-completion events back to the right booking via its correlation keys.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/example/tablecall/internal/booking"
	"github.com/example/tablecall/internal/search"
	"github.com/example/tablecall/internal/vapi"
)

// CallDispatcher places an outbound call and returns the provider call id.
type CallDispatcher interface {
	PlaceCall(ctx context.Context, req vapi.CallRequest) (string, error)
}

// Searcher returns candidate restaurants for a natural-language request.
type Searcher interface {
	Search(ctx context.Context, query, location string) ([]search.Restaurant, error)
}

// CalendarWriter records a confirmed booking; failures are non-fatal.
type CalendarWriter interface {
	AddBooking(ctx context.Context, b booking.Booking) (string, error)
}

// Engine is the booking workflow engine. All booking mutations go through
// it; the HTTP layer only parses requests and hands them over.
type Engine struct {
	Store      booking.Store
	Calls      CallDispatcher
	Search     Searcher
	Calendar   CalendarWriter
	Classifier Classifier

	// Identity of the requester we call back once a booking is confirmed.
	CustomerPhone string
	CustomerName  string
}

type SearchRequest struct {
	Query     string `json:"query"`
	Location  string `json:"location"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	PartySize int    `json:"party_size"`
}

type SearchResult struct {
	Message     string              `json:"message"`
	Restaurants []search.Restaurant `json:"restaurants,omitempty"`
}

// StartSearch is stateless: it delegates to the search adapter and renders a
// spoken summary. Adapter failures surface as an apology, never as a fault.
func (e *Engine) StartSearch(ctx context.Context, req SearchRequest) SearchResult {
	log.Printf("[engine] search_restaurants | location=%s | date=%s | time=%s | party=%d",
		req.Location, req.Date, req.Time, req.PartySize)

	restaurants, err := e.Search.Search(ctx, req.Query, req.Location)
	if err != nil {
		log.Printf("[engine] search failed: %v", err)
		return SearchResult{Message: "I had trouble searching for restaurants just now. Please try again in a moment."}
	}

	return SearchResult{
		Message:     search.FormatSpoken(restaurants),
		Restaurants: restaurants,
	}
}

type BookingRequest struct {
	RestaurantName    string `json:"restaurant_name"`
	RestaurantPhone   string `json:"restaurant_phone"`
	RestaurantAddress string `json:"restaurant_address"`
	Date              string `json:"date"`
	Time              string `json:"time"`
	PartySize         int    `json:"party_size"`
	CustomerName      string `json:"customer_name"`
}

type BookingResult struct {
	Message   string `json:"message"`
	BookingID string `json:"booking_id,omitempty"`
}

// StartBooking creates the workflow instance and dispatches the restaurant
// call leg. A rejected dispatch moves the booking to error and tells the
// caller to retry.
func (e *Engine) StartBooking(ctx context.Context, req BookingRequest) (BookingResult, error) {
	if req.CustomerName == "" {
		req.CustomerName = e.CustomerName
	}
	if req.PartySize < 1 {
		req.PartySize = 2
	}

	log.Printf("[engine] initiate_booking | %s | %s | %s %s for %d",
		req.RestaurantName, req.RestaurantPhone, req.Date, req.Time, req.PartySize)

	id, err := e.Store.Create(ctx, booking.Fields{
		CustomerName:    req.CustomerName,
		CustomerPhone:   e.CustomerPhone,
		RestaurantName:  req.RestaurantName,
		RestaurantPhone: req.RestaurantPhone,
		Location:        req.RestaurantAddress,
		Date:            req.Date,
		Time:            req.Time,
		PartySize:       req.PartySize,
	})
	if err != nil {
		return BookingResult{}, fmt.Errorf("create booking: %w", err)
	}

	b, err := e.Store.Get(ctx, id)
	if err != nil {
		return BookingResult{}, err
	}

	systemPrompt, firstMessage := restaurantCallScript(b)
	callID, err := e.Calls.PlaceCall(ctx, vapi.CallRequest{
		DestinationPhone: b.RestaurantPhone,
		SystemPrompt:     systemPrompt,
		FirstMessage:     firstMessage,
		Variables:        map[string]string{"booking_id": id},
	})
	if err != nil {
		log.Printf("[engine] restaurant call dispatch failed for booking %s: %v", id, err)
		if uerr := e.Store.Update(ctx, id, booking.Update{Status: status(booking.StatusError)}); uerr != nil {
			log.Printf("[engine] mark booking %s error: %v", id, uerr)
		}
		return BookingResult{
			Message:   fmt.Sprintf("I had trouble connecting to %s. Please try again.", b.RestaurantName),
			BookingID: id,
		}, nil
	}

	if err := e.Store.Update(ctx, id, booking.Update{
		Status:           status(booking.StatusCallingRestaurant),
		RestaurantCallID: &callID,
	}); err != nil {
		return BookingResult{}, err
	}
	log.Printf("[engine] restaurant call initiated: %s (booking %s)", callID, id)

	return BookingResult{
		Message: fmt.Sprintf(
			"I'm now calling %s to book your table for %d on %s at %s. I'll call you back on %s once the booking is confirmed!",
			b.RestaurantName, b.PartySize, b.Date, b.Time, e.CustomerPhone,
		),
		BookingID: id,
	}, nil
}

// HandleCallEvent routes an inbound call lifecycle event. Only end-of-call
// reports drive transitions; everything else is acknowledged as a no-op.
// Dispatch is guarded on the booking's current status, which makes
// redelivered duplicates safe: the first delivery transitions, the rest
// match nothing.
func (e *Engine) HandleCallEvent(ctx context.Context, ev vapi.Event) error {
	log.Printf("[engine] event %s | call_id=%s", ev.Type, ev.CallID)

	if ev.Type != vapi.EventEndOfCallReport {
		return nil
	}

	b, err := e.Store.FindByCallID(ctx, ev.CallID)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			log.Printf("[engine] no booking for call %s (foreign or already resolved)", ev.CallID)
			return nil
		}
		return err
	}

	switch {
	case b.Status == booking.StatusCallingRestaurant && ev.CallID == b.RestaurantCallID:
		return e.finishRestaurantLeg(ctx, b, ev)

	case b.Status == booking.StatusNotifyingUser && ev.CallID == b.ConfirmationCallID:
		log.Printf("[engine] pipeline complete for booking %s", b.ID)
		return e.Store.Update(ctx, b.ID, booking.Update{Status: status(booking.StatusNotified)})

	default:
		log.Printf("[engine] ignoring report for call %s: booking %s is %s", ev.CallID, b.ID, b.Status)
		return nil
	}
}

// finishRestaurantLeg runs the calling_restaurant transition. On
// confirmation the durable state is persisted before any adapter call, so a
// calendar or dispatch failure never loses the confirmed status.
func (e *Engine) finishRestaurantLeg(ctx context.Context, b booking.Booking, ev vapi.Event) error {
	log.Printf("[engine] restaurant call ended | booking=%s reason=%s", b.ID, ev.EndedReason)

	if !e.Classifier.Confirmed(ev.EndedReason, ev.Transcript, ev.Summary) {
		log.Printf("[engine] booking %s not confirmed, marking failed", b.ID)
		return e.Store.Update(ctx, b.ID, booking.Update{Status: status(booking.StatusFailed)})
	}

	details := ev.Summary
	if details == "" {
		details = truncate(ev.Transcript, 300)
	}
	if err := e.Store.Update(ctx, b.ID, booking.Update{
		Status:              status(booking.StatusConfirmed),
		ConfirmationDetails: &details,
	}); err != nil {
		return err
	}
	b.Status = booking.StatusConfirmed
	b.ConfirmationDetails = details

	// Calendar write is best-effort.
	if eventID, err := e.Calendar.AddBooking(ctx, b); err != nil {
		log.Printf("[engine] calendar write skipped for booking %s: %v", b.ID, err)
	} else if err := e.Store.Update(ctx, b.ID, booking.Update{CalendarEventID: &eventID}); err != nil {
		log.Printf("[engine] record calendar event for booking %s: %v", b.ID, err)
	}

	// Customer call-back. On failure the booking stays confirmed and remains
	// recoverable for a manual retry.
	systemPrompt, firstMessage := customerCallScript(b)
	callID, err := e.Calls.PlaceCall(ctx, vapi.CallRequest{
		DestinationPhone: b.CustomerPhone,
		SystemPrompt:     systemPrompt,
		FirstMessage:     firstMessage,
	})
	if err != nil {
		log.Printf("[engine] customer call dispatch failed for booking %s: %v", b.ID, err)
		return nil
	}

	if err := e.Store.Update(ctx, b.ID, booking.Update{
		Status:             status(booking.StatusNotifyingUser),
		ConfirmationCallID: &callID,
	}); err != nil {
		return err
	}
	log.Printf("[engine] customer confirmation call initiated: %s (booking %s)", callID, b.ID)
	return nil
}

// ListBookings returns all bookings verbatim for the read-only surfaces.
func (e *Engine) ListBookings(ctx context.Context) ([]booking.Booking, error) {
	return e.Store.ListAll(ctx)
}

func status(s booking.Status) *booking.Status { return &s }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
