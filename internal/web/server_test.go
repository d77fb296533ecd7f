package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tablecall/internal/booking"
	"github.com/example/tablecall/internal/engine"
	"github.com/example/tablecall/internal/search"
	"github.com/example/tablecall/internal/vapi"
)

type stubDispatcher struct {
	mu  sync.Mutex
	n   int
	err error
}

func (s *stubDispatcher) PlaceCall(_ context.Context, _ vapi.CallRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.n++
	return fmt.Sprintf("call-%d", s.n), nil
}

type stubSearcher struct {
	results []search.Restaurant
}

func (s *stubSearcher) Search(_ context.Context, _, _ string) ([]search.Restaurant, error) {
	return s.results, nil
}

type stubCalendar struct{}

func (stubCalendar) AddBooking(_ context.Context, _ booking.Booking) (string, error) {
	return "evt-1", nil
}

func newTestServer(t *testing.T) (*Server, *booking.MemStore) {
	t.Helper()
	store := booking.NewMemStore()
	e := &engine.Engine{
		Store: store,
		Calls: &stubDispatcher{},
		Search: &stubSearcher{results: []search.Restaurant{
			{Name: "Saffron House", Address: "500 Curry Ave", Phone: "+15551234567", Rating: 4.6, Hours: "11am-10pm"},
		}},
		Calendar:      stubCalendar{},
		Classifier:    engine.HeuristicClassifier{},
		CustomerPhone: "+15550001111",
		CustomerName:  "Dana",
	}
	return &Server{Engine: e}, store
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestToolsSearchRestaurants(t *testing.T) {
	s, _ := newTestServer(t)

	rec := postJSON(t, s.Routes(), "/vapi/tools", `{
		"message": {
			"toolCalls": [{
				"id": "tc-1",
				"function": {
					"name": "search_restaurants",
					"arguments": {"query": "indian tonight", "location": "San Jose, CA", "party_size": 2}
				}
			}]
		}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Results []struct {
			ToolCallID string `json:"toolCallId"`
			Result     string `json:"result"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Results, 1)
	assert.Equal(t, "tc-1", res.Results[0].ToolCallID)
	assert.Contains(t, res.Results[0].Result, "Saffron House")
}

func TestToolsInitiateBookingWithStringArguments(t *testing.T) {
	s, store := newTestServer(t)

	// The provider sometimes sends arguments as a JSON-encoded string.
	args := `"{\"restaurant_name\":\"Saffron House\",\"restaurant_phone\":\"+15551234567\",\"date\":\"2026-02-22\",\"time\":\"7:00 PM\",\"party_size\":4,\"customer_name\":\"Dana\"}"`
	rec := postJSON(t, s.Routes(), "/vapi/tools", `{
		"message": {"toolCalls": [{"id": "tc-2", "function": {"name": "initiate_booking", "arguments": `+args+`}}]}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "I'm now calling Saffron House")

	all, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, booking.StatusCallingRestaurant, all[0].Status)
	assert.NotEmpty(t, all[0].RestaurantCallID)
}

func TestToolsUnknownTool(t *testing.T) {
	s, _ := newTestServer(t)

	rec := postJSON(t, s.Routes(), "/vapi/tools", `{
		"message": {"toolCalls": [{"id": "tc-3", "function": {"name": "order_pizza", "arguments": {}}}]}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unknown tool: order_pizza")
}

func TestEventsEndOfCallReportDrivesTransition(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	res, err := s.Engine.StartBooking(ctx, engine.BookingRequest{
		RestaurantName:  "Saffron House",
		RestaurantPhone: "+15551234567",
		Date:            "2026-02-22",
		Time:            "7:00 PM",
		PartySize:       4,
	})
	require.NoError(t, err)
	b, err := store.Get(ctx, res.BookingID)
	require.NoError(t, err)

	rec := postJSON(t, s.Routes(), "/vapi/events", fmt.Sprintf(`{
		"message": {
			"type": "end-of-call-report",
			"call": {"id": %q, "endedReason": "assistant-ended-call"},
			"summary": "Booking confirmed for Dana."
		}
	}`, b.RestaurantCallID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"received"}`, rec.Body.String())

	b, err = store.Get(ctx, res.BookingID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusNotifyingUser, b.Status)
}

func TestEventsUnknownCallAcknowledged(t *testing.T) {
	s, _ := newTestServer(t)

	rec := postJSON(t, s.Routes(), "/vapi/events", `{
		"message": {"type": "end-of-call-report", "call": {"id": "call-foreign", "endedReason": "assistant-ended-call"}}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"received"}`, rec.Body.String())
}

func TestEventsOtherTypesAcknowledged(t *testing.T) {
	s, _ := newTestServer(t)

	rec := postJSON(t, s.Routes(), "/vapi/events", `{
		"message": {"type": "transcript", "call": {"id": "call-1"}, "transcript": "hello"}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestBookingsList(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bookings", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	_, err := s.Engine.StartBooking(context.Background(), engine.BookingRequest{
		RestaurantName:  "Saffron House",
		RestaurantPhone: "+15551234567",
		Date:            "2026-02-22",
		Time:            "7:00 PM",
		PartySize:       4,
	})
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bookings", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var all []booking.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.Equal(t, "Saffron House", all[0].RestaurantName)
}
