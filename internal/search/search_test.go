package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchParsesDirectArrayAndFiltersPhoneless(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req["input"], "downtown San Jose")

		_, _ = w.Write([]byte(`{"result":[
			{"name":"Saffron House","address":"500 Curry Ave","phone":"+15551234567","rating":4.6,"hours":"11am-10pm"},
			{"name":"No Phone Palace","address":"1 Nowhere St","phone":"","rating":4.9,"hours":"always"},
			{"name":"Masala Garden","address":"12 Spice Rd","phone":"+15557654321","rating":4.2,"hours":"5pm-11pm"}
		]}`))
	}))
	defer srv.Close()

	c := New(Config{AgentURL: srv.URL, APIKey: "key-1"})
	got, err := c.Search(context.Background(), "dinner for two tonight", "downtown San Jose")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Saffron House", got[0].Name)
	assert.Equal(t, "Masala Garden", got[1].Name)
}

func TestSearchExtractsArrayFromMarkdownResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"output": "Here are the results:\n```json\n[{\"name\":\"Saffron House\",\"address\":\"500 Curry Ave\",\"phone\":\"+15551234567\",\"rating\":4.6,\"hours\":\"11am-10pm\"}]\n```\nLet me know if you need more.",
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer srv.Close()

	c := New(Config{AgentURL: srv.URL, APIKey: "k"})
	got, err := c.Search(context.Background(), "indian food", "San Jose, CA")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Saffron House", got[0].Name)
	assert.Equal(t, 4.6, got[0].Rating)
}

func TestSearchEmptyResultIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"I could not find any restaurants in that area."}`))
	}))
	defer srv.Close()

	c := New(Config{AgentURL: srv.URL, APIKey: "k"})
	got, err := c.Search(context.Background(), "anything", "the middle of the ocean")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchAgentErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	c := New(Config{AgentURL: srv.URL, APIKey: "k"})
	_, err := c.Search(context.Background(), "q", "l")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=402")
}

func TestFormatSpoken(t *testing.T) {
	got := FormatSpoken([]Restaurant{
		{Name: "Saffron House", Address: "500 Curry Ave", Rating: 4.6, Hours: "11am-10pm"},
		{Name: "Masala Garden", Rating: 0},
	})
	assert.Contains(t, got, "I found 2 restaurants for you:")
	assert.Contains(t, got, "1. Saffron House — rated 4.6 stars, located at 500 Curry Ave. Open: 11am-10pm.")
	assert.Contains(t, got, "2. Masala Garden — rated N/A stars, located at address not available. Open: hours not available.")
	assert.Contains(t, got, "Which one would you like me to book")
}

func TestFormatSpokenEmpty(t *testing.T) {
	assert.Equal(t,
		"I'm sorry, I couldn't find any restaurants matching your request.",
		FormatSpoken(nil))
}
