// Package search finds candidate restaurants for a natural-language request
// via the rtrvr.ai agent API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const defaultMaxResults = 5

type Restaurant struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Phone   string  `json:"phone"`
	Rating  float64 `json:"rating"`
	Hours   string  `json:"hours"`
	MapsURL string  `json:"google_maps_url,omitempty"`
}

type Client struct {
	hc       *http.Client
	agentURL string
	apiKey   string
}

type Config struct {
	AgentURL string
	APIKey   string
	Timeout  time.Duration
}

func New(cfg Config) *Client {
	if cfg.AgentURL == "" {
		cfg.AgentURL = "https://api.rtrvr.ai/agent"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		hc:       &http.Client{Timeout: cfg.Timeout},
		agentURL: cfg.AgentURL,
		apiKey:   cfg.APIKey,
	}
}

type agentRequest struct {
	Input    string         `json:"input"`
	URLs     []string       `json:"urls"`
	Response map[string]any `json:"response"`
}

type agentResponse struct {
	Result json.RawMessage `json:"result"`
	Output json.RawMessage `json:"output"`
	Data   json.RawMessage `json:"data"`
}

// Search asks the agent for restaurants near location matching the user's
// request and returns up to defaultMaxResults candidates that have a phone
// number. An empty result is a normal outcome, not an error.
func (c *Client) Search(ctx context.Context, query, location string) ([]Restaurant, error) {
	task := fmt.Sprintf(`Search Google Maps for restaurants near %s.

For each of the top %d results, extract:
- Restaurant name
- Full address
- Phone number (must include area code)
- Google rating (out of 5)
- Opening hours (today)
- Google Maps URL

Context from user: %q

Return results as a JSON array with keys: name, address, phone, rating, hours, google_maps_url.
Only include restaurants that have a phone number listed.`, location, defaultMaxResults, query)

	reqBody, err := json.Marshal(agentRequest{
		Input:    task,
		URLs:     []string{"https://www.google.com/maps/search/restaurants+near+" + strings.ReplaceAll(location, " ", "+")},
		Response: map[string]any{"verbosity": "final"},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.agentURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("search: agent returned status=%d: %s", res.StatusCode, body)
	}

	var ar agentResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return nil, fmt.Errorf("search: decode agent response: %w", err)
	}

	raw := ar.Result
	if len(raw) == 0 || string(raw) == "null" {
		raw = ar.Output
	}
	if len(raw) == 0 || string(raw) == "null" {
		raw = ar.Data
	}

	restaurants, err := parseResults(raw)
	if err != nil {
		return nil, err
	}

	out := restaurants[:0]
	for _, r := range restaurants {
		if strings.TrimSpace(r.Phone) == "" {
			continue
		}
		out = append(out, r)
	}
	if len(out) > defaultMaxResults {
		out = out[:defaultMaxResults]
	}
	return out, nil
}

var jsonArrayRe = regexp.MustCompile(`(?s)\[.*\]`)

// parseResults handles both shapes the agent returns: a JSON array directly,
// or a string with the array embedded in markdown/prose.
func parseResults(raw json.RawMessage) ([]Restaurant, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var restaurants []Restaurant
	if err := json.Unmarshal(raw, &restaurants); err == nil {
		return restaurants, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("search: unexpected agent result shape")
	}
	m := jsonArrayRe.FindString(s)
	if m == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(m), &restaurants); err != nil {
		return nil, fmt.Errorf("search: parse embedded result array: %w", err)
	}
	return restaurants, nil
}

// FormatSpoken renders the candidate list as a single speakable string for
// the voice assistant.
func FormatSpoken(restaurants []Restaurant) string {
	if len(restaurants) == 0 {
		return "I'm sorry, I couldn't find any restaurants matching your request."
	}

	lines := []string{fmt.Sprintf("I found %d restaurants for you:", len(restaurants))}
	for i, r := range restaurants {
		address := r.Address
		if address == "" {
			address = "address not available"
		}
		hours := r.Hours
		if hours == "" {
			hours = "hours not available"
		}
		rating := "N/A"
		if r.Rating > 0 {
			rating = strings.TrimSuffix(fmt.Sprintf("%.1f", r.Rating), ".0")
		}
		lines = append(lines, fmt.Sprintf("%d. %s — rated %s stars, located at %s. Open: %s.",
			i+1, r.Name, rating, address, hours))
	}
	lines = append(lines, "Which one would you like me to book, or shall I book the highest-rated one?")
	return strings.Join(lines, " ")
}
