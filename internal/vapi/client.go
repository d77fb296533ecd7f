package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a minimal Vapi API client covering the calls the booking
// pipeline needs: placing outbound calls and keeping the assistant config in
// sync. It authenticates with the account's private key.
type Client struct {
	hc *http.Client

	baseURL       string
	privateKey    string
	assistantID   string
	phoneNumberID string

	// eventsURL is where Vapi delivers call lifecycle events for calls we
	// place (serverUrl override on each call).
	eventsURL string
}

type Config struct {
	BaseURL       string
	PrivateKey    string
	AssistantID   string
	PhoneNumberID string
	EventsURL     string
	Timeout       time.Duration
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.vapi.ai"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		hc:            &http.Client{Timeout: cfg.Timeout},
		baseURL:       cfg.BaseURL,
		privateKey:    cfg.PrivateKey,
		assistantID:   cfg.AssistantID,
		phoneNumberID: cfg.PhoneNumberID,
		eventsURL:     cfg.EventsURL,
	}
}

// DispatchError is a call placement rejected by the provider. It carries the
// provider's status and response body.
type DispatchError struct {
	Status int
	Body   string
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("vapi: dispatch failed (status=%d): %s", e.Status, e.Body)
}

// CallRequest describes one outbound call with a generated script.
type CallRequest struct {
	DestinationPhone string
	SystemPrompt     string
	FirstMessage     string
	Variables        map[string]string
}

type callPayload struct {
	PhoneNumberID      string              `json:"phoneNumberId"`
	Customer           customer            `json:"customer"`
	AssistantID        string              `json:"assistantId"`
	AssistantOverrides *assistantOverrides `json:"assistantOverrides,omitempty"`
}

type customer struct {
	Number string `json:"number"`
}

type assistantOverrides struct {
	Model          *modelOverride    `json:"model,omitempty"`
	FirstMessage   string            `json:"firstMessage,omitempty"`
	ServerURL      string            `json:"serverUrl,omitempty"`
	VariableValues map[string]string `json:"variableValues,omitempty"`
}

type modelOverride struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	SystemPrompt string `json:"systemPrompt"`
}

type callResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// PlaceCall places an outbound call with a scripted prompt and returns the
// provider call id, used later to correlate the completion report.
func (c *Client) PlaceCall(ctx context.Context, req CallRequest) (string, error) {
	payload := callPayload{
		PhoneNumberID: c.phoneNumberID,
		Customer:      customer{Number: req.DestinationPhone},
		AssistantID:   c.assistantID,
		AssistantOverrides: &assistantOverrides{
			Model: &modelOverride{
				Provider:     "openai",
				Model:        "gpt-4o",
				SystemPrompt: req.SystemPrompt,
			},
			FirstMessage:   req.FirstMessage,
			ServerURL:      c.eventsURL,
			VariableValues: req.Variables,
		},
	}

	var res callResponse
	if err := c.do(ctx, http.MethodPost, "/call", payload, &res); err != nil {
		return "", err
	}
	if res.ID == "" {
		return "", &DispatchError{Status: http.StatusOK, Body: "response missing call id"}
	}
	return res.ID, nil
}

// TriggerCall places a bare outbound call with optional variable overrides
// and no scripted prompt; the assistant runs with its stored config. Used by
// the `call` CLI command.
func (c *Client) TriggerCall(ctx context.Context, phone string, variables map[string]string) (id, status string, err error) {
	payload := callPayload{
		PhoneNumberID: c.phoneNumberID,
		Customer:      customer{Number: phone},
		AssistantID:   c.assistantID,
	}
	if len(variables) > 0 {
		payload.AssistantOverrides = &assistantOverrides{VariableValues: variables}
	}

	var res callResponse
	if err := c.do(ctx, http.MethodPost, "/call", payload, &res); err != nil {
		return "", "", err
	}
	return res.ID, res.Status, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.privateKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		// Timeouts and transport failures count as dispatch failures.
		return &DispatchError{Status: 0, Body: err.Error()}
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return &DispatchError{Status: res.StatusCode, Body: string(b)}
	}
	if out != nil {
		if err := json.Unmarshal(b, out); err != nil {
			return fmt.Errorf("vapi: decode response: %w", err)
		}
	}
	return nil
}
