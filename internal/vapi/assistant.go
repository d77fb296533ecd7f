package vapi

import (
	"context"
	"net/http"
)

const assistantSystemPrompt = `You are a friendly AI assistant that helps users find and book restaurants.

Your job:
1. Listen to what the user wants (location, date, time, party size).
2. Use the search_restaurants tool to find matching restaurants.
3. Present the options to the user and ask which one they'd like.
4. Once they confirm, use the initiate_booking tool to book the table.
5. Let them know you'll call them back with the confirmation.

Always be warm, concise, and confirm details before booking.
If the user doesn't mention a date, assume today. If no time, ask for it.
If no party size, ask for it.`

type assistantPatch struct {
	Model        assistantModel `json:"model"`
	ServerURL    string         `json:"serverUrl"`
	FirstMessage string         `json:"firstMessage"`
}

type assistantModel struct {
	Provider     string          `json:"provider"`
	Model        string          `json:"model"`
	SystemPrompt string          `json:"systemPrompt"`
	Tools        []assistantTool `json:"tools"`
}

type assistantTool struct {
	Type     string        `json:"type"`
	Function toolFunction  `json:"function"`
	Server   *toolEndpoint `json:"server,omitempty"`
}

type toolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  toolParameters `json:"parameters"`
}

type toolParameters struct {
	Type       string              `json:"type"`
	Properties map[string]toolProp `json:"properties"`
	Required   []string            `json:"required"`
}

type toolProp struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type toolEndpoint struct {
	URL string `json:"url"`
}

// SyncAssistant patches the configured assistant with the booking pipeline's
// system prompt, tool schemas, and server URLs. Run it once after deploying
// or whenever serverURL changes.
func (c *Client) SyncAssistant(ctx context.Context, serverURL string) error {
	toolsURL := &toolEndpoint{URL: serverURL + "/vapi/tools"}

	patch := assistantPatch{
		Model: assistantModel{
			Provider:     "openai",
			Model:        "gpt-4o",
			SystemPrompt: assistantSystemPrompt,
			Tools: []assistantTool{
				{
					Type: "function",
					Function: toolFunction{
						Name:        "search_restaurants",
						Description: "Search for restaurants near a given location using real-time data.",
						Parameters: toolParameters{
							Type: "object",
							Properties: map[string]toolProp{
								"query":      {Type: "string", Description: "Full user request in natural language"},
								"location":   {Type: "string", Description: "Location to search near, e.g. 'downtown San Jose, CA'"},
								"date":       {Type: "string", Description: "Date of the reservation, e.g. '2026-02-22' or 'tonight'"},
								"time":       {Type: "string", Description: "Time of the reservation, e.g. '7:00 PM'"},
								"party_size": {Type: "integer", Description: "Number of people"},
							},
							Required: []string{"query", "location"},
						},
					},
					Server: toolsURL,
				},
				{
					Type: "function",
					Function: toolFunction{
						Name:        "initiate_booking",
						Description: "Book a table at the selected restaurant by calling them.",
						Parameters: toolParameters{
							Type: "object",
							Properties: map[string]toolProp{
								"restaurant_name":    {Type: "string", Description: "Name of the restaurant to book"},
								"restaurant_phone":   {Type: "string", Description: "Restaurant phone number in E.164 format"},
								"restaurant_address": {Type: "string", Description: "Restaurant street address"},
								"date":               {Type: "string", Description: "Reservation date, e.g. '2026-02-22'"},
								"time":               {Type: "string", Description: "Reservation time, e.g. '7:00 PM'"},
								"party_size":         {Type: "integer", Description: "Number of people"},
								"customer_name":      {Type: "string", Description: "Name the reservation is under"},
							},
							Required: []string{"restaurant_name", "restaurant_phone", "date", "time", "party_size"},
						},
					},
					Server: toolsURL,
				},
			},
		},
		ServerURL:    serverURL + "/vapi/events",
		FirstMessage: "Hi! I can help you find and book a restaurant. What are you in the mood for?",
	}

	return c.do(ctx, http.MethodPatch, "/assistant/"+c.assistantID, patch, nil)
}
