package vapi

import "encoding/json"

// Event types Vapi posts to the events webhook. Only the end-of-call report
// drives workflow transitions; the rest are logged and acknowledged.
const (
	EventEndOfCallReport = "end-of-call-report"
	EventCallStarted     = "call-started"
	EventCallEnded       = "call-ended"
	EventTranscript      = "transcript"
)

// Graceful end reasons reported by the provider when a call terminated
// normally rather than erroring out.
const (
	ReasonAssistantEnded = "assistant-ended-call"
	ReasonCustomerEnded  = "customer-ended-call"
	ReasonSilenceTimeout = "silence-timed-out"
)

// Event is one call lifecycle notification, flattened from the webhook
// envelope.
type Event struct {
	Type        string
	CallID      string
	EndedReason string
	Transcript  string
	Summary     string
}

type eventEnvelope struct {
	Message struct {
		Type string `json:"type"`
		Call struct {
			ID          string `json:"id"`
			EndedReason string `json:"endedReason"`
		} `json:"call"`
		Transcript string `json:"transcript"`
		Summary    string `json:"summary"`
	} `json:"message"`
}

// ParseEvent decodes a webhook event body. Unknown event types parse fine;
// the caller decides what to do with them.
func ParseEvent(body []byte) (Event, error) {
	var env eventEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Event{}, err
	}
	return Event{
		Type:        env.Message.Type,
		CallID:      env.Message.Call.ID,
		EndedReason: env.Message.Call.EndedReason,
		Transcript:  env.Message.Transcript,
		Summary:     env.Message.Summary,
	}, nil
}
