package engine

import "strings"

// Classifier decides whether a finished restaurant call counts as a
// confirmed reservation. It is a proxy for "the call went through and wasn't
// a hard failure", not an understanding of the conversation; swap it out for
// something stricter without touching the state machine.
type Classifier interface {
	Confirmed(endedReason, transcript, summary string) bool
}

// HeuristicClassifier treats a call as confirmed when the provider reports a
// graceful termination, or when the transcript/summary mentions a
// confirmation token. Deliberately permissive; ambiguous calls default to
// not confirmed.
type HeuristicClassifier struct{}

var _ Classifier = HeuristicClassifier{}

// Graceful end-reason stems. Matching on the stem covers both the provider's
// hyphenated reasons ("assistant-ended-call") and human-readable variants
// ("assistant ended the call").
var gracefulReasons = []string{
	"assistant-ended",
	"customer-ended",
	"silence-timed",
}

var confirmationTokens = []string{"confirmed", "reservation"}

func (HeuristicClassifier) Confirmed(endedReason, transcript, summary string) bool {
	reason := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(endedReason)), " ", "-")
	for _, g := range gracefulReasons {
		if strings.Contains(reason, g) {
			return true
		}
	}

	text := strings.ToLower(transcript + " " + summary)
	for _, tok := range confirmationTokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}
