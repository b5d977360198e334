package sessions

import (
	"context"
	"time"

	"github.com/go-openapi/strfmt"
)

// Event is one delegation record: who asked, who worked, what went in, and
// what came out.
type Event struct {
	Requester    string          `json:"requester"`
	SubAutomaton string          `json:"sub_automaton_name"`
	Input        string          `json:"input"`
	Result       string          `json:"result"`
	Timestamp    strfmt.DateTime `json:"timestamp"`
}

// NewEvent builds a stamped event.
func NewEvent(requester, subAutomaton, input, result string) Event {
	return Event{
		Requester:    requester,
		SubAutomaton: subAutomaton,
		Input:        input,
		Result:       result,
		Timestamp:    strfmt.DateTime(time.Now()),
	}
}

// Store persists session events per automaton and session.
type Store interface {
	// Append adds an event to the session log of the given automaton.
	Append(ctx context.Context, automatonID, sessionID string, event Event) error

	// Events returns the events of a session in append order.
	Events(ctx context.Context, automatonID, sessionID string) ([]Event, error)
}
