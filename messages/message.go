package messages

import (
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// ModelMessage is the closed set of payloads that can travel through a run.
type ModelMessage interface {
	message()
}

// Request payloads are inputs to an automaton.
type Request interface {
	ModelMessage
	request()
}

// Response payloads are outputs from an automaton or one of its delegates.
type Response interface {
	ModelMessage
	response()
}

// UserMessage is the request handed to an automaton, either by the human
// requester or by a higher-ranked automaton delegating work downward.
type UserMessage struct {
	Content string `json:"content"`
}

func (UserMessage) message() {}
func (UserMessage) request() {}

// AssistantMessage is the final textual reply an automaton produces for its
// requester.
type AssistantMessage struct {
	Content string `json:"content"`
}

func (AssistantMessage) message()  {}
func (AssistantMessage) response() {}

// DelegationCall names a single child invocation: which sub-automaton or tool
// to call, and the request to send it.
type DelegationCall struct {
	ID          string `json:"id"`
	AutomatonID string `json:"automaton_id"`
	Request     string `json:"request"`
}

// DelegationMessage is a planned batch of child invocations. The planner
// produces one per turn; PlanText preserves the planner's raw output so the
// step ledger can replay the reasoning that led to the calls.
type DelegationMessage struct {
	Calls    []DelegationCall `json:"calls"`
	PlanText string           `json:"plan_text,omitempty"`
}

func (DelegationMessage) message()  {}
func (DelegationMessage) response() {}

// DelegationResponse carries the result of a single child invocation back to
// the delegating automaton.
type DelegationResponse struct {
	CallID      string `json:"call_id"`
	AutomatonID string `json:"automaton_id"`
	Content     string `json:"content"`
}

func (DelegationResponse) message() {}
func (DelegationResponse) request() {}

// Message wraps a payload with run metadata.
type Message[T ModelMessage] struct {
	RunID     uuid.UUID       `json:"run_id,omitempty"`
	TurnID    uuid.UUID       `json:"turn_id,omitempty"`
	Payload   T               `json:"payload"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

// Builder assembles messages with a shared sender and run identifiers.
type Builder struct {
	sender string
	runID  uuid.UUID
	turnID uuid.UUID
}

// New returns a message builder.
func New() Builder {
	return Builder{}
}

// WithSender sets the sender recorded on built messages.
func (b Builder) WithSender(sender string) Builder {
	b.sender = sender
	return b
}

// WithRun sets the run and turn identifiers recorded on built messages.
func (b Builder) WithRun(runID, turnID uuid.UUID) Builder {
	b.runID = runID
	b.turnID = turnID
	return b
}

func envelope[T ModelMessage](b Builder, payload T) Message[T] {
	return Message[T]{
		RunID:     b.runID,
		TurnID:    b.turnID,
		Payload:   payload,
		Sender:    b.sender,
		Timestamp: strfmt.DateTime(time.Now()),
	}
}

// UserPrompt builds a request message.
func (b Builder) UserPrompt(content string) Message[UserMessage] {
	return envelope(b, UserMessage{Content: content})
}

// AssistantMessage builds a final reply message.
func (b Builder) AssistantMessage(content string) Message[AssistantMessage] {
	return envelope(b, AssistantMessage{Content: content})
}

// DelegationCall builds a single-call delegation message.
func (b Builder) DelegationCall(callID, automatonID, request string) Message[DelegationMessage] {
	return envelope(b, DelegationMessage{
		Calls: []DelegationCall{{ID: callID, AutomatonID: automatonID, Request: request}},
	})
}

// DelegationResponse builds a delegation result message.
func (b Builder) DelegationResponse(callID, automatonID, content string) Message[DelegationResponse] {
	return envelope(b, DelegationResponse{
		CallID:      callID,
		AutomatonID: automatonID,
		Content:     content,
	})
}
