package events

import (
	"errors"
	"fmt"

	"github.com/casualjim/automata/messages"
	"github.com/go-openapi/strfmt"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Event is the base interface for everything published during a run.
type Event interface {
	event()
}

// Request is an input event: the user's prompt arriving at an automaton, or a
// delegation response flowing back up to its requester.
type Request[T messages.Request] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Message   T               `json:"message"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Request[T]) event() {}

// Response is an output event: a delegation call planned by an automaton, or
// its final assistant reply.
type Response[T messages.Response] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Response  T               `json:"response"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Response[T]) event() {}

// Result carries the typed final result of a run.
type Result[T any] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Result    T               `json:"result"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Result[T]) event() {}

// Error is a failure event. It implements error so executors can surface it
// directly while preserving run context.
type Error struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Err       error           `json:"error"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Error) event() {}

func (e Error) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e Error) Unwrap() error { return e.Err }

// Type tags used by the JSON codec. Every event that crosses a broker is
// tagged so the receiving side can rebuild the concrete type.
const (
	typeRequestUser        = "request.user"
	typeRequestDelegation  = "request.delegation_response"
	typeResponseDelegation = "response.delegation"
	typeResponseAssistant  = "response.assistant"
	typeResult             = "result"
	typeError              = "error"
)

func requestTag[T messages.Request](msg T) string {
	switch any(msg).(type) {
	case messages.UserMessage:
		return typeRequestUser
	case messages.DelegationResponse:
		return typeRequestDelegation
	default:
		return "request"
	}
}

func responseTag[T messages.Response](msg T) string {
	switch any(msg).(type) {
	case messages.DelegationMessage:
		return typeResponseDelegation
	case messages.AssistantMessage:
		return typeResponseAssistant
	default:
		return "response"
	}
}

func withMeta(b []byte, meta gjson.Result, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	if meta.Exists() {
		return sjson.SetRawBytes(b, "meta", []byte(meta.Raw))
	}
	return b, nil
}

// MarshalJSON encodes the request with its type tag.
func (r Request[T]) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(struct {
		Type      string          `json:"type"`
		RunID     uuid.UUID       `json:"run_id"`
		TurnID    uuid.UUID       `json:"turn_id"`
		Message   T               `json:"message"`
		Sender    string          `json:"sender,omitempty"`
		Timestamp strfmt.DateTime `json:"timestamp"`
	}{requestTag(r.Message), r.RunID, r.TurnID, r.Message, r.Sender, r.Timestamp})
	return withMeta(b, r.Meta, err)
}

// UnmarshalJSON decodes the request, validating the type tag and identifiers.
func (r *Request[T]) UnmarshalJSON(data []byte) error {
	header, err := decodeHeader(data, requestTag(r.Message))
	if err != nil {
		return err
	}

	payload := gjson.GetBytes(data, "message")
	if !payload.Exists() {
		return errors.New("missing message")
	}
	if err := json.Unmarshal([]byte(payload.Raw), &r.Message); err != nil {
		return err
	}

	r.RunID, r.TurnID = header.runID, header.turnID
	r.Sender, r.Timestamp, r.Meta = header.sender, header.timestamp, header.meta
	return nil
}

// MarshalJSON encodes the response with its type tag.
func (r Response[T]) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(struct {
		Type      string          `json:"type"`
		RunID     uuid.UUID       `json:"run_id"`
		TurnID    uuid.UUID       `json:"turn_id"`
		Response  T               `json:"response"`
		Sender    string          `json:"sender,omitempty"`
		Timestamp strfmt.DateTime `json:"timestamp"`
	}{responseTag(r.Response), r.RunID, r.TurnID, r.Response, r.Sender, r.Timestamp})
	return withMeta(b, r.Meta, err)
}

// UnmarshalJSON decodes the response, validating the type tag and identifiers.
func (r *Response[T]) UnmarshalJSON(data []byte) error {
	header, err := decodeHeader(data, responseTag(r.Response))
	if err != nil {
		return err
	}

	payload := gjson.GetBytes(data, "response")
	if !payload.Exists() {
		return errors.New("missing response")
	}
	if err := json.Unmarshal([]byte(payload.Raw), &r.Response); err != nil {
		return err
	}

	r.RunID, r.TurnID = header.runID, header.turnID
	r.Sender, r.Timestamp, r.Meta = header.sender, header.timestamp, header.meta
	return nil
}

// MarshalJSON encodes the result with its type tag.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(struct {
		Type      string          `json:"type"`
		RunID     uuid.UUID       `json:"run_id"`
		TurnID    uuid.UUID       `json:"turn_id"`
		Result    T               `json:"result"`
		Sender    string          `json:"sender,omitempty"`
		Timestamp strfmt.DateTime `json:"timestamp"`
	}{typeResult, r.RunID, r.TurnID, r.Result, r.Sender, r.Timestamp})
	return withMeta(b, r.Meta, err)
}

// UnmarshalJSON decodes the result, validating the type tag and identifiers.
func (r *Result[T]) UnmarshalJSON(data []byte) error {
	header, err := decodeHeader(data, typeResult)
	if err != nil {
		return err
	}

	payload := gjson.GetBytes(data, "result")
	if !payload.Exists() {
		return errors.New("missing result")
	}
	if err := json.Unmarshal([]byte(payload.Raw), &r.Result); err != nil {
		return err
	}

	r.RunID, r.TurnID = header.runID, header.turnID
	r.Sender, r.Timestamp, r.Meta = header.sender, header.timestamp, header.meta
	return nil
}

// MarshalJSON encodes the error event, flattening the error to its message.
func (e Error) MarshalJSON() ([]byte, error) {
	var msg string
	if e.Err != nil {
		msg = e.Err.Error()
	}
	b, err := json.Marshal(struct {
		Type      string          `json:"type"`
		RunID     uuid.UUID       `json:"run_id"`
		TurnID    uuid.UUID       `json:"turn_id"`
		Error     string          `json:"error"`
		Sender    string          `json:"sender,omitempty"`
		Timestamp strfmt.DateTime `json:"timestamp"`
	}{typeError, e.RunID, e.TurnID, msg, e.Sender, e.Timestamp})
	return withMeta(b, e.Meta, err)
}

// UnmarshalJSON decodes the error event.
func (e *Error) UnmarshalJSON(data []byte) error {
	header, err := decodeHeader(data, typeError)
	if err != nil {
		return err
	}

	msg := gjson.GetBytes(data, "error")
	if !msg.Exists() {
		return errors.New("missing error")
	}

	e.RunID, e.TurnID = header.runID, header.turnID
	e.Err = errors.New(msg.String())
	e.Sender, e.Timestamp, e.Meta = header.sender, header.timestamp, header.meta
	return nil
}

type eventHeader struct {
	runID     uuid.UUID
	turnID    uuid.UUID
	sender    string
	timestamp strfmt.DateTime
	meta      gjson.Result
}

func decodeHeader(data []byte, wantType string) (eventHeader, error) {
	if !gjson.ValidBytes(data) {
		return eventHeader{}, errors.New("invalid json")
	}
	parsed := gjson.ParseBytes(data)

	typ := parsed.Get("type")
	if !typ.Exists() {
		return eventHeader{}, errors.New("missing type")
	}
	if typ.String() != wantType {
		return eventHeader{}, fmt.Errorf("unexpected type %q, want %q", typ.String(), wantType)
	}

	var header eventHeader
	var err error

	rid := parsed.Get("run_id")
	if !rid.Exists() {
		return eventHeader{}, errors.New("missing run_id")
	}
	if header.runID, err = uuid.Parse(rid.String()); err != nil {
		return eventHeader{}, fmt.Errorf("invalid run_id: %w", err)
	}

	tid := parsed.Get("turn_id")
	if !tid.Exists() {
		return eventHeader{}, errors.New("missing turn_id")
	}
	if header.turnID, err = uuid.Parse(tid.String()); err != nil {
		return eventHeader{}, fmt.Errorf("invalid turn_id: %w", err)
	}

	header.sender = parsed.Get("sender").String()
	if ts := parsed.Get("timestamp"); ts.Exists() {
		dt, err := strfmt.ParseDateTime(ts.String())
		if err != nil {
			return eventHeader{}, fmt.Errorf("invalid timestamp: %w", err)
		}
		header.timestamp = dt
	}
	if meta := parsed.Get("meta"); meta.Exists() {
		header.meta = meta
	}
	return header, nil
}

// ToJSON serializes an event for transport.
func ToJSON(event Event) ([]byte, error) {
	if event == nil {
		return nil, errors.New("event is nil")
	}
	return json.Marshal(event)
}

// FromJSON rebuilds a concrete event from its transport form.
func FromJSON(data []byte) (Event, error) {
	typ := gjson.GetBytes(data, "type").String()
	switch typ {
	case typeRequestUser:
		var ev Request[messages.UserMessage]
		if err := ev.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return ev, nil
	case typeRequestDelegation:
		var ev Request[messages.DelegationResponse]
		if err := ev.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return ev, nil
	case typeResponseDelegation:
		var ev Response[messages.DelegationMessage]
		if err := ev.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return ev, nil
	case typeResponseAssistant:
		var ev Response[messages.AssistantMessage]
		if err := ev.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return ev, nil
	case typeResult:
		var ev Result[string]
		if err := ev.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return ev, nil
	case typeError:
		var ev Error
		if err := ev.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("unknown event type: %q", typ)
	}
}
