package runstate

import (
	"iter"
	"slices"
	"time"

	"github.com/casualjim/automata/messages"
	"github.com/casualjim/automata/pkg/uuidx"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
)

// AggregatedMessages is the ordered ledger of messages in a run.
type AggregatedMessages []messages.Message[messages.ModelMessage]

// Len returns the number of messages in the ledger.
func (a AggregatedMessages) Len() int {
	return len(a)
}

// Step records one completed delegation: what the automaton reflected on,
// the plan it produced, the action it took, and what came back.
type Step struct {
	Reflection  []string        `json:"reflection,omitempty"`
	PlanText    string          `json:"plan_text,omitempty"`
	AutomatonID string          `json:"automaton_id"`
	Request     string          `json:"request"`
	Result      string          `json:"result"`
	Timestamp   strfmt.DateTime `json:"timestamp"`
}

// New creates an empty aggregator with a fresh identity.
func New() *Aggregator {
	return &Aggregator{
		id:       uuidx.New(),
		messages: make(AggregatedMessages, 0),
	}
}

// Aggregator holds the message ledger and step record for one automaton's
// view of a run. Fork/Join support delegation: the child works on a fork,
// the parent joins back only what the child added.
type Aggregator struct {
	id        uuid.UUID
	messages  AggregatedMessages
	steps     []Step
	initLen   int // message count at fork time, used for joining
	initSteps int // step count at fork time
}

// ID returns the aggregator's identity, assigned at creation or fork.
func (a *Aggregator) ID() uuid.UUID {
	return a.id
}

// Len returns the total number of messages held.
func (a *Aggregator) Len() int {
	return a.messages.Len()
}

// TurnLen returns the number of steps taken since this aggregator was forked
// (or created). Executors use it to enforce turn limits.
func (a *Aggregator) TurnLen() int {
	return len(a.steps) - a.initSteps
}

// Messages returns a copy of the message ledger.
func (a *Aggregator) Messages() AggregatedMessages {
	return slices.Clone(a.messages)
}

// MessagesIter iterates the ledger without copying it.
func (a *Aggregator) MessagesIter() iter.Seq[messages.Message[messages.ModelMessage]] {
	return slices.Values(a.messages)
}

// Steps returns a copy of the steps taken so far.
func (a *Aggregator) Steps() []Step {
	return slices.Clone(a.steps)
}

// TurnSteps returns a copy of the steps taken since this aggregator was
// forked. Planners see these, not the whole history.
func (a *Aggregator) TurnSteps() []Step {
	return slices.Clone(a.steps[a.initSteps:])
}

// AddStep appends a completed delegation step, stamping it if unstamped.
func (a *Aggregator) AddStep(step Step) {
	if time.Time(step.Timestamp).IsZero() {
		step.Timestamp = strfmt.DateTime(time.Now())
	}
	a.steps = append(a.steps, step)
}

// eraseType converts a Message[T] to Message[ModelMessage] preserving all
// fields, so differently typed messages share one ledger.
func eraseType[T messages.ModelMessage](m messages.Message[T]) messages.Message[messages.ModelMessage] {
	return messages.Message[messages.ModelMessage]{
		RunID:     m.RunID,
		TurnID:    m.TurnID,
		Payload:   m.Payload,
		Sender:    m.Sender,
		Timestamp: m.Timestamp,
		Meta:      m.Meta,
	}
}

// AddMessage adds any message type in the closed payload set. Prefer the
// specific Add methods where the payload type is known.
func AddMessage[T messages.ModelMessage](a *Aggregator, m messages.Message[T]) {
	a.add(eraseType(m))
}

// AddUserPrompt adds the request handed to the automaton.
func (a *Aggregator) AddUserPrompt(m messages.Message[messages.UserMessage]) {
	a.add(eraseType(m))
}

// AddAssistantMessage adds the automaton's final reply.
func (a *Aggregator) AddAssistantMessage(m messages.Message[messages.AssistantMessage]) {
	a.add(eraseType(m))
}

// AddDelegationCall adds a planned delegation.
func (a *Aggregator) AddDelegationCall(m messages.Message[messages.DelegationMessage]) {
	a.add(eraseType(m))
}

// AddDelegationResponse adds the result of a delegation.
func (a *Aggregator) AddDelegationResponse(m messages.Message[messages.DelegationResponse]) {
	a.add(eraseType(m))
}

func (a *Aggregator) add(m messages.Message[messages.ModelMessage]) {
	a.messages = append(a.messages, m)
}

// Fork creates a new aggregator seeded with the current state. The fork gets
// its own identity and remembers where it started so Join can splice in only
// what was added afterwards.
func (a *Aggregator) Fork() *Aggregator {
	return &Aggregator{
		id:        uuidx.New(),
		messages:  slices.Clone(a.messages),
		steps:     slices.Clone(a.steps),
		initLen:   a.Len(),
		initSteps: len(a.steps),
	}
}

// Join splices back everything b accumulated after it was forked.
func (a *Aggregator) Join(b *Aggregator) {
	a.messages = append(a.messages, b.messages[b.initLen:]...)
	a.steps = append(a.steps, b.steps[b.initSteps:]...)
}

// Checkpoint captures the additions since fork so they can be merged into
// another aggregator, for example after crossing a broker.
func (a *Aggregator) Checkpoint() Checkpoint {
	return Checkpoint{
		Messages: slices.Clone(a.messages[a.initLen:]),
		Steps:    slices.Clone(a.steps[a.initSteps:]),
	}
}

// Checkpoint is a portable slice of run state.
type Checkpoint struct {
	Messages AggregatedMessages `json:"messages"`
	Steps    []Step             `json:"steps,omitempty"`
}

// MergeInto appends the checkpointed state to the target aggregator.
func (c Checkpoint) MergeInto(target *Aggregator) {
	target.messages = append(target.messages, c.Messages...)
	target.steps = append(target.steps, c.Steps...)
}
