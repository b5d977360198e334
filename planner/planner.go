package planner

import (
	"context"

	"github.com/casualjim/automata/runstate"
)

// Action is a single delegation: which capability to invoke and the request
// to send it.
type Action struct {
	AutomatonID string
	Request     string
}

// Descriptor describes one capability available to the planning automaton.
// Sub-automata and plain tools are presented the same way.
type Descriptor struct {
	ID                string
	Name              string
	Description       string
	InputRequirements []string
}

// Input is everything a planner may consider when choosing the next action.
type Input struct {
	AutomatonName string
	Request       string
	Capabilities  []Descriptor
	Steps         []runstate.Step
	Reflections   []string
}

// Plan is the planner's decision for one turn. Text preserves the planner's
// raw output so the step ledger can replay the reasoning behind the action.
type Plan struct {
	Action Action
	Text   string
}

// Planner chooses the next delegation for an automaton.
type Planner interface {
	Plan(ctx context.Context, in Input) (Plan, error)
}

// Func adapts a plain function to the Planner interface.
type Func func(ctx context.Context, in Input) (Plan, error)

func (f Func) Plan(ctx context.Context, in Input) (Plan, error) {
	return f(ctx, in)
}

// FinalizeID is the capability id that terminates a run. Executors complete
// the run with the result of a delegation to this id.
const FinalizeID = "finalize"

// ThinkID is the capability id planners fall back to when a plan cannot be
// parsed or names an unknown capability.
const ThinkID = "think"

func lastResult(steps []runstate.Step) (string, bool) {
	if len(steps) == 0 {
		return "", false
	}
	return steps[len(steps)-1].Result, true
}

func findByID(capabilities []Descriptor, id string) (Descriptor, bool) {
	for _, c := range capabilities {
		if c.ID == id {
			return c, true
		}
	}
	return Descriptor{}, false
}
