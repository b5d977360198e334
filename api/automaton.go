package api

import (
	"context"

	"github.com/casualjim/automata/tool"
	"github.com/casualjim/automata/types"
)

// Automaton is the core interface for agents in the hierarchy. An automaton
// has a rank, a contract (input requirements and output format), and a set of
// lower-ranked capabilities it may delegate to.
//
// Design decisions:
//   - Minimal interface: configuration is read-only after construction
//   - Rank is immutable: the hierarchy's ordering is fixed at composition time
//   - Flexible instruction rendering: instructions may use context variables
//
// The interface is implementation-agnostic; spec-loaded automata, hand-built
// automata, and wrapped builtins all satisfy it the same way.
type Automaton interface {
	// Name returns the automaton's unique identifier within its hierarchy.
	// It is used for delegation routing, logging, and session records.
	Name() string

	// Description explains what the automaton does, in terms its requester
	// can use to decide whether to delegate to it.
	Description() string

	// Rank returns the automaton's position in the hierarchy's strict
	// ordering. Every capability the automaton carries has a strictly
	// lower rank.
	Rank() int

	// InputRequirements lists what a valid request must contain.
	InputRequirements() []string

	// OutputFormat describes the shape of the automaton's final result.
	OutputFormat() string

	// Tools returns the callable capabilities of this automaton: plain
	// functions and wrapped lower-ranked automata alike.
	Tools() []tool.Definition

	// SubAutomata returns the lower-ranked automata attached directly.
	// Automata wrapped via tools do not appear here.
	SubAutomata() []Automaton

	// RenderInstructions generates the automaton's operational instructions
	// using the provided context variables. Returns an error when required
	// variables are missing or the template is invalid.
	RenderInstructions(types.ContextVars) (string, error)
}

// Runner executes an automaton's work for a single request and returns the
// final textual result.
type Runner func(ctx context.Context, request string) (string, error)

// Runnable is an automaton that can execute requests directly, without going
// through an executor. Function-backed automata and spec-loaded automata with
// composed runners implement it.
type Runnable interface {
	Automaton

	// Run processes the request and returns the final result.
	Run(ctx context.Context, request string) (string, error)
}
