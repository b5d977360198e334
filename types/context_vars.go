// Package types provides core type definitions shared across the automata
// framework.
package types

import "github.com/goccy/go-json"

// ContextVars is a key-value store of variables available to an automaton
// while it processes a request. They are used for template rendering of
// instructions and planner scripts, and are passed through to tool functions
// that declare a ContextVars parameter.
//
// ContextVars is a plain map and is not safe for concurrent modification.
type ContextVars map[string]any

// String returns the JSON form of the variables, or "" when marshaling fails.
func (cv ContextVars) String() string {
	jsonData, err := json.Marshal(cv)
	if err != nil {
		return ""
	}
	return string(jsonData)
}
