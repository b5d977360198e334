// Package planner decides the next delegation an automaton takes. A planner
// sees the request, the capabilities available (sub-automata and tools,
// described uniformly), the steps taken so far, and the latest reflection,
// and produces the next action.
//
// Three builtins ship: "sequential" walks each capability once in declared
// order, "scripted" follows an action list from the automaton's extra args,
// and "react" drives a text engine through a thoughtcycle and parses the
// chosen action out of the completion.
package planner
