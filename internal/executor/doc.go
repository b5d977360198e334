// Package executor drives automaton runs. The local executor owns the
// delegation loop: it validates the request against the automaton's input
// contract, then alternates reflection, planning, and delegation to
// lower-ranked capabilities until the plan finalizes or the turn budget runs
// out. Results flow back through promises so callers can wait on a typed
// outcome.
package executor
