// Package runstate manages the runtime state of an automaton run: the ordered
// message ledger and the record of delegation steps taken. Aggregators can be
// forked for a delegation and joined back, so a sub-automaton works against
// its own view of the run and the parent absorbs only what the child added.
package runstate
