// Package sessions records what happened during automaton runs. Every
// delegation produces one event, appended to the logs of BOTH sides: the
// automaton that did the work and the requester that asked for it. Either
// party's log alone tells the full story of its session.
//
// Two stores ship: a file store writing JSONL logs under the automata
// location (one directory per automaton), and a Redis store keeping one list
// per session with an optional TTL.
package sessions
