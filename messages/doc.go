// Package messages defines the typed envelopes that flow through an automaton
// run: the user's request, delegation calls to lower-ranked automata, their
// responses, and the final reply.
//
// Every payload travels inside a Message[T] envelope carrying run and turn
// identifiers, the sender, and a timestamp. The envelope keeps payloads
// comparable and serializable without losing their concrete type, and the
// ModelMessage constraint keeps the set of payloads closed.
//
// Use the fluent builder to construct messages:
//
//	msg := messages.New().WithSender("quiz_creator").UserPrompt("make a quiz")
package messages
