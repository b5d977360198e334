// Package events carries the observable lifecycle of an automaton run:
// requests arriving, delegations being planned and answered, final replies,
// results, and errors.
//
// Design decisions:
//   - Type safety: generic event types keep payloads concrete at compile time
//   - Rich metadata: every event has run/turn IDs, a timestamp, and a sender
//   - Transportable: the JSON codec tags every event with a type marker so
//     events survive a trip through a broker
//   - Error context: Error events implement error and preserve where in the
//     hierarchy the failure happened
//
// Event hierarchy:
//   - Event: base interface for everything published on a topic
//     ├── Request[T]: inputs (user prompts, delegation responses)
//     ├── Response[T]: outputs (delegation calls, assistant replies)
//     ├── Result[T]: final computation results
//     └── Error: failures with execution context
//
// Hooks receive events as typed callbacks. Implementations must be safe for
// concurrent use; the broker may invoke them from multiple goroutines.
package events
