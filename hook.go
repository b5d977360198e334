package automata

import (
	"context"

	"github.com/casualjim/automata/events"
)

// Hook observes a hierarchy run: every event callback plus the typed final
// result and a close notification when the run finishes.
type Hook[T any] interface {
	events.Hook
	OnResult(context.Context, T)
	OnClose(context.Context)
}
