package api

import "context"

// Engine produces a completion for a prompt. Planners and reflectors that
// reason over free text depend on this seam rather than on any concrete
// backend, so deterministic engines can stand in during tests and demos.
type Engine interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
