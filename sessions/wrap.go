package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/casualjim/automata/api"
	"github.com/casualjim/automata/pkg/slogx"
)

// WrapConfig names the two parties of a wrapped runner. Events land in the
// automaton's log under SessionID and in the requester's log under
// RequesterSessionID.
type WrapConfig struct {
	Store              Store
	AutomatonID        string
	AutomatonName      string
	SessionID          string
	RequesterID        string
	RequesterSessionID string
}

// Wrap decorates a runner with session handling: start/end logging, one
// event per invocation persisted to both the callee's and the requester's
// session logs. A cancelled run is recorded as stopped rather than failed,
// so the requester's log explains the missing result.
func Wrap(run api.Runner, cfg WrapConfig) api.Runner {
	return func(ctx context.Context, request string) (string, error) {
		slog.InfoContext(ctx, "automaton start",
			slogx.Automaton(cfg.AutomatonID),
			slogx.Session(cfg.SessionID),
		)

		result, err := run(ctx, request)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			result = fmt.Sprintf("Sub-automaton `%s` took too long to process and was manually stopped.", cfg.AutomatonName)
			err = nil
		default:
			result = fmt.Sprintf("Sub-automaton `%s` failed: %v", cfg.AutomatonName, err)
		}

		slog.InfoContext(ctx, "automaton end",
			slogx.Automaton(cfg.AutomatonID),
			slogx.Session(cfg.SessionID),
		)

		event := NewEvent(cfg.RequesterID, cfg.AutomatonID, request, result)
		if serr := cfg.Store.Append(ctx, cfg.AutomatonID, cfg.SessionID, event); serr != nil {
			slog.ErrorContext(ctx, "failed to record session event", slogx.Error(serr))
		}
		if serr := cfg.Store.Append(ctx, cfg.RequesterID, cfg.RequesterSessionID, event); serr != nil {
			slog.ErrorContext(ctx, "failed to record requester session event", slogx.Error(serr))
		}

		return result, err
	}
}
