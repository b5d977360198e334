package automata

import (
	"context"
	"fmt"

	"github.com/casualjim/automata/api"
	"github.com/casualjim/automata/events"
	"github.com/casualjim/automata/internal/executor"
	"github.com/casualjim/automata/messages"
	"github.com/casualjim/automata/pkg/stdx"
	"github.com/casualjim/automata/runstate"
	"github.com/casualjim/automata/tool"
)

// MustAsTool wraps AsTool and panics on error.
func MustAsTool(a api.Automaton, options ...tool.Option) tool.Definition {
	return stdx.Must1(AsTool(a, options...))
}

// AsTool wraps an automaton into a tool definition so it can serve as a leaf
// capability of a higher-ranked automaton. The wrapped tool keeps the
// automaton's rank; the attach-time gate still applies, so an automaton can
// only carry tools wrapping strictly lower-ranked automata.
//
// The tool function takes the raw request string and resolves it the way the
// executor would: through the automaton's runner when it has one, otherwise
// by driving its delegation loop to completion.
func AsTool(a api.Automaton, options ...tool.Option) (tool.Definition, error) {
	if a == nil {
		return tool.Definition{}, fmt.Errorf("automaton is required")
	}

	run := func(ctx context.Context, request string) (string, error) {
		return resolveRequest(ctx, a, request)
	}

	toolOpts := append([]tool.Option{
		tool.Name(a.Name()),
		tool.Description(a.Description()),
	}, options...)
	// Rank goes last so wrapping can never erase or lower it.
	toolOpts = append(toolOpts, tool.Rank(a.Rank()))

	return tool.New(run, toolOpts...)
}

type runnerProvider interface {
	Runner() api.Runner
}

func resolveRequest(ctx context.Context, a api.Automaton, request string) (string, error) {
	if rp, ok := a.(runnerProvider); ok {
		if run := rp.Runner(); run != nil {
			return run(ctx, request)
		}
	} else if runnable, ok := a.(api.Runnable); ok {
		return runnable.Run(ctx, request)
	}

	state := runstate.New()
	state.AddUserPrompt(messages.New().WithSender(a.Name()).UserPrompt(request))

	cmd, err := executor.NewRunCommand(a, state, events.NoopHook{})
	if err != nil {
		return "", err
	}

	fut := executor.NewFuture(executor.DefaultUnmarshal[string]())
	if err := executor.NewLocal().Run(ctx, cmd, fut); err != nil {
		return "", err
	}
	return fut.Get()
}
