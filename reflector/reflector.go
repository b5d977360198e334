// Package reflector produces the reflection lines an automaton considers
// before planning its next delegation: an itemized view of what has happened
// so far in the run.
package reflector

import (
	"context"
	"fmt"
	"sort"

	"github.com/casualjim/automata/runstate"
)

// Reflector turns the steps taken so far into reflection lines for the next
// planning turn.
type Reflector interface {
	Reflect(ctx context.Context, request string, steps []runstate.Step) ([]string, error)
}

// Func adapts a plain function to the Reflector interface.
type Func func(ctx context.Context, request string, steps []runstate.Step) ([]string, error)

func (f Func) Reflect(ctx context.Context, request string, steps []runstate.Step) ([]string, error) {
	return f(ctx, request, steps)
}

// Progress returns a reflector that itemizes the actions taken and their
// outcomes.
func Progress() Reflector {
	return Func(func(_ context.Context, request string, steps []runstate.Step) ([]string, error) {
		if len(steps) == 0 {
			return []string{fmt.Sprintf("The request is: %s. No actions have been taken yet.", request)}, nil
		}
		lines := make([]string, len(steps))
		for i, step := range steps {
			lines[i] = fmt.Sprintf("%d. Delegated to `%s` with input: %s. Result: %s", i+1, step.AutomatonID, step.Request, step.Result)
		}
		return lines, nil
	})
}

type factory func() (Reflector, error)

var builtins = map[string]factory{
	"progress": func() (Reflector, error) { return Progress(), nil },
}

// Builtins lists the available builtin reflector names.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load resolves a builtin reflector by name.
func Load(name string) (Reflector, error) {
	f, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("reflector %q not part of builtin reflectors: %v", name, Builtins())
	}
	return f()
}
