package automata

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/automata/api"
	"github.com/casualjim/automata/internal/executor"
	"github.com/casualjim/automata/messages"
	"github.com/casualjim/automata/runstate"
	"github.com/fogfish/opts"
)

// Hierarchy is a named registry of top-level automata plus the steps a run
// executes against them. Rank ordering inside each automaton is settled at
// composition; the hierarchy only routes requests.
type Hierarchy struct {
	name     string
	automata *haxmap.Map[string, api.Automaton]
	steps    []RunStep
}

// Automata registers automata with the hierarchy, keyed by name.
func Automata(a api.Automaton, extra ...api.Automaton) opts.Option[Hierarchy] {
	return opts.Type[Hierarchy](func(o *Hierarchy) error {
		o.automata.Set(a.Name(), a)
		for elem := range slices.Values(extra) {
			o.automata.Set(elem.Name(), elem)
		}
		return nil
	})
}

// Steps appends run steps in execution order.
func Steps(step RunStep, extraSteps ...RunStep) opts.Option[Hierarchy] {
	return opts.Type[Hierarchy](func(o *Hierarchy) error {
		o.steps = append(o.steps, step)
		o.steps = append(o.steps, extraSteps...)
		return nil
	})
}

// Name sets the sender name used for user prompts, "User" by default.
var Name = opts.ForName[Hierarchy, string]("name")

// New creates a hierarchy from the provided options.
func New(options ...opts.Option[Hierarchy]) *Hierarchy {
	h := &Hierarchy{
		name:     "User",
		automata: haxmap.New[string, api.Automaton](),
	}
	if err := opts.Apply(h, options); err != nil {
		panic(err)
	}
	return h
}

// Get returns a registered automaton by name.
func (h *Hierarchy) Get(name string) (api.Automaton, bool) {
	return h.automata.Get(name)
}

// Names lists the registered automata in sorted order.
func (h *Hierarchy) Names() []string {
	names := make([]string, 0, h.automata.Len())
	h.automata.ForEach(func(name string, _ api.Automaton) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// Run executes the hierarchy's steps in order. Intermediate steps resolve
// into a throwaway promise; only the last step carries the caller's promise
// and structured-output schema. The execution context is closed when Run
// returns, forwarding the final result to the hook.
func (h *Hierarchy) Run(ctx context.Context, rc ExecutionContext) error {
	defer rc.onClose(ctx)

	maxItems := len(h.steps) - 1

	for i, step := range h.steps {
		var promise executor.Promise
		var schema *executor.StructuredOutput
		if i < maxItems {
			promise = noopPromise{}
		} else {
			promise = rc.promise
			schema = rc.responseSchema
		}

		if err := h.runStep(ctx, step.automatonName, step.task, ExecutionContext{
			executor:       rc.executor,
			hook:           rc.hook,
			promise:        promise,
			contextVars:    rc.contextVars,
			onClose:        rc.onClose,
			maxTurns:       rc.maxTurns,
			responseSchema: schema,
		}); err != nil {
			return err
		}
	}

	return nil
}

func (h *Hierarchy) runStep(ctx context.Context, automatonName string, prompt task, rc ExecutionContext) error {
	a, found := h.automata.Get(automatonName)
	if !found {
		return fmt.Errorf("automaton %s not found", automatonName)
	}

	state := runstate.New()

	var message messages.Message[messages.UserMessage]
	switch tsk := prompt.(type) {
	case stringTask:
		message = messages.New().WithSender(h.name).UserPrompt(string(tsk))
	case messageTask:
		message = messages.Message[messages.UserMessage](tsk)
	default:
		return fmt.Errorf("unknown task type %T", tsk)
	}
	state.AddUserPrompt(message)
	rc.hook.OnUserPrompt(ctx, message)

	cmd, err := rc.createCommand(a, state)
	if err != nil {
		return err
	}

	return rc.executor.Run(ctx, cmd, rc.promise)
}
