// Package automaton constructs automata: ranked agents with a declared
// contract and a set of strictly lower-ranked capabilities. Construction is
// the first gate of the hierarchy's ordering; an automaton that would break
// rank descent never comes into existence.
package automaton

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/casualjim/automata/api"
	"github.com/casualjim/automata/knowledge"
	"github.com/casualjim/automata/planner"
	"github.com/casualjim/automata/reflector"
	"github.com/casualjim/automata/tool"
	"github.com/casualjim/automata/types"
	"github.com/casualjim/automata/validator"
	"github.com/fogfish/opts"
)

var (
	_ api.Automaton = (*defaultAutomaton)(nil)
	_ api.Runnable  = (*defaultAutomaton)(nil)
)

// defaultAutomaton is the standard automaton implementation. All fields are
// fixed at construction.
type defaultAutomaton struct {
	name              string
	description       string
	rank              int
	instructions      string
	inputRequirements []string
	outputFormat      string
	tools             []tool.Definition
	subAutomata       []api.Automaton

	planner         planner.Planner
	reflector       reflector.Reflector
	knowledge       knowledge.Source
	inputValidator  validator.Validator
	outputValidator validator.Validator
	runner          api.Runner
}

func (a *defaultAutomaton) Name() string                { return a.name }
func (a *defaultAutomaton) Description() string         { return a.description }
func (a *defaultAutomaton) Rank() int                   { return a.rank }
func (a *defaultAutomaton) InputRequirements() []string { return a.inputRequirements }
func (a *defaultAutomaton) OutputFormat() string        { return a.outputFormat }
func (a *defaultAutomaton) Tools() []tool.Definition    { return a.tools }
func (a *defaultAutomaton) SubAutomata() []api.Automaton {
	return a.subAutomata
}

// Component accessors, asserted by executors through the Components
// interface.
func (a *defaultAutomaton) Planner() planner.Planner             { return a.planner }
func (a *defaultAutomaton) Reflector() reflector.Reflector       { return a.reflector }
func (a *defaultAutomaton) Knowledge() knowledge.Source          { return a.knowledge }
func (a *defaultAutomaton) InputValidator() validator.Validator  { return a.inputValidator }
func (a *defaultAutomaton) OutputValidator() validator.Validator { return a.outputValidator }
func (a *defaultAutomaton) Runner() api.Runner                   { return a.runner }

// Components exposes the reasoning components an automaton was built with.
// Any accessor may return nil; executors fall back to defaults.
type Components interface {
	Planner() planner.Planner
	Reflector() reflector.Reflector
	Knowledge() knowledge.Source
	InputValidator() validator.Validator
	OutputValidator() validator.Validator
	Runner() api.Runner
}

// RenderInstructions renders the automaton's instructions with the provided
// context variables.
func (a *defaultAutomaton) RenderInstructions(cv types.ContextVars) (string, error) {
	if !strings.Contains(a.instructions, "{{") {
		return a.instructions, nil
	}
	return renderTemplate("instructions", a.instructions, cv)
}

func renderTemplate(name, templateStr string, cv types.ContextVars) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, cv); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// Option configures an automaton under construction.
type Option = opts.Option[defaultAutomaton]

var (
	Name         = opts.ForName[defaultAutomaton, string]("name")
	Description  = opts.ForName[defaultAutomaton, string]("description")
	Rank         = opts.ForName[defaultAutomaton, int]("rank")
	Instructions = opts.ForName[defaultAutomaton, string]("instructions")
	OutputFormat = opts.ForName[defaultAutomaton, string]("outputFormat")

	WithPlanner         = opts.ForName[defaultAutomaton, planner.Planner]("planner")
	WithReflector       = opts.ForName[defaultAutomaton, reflector.Reflector]("reflector")
	WithKnowledge       = opts.ForName[defaultAutomaton, knowledge.Source]("knowledge")
	WithInputValidator  = opts.ForName[defaultAutomaton, validator.Validator]("inputValidator")
	WithOutputValidator = opts.ForName[defaultAutomaton, validator.Validator]("outputValidator")
	WithRunner          = opts.ForName[defaultAutomaton, api.Runner]("runner")
)

// InputRequirements declares what a valid request must contain.
func InputRequirements(requirements ...string) opts.Option[defaultAutomaton] {
	return opts.Type[defaultAutomaton](func(o *defaultAutomaton) error {
		o.inputRequirements = append(o.inputRequirements, requirements...)
		return nil
	})
}

// Tools attaches callable capabilities. Rank descent is enforced in New,
// after every option has applied.
func Tools(tool tool.Definition, extraTools ...tool.Definition) opts.Option[defaultAutomaton] {
	return opts.Type[defaultAutomaton](func(o *defaultAutomaton) error {
		o.tools = append(o.tools, tool)
		o.tools = append(o.tools, extraTools...)
		return nil
	})
}

// SubAutomata attaches lower-ranked automata directly.
func SubAutomata(sub api.Automaton, extra ...api.Automaton) opts.Option[defaultAutomaton] {
	return opts.Type[defaultAutomaton](func(o *defaultAutomaton) error {
		o.subAutomata = append(o.subAutomata, sub)
		o.subAutomata = append(o.subAutomata, extra...)
		return nil
	})
}

// New constructs an automaton. It fails when the name is missing, the rank is
// negative, or any attached capability does not sit at a strictly lower rank.
func New(options ...opts.Option[defaultAutomaton]) (api.Automaton, error) {
	a := &defaultAutomaton{}
	if err := opts.Apply(a, options); err != nil {
		return nil, err
	}

	var errs []error
	if a.name == "" {
		errs = append(errs, errors.New("automaton name is required"))
	}
	if a.rank < 0 {
		errs = append(errs, fmt.Errorf("automaton %q has negative rank %d", a.name, a.rank))
	}

	for _, td := range a.tools {
		if td.Rank >= a.rank {
			errs = append(errs, fmt.Errorf(
				"tool %q has rank %d, automaton %q requires tools of rank below %d",
				td.Name, td.Rank, a.name, a.rank))
		}
	}
	for _, sub := range a.subAutomata {
		if sub == nil {
			errs = append(errs, fmt.Errorf("automaton %q has a nil sub-automaton", a.name))
			continue
		}
		if sub.Rank() >= a.rank {
			errs = append(errs, fmt.Errorf(
				"sub-automaton %q has rank %d, automaton %q requires sub-automata of rank below %d",
				sub.Name(), sub.Rank(), a.name, a.rank))
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return a, nil
}

// Must constructs an automaton and panics on a construction error. Use it for
// hierarchies assembled at program start where a bad definition is fatal.
func Must(options ...opts.Option[defaultAutomaton]) api.Automaton {
	a, err := New(options...)
	if err != nil {
		panic(err)
	}
	return a
}

// Run executes the automaton's runner. Automata constructed without a runner
// report an error; they are driven through an executor instead.
func (a *defaultAutomaton) Run(ctx context.Context, request string) (string, error) {
	if a.runner == nil {
		return "", fmt.Errorf("automaton %q has no runner", a.name)
	}
	return a.runner(ctx, request)
}
