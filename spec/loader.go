package spec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fogfish/opts"

	"github.com/casualjim/automata/api"
	"github.com/casualjim/automata/automaton"
	"github.com/casualjim/automata/builtin"
	"github.com/casualjim/automata/events"
	"github.com/casualjim/automata/internal/executor"
	"github.com/casualjim/automata/internal/registry"
	"github.com/casualjim/automata/knowledge"
	"github.com/casualjim/automata/messages"
	"github.com/casualjim/automata/pkg/uuidx"
	"github.com/casualjim/automata/planner"
	"github.com/casualjim/automata/reflector"
	"github.com/casualjim/automata/runstate"
	"github.com/casualjim/automata/sessions"
	"github.com/casualjim/automata/validator"
)

// RunnerFactory builds a custom runner for an automaton. Registered
// factories extend the loader beyond the core and function runners.
type RunnerFactory func(id string, sp *Spec, requester string) (api.Runner, error)

// Loader reads automata specs from a location directory and builds them into
// runnable automata. Parsed specs are cached; builds are not, since every
// build opens a fresh session.
type Loader struct {
	location  string
	workspace string
	store     sessions.Store
	hook      events.Hook
	engines   map[string]api.Engine
	runners   map[string]RunnerFactory
	exec      *executor.Local
	specs     registry.Registry[*Spec]
}

var (
	// WithWorkspace sets the root directory for file artifacts written by
	// builtin functions.
	WithWorkspace = opts.ForName[Loader, string]("workspace")
	// WithStore replaces the default file-backed session store.
	WithStore = opts.ForName[Loader, sessions.Store]("store")
	// WithHook receives the events of every run started through built
	// automata.
	WithHook = opts.ForName[Loader, events.Hook]("hook")
)

// WithEngine registers a text engine under a name specs can refer to.
func WithEngine(name string, engine api.Engine) opts.Option[Loader] {
	return opts.Type[Loader](func(l *Loader) error {
		l.engines[name] = engine
		return nil
	})
}

// WithRunner registers a custom runner factory.
func WithRunner(name string, factory RunnerFactory) opts.Option[Loader] {
	return opts.Type[Loader](func(l *Loader) error {
		l.runners[name] = factory
		return nil
	})
}

// New creates a loader rooted at the given automata location.
func New(location string, options ...opts.Option[Loader]) (*Loader, error) {
	if location == "" {
		return nil, fmt.Errorf("automata location is required")
	}

	loader := Loader{
		location:  location,
		workspace: "workspace",
		store:     sessions.NewFileStore(location),
		hook:      events.NoopHook{},
		engines:   map[string]api.Engine{},
		runners:   map[string]RunnerFactory{},
		exec:      executor.NewLocal(),
		specs:     registry.New[*Spec](),
	}
	if err := opts.Apply(&loader, options); err != nil {
		return nil, err
	}
	return &loader, nil
}

// Location returns the automata location directory.
func (l *Loader) Location() string { return l.location }

// IDs lists the automaton ids available at the location: every subdirectory
// holding a spec.yml.
func (l *Loader) IDs() ([]string, error) {
	entries, err := os.ReadDir(l.location)
	if err != nil {
		return nil, fmt.Errorf("reading automata location: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(specPath(l.location, entry.Name())); err == nil {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Load parses the spec for an id, serving repeated loads from cache.
func (l *Loader) Load(id string) (*Spec, error) {
	if cached, ok := l.specs.Get(id); ok {
		return cached, nil
	}

	sp, err := parseFile(specPath(l.location, id), id)
	if err != nil {
		return nil, err
	}
	l.specs.Add(id, sp)
	return sp, nil
}

// Build resolves an id into a runnable automaton, recursively building its
// sub-automata. The requester identifies who will call the automaton; its
// session events are recorded against both parties.
func (l *Loader) Build(id, requesterID, requesterSessionID string) (api.Automaton, error) {
	sp, err := l.Load(id)
	if err != nil {
		return nil, err
	}

	selfSession := uuidx.New().String()

	options, err := l.componentOptions(id, sp)
	if err != nil {
		return nil, err
	}

	for _, subID := range sp.SubAutomata {
		if subID == id {
			return nil, fmt.Errorf("automaton %q cannot delegate to itself", id)
		}
		subSpec, err := l.Load(subID)
		if err != nil {
			return nil, err
		}
		if subSpec.Rank >= sp.Rank {
			return nil, fmt.Errorf("rank violation: sub-automaton %q (rank %d) must rank below %q (rank %d)",
				subID, subSpec.Rank, id, sp.Rank)
		}
		sub, err := l.Build(subID, id, selfSession)
		if err != nil {
			return nil, err
		}
		options = append(options, automaton.SubAutomata(sub))
	}

	run, err := l.resolveRunner(id, sp, requesterID, options)
	if err != nil {
		return nil, err
	}

	run = sessions.Wrap(run, sessions.WrapConfig{
		Store:              l.store,
		AutomatonID:        id,
		AutomatonName:      sp.Name,
		SessionID:          selfSession,
		RequesterID:        requesterID,
		RequesterSessionID: requesterSessionID,
	})

	return automaton.New(append(options, automaton.WithRunner(run))...)
}

// componentOptions translates the declarative parts of a spec into automaton
// options: identity, contract, and reasoning components.
func (l *Loader) componentOptions(id string, sp *Spec) ([]automaton.Option, error) {
	// The id is the delegation key: planners address sub-automata by it, so
	// it becomes the automaton's name. The display name from the spec shows
	// up in session logs and builtin result messages instead.
	options := []automaton.Option{
		automaton.Name(id),
		automaton.Description(sp.Description),
		automaton.Rank(sp.Rank),
		automaton.InputRequirements(sp.Input.Requirements...),
		automaton.OutputFormat(sp.Output.Format),
	}
	if len(sp.Input.Objectives) > 0 {
		options = append(options, automaton.Instructions(strings.Join(sp.Input.Objectives, "\n")))
	}

	if name := sp.Input.Validator.Name; name != "" {
		v, err := validator.Load(name, validator.Config{Requirements: sp.Input.Requirements})
		if err != nil {
			return nil, fmt.Errorf("automaton %q: %w", id, err)
		}
		options = append(options, automaton.WithInputValidator(v))
	}
	if name := sp.Output.Validator.Name; name != "" {
		v, err := validator.Load(name, validator.Config{})
		if err != nil {
			return nil, fmt.Errorf("automaton %q: %w", id, err)
		}
		options = append(options, automaton.WithOutputValidator(v))
	}

	if name := sp.Reasoning.Planner.Name; name != "" {
		engine, err := l.engine(sp.Reasoning.Planner.Engine)
		if err != nil {
			return nil, fmt.Errorf("automaton %q: %w", id, err)
		}
		pl, err := planner.Load(name, planner.Config{Engine: engine, Extra: sp.ExtraArgs})
		if err != nil {
			return nil, fmt.Errorf("automaton %q: %w", id, err)
		}
		options = append(options, automaton.WithPlanner(pl))
	}
	if name := sp.Reasoning.Reflector; name != "" {
		r, err := reflector.Load(name)
		if err != nil {
			return nil, fmt.Errorf("automaton %q: %w", id, err)
		}
		options = append(options, automaton.WithReflector(r))
	}
	if name := sp.Reasoning.Knowledge.Name; name != "" {
		k, err := knowledge.Load(name, knowledge.Config{
			Dir:  filepath.Join(l.location, id),
			Path: sp.Reasoning.Knowledge.Path,
		})
		if err != nil {
			return nil, fmt.Errorf("automaton %q: %w", id, err)
		}
		options = append(options, automaton.WithKnowledge(k))
	}

	return options, nil
}

func (l *Loader) resolveRunner(id string, sp *Spec, requesterID string, options []automaton.Option) (api.Runner, error) {
	switch sp.Runner {
	case RunnerCore:
		if sp.Reasoning.Planner.Name == "" {
			return nil, fmt.Errorf("core automaton %q requires a reasoning planner", id)
		}
		inner, err := automaton.New(options...)
		if err != nil {
			return nil, err
		}
		return l.coreRunner(inner, requesterID), nil

	case RunnerFunction:
		engine, err := l.engine(extraEngineName(sp))
		if err != nil {
			return nil, fmt.Errorf("automaton %q: %w", id, err)
		}
		run, err := builtin.Load(id, builtin.Config{
			Name:      sp.Name,
			Requester: requesterID,
			Workspace: l.workspace,
			Engine:    engine,
		})
		if err != nil {
			return nil, fmt.Errorf("automaton %q: %w", id, err)
		}
		return run, nil

	default:
		factory, ok := l.runners[sp.Runner]
		if !ok {
			return nil, fmt.Errorf("runner %q not part of builtin runners: %v", sp.Runner, []string{RunnerCore, RunnerFunction})
		}
		return factory(id, sp, requesterID)
	}
}

// coreRunner drives the delegation loop for a spec-built automaton: a fresh
// run state seeded with the request, executed locally to completion.
func (l *Loader) coreRunner(inner api.Automaton, requesterID string) api.Runner {
	return func(ctx context.Context, request string) (string, error) {
		state := runstate.New()
		state.AddUserPrompt(messages.New().
			WithSender(requesterID).
			UserPrompt(request))

		cmd, err := executor.NewRunCommand(inner, state, l.hook)
		if err != nil {
			return "", err
		}
		cmd = cmd.WithRequester(requesterID)

		fut := executor.NewFuture(executor.DefaultUnmarshal[string]())
		if err := l.exec.Run(ctx, cmd, fut); err != nil {
			return "", err
		}
		return fut.Get()
	}
}

func (l *Loader) engine(name string) (api.Engine, error) {
	if name == "" {
		return nil, nil
	}
	engine, ok := l.engines[name]
	if !ok {
		return nil, fmt.Errorf("engine %q is not registered with the loader", name)
	}
	return engine, nil
}

func extraEngineName(sp *Spec) string {
	if sp.ExtraArgs == nil {
		return ""
	}
	name, _ := sp.ExtraArgs["engine"].(string)
	return name
}
