package planner

import (
	"fmt"
	"sort"

	"github.com/casualjim/automata/api"
)

// Config carries what builtin planners may need: an engine for text-driven
// planners and the automaton's free-form extra args for configured ones.
type Config struct {
	Engine api.Engine
	Extra  map[string]any
}

type factory func(Config) (Planner, error)

var builtins = map[string]factory{
	"sequential": func(Config) (Planner, error) {
		return Sequential(), nil
	},
	"scripted": func(cfg Config) (Planner, error) {
		script, err := ScriptFromExtra(cfg.Extra)
		if err != nil {
			return nil, err
		}
		return Scripted(script)
	},
	"react": func(cfg Config) (Planner, error) {
		return React(cfg.Engine)
	},
}

// Builtins lists the available builtin planner names.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load resolves a builtin planner by name.
func Load(name string, cfg Config) (Planner, error) {
	f, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("planner %q not part of builtin planners: %v", name, Builtins())
	}
	return f(cfg)
}
