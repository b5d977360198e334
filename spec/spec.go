package spec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Runner names understood by the loader. Anything else must be registered
// as a custom runner factory.
const (
	RunnerCore     = "core"
	RunnerFunction = "function"
)

// ComponentRef names a reasoning component and, when the component is text
// driven, the engine backing it.
type ComponentRef struct {
	Name   string `yaml:"name" json:"name"`
	Engine string `yaml:"engine" json:"engine,omitempty"`
}

// KnowledgeRef names a knowledge source. Path is resolved relative to the
// automaton's directory.
type KnowledgeRef struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path,omitempty"`
}

// InputSpec declares what a valid request looks like.
type InputSpec struct {
	Requirements []string     `yaml:"requirements" json:"requirements,omitempty"`
	Objectives   []string     `yaml:"objectives" json:"objectives,omitempty"`
	Validator    ComponentRef `yaml:"validator" json:"validator,omitempty"`
}

// OutputSpec declares the shape of the automaton's reply.
type OutputSpec struct {
	Format    string       `yaml:"format" json:"format,omitempty"`
	Validator ComponentRef `yaml:"validator" json:"validator,omitempty"`
}

// ReasoningSpec wires the planner, reflector, and knowledge source of a core
// automaton.
type ReasoningSpec struct {
	Planner   ComponentRef `yaml:"planner" json:"planner,omitempty"`
	Reflector string       `yaml:"reflector" json:"reflector,omitempty"`
	Knowledge KnowledgeRef `yaml:"knowledge" json:"knowledge,omitempty"`
}

// Spec is the parsed spec.yml of one automaton.
type Spec struct {
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description" json:"description"`
	Rank        int            `yaml:"rank" json:"rank"`
	Runner      string         `yaml:"runner" json:"runner"`
	Input       InputSpec      `yaml:"input" json:"input"`
	Output      OutputSpec     `yaml:"output" json:"output"`
	Reasoning   ReasoningSpec  `yaml:"reasoning" json:"reasoning"`
	SubAutomata []string       `yaml:"sub_automata" json:"sub_automata,omitempty"`
	ExtraArgs   map[string]any `yaml:"extra_args" json:"extra_args,omitempty"`
}

func (s *Spec) validate(id string) error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, fmt.Errorf("automaton %q has no name", id))
	}
	if s.Rank < 0 {
		errs = append(errs, fmt.Errorf("automaton %q has negative rank %d", id, s.Rank))
	}
	if s.Runner == "" {
		errs = append(errs, fmt.Errorf("automaton %q has no runner", id))
	}
	return errors.Join(errs...)
}

func parseFile(path, id string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec for %q: %w", id, err)
	}

	var sp Spec
	if err := yaml.Unmarshal(data, &sp); err != nil {
		return nil, fmt.Errorf("parsing spec for %q: %w", id, err)
	}
	if err := sp.validate(id); err != nil {
		return nil, err
	}
	return &sp, nil
}

func specPath(location, id string) string {
	return filepath.Join(location, id, "spec.yml")
}
