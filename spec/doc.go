// Package spec loads automata from YAML declarations and assembles them into
// runnable hierarchies. Each automaton lives in its own directory under a
// shared location, described by a spec.yml that names its rank, runner, and
// reasoning components. Building an id resolves its sub-automata recursively,
// enforcing strict rank descent on every edge.
package spec
