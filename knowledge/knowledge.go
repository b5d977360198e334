// Package knowledge supplies background text an automaton can draw on while
// planning. Knowledge is optional; automata without a configured source plan
// from the run state alone.
package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Source provides background knowledge for a request.
type Source interface {
	Background(ctx context.Context, request string) (string, error)
}

// Func adapts a plain function to the Source interface.
type Func func(ctx context.Context, request string) (string, error)

func (f Func) Background(ctx context.Context, request string) (string, error) {
	return f(ctx, request)
}

// Static returns a source that always yields the same text.
func Static(text string) Source {
	return Func(func(context.Context, string) (string, error) {
		return text, nil
	})
}

// File returns a source backed by a file, read on every retrieval so edits
// show up without a reload.
func File(path string) Source {
	return Func(func(context.Context, string) (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading knowledge file: %w", err)
		}
		return string(data), nil
	})
}

// Config carries what builtin knowledge sources may need. Dir is the
// automaton's directory; relative file paths resolve against it.
type Config struct {
	Dir  string
	Path string
}

type factory func(Config) (Source, error)

var builtins = map[string]factory{
	"static": func(cfg Config) (Source, error) {
		if cfg.Path == "" {
			return nil, fmt.Errorf("static knowledge requires a file path")
		}
		path := cfg.Path
		if !filepath.IsAbs(path) && cfg.Dir != "" {
			path = filepath.Join(cfg.Dir, path)
		}
		return File(path), nil
	},
}

// Builtins lists the available builtin knowledge source names.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load resolves a builtin knowledge source by name.
func Load(name string, cfg Config) (Source, error) {
	f, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("knowledge source %q not part of builtin knowledge: %v", name, Builtins())
	}
	return f(cfg)
}
