// Package validator checks automaton inputs and outputs against the
// contract the automaton declares. A failed validation is not an error in
// the Go sense: the automaton reports the message back to its requester so
// the requester can correct the request.
package validator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Validator checks a value. ok reports whether the value passed, msg carries
// the correction text when it did not, and err reports validator failure
// (not value failure).
type Validator interface {
	Validate(ctx context.Context, value string) (ok bool, msg string, err error)
}

// Func adapts a plain function to the Validator interface.
type Func func(ctx context.Context, value string) (bool, string, error)

func (f Func) Validate(ctx context.Context, value string) (bool, string, error) {
	return f(ctx, value)
}

// Requirements returns a validator that checks a JSON value for the presence
// of every named field. Non-JSON values fail with the requirement list so the
// requester knows what shape to send.
func Requirements(fields ...string) Validator {
	return Func(func(_ context.Context, value string) (bool, string, error) {
		if len(fields) == 0 {
			return true, "", nil
		}
		if !gjson.Valid(value) {
			return false, fmt.Sprintf("Input validation failed: the input is not valid JSON. The requirements were:\n%v", fields), nil
		}

		parsed := gjson.Parse(value)
		var missing []string
		for _, field := range fields {
			if !parsed.Get(field).Exists() {
				missing = append(missing, field)
			}
		}
		if len(missing) > 0 {
			return false, fmt.Sprintf("Input validation failed: missing fields %v. The requirements were:\n%v", missing, fields), nil
		}
		return true, "", nil
	})
}

// NonEmpty returns a validator that rejects blank values.
func NonEmpty() Validator {
	return Func(func(_ context.Context, value string) (bool, string, error) {
		if strings.TrimSpace(value) == "" {
			return false, "Input validation failed: the input is empty.", nil
		}
		return true, "", nil
	})
}

// Config carries what builtin validators may need.
type Config struct {
	Requirements []string
}

type factory func(Config) (Validator, error)

var builtins = map[string]factory{
	"requirements": func(cfg Config) (Validator, error) {
		return Requirements(cfg.Requirements...), nil
	},
	"non_empty": func(Config) (Validator, error) {
		return NonEmpty(), nil
	},
}

// Builtins lists the available builtin validator names.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load resolves a builtin validator by name.
func Load(name string, cfg Config) (Validator, error) {
	f, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("validator %q not part of builtin validators: %v", name, Builtins())
	}
	return f(cfg)
}
