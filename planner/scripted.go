package planner

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/goccy/go-json"
	"github.com/mitchellh/mapstructure"
)

// ScriptStep is one entry of a scripted plan. Request is a text/template
// rendered against the run: {{.Request}} is the original request,
// {{.LastResult}} the result of the previous step. The `json` function
// quotes and escapes a value so it can be spliced into a JSON request, e.g.
// `{"content": {{.LastResult | json}}}`; results with newlines or quotes
// would otherwise break the surrounding document.
type ScriptStep struct {
	Automaton string `mapstructure:"automaton" yaml:"automaton"`
	Request   string `mapstructure:"request"   yaml:"request"`
}

type scriptData struct {
	Request    string
	LastResult string
}

var scriptFuncs = template.FuncMap{
	"json": func(v string) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	},
}

// Scripted returns a planner that follows a fixed action list, then
// finalizes with the last result. Spec-loaded automata configure it through
// their extra args.
func Scripted(script []ScriptStep) (Planner, error) {
	if len(script) == 0 {
		return nil, fmt.Errorf("scripted planner requires at least one step")
	}

	templates := make([]*template.Template, len(script))
	for i, step := range script {
		if step.Automaton == "" {
			return nil, fmt.Errorf("scripted planner step %d has no automaton", i)
		}
		tmpl, err := template.New(fmt.Sprintf("step-%d", i)).Funcs(scriptFuncs).Parse(step.Request)
		if err != nil {
			return nil, fmt.Errorf("scripted planner step %d: %w", i, err)
		}
		templates[i] = tmpl
	}

	return Func(func(_ context.Context, in Input) (Plan, error) {
		last, _ := lastResult(in.Steps)
		idx := len(in.Steps)

		if idx >= len(script) {
			result := last
			if result == "" {
				result = in.Request
			}
			return Plan{
				Action: Action{AutomatonID: FinalizeID, Request: result},
				Text:   "script exhausted, finalizing",
			}, nil
		}

		var buf strings.Builder
		if err := templates[idx].Execute(&buf, scriptData{Request: in.Request, LastResult: last}); err != nil {
			return Plan{}, fmt.Errorf("scripted planner step %d: %w", idx, err)
		}

		return Plan{
			Action: Action{AutomatonID: script[idx].Automaton, Request: buf.String()},
			Text:   fmt.Sprintf("script step %d of %d", idx+1, len(script)),
		}, nil
	}), nil
}

// ScriptFromExtra decodes a script from an automaton's free-form extra args.
// The script lives under the "script" key as a list of {automaton, request}
// entries.
func ScriptFromExtra(extra map[string]any) ([]ScriptStep, error) {
	raw, ok := extra["script"]
	if !ok {
		return nil, fmt.Errorf("scripted planner requires a `script` entry in extra args")
	}

	var script []ScriptStep
	if err := mapstructure.Decode(raw, &script); err != nil {
		return nil, fmt.Errorf("decoding script: %w", err)
	}
	return script, nil
}
