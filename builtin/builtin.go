package builtin

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/casualjim/automata/api"
	"github.com/casualjim/automata/pkg/slogx"
)

const saveTextParseError = "Could not parse input. Please provide the input in the following format: {file_name: <file_name>, description: <description>, content: <content>}"

const assistantPrompt = "You are a helpful assistant who can help generate a variety of content. However, if anyone asks you to access files, or refers to something from a past interaction, you will immediately inform them that the task is not possible, and provide no further information."

// Config carries the context a builtin function runner needs. Not every
// builtin uses every field; Load reports which ones are missing.
type Config struct {
	// Name is the display name of the automaton, used in result messages.
	Name string
	// Requester scopes filesystem side effects to a per-requester directory.
	Requester string
	// Workspace is the root directory for file artifacts.
	Workspace string
	// Engine backs the assistant builtin.
	Engine api.Engine
}

// SaveText returns a runner that writes a text artifact under
// <workspace>/<requester>/. The request must be a JSON object with
// "file_name" and "content" fields; anything else yields a correction
// message as the result so the caller can retry.
func SaveText(name, workspace, requester string) api.Runner {
	return func(ctx context.Context, request string) (string, error) {
		fileName := gjson.Get(request, "file_name")
		content := gjson.Get(request, "content")
		if !gjson.Valid(request) || !fileName.Exists() || !content.Exists() {
			return saveTextParseError, nil
		}

		path := filepath.Join(workspace, requester, fileName.String())
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("creating workspace directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(content.String()), 0o644); err != nil {
			return "", fmt.Errorf("writing %s: %w", path, err)
		}

		rel, err := filepath.Rel(workspace, path)
		if err != nil {
			rel = path
		}
		output := fmt.Sprintf("%s: saved file to `%s`", name, rel)
		slog.InfoContext(ctx, output, slogx.Automaton("save_text"))
		return output, nil
	}
}

// Think returns the request unchanged. It gives planners a delegate for
// recording intermediate reasoning as a step.
func Think() api.Runner {
	return func(_ context.Context, request string) (string, error) {
		return request, nil
	}
}

// Finalize returns the request unchanged. Planners route their last action
// here so the delegation loop knows the run is complete.
func Finalize() api.Runner {
	return func(_ context.Context, request string) (string, error) {
		return request, nil
	}
}

// Assistant completes free-form requests through the configured engine.
func Assistant(engine api.Engine) api.Runner {
	return func(ctx context.Context, request string) (string, error) {
		return engine.Complete(ctx, assistantPrompt+"\n\n"+request)
	}
}

var builtins = map[string]func(Config) (api.Runner, error){
	"save_text": func(cfg Config) (api.Runner, error) {
		workspace := cfg.Workspace
		if workspace == "" {
			workspace = "workspace"
		}
		return SaveText(cfg.Name, workspace, cfg.Requester), nil
	},
	"think":    func(Config) (api.Runner, error) { return Think(), nil },
	"finalize": func(Config) (api.Runner, error) { return Finalize(), nil },
	"assistant": func(cfg Config) (api.Runner, error) {
		if cfg.Engine == nil {
			return nil, fmt.Errorf("builtin function `assistant` requires the \"engine\" value in the `extra_args` field of the spec")
		}
		return Assistant(cfg.Engine), nil
	},
}

// Builtins lists the available builtin function names in sorted order.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load resolves a builtin function runner by id.
func Load(id string, cfg Config) (api.Runner, error) {
	factory, ok := builtins[id]
	if !ok {
		return nil, fmt.Errorf("function %q not part of builtin functions: %v", id, Builtins())
	}
	return factory(cfg)
}
