package builtin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casualjim/automata/api"
)

type engineFunc func(ctx context.Context, prompt string) (string, error)

func (f engineFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func TestSaveText(t *testing.T) {
	ctx := context.Background()

	t.Run("writes the artifact and reports the relative path", func(t *testing.T) {
		workspace := t.TempDir()
		run := SaveText("Save Text", workspace, "quiz_creator")

		result, err := run(ctx, `{"file_name": "math_quiz.txt", "content": "1. What is 2+2?"}`)
		require.NoError(t, err)
		assert.Equal(t, "Save Text: saved file to `"+filepath.Join("quiz_creator", "math_quiz.txt")+"`", result)

		data, err := os.ReadFile(filepath.Join(workspace, "quiz_creator", "math_quiz.txt"))
		require.NoError(t, err)
		assert.Equal(t, "1. What is 2+2?", string(data))
	})

	t.Run("malformed input returns the correction message", func(t *testing.T) {
		run := SaveText("Save Text", t.TempDir(), "quiz_creator")

		for _, request := range []string{
			"not json at all",
			`{"file_name": "quiz.txt"}`,
			`{"content": "missing the file name"}`,
		} {
			result, err := run(ctx, request)
			require.NoError(t, err)
			assert.Equal(t, saveTextParseError, result)
		}
	})
}

func TestThinkAndFinalize(t *testing.T) {
	ctx := context.Background()

	for name, run := range map[string]api.Runner{"think": Think(), "finalize": Finalize()} {
		result, err := run(ctx, "echo me")
		require.NoError(t, err, name)
		assert.Equal(t, "echo me", result, name)
	}
}

func TestAssistant(t *testing.T) {
	var prompt string
	run := Assistant(engineFunc(func(_ context.Context, p string) (string, error) {
		prompt = p
		return "answered", nil
	}))

	result, err := run(context.Background(), "write a haiku")
	require.NoError(t, err)
	assert.Equal(t, "answered", result)
	assert.Contains(t, prompt, "write a haiku")
	assert.Contains(t, prompt, "helpful assistant")
}

func TestLoad(t *testing.T) {
	t.Run("resolves builtins", func(t *testing.T) {
		for _, name := range Builtins() {
			cfg := Config{Name: "n", Requester: "r"}
			if name == "assistant" {
				cfg.Engine = engineFunc(func(context.Context, string) (string, error) { return "", nil })
			}
			run, err := Load(name, cfg)
			require.NoError(t, err, name)
			assert.NotNil(t, run, name)
		}
	})

	t.Run("assistant requires an engine", func(t *testing.T) {
		_, err := Load("assistant", Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "extra_args")
	})

	t.Run("unknown function errors with the builtin list", func(t *testing.T) {
		_, err := Load("nope", Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not part of builtin functions")
	})
}
