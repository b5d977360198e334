package automaton

import (
	"context"
	"testing"

	"github.com/casualjim/automata/tool"
	"github.com/casualjim/automata/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(rank int, name string) tool.Definition {
	return tool.Must(func(text string) string { return text },
		tool.Name(name),
		tool.Rank(rank),
	)
}

func TestNew(t *testing.T) {
	t.Run("requires a name", func(t *testing.T) {
		_, err := New(Rank(1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name is required")
	})

	t.Run("rejects negative rank", func(t *testing.T) {
		_, err := New(Name("bad"), Rank(-1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "negative rank")
	})

	t.Run("builds with full configuration", func(t *testing.T) {
		a, err := New(
			Name("quiz_creator"),
			Description("Creates quizzes"),
			Rank(2),
			Instructions("You create quizzes."),
			InputRequirements("A topic for the quiz"),
			OutputFormat("The file name of the saved quiz"),
			Tools(echoTool(0, "save_text"), echoTool(1, "think")),
		)
		require.NoError(t, err)
		assert.Equal(t, "quiz_creator", a.Name())
		assert.Equal(t, "Creates quizzes", a.Description())
		assert.Equal(t, 2, a.Rank())
		assert.Equal(t, []string{"A topic for the quiz"}, a.InputRequirements())
		assert.Equal(t, "The file name of the saved quiz", a.OutputFormat())
		assert.Len(t, a.Tools(), 2)
	})
}

func TestRankInvariant(t *testing.T) {
	t.Run("tool at equal rank rejected", func(t *testing.T) {
		_, err := New(Name("parent"), Rank(1), Tools(echoTool(1, "peer")))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rank below 1")
	})

	t.Run("tool at higher rank rejected", func(t *testing.T) {
		_, err := New(Name("parent"), Rank(1), Tools(echoTool(2, "superior")))
		require.Error(t, err)
	})

	t.Run("rank zero rejects any tool", func(t *testing.T) {
		_, err := New(Name("leaf"), Rank(0), Tools(echoTool(0, "peer")))
		require.Error(t, err)
	})

	t.Run("sub-automaton at equal rank rejected", func(t *testing.T) {
		peer := Must(Name("peer"), Rank(1))
		_, err := New(Name("parent"), Rank(1), SubAutomata(peer))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sub-automaton")
	})

	t.Run("sub-automaton at higher rank rejected", func(t *testing.T) {
		higher := Must(Name("higher"), Rank(3))
		_, err := New(Name("parent"), Rank(2), SubAutomata(higher))
		require.Error(t, err)
	})

	t.Run("strict descent accepted", func(t *testing.T) {
		leaf := Must(Name("leaf"), Rank(0))
		mid := Must(Name("mid"), Rank(1), SubAutomata(leaf))
		top, err := New(Name("top"), Rank(2), SubAutomata(mid), Tools(echoTool(0, "helper")))
		require.NoError(t, err)
		require.Len(t, top.SubAutomata(), 1)
		assert.Equal(t, "mid", top.SubAutomata()[0].Name())
	})

	t.Run("options order does not matter", func(t *testing.T) {
		_, err := New(Tools(echoTool(1, "peer")), Name("parent"), Rank(1))
		require.Error(t, err)
	})
}

func TestMust(t *testing.T) {
	assert.NotPanics(t, func() {
		Must(Name("fine"), Rank(0))
	})
	assert.Panics(t, func() {
		Must(Name("broken"), Rank(0), Tools(echoTool(0, "peer")))
	})
}

func TestRenderInstructions(t *testing.T) {
	t.Run("plain text passes through", func(t *testing.T) {
		a := Must(Name("plain"), Rank(0), Instructions("Just do it."))
		out, err := a.RenderInstructions(nil)
		require.NoError(t, err)
		assert.Equal(t, "Just do it.", out)
	})

	t.Run("template renders context vars", func(t *testing.T) {
		a := Must(Name("templated"), Rank(0), Instructions("Work for {{.requester}}."))
		out, err := a.RenderInstructions(types.ContextVars{"requester": "human_tester"})
		require.NoError(t, err)
		assert.Equal(t, "Work for human_tester.", out)
	})

	t.Run("missing variable errors", func(t *testing.T) {
		a := Must(Name("templated"), Rank(0), Instructions("Work for {{.requester}}."))
		_, err := a.RenderInstructions(types.ContextVars{})
		require.Error(t, err)
	})
}

func TestRun(t *testing.T) {
	t.Run("without runner errors", func(t *testing.T) {
		a := Must(Name("inert"), Rank(0))
		runnable, ok := a.(interface {
			Run(context.Context, string) (string, error)
		})
		require.True(t, ok)

		_, err := runnable.Run(context.Background(), "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no runner")
	})

	t.Run("with runner executes", func(t *testing.T) {
		a := Must(Name("echo"), Rank(0), WithRunner(func(_ context.Context, request string) (string, error) {
			return "echo: " + request, nil
		}))
		runnable, ok := a.(interface {
			Run(context.Context, string) (string, error)
		})
		require.True(t, ok)

		out, err := runnable.Run(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, "echo: hello", out)
	})
}
