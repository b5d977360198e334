package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineFunc func(ctx context.Context, prompt string) (string, error)

func (f engineFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func TestParseThoughtcycle(t *testing.T) {
	t.Run("well formed", func(t *testing.T) {
		completion := "Next Action: save the quiz\n" +
			"Sub-Automaton Name: \"Save Text\"\n" +
			"Sub-Automaton Input Requirements: JSON with file_name and content\n" +
			"Sub-Automaton Input: {\"file_name\": \"quiz.txt\", \"content\": \"2+2=?\"}"

		name, request := ParseThoughtcycle(completion)
		assert.Equal(t, "Save Text", name)
		assert.Equal(t, `{"file_name": "quiz.txt", "content": "2+2=?"}`, request)
	})

	t.Run("numbered sections", func(t *testing.T) {
		completion := "Sub-Automaton Name 5: Think\n" +
			"Sub-Automaton Input Requirements 6: any text\n" +
			"Sub-Automaton Input 7: what next?"

		name, request := ParseThoughtcycle(completion)
		assert.Equal(t, "Think", name)
		assert.Equal(t, "what next?", request)
	})

	t.Run("malformed routes to think", func(t *testing.T) {
		name, request := ParseThoughtcycle("I have no idea what to do")
		assert.Equal(t, "Think", name)
		assert.Contains(t, request, "thoughtcycle_format")
	})
}

func TestReact(t *testing.T) {
	caps := quizCapabilities()

	t.Run("requires engine", func(t *testing.T) {
		_, err := React(nil)
		require.Error(t, err)
	})

	t.Run("requires think capability", func(t *testing.T) {
		p, err := React(engineFunc(func(context.Context, string) (string, error) { return "", nil }))
		require.NoError(t, err)

		_, err = p.Plan(context.Background(), Input{Capabilities: caps[1:]})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "think")
	})

	t.Run("resolves capability by display name", func(t *testing.T) {
		completion := "Sub-Automaton Name: Save Text\n" +
			"Sub-Automaton Input Requirements: JSON\n" +
			"Sub-Automaton Input: {\"file_name\": \"q.txt\"}"
		p, err := React(engineFunc(func(context.Context, string) (string, error) { return completion, nil }))
		require.NoError(t, err)

		plan, err := p.Plan(context.Background(), Input{AutomatonName: "Quiz Creator", Request: "quiz", Capabilities: caps})
		require.NoError(t, err)
		assert.Equal(t, "save_text", plan.Action.AutomatonID)
		assert.Equal(t, `{"file_name": "q.txt"}`, plan.Action.Request)
		assert.Equal(t, completion, plan.Text)
	})

	t.Run("malformed completion keeps the correction for lowercase think", func(t *testing.T) {
		// Capabilities built from specs carry the id in both fields.
		lowercase := []Descriptor{
			{ID: "think", Name: "think", Description: "Reason about the request"},
			{ID: "finalize", Name: "finalize", Description: "Report the result"},
		}
		p, err := React(engineFunc(func(context.Context, string) (string, error) { return "no thoughtcycle here", nil }))
		require.NoError(t, err)

		plan, err := p.Plan(context.Background(), Input{AutomatonName: "quiz_creator", Capabilities: lowercase})
		require.NoError(t, err)
		assert.Equal(t, ThinkID, plan.Action.AutomatonID)
		assert.Contains(t, plan.Action.Request, "thoughtcycle_format")
	})

	t.Run("unknown name reroutes to think", func(t *testing.T) {
		completion := "Sub-Automaton Name: Launch Rockets\n" +
			"Sub-Automaton Input Requirements: none\n" +
			"Sub-Automaton Input: go"
		p, err := React(engineFunc(func(context.Context, string) (string, error) { return completion, nil }))
		require.NoError(t, err)

		plan, err := p.Plan(context.Background(), Input{AutomatonName: "Quiz Creator", Capabilities: caps})
		require.NoError(t, err)
		assert.Equal(t, ThinkID, plan.Action.AutomatonID)
		assert.Contains(t, plan.Action.Request, "must be one of the following")
	})

	t.Run("truncates at stop markers", func(t *testing.T) {
		completion := "Sub-Automaton Name: Think\n" +
			"Sub-Automaton Input Requirements: any\n" +
			"Sub-Automaton Input: ponder\n" +
			"Result:\nhallucinated result"
		p, err := React(engineFunc(func(context.Context, string) (string, error) { return completion, nil }))
		require.NoError(t, err)

		plan, err := p.Plan(context.Background(), Input{AutomatonName: "Quiz Creator", Capabilities: caps})
		require.NoError(t, err)
		assert.Equal(t, "think", plan.Action.AutomatonID)
		assert.Equal(t, "ponder", plan.Action.Request)
		assert.NotContains(t, plan.Text, "hallucinated")
	})

	t.Run("prompt carries capabilities and request", func(t *testing.T) {
		var seen string
		p, err := React(engineFunc(func(_ context.Context, prompt string) (string, error) {
			seen = prompt
			return "unparseable", nil
		}))
		require.NoError(t, err)

		_, err = p.Plan(context.Background(), Input{
			AutomatonName: "Quiz Creator",
			Request:       "make a math quiz",
			Capabilities:  caps,
			Reflections:   []string{"nothing done yet"},
		})
		require.NoError(t, err)
		assert.Contains(t, seen, "Quiz Creator")
		assert.Contains(t, seen, "make a math quiz")
		assert.Contains(t, seen, "`Save Text`")
		assert.Contains(t, seen, " -nothing done yet")
		assert.Contains(t, seen, "thoughtcycle_format")
	})
}
