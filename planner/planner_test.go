package planner

import (
	"context"
	"testing"

	"github.com/casualjim/automata/runstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func quizCapabilities() []Descriptor {
	return []Descriptor{
		{ID: "think", Name: "Think", Description: "Reason about the request", InputRequirements: []string{"Any text"}},
		{ID: "save_text", Name: "Save Text", Description: "Persist text to a file", InputRequirements: []string{"JSON with file_name and content"}},
		{ID: "finalize", Name: "Finalize Reply", Description: "Report the result", InputRequirements: []string{"The final result"}},
	}
}

func TestSequential(t *testing.T) {
	p := Sequential()
	caps := quizCapabilities()

	t.Run("walks capabilities in order", func(t *testing.T) {
		plan, err := p.Plan(context.Background(), Input{Request: "make a quiz", Capabilities: caps})
		require.NoError(t, err)
		assert.Equal(t, "think", plan.Action.AutomatonID)
		assert.Equal(t, "make a quiz", plan.Action.Request)

		plan, err = p.Plan(context.Background(), Input{
			Request:      "make a quiz",
			Capabilities: caps,
			Steps:        []runstate.Step{{AutomatonID: "think", Result: "thought"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "save_text", plan.Action.AutomatonID)
	})

	t.Run("finalizes with last result", func(t *testing.T) {
		plan, err := p.Plan(context.Background(), Input{
			Request:      "make a quiz",
			Capabilities: caps,
			Steps: []runstate.Step{
				{AutomatonID: "think", Result: "thought"},
				{AutomatonID: "save_text", Result: "saved to quiz.txt"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, FinalizeID, plan.Action.AutomatonID)
		assert.Equal(t, "saved to quiz.txt", plan.Action.Request)
	})

	t.Run("requires finalize", func(t *testing.T) {
		_, err := p.Plan(context.Background(), Input{Capabilities: caps[:2]})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "finalize")
	})
}

func TestScripted(t *testing.T) {
	script := []ScriptStep{
		{Automaton: "think", Request: "plan how to answer: {{.Request}}"},
		{Automaton: "save_text", Request: `{"file_name": "out.txt", "content": "{{.LastResult}}"}`},
	}

	p, err := Scripted(script)
	require.NoError(t, err)

	t.Run("interpolates request", func(t *testing.T) {
		plan, err := p.Plan(context.Background(), Input{Request: "make a quiz"})
		require.NoError(t, err)
		assert.Equal(t, "think", plan.Action.AutomatonID)
		assert.Equal(t, "plan how to answer: make a quiz", plan.Action.Request)
	})

	t.Run("interpolates last result", func(t *testing.T) {
		plan, err := p.Plan(context.Background(), Input{
			Request: "make a quiz",
			Steps:   []runstate.Step{{AutomatonID: "think", Result: "the answer"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "save_text", plan.Action.AutomatonID)
		assert.Equal(t, `{"file_name": "out.txt", "content": "the answer"}`, plan.Action.Request)
	})

	t.Run("finalizes after script", func(t *testing.T) {
		plan, err := p.Plan(context.Background(), Input{
			Request: "make a quiz",
			Steps: []runstate.Step{
				{AutomatonID: "think", Result: "the answer"},
				{AutomatonID: "save_text", Result: "saved"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, FinalizeID, plan.Action.AutomatonID)
		assert.Equal(t, "saved", plan.Action.Request)
	})

	t.Run("json-escapes interpolated values", func(t *testing.T) {
		escaped, err := Scripted([]ScriptStep{
			{Automaton: "think", Request: "plan how to answer: {{.Request}}"},
			{Automaton: "save_text", Request: `{"file_name": "out.txt", "content": {{.LastResult | json}}}`},
		})
		require.NoError(t, err)

		multiline := "1. What is 7 x 8?\n2. \"Quote\" me on 15% of 200"
		plan, err := escaped.Plan(context.Background(), Input{
			Request: "make a quiz",
			Steps:   []runstate.Step{{AutomatonID: "think", Result: multiline}},
		})
		require.NoError(t, err)
		require.True(t, gjson.Valid(plan.Action.Request))
		assert.Equal(t, multiline, gjson.Get(plan.Action.Request, "content").String())
	})

	t.Run("rejects empty script", func(t *testing.T) {
		_, err := Scripted(nil)
		require.Error(t, err)
	})

	t.Run("rejects step without automaton", func(t *testing.T) {
		_, err := Scripted([]ScriptStep{{Request: "no target"}})
		require.Error(t, err)
	})
}

func TestScriptFromExtra(t *testing.T) {
	t.Run("decodes script", func(t *testing.T) {
		extra := map[string]any{
			"script": []any{
				map[string]any{"automaton": "think", "request": "ponder"},
			},
		}
		script, err := ScriptFromExtra(extra)
		require.NoError(t, err)
		require.Len(t, script, 1)
		assert.Equal(t, "think", script[0].Automaton)
	})

	t.Run("missing script errors", func(t *testing.T) {
		_, err := ScriptFromExtra(map[string]any{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "script")
	})
}

func TestLoad(t *testing.T) {
	t.Run("sequential", func(t *testing.T) {
		p, err := Load("sequential", Config{})
		require.NoError(t, err)
		assert.NotNil(t, p)
	})

	t.Run("scripted needs extra args", func(t *testing.T) {
		_, err := Load("scripted", Config{})
		require.Error(t, err)
	})

	t.Run("react needs engine", func(t *testing.T) {
		_, err := Load("react", Config{})
		require.Error(t, err)
	})

	t.Run("unknown name lists builtins", func(t *testing.T) {
		_, err := Load("mystery", Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sequential")
		assert.Contains(t, err.Error(), "scripted")
		assert.Contains(t, err.Error(), "react")
	})
}
