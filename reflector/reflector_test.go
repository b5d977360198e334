package reflector

import (
	"context"
	"testing"

	"github.com/casualjim/automata/runstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgress(t *testing.T) {
	r := Progress()

	t.Run("no steps", func(t *testing.T) {
		lines, err := r.Reflect(context.Background(), "make a quiz", nil)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Contains(t, lines[0], "make a quiz")
		assert.Contains(t, lines[0], "No actions")
	})

	t.Run("itemizes steps", func(t *testing.T) {
		steps := []runstate.Step{
			{AutomatonID: "think", Request: "ponder", Result: "a thought"},
			{AutomatonID: "save_text", Request: "{}", Result: "saved"},
		}
		lines, err := r.Reflect(context.Background(), "make a quiz", steps)
		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Contains(t, lines[0], "`think`")
		assert.Contains(t, lines[1], "`save_text`")
		assert.Contains(t, lines[1], "saved")
	})
}

func TestLoad(t *testing.T) {
	r, err := Load("progress")
	require.NoError(t, err)
	assert.NotNil(t, r)

	_, err = Load("mystery")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "progress")
}
