package msgfmt

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casualjim/automata/messages"
)

func TestConsole(t *testing.T) {
	ctx := context.Background()
	var buf strings.Builder

	hook, results := Console[string](ctx, &buf)

	hook.OnUserPrompt(ctx, messages.New().WithSender("User").UserPrompt("make a quiz"))
	hook.OnDelegationResponse(ctx, messages.New().WithSender("quiz_creator").DelegationResponse("c1", "save_text", "saved"))
	hook.OnResult(ctx, "done")
	hook.OnClose(ctx)

	out := buf.String()
	assert.Contains(t, out, "make a quiz")
	assert.Contains(t, out, "saved")

	result, ok := <-results
	require.True(t, ok)
	assert.Equal(t, "done", result)

	_, ok = <-results
	assert.False(t, ok)
}
