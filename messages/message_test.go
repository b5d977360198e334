package messages

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderUserPrompt(t *testing.T) {
	msg := New().WithSender("tester").UserPrompt("hello")

	assert.Equal(t, "tester", msg.Sender)
	assert.Equal(t, "hello", msg.Payload.Content)
	assert.WithinDuration(t, time.Now(), time.Time(msg.Timestamp), time.Second)
}

func TestBuilderWithRun(t *testing.T) {
	runID := uuid.New()
	turnID := uuid.New()

	msg := New().WithRun(runID, turnID).AssistantMessage("done")
	assert.Equal(t, runID, msg.RunID)
	assert.Equal(t, turnID, msg.TurnID)
	assert.Equal(t, "done", msg.Payload.Content)
}

func TestBuilderDelegation(t *testing.T) {
	call := New().WithSender("parent").DelegationCall("call-1", "save_text", `{"file_name":"a.txt"}`)
	require.Len(t, call.Payload.Calls, 1)
	assert.Equal(t, "call-1", call.Payload.Calls[0].ID)
	assert.Equal(t, "save_text", call.Payload.Calls[0].AutomatonID)

	resp := New().WithSender("save_text").DelegationResponse("call-1", "save_text", "saved")
	assert.Equal(t, "call-1", resp.Payload.CallID)
	assert.Equal(t, "saved", resp.Payload.Content)
}

func TestPayloadInterfaces(t *testing.T) {
	// compile-time checks that the payload set stays closed the way callers expect
	var _ Request = UserMessage{}
	var _ Request = DelegationResponse{}
	var _ Response = AssistantMessage{}
	var _ Response = DelegationMessage{}
}
