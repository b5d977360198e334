package broker

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/casualjim/automata/events"
	"github.com/casualjim/automata/messages"
	"github.com/casualjim/automata/pkg/slogx"
)

// PublishHook adapts a topic into an events.Hook, the inverse of dispatch.
// Every message observed during a run is wrapped back into its event and
// published, so remote subscribers see the same callbacks a local hook would.
func PublishHook(topic Topic) events.Hook {
	return &publishHook{topic: topic}
}

type publishHook struct {
	topic Topic
}

func (h *publishHook) publish(ctx context.Context, event events.Event) {
	if err := h.topic.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "failed to publish event", slogx.Error(err))
	}
}

func (h *publishHook) OnUserPrompt(ctx context.Context, msg messages.Message[messages.UserMessage]) {
	h.publish(ctx, events.Request[messages.UserMessage]{
		RunID:     msg.RunID,
		TurnID:    msg.TurnID,
		Message:   msg.Payload,
		Sender:    msg.Sender,
		Timestamp: msg.Timestamp,
		Meta:      msg.Meta,
	})
}

func (h *publishHook) OnDelegationCall(ctx context.Context, msg messages.Message[messages.DelegationMessage]) {
	h.publish(ctx, events.Response[messages.DelegationMessage]{
		RunID:     msg.RunID,
		TurnID:    msg.TurnID,
		Response:  msg.Payload,
		Sender:    msg.Sender,
		Timestamp: msg.Timestamp,
		Meta:      msg.Meta,
	})
}

func (h *publishHook) OnDelegationResponse(ctx context.Context, msg messages.Message[messages.DelegationResponse]) {
	h.publish(ctx, events.Request[messages.DelegationResponse]{
		RunID:     msg.RunID,
		TurnID:    msg.TurnID,
		Message:   msg.Payload,
		Sender:    msg.Sender,
		Timestamp: msg.Timestamp,
		Meta:      msg.Meta,
	})
}

func (h *publishHook) OnAssistantMessage(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	h.publish(ctx, events.Response[messages.AssistantMessage]{
		RunID:     msg.RunID,
		TurnID:    msg.TurnID,
		Response:  msg.Payload,
		Sender:    msg.Sender,
		Timestamp: msg.Timestamp,
		Meta:      msg.Meta,
	})
}

func (h *publishHook) OnError(ctx context.Context, err error) {
	h.publish(ctx, events.Error{
		Err:       err,
		Timestamp: strfmt.DateTime(time.Now()),
	})
}
