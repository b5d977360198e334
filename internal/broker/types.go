package broker

import (
	"context"

	"github.com/casualjim/automata/events"
	"github.com/casualjim/automata/messages"
)

type Broker interface {
	Topic(context.Context, string) Topic
}

type Topic interface {
	Publish(context.Context, events.Event) error
	Subscribe(context.Context, events.Hook) (Subscription, error)
}

type Subscription interface {
	ID() string
	Unsubscribe()
}

// dispatch routes one event to the matching hook callback. Events outside
// the hook's surface (raw results) go to CompletionHook observers when the
// hook implements it.
func dispatch(ctx context.Context, hook events.Hook, event events.Event) {
	switch event := event.(type) {
	case events.Request[messages.UserMessage]:
		hook.OnUserPrompt(ctx, messages.Message[messages.UserMessage]{
			RunID:     event.RunID,
			TurnID:    event.TurnID,
			Payload:   event.Message,
			Sender:    event.Sender,
			Timestamp: event.Timestamp,
			Meta:      event.Meta,
		})
	case events.Request[messages.DelegationResponse]:
		hook.OnDelegationResponse(ctx, messages.Message[messages.DelegationResponse]{
			RunID:     event.RunID,
			TurnID:    event.TurnID,
			Payload:   event.Message,
			Sender:    event.Sender,
			Timestamp: event.Timestamp,
			Meta:      event.Meta,
		})
	case events.Response[messages.DelegationMessage]:
		hook.OnDelegationCall(ctx, messages.Message[messages.DelegationMessage]{
			RunID:     event.RunID,
			TurnID:    event.TurnID,
			Payload:   event.Response,
			Sender:    event.Sender,
			Timestamp: event.Timestamp,
			Meta:      event.Meta,
		})
	case events.Response[messages.AssistantMessage]:
		hook.OnAssistantMessage(ctx, messages.Message[messages.AssistantMessage]{
			RunID:     event.RunID,
			TurnID:    event.TurnID,
			Payload:   event.Response,
			Sender:    event.Sender,
			Timestamp: event.Timestamp,
			Meta:      event.Meta,
		})
	case events.Result[string]:
		if ch, ok := hook.(events.CompletionHook[string]); ok {
			ch.OnResult(ctx, event.Result)
		}
	case events.Error:
		hook.OnError(ctx, event)
	}
}

func forwardToHook(ctx context.Context, ch <-chan events.Event, hook events.Hook) {
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			dispatch(ctx, hook, event)
		case <-ctx.Done():
			return
		}
	}
}
