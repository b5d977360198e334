package events

import (
	"context"

	"github.com/casualjim/automata/messages"
)

// Hook receives the lifecycle callbacks of a run. Every callback corresponds
// to one event type; hooks that only care about a subset should embed
// NoopHook.
type Hook interface {
	OnUserPrompt(context.Context, messages.Message[messages.UserMessage])
	OnDelegationCall(context.Context, messages.Message[messages.DelegationMessage])
	OnDelegationResponse(context.Context, messages.Message[messages.DelegationResponse])
	OnAssistantMessage(context.Context, messages.Message[messages.AssistantMessage])
	OnError(context.Context, error)
}

// CompletionHook additionally observes the typed final result of a run and
// its termination.
type CompletionHook[T any] interface {
	Hook
	OnResult(context.Context, T)
	OnClose(context.Context)
}

// CombineHooks fans every callback out to the given hooks in order. Nil
// entries are skipped.
func CombineHooks(hooks ...Hook) Hook {
	combined := make(multiHook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			combined = append(combined, h)
		}
	}
	return combined
}

type multiHook []Hook

func (m multiHook) OnUserPrompt(ctx context.Context, msg messages.Message[messages.UserMessage]) {
	for _, h := range m {
		h.OnUserPrompt(ctx, msg)
	}
}

func (m multiHook) OnDelegationCall(ctx context.Context, msg messages.Message[messages.DelegationMessage]) {
	for _, h := range m {
		h.OnDelegationCall(ctx, msg)
	}
}

func (m multiHook) OnDelegationResponse(ctx context.Context, msg messages.Message[messages.DelegationResponse]) {
	for _, h := range m {
		h.OnDelegationResponse(ctx, msg)
	}
}

func (m multiHook) OnAssistantMessage(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	for _, h := range m {
		h.OnAssistantMessage(ctx, msg)
	}
}

func (m multiHook) OnError(ctx context.Context, err error) {
	for _, h := range m {
		h.OnError(ctx, err)
	}
}

// NoopHook ignores every callback. Embed it to implement Hook partially.
type NoopHook struct{}

var _ Hook = NoopHook{}

func (NoopHook) OnUserPrompt(context.Context, messages.Message[messages.UserMessage]) {}
func (NoopHook) OnDelegationCall(context.Context, messages.Message[messages.DelegationMessage]) {
}
func (NoopHook) OnDelegationResponse(context.Context, messages.Message[messages.DelegationResponse]) {
}
func (NoopHook) OnAssistantMessage(context.Context, messages.Message[messages.AssistantMessage]) {}
func (NoopHook) OnError(context.Context, error)                                                  {}
