// Package msgfmt renders run events on a console: colored senders for
// prompts and delegations, markdown rendering for the final reply.
package msgfmt

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"

	"github.com/casualjim/automata"
	"github.com/casualjim/automata/messages"
)

var (
	renderOnce sync.Once
	glam       *glamour.TermRenderer
)

func renderer() *glamour.TermRenderer {
	renderOnce.Do(func() {
		var err error
		glam, err = glamour.NewTermRenderer(glamour.WithAutoStyle())
		if err != nil {
			glam = nil
		}
	})
	return glam
}

// Console returns a hook that prints run progress to w and a channel that
// yields the final result once the run closes.
func Console[T any](_ context.Context, w io.Writer) (automata.Hook[T], <-chan T) {
	results := make(chan T, 1)
	return &consoleHook[T]{w: w, results: results}, results
}

type consoleHook[T any] struct {
	mu      sync.Mutex
	w       io.Writer
	results chan T
}

func (c *consoleHook[T]) OnUserPrompt(_ context.Context, msg messages.Message[messages.UserMessage]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sender := msg.Sender
	if sender == "" {
		sender = "User"
	}
	fmt.Fprintf(c.w, "%s: %s\n", color.CyanString(sender), msg.Payload.Content)
}

func (c *consoleHook[T]) OnDelegationCall(_ context.Context, msg messages.Message[messages.DelegationMessage]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, call := range msg.Payload.Calls {
		fmt.Fprintf(c.w, "%s -> %s: %s\n", color.YellowString(msg.Sender), color.YellowString(call.AutomatonID), call.Request)
	}
}

func (c *consoleHook[T]) OnDelegationResponse(_ context.Context, msg messages.Message[messages.DelegationResponse]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "%s: %s\n", color.YellowString(msg.Payload.AutomatonID), msg.Payload.Content)
}

func (c *consoleHook[T]) OnAssistantMessage(_ context.Context, msg messages.Message[messages.AssistantMessage]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sender := msg.Sender
	if sender == "" {
		sender = "Assistant"
	}
	content := msg.Payload.Content
	if glam := renderer(); glam != nil {
		if out, err := glam.Render(content); err == nil {
			content = out
		}
	}
	fmt.Fprintf(c.w, "%s: %s\n", color.MagentaString(sender), content)
}

func (c *consoleHook[T]) OnError(_ context.Context, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "%s: %v\n", color.RedString("Error"), err)
}

func (c *consoleHook[T]) OnResult(_ context.Context, result T) {
	select {
	case c.results <- result:
	default:
	}
}

func (c *consoleHook[T]) OnClose(context.Context) {
	close(c.results)
}
