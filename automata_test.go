package automata

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casualjim/automata/api"
	"github.com/casualjim/automata/automaton"
	"github.com/casualjim/automata/events"
	"github.com/casualjim/automata/messages"
)

type resultHook struct {
	events.NoopHook
	mu      sync.Mutex
	results []string
	prompts []string
	errs    []error
	closed  bool
}

func (h *resultHook) OnUserPrompt(_ context.Context, msg messages.Message[messages.UserMessage]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.prompts = append(h.prompts, msg.Payload.Content)
}

func (h *resultHook) OnResult(_ context.Context, result string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results = append(h.results, result)
}

func (h *resultHook) OnError(_ context.Context, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs = append(h.errs, err)
}

func (h *resultHook) OnClose(context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
}

func echoAutomaton(t *testing.T, name string, rank int) api.Automaton {
	t.Helper()
	a, err := automaton.New(
		automaton.Name(name),
		automaton.Rank(rank),
		automaton.WithRunner(func(_ context.Context, request string) (string, error) {
			return name + ": " + request, nil
		}),
	)
	require.NoError(t, err)
	return a
}

func TestHierarchyRun(t *testing.T) {
	t.Run("runs a single step to completion", func(t *testing.T) {
		greeter := echoAutomaton(t, "greeter", 1)
		h := New(
			Automata(greeter),
			Steps(Step(greeter.Name(), "hello")),
		)

		hook := &resultHook{}
		require.NoError(t, h.Run(context.Background(), Local[string](hook)))

		assert.Equal(t, []string{"hello"}, hook.prompts)
		assert.Equal(t, []string{"greeter: hello"}, hook.results)
		assert.True(t, hook.closed)
	})

	t.Run("only the last step resolves the result", func(t *testing.T) {
		first := echoAutomaton(t, "first", 1)
		second := echoAutomaton(t, "second", 1)
		h := New(
			Automata(first, second),
			Steps(
				Step(first.Name(), "warm up"),
				Step(second.Name(), "finish"),
			),
		)

		hook := &resultHook{}
		require.NoError(t, h.Run(context.Background(), Local[string](hook)))

		assert.Equal(t, []string{"warm up", "finish"}, hook.prompts)
		assert.Equal(t, []string{"second: finish"}, hook.results)
	})

	t.Run("unknown automaton fails the run", func(t *testing.T) {
		h := New(Steps(Step("ghost", "boo")))

		err := h.Run(context.Background(), Local[string](&resultHook{}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ghost")
	})

	t.Run("accepts a prepared user message", func(t *testing.T) {
		greeter := echoAutomaton(t, "greeter", 1)
		msg := messages.New().WithSender("alice").UserPrompt("hi there")
		h := New(
			Automata(greeter),
			Steps(Step(greeter.Name(), msg)),
		)

		hook := &resultHook{}
		require.NoError(t, h.Run(context.Background(), Local[string](hook)))
		assert.Equal(t, []string{"greeter: hi there"}, hook.results)
	})
}

func TestHierarchyRegistry(t *testing.T) {
	a := echoAutomaton(t, "alpha", 1)
	b := echoAutomaton(t, "beta", 2)
	h := New(Automata(a, b))

	assert.Equal(t, []string{"alpha", "beta"}, h.Names())

	got, found := h.Get("alpha")
	require.True(t, found)
	assert.Equal(t, 1, got.Rank())

	_, found = h.Get("gamma")
	assert.False(t, found)
}
