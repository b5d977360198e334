package sessions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root)
	ctx := context.Background()

	t.Run("append and read back", func(t *testing.T) {
		e1 := NewEvent("human_tester", "quiz_creator", "make a quiz", "done")
		e2 := NewEvent("quiz_creator", "save_text", "{}", "saved")

		require.NoError(t, store.Append(ctx, "quiz_creator", "s1", e1))
		require.NoError(t, store.Append(ctx, "quiz_creator", "s1", e2))

		events, err := store.Events(ctx, "quiz_creator", "s1")
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "human_tester", events[0].Requester)
		assert.Equal(t, "save_text", events[1].SubAutomaton)
	})

	t.Run("log lands in event_log directory", func(t *testing.T) {
		require.NoError(t, store.Append(ctx, "think", "s2", NewEvent("a", "b", "c", "d")))
		_, err := os.Stat(filepath.Join(root, "think", "event_log", "s2.jsonl"))
		require.NoError(t, err)
	})

	t.Run("missing session yields no events", func(t *testing.T) {
		events, err := store.Events(ctx, "quiz_creator", "nope")
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, WithPrefix("test:session:"))
	ctx := context.Background()

	t.Run("append and read back", func(t *testing.T) {
		require.NoError(t, store.Append(ctx, "quiz_creator", "s1", NewEvent("human_tester", "quiz_creator", "go", "ok")))
		require.NoError(t, store.Append(ctx, "quiz_creator", "s1", NewEvent("quiz_creator", "save_text", "{}", "saved")))

		events, err := store.Events(ctx, "quiz_creator", "s1")
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "saved", events[1].Result)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		events, err := store.Events(ctx, "quiz_creator", "s2")
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("ttl refreshes on append", func(t *testing.T) {
		ttlStore := NewRedisStore(client, WithPrefix("ttl:"), WithTTL(time.Minute))
		require.NoError(t, ttlStore.Append(ctx, "a", "s", NewEvent("r", "a", "i", "o")))
		assert.Positive(t, mr.TTL("ttl:a:s"))
	})
}

func TestWrap(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root)
	ctx := context.Background()

	cfg := WrapConfig{
		Store:              store,
		AutomatonID:        "save_text",
		AutomatonName:      "Save Text",
		SessionID:          "callee-session",
		RequesterID:        "quiz_creator",
		RequesterSessionID: "requester-session",
	}

	t.Run("records event on both sides", func(t *testing.T) {
		run := Wrap(func(_ context.Context, request string) (string, error) {
			return "saved: " + request, nil
		}, cfg)

		result, err := run(ctx, "the quiz")
		require.NoError(t, err)
		assert.Equal(t, "saved: the quiz", result)

		calleeEvents, err := store.Events(ctx, "save_text", "callee-session")
		require.NoError(t, err)
		require.Len(t, calleeEvents, 1)
		assert.Equal(t, "quiz_creator", calleeEvents[0].Requester)
		assert.Equal(t, "the quiz", calleeEvents[0].Input)
		assert.Equal(t, "saved: the quiz", calleeEvents[0].Result)

		requesterEvents, err := store.Events(ctx, "quiz_creator", "requester-session")
		require.NoError(t, err)
		require.Len(t, requesterEvents, 1)
		assert.Equal(t, calleeEvents[0].Result, requesterEvents[0].Result)
	})

	t.Run("failure is recorded and propagated", func(t *testing.T) {
		run := Wrap(func(context.Context, string) (string, error) {
			return "", errors.New("disk full")
		}, cfg)

		result, err := run(ctx, "the quiz")
		require.Error(t, err)
		assert.Contains(t, result, "failed")

		events, err2 := store.Events(ctx, "save_text", "callee-session")
		require.NoError(t, err2)
		assert.Contains(t, events[len(events)-1].Result, "disk full")
	})

	t.Run("cancellation becomes a stop message", func(t *testing.T) {
		run := Wrap(func(ctx context.Context, _ string) (string, error) {
			return "", context.Canceled
		}, cfg)

		result, err := run(ctx, "the quiz")
		require.NoError(t, err)
		assert.Contains(t, result, "took too long")
	})
}
