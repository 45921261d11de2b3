package transcript_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ultrapress/ultrapress/pkg/transcript"
)

func openLog(t *testing.T) *transcript.Log {
	t.Helper()

	l, err := transcript.Open(filepath.Join(t.TempDir(), "nested", "transcript.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	return l
}

func TestRecordAndSession(t *testing.T) {
	l := openLog(t)
	ctx := context.Background()

	first := &transcript.Turn{
		SessionID:   "s1",
		Provider:    "openai",
		Model:       "gpt-4o",
		UserMessage: "What are your hours?",
		Reply:       "9 to 5.",
		Duration:    1500 * time.Millisecond,
	}
	require.NoError(t, l.Record(ctx, first))
	assert.Positive(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	failed := &transcript.Turn{
		SessionID:   "s1",
		Provider:    "openai",
		Model:       "gpt-4o",
		UserMessage: "And weekends?",
		ErrorKind:   "api_error",
		Error:       "API error (500): boom",
	}
	require.NoError(t, l.Record(ctx, failed))
	require.NoError(t, l.Record(ctx, &transcript.Turn{SessionID: "s2", Provider: "gemini", Model: "gemini-1.5-pro", UserMessage: "hi"}))

	turns, err := l.Session(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)

	assert.Equal(t, "What are your hours?", turns[0].UserMessage)
	assert.Equal(t, "9 to 5.", turns[0].Reply)
	assert.Equal(t, 1500*time.Millisecond, turns[0].Duration)
	assert.Equal(t, first.CreatedAt.UnixMilli(), turns[0].CreatedAt.UnixMilli())

	assert.Equal(t, "api_error", turns[1].ErrorKind)
	assert.Empty(t, turns[1].Reply)
}

func TestSession_Unknown(t *testing.T) {
	turns, err := openLog(t).Session(context.Background(), "none")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestRecord_Concurrent(t *testing.T) {
	l := openLog(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Record(ctx, &transcript.Turn{SessionID: "c", Provider: "openai", Model: "m", UserMessage: "x"}))
		}()
	}
	wg.Wait()

	turns, err := l.Session(ctx, "c")
	require.NoError(t, err)
	assert.Len(t, turns, 10)
}

func TestReopenKeepsTurns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.db")
	ctx := context.Background()

	l, err := transcript.Open(path)
	require.NoError(t, err)
	require.NoError(t, l.Record(ctx, &transcript.Turn{SessionID: "s", Provider: "deepseek", Model: "deepseek-chat", UserMessage: "hi"}))
	require.NoError(t, l.Close())

	l, err = transcript.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	turns, err := l.Session(ctx, "s")
	require.NoError(t, err)
	assert.Len(t, turns, 1)
}
