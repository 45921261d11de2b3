package engine

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ultrapress/ultrapress/pkg/chats/message"
	"github.com/ultrapress/ultrapress/pkg/history"
	"github.com/ultrapress/ultrapress/pkg/modeladapter"
	"github.com/ultrapress/ultrapress/pkg/session"
	"github.com/ultrapress/ultrapress/pkg/transcript"
)

func newTestEngine(t *testing.T, baseURL string, opts ...Option) *Engine {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Providers["openai"] = ProviderConfig{APIKey: "sk-test", Model: "gpt-4o", BaseURL: baseURL}
	cfg.Chatbot.KnowledgeBase = "<p>We sell <b>bikes</b>.</p>"
	cfg.SEO.SiteTitle = "Bike Shop"

	eng, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	return eng
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "anthropic"

	_, err := New(cfg)
	assert.ErrorContains(t, err, "unsupported provider anthropic")
}

func TestChat_RejectsNonUserTail(t *testing.T) {
	f := newFakeProvider(t, http.StatusOK, openAIHello)
	eng := newTestEngine(t, f.srv.URL)

	for _, hist := range [][]message.Message{
		nil,
		{message.User("hi"), message.Assistant("hello")},
		{message.System("x")},
	} {
		_, err := eng.Chat(context.Background(), hist)
		assert.ErrorIs(t, err, ErrInvalidHistory)
	}
	assert.Equal(t, int32(0), f.calls.Load())
}

func TestChat_EndToEnd(t *testing.T) {
	f := newFakeProvider(t, http.StatusOK, openAIHello)
	eng := newTestEngine(t, f.srv.URL)

	hist := append(turns(12), message.User("what do you sell?"))

	got, err := eng.Chat(context.Background(), hist)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	body := f.lastBody()
	msgs, _ := body["messages"].([]any)
	require.Len(t, msgs, 1+history.DefaultPolicy.MaxLen())

	sys, _ := msgs[0].(map[string]any)
	assert.Equal(t, "system", sys["role"])
	sysText, _ := sys["content"].(string)
	assert.Contains(t, sysText, "We sell bikes.")
	assert.NotContains(t, sysText, "<b>")

	last, _ := msgs[len(msgs)-1].(map[string]any)
	assert.Equal(t, "what do you sell?", last["content"])
	assert.InDelta(t, 0.2, body["temperature"], 1e-9)
	assert.InDelta(t, 400, body["max_tokens"], 1e-9)
}

func TestChat_PartialHistoryConfigKeepsNewestMessage(t *testing.T) {
	f := newFakeProvider(t, http.StatusOK, openAIHello)

	cfg, err := ParseConfig([]byte("history: {head: 3}\n"))
	require.NoError(t, err)
	cfg.Providers["openai"] = ProviderConfig{APIKey: "sk-test", Model: "gpt-4o", BaseURL: f.srv.URL}

	eng, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	hist := turns(13)
	_, err = eng.Chat(context.Background(), hist)
	require.NoError(t, err)

	msgs, _ := f.lastBody()["messages"].([]any)
	require.Len(t, msgs, 1+3+1+8)

	last, _ := msgs[len(msgs)-1].(map[string]any)
	assert.Equal(t, "user", last["role"])
	assert.Equal(t, hist[12].Content, last["content"])
}

func TestChat_MissingKeySurfacesConfigError(t *testing.T) {
	cfg := DefaultConfig()
	eng, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	_, err = eng.Chat(context.Background(), []message.Message{message.User("hi")})
	assert.True(t, modeladapter.IsKind(err, modeladapter.KindConfig))
	assert.EqualError(t, err, "API key missing for provider openai")
}

func TestChatRaw_Sanitizes(t *testing.T) {
	f := newFakeProvider(t, http.StatusOK, openAIHello)
	eng := newTestEngine(t, f.srv.URL)

	text := "<script>x</script>Hi &amp; bye"
	empty := ""
	_, err := eng.ChatRaw(context.Background(), []message.Raw{
		{Role: "", Content: &text},
		{Role: "user", Content: nil},
		{Role: "bot", Content: &empty},
		{Role: "user", Content: &text},
	})
	require.NoError(t, err)

	msgs, _ := f.lastBody()["messages"].([]any)
	last, _ := msgs[len(msgs)-1].(map[string]any)
	assert.Equal(t, "user", last["role"])
	assert.NotContains(t, last["content"], "<script>")
}

func TestConverse_PersistsTurns(t *testing.T) {
	f := newFakeProvider(t, http.StatusOK, openAIHello)

	log, err := transcript.Open(filepath.Join(t.TempDir(), "t.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })

	eng := newTestEngine(t, f.srv.URL, WithTranscript(log))
	ctx := context.Background()

	first, err := eng.Converse(ctx, "", "Hi there")
	require.NoError(t, err)
	require.NotEmpty(t, first.SessionID)
	assert.Equal(t, "hello", first.Reply)
	require.Len(t, first.Messages, 3)
	assert.Equal(t, DefaultWelcomeMessage, first.Messages[0].Content)

	second, err := eng.Converse(ctx, first.SessionID, "And again")
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Len(t, second.Messages, 5)

	conv, err := eng.Conversation(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 5)

	logged, err := log.Session(ctx, first.SessionID)
	require.NoError(t, err)
	require.Len(t, logged, 2)
	assert.Equal(t, "Hi there", logged[0].UserMessage)
	assert.Equal(t, "gpt-4o", logged[0].Model)
}

func TestConverse_FailedTurnNotPersisted(t *testing.T) {
	f := newFakeProvider(t, http.StatusInternalServerError, `{"error":{"message":"boom"}}`)
	eng := newTestEngine(t, f.srv.URL)
	ctx := context.Background()

	conv, err := eng.StartConversation(ctx)
	require.NoError(t, err)

	turn, err := eng.Converse(ctx, conv.ID, "hello?")
	assert.Equal(t, modeladapter.KindAPI, modeladapter.KindOf(err))
	assert.Equal(t, conv.ID, turn.SessionID)

	stored, err := eng.Conversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Messages, 1)
}

func TestConverse_EmptyMessage(t *testing.T) {
	eng := newTestEngine(t, "http://127.0.0.1:1")

	_, err := eng.Converse(context.Background(), "", "  <br>  ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestConverse_UnknownSession(t *testing.T) {
	eng := newTestEngine(t, "http://127.0.0.1:1")

	_, err := eng.Converse(context.Background(), "missing", "hi")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

// blockingCompleter holds every call until release is closed.
type blockingCompleter struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingCompleter) Complete(ctx context.Context, _ modeladapter.Request) (string, error) {
	b.entered <- struct{}{}
	<-b.release
	return "done", nil
}

func TestConverse_BusySession(t *testing.T) {
	bc := &blockingCompleter{entered: make(chan struct{}, 1), release: make(chan struct{})}
	eng := newTestEngine(t, "", WithFactory(modeladapter.OpenAI, func(string, *http.Client) modeladapter.Completer { return bc }))
	ctx := context.Background()

	conv, err := eng.StartConversation(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := eng.Converse(ctx, conv.ID, "first")
		assert.NoError(t, err)
	}()

	<-bc.entered
	_, err = eng.Converse(ctx, conv.ID, "second")
	assert.ErrorIs(t, err, ErrSessionBusy)

	close(bc.release)
	wg.Wait()
}

func TestResetConversation(t *testing.T) {
	eng := newTestEngine(t, "")
	ctx := context.Background()

	conv, err := eng.StartConversation(ctx)
	require.NoError(t, err)
	require.NoError(t, eng.ResetConversation(ctx, conv.ID))

	_, err = eng.Conversation(ctx, conv.ID)
	assert.True(t, errors.Is(err, session.ErrNotFound))
	assert.NoError(t, eng.ResetConversation(ctx, ""))
}

func TestSystemPrompt_UsesContactInfo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chatbot.ContactInfo = "email hi@example.com"
	cfg.Chatbot.Persona = "concise"

	eng, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	p := eng.SystemPrompt()
	assert.Contains(t, p, "email hi@example.com")
	assert.True(t, strings.Contains(p, "No company information has been provided."))
}
