package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultrapress/ultrapress/pkg/chats/message"
	"github.com/ultrapress/ultrapress/pkg/engine"
	"github.com/ultrapress/ultrapress/pkg/modeladapter"
	usagepkg "github.com/ultrapress/ultrapress/pkg/modeladapter/usage"
	"github.com/ultrapress/ultrapress/pkg/session"
)

type fakeConversations struct {
	started  int
	sessions []string
	texts    []string
}

func (f *fakeConversations) StartConversation(context.Context) (*session.Conversation, error) {
	f.started++
	return &session.Conversation{
		ID:       "conv-" + strings.Repeat("x", f.started),
		Messages: []message.Message{message.Assistant("Welcome!")},
	}, nil
}

func (f *fakeConversations) Converse(_ context.Context, sessionID, text string) (engine.Turn, error) {
	f.sessions = append(f.sessions, sessionID)
	f.texts = append(f.texts, text)
	if text == "fail" {
		return engine.Turn{SessionID: sessionID}, modeladapter.NewAPIError(500, []byte(`{"error":{"message":"boom"}}`))
	}
	return engine.Turn{SessionID: sessionID, Reply: "echo: " + text}, nil
}

func newTestREPL(input string, eng conversationEngine) (*repl, *bytes.Buffer) {
	var out bytes.Buffer
	return &repl{
		eng:    eng,
		usage:  func() map[string]usagepkg.TokenCount { return nil },
		in:     strings.NewReader(input),
		out:    &out,
		render: func(s string) string { return s },
	}, &out
}

func TestREPLConversation(t *testing.T) {
	eng := &fakeConversations{}
	r, out := newTestREPL("hello\n\nhow are you?\n", eng)

	require.NoError(t, r.run(context.Background()))

	assert.Equal(t, 1, eng.started)
	assert.Equal(t, []string{"hello", "how are you?"}, eng.texts)
	assert.Equal(t, []string{"conv-x", "conv-x"}, eng.sessions)
	assert.Contains(t, out.String(), "Welcome!")
	assert.Contains(t, out.String(), "echo: hello")
	assert.Contains(t, out.String(), "echo: how are you?")
}

func TestREPLReset(t *testing.T) {
	eng := &fakeConversations{}
	r, _ := newTestREPL("one\n/reset\ntwo\n", eng)

	require.NoError(t, r.run(context.Background()))

	assert.Equal(t, 2, eng.started)
	assert.Equal(t, []string{"conv-x", "conv-xx"}, eng.sessions)
}

func TestREPLQuit(t *testing.T) {
	eng := &fakeConversations{}
	r, _ := newTestREPL("/quit\nnever sent\n", eng)

	require.NoError(t, r.run(context.Background()))
	assert.Empty(t, eng.texts)
}

func TestREPLErrorKeepsGoing(t *testing.T) {
	eng := &fakeConversations{}
	r, out := newTestREPL("fail\nafter\n", eng)

	require.NoError(t, r.run(context.Background()))

	assert.Equal(t, []string{"fail", "after"}, eng.texts)
	assert.Contains(t, out.String(), "api_error: API error (500): boom")
	assert.Contains(t, out.String(), "echo: after")
}

func TestREPLUsage(t *testing.T) {
	eng := &fakeConversations{}
	r, out := newTestREPL("/usage\n", eng)
	r.usage = func() map[string]usagepkg.TokenCount {
		return map[string]usagepkg.TokenCount{"gpt-4o": {InputTokens: 1500, OutputTokens: 20}}
	}

	require.NoError(t, r.run(context.Background()))
	assert.Contains(t, out.String(), "gpt-4o  in 1.5k  out 20")
}

func TestDescribeError(t *testing.T) {
	assert.Equal(t, "config_error: API key missing for provider openai",
		describeError(modeladapter.Errorf(modeladapter.KindConfig, "API key missing for provider openai")))
	assert.Equal(t, "plain", describeError(errors.New("plain")))
}

func TestPrintEvents(t *testing.T) {
	bus := engine.NewEventBus()
	sub := bus.Subscribe(8)

	bus.Publish(engine.Event{Kind: engine.EventRequestStart, Provider: "openai", Model: "gpt-4o"})
	bus.Publish(engine.Event{Kind: engine.EventTurnSaved, SessionID: "abc"})
	bus.Unsubscribe(sub)

	var buf bytes.Buffer
	printEvents(&buf, sub)

	assert.Contains(t, buf.String(), "-> openai gpt-4o")
	assert.Contains(t, buf.String(), "saved turn in abc")
}
