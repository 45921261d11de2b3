package deepseek_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultrapress/ultrapress/pkg/chats/message"
	"github.com/ultrapress/ultrapress/pkg/modeladapter"
	"github.com/ultrapress/ultrapress/pkg/providers/deepseek"
)

func TestNew_Defaults(t *testing.T) {
	a := deepseek.New("", nil)

	assert.Equal(t, modeladapter.DeepSeek, a.Provider)

	wr, err := a.BuildRequest(modeladapter.Request{APIKey: "ds-key", Model: "deepseek-chat", MaxTokens: 400})
	require.NoError(t, err)
	assert.Equal(t, "https://api.deepseek.com/chat/completions", wr.URL)
	assert.Equal(t, "Bearer ds-key", wr.Header.Get("Authorization"))
}

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, deepseek.CompletionsPath, r.URL.Path)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "deepseek-chat", body["model"])

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hi from deepseek"}}]}`))
	}))
	t.Cleanup(srv.Close)

	a := deepseek.New(srv.URL, srv.Client())

	got, err := a.Complete(context.Background(), modeladapter.Request{
		APIKey:       "ds-key",
		Model:        "deepseek-chat",
		SystemPrompt: "sys",
		History:      []message.Message{message.User("hi")},
		MaxTokens:    400,
	})
	require.NoError(t, err)
	assert.Equal(t, "hi from deepseek", got)
}

func TestComplete_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"message":"Insufficient Balance"}`))
	}))
	t.Cleanup(srv.Close)

	a := deepseek.New(srv.URL, srv.Client())

	_, err := a.Complete(context.Background(), modeladapter.Request{APIKey: "k", Model: "deepseek-chat"})
	assert.EqualError(t, err, "API error (402): Insufficient Balance")
	assert.Equal(t, modeladapter.KindAPI, modeladapter.KindOf(err))
}
