package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ultrapress/ultrapress/pkg/modeladapter"
)

// openAIReply wraps content in a chat completions response body.
func openAIReply(t *testing.T, content string) string {
	t.Helper()

	b, err := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]any{"content": content}}},
	})
	require.NoError(t, err)

	return string(b)
}

func TestDecodeSEO(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  SEOMeta
	}{
		{
			name:  "plain",
			reply: `{"title":"Best Bikes - Bike Shop","description":"Ride more."}`,
			want:  SEOMeta{Title: "Best Bikes - Bike Shop", Description: "Ride more."},
		},
		{
			name:  "fenced",
			reply: "```json\n{\"title\":\"T\",\"description\":\"D\",\"suggested_keyword\":\"bikes\"}\n```",
			want:  SEOMeta{Title: "T", Description: "D", SuggestedKeyword: "bikes"},
		},
		{
			name:  "prose around",
			reply: "Sure! Here it is: {\"title\":\" T \",\"description\":\"D\"} Hope this helps.",
			want:  SEOMeta{Title: "T", Description: "D"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeSEO(tt.reply)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeSEO_Invalid(t *testing.T) {
	for _, reply := range []string{
		"I cannot help with that.",
		`{"description":"no title"}`,
		`{"title":""}`,
		`{"title": broken`,
	} {
		_, err := decodeSEO(reply)
		require.ErrorIs(t, err, ErrInvalidSEOFormat, reply)

		var fe *SEOFormatError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, reply, fe.Reply)
	}
}

func TestGenerateSEO(t *testing.T) {
	f := newFakeProvider(t, http.StatusOK, openAIReply(t, `{"title":"Fast Bikes - Bike Shop","description":"Find your ride.","suggested_keyword":"fast bikes"}`))
	eng := newTestEngine(t, f.srv.URL)

	meta, err := eng.GenerateSEO(context.Background(), Article{
		Title:   "Our fastest bikes",
		Content: "<h2>Speed</h2><p>Carbon frames.</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "Fast Bikes - Bike Shop", meta.Title)
	assert.Equal(t, "fast bikes", meta.SuggestedKeyword)

	msgs, _ := f.lastBody()["messages"].([]any)
	require.Len(t, msgs, 1, "SEO requests carry no history")

	sys, _ := msgs[0].(map[string]any)
	text, _ := sys["content"].(string)
	assert.Contains(t, text, "Bike Shop")
	assert.Contains(t, text, "suggested_keyword")
	assert.Contains(t, text, "Carbon frames.")
	assert.NotContains(t, text, "<h2>")
}

func TestGenerateSEO_InvalidReply(t *testing.T) {
	f := newFakeProvider(t, http.StatusOK, openAIReply(t, "Here are some ideas for your title..."))
	eng := newTestEngine(t, f.srv.URL)

	_, err := eng.GenerateSEO(context.Background(), Article{Title: "x", FocusKeyword: "bikes"})
	assert.ErrorIs(t, err, ErrInvalidSEOFormat)
}

func TestFillSEO_OnlyEmptyFields(t *testing.T) {
	f := newFakeProvider(t, http.StatusOK, openAIReply(t, `{"title":"Generated","description":"Generated desc"}`))
	eng := newTestEngine(t, f.srv.URL)

	got, err := eng.FillSEO(context.Background(), Article{Title: "a", FocusKeyword: "k"}, SEOMeta{Title: "Mine"})
	require.NoError(t, err)
	assert.Equal(t, "Mine", got.Title)
	assert.Equal(t, "Generated desc", got.Description)
	assert.Empty(t, got.SuggestedKeyword)
}

func TestFillSEO_CompleteSkipsCall(t *testing.T) {
	f := newFakeProvider(t, http.StatusOK, openAIReply(t, `{"title":"G","description":"G"}`))
	eng := newTestEngine(t, f.srv.URL)

	current := SEOMeta{Title: "T", Description: "D"}
	got, err := eng.FillSEO(context.Background(), Article{Title: "a"}, current)
	require.NoError(t, err)
	assert.Equal(t, current, got)
	assert.Equal(t, int32(0), f.calls.Load())
}

func TestFillSEO_FailureKeepsCurrent(t *testing.T) {
	f := newFakeProvider(t, http.StatusTooManyRequests, `{"error":{"message":"quota"}}`)
	eng := newTestEngine(t, f.srv.URL)

	current := SEOMeta{Description: "kept"}
	got, err := eng.FillSEO(context.Background(), Article{Title: "a"}, current)
	assert.Equal(t, modeladapter.KindAPI, modeladapter.KindOf(err))
	assert.Equal(t, current, got)
}
