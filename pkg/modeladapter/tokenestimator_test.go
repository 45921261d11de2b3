package modeladapter_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ultrapress/ultrapress/pkg/chats/message"
	"github.com/ultrapress/ultrapress/pkg/modeladapter"
)

func TestEstimateRequest_Empty(t *testing.T) {
	e := &modeladapter.TokenEstimator{}

	assert.Equal(t, 0, e.EstimateRequest(modeladapter.Request{}))
}

func TestEstimateRequest_SystemPromptOnly(t *testing.T) {
	e := &modeladapter.TokenEstimator{}

	// 8 chars -> 2 tokens + 4 overhead.
	assert.Equal(t, 6, e.EstimateRequest(modeladapter.Request{SystemPrompt: "12345678"}))
}

func TestEstimateRequest_History(t *testing.T) {
	e := &modeladapter.TokenEstimator{}
	req := modeladapter.Request{
		SystemPrompt: strings.Repeat("a", 40),
		History: []message.Message{
			message.User("Hello, how are you?"),       // 19 chars -> 5
			message.Assistant("I am fine, thank you!"), // 21 chars -> 6
		},
	}

	// system: 10 + 4, messages: 5 + 4 + 6 + 4.
	assert.Equal(t, 33, e.EstimateRequest(req))
}
