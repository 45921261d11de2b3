// Package deepseek provides an Adapter for the DeepSeek API, which speaks the
// OpenAI chat completions protocol under a different host and path.
package deepseek

import (
	"net/http"

	"github.com/ultrapress/ultrapress/pkg/modeladapter"
	"github.com/ultrapress/ultrapress/pkg/providers/openai"
)

// DefaultBaseURL is the DeepSeek API root (no trailing slash).
const DefaultBaseURL = "https://api.deepseek.com"

// CompletionsPath is the chat completions endpoint below DefaultBaseURL.
const CompletionsPath = "/chat/completions"

// Adapter is the OpenAI adapter pointed at DeepSeek.
type Adapter struct {
	*openai.Adapter
}

var _ modeladapter.Completer = Adapter{}

// New creates an Adapter configured for the DeepSeek API.
func New(baseURL string, client *http.Client) Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	a := openai.New(baseURL, client)
	a.Provider = modeladapter.DeepSeek
	a.Path = CompletionsPath

	return Adapter{Adapter: a}
}
