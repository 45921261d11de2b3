// Package openai provides an Adapter for the OpenAI Chat Completions API.
//
// The same wire protocol is spoken by DeepSeek, so the deepseek package
// reuses this adapter with a different base URL and path.
package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ultrapress/ultrapress/pkg/modeladapter"
	"github.com/ultrapress/ultrapress/pkg/modeladapter/usage"
)

// DefaultBaseURL is the OpenAI API root (no trailing slash).
const DefaultBaseURL = "https://api.openai.com"

// CompletionsPath is the chat completions endpoint below DefaultBaseURL.
const CompletionsPath = "/v1/chat/completions"

// DefaultTemperature is sent when the request leaves Temperature at zero.
const DefaultTemperature = 0.2

var (
	_ modeladapter.Completer   = (*Adapter)(nil)
	_ modeladapter.Adapter     = (*Adapter)(nil)
	_ modeladapter.UsageParser = (*Adapter)(nil)
)

// Adapter implements modeladapter.Adapter for chat-completions style APIs.
type Adapter struct {
	modeladapter.ModelAdapter

	// Path is appended to BaseURL for every call.
	Path string
}

// New creates an Adapter configured for the OpenAI API.
// An empty baseURL selects DefaultBaseURL; a nil client falls back to a
// client with modeladapter.DefaultTimeout.
func New(baseURL string, client *http.Client) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	a := &Adapter{
		ModelAdapter: modeladapter.New(modeladapter.OpenAI, baseURL, modeladapter.Auth{}, client),
		Path:         CompletionsPath,
	}
	a.HeaderParser = modeladapter.ParseOpenAIRateLimitHeaders

	return a
}

// Complete sends one chat completion request and returns the reply text.
func (a *Adapter) Complete(ctx context.Context, req modeladapter.Request) (string, error) {
	return a.Exchange(ctx, a, req)
}

// --- request types ---

type apiRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature float64      `json:"temperature"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// --- response types ---

type apiResponse struct {
	Choices []apiChoice `json:"choices"`
	Usage   *apiUsage   `json:"usage"`
}

type apiChoice struct {
	Message struct {
		Content *string `json:"content"`
	} `json:"message"`
}

type apiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// BuildRequest shapes the chat completions body: the system prompt first,
// then the history verbatim.
func (a *Adapter) BuildRequest(req modeladapter.Request) (modeladapter.WireRequest, error) {
	wr, err := a.NewWireRequest(a.Path, req.APIKey)
	if err != nil {
		return wr, err
	}

	body := apiRequest{
		Model:       req.Model,
		Messages:    make([]apiMessage, 0, len(req.History)+1),
		MaxTokens:   req.MaxTokens,
		Temperature: DefaultTemperature,
	}
	if req.Temperature != 0 {
		body.Temperature = req.Temperature
	}

	body.Messages = append(body.Messages, apiMessage{Role: "system", Content: req.SystemPrompt})
	for _, m := range req.History {
		body.Messages = append(body.Messages, apiMessage{Role: m.Role.String(), Content: m.Content})
	}

	wr.Body, err = json.Marshal(body)
	if err != nil {
		return wr, modeladapter.Errorf(modeladapter.KindConfig, "encode %s request: %v", a.Provider, err)
	}

	return wr, nil
}

// ParseResponse extracts choices[0].message.content from a 200 response.
func (a *Adapter) ParseResponse(status int, body []byte) (string, error) {
	if status != http.StatusOK {
		return "", modeladapter.NewAPIError(status, body)
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Choices) == 0 {
		return "", modeladapter.Errorf(modeladapter.KindParse, "could not parse response")
	}

	c := resp.Choices[0].Message.Content
	if c == nil || strings.TrimSpace(*c) == "" {
		return "", modeladapter.Errorf(modeladapter.KindParse, "could not parse response")
	}

	return strings.TrimSpace(*c), nil
}

// ParseUsage reads the usage block of a successful response.
func (a *Adapter) ParseUsage(body []byte) (usage.TokenCount, bool) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Usage == nil {
		return usage.TokenCount{}, false
	}

	return usage.TokenCount{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, true
}
