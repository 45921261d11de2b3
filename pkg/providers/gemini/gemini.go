// Package gemini provides an Adapter for the Google Gemini generateContent API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ultrapress/ultrapress/pkg/chats/message"
	"github.com/ultrapress/ultrapress/pkg/chats/role"
	"github.com/ultrapress/ultrapress/pkg/modeladapter"
	"github.com/ultrapress/ultrapress/pkg/modeladapter/usage"
)

// DefaultBaseURL is the Gemini API root (no trailing slash).
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// DefaultTemperature is sent when the request leaves Temperature at zero.
const DefaultTemperature = 0.3

// historySeparator divides the system prompt from the flattened transcript.
const historySeparator = "\n\n--- CONVERSATION HISTORY ---\n\n"

var (
	_ modeladapter.Completer   = (*Adapter)(nil)
	_ modeladapter.Adapter     = (*Adapter)(nil)
	_ modeladapter.UsageParser = (*Adapter)(nil)
)

// Adapter implements modeladapter.Adapter for the Gemini API.
type Adapter struct {
	modeladapter.ModelAdapter
}

// New creates an Adapter configured for the Gemini API. The API key travels
// as the "key" query parameter; no Authorization header is sent.
func New(baseURL string, client *http.Client) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	// HeaderParser is not set. The Gemini API does not return rate limit
	// headers.
	return &Adapter{
		ModelAdapter: modeladapter.New(modeladapter.Gemini, baseURL, modeladapter.Auth{QueryParam: "key"}, client),
	}
}

// Complete sends one generateContent request and returns the reply text.
func (a *Adapter) Complete(ctx context.Context, req modeladapter.Request) (string, error) {
	return a.Exchange(ctx, a, req)
}

// --- request types ---

type apiRequest struct {
	Contents         []apiContent     `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type apiContent struct {
	Parts []apiPart `json:"parts"`
}

type apiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// --- response types ---

type apiResponse struct {
	Candidates    []apiCandidate `json:"candidates"`
	UsageMetadata *apiUsageMeta  `json:"usageMetadata"`
}

type apiCandidate struct {
	Content struct {
		Parts []struct {
			Text *string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

type apiUsageMeta struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}

// FlattenPrompt renders the system prompt and history as the single text
// part Gemini receives.
func FlattenPrompt(systemPrompt string, history []message.Message) string {
	var b strings.Builder

	b.WriteString(systemPrompt)
	b.WriteString(historySeparator)

	for _, m := range history {
		label := "Assistant"
		if m.Role == role.User {
			label = "User"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, m.Content)
	}

	b.WriteString("\nAssistant:")

	return b.String()
}

// BuildRequest normalizes the model name and flattens the conversation.
func (a *Adapter) BuildRequest(req modeladapter.Request) (modeladapter.WireRequest, error) {
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", url.PathEscape(NormalizeModel(req.Model)))

	wr, err := a.NewWireRequest(path, req.APIKey)
	if err != nil {
		return wr, err
	}

	body := apiRequest{
		Contents: []apiContent{{
			Parts: []apiPart{{Text: FlattenPrompt(req.SystemPrompt, req.History)}},
		}},
		GenerationConfig: generationConfig{
			Temperature:     DefaultTemperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	if req.Temperature != 0 {
		body.GenerationConfig.Temperature = req.Temperature
	}

	wr.Body, err = json.Marshal(body)
	if err != nil {
		return wr, modeladapter.Errorf(modeladapter.KindConfig, "encode gemini request: %v", err)
	}

	return wr, nil
}

// ParseResponse extracts candidates[0].content.parts[0].text from a 200
// response. A "model is not found" failure gets the valid model list
// appended.
func (a *Adapter) ParseResponse(status int, body []byte) (string, error) {
	if status != http.StatusOK {
		e := modeladapter.NewAPIError(status, body)
		if strings.Contains(e.Detail, "is not found") {
			e.Detail += ". Valid models: " + strings.Join(validModels, ", ")
		}
		return "", e
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil ||
		len(resp.Candidates) == 0 ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", modeladapter.Errorf(modeladapter.KindParse, "could not parse response")
	}

	text := resp.Candidates[0].Content.Parts[0].Text
	if text == nil || strings.TrimSpace(*text) == "" {
		return "", modeladapter.Errorf(modeladapter.KindParse, "could not parse response")
	}

	return strings.TrimSpace(*text), nil
}

// ParseUsage reads usageMetadata from a successful response.
func (a *Adapter) ParseUsage(body []byte) (usage.TokenCount, bool) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.UsageMetadata == nil {
		return usage.TokenCount{}, false
	}

	return usage.TokenCount{
		InputTokens:  resp.UsageMetadata.PromptTokenCount,
		OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
	}, true
}
