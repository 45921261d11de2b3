package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ultrapress/ultrapress/pkg/engine"
)

// Engine is the subset of *engine.Engine the tools call.
type Engine interface {
	Converse(ctx context.Context, sessionID, text string) (engine.Turn, error)
	GenerateSEO(ctx context.Context, a engine.Article) (engine.SEOMeta, error)
}

var _ Engine = (*engine.Engine)(nil)

type chatInput struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatOutput struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// ChatTool sends one visitor message through the chatbot. Without a
// session_id a new conversation is started; the result carries its id.
func ChatTool(eng Engine) Tool {
	return Tool{
		Name:        "chat",
		Description: "Send a visitor message to the site chatbot and return its reply. Pass the returned session_id to continue the conversation.",
		InputSchema: json.RawMessage(`{
  "type": "object",
  "properties": {
    "session_id": {"type": "string", "description": "Conversation to continue; omit to start a new one"},
    "message": {"type": "string", "description": "Visitor message"}
  },
  "required": ["message"]
}`),
		Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
			var in chatInput
			if err := json.Unmarshal(input, &in); err != nil {
				return "", fmt.Errorf("chat: invalid input: %w", err)
			}
			if strings.TrimSpace(in.Message) == "" {
				return "", errors.New("chat: message is required")
			}

			turn, err := eng.Converse(ctx, in.SessionID, in.Message)
			if err != nil {
				return "", fmt.Errorf("chat: %w", err)
			}

			return marshal(chatOutput{SessionID: turn.SessionID, Reply: turn.Reply})
		},
	}
}

type seoInput struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	FocusKeyword string `json:"focus_keyword"`
}

// SEOTool generates an SEO title and meta description for an article.
func SEOTool(eng Engine) Tool {
	return Tool{
		Name:        "generate_seo_meta",
		Description: "Generate an SEO title and meta description for an article.",
		InputSchema: json.RawMessage(`{
  "type": "object",
  "properties": {
    "title": {"type": "string", "description": "Article title"},
    "content": {"type": "string", "description": "Article body, HTML allowed"},
    "focus_keyword": {"type": "string", "description": "Optional focus keyword"}
  }
}`),
		Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
			var in seoInput
			if err := json.Unmarshal(input, &in); err != nil {
				return "", fmt.Errorf("generate_seo_meta: invalid input: %w", err)
			}
			if strings.TrimSpace(in.Title) == "" && strings.TrimSpace(in.Content) == "" {
				return "", errors.New("generate_seo_meta: title or content is required")
			}

			meta, err := eng.GenerateSEO(ctx, engine.Article{
				Title:        in.Title,
				Content:      in.Content,
				FocusKeyword: in.FocusKeyword,
			})
			if err != nil {
				return "", fmt.Errorf("generate_seo_meta: %w", err)
			}

			return marshal(meta)
		},
	}
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	return string(b), nil
}
