package engine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/ultrapress/ultrapress/pkg/chats/message"
	"github.com/ultrapress/ultrapress/pkg/prompt"
)

// ErrInvalidSEOFormat is matched by errors.Is when a provider reply cannot be
// decoded into SEO metadata.
var ErrInvalidSEOFormat = errors.New("engine: invalid SEO response format")

// SEOFormatError carries the raw reply that failed to decode.
type SEOFormatError struct {
	Reply string
}

func (e *SEOFormatError) Error() string { return ErrInvalidSEOFormat.Error() }

func (e *SEOFormatError) Is(target error) bool { return target == ErrInvalidSEOFormat }

// Article is the input to SEO generation.
type Article struct {
	Title        string
	Content      string // May contain HTML; tags are stripped before prompting.
	FocusKeyword string
}

// SEOMeta is generated search metadata. SuggestedKeyword is only set when the
// article had no focus keyword.
type SEOMeta struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	SuggestedKeyword string `json:"suggested_keyword,omitempty"`
}

// Complete reports whether both title and description are set.
func (m SEOMeta) Complete() bool {
	return strings.TrimSpace(m.Title) != "" && strings.TrimSpace(m.Description) != ""
}

// GenerateSEO asks the active provider for a title and meta description.
func (e *Engine) GenerateSEO(ctx context.Context, a Article) (SEOMeta, error) {
	p := prompt.SEO(
		message.SanitizeText(a.Title),
		message.SanitizeText(a.Content),
		strings.TrimSpace(a.FocusKeyword),
		e.cfg.SEO.SiteTitle,
	)

	reply, err := e.client.Send(ctx, p, nil, e.cfg.ActiveProvider())
	if err != nil {
		return SEOMeta{}, err
	}

	meta, err := decodeSEO(reply)
	if err != nil {
		e.logger.Warn("undecodable SEO reply", "error", err, "reply_len", len(reply))
		return SEOMeta{}, err
	}

	return meta, nil
}

// FillSEO generates metadata only for the fields of current that are empty.
// Existing values always win. When generation fails, current is returned
// unchanged together with the error.
func (e *Engine) FillSEO(ctx context.Context, a Article, current SEOMeta) (SEOMeta, error) {
	if current.Complete() {
		return current, nil
	}

	gen, err := e.GenerateSEO(ctx, a)
	if err != nil {
		return current, err
	}

	out := current
	if strings.TrimSpace(out.Title) == "" {
		out.Title = gen.Title
	}
	if strings.TrimSpace(out.Description) == "" {
		out.Description = gen.Description
	}
	if out.SuggestedKeyword == "" && strings.TrimSpace(a.FocusKeyword) == "" {
		out.SuggestedKeyword = gen.SuggestedKeyword
	}

	return out, nil
}

// decodeSEO parses a model reply that should be a JSON object, tolerating
// Markdown code fences and prose around the object.
func decodeSEO(reply string) (SEOMeta, error) {
	s := strings.TrimSpace(reply)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return SEOMeta{}, &SEOFormatError{Reply: reply}
	}

	var meta SEOMeta
	if err := json.Unmarshal([]byte(s[start:end+1]), &meta); err != nil {
		return SEOMeta{}, &SEOFormatError{Reply: reply}
	}

	meta.Title = strings.TrimSpace(meta.Title)
	meta.Description = strings.TrimSpace(meta.Description)
	meta.SuggestedKeyword = strings.TrimSpace(meta.SuggestedKeyword)

	if meta.Title == "" {
		return SEOMeta{}, &SEOFormatError{Reply: reply}
	}

	return meta, nil
}
