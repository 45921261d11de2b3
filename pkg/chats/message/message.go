// Package message defines the conversation message value and the sanitizing
// applied to histories received from untrusted clients.
package message

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/ultrapress/ultrapress/pkg/chats/role"
)

// Message is a single conversation turn. It is a value type; appending a turn
// creates a new Message rather than mutating an existing one.
type Message struct {
	Role    role.Role `json:"role"`
	Content string    `json:"content"`
}

// New creates a Message with the given role and content.
func New(r role.Role, content string) Message {
	return Message{Role: r, Content: content}
}

// User is shorthand for New(role.User, content).
func User(content string) Message { return New(role.User, content) }

// Assistant is shorthand for New(role.Assistant, content).
func Assistant(content string) Message { return New(role.Assistant, content) }

// System is shorthand for New(role.System, content).
func System(content string) Message { return New(role.System, content) }

// Raw is a history entry as submitted by a client. Content is a pointer so a
// missing field can be told apart from an empty string.
type Raw struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func stripPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Sanitize converts client-submitted entries into messages. Entries without a
// role, without content, or with an unknown role are dropped. HTML tags are
// stripped from content and surrounding whitespace is trimmed; line breaks
// inside the content are kept.
func Sanitize(entries []Raw) []Message {
	out := make([]Message, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Role) == "" || e.Content == nil {
			continue
		}

		r, ok := role.Parse(e.Role)
		if !ok {
			continue
		}

		out = append(out, New(r, SanitizeText(*e.Content)))
	}
	return out
}

// SanitizeText strips markup from s and trims it. Entities produced by the
// stripping pass are decoded back so "a & b" survives unchanged.
func SanitizeText(s string) string {
	clean := stripPolicy().Sanitize(s)
	return strings.TrimSpace(html.UnescapeString(clean))
}
