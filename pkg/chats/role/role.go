// Package role defines the sender roles used in chatbot conversations.
package role

import "strings"

// Role represents the sender of a message in a conversation.
type Role string

const (
	System    Role = "system"
	User      Role = "user"
	Assistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case System, User, Assistant:
		return true
	}
	return false
}

// String returns the underlying string value of the role.
func (r Role) String() string {
	return string(r)
}

// Parse maps a loosely formatted role name onto a known Role. The chat widget
// labels replies "bot", which is accepted as an alias for Assistant.
func Parse(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r == "bot" || r == "model" {
		return Assistant, true
	}
	return r, r.Valid()
}
