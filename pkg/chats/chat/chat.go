// Package chat wraps a conversation to answer questions about its state.
package chat

import (
	"github.com/ultrapress/ultrapress/pkg/chats/message"
	"github.com/ultrapress/ultrapress/pkg/chats/role"
)

// Chat is a conversation snapshot. The zero value is an empty conversation.
type Chat struct {
	messages []message.Message
}

// New creates a Chat pre-populated with the given messages.
func New(msgs ...message.Message) *Chat {
	return &Chat{messages: msgs}
}

// Last returns the most recent message and true, or a zero Message and false
// if the conversation is empty.
func (c *Chat) Last() (message.Message, bool) {
	if len(c.messages) == 0 {
		return message.Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// AwaitsReply reports whether the conversation ends with a user message,
// which is the only state in which a chatbot reply may be requested.
func (c *Chat) AwaitsReply() bool {
	last, ok := c.Last()
	return ok && last.Role == role.User
}
