// Package history bounds conversation histories before they are sent to a
// provider. Long conversations keep their opening and most recent turns and
// replace the middle with a single system marker.
package history

import (
	"github.com/ultrapress/ultrapress/pkg/chats/message"
)

// OmittedMarker is the content of the system message that stands in for the
// elided middle of a compressed conversation.
const OmittedMarker = "[... Earlier conversation omitted ...]"

const (
	defaultHead = 2
	defaultTail = 8
)

// Policy describes how many messages are kept at each end of a conversation.
type Policy struct {
	Head int // Messages kept from the start.
	Tail int // Messages kept from the end.
}

// DefaultPolicy keeps the first 2 and the last 8 messages.
var DefaultPolicy = Policy{Head: defaultHead, Tail: defaultTail}

// Budget is the longest history the policy passes through untouched.
func (p Policy) Budget() int { return p.Head + p.Tail }

// MaxLen is the longest history the policy can produce.
func (p Policy) MaxLen() int { return p.Head + 1 + p.Tail }

// Compress returns h unchanged when it holds at most Head+Tail messages.
// Longer histories become h[:Head], an OmittedMarker system message and the
// last Tail messages. The result never shares a backing array with h.
func (p Policy) Compress(h []message.Message) []message.Message {
	if len(h) <= p.Budget() {
		return h
	}

	out := make([]message.Message, 0, p.MaxLen())
	out = append(out, h[:p.Head]...)
	out = append(out, message.System(OmittedMarker))
	out = append(out, h[len(h)-p.Tail:]...)

	return out
}

// Compress applies DefaultPolicy.
func Compress(h []message.Message) []message.Message {
	return DefaultPolicy.Compress(h)
}
