// Package session persists chatbot conversations between turns.
//
// Two drivers are provided: an in-process map for single-node deployments
// and tests, and Redis for shared state across server replicas. Both use
// optimistic locking on Conversation.Version so concurrent turns on the same
// conversation cannot silently overwrite each other.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/ultrapress/ultrapress/pkg/chats/message"
)

var (
	// ErrNotFound is returned when a conversation does not exist or expired.
	ErrNotFound = errors.New("session: not found")
	// ErrVersionConflict is returned by Update when the stored version moved on.
	ErrVersionConflict = errors.New("session: version conflict")
	// ErrExists is returned by Create for a duplicate ID.
	ErrExists = errors.New("session: already exists")
)

// DefaultTTL is how long an idle conversation is kept.
const DefaultTTL = 24 * time.Hour

// Conversation is the persisted state of one chatbot conversation.
type Conversation struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Version   int64             `json:"version"`
	Messages  []message.Message `json:"messages"`
}

// NewConversation returns an unsaved conversation with a fresh random ID,
// seeded with the given messages.
func NewConversation(seed ...message.Message) *Conversation {
	return &Conversation{
		ID:       uuid.NewString(),
		Messages: slices.Clone(seed),
	}
}

// Clone returns a deep copy of c.
func (c *Conversation) Clone() *Conversation {
	cp := *c
	cp.Messages = slices.Clone(c.Messages)
	return &cp
}

// Store loads and saves conversations.
type Store interface {
	// Create saves a new conversation with Version 1.
	Create(ctx context.Context, c *Conversation) error
	// Get returns the conversation or ErrNotFound.
	Get(ctx context.Context, id string) (*Conversation, error)
	// Update saves c if c.Version matches the stored version, then
	// increments c.Version.
	Update(ctx context.Context, c *Conversation) error
	// Delete removes a conversation. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error
	// Close releases the store's resources.
	Close() error
}

// Driver names a Store implementation.
type Driver string

const (
	DriverMemory Driver = "memory"
	DriverRedis  Driver = "redis"
)

// Options configures NewStore.
type Options struct {
	Driver    Driver
	RedisAddr string
	TTL       time.Duration
}

// NewStore builds the Store selected by opts.Driver. An empty driver selects
// the memory store.
func NewStore(opts Options) (Store, error) {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	switch opts.Driver {
	case "", DriverMemory:
		return NewMemoryStore(ttl), nil
	case DriverRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("session: redis driver requires an address")
		}
		return NewRedisStore(redis.NewClient(&redis.Options{Addr: opts.RedisAddr}), ttl), nil
	default:
		return nil, fmt.Errorf("session: unknown driver %q", opts.Driver)
	}
}
