package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ultrapress/ultrapress/pkg/chats/message"
	"github.com/ultrapress/ultrapress/pkg/session"
)

var (
	// ErrEmptyMessage is returned by Converse for a blank user message.
	ErrEmptyMessage = errors.New("engine: empty message")
	// ErrSessionBusy is returned when a turn is already running for the
	// same conversation.
	ErrSessionBusy = errors.New("engine: another turn is already active for this session")
)

// Turn is the outcome of one Converse call.
type Turn struct {
	SessionID string
	Reply     string
	Messages  []message.Message // Full conversation including the reply.
}

// StartConversation creates a stored conversation opened by the configured
// welcome message.
func (e *Engine) StartConversation(ctx context.Context) (*session.Conversation, error) {
	c := session.NewConversation(message.Assistant(e.cfg.Chatbot.WelcomeMessage))
	if err := e.store.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("engine: start conversation: %w", err)
	}
	return c, nil
}

// Conversation loads a stored conversation.
func (e *Engine) Conversation(ctx context.Context, id string) (*session.Conversation, error) {
	c, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("engine: conversation %s: %w", id, err)
	}
	return c, nil
}

// Converse appends text to the stored conversation, answers it and persists
// both messages. An empty sessionID starts a new conversation. A failed
// provider call leaves the stored conversation untouched so the user can
// retry.
func (e *Engine) Converse(ctx context.Context, sessionID, text string) (Turn, error) {
	text = message.SanitizeText(text)
	if text == "" {
		return Turn{}, ErrEmptyMessage
	}

	var (
		conv *session.Conversation
		err  error
	)
	if sessionID == "" {
		conv, err = e.StartConversation(ctx)
	} else {
		conv, err = e.Conversation(ctx, sessionID)
	}
	if err != nil {
		return Turn{}, err
	}

	if err := e.acquire(conv.ID); err != nil {
		return Turn{}, err
	}
	defer e.release(conv.ID)

	conv.Messages = append(conv.Messages, message.User(text))

	start := time.Now()
	reply, err := e.Chat(WithSessionID(ctx, conv.ID), conv.Messages)
	e.record(ctx, conv.ID, text, reply, time.Since(start), err)
	if err != nil {
		return Turn{SessionID: conv.ID}, err
	}

	conv.Messages = append(conv.Messages, message.Assistant(reply))
	if err := e.store.Update(ctx, conv); err != nil {
		return Turn{SessionID: conv.ID, Reply: reply}, fmt.Errorf("engine: save conversation %s: %w", conv.ID, err)
	}

	e.events.Publish(Event{
		Kind:      EventTurnSaved,
		SessionID: conv.ID,
		Provider:  e.cfg.Provider,
		Timestamp: time.Now(),
		Data:      len(conv.Messages),
	})

	return Turn{SessionID: conv.ID, Reply: reply, Messages: conv.Messages}, nil
}

// ResetConversation deletes a stored conversation.
func (e *Engine) ResetConversation(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	if err := e.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("engine: reset conversation %s: %w", id, err)
	}
	return nil
}

func (e *Engine) acquire(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, busy := e.active[id]; busy {
		return ErrSessionBusy
	}
	e.active[id] = struct{}{}
	return nil
}

func (e *Engine) release(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.active, id)
}
