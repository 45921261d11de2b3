package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventBus_SubscribePublish(t *testing.T) {
	bus := NewEventBus()
	sub := bus.Subscribe(8)
	defer bus.Unsubscribe(sub)

	bus.Publish(Event{
		Kind:      EventRequestStart,
		SessionID: "s1",
		Provider:  "openai",
		Model:     "gpt-4o",
		Timestamp: time.Now(),
	})

	select {
	case got := <-sub.C:
		assert.Equal(t, EventRequestStart, got.Kind)
		assert.Equal(t, "s1", got.SessionID)
		assert.Equal(t, "openai", got.Provider)
		assert.Equal(t, "gpt-4o", got.Model)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestEventBus_FanOut(t *testing.T) {
	bus := NewEventBus()
	sub1 := bus.Subscribe(4)
	sub2 := bus.Subscribe(4)
	defer bus.Unsubscribe(sub1)
	defer bus.Unsubscribe(sub2)

	bus.Publish(Event{Kind: EventTurnSaved})

	for i, sub := range []*Subscription{sub1, sub2} {
		select {
		case <-sub.C:
		case <-time.After(time.Second):
			t.Fatalf("sub%d did not receive event", i+1)
		}
	}
}

func TestEventBus_NonBlockingDrop(t *testing.T) {
	bus := NewEventBus()
	sub := bus.Subscribe(1)
	defer bus.Unsubscribe(sub)

	bus.Publish(Event{Kind: EventRequestStart})
	bus.Publish(Event{Kind: EventRequestEnd})

	got := <-sub.C
	assert.Equal(t, EventRequestStart, got.Kind)

	select {
	case <-sub.C:
		t.Fatal("expected channel to be empty after drop")
	default:
	}
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus()
	sub := bus.Subscribe(4)

	bus.Unsubscribe(sub)

	_, ok := <-sub.C
	assert.False(t, ok, "channel should be closed after unsubscribe")

	bus.Unsubscribe(sub)
}

func TestEventBus_PublishNoSubscribers(t *testing.T) {
	NewEventBus().Publish(Event{Kind: EventError})
}

func TestSessionIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, sessionIDFromContext(ctx))
	assert.Equal(t, "abc", sessionIDFromContext(WithSessionID(ctx, "abc")))
}
