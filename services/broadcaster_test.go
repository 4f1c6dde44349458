package services

import (
	"context"
	"testing"
	"time"

	"github.com/Moshfiqmoon/joingroup/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emittedEvent struct {
	Room    string
	Event   string
	Payload map[string]interface{}
}

// fakeEmitter captures emits on a channel so tests can observe delivery
// order without a live socket server
type fakeEmitter struct {
	events chan emittedEvent
}

func newFakeEmitter() *fakeEmitter {
	return &fakeEmitter{events: make(chan emittedEvent, 16)}
}

func (e *fakeEmitter) EmitToRoom(room, event string, payload map[string]interface{}) {
	e.events <- emittedEvent{Room: room, Event: event, Payload: payload}
}

func (e *fakeEmitter) next(t *testing.T) emittedEvent {
	t.Helper()
	select {
	case ev := <-e.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast event")
		return emittedEvent{}
	}
}

func (e *fakeEmitter) expectNone(t *testing.T) {
	t.Helper()
	select {
	case ev := <-e.events:
		t.Fatalf("unexpected extra event %q to room %q", ev.Event, ev.Room)
	case <-time.After(100 * time.Millisecond):
	}
}

func startBroadcaster(t *testing.T, users UserResolver) (*Broadcaster, *fakeEmitter) {
	t.Helper()
	emitter := newFakeEmitter()
	b := NewBroadcaster(emitter, users, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go b.Run(ctx)
	return b, emitter
}

func TestUserRoomKey(t *testing.T) {
	assert.Equal(t, "chat_42", UserRoom(42))
}

func TestRelayUserMessage(t *testing.T) {
	users := newFakeStore()
	require.NoError(t, users.SaveUser(context.Background(), &models.User{
		UserID:   7,
		FullName: "Ann Example",
		Username: "ann",
	}))
	b, emitter := startBroadcaster(t, users)

	b.RelayMessage(context.Background(), &models.Message{
		ID:        1,
		UserID:    7,
		Sender:    models.SenderUser,
		Message:   "hello",
		Timestamp: "2026-01-01 10:00:00",
	})

	// Exactly one new_message to the user's room
	first := emitter.next(t)
	assert.Equal(t, "chat_7", first.Room)
	assert.Equal(t, EventNewMessage, first.Event)
	assert.Equal(t, "hello", first.Payload["message"])

	// Exactly one admin_notification with the resolved identity
	second := emitter.next(t)
	assert.Equal(t, AdminRoom, second.Room)
	assert.Equal(t, EventAdminNotification, second.Event)
	assert.Equal(t, "Ann Example", second.Payload["user_name"])
	assert.Equal(t, "ann", second.Payload["username"])

	emitter.expectNone(t)
}

func TestRelayAdminMessage(t *testing.T) {
	b, emitter := startBroadcaster(t, newFakeStore())

	b.RelayMessage(context.Background(), &models.Message{
		ID:        1,
		UserID:    7,
		Sender:    models.SenderAdmin,
		Message:   "reply",
		Timestamp: "2026-01-01 10:00:00",
	})

	first := emitter.next(t)
	assert.Equal(t, "chat_7", first.Room)
	assert.Equal(t, EventNewMessage, first.Event)

	second := emitter.next(t)
	assert.Equal(t, AdminRoom, second.Room)
	assert.Equal(t, EventAdminMessageSent, second.Event)
	assert.Equal(t, "reply", second.Payload["message"])

	emitter.expectNone(t)
}

func TestRelayUserMessageUnknownUser(t *testing.T) {
	b, emitter := startBroadcaster(t, newFakeStore())

	// An unknown user still produces both events; the admin
	// notification just carries empty identity fields
	b.RelayMessage(context.Background(), &models.Message{
		UserID:    9,
		Sender:    models.SenderUser,
		Message:   "hi",
		Timestamp: "2026-01-01 10:00:00",
	})

	first := emitter.next(t)
	assert.Equal(t, EventNewMessage, first.Event)

	second := emitter.next(t)
	assert.Equal(t, EventAdminNotification, second.Event)
	assert.Equal(t, "", second.Payload["user_name"])
}

func TestPublishConcurrentSafe(t *testing.T) {
	b, emitter := startBroadcaster(t, newFakeStore())

	const n = 20
	for i := 0; i < n; i++ {
		go b.EmitToAdminRoom(EventNewMessage, map[string]interface{}{"i": i})
	}

	for i := 0; i < n; i++ {
		ev := emitter.next(t)
		assert.Equal(t, AdminRoom, ev.Room)
	}
}
