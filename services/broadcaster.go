package services

import (
	"context"
	"strconv"

	"github.com/Moshfiqmoon/joingroup/models"
	"github.com/rs/zerolog"
)

// AdminRoom is the shared room every admin viewer subscribes to
const AdminRoom = "admin_room"

// Live event kinds delivered to room subscribers
const (
	EventNewMessage        = "new_message"
	EventAdminNotification = "admin_notification"
	EventAdminMessageSent  = "admin_message_sent"
)

// UserRoom computes the per-user room key
func UserRoom(userID int64) string {
	return "chat_" + strconv.FormatInt(userID, 10)
}

// RoomEmitter delivers an event to every live connection in a room. The
// sockets service implements it over socket.io; tests swap in a fake.
type RoomEmitter interface {
	EmitToRoom(room, event string, payload map[string]interface{})
}

// UserResolver looks up a user record for event enrichment
type UserResolver interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
}

type publishCmd struct {
	room    string
	event   string
	payload map[string]interface{}
}

// Broadcaster owns live-event delivery. Handlers hand it Publish
// commands over a channel and a single Run loop performs the emits, so
// business logic never touches the connection layer directly. Delivery
// is fire-and-forget with no acknowledgment or retry. A client that is
// not connected simply misses the update and catches up from a later
// history read.
type Broadcaster struct {
	Emitter RoomEmitter
	Users   UserResolver
	Log     zerolog.Logger
	cmds    chan publishCmd
}

// NewBroadcaster creates a broadcaster that emits through the given
// emitter. Call Run to start delivery.
func NewBroadcaster(emitter RoomEmitter, users UserResolver, log zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		Emitter: emitter,
		Users:   users,
		Log:     log,
		cmds:    make(chan publishCmd, 256),
	}
}

// Run consumes publish commands until the context is cancelled
func (b *Broadcaster) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			b.Log.Info().Msg("broadcaster shutting down")
			return
		case cmd := <-b.cmds:
			b.Emitter.EmitToRoom(cmd.room, cmd.event, cmd.payload)
		}
	}
}

// Publish queues an event for delivery to a room. If the queue is full
// the event is dropped rather than blocking the caller; live events are
// notifications only, the durable record already exists.
func (b *Broadcaster) Publish(room, event string, payload map[string]interface{}) {
	select {
	case b.cmds <- publishCmd{room: room, event: event, payload: payload}:
	default:
		b.Log.Warn().Str("room", room).Str("event", event).Msg("broadcast queue full, event dropped")
	}
}

// EmitToUserRoom publishes an event to a user's dedicated room
func (b *Broadcaster) EmitToUserRoom(userID int64, event string, payload map[string]interface{}) {
	b.Publish(UserRoom(userID), event, payload)
}

// EmitToAdminRoom publishes an event to the shared admin room
func (b *Broadcaster) EmitToAdminRoom(event string, payload map[string]interface{}) {
	b.Publish(AdminRoom, event, payload)
}

// RelayMessage routes a recorded message to its live subscribers. Every
// message goes to the owning user's room. A user-sent message
// additionally surfaces in the admin room as an admin_notification with
// the resolved display name; an admin-sent message surfaces there as an
// admin_message_sent confirmation.
func (b *Broadcaster) RelayMessage(ctx context.Context, msg *models.Message) {

	payload := map[string]interface{}{
		"user_id":   msg.UserID,
		"sender":    msg.Sender,
		"message":   msg.Message,
		"timestamp": msg.Timestamp,
	}
	b.EmitToUserRoom(msg.UserID, EventNewMessage, payload)

	if msg.Sender == models.SenderUser {
		var name, username string
		if user, err := b.Users.GetUser(ctx, msg.UserID); err == nil {
			name = user.FullName
			username = user.Username
		} else {
			b.Log.Debug().Err(err).Int64("user_id", msg.UserID).Msg("could not resolve user for admin notification")
		}
		b.EmitToAdminRoom(EventAdminNotification, map[string]interface{}{
			"user_id":   msg.UserID,
			"user_name": name,
			"username":  username,
			"sender":    msg.Sender,
			"message":   msg.Message,
			"timestamp": msg.Timestamp,
		})
		return
	}

	b.EmitToAdminRoom(EventAdminMessageSent, payload)

}
