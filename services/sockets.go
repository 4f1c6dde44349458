package services

import (
	"context"
	"errors"

	"github.com/Moshfiqmoon/joingroup/models"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog"
)

// SocketsService owns the live-connection layer. It wires the socket.io
// lifecycle and inbound events, and implements RoomEmitter so the
// broadcaster can deliver into socket.io rooms. Room membership lives
// inside the socket.io server and lasts only as long as the connection.
type SocketsService struct {
	Server   *socketio.Server
	Messages *MessagesService
	Log      zerolog.Logger
}

// Setup registers the lifecycle and event handlers on the socket server
func (s *SocketsService) Setup() {

	s.Server.OnConnect("/", func(conn socketio.Conn) error {
		s.Log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("client connected")
		return nil
	})

	s.Server.OnDisconnect("/", func(conn socketio.Conn, reason string) {
		s.Log.Debug().Str("remote", conn.RemoteAddr().String()).Str("reason", reason).Msg("client disconnected")
		conn.LeaveAll()
	})

	// Register all of the event handlers
	s.Server.OnEvent("/", "join", s.OnJoin)
	s.Server.OnEvent("/", "chat.message", s.OnChatMessage)

}

// EmitToRoom broadcasts an event to every member of a room
func (s *SocketsService) EmitToRoom(room, event string, payload map[string]interface{}) {
	s.Server.BroadcastToRoom("/", room, event, payload)
}

//====================================================================================================
// join event handler
// Called when a viewer subscribes to a room: either a user opening their
// own chat, or the admin dashboard joining the admin room
//====================================================================================================

type JoinRoomMsg struct {
	Room string `json:"room"`
}

func (s *SocketsService) OnJoin(conn socketio.Conn, data JoinRoomMsg) error {

	if data.Room == "" {
		return errors.New("missing room")
	}

	// Join the room for the event
	conn.Join(data.Room)

	s.Log.Debug().Str("room", data.Room).Str("remote", conn.RemoteAddr().String()).Msg("joined room")

	return nil

}

//====================================================================================================
// chat.message event handler
// Called when a user sends a message from their chat view
//====================================================================================================

type ChatMsg struct {
	UserID  int64  `json:"user_id"`
	Message string `json:"message"`
}

func (s *SocketsService) OnChatMessage(conn socketio.Conn, data ChatMsg) error {

	if data.UserID == 0 || data.Message == "" {
		return errors.New("missing user_id or message")
	}

	// Record the message and relay it to the user room and admin room
	_, err := s.Messages.Send(
		context.Background(),
		data.UserID,
		models.SenderUser,
		data.Message,
	)
	if err != nil {
		s.Log.Error().Err(err).Int64("user_id", data.UserID).Msg("user message send failed")
		return err
	}

	return nil

}
