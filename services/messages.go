package services

import (
	"context"

	"github.com/Moshfiqmoon/joingroup/models"
	"github.com/rs/zerolog"
)

// MessagesService is the send operation: record a message through the
// dual store, then hand it to the broadcaster. The broadcast happens
// only after the primary write has committed; it runs concurrently with
// nothing the caller waits on.
type MessagesService struct {
	Store       *DualStore
	Broadcaster *Broadcaster
	Log         zerolog.Logger
}

// Send records a message from the given sender to the user's chat and
// relays it to live subscribers
func (s *MessagesService) Send(ctx context.Context, userID int64, sender, body string) (*models.Message, error) {
	msg, err := s.Store.RecordMessage(ctx, userID, sender, body)
	if err != nil {
		return nil, err
	}
	s.Broadcaster.RelayMessage(ctx, msg)
	return msg, nil
}

// SendToAll sends an admin message to every known user and returns how
// many sends succeeded. Per-user failures are logged and skipped;
// blasting everyone should not stop at the first broken row.
func (s *MessagesService) SendToAll(ctx context.Context, body string) (int, error) {
	users, err := s.Store.AllUsers(ctx)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, user := range users {
		if _, err := s.Send(ctx, user.UserID, models.SenderAdmin, body); err != nil {
			s.Log.Warn().Err(err).Int64("user_id", user.UserID).Msg("broadcast send failed for user")
			continue
		}
		sent++
	}
	return sent, nil
}
