package services

import (
	"context"
	"time"

	"github.com/Moshfiqmoon/joingroup/models"
)

// DefaultPresenceWindow is the trailing window a user must have messaged
// within to count as online
const DefaultPresenceWindow = 5 * time.Minute

// PresenceService derives online status from recent message activity in
// the primary store. Nothing is cached; every call queries the store.
type PresenceService struct {
	Primary Store
	Now     func() time.Time
}

// NewPresenceService creates a presence tracker over the primary store
func NewPresenceService(primary Store) *PresenceService {
	return &PresenceService{
		Primary: primary,
		Now:     time.Now,
	}
}

// IsOnline reports whether the user messaged within the default window
func (s *PresenceService) IsOnline(ctx context.Context, userID int64) (bool, error) {
	return s.IsOnlineWithin(ctx, userID, DefaultPresenceWindow)
}

// IsOnlineWithin reports whether the user messaged within the given
// trailing window
func (s *PresenceService) IsOnlineWithin(ctx context.Context, userID int64, window time.Duration) (bool, error) {
	since := models.FormatTimestamp(s.Now().Add(-window))
	return s.Primary.HasMessageSince(ctx, userID, since)
}
