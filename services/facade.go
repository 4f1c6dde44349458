package services

import (
	"context"
	"time"

	"github.com/Moshfiqmoon/joingroup/models"
	"github.com/rs/zerolog"
)

// Default per-call deadlines on store access. The secondary store gets a
// shorter leash because nothing user-visible waits on it.
const (
	DefaultPrimaryTimeout   = 5 * time.Second
	DefaultSecondaryTimeout = 3 * time.Second
)

// DualStore presents one logical store over the primary relational store
// and the secondary document replica. Writes go primary-first: primary
// failure fails the call, secondary failure is logged and swallowed.
// Aggregate reads prefer the secondary when it returns a non-zero value
// and fall back to the primary otherwise. A zero from the secondary is
// treated as "unavailable", not "truly empty": an empty-but-healthy
// replica is indistinguishable from a missing one.
type DualStore struct {
	Primary          Store
	Secondary        Store
	Log              zerolog.Logger
	PrimaryTimeout   time.Duration
	SecondaryTimeout time.Duration
	Now              func() time.Time
}

// NewDualStore creates a facade over the two backing stores
func NewDualStore(primary, secondary Store, log zerolog.Logger) *DualStore {
	return &DualStore{
		Primary:          primary,
		Secondary:        secondary,
		Log:              log,
		PrimaryTimeout:   DefaultPrimaryTimeout,
		SecondaryTimeout: DefaultSecondaryTimeout,
		Now:              time.Now,
	}
}

func (s *DualStore) primaryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.PrimaryTimeout)
}

func (s *DualStore) secondaryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.SecondaryTimeout)
}

// RecordMessage durably records a message for a user. The primary write
// is the success criterion; the secondary write is best-effort and runs
// after the primary has committed, never before.
func (s *DualStore) RecordMessage(ctx context.Context, userID int64, sender, body string) (*models.Message, error) {
	msg := &models.Message{
		UserID:    userID,
		Sender:    sender,
		Message:   body,
		Timestamp: models.FormatTimestamp(s.Now()),
	}

	pctx, cancel := s.primaryCtx(ctx)
	defer cancel()
	id, err := s.Primary.SaveMessage(pctx, msg)
	if err != nil {
		return nil, err
	}
	msg.ID = id

	sctx, cancel := s.secondaryCtx(ctx)
	defer cancel()
	if _, err := s.Secondary.SaveMessage(sctx, msg); err != nil {
		s.Log.Warn().Err(err).Int64("user_id", userID).Msg("secondary message write failed")
	}

	return msg, nil
}

// SaveUser records a user in both stores, primary-first
func (s *DualStore) SaveUser(ctx context.Context, user *models.User) error {
	pctx, cancel := s.primaryCtx(ctx)
	defer cancel()
	if err := s.Primary.SaveUser(pctx, user); err != nil {
		return err
	}

	sctx, cancel := s.secondaryCtx(ctx)
	defer cancel()
	if err := s.Secondary.SaveUser(sctx, user); err != nil {
		s.Log.Warn().Err(err).Int64("user_id", user.UserID).Msg("secondary user write failed")
	}
	return nil
}

// SetLabel updates the user's label in both stores, primary-first
func (s *DualStore) SetLabel(ctx context.Context, userID int64, label string) error {
	pctx, cancel := s.primaryCtx(ctx)
	defer cancel()
	if err := s.Primary.SetLabel(pctx, userID, label); err != nil {
		return err
	}

	sctx, cancel := s.secondaryCtx(ctx)
	defer cancel()
	if err := s.Secondary.SetLabel(sctx, userID, label); err != nil {
		s.Log.Warn().Err(err).Int64("user_id", userID).Msg("secondary label write failed")
	}
	return nil
}

// GetUser reads a user record, primary first since the primary store is
// authoritative for identity, with a secondary fallback
func (s *DualStore) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	pctx, cancel := s.primaryCtx(ctx)
	defer cancel()
	user, err := s.Primary.GetUser(pctx, userID)
	if err == nil {
		return user, nil
	}

	sctx, cancel := s.secondaryCtx(ctx)
	defer cancel()
	if user, serr := s.Secondary.GetUser(sctx, userID); serr == nil {
		return user, nil
	}
	return nil, err
}

// MessagesForUser returns a user's chat history. The secondary's result
// wins when it is non-empty, else the primary's result is returned. The
// two may disagree in ordering or content when secondary writes lagged
// or failed; that divergence is the accepted consistency model.
func (s *DualStore) MessagesForUser(ctx context.Context, userID int64, limit int) ([]*models.Message, error) {
	sctx, cancel := s.secondaryCtx(ctx)
	msgs, err := s.Secondary.MessagesForUser(sctx, userID, limit)
	cancel()
	if err == nil && len(msgs) > 0 {
		return msgs, nil
	}
	if err != nil {
		s.Log.Debug().Err(err).Int64("user_id", userID).Msg("secondary history read failed, using primary")
	}

	pctx, cancel := s.primaryCtx(ctx)
	defer cancel()
	return s.Primary.MessagesForUser(pctx, userID, limit)
}

// count runs the same aggregate against both stores and applies the
// non-zero-wins preference to the secondary's answer
func (s *DualStore) count(ctx context.Context, name string, f func(context.Context, Store) (int64, error)) int64 {
	sctx, cancel := s.secondaryCtx(ctx)
	val, err := f(sctx, s.Secondary)
	cancel()
	if err == nil && val > 0 {
		return val
	}
	if err != nil {
		s.Log.Debug().Err(err).Str("count", name).Msg("secondary count failed, using primary")
	}

	pctx, cancel := s.primaryCtx(ctx)
	defer cancel()
	val, err = f(pctx, s.Primary)
	if err != nil {
		s.Log.Warn().Err(err).Str("count", name).Msg("primary count failed")
		return 0
	}
	return val
}

// CountUsers returns the total user count
func (s *DualStore) CountUsers(ctx context.Context) int64 {
	return s.count(ctx, "users", func(ctx context.Context, st Store) (int64, error) {
		return st.CountUsers(ctx)
	})
}

// CountMessages returns the total message count
func (s *DualStore) CountMessages(ctx context.Context) int64 {
	return s.count(ctx, "messages", func(ctx context.Context, st Store) (int64, error) {
		return st.CountMessages(ctx)
	})
}

// CountActiveUsers returns how many distinct users messaged inside the
// trailing window
func (s *DualStore) CountActiveUsers(ctx context.Context, window time.Duration) int64 {
	return s.count(ctx, "active_users", func(ctx context.Context, st Store) (int64, error) {
		return st.CountActiveUsers(ctx, window)
	})
}

// CountNewJoinsToday returns how many users joined since local midnight
func (s *DualStore) CountNewJoinsToday(ctx context.Context) int64 {
	today := s.Now().Format("2006-01-02")
	return s.count(ctx, "new_joins", func(ctx context.Context, st Store) (int64, error) {
		return st.CountJoinsSince(ctx, today)
	})
}

// DashboardUsers returns one page of users, newest joins first, plus the
// total count for the pager. The dashboard reads the primary store and
// only degrades to the secondary when the primary itself is down.
func (s *DualStore) DashboardUsers(ctx context.Context, page, pageSize int) ([]*models.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	pctx, cancel := s.primaryCtx(ctx)
	users, err := s.Primary.ListUsers(pctx, offset, pageSize)
	if err == nil {
		total, terr := s.Primary.CountUsers(pctx)
		cancel()
		if terr != nil {
			total = int64(len(users))
		}
		return users, total, nil
	}
	cancel()
	s.Log.Warn().Err(err).Msg("primary user listing failed, trying secondary")

	sctx, cancel := s.secondaryCtx(ctx)
	defer cancel()
	users, serr := s.Secondary.ListUsers(sctx, offset, pageSize)
	if serr != nil {
		return nil, 0, err
	}
	total, terr := s.Secondary.CountUsers(sctx)
	if terr != nil {
		total = int64(len(users))
	}
	return users, total, nil
}

// AllUsers returns every user record from the primary store
func (s *DualStore) AllUsers(ctx context.Context) ([]*models.User, error) {
	pctx, cancel := s.primaryCtx(ctx)
	defer cancel()
	return s.Primary.ListUsers(pctx, 0, -1)
}

// Health pings both stores and reports the result as a value. Callers
// that care about freshness simply call it again.
func (s *DualStore) Health(ctx context.Context) StoreHealth {
	var health StoreHealth

	pctx, cancel := s.primaryCtx(ctx)
	health.Primary = s.Primary.Ping(pctx) == nil
	cancel()

	sctx, cancel := s.secondaryCtx(ctx)
	health.Secondary = s.Secondary.Ping(sctx) == nil
	cancel()

	return health
}

// Migrate copies every primary-store user and message into the secondary
// store. This is the only reconciliation path for divergence left behind
// by failed secondary writes, and it runs solely on operator demand.
func (s *DualStore) Migrate(ctx context.Context) (users int, messages int, err error) {
	pctx, cancel := s.primaryCtx(ctx)
	allUsers, err := s.Primary.ListUsers(pctx, 0, -1)
	cancel()
	if err != nil {
		return 0, 0, err
	}
	for _, user := range allUsers {
		sctx, cancel := s.secondaryCtx(ctx)
		serr := s.Secondary.SaveUser(sctx, user)
		cancel()
		if serr != nil {
			s.Log.Warn().Err(serr).Int64("user_id", user.UserID).Msg("migrate: user copy failed")
			continue
		}
		users++
	}

	pctx, cancel = s.primaryCtx(ctx)
	allMsgs, err := s.Primary.AllMessages(pctx)
	cancel()
	if err != nil {
		return users, 0, err
	}
	for _, msg := range allMsgs {
		sctx, cancel := s.secondaryCtx(ctx)
		_, serr := s.Secondary.SaveMessage(sctx, msg)
		cancel()
		if serr != nil {
			s.Log.Warn().Err(serr).Uint64("message_id", msg.ID).Msg("migrate: message copy failed")
			continue
		}
		messages++
	}

	s.Log.Info().Int("users", users).Int("messages", messages).Msg("migration completed")
	return users, messages, nil
}
