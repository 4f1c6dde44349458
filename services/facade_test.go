package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Moshfiqmoon/joingroup/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory Store with injectable failures, shared by
// the facade and workflow tests
type fakeStore struct {
	mu       sync.Mutex
	err      error
	users    map[int64]*models.User
	messages []*models.Message
	nextID   uint64

	// Fixed count overrides; nil derives the count from the data
	userCount    *int64
	messageCount *int64
	activeCount  *int64
	joinsCount   *int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[int64]*models.User{}}
}

func int64p(v int64) *int64 { return &v }

func (s *fakeStore) SaveUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.users[user.UserID]; !ok {
		copied := *user
		s.users[user.UserID] = &copied
	}
	return nil
}

func (s *fakeStore) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	user, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *fakeStore) ListUsers(ctx context.Context, offset, limit int) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	users := make([]*models.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	return users, nil
}

func (s *fakeStore) SetLabel(ctx context.Context, userID int64, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if user, ok := s.users[userID]; ok {
		user.Label = label
	}
	return nil
}

func (s *fakeStore) SaveMessage(ctx context.Context, msg *models.Message) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	if msg.ID == 0 {
		s.nextID++
		msg.ID = s.nextID
	}
	copied := *msg
	s.messages = append(s.messages, &copied)
	return msg.ID, nil
}

func (s *fakeStore) MessagesForUser(ctx context.Context, userID int64, limit int) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var msgs []*models.Message
	for _, msg := range s.messages {
		if msg.UserID == userID {
			msgs = append(msgs, msg)
		}
	}
	return msgs, nil
}

func (s *fakeStore) AllMessages(ctx context.Context) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]*models.Message{}, s.messages...), nil
}

func (s *fakeStore) HasMessageSince(ctx context.Context, userID int64, since string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	for _, msg := range s.messages {
		if msg.UserID == userID && msg.Timestamp >= since {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) CountUsers(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	if s.userCount != nil {
		return *s.userCount, nil
	}
	return int64(len(s.users)), nil
}

func (s *fakeStore) CountMessages(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	if s.messageCount != nil {
		return *s.messageCount, nil
	}
	return int64(len(s.messages)), nil
}

func (s *fakeStore) CountActiveUsers(ctx context.Context, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	if s.activeCount != nil {
		return *s.activeCount, nil
	}
	return 0, nil
}

func (s *fakeStore) CountJoinsSince(ctx context.Context, date string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	if s.joinsCount != nil {
		return *s.joinsCount, nil
	}
	return 0, nil
}

func (s *fakeStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *fakeStore) messageCountNow() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func newTestDualStore(primary, secondary Store) *DualStore {
	return NewDualStore(primary, secondary, zerolog.Nop())
}

func TestRecordMessageWritesBothStores(t *testing.T) {
	primary := newFakeStore()
	secondary := newFakeStore()
	store := newTestDualStore(primary, secondary)

	msg, err := store.RecordMessage(context.Background(), 7, models.SenderAdmin, "hello")
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)
	assert.Equal(t, 1, primary.messageCountNow())
	assert.Equal(t, 1, secondary.messageCountNow())
}

func TestRecordMessageSecondaryFailureStillSucceeds(t *testing.T) {
	primary := newFakeStore()
	secondary := newFakeStore()
	secondary.err = ErrStoreUnavailable
	store := newTestDualStore(primary, secondary)

	msg, err := store.RecordMessage(context.Background(), 7, models.SenderUser, "hi")
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)
	assert.Equal(t, 1, primary.messageCountNow())
	assert.Equal(t, 0, secondary.messageCountNow())
}

func TestRecordMessagePrimaryFailureAborts(t *testing.T) {
	primary := newFakeStore()
	primary.err = ErrStoreUnavailable
	secondary := newFakeStore()
	store := newTestDualStore(primary, secondary)

	_, err := store.RecordMessage(context.Background(), 7, models.SenderUser, "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	// The secondary write must never run before the primary succeeds
	assert.Equal(t, 0, secondary.messageCountNow())
}

func TestCountUsersPrefersNonZeroSecondary(t *testing.T) {
	primary := newFakeStore()
	primary.userCount = int64p(5)
	secondary := newFakeStore()

	secondary.userCount = int64p(3)
	store := newTestDualStore(primary, secondary)
	assert.Equal(t, int64(3), store.CountUsers(context.Background()))

	// A zero from the secondary is treated as unavailable
	secondary.userCount = int64p(0)
	assert.Equal(t, int64(5), store.CountUsers(context.Background()))
}

func TestCountUsersFallsBackOnSecondaryError(t *testing.T) {
	primary := newFakeStore()
	primary.userCount = int64p(9)
	secondary := newFakeStore()
	secondary.err = ErrStoreUnavailable
	store := newTestDualStore(primary, secondary)

	assert.Equal(t, int64(9), store.CountUsers(context.Background()))
}

func TestMessagesForUserPrefersNonEmptySecondary(t *testing.T) {
	primary := newFakeStore()
	secondary := newFakeStore()
	store := newTestDualStore(primary, secondary)

	_, err := primary.SaveMessage(context.Background(), &models.Message{UserID: 7, Sender: models.SenderUser, Message: "primary only", Timestamp: "2026-01-01 10:00:00"})
	require.NoError(t, err)

	// Secondary is empty, so the primary's history is returned
	msgs, err := store.MessagesForUser(context.Background(), 7, 100)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "primary only", msgs[0].Message)

	// Once the secondary has content, it wins even if it diverges
	_, err = secondary.SaveMessage(context.Background(), &models.Message{UserID: 7, Sender: models.SenderUser, Message: "replica copy", Timestamp: "2026-01-01 10:00:01"})
	require.NoError(t, err)
	msgs, err = store.MessagesForUser(context.Background(), 7, 100)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "replica copy", msgs[0].Message)
}

func TestSetLabelIdempotentAndSecondaryFailureSwallowed(t *testing.T) {
	primary := newFakeStore()
	secondary := newFakeStore()
	secondary.err = ErrStoreUnavailable
	store := newTestDualStore(primary, secondary)

	require.NoError(t, primary.SaveUser(context.Background(), &models.User{UserID: 7, FullName: "Ann"}))

	require.NoError(t, store.SetLabel(context.Background(), 7, "vip"))
	require.NoError(t, store.SetLabel(context.Background(), 7, "vip"))

	user, err := primary.GetUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "vip", user.Label)
}

func TestHealthEvaluatedPerCall(t *testing.T) {
	primary := newFakeStore()
	secondary := newFakeStore()
	store := newTestDualStore(primary, secondary)

	health := store.Health(context.Background())
	assert.True(t, health.Primary)
	assert.True(t, health.Secondary)

	secondary.err = ErrStoreUnavailable
	health = store.Health(context.Background())
	assert.True(t, health.Primary)
	assert.False(t, health.Secondary)

	// Recovery is picked up by the next evaluation
	secondary.err = nil
	health = store.Health(context.Background())
	assert.True(t, health.Secondary)
}

func TestMigrateCopiesPrimaryIntoSecondary(t *testing.T) {
	primary := newFakeStore()
	secondary := newFakeStore()
	store := newTestDualStore(primary, secondary)

	require.NoError(t, primary.SaveUser(context.Background(), &models.User{UserID: 1, FullName: "Ann", JoinDate: "2026-01-01 10:00:00"}))
	require.NoError(t, primary.SaveUser(context.Background(), &models.User{UserID: 2, FullName: "Ben", JoinDate: "2026-01-02 10:00:00"}))
	for i := 0; i < 3; i++ {
		_, err := primary.SaveMessage(context.Background(), &models.Message{UserID: 1, Sender: models.SenderUser, Message: "m", Timestamp: "2026-01-01 10:00:00"})
		require.NoError(t, err)
	}

	users, messages, err := store.Migrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, users)
	assert.Equal(t, 3, messages)
	assert.Equal(t, 3, secondary.messageCountNow())
}

func TestGetUserFallsBackToSecondary(t *testing.T) {
	primary := newFakeStore()
	primary.err = ErrStoreUnavailable
	secondary := newFakeStore()
	require.NoError(t, secondary.SaveUser(context.Background(), &models.User{UserID: 7, FullName: "Ann"}))
	store := newTestDualStore(primary, secondary)

	user, err := store.GetUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Ann", user.FullName)
}

func TestGetUserNotFoundAnywhere(t *testing.T) {
	store := newTestDualStore(newFakeStore(), newFakeStore())
	_, err := store.GetUser(context.Background(), 404)
	assert.True(t, errors.Is(err, ErrUserNotFound))
}
