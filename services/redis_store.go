package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/Moshfiqmoon/joingroup/models"
	"github.com/redis/go-redis/v9"
)

// Redis key layout for the secondary store. Users live in one hash keyed
// by stringified user ID; messages live in sorted sets scored by their
// timestamp, one global set plus one per user.
// Labels live in their own hash rather than inside the user document,
// so a label update is a single atomic write and never races a
// concurrent update over the document body.
const (
	redisUsersKey      = "users"
	redisUserLabelsKey = "users:labels"
	redisMessagesKey   = "messages"
)

func redisUserMessagesKey(userID int64) string {
	return "messages:user:" + strconv.FormatInt(userID, 10)
}

// RedisStore is the secondary store: a best-effort remote replica with
// eventual visibility and timestamp ordering only. No operation here is
// on the caller-visible success path, so errors map to
// ErrStoreUnavailable and the facade decides what to do with them.
type RedisStore struct {
	Client *redis.Client
}

var _ Store = (*RedisStore)(nil)

// unavailable wraps a transport-level error in the store taxonomy
func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// SaveUser stores the user document if it is not already present. A
// carried label is written to the label hash so migrated records keep
// theirs even when the document itself already exists.
func (s *RedisStore) SaveUser(ctx context.Context, user *models.User) error {
	doc, err := json.Marshal(user)
	if err != nil {
		return err
	}
	field := strconv.FormatInt(user.UserID, 10)
	pipe := s.Client.TxPipeline()
	pipe.HSetNX(ctx, redisUsersKey, field, doc)
	if user.Label != "" {
		pipe.HSet(ctx, redisUserLabelsKey, field, user.Label)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}

// GetUser gets the user document with the provided ID
func (s *RedisStore) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	field := strconv.FormatInt(userID, 10)
	doc, err := s.Client.HGet(ctx, redisUsersKey, field).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUserNotFound
		}
		return nil, unavailable(err)
	}
	var user models.User
	if err := json.Unmarshal([]byte(doc), &user); err != nil {
		return nil, err
	}
	if label, err := s.Client.HGet(ctx, redisUserLabelsKey, field).Result(); err == nil {
		user.Label = label
	}
	return &user, nil
}

// ListUsers returns users ordered by join date, newest first. The hash
// has no ordering of its own, so the full set is read and sorted; fine
// at the tens-to-hundreds scale this system runs at.
func (s *RedisStore) ListUsers(ctx context.Context, offset, limit int) ([]*models.User, error) {
	docs, err := s.Client.HGetAll(ctx, redisUsersKey).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	labels, err := s.Client.HGetAll(ctx, redisUserLabelsKey).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	users := make([]*models.User, 0, len(docs))
	for _, doc := range docs {
		var user models.User
		if err := json.Unmarshal([]byte(doc), &user); err != nil {
			continue
		}
		users = append(users, &user)
	}
	overlayLabels(users, labels)
	sort.Slice(users, func(i, j int) bool {
		return users[i].JoinDate > users[j].JoinDate
	})
	if offset >= len(users) {
		return nil, nil
	}
	users = users[offset:]
	if limit >= 0 && limit < len(users) {
		users = users[:limit]
	}
	return users, nil
}

// SetLabel writes the label as a single field update. No document
// read-modify-write happens, so concurrent label sets cannot lose
// each other; the last write wins.
func (s *RedisStore) SetLabel(ctx context.Context, userID int64, label string) error {
	field := strconv.FormatInt(userID, 10)
	exists, err := s.Client.HExists(ctx, redisUsersKey, field).Result()
	if err != nil {
		return unavailable(err)
	}
	if !exists {
		return ErrUserNotFound
	}
	if err := s.Client.HSet(ctx, redisUserLabelsKey, field, label).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// SaveMessage appends the message to the global and per-user collections.
// The score is the message timestamp, so reads come back in timestamp
// order; ties between writers may break differently than the primary
// store's identifier order.
func (s *RedisStore) SaveMessage(ctx context.Context, msg *models.Message) (uint64, error) {
	if msg.Timestamp == "" {
		msg.Timestamp = models.FormatTimestamp(time.Now())
	}
	doc, err := json.Marshal(msg)
	if err != nil {
		return 0, err
	}
	score := float64(parseTimestamp(msg.Timestamp).Unix())
	member := redis.Z{Score: score, Member: string(doc)}
	pipe := s.Client.TxPipeline()
	pipe.ZAdd(ctx, redisMessagesKey, member)
	pipe.ZAdd(ctx, redisUserMessagesKey(msg.UserID), member)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, unavailable(err)
	}
	return msg.ID, nil
}

// MessagesForUser returns the user's messages in timestamp order
func (s *RedisStore) MessagesForUser(ctx context.Context, userID int64, limit int) ([]*models.Message, error) {
	stop := int64(-1)
	if limit >= 0 {
		stop = int64(limit) - 1
	}
	docs, err := s.Client.ZRange(ctx, redisUserMessagesKey(userID), 0, stop).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	return unmarshalMessages(docs), nil
}

// AllMessages returns every message in timestamp order
func (s *RedisStore) AllMessages(ctx context.Context) ([]*models.Message, error) {
	docs, err := s.Client.ZRange(ctx, redisMessagesKey, 0, -1).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	return unmarshalMessages(docs), nil
}

// HasMessageSince reports whether the user has a message scored at or
// after the given timestamp
func (s *RedisStore) HasMessageSince(ctx context.Context, userID int64, since string) (bool, error) {
	min := strconv.FormatInt(parseTimestamp(since).Unix(), 10)
	count, err := s.Client.ZCount(ctx, redisUserMessagesKey(userID), min, "+inf").Result()
	if err != nil {
		return false, unavailable(err)
	}
	return count > 0, nil
}

// CountUsers counts the user documents
func (s *RedisStore) CountUsers(ctx context.Context) (int64, error) {
	count, err := s.Client.HLen(ctx, redisUsersKey).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	return count, nil
}

// CountMessages counts the message documents
func (s *RedisStore) CountMessages(ctx context.Context) (int64, error) {
	count, err := s.Client.ZCard(ctx, redisMessagesKey).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	return count, nil
}

// CountActiveUsers counts distinct users with a message inside the
// trailing window
func (s *RedisStore) CountActiveUsers(ctx context.Context, window time.Duration) (int64, error) {
	min := strconv.FormatInt(time.Now().Add(-window).Unix(), 10)
	docs, err := s.Client.ZRangeByScore(ctx, redisMessagesKey, &redis.ZRangeBy{
		Min: min,
		Max: "+inf",
	}).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	seen := map[int64]bool{}
	for _, msg := range unmarshalMessages(docs) {
		seen[msg.UserID] = true
	}
	return int64(len(seen)), nil
}

// CountJoinsSince counts users whose join date is at or after the date
func (s *RedisStore) CountJoinsSince(ctx context.Context, date string) (int64, error) {
	users, err := s.ListUsers(ctx, 0, -1)
	if err != nil {
		return 0, err
	}
	var count int64
	for _, user := range users {
		if user.JoinDate >= date {
			count++
		}
	}
	return count, nil
}

// Ping checks reachability of the Redis server
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.Client.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// overlayLabels applies the label hash on top of the stored documents.
// The label hash is authoritative; a document-carried label only stands
// when no separate label was ever written.
func overlayLabels(users []*models.User, labels map[string]string) {
	for _, user := range users {
		if label, ok := labels[strconv.FormatInt(user.UserID, 10)]; ok {
			user.Label = label
		}
	}
}

func unmarshalMessages(docs []string) []*models.Message {
	msgs := make([]*models.Message, 0, len(docs))
	for _, doc := range docs {
		var msg models.Message
		if err := json.Unmarshal([]byte(doc), &msg); err != nil {
			continue
		}
		msgs = append(msgs, &msg)
	}
	return msgs
}

// parseTimestamp reads a stored timestamp string; zero time on garbage
func parseTimestamp(ts string) time.Time {
	t, err := time.ParseInLocation(models.TimestampFormat, ts, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}
