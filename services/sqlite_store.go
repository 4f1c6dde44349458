package services

import (
	"context"
	"errors"
	"time"

	"github.com/Moshfiqmoon/joingroup/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLiteStore is the primary store. It is the assignment authority for
// message identifiers and the only store consulted for presence.
type SQLiteStore struct {
	DB *gorm.DB
}

var _ Store = (*SQLiteStore)(nil)

// SaveUser inserts the user if it is not already known. Re-running a
// join for an existing user never clobbers the record.
func (s *SQLiteStore) SaveUser(ctx context.Context, user *models.User) error {
	return s.DB.
		WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(user).
		Error
}

// GetUser gets the user with the provided ID
func (s *SQLiteStore) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	err := s.DB.
		WithContext(ctx).
		Where("user_id = ?", userID).
		First(&user).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers returns users ordered by join date, newest first
func (s *SQLiteStore) ListUsers(ctx context.Context, offset, limit int) ([]*models.User, error) {
	var users []*models.User
	err := s.DB.
		WithContext(ctx).
		Order("join_date DESC").
		Offset(offset).
		Limit(limit).
		Find(&users).
		Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// SetLabel updates the label column on a user. Setting the same label
// again is a no-op at the SQL level, so the operation is idempotent.
func (s *SQLiteStore) SetLabel(ctx context.Context, userID int64, label string) error {
	return s.DB.
		WithContext(ctx).
		Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("label", label).
		Error
}

// SaveMessage persists a message and returns the assigned identifier.
// The autoincrement column guarantees identifiers are strictly
// increasing in commit order.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *models.Message) (uint64, error) {
	if msg.Timestamp == "" {
		msg.Timestamp = models.FormatTimestamp(time.Now())
	}
	if err := s.DB.WithContext(ctx).Create(msg).Error; err != nil {
		return 0, err
	}
	return msg.ID, nil
}

// MessagesForUser returns the user's messages ordered by identifier
func (s *SQLiteStore) MessagesForUser(ctx context.Context, userID int64, limit int) ([]*models.Message, error) {
	var msgs []*models.Message
	err := s.DB.
		WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Limit(limit).
		Find(&msgs).
		Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// AllMessages returns every message, oldest first
func (s *SQLiteStore) AllMessages(ctx context.Context) ([]*models.Message, error) {
	var msgs []*models.Message
	err := s.DB.
		WithContext(ctx).
		Order("id ASC").
		Find(&msgs).
		Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// HasMessageSince reports whether the user has sent anything at or after
// the given timestamp
func (s *SQLiteStore) HasMessageSince(ctx context.Context, userID int64, since string) (bool, error) {
	var count int64
	err := s.DB.
		WithContext(ctx).
		Model(&models.Message{}).
		Where("user_id = ?", userID).
		Where("timestamp >= ?", since).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountUsers counts all user records
func (s *SQLiteStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.DB.
		WithContext(ctx).
		Model(&models.User{}).
		Count(&count).
		Error
	return count, err
}

// CountMessages counts all message records
func (s *SQLiteStore) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	err := s.DB.
		WithContext(ctx).
		Model(&models.Message{}).
		Count(&count).
		Error
	return count, err
}

// CountActiveUsers counts distinct users with a message inside the
// trailing window
func (s *SQLiteStore) CountActiveUsers(ctx context.Context, window time.Duration) (int64, error) {
	since := models.FormatTimestamp(time.Now().Add(-window))
	var count int64
	err := s.DB.
		WithContext(ctx).
		Model(&models.Message{}).
		Where("timestamp >= ?", since).
		Distinct("user_id").
		Count(&count).
		Error
	return count, err
}

// CountJoinsSince counts users whose join date is at or after the date
func (s *SQLiteStore) CountJoinsSince(ctx context.Context, date string) (int64, error) {
	var count int64
	err := s.DB.
		WithContext(ctx).
		Model(&models.User{}).
		Where("join_date >= ?", date).
		Count(&count).
		Error
	return count, err
}

// Ping checks the underlying database connection
func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}
