package services

import (
	"context"
	"errors"
	"time"

	"github.com/Moshfiqmoon/joingroup/models"
)

var (
	// ErrStoreUnavailable means a backing store could not be reached.
	// Non-fatal for the secondary store; fatal for primary writes.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrUserNotFound means the requested user record does not exist
	ErrUserNotFound = errors.New("user not found")
)

// Store is the uniform contract over a backing store. Both the primary
// relational store and the secondary document store implement it, and
// every method must be callable without the other store being reachable.
// Callers bound each call with a context timeout.
type Store interface {

	// SaveUser inserts a user record. Saving an already-known user is a
	// no-op: user records are immutable after creation except for the
	// label, which has its own operation.
	SaveUser(ctx context.Context, user *models.User) error

	// GetUser returns the user with the given ID, or ErrUserNotFound
	GetUser(ctx context.Context, userID int64) (*models.User, error)

	// ListUsers returns users ordered by join date, newest first. A
	// negative limit means no limit.
	ListUsers(ctx context.Context, offset, limit int) ([]*models.User, error)

	// SetLabel updates the admin-assigned label on a user
	SetLabel(ctx context.Context, userID int64, label string) error

	// SaveMessage persists a message and returns its identifier. The
	// primary store assigns identifiers; the secondary store records
	// whatever identifier the message already carries.
	SaveMessage(ctx context.Context, msg *models.Message) (uint64, error)

	// MessagesForUser returns up to limit messages for a user in the
	// store's canonical order
	MessagesForUser(ctx context.Context, userID int64, limit int) ([]*models.Message, error)

	// AllMessages returns every stored message, oldest first
	AllMessages(ctx context.Context) ([]*models.Message, error)

	// HasMessageSince reports whether the user has at least one message
	// with a timestamp at or after since
	HasMessageSince(ctx context.Context, userID int64, since string) (bool, error)

	CountUsers(ctx context.Context) (int64, error)
	CountMessages(ctx context.Context) (int64, error)

	// CountActiveUsers counts distinct users with a message inside the
	// trailing window
	CountActiveUsers(ctx context.Context, window time.Duration) (int64, error)

	// CountJoinsSince counts users whose join date is at or after the
	// given date string
	CountJoinsSince(ctx context.Context, date string) (int64, error)

	// Ping checks reachability of the backing store
	Ping(ctx context.Context) error
}

// StoreHealth reports per-store reachability for a single evaluation.
// It is computed on demand rather than held in process-wide state, so a
// store coming back mid-flight is picked up by the next check.
type StoreHealth struct {
	Primary   bool `json:"primary"`
	Secondary bool `json:"secondary"`
}
