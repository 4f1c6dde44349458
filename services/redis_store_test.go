package services

import (
	"testing"

	"github.com/Moshfiqmoon/joingroup/models"
	"github.com/stretchr/testify/assert"
)

func TestOverlayLabelsWins(t *testing.T) {
	users := []*models.User{
		{UserID: 1, FullName: "Ann", Label: "stale"},
		{UserID: 2, FullName: "Ben"},
	}

	// The label hash is authoritative over whatever the stored document
	// carried at creation time
	overlayLabels(users, map[string]string{"1": "vip"})

	assert.Equal(t, "vip", users[0].Label)
	assert.Equal(t, "", users[1].Label)
}

func TestOverlayLabelsAbsentKeepsDocument(t *testing.T) {
	users := []*models.User{{UserID: 7, FullName: "Ann", Label: "imported"}}
	overlayLabels(users, map[string]string{})
	assert.Equal(t, "imported", users[0].Label)
}

func TestUserMessagesKey(t *testing.T) {
	assert.Equal(t, "messages:user:42", redisUserMessagesKey(42))
}

func TestParseTimestampGarbage(t *testing.T) {
	assert.True(t, parseTimestamp("not a timestamp").IsZero())
	assert.False(t, parseTimestamp("2026-01-01 10:00:00").IsZero())
}
