package models

import "time"

// Sender roles recorded on every message
const (
	SenderUser  = "user"
	SenderAdmin = "admin"
)

// TimestampFormat is the second-resolution text layout used for message
// timestamps and join dates. Lexicographic order on these strings equals
// chronological order, which the window queries rely on.
const TimestampFormat = "2006-01-02 15:04:05"

// FormatTimestamp renders a time in the stored timestamp layout
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampFormat)
}

// Message is a single chat message between the admin and a user. The
// primary store assigns the ID; for a given user, IDs order messages
// chronologically as observed by the primary store.
type Message struct {
	ID        uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID    int64  `gorm:"column:user_id;index" json:"user_id"`
	Sender    string `gorm:"column:sender" json:"sender"`
	Message   string `gorm:"column:message" json:"message"`
	Timestamp string `gorm:"column:timestamp" json:"timestamp"`
}

// TableName keeps the table name in sync with the legacy schema
func (Message) TableName() string {
	return "messages"
}
