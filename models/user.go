package models

// User is a member admitted to the group. The platform assigns the ID;
// it is immutable for the life of the record. Users are created on first
// successful join and only the label is ever updated afterwards.
type User struct {
	UserID     int64  `gorm:"column:user_id;primaryKey" json:"user_id"`
	FullName   string `gorm:"column:full_name" json:"full_name"`
	Username   string `gorm:"column:username" json:"username"`
	JoinDate   string `gorm:"column:join_date" json:"join_date"`
	InviteLink string `gorm:"column:invite_link" json:"invite_link"`
	PhotoURL   string `gorm:"column:photo_url" json:"photo_url"`
	Label      string `gorm:"column:label" json:"label"`
}

// TableName keeps the table name in sync with the legacy schema
func (User) TableName() string {
	return "users"
}
