package user

import "time"

// Profile mirrors the profiles table. The ID is the auth-provider UUID.
// Older rows stored the signup e-mail in Username, so e-mail lookups match
// both columns.
type Profile struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
	Username  string
	FullName  string
	Email     string
	AvatarURL string
	Bio       string
	IsAdmin   bool
}

func (Profile) TableName() string {
	return "profiles"
}
