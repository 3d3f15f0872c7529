package models

import "time"

// User is the account record. PasswordHash and Avatar never leave the
// process through JSON; the active session list lives in its own table.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Age          int        `json:"age"`
	PasswordHash string     `json:"-"`
	Avatar       []byte     `json:"-"`
	HasAvatar    bool       `json:"hasAvatar"`
	AvatarURL    string     `json:"avatarUrl,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

type SessionToken struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
}
