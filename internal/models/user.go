package models

import "time"

// User represents a blog administrator.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // No json for security
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Author returns the public projection of the user.
func (u *User) Author() *Author {
	if u == nil {
		return nil
	}
	return &Author{ID: u.ID, Username: u.Username}
}
