package models

import "time"

// Teacher is an authenticated account that owns word sets
type Teacher struct {
	ID            int64
	Email         string
	PasswordHash  string
	FullName      string
	OAuthProvider string
	OAuthSubject  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TeacherOption is the public projection students choose from
type TeacherOption struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

// Session represents an authenticated teacher session
type Session struct {
	ID        string
	TeacherID int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// PasswordResetToken represents a token for password reset
type PasswordResetToken struct {
	Token     string
	TeacherID int64
	ExpiresAt time.Time
	CreatedAt time.Time
	Used      bool
}

// IsExpired checks if the reset token has expired
func (t *PasswordResetToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
