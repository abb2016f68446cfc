package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an office staff account, identified by NIP.
type User struct {
	ID           int64
	NIP          string
	Name         string
	PasswordHash string
	RoleID       int
	RoleName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u User) IsAdmin() bool { return u.RoleName == RoleAdmin }

// Session is a login session backing an issued token.
type Session struct {
	SessionID uuid.UUID
	UserID    int64
	IPAddress string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}
