package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LockoutState is the current lockout envelope for a login key.
type LockoutState struct {
	FailedCount int
	LockedUntil *time.Time
}

// LockoutStore handles short-lived brute-force protection state.
type LockoutStore interface {
	Get(ctx context.Context, key string) (LockoutState, error)
	RecordFailure(ctx context.Context, key string, now time.Time, threshold int, lockoutWindow time.Duration) (LockoutState, error)
	Clear(ctx context.Context, key string) error
}

// SessionRevocationStore keeps revocation markers with token-aligned TTL.
type SessionRevocationStore interface {
	MarkRevoked(ctx context.Context, sessionID uuid.UUID, expiresAt time.Time) error
	IsRevoked(ctx context.Context, sessionID uuid.UUID) (bool, error)
}

// ResetTokenStore holds hashed one-time password reset tokens.
type ResetTokenStore interface {
	Put(ctx context.Context, tokenHash string, userID int64, ttl time.Duration) error
	// Consume returns the owning user and deletes the token; ok is false when
	// the token is unknown, expired or already used.
	Consume(ctx context.Context, tokenHash string) (userID int64, ok bool, err error)
}
