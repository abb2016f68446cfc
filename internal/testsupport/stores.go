package testsupport

import (
	"context"
	"sync"
	"time"

	"github.com/bps3275/sinora/internal/ports"
	"github.com/google/uuid"
)

// MemoryLockoutStore mirrors the redis lockout hash semantics in process.
type MemoryLockoutStore struct {
	mu     sync.Mutex
	states map[string]ports.LockoutState
}

func NewMemoryLockoutStore() *MemoryLockoutStore {
	return &MemoryLockoutStore{states: make(map[string]ports.LockoutState)}
}

func (s *MemoryLockoutStore) Get(_ context.Context, key string) (ports.LockoutState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[key], nil
}

func (s *MemoryLockoutStore) RecordFailure(_ context.Context, key string, now time.Time, threshold int, lockoutWindow time.Duration) (ports.LockoutState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.states[key]
	state.FailedCount++
	if state.FailedCount >= threshold {
		until := now.Add(lockoutWindow).UTC()
		state.LockedUntil = &until
	}
	s.states[key] = state
	return state, nil
}

func (s *MemoryLockoutStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key)
	return nil
}

type MemoryRevocationStore struct {
	mu      sync.Mutex
	revoked map[uuid.UUID]time.Time
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{revoked: make(map[uuid.UUID]time.Time)}
}

func (s *MemoryRevocationStore) MarkRevoked(_ context.Context, sessionID uuid.UUID, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[sessionID] = expiresAt
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, sessionID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[sessionID]
	return ok, nil
}

// MemoryResetTokenStore ignores TTLs; tokens live until consumed.
type MemoryResetTokenStore struct {
	mu     sync.Mutex
	tokens map[string]int64
}

func NewMemoryResetTokenStore() *MemoryResetTokenStore {
	return &MemoryResetTokenStore{tokens: make(map[string]int64)}
}

func (s *MemoryResetTokenStore) Put(_ context.Context, tokenHash string, userID int64, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenHash] = userID
	return nil
}

func (s *MemoryResetTokenStore) Consume(_ context.Context, tokenHash string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.tokens[tokenHash]
	delete(s.tokens, tokenHash)
	return userID, ok, nil
}
