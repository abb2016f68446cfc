package application

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bps3275/sinora/internal/domain"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

func logger() *slog.Logger {
	return slog.Default().With(
		"service", "sinora",
		"module", "application",
		"layer", "application",
	)
}

// hashToken stores one-way token fingerprints instead of raw secrets.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a cryptographically random hex token.
func randomHex(bytesLen int) string {
	raw := make([]byte, bytesLen)
	_, _ = rand.Read(raw)
	return hex.EncodeToString(raw)
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// validateOptionalPeriod accepts 0 as "no filter" for either part.
func validateOptionalPeriod(month, year int) error {
	if month < 0 || month > 12 {
		return fmt.Errorf("%w: month must be between 1 and 12", domain.ErrInvalidInput)
	}
	if year < 0 || (year > 0 && year < 1900) || year > 9999 {
		return fmt.Errorf("%w: invalid year", domain.ErrInvalidInput)
	}
	return nil
}

func validateRequiredPeriod(month, year int) error {
	if !domain.ValidPeriod(month, year) {
		return fmt.Errorf("%w: month and year are required", domain.ErrInvalidInput)
	}
	return nil
}

func (s *Service) enforceRateLimit(ctx context.Context, key string, threshold int, window time.Duration) error {
	if s.lockouts == nil || threshold <= 0 || window <= 0 {
		return nil
	}
	if strings.TrimSpace(key) == "" {
		return nil
	}

	state, err := s.lockouts.Get(ctx, key)
	if err == nil && state.LockedUntil != nil && state.LockedUntil.After(s.nowFn()) {
		return domain.ErrRateLimited
	}

	now := s.nowFn()
	updated, err := s.lockouts.RecordFailure(ctx, key, now, threshold, window)
	if err != nil {
		logger().WarnContext(ctx, "rate-limit state unavailable",
			"operation", "rate_limit",
			"outcome", "warning",
			"key", key,
			"error", err,
		)
		return nil
	}
	if updated.LockedUntil != nil && updated.LockedUntil.After(now) {
		return domain.ErrRateLimited
	}
	return nil
}
