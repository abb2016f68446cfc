package domain

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 72
)

var nipPattern = regexp.MustCompile(`^\d{9,18}$`)

// ValidatePassword enforces the account password policy.
// bcrypt ignores input past 72 bytes, so longer passwords are refused.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("%w: password must be <= %d characters", ErrInvalidInput, maxPasswordLength)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: password must not be blank", ErrInvalidInput)
	}
	return nil
}

// NormalizeNIP trims and validates a civil-servant registration number.
func NormalizeNIP(nip string) (string, error) {
	trimmed := strings.TrimSpace(nip)
	if trimmed == "" {
		return "", fmt.Errorf("%w: nip is required", ErrInvalidInput)
	}
	if !nipPattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: nip must be 9 to 18 digits", ErrInvalidInput)
	}
	return trimmed, nil
}
