package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidCredentials hides whether the NIP or the password failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
	ErrSessionRevoked     = errors.New("session revoked")
	ErrSessionExpired     = errors.New("session expired")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("conflict")
	ErrRateLimited        = errors.New("rate limited")
	// ErrHonorLimitExceeded is returned when a posting would push a mitra past
	// the monthly maximum configured for its jenis_petugas.
	ErrHonorLimitExceeded = errors.New("honor limit exceeded")
	// ErrImportRejected means at least one spreadsheet row failed validation
	// and nothing was written.
	ErrImportRejected = errors.New("import rejected")
)

// HonorLimitError describes the first mitra/month that breaks its limit.
type HonorLimitError struct {
	SobatID   string
	Month     int
	Year      int
	Projected int64
	Limit     int64
}

func (e *HonorLimitError) Error() string {
	return fmt.Sprintf("%s: mitra %s would receive %d in %02d/%d (limit %d)",
		ErrHonorLimitExceeded, e.SobatID, e.Projected, e.Month, e.Year, e.Limit)
}

func (e *HonorLimitError) Unwrap() error { return ErrHonorLimitExceeded }

// RowError is a single validation failure in an uploaded sheet.
// Row is 1-based and counts the header line.
type RowError struct {
	Row     int    `json:"row"`
	SobatID string `json:"sobat_id,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type ImportError struct {
	Rows []RowError
}

func (e *ImportError) Error() string {
	if len(e.Rows) == 0 {
		return ErrImportRejected.Error()
	}
	parts := make([]string, 0, 3)
	for i, row := range e.Rows {
		if i == 3 {
			parts = append(parts, fmt.Sprintf("and %d more", len(e.Rows)-3))
			break
		}
		parts = append(parts, fmt.Sprintf("row %d: %s", row.Row, row.Message))
	}
	return fmt.Sprintf("%s: %s", ErrImportRejected, strings.Join(parts, "; "))
}

func (e *ImportError) Unwrap() error { return ErrImportRejected }
