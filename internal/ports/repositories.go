package ports

import (
	"context"
	"time"

	"github.com/bps3275/sinora/internal/domain"
	"github.com/google/uuid"
)

// UserRepository persists staff accounts.
type UserRepository interface {
	Create(ctx context.Context, user domain.User, roleName string) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	GetByNIP(ctx context.Context, nip string) (domain.User, error)
	GetByName(ctx context.Context, name string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string, at time.Time) error
	UpdateRole(ctx context.Context, id int64, roleName string, at time.Time) error
}

type SessionCreateParams struct {
	UserID    int64
	IPAddress string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionRepository is the source of truth for login sessions.
type SessionRepository interface {
	Create(ctx context.Context, params SessionCreateParams) (domain.Session, error)
	GetByID(ctx context.Context, sessionID uuid.UUID) (domain.Session, error)
	RevokeByID(ctx context.Context, sessionID uuid.UUID, revokedAt time.Time) error
	// RevokeAllByUser revokes every active session except keep (uuid.Nil keeps none)
	// and returns the sessions it revoked.
	RevokeAllByUser(ctx context.Context, userID int64, keep uuid.UUID, revokedAt time.Time) ([]domain.Session, error)
}

type MitraFilter struct {
	Search       string
	JenisPetugas string
	Month        int
	Year         int
	SortBy       string
	SortOrder    string
	Page         int
	PageSize     int
}

type MitraKegiatanFilter struct {
	Search string
	Month  int
	Year   int
}

// MitraRepository persists partners and their read models.
type MitraRepository interface {
	Create(ctx context.Context, mitra domain.Mitra) error
	Get(ctx context.Context, sobatID string) (domain.Mitra, error)
	Update(ctx context.Context, mitra domain.Mitra) error
	Delete(ctx context.Context, sobatID string) error
	// GetMany returns the subset of ids that exist.
	GetMany(ctx context.Context, sobatIDs []string) (map[string]domain.Mitra, error)
	// LockMany is GetMany holding row locks until the transaction ends.
	LockMany(ctx context.Context, sobatIDs []string) (map[string]domain.Mitra, error)
	List(ctx context.Context, filter MitraFilter) ([]domain.MitraSummary, int64, error)
	ListAll(ctx context.Context, filter MitraFilter) ([]domain.MitraSummary, error)
	CountByJenisPetugas(ctx context.Context) (map[string]int64, error)
	ListKegiatan(ctx context.Context, sobatID string, filter MitraKegiatanFilter) ([]domain.MitraKegiatan, error)
}

type KegiatanFilter struct {
	Search        string
	JenisKegiatan string
	Month         int
	Year          int
	Page          int
	PageSize      int
}

// KegiatanRepository persists activities and their assignments.
type KegiatanRepository interface {
	Create(ctx context.Context, kegiatan domain.Kegiatan) (domain.Kegiatan, error)
	Get(ctx context.Context, kegiatanID int64) (domain.Kegiatan, error)
	Update(ctx context.Context, kegiatan domain.Kegiatan) error
	Delete(ctx context.Context, kegiatanID int64) error
	List(ctx context.Context, filter KegiatanFilter) ([]domain.Kegiatan, int64, error)
	CountByJenis(ctx context.Context, month, year int) (map[string]int64, error)
	Periods(ctx context.Context) (domain.Periods, error)

	ListAssignments(ctx context.Context, kegiatanID int64) ([]domain.Assignment, error)
	ListAssignmentsBySobat(ctx context.Context, sobatID string) ([]domain.Assignment, error)
	AddAssignment(ctx context.Context, assignment domain.Assignment) (domain.Assignment, error)
	UpdateAssignment(ctx context.Context, assignment domain.Assignment) error
	DeleteAssignment(ctx context.Context, kegiatanID int64, sobatID string) error
	DeleteAssignmentsByKegiatan(ctx context.Context, kegiatanID int64) error
	DeleteAssignmentsBySobat(ctx context.Context, sobatID string) error
}

type LedgerFilter struct {
	SobatID string
	Month   int
	Year    int
	Limit   int
}

// HonorRepository owns the ledger, its monthly projection and the limits.
type HonorRepository interface {
	// Post appends entry and applies it to the monthly projection, returning the new total.
	Post(ctx context.Context, entry domain.LedgerEntry) (domain.MonthlyHonor, error)
	GetMonthly(ctx context.Context, key domain.HonorKey) (int64, error)
	GetMonthlyMany(ctx context.Context, keys []domain.HonorKey) (map[domain.HonorKey]int64, error)
	ListMonthly(ctx context.Context, month, year int) ([]domain.MonthlyHonor, error)
	ListMonthlyBySobat(ctx context.Context, sobatID string) ([]domain.MonthlyHonor, error)
	DeleteMonthlyBySobat(ctx context.Context, sobatID string) error
	// ExpectedTotals recomputes monthly totals straight from assignments.
	ExpectedTotals(ctx context.Context, month, year int) ([]domain.MonthlyHonor, error)
	SumTotal(ctx context.Context, month, year int) (int64, error)
	Periods(ctx context.Context) (domain.Periods, error)
	Ledger(ctx context.Context, filter LedgerFilter) ([]domain.LedgerEntry, error)

	ListLimits(ctx context.Context) ([]domain.HonorLimit, error)
	GetLimits(ctx context.Context) (map[string]int64, error)
	UpsertLimit(ctx context.Context, limit domain.HonorLimit) error
}

type LaporanFilter struct {
	Month    int
	Year     int
	Page     int
	PageSize int
}

// LaporanRepository serves report queries.
type LaporanRepository interface {
	List(ctx context.Context, filter LaporanFilter) ([]domain.LaporanRow, int64, error)
	ListAll(ctx context.Context, filter LaporanFilter) ([]domain.LaporanRow, error)
	MitraActivities(ctx context.Context, sobatID string, month, year int) ([]domain.MitraActivityRow, error)
}

// OutboxEvent is the write-side event payload prior to storage.
type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

// OutboxRecord represents durable outbox state, including retry/error metadata.
type OutboxRecord struct {
	OutboxID       uuid.UUID
	EventType      string
	PartitionKey   string
	Payload        []byte
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
	PublishedAt    *time.Time
	LastErrorAt    *time.Time
	ClaimToken     *string
	ClaimUntil     *time.Time
	DeadLetteredAt *time.Time
}

// OutboxRepository controls the publish-retry workflow for domain events.
type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
}

// TxRepositories are repositories bound to one open transaction.
type TxRepositories struct {
	Users    UserRepository
	Sessions SessionRepository
	Mitra    MitraRepository
	Kegiatan KegiatanRepository
	Honor    HonorRepository
	Outbox   OutboxRepository
}

// UnitOfWork runs fn in a single transaction; any error rolls everything back.
type UnitOfWork interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx TxRepositories) error) error
}
