// Package testsupport builds a fully wired service over in-memory SQLite for
// application and transport tests.
package testsupport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bps3275/sinora/internal/adapters/database"
	"github.com/bps3275/sinora/internal/adapters/security"
	"github.com/bps3275/sinora/internal/adapters/spreadsheet"
	"github.com/bps3275/sinora/internal/application"
	"github.com/bps3275/sinora/internal/domain"
	"github.com/stretchr/testify/require"
)

const (
	AdminNIP      = "198001012006041001"
	AdminName     = "Admin Statistik"
	AdminPassword = "rahasia-admin"
)

// Clock is a settable time source. It starts at the current second so issued
// tokens still pass wall-clock JWT validation.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Now().UTC().Truncate(time.Second)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type Harness struct {
	Service     *application.Service
	Repos       database.Repositories
	Lockouts    *MemoryLockoutStore
	Revocations *MemoryRevocationStore
	ResetTokens *MemoryResetTokenStore
	Clock       *Clock
}

func DefaultConfig() application.Config {
	return application.Config{
		TokenTTL:             time.Hour,
		SessionTTL:           7 * 24 * time.Hour,
		FailedLoginThreshold: 3,
		LockoutDuration:      15 * time.Minute,
		ResetTokenTTL:        15 * time.Minute,
		ResetRateLimit:       5,
		ResetRateLimitWindow: 15 * time.Minute,
		EnforceHonorLimit:    true,
	}
}

// New wires a service with DefaultConfig.
func New(t testing.TB) *Harness {
	return NewWithConfig(t, DefaultConfig())
}

func NewWithConfig(t testing.TB, cfg application.Config) *Harness {
	t.Helper()
	ctx := context.Background()
	db, err := database.Connect(ctx, database.DriverSQLite, ":memory:", 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.RunMigrations(ctx, db, database.DriverSQLite))

	signer, err := security.NewEphemeralJWTSigner("test")
	require.NoError(t, err)

	repos := database.NewRepositories(db, database.DriverSQLite)
	h := &Harness{
		Repos:       repos,
		Lockouts:    NewMemoryLockoutStore(),
		Revocations: NewMemoryRevocationStore(),
		ResetTokens: NewMemoryResetTokenStore(),
		Clock:       NewClock(),
	}
	h.Service = application.NewService(application.Dependencies{
		Config:      cfg,
		UnitOfWork:  repos.UnitOfWork,
		Users:       repos.Users,
		Sessions:    repos.Sessions,
		Mitra:       repos.Mitra,
		Kegiatan:    repos.Kegiatan,
		Honor:       repos.Honor,
		Laporan:     repos.Laporan,
		Lockouts:    h.Lockouts,
		Revocations: h.Revocations,
		ResetTokens: h.ResetTokens,
		Hasher:      security.NewBcryptHasher(4),
		TokenSigner: signer,
		Sheets:      spreadsheet.NewMitraReader(),
		Reports:     spreadsheet.NewReportWriter(),
		Now:         h.Clock.Now,
	})
	return h
}

// SeedAdmin creates the default admin account.
func (h *Harness) SeedAdmin(t testing.TB) application.UserProfile {
	t.Helper()
	profile, _, err := h.Service.EnsureAdmin(context.Background(), AdminNIP, AdminName, AdminPassword)
	require.NoError(t, err)
	return profile
}

// SeedUser registers a regular staff account.
func (h *Harness) SeedUser(t testing.TB, nip, name, password string) int64 {
	t.Helper()
	res, err := h.Service.Register(context.Background(), application.RegisterRequest{NIP: nip, Name: name, Password: password})
	require.NoError(t, err)
	return res.UserID
}

// Login returns a bearer token for the account.
func (h *Harness) Login(t testing.TB, nip, password string) string {
	t.Helper()
	res, err := h.Service.Login(context.Background(), application.LoginRequest{NIP: nip, Password: password})
	require.NoError(t, err)
	return res.Token
}

func Mitra(sobatID, nama, jenisPetugas string) domain.Mitra {
	return domain.Mitra{
		SobatID:      sobatID,
		NIK:          "3275014501900001",
		JenisPetugas: jenisPetugas,
		Nama:         nama,
		Pekerjaan:    "Wiraswasta",
		Alamat:       "Jl. Ahmad Yani No. 1",
		JenisKelamin: domain.JenisKelaminPerempuan,
	}
}

func (h *Harness) SeedMitra(t testing.TB, sobatID, nama, jenisPetugas string) domain.Mitra {
	t.Helper()
	m, err := h.Service.CreateMitra(context.Background(), Mitra(sobatID, nama, jenisPetugas))
	require.NoError(t, err)
	return m
}
