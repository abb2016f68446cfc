package application

import (
	"time"

	"github.com/bps3275/sinora/internal/ports"
)

// Service implements every SINORA use case on top of the ports.
// Cache-backed stores are optional; when nil the related protection is skipped.
type Service struct {
	cfg         Config
	uow         ports.UnitOfWork
	users       ports.UserRepository
	sessions    ports.SessionRepository
	mitra       ports.MitraRepository
	kegiatan    ports.KegiatanRepository
	honor       ports.HonorRepository
	laporan     ports.LaporanRepository
	lockouts    ports.LockoutStore
	revocations ports.SessionRevocationStore
	resetTokens ports.ResetTokenStore
	hasher      ports.PasswordHasher
	tokenSigner ports.TokenSigner
	sheets      ports.MitraSheetReader
	reports     ports.ReportWriter
	nowFn       func() time.Time
}

type Dependencies struct {
	Config      Config
	UnitOfWork  ports.UnitOfWork
	Users       ports.UserRepository
	Sessions    ports.SessionRepository
	Mitra       ports.MitraRepository
	Kegiatan    ports.KegiatanRepository
	Honor       ports.HonorRepository
	Laporan     ports.LaporanRepository
	Lockouts    ports.LockoutStore
	Revocations ports.SessionRevocationStore
	ResetTokens ports.ResetTokenStore
	Hasher      ports.PasswordHasher
	TokenSigner ports.TokenSigner
	Sheets      ports.MitraSheetReader
	Reports     ports.ReportWriter
	// Now overrides the clock; tests pin it.
	Now func() time.Time
}

func NewService(deps Dependencies) *Service {
	nowFn := deps.Now
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		cfg:         deps.Config,
		uow:         deps.UnitOfWork,
		users:       deps.Users,
		sessions:    deps.Sessions,
		mitra:       deps.Mitra,
		kegiatan:    deps.Kegiatan,
		honor:       deps.Honor,
		laporan:     deps.Laporan,
		lockouts:    deps.Lockouts,
		revocations: deps.Revocations,
		resetTokens: deps.ResetTokens,
		hasher:      deps.Hasher,
		tokenSigner: deps.TokenSigner,
		sheets:      deps.Sheets,
		reports:     deps.Reports,
		nowFn:       nowFn,
	}
}
