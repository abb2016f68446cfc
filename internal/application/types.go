package application

import (
	"time"

	"github.com/bps3275/sinora/internal/domain"
)

type Config struct {
	TokenTTL             time.Duration
	SessionTTL           time.Duration
	FailedLoginThreshold int
	LockoutDuration      time.Duration
	ResetTokenTTL        time.Duration
	ResetRateLimit       int
	ResetRateLimitWindow time.Duration
	EnforceHonorLimit    bool
}

type RegisterRequest struct {
	NIP      string `json:"nip"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID int64 `json:"user_id"`
}

type LoginRequest struct {
	NIP       string `json:"nip"`
	Password  string `json:"password"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type UserProfile struct {
	ID   int64  `json:"id"`
	NIP  string `json:"nip"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	SessionID string      `json:"session_id"`
	ExpiresIn int64       `json:"expires_in"`
	User      UserProfile `json:"user"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type CheckNIPResponse struct {
	ResetToken string `json:"reset_token"`
	ExpiresIn  int64  `json:"expires_in"`
}

type ResetPasswordRequest struct {
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

type MitraListResponse struct {
	Items      []domain.MitraSummary `json:"items"`
	TotalCount int64                 `json:"total_count"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
}

type MitraCountsResponse struct {
	Pendataan              int64 `json:"pendataan_count"`
	Pengolahan             int64 `json:"pengolahan_count"`
	PendataanDanPengolahan int64 `json:"pendataan_dan_pengolahan_count"`
	Total                  int64 `json:"total"`
}

type MonthlyHonorResponse struct {
	SobatID      string `json:"sobat_id"`
	Month        int    `json:"month"`
	Year         int    `json:"year"`
	JenisPetugas string `json:"jenis_petugas"`
	TotalHonor   int64  `json:"total_honor"`
	HonorMax     *int64 `json:"honor_max"`
	Remaining    *int64 `json:"remaining"`
}

type ImportRequest struct {
	Format     string
	OnConflict string
}

type ImportResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

type AssignmentInput struct {
	SobatID               string `json:"sobat_id"`
	HonorSatuan           int64  `json:"honor_satuan"`
	TargetVolumePekerjaan int    `json:"target_volume_pekerjaan"`
	StatusMitra           string `json:"status_mitra"`
}

// KegiatanRequest creates or fully replaces a kegiatan with its participants.
// PenanggungJawab names the responsible user; PenanggungJawabID wins when set.
type KegiatanRequest struct {
	NamaKegiatan      string            `json:"nama_kegiatan"`
	Kode              string            `json:"kode"`
	JenisKegiatan     string            `json:"jenis_kegiatan"`
	TanggalMulai      string            `json:"tanggal_mulai"`
	TanggalBerakhir   string            `json:"tanggal_berakhir"`
	PenanggungJawab   string            `json:"penanggung_jawab"`
	PenanggungJawabID int64             `json:"penanggung_jawab_id"`
	SatuanHonor       string            `json:"satuan_honor"`
	Mitra             []AssignmentInput `json:"mitra"`
}

type CreateKegiatanResponse struct {
	KegiatanID int64 `json:"kegiatan_id"`
}

type KegiatanListResponse struct {
	Items      []domain.Kegiatan `json:"items"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
}

type KegiatanCountsResponse struct {
	Month      int   `json:"month"`
	Year       int   `json:"year"`
	Lapangan   int64 `json:"lapangan_count"`
	Pengolahan int64 `json:"pengolahan_count"`
}

type HonorPreviewRequest struct {
	SobatID           string `json:"sobat_id"`
	Month             int    `json:"month"`
	Year              int    `json:"year"`
	Additional        int64  `json:"additional"`
	ExcludeKegiatanID int64  `json:"exclude_kegiatan_id"`
}

type HonorPreviewResponse struct {
	Current    int64  `json:"current"`
	Additional int64  `json:"additional"`
	Projected  int64  `json:"projected"`
	HonorMax   *int64 `json:"honor_max"`
	Exceeds    bool   `json:"exceeds"`
}

type RebuildResponse struct {
	Checked   int `json:"checked"`
	Corrected int `json:"corrected"`
}

type TotalHonorResponse struct {
	Month      int   `json:"month,omitempty"`
	Year       int   `json:"year,omitempty"`
	TotalHonor int64 `json:"total_honor"`
}

type LaporanItem struct {
	NIK            string `json:"nik"`
	NamaMitra      string `json:"nama_mitra"`
	NamaKegiatan   string `json:"nama_kegiatan"`
	Bulan          string `json:"bulan"`
	TanggalMulai   string `json:"tanggal_mulai"`
	TanggalSelesai string `json:"tanggal_selesai"`
	Target         int    `json:"target"`
	HonorSatuan    int64  `json:"honor_satuan"`
	TotalHonor     int64  `json:"total_honor"`
}

type LaporanListResponse struct {
	Items      []LaporanItem `json:"items"`
	TotalCount int64         `json:"total_count"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
}

// ExportFile is a rendered document ready to be served or written to disk.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

type DashboardResponse struct {
	Mitra                  MitraCountsResponse    `json:"mitra"`
	Kegiatan               KegiatanCountsResponse `json:"kegiatan"`
	TotalHonorCurrentMonth int64                  `json:"total_honor_current_month"`
}
