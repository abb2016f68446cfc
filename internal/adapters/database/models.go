package database

import (
	"time"

	"github.com/google/uuid"
)

type roleModel struct {
	RoleID int    `gorm:"column:role_id;primaryKey"`
	Name   string `gorm:"column:name"`
}

func (roleModel) TableName() string { return "roles" }

type userModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	NIP          string    `gorm:"column:nip"`
	Name         string    `gorm:"column:name"`
	PasswordHash string    `gorm:"column:password_hash"`
	RoleID       int       `gorm:"column:role_id"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

// userWithRole is the users ⋈ roles read shape.
type userWithRole struct {
	User userModel `gorm:"embedded"`
	RoleName string `gorm:"column:role_name"`
}

type sessionModel struct {
	SessionID uuid.UUID  `gorm:"column:session_id;primaryKey"`
	UserID    int64      `gorm:"column:user_id"`
	IPAddress *string    `gorm:"column:ip_address"`
	UserAgent string     `gorm:"column:user_agent"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	ExpiresAt time.Time  `gorm:"column:expires_at"`
	RevokedAt *time.Time `gorm:"column:revoked_at"`
}

func (sessionModel) TableName() string { return "sessions" }

type mitraModel struct {
	SobatID      string `gorm:"column:sobat_id;primaryKey"`
	NIK          string `gorm:"column:nik"`
	JenisPetugas string `gorm:"column:jenis_petugas"`
	Nama         string `gorm:"column:nama"`
	Pekerjaan    string `gorm:"column:pekerjaan"`
	Alamat       string `gorm:"column:alamat"`
	JenisKelamin string `gorm:"column:jenis_kelamin"`
}

func (mitraModel) TableName() string { return "mitra" }

type mitraSummaryRow struct {
	Mitra mitraModel `gorm:"embedded"`
	HonorBulanan int64 `gorm:"column:honor_bulanan"`
}

type kegiatanModel struct {
	KegiatanID      int64     `gorm:"column:kegiatan_id;primaryKey;autoIncrement"`
	NamaKegiatan    string    `gorm:"column:nama_kegiatan"`
	Kode            string    `gorm:"column:kode"`
	JenisKegiatan   string    `gorm:"column:jenis_kegiatan"`
	TanggalMulai    string    `gorm:"column:tanggal_mulai"`
	TanggalBerakhir string    `gorm:"column:tanggal_berakhir"`
	Month           int       `gorm:"column:month"`
	Year            int       `gorm:"column:year"`
	PenanggungJawab int64     `gorm:"column:penanggung_jawab"`
	SatuanHonor     string    `gorm:"column:satuan_honor"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (kegiatanModel) TableName() string { return "kegiatan" }

type kegiatanRow struct {
	Kegiatan kegiatanModel `gorm:"embedded"`
	PenanggungJawabNama string `gorm:"column:penanggung_jawab_nama"`
}

type assignmentModel struct {
	ID                    int64  `gorm:"column:id;primaryKey;autoIncrement"`
	KegiatanID            int64  `gorm:"column:kegiatan_id"`
	SobatID               string `gorm:"column:sobat_id"`
	HonorSatuan           int64  `gorm:"column:honor_satuan"`
	TargetVolumePekerjaan int    `gorm:"column:target_volume_pekerjaan"`
	TotalHonor            int64  `gorm:"column:total_honor"`
	StatusMitra           string `gorm:"column:status_mitra"`
}

func (assignmentModel) TableName() string { return "kegiatan_mitra" }

type assignmentRow struct {
	Assignment assignmentModel `gorm:"embedded"`
	Nama string `gorm:"column:nama"`
}

type honorLimitModel struct {
	JenisPetugas string `gorm:"column:jenis_petugas;primaryKey"`
	HonorMax     int64  `gorm:"column:honor_max"`
}

func (honorLimitModel) TableName() string { return "honor_limit" }

type monthlyHonorModel struct {
	SobatID    string `gorm:"column:sobat_id;primaryKey"`
	Month      int    `gorm:"column:month;primaryKey"`
	Year       int    `gorm:"column:year;primaryKey"`
	TotalHonor int64  `gorm:"column:total_honor"`
}

func (monthlyHonorModel) TableName() string { return "mitra_honor_monthly" }

type ledgerModel struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	EntryID    uuid.UUID `gorm:"column:entry_id"`
	SobatID    string    `gorm:"column:sobat_id"`
	Month      int       `gorm:"column:month"`
	Year       int       `gorm:"column:year"`
	KegiatanID *int64    `gorm:"column:kegiatan_id"`
	EntryType  string    `gorm:"column:entry_type"`
	Amount     int64     `gorm:"column:amount"`
	Note       string    `gorm:"column:note"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (ledgerModel) TableName() string { return "honor_ledger" }

type outboxModel struct {
	OutboxID       uuid.UUID  `gorm:"column:outbox_id;primaryKey"`
	EventType      string     `gorm:"column:event_type"`
	PartitionKey   string     `gorm:"column:partition_key"`
	Payload        string     `gorm:"column:payload"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	RetryCount     int        `gorm:"column:retry_count"`
	LastError      *string    `gorm:"column:last_error"`
	LastErrorAt    *time.Time `gorm:"column:last_error_at"`
	ClaimToken     *string    `gorm:"column:claim_token"`
	ClaimUntil     *time.Time `gorm:"column:claim_until"`
	DeadLetteredAt *time.Time `gorm:"column:dead_lettered_at"`
}

func (outboxModel) TableName() string { return "sinora_outbox" }
