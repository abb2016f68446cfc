package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	EntryAccrue  = "ACCRUE"
	EntryReverse = "REVERSE"
	EntryAdjust  = "ADJUST"
	EntryRebuild = "REBUILD"
)

// HonorKey addresses one mitra in one calendar month.
type HonorKey struct {
	SobatID string
	Month   int
	Year    int
}

// MonthlyHonor is the accrued total for a HonorKey.
type MonthlyHonor struct {
	SobatID    string `json:"sobat_id"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	TotalHonor int64  `json:"total_honor"`
}

func (m MonthlyHonor) Key() HonorKey {
	return HonorKey{SobatID: m.SobatID, Month: m.Month, Year: m.Year}
}

// HonorLimit caps the monthly honor of every mitra with the given jenis_petugas.
type HonorLimit struct {
	JenisPetugas string `json:"jenis_petugas"`
	HonorMax     int64  `json:"honor_max"`
}

// LedgerEntry is one immutable posting against a mitra's monthly honor.
// The monthly total is always the sum of its entries.
type LedgerEntry struct {
	ID         int64     `json:"id"`
	EntryID    uuid.UUID `json:"entry_id"`
	SobatID    string    `json:"sobat_id"`
	Month      int       `json:"month"`
	Year       int       `json:"year"`
	KegiatanID *int64    `json:"kegiatan_id,omitempty"`
	EntryType  string    `json:"entry_type"`
	Amount     int64     `json:"amount"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (e LedgerEntry) Key() HonorKey {
	return HonorKey{SobatID: e.SobatID, Month: e.Month, Year: e.Year}
}

// LaporanRow is one assignment line in the activity report.
type LaporanRow struct {
	NIK             string `json:"nik"`
	NamaMitra       string `json:"nama_mitra"`
	NamaKegiatan    string `json:"nama_kegiatan"`
	Month           int    `json:"-"`
	Year            int    `json:"-"`
	TanggalMulai    string `json:"-"`
	TanggalBerakhir string `json:"-"`
	Target          int    `json:"target"`
	HonorSatuan     int64  `json:"honor_satuan"`
	TotalHonor      int64  `json:"total_honor"`
}

// MitraActivityRow is one kegiatan line in a mitra's monthly statement.
type MitraActivityRow struct {
	NamaKegiatan          string
	TanggalMulai          string
	TanggalBerakhir       string
	TargetVolumePekerjaan int
	SatuanHonor           string
	HonorSatuan           int64
	TotalHonor            int64
	Kode                  string
}

// Periods lists the distinct months and years present in a dataset.
type Periods struct {
	Months []int `json:"months"`
	Years  []int `json:"years"`
}

var bulan = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// BulanName returns the Indonesian month name, or "" when month is out of range.
func BulanName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return bulan[month-1]
}

func ValidPeriod(month, year int) bool {
	return month >= 1 && month <= 12 && year >= 1900 && year <= 9999
}
