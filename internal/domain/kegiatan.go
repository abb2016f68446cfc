package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	JenisKegiatanLapangan   = "Lapangan"
	JenisKegiatanPengolahan = "Pengolahan"

	StatusPPL        = "PPL"
	StatusPML        = "PML"
	StatusOperator   = "Operator"
	StatusSupervisor = "Supervisor"

	// DateLayout is the stored form of tanggal_mulai and tanggal_berakhir.
	DateLayout = "2006-01-02"
)

const (
	maxNamaKegiatanLength = 255
	maxKodeLength         = 50
)

var SatuanHonor = []string{
	"Dokumen", "OB", "BS", "Rumah Tangga", "Pasar", "Keluarga", "SLS", "Desa", "Responden",
}

// statusByJenis pins which assignment roles belong to each activity type.
var statusByJenis = map[string][]string{
	JenisKegiatanLapangan:   {StatusPPL, StatusPML},
	JenisKegiatanPengolahan: {StatusOperator, StatusSupervisor},
}

// Kegiatan is a statistical activity. Month and Year always follow TanggalBerakhir.
type Kegiatan struct {
	KegiatanID          int64  `json:"kegiatan_id"`
	NamaKegiatan        string `json:"nama_kegiatan"`
	Kode                string `json:"kode"`
	JenisKegiatan       string `json:"jenis_kegiatan"`
	TanggalMulai        string `json:"tanggal_mulai"`
	TanggalBerakhir     string `json:"tanggal_berakhir"`
	Month               int    `json:"month"`
	Year                int    `json:"year"`
	PenanggungJawab     int64  `json:"penanggung_jawab"`
	PenanggungJawabNama string `json:"penanggung_jawab_nama"`
	SatuanHonor         string `json:"satuan_honor"`
}

// Assignment links a mitra to a kegiatan at a unit rate and target volume.
type Assignment struct {
	ID                    int64  `json:"id"`
	KegiatanID            int64  `json:"kegiatan_id"`
	SobatID               string `json:"sobat_id"`
	Nama                  string `json:"nama,omitempty"`
	HonorSatuan           int64  `json:"honor_satuan"`
	TargetVolumePekerjaan int    `json:"target_volume_pekerjaan"`
	TotalHonor            int64  `json:"total_honor"`
	StatusMitra           string `json:"status_mitra"`
}

// KegiatanDetail is the kegiatan view with its participants.
type KegiatanDetail struct {
	Kegiatan
	HonorSatuan int64        `json:"honor_satuan"`
	Peserta     []Assignment `json:"peserta"`
	TotalHonor  int64        `json:"total_honor"`
}

// ComputeTotal fills TotalHonor from rate and volume.
func (a *Assignment) ComputeTotal() {
	a.TotalHonor = a.HonorSatuan * int64(a.TargetVolumePekerjaan)
}

func ValidJenisKegiatan(v string) bool {
	_, ok := statusByJenis[v]
	return ok
}

func ValidSatuanHonor(v string) bool {
	return containsString(SatuanHonor, v)
}

// StatusOptions returns the assignment roles allowed for a jenis_kegiatan.
func StatusOptions(jenisKegiatan string) []string {
	return statusByJenis[jenisKegiatan]
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(field, raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be a YYYY-MM-DD date", ErrInvalidInput, field)
	}
	return t, nil
}

// Normalize trims text fields and derives Month/Year from TanggalBerakhir.
func (k *Kegiatan) Normalize() error {
	k.NamaKegiatan = strings.TrimSpace(k.NamaKegiatan)
	k.Kode = strings.TrimSpace(k.Kode)
	k.JenisKegiatan = strings.TrimSpace(k.JenisKegiatan)
	k.SatuanHonor = strings.TrimSpace(k.SatuanHonor)
	k.TanggalMulai = strings.TrimSpace(k.TanggalMulai)
	k.TanggalBerakhir = strings.TrimSpace(k.TanggalBerakhir)

	start, err := ParseDate("tanggal_mulai", k.TanggalMulai)
	if err != nil {
		return err
	}
	end, err := ParseDate("tanggal_berakhir", k.TanggalBerakhir)
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("%w: tanggal_berakhir must not be before tanggal_mulai", ErrInvalidInput)
	}
	k.Month = int(end.Month())
	k.Year = end.Year()
	return nil
}

func (k Kegiatan) Validate() error {
	switch {
	case k.NamaKegiatan == "":
		return fmt.Errorf("%w: nama_kegiatan is required", ErrInvalidInput)
	case len(k.NamaKegiatan) > maxNamaKegiatanLength:
		return fmt.Errorf("%w: nama_kegiatan must be at most %d characters", ErrInvalidInput, maxNamaKegiatanLength)
	case k.Kode == "":
		return fmt.Errorf("%w: kode is required", ErrInvalidInput)
	case len(k.Kode) > maxKodeLength:
		return fmt.Errorf("%w: kode must be at most %d characters", ErrInvalidInput, maxKodeLength)
	case !ValidJenisKegiatan(k.JenisKegiatan):
		return fmt.Errorf("%w: jenis_kegiatan must be Lapangan or Pengolahan", ErrInvalidInput)
	case !ValidSatuanHonor(k.SatuanHonor):
		return fmt.Errorf("%w: satuan_honor must be one of %s", ErrInvalidInput, strings.Join(SatuanHonor, ", "))
	case k.PenanggungJawab <= 0:
		return fmt.Errorf("%w: penanggung_jawab is required", ErrInvalidInput)
	}
	return nil
}

// ValidateAssignments checks an assignment set against the kegiatan type and
// computes each total. Mitra existence is checked by the caller.
func ValidateAssignments(jenisKegiatan string, assignments []Assignment) error {
	allowed := StatusOptions(jenisKegiatan)
	seen := make(map[string]struct{}, len(assignments))
	for i := range assignments {
		a := &assignments[i]
		a.SobatID = strings.TrimSpace(a.SobatID)
		a.StatusMitra = strings.TrimSpace(a.StatusMitra)
		if a.SobatID == "" {
			return fmt.Errorf("%w: mitra[%d].sobat_id is required", ErrInvalidInput, i)
		}
		if _, dup := seen[a.SobatID]; dup {
			return fmt.Errorf("%w: mitra %s is listed more than once", ErrInvalidInput, a.SobatID)
		}
		seen[a.SobatID] = struct{}{}
		if a.HonorSatuan < 0 {
			return fmt.Errorf("%w: mitra %s honor_satuan must not be negative", ErrInvalidInput, a.SobatID)
		}
		if a.TargetVolumePekerjaan < 0 {
			return fmt.Errorf("%w: mitra %s target_volume_pekerjaan must not be negative", ErrInvalidInput, a.SobatID)
		}
		if !containsString(allowed, a.StatusMitra) {
			return fmt.Errorf("%w: mitra %s status_mitra must be one of %s for %s",
				ErrInvalidInput, a.SobatID, strings.Join(allowed, ", "), jenisKegiatan)
		}
		a.ComputeTotal()
	}
	return nil
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
