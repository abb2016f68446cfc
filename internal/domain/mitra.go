package domain

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	JenisPetugasPendataan           = "Pendataan"
	JenisPetugasPengolahan          = "Pengolahan"
	JenisPetugasPendataanPengolahan = "Pendataan dan Pengolahan"

	JenisKelaminLakiLaki  = "Laki-laki"
	JenisKelaminPerempuan = "Perempuan"
)

const (
	maxMitraNamaLength      = 100
	maxMitraPekerjaanLength = 100
	maxMitraAlamatLength    = 255
	maxSobatIDLength        = 50
	maxNIKLength            = 20
)

// JenisPetugas lists the partner categories in display order.
var JenisPetugas = []string{
	JenisPetugasPendataan,
	JenisPetugasPengolahan,
	JenisPetugasPendataanPengolahan,
}

var (
	digitsPattern    = regexp.MustCompile(`^\d+$`)
	namaPattern      = regexp.MustCompile(`^[a-zA-Z\s.,'-]*$`)
	pekerjaanPattern = regexp.MustCompile(`^[a-zA-Z0-9\s./-]*$`)
	alamatPattern    = regexp.MustCompile(`^[a-zA-Z0-9\s,./:()'-]*$`)
	mitraWordPattern = regexp.MustCompile(`(?i)\bmitra\b`)
	spacesPattern    = regexp.MustCompile(`\s+`)
)

// Mitra is a field or data-processing partner.
type Mitra struct {
	SobatID      string `json:"sobat_id"`
	NIK          string `json:"nik"`
	JenisPetugas string `json:"jenis_petugas"`
	Nama         string `json:"nama"`
	Pekerjaan    string `json:"pekerjaan"`
	Alamat       string `json:"alamat"`
	JenisKelamin string `json:"jenis_kelamin"`
}

// MitraSummary is a list row: the mitra plus its honor in the filtered period.
type MitraSummary struct {
	Mitra
	HonorBulanan int64 `json:"honor_bulanan"`
}

// MitraKegiatan is one activity a mitra took part in.
type MitraKegiatan struct {
	KegiatanID      int64  `json:"kegiatan_id"`
	NamaKegiatan    string `json:"nama_kegiatan"`
	Kode            string `json:"kode"`
	PenanggungJawab string `json:"penanggung_jawab"`
	Honor           int64  `json:"honor"`
	Bulan           int    `json:"bulan"`
	Tahun           int    `json:"tahun"`
}

// FieldError ties a validation message to the offending field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ValidJenisPetugas(v string) bool {
	return containsString(JenisPetugas, v)
}

// NormalizeJenisPetugas cleans spreadsheet values such as
// "Mitra (Pendataan)" down to the canonical "Pendataan".
func NormalizeJenisPetugas(raw string) string {
	cleaned := mitraWordPattern.ReplaceAllString(raw, " ")
	cleaned = strings.NewReplacer("(", " ", ")", " ").Replace(cleaned)
	cleaned = strings.TrimSpace(spacesPattern.ReplaceAllString(cleaned, " "))
	for _, jp := range JenisPetugas {
		if strings.EqualFold(jp, cleaned) {
			return jp
		}
	}
	return cleaned
}

// Normalize trims every field in place.
func (m *Mitra) Normalize() {
	m.SobatID = strings.TrimSpace(m.SobatID)
	m.NIK = strings.TrimSpace(m.NIK)
	m.JenisPetugas = strings.TrimSpace(m.JenisPetugas)
	m.Nama = strings.TrimSpace(m.Nama)
	m.Pekerjaan = strings.TrimSpace(m.Pekerjaan)
	m.Alamat = strings.TrimSpace(m.Alamat)
	m.JenisKelamin = strings.TrimSpace(m.JenisKelamin)
}

// FieldErrors reports every rule the mitra breaks, in field order.
func (m Mitra) FieldErrors() []FieldError {
	var errs []FieldError
	add := func(field, msg string) {
		errs = append(errs, FieldError{Field: field, Message: msg})
	}

	switch {
	case m.SobatID == "":
		add("sobat_id", "is required")
	case len(m.SobatID) > maxSobatIDLength:
		add("sobat_id", fmt.Sprintf("must be at most %d characters", maxSobatIDLength))
	case !digitsPattern.MatchString(m.SobatID):
		add("sobat_id", "must contain digits only")
	}

	switch {
	case m.NIK == "":
		add("nik", "is required")
	case len(m.NIK) > maxNIKLength:
		add("nik", fmt.Sprintf("must be at most %d characters", maxNIKLength))
	case !digitsPattern.MatchString(m.NIK):
		add("nik", "must contain digits only")
	}

	if !ValidJenisPetugas(m.JenisPetugas) {
		add("jenis_petugas", "must be one of "+strings.Join(JenisPetugas, ", "))
	}

	switch {
	case m.Nama == "":
		add("nama", "is required")
	case len(m.Nama) > maxMitraNamaLength:
		add("nama", fmt.Sprintf("must be at most %d characters", maxMitraNamaLength))
	case !namaPattern.MatchString(m.Nama):
		add("nama", "may only contain letters, spaces and . , ' -")
	}

	switch {
	case len(m.Pekerjaan) > maxMitraPekerjaanLength:
		add("pekerjaan", fmt.Sprintf("must be at most %d characters", maxMitraPekerjaanLength))
	case !pekerjaanPattern.MatchString(m.Pekerjaan):
		add("pekerjaan", "may only contain letters, digits, spaces and . / -")
	}

	switch {
	case len(m.Alamat) > maxMitraAlamatLength:
		add("alamat", fmt.Sprintf("must be at most %d characters", maxMitraAlamatLength))
	case !alamatPattern.MatchString(m.Alamat):
		add("alamat", "contains unsupported characters")
	}

	if m.JenisKelamin != JenisKelaminLakiLaki && m.JenisKelamin != JenisKelaminPerempuan {
		add("jenis_kelamin", "must be Laki-laki or Perempuan")
	}
	return errs
}

// Validate returns the first field error wrapped in ErrInvalidInput.
func (m Mitra) Validate() error {
	if errs := m.FieldErrors(); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, errs[0].Error())
	}
	return nil
}
