package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bps3275/sinora/internal/domain"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

func toDomainUser(row userModel, roleName string) domain.User {
	return domain.User{
		ID:           row.ID,
		NIP:          row.NIP,
		Name:         row.Name,
		PasswordHash: row.PasswordHash,
		RoleID:       row.RoleID,
		RoleName:     roleName,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func toDomainSession(row sessionModel) domain.Session {
	ip := ""
	if row.IPAddress != nil {
		ip = *row.IPAddress
	}
	return domain.Session{
		SessionID: row.SessionID,
		UserID:    row.UserID,
		IPAddress: ip,
		UserAgent: row.UserAgent,
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
		RevokedAt: row.RevokedAt,
	}
}

func toMitraModel(m domain.Mitra) mitraModel {
	return mitraModel{
		SobatID:      m.SobatID,
		NIK:          m.NIK,
		JenisPetugas: m.JenisPetugas,
		Nama:         m.Nama,
		Pekerjaan:    m.Pekerjaan,
		Alamat:       m.Alamat,
		JenisKelamin: m.JenisKelamin,
	}
}

func toDomainMitra(row mitraModel) domain.Mitra {
	return domain.Mitra{
		SobatID:      row.SobatID,
		NIK:          row.NIK,
		JenisPetugas: row.JenisPetugas,
		Nama:         row.Nama,
		Pekerjaan:    row.Pekerjaan,
		Alamat:       row.Alamat,
		JenisKelamin: row.JenisKelamin,
	}
}

func toKegiatanModel(k domain.Kegiatan) kegiatanModel {
	return kegiatanModel{
		KegiatanID:      k.KegiatanID,
		NamaKegiatan:    k.NamaKegiatan,
		Kode:            k.Kode,
		JenisKegiatan:   k.JenisKegiatan,
		TanggalMulai:    k.TanggalMulai,
		TanggalBerakhir: k.TanggalBerakhir,
		Month:           k.Month,
		Year:            k.Year,
		PenanggungJawab: k.PenanggungJawab,
		SatuanHonor:     k.SatuanHonor,
	}
}

func toDomainKegiatan(row kegiatanRow) domain.Kegiatan {
	return domain.Kegiatan{
		KegiatanID:          row.Kegiatan.KegiatanID,
		NamaKegiatan:        row.Kegiatan.NamaKegiatan,
		Kode:                row.Kegiatan.Kode,
		JenisKegiatan:       row.Kegiatan.JenisKegiatan,
		TanggalMulai:        row.Kegiatan.TanggalMulai,
		TanggalBerakhir:     row.Kegiatan.TanggalBerakhir,
		Month:               row.Kegiatan.Month,
		Year:                row.Kegiatan.Year,
		PenanggungJawab:     row.Kegiatan.PenanggungJawab,
		PenanggungJawabNama: row.PenanggungJawabNama,
		SatuanHonor:         row.Kegiatan.SatuanHonor,
	}
}

func toAssignmentModel(a domain.Assignment) assignmentModel {
	return assignmentModel{
		ID:                    a.ID,
		KegiatanID:            a.KegiatanID,
		SobatID:               a.SobatID,
		HonorSatuan:           a.HonorSatuan,
		TargetVolumePekerjaan: a.TargetVolumePekerjaan,
		TotalHonor:            a.TotalHonor,
		StatusMitra:           a.StatusMitra,
	}
}

func toDomainAssignment(row assignmentRow) domain.Assignment {
	return domain.Assignment{
		ID:                    row.Assignment.ID,
		KegiatanID:            row.Assignment.KegiatanID,
		SobatID:               row.Assignment.SobatID,
		Nama:                  row.Nama,
		HonorSatuan:           row.Assignment.HonorSatuan,
		TargetVolumePekerjaan: row.Assignment.TargetVolumePekerjaan,
		TotalHonor:            row.Assignment.TotalHonor,
		StatusMitra:           row.Assignment.StatusMitra,
	}
}

func toDomainLedgerEntry(row ledgerModel) domain.LedgerEntry {
	return domain.LedgerEntry{
		ID:         row.ID,
		EntryID:    row.EntryID,
		SobatID:    row.SobatID,
		Month:      row.Month,
		Year:       row.Year,
		KegiatanID: row.KegiatanID,
		EntryType:  row.EntryType,
		Amount:     row.Amount,
		Note:       row.Note,
		CreatedAt:  row.CreatedAt,
	}
}

func nullableString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// isUniqueViolation recognizes duplicate keys from either dialect. The sqlite
// translator in gorm does not cover primary-key collisions, so check the raw code too.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// notFound maps gorm's missing-row error onto domain.ErrNotFound with context.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, fmt.Sprintf(format, args...))
	}
	return err
}
