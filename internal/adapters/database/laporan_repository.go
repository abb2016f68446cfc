package database

import (
	"context"

	"github.com/bps3275/sinora/internal/domain"
	"github.com/bps3275/sinora/internal/ports"
	"gorm.io/gorm"
)

type laporanRepository struct {
	db *gorm.DB
}

type laporanRow struct {
	NIK             string `gorm:"column:nik"`
	NamaMitra       string `gorm:"column:nama_mitra"`
	NamaKegiatan    string `gorm:"column:nama_kegiatan"`
	Month           int    `gorm:"column:month"`
	Year            int    `gorm:"column:year"`
	TanggalMulai    string `gorm:"column:tanggal_mulai"`
	TanggalBerakhir string `gorm:"column:tanggal_berakhir"`
	Target          int    `gorm:"column:target"`
	HonorSatuan     int64  `gorm:"column:honor_satuan"`
	TotalHonor      int64  `gorm:"column:total_honor"`
}

// base selects assignments with a positive target; zero-target rows never reach a report.
func (r *laporanRepository) base(ctx context.Context, filter ports.LaporanFilter) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("kegiatan_mitra AS km").
		Joins("JOIN mitra AS m ON m.sobat_id = km.sobat_id").
		Joins("JOIN kegiatan AS k ON k.kegiatan_id = km.kegiatan_id").
		Where("km.target_volume_pekerjaan > 0").
		Scopes(periodScope(filter.Month, filter.Year, "k."))
}

func (r *laporanRepository) rows(q *gorm.DB) ([]domain.LaporanRow, error) {
	var rows []laporanRow
	err := q.Select("m.nik, m.nama AS nama_mitra, k.nama_kegiatan, k.month, k.year, k.tanggal_mulai, k.tanggal_berakhir, " +
		"km.target_volume_pekerjaan AS target, km.honor_satuan, km.total_honor").
		Order("k.year DESC, k.month DESC, k.nama_kegiatan ASC, km.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	items := make([]domain.LaporanRow, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.LaporanRow{
			NIK:             row.NIK,
			NamaMitra:       row.NamaMitra,
			NamaKegiatan:    row.NamaKegiatan,
			Month:           row.Month,
			Year:            row.Year,
			TanggalMulai:    row.TanggalMulai,
			TanggalBerakhir: row.TanggalBerakhir,
			Target:          row.Target,
			HonorSatuan:     row.HonorSatuan,
			TotalHonor:      row.TotalHonor,
		})
	}
	return items, nil
}

func (r *laporanRepository) List(ctx context.Context, filter ports.LaporanFilter) ([]domain.LaporanRow, int64, error) {
	var total int64
	if err := r.base(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	items, err := r.rows(r.base(ctx, filter).
		Limit(filter.PageSize).
		Offset((filter.Page - 1) * filter.PageSize))
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *laporanRepository) ListAll(ctx context.Context, filter ports.LaporanFilter) ([]domain.LaporanRow, error) {
	return r.rows(r.base(ctx, filter))
}

func (r *laporanRepository) MitraActivities(ctx context.Context, sobatID string, month, year int) ([]domain.MitraActivityRow, error) {
	var rows []struct {
		NamaKegiatan          string `gorm:"column:nama_kegiatan"`
		TanggalMulai          string `gorm:"column:tanggal_mulai"`
		TanggalBerakhir       string `gorm:"column:tanggal_berakhir"`
		TargetVolumePekerjaan int    `gorm:"column:target_volume_pekerjaan"`
		SatuanHonor           string `gorm:"column:satuan_honor"`
		HonorSatuan           int64  `gorm:"column:honor_satuan"`
		TotalHonor            int64  `gorm:"column:total_honor"`
		Kode                  string `gorm:"column:kode"`
	}
	err := r.db.WithContext(ctx).
		Table("kegiatan_mitra AS km").
		Select("k.nama_kegiatan, k.tanggal_mulai, k.tanggal_berakhir, km.target_volume_pekerjaan, k.satuan_honor, km.honor_satuan, km.total_honor, k.kode").
		Joins("JOIN kegiatan AS k ON k.kegiatan_id = km.kegiatan_id").
		Where("km.sobat_id = ?", sobatID).
		Scopes(periodScope(month, year, "k.")).
		Order("k.tanggal_mulai ASC, k.kegiatan_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	items := make([]domain.MitraActivityRow, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.MitraActivityRow{
			NamaKegiatan:          row.NamaKegiatan,
			TanggalMulai:          row.TanggalMulai,
			TanggalBerakhir:       row.TanggalBerakhir,
			TargetVolumePekerjaan: row.TargetVolumePekerjaan,
			SatuanHonor:           row.SatuanHonor,
			HonorSatuan:           row.HonorSatuan,
			TotalHonor:            row.TotalHonor,
			Kode:                  row.Kode,
		})
	}
	return items, nil
}
