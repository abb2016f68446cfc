package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/bps3275/sinora/internal/domain"
	"github.com/bps3275/sinora/internal/ports"
	"gorm.io/gorm"
)

var mitraOrderColumns = map[string]string{
	"nama":          "mitra.nama",
	"sobat_id":      "mitra.sobat_id",
	"honor_bulanan": "honor_bulanan",
}

type mitraRepository struct {
	db     *gorm.DB
	driver string
}

func (r *mitraRepository) Create(ctx context.Context, mitra domain.Mitra) error {
	rec := toMitraModel(mitra)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: mitra %s already exists", domain.ErrConflict, mitra.SobatID)
		}
		return err
	}
	return nil
}

func (r *mitraRepository) Get(ctx context.Context, sobatID string) (domain.Mitra, error) {
	var rec mitraModel
	if err := r.db.WithContext(ctx).Where("sobat_id = ?", sobatID).Take(&rec).Error; err != nil {
		return domain.Mitra{}, notFound(err, "mitra %s", sobatID)
	}
	return toDomainMitra(rec), nil
}

func (r *mitraRepository) Update(ctx context.Context, mitra domain.Mitra) error {
	res := r.db.WithContext(ctx).
		Model(&mitraModel{}).
		Where("sobat_id = ?", mitra.SobatID).
		Updates(map[string]any{
			"nik":           mitra.NIK,
			"jenis_petugas": mitra.JenisPetugas,
			"nama":          mitra.Nama,
			"pekerjaan":     mitra.Pekerjaan,
			"alamat":        mitra.Alamat,
			"jenis_kelamin": mitra.JenisKelamin,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: mitra %s", domain.ErrNotFound, mitra.SobatID)
	}
	return nil
}

func (r *mitraRepository) Delete(ctx context.Context, sobatID string) error {
	res := r.db.WithContext(ctx).Where("sobat_id = ?", sobatID).Delete(&mitraModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: mitra %s", domain.ErrNotFound, sobatID)
	}
	return nil
}

func (r *mitraRepository) GetMany(ctx context.Context, sobatIDs []string) (map[string]domain.Mitra, error) {
	return r.getMany(ctx, sobatIDs, false)
}

func (r *mitraRepository) LockMany(ctx context.Context, sobatIDs []string) (map[string]domain.Mitra, error) {
	return r.getMany(ctx, sobatIDs, true)
}

func (r *mitraRepository) getMany(ctx context.Context, sobatIDs []string, lock bool) (map[string]domain.Mitra, error) {
	result := make(map[string]domain.Mitra, len(sobatIDs))
	for _, ids := range chunk(sobatIDs) {
		q := r.db.WithContext(ctx).Where("sobat_id IN ?", ids).Order("sobat_id")
		if lock {
			q = forUpdate(q, r.driver, "")
		}
		var rows []mitraModel
		if err := q.Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			result[row.SobatID] = toDomainMitra(row)
		}
	}
	return result, nil
}

func applyMitraFilters(q *gorm.DB, filter ports.MitraFilter) *gorm.DB {
	if filter.Search != "" {
		q = q.Where("LOWER(mitra.nama) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.JenisPetugas != "" {
		q = q.Where("mitra.jenis_petugas = ?", filter.JenisPetugas)
	}
	return q
}

// withHonor joins each mitra with an aggregate of its monthly honor inside the filtered period.
func (r *mitraRepository) withHonor(ctx context.Context, filter ports.MitraFilter, aggregate string) *gorm.DB {
	honor := r.db.WithContext(ctx).
		Model(&monthlyHonorModel{}).
		Select("sobat_id, " + aggregate + "(total_honor) AS honor").
		Group("sobat_id")
	if filter.Month > 0 {
		honor = honor.Where("month = ?", filter.Month)
	}
	if filter.Year > 0 {
		honor = honor.Where("year = ?", filter.Year)
	}
	q := r.db.WithContext(ctx).
		Table("mitra").
		Select("mitra.*, COALESCE(h.honor, 0) AS honor_bulanan").
		Joins("LEFT JOIN (?) AS h ON h.sobat_id = mitra.sobat_id", honor)
	q = applyMitraFilters(q, filter)

	column, ok := mitraOrderColumns[filter.SortBy]
	if !ok {
		column = "mitra.nama"
	}
	direction := "ASC"
	if filter.SortOrder == "desc" {
		direction = "DESC"
	}
	return q.Order(column + " " + direction).Order("mitra.sobat_id ASC")
}

func toSummaries(rows []mitraSummaryRow) []domain.MitraSummary {
	items := make([]domain.MitraSummary, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.MitraSummary{
			Mitra:        toDomainMitra(row.Mitra),
			HonorBulanan: row.HonorBulanan,
		})
	}
	return items
}

func (r *mitraRepository) List(ctx context.Context, filter ports.MitraFilter) ([]domain.MitraSummary, int64, error) {
	var total int64
	if err := applyMitraFilters(r.db.WithContext(ctx).Model(&mitraModel{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []mitraSummaryRow
	err := r.withHonor(ctx, filter, "SUM").
		Limit(filter.PageSize).
		Offset((filter.Page - 1) * filter.PageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return toSummaries(rows), total, nil
}

func (r *mitraRepository) ListAll(ctx context.Context, filter ports.MitraFilter) ([]domain.MitraSummary, error) {
	var rows []mitraSummaryRow
	if err := r.withHonor(ctx, filter, "MAX").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toSummaries(rows), nil
}

func (r *mitraRepository) CountByJenisPetugas(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		JenisPetugas string `gorm:"column:jenis_petugas"`
		Total        int64  `gorm:"column:total"`
	}
	if err := r.db.WithContext(ctx).
		Model(&mitraModel{}).
		Select("jenis_petugas, COUNT(*) AS total").
		Group("jenis_petugas").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.JenisPetugas] = row.Total
	}
	return counts, nil
}

func (r *mitraRepository) ListKegiatan(ctx context.Context, sobatID string, filter ports.MitraKegiatanFilter) ([]domain.MitraKegiatan, error) {
	var rows []struct {
		KegiatanID      int64   `gorm:"column:kegiatan_id"`
		NamaKegiatan    string  `gorm:"column:nama_kegiatan"`
		Kode            string  `gorm:"column:kode"`
		PenanggungJawab *string `gorm:"column:penanggung_jawab"`
		Honor           int64   `gorm:"column:honor"`
		Bulan           int     `gorm:"column:bulan"`
		Tahun           int     `gorm:"column:tahun"`
	}
	q := r.db.WithContext(ctx).
		Table("kegiatan_mitra AS km").
		Select("k.kegiatan_id, k.nama_kegiatan, k.kode, u.name AS penanggung_jawab, km.total_honor AS honor, k.month AS bulan, k.year AS tahun").
		Joins("JOIN kegiatan AS k ON k.kegiatan_id = km.kegiatan_id").
		Joins("LEFT JOIN users AS u ON u.id = k.penanggung_jawab").
		Where("km.sobat_id = ?", sobatID)
	if filter.Search != "" {
		q = q.Where("LOWER(k.nama_kegiatan) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Month > 0 {
		q = q.Where("k.month = ?", filter.Month)
	}
	if filter.Year > 0 {
		q = q.Where("k.year = ?", filter.Year)
	}
	if err := q.Order("k.year DESC, k.month DESC, k.kegiatan_id DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]domain.MitraKegiatan, 0, len(rows))
	for _, row := range rows {
		item := domain.MitraKegiatan{
			KegiatanID:   row.KegiatanID,
			NamaKegiatan: row.NamaKegiatan,
			Kode:         row.Kode,
			Honor:        row.Honor,
			Bulan:        row.Bulan,
			Tahun:        row.Tahun,
		}
		if row.PenanggungJawab != nil {
			item.PenanggungJawab = *row.PenanggungJawab
		}
		items = append(items, item)
	}
	return items, nil
}
