package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/bps3275/sinora/internal/domain"
	"github.com/bps3275/sinora/internal/ports"
	"gorm.io/gorm"
)

type kegiatanRepository struct {
	db *gorm.DB
}

func (r *kegiatanRepository) Create(ctx context.Context, kegiatan domain.Kegiatan) (domain.Kegiatan, error) {
	rec := toKegiatanModel(kegiatan)
	rec.KegiatanID = 0
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.Kegiatan{}, err
	}
	kegiatan.KegiatanID = rec.KegiatanID
	return kegiatan, nil
}

func (r *kegiatanRepository) withPenanggungJawab(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("kegiatan").
		Select("kegiatan.*, COALESCE(users.name, '') AS penanggung_jawab_nama").
		Joins("LEFT JOIN users ON users.id = kegiatan.penanggung_jawab")
}

func (r *kegiatanRepository) Get(ctx context.Context, kegiatanID int64) (domain.Kegiatan, error) {
	var row kegiatanRow
	if err := r.withPenanggungJawab(ctx).Where("kegiatan.kegiatan_id = ?", kegiatanID).Take(&row).Error; err != nil {
		return domain.Kegiatan{}, notFound(err, "kegiatan %d", kegiatanID)
	}
	return toDomainKegiatan(row), nil
}

func (r *kegiatanRepository) Update(ctx context.Context, kegiatan domain.Kegiatan) error {
	res := r.db.WithContext(ctx).
		Model(&kegiatanModel{}).
		Where("kegiatan_id = ?", kegiatan.KegiatanID).
		Updates(map[string]any{
			"nama_kegiatan":    kegiatan.NamaKegiatan,
			"kode":             kegiatan.Kode,
			"jenis_kegiatan":   kegiatan.JenisKegiatan,
			"tanggal_mulai":    kegiatan.TanggalMulai,
			"tanggal_berakhir": kegiatan.TanggalBerakhir,
			"month":            kegiatan.Month,
			"year":             kegiatan.Year,
			"penanggung_jawab": kegiatan.PenanggungJawab,
			"satuan_honor":     kegiatan.SatuanHonor,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: kegiatan %d", domain.ErrNotFound, kegiatan.KegiatanID)
	}
	return nil
}

func (r *kegiatanRepository) Delete(ctx context.Context, kegiatanID int64) error {
	res := r.db.WithContext(ctx).Where("kegiatan_id = ?", kegiatanID).Delete(&kegiatanModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: kegiatan %d", domain.ErrNotFound, kegiatanID)
	}
	return nil
}

func (r *kegiatanRepository) List(ctx context.Context, filter ports.KegiatanFilter) ([]domain.Kegiatan, int64, error) {
	q := r.withPenanggungJawab(ctx)
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("LOWER(kegiatan.nama_kegiatan) LIKE ? OR LOWER(kegiatan.kode) LIKE ? OR LOWER(users.name) LIKE ?", like, like, like)
	}
	if filter.JenisKegiatan != "" {
		q = q.Where("kegiatan.jenis_kegiatan = ?", filter.JenisKegiatan)
	}
	if filter.Month > 0 {
		q = q.Where("kegiatan.month = ?", filter.Month)
	}
	if filter.Year > 0 {
		q = q.Where("kegiatan.year = ?", filter.Year)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Select("COUNT(*)").Scan(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []kegiatanRow
	err := q.Order("kegiatan.year DESC, kegiatan.month DESC, kegiatan.kegiatan_id DESC").
		Limit(filter.PageSize).
		Offset((filter.Page - 1) * filter.PageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	items := make([]domain.Kegiatan, 0, len(rows))
	for _, row := range rows {
		items = append(items, toDomainKegiatan(row))
	}
	return items, total, nil
}

func (r *kegiatanRepository) CountByJenis(ctx context.Context, month, year int) (map[string]int64, error) {
	var rows []struct {
		JenisKegiatan string `gorm:"column:jenis_kegiatan"`
		Total         int64  `gorm:"column:total"`
	}
	q := r.db.WithContext(ctx).
		Model(&kegiatanModel{}).
		Select("jenis_kegiatan, COUNT(*) AS total").
		Group("jenis_kegiatan")
	if month > 0 {
		q = q.Where("month = ?", month)
	}
	if year > 0 {
		q = q.Where("year = ?", year)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.JenisKegiatan] = row.Total
	}
	return counts, nil
}

func (r *kegiatanRepository) Periods(ctx context.Context) (domain.Periods, error) {
	return distinctPeriods(ctx, r.db.WithContext(ctx).Model(&kegiatanModel{}))
}

// distinctPeriods reads the distinct month and year values of the query's table, ascending.
func distinctPeriods(ctx context.Context, base *gorm.DB) (domain.Periods, error) {
	periods := domain.Periods{Months: []int{}, Years: []int{}}
	if err := base.Session(&gorm.Session{}).Distinct("month").Order("month").Pluck("month", &periods.Months).Error; err != nil {
		return domain.Periods{}, err
	}
	if err := base.Session(&gorm.Session{}).Distinct("year").Order("year").Pluck("year", &periods.Years).Error; err != nil {
		return domain.Periods{}, err
	}
	return periods, nil
}

func (r *kegiatanRepository) assignments(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("kegiatan_mitra").
		Select("kegiatan_mitra.*, COALESCE(mitra.nama, '') AS nama").
		Joins("LEFT JOIN mitra ON mitra.sobat_id = kegiatan_mitra.sobat_id")
}

func (r *kegiatanRepository) listAssignments(q *gorm.DB) ([]domain.Assignment, error) {
	var rows []assignmentRow
	if err := q.Order("kegiatan_mitra.id ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]domain.Assignment, 0, len(rows))
	for _, row := range rows {
		items = append(items, toDomainAssignment(row))
	}
	return items, nil
}

func (r *kegiatanRepository) ListAssignments(ctx context.Context, kegiatanID int64) ([]domain.Assignment, error) {
	return r.listAssignments(r.assignments(ctx).Where("kegiatan_mitra.kegiatan_id = ?", kegiatanID))
}

func (r *kegiatanRepository) ListAssignmentsBySobat(ctx context.Context, sobatID string) ([]domain.Assignment, error) {
	return r.listAssignments(r.assignments(ctx).Where("kegiatan_mitra.sobat_id = ?", sobatID))
}

func (r *kegiatanRepository) AddAssignment(ctx context.Context, assignment domain.Assignment) (domain.Assignment, error) {
	rec := toAssignmentModel(assignment)
	rec.ID = 0
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.Assignment{}, fmt.Errorf("%w: mitra %s is already assigned to kegiatan %d",
				domain.ErrConflict, assignment.SobatID, assignment.KegiatanID)
		}
		return domain.Assignment{}, err
	}
	assignment.ID = rec.ID
	return assignment, nil
}

func (r *kegiatanRepository) UpdateAssignment(ctx context.Context, assignment domain.Assignment) error {
	res := r.db.WithContext(ctx).
		Model(&assignmentModel{}).
		Where("id = ?", assignment.ID).
		Updates(map[string]any{
			"sobat_id":                assignment.SobatID,
			"honor_satuan":            assignment.HonorSatuan,
			"target_volume_pekerjaan": assignment.TargetVolumePekerjaan,
			"total_honor":             assignment.TotalHonor,
			"status_mitra":            assignment.StatusMitra,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: assignment %d", domain.ErrNotFound, assignment.ID)
	}
	return nil
}

func (r *kegiatanRepository) DeleteAssignment(ctx context.Context, kegiatanID int64, sobatID string) error {
	res := r.db.WithContext(ctx).
		Where("kegiatan_id = ? AND sobat_id = ?", kegiatanID, sobatID).
		Delete(&assignmentModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: mitra %s is not assigned to kegiatan %d", domain.ErrNotFound, sobatID, kegiatanID)
	}
	return nil
}

func (r *kegiatanRepository) DeleteAssignmentsByKegiatan(ctx context.Context, kegiatanID int64) error {
	return r.db.WithContext(ctx).Where("kegiatan_id = ?", kegiatanID).Delete(&assignmentModel{}).Error
}

func (r *kegiatanRepository) DeleteAssignmentsBySobat(ctx context.Context, sobatID string) error {
	return r.db.WithContext(ctx).Where("sobat_id = ?", sobatID).Delete(&assignmentModel{}).Error
}
