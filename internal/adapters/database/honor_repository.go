package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/bps3275/sinora/internal/domain"
	"github.com/bps3275/sinora/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type honorRepository struct {
	db *gorm.DB
}

// Post writes the ledger entry and folds it into mitra_honor_monthly. The
// caller holds the mitra row lock, so the read-then-write cannot interleave.
func (r *honorRepository) Post(ctx context.Context, entry domain.LedgerEntry) (domain.MonthlyHonor, error) {
	key := entry.Key()
	current, found, err := r.lookupMonthly(ctx, key)
	if err != nil {
		return domain.MonthlyHonor{}, err
	}
	next := current + entry.Amount
	if next < 0 {
		return domain.MonthlyHonor{}, fmt.Errorf("%w: honor of mitra %s in %02d/%d would become negative",
			domain.ErrInvalidInput, key.SobatID, key.Month, key.Year)
	}

	db := r.db.WithContext(ctx)
	if found {
		err = db.Model(&monthlyHonorModel{}).
			Where("sobat_id = ? AND month = ? AND year = ?", key.SobatID, key.Month, key.Year).
			Update("total_honor", gorm.Expr("total_honor + ?", entry.Amount)).Error
	} else {
		err = db.Create(&monthlyHonorModel{
			SobatID:    key.SobatID,
			Month:      key.Month,
			Year:       key.Year,
			TotalHonor: entry.Amount,
		}).Error
	}
	if err != nil {
		return domain.MonthlyHonor{}, err
	}

	rec := ledgerModel{
		EntryID:    entry.EntryID,
		SobatID:    key.SobatID,
		Month:      key.Month,
		Year:       key.Year,
		KegiatanID: entry.KegiatanID,
		EntryType:  entry.EntryType,
		Amount:     entry.Amount,
		Note:       entry.Note,
		CreatedAt:  entry.CreatedAt,
	}
	if err := db.Create(&rec).Error; err != nil {
		return domain.MonthlyHonor{}, err
	}
	return domain.MonthlyHonor{SobatID: key.SobatID, Month: key.Month, Year: key.Year, TotalHonor: next}, nil
}

func (r *honorRepository) GetMonthly(ctx context.Context, key domain.HonorKey) (int64, error) {
	total, _, err := r.lookupMonthly(ctx, key)
	return total, err
}

func (r *honorRepository) lookupMonthly(ctx context.Context, key domain.HonorKey) (int64, bool, error) {
	var rec monthlyHonorModel
	err := r.db.WithContext(ctx).
		Where("sobat_id = ? AND month = ? AND year = ?", key.SobatID, key.Month, key.Year).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rec.TotalHonor, true, nil
}

// GetMonthlyMany returns a total for every key; keys without a row map to 0.
func (r *honorRepository) GetMonthlyMany(ctx context.Context, keys []domain.HonorKey) (map[domain.HonorKey]int64, error) {
	result := make(map[domain.HonorKey]int64, len(keys))
	seen := make(map[string]struct{}, len(keys))
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		result[key] = 0
		if _, ok := seen[key.SobatID]; !ok {
			seen[key.SobatID] = struct{}{}
			ids = append(ids, key.SobatID)
		}
	}
	for _, part := range chunk(ids) {
		var rows []monthlyHonorModel
		if err := r.db.WithContext(ctx).Where("sobat_id IN ?", part).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			key := domain.HonorKey{SobatID: row.SobatID, Month: row.Month, Year: row.Year}
			if _, wanted := result[key]; wanted {
				result[key] = row.TotalHonor
			}
		}
	}
	return result, nil
}

func periodScope(month, year int, prefix string) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if month > 0 {
			q = q.Where(prefix+"month = ?", month)
		}
		if year > 0 {
			q = q.Where(prefix+"year = ?", year)
		}
		return q
	}
}

func toMonthly(rows []monthlyHonorModel) []domain.MonthlyHonor {
	items := make([]domain.MonthlyHonor, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.MonthlyHonor{
			SobatID:    row.SobatID,
			Month:      row.Month,
			Year:       row.Year,
			TotalHonor: row.TotalHonor,
		})
	}
	return items
}

func (r *honorRepository) ListMonthly(ctx context.Context, month, year int) ([]domain.MonthlyHonor, error) {
	var rows []monthlyHonorModel
	if err := r.db.WithContext(ctx).
		Scopes(periodScope(month, year, "")).
		Order("sobat_id, year, month").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toMonthly(rows), nil
}

func (r *honorRepository) ListMonthlyBySobat(ctx context.Context, sobatID string) ([]domain.MonthlyHonor, error) {
	var rows []monthlyHonorModel
	if err := r.db.WithContext(ctx).
		Where("sobat_id = ?", sobatID).
		Order("year, month").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toMonthly(rows), nil
}

func (r *honorRepository) DeleteMonthlyBySobat(ctx context.Context, sobatID string) error {
	return r.db.WithContext(ctx).Where("sobat_id = ?", sobatID).Delete(&monthlyHonorModel{}).Error
}

func (r *honorRepository) ExpectedTotals(ctx context.Context, month, year int) ([]domain.MonthlyHonor, error) {
	var rows []monthlyHonorModel
	if err := r.db.WithContext(ctx).
		Table("kegiatan_mitra AS km").
		Select("km.sobat_id AS sobat_id, k.month AS month, k.year AS year, SUM(km.total_honor) AS total_honor").
		Joins("JOIN kegiatan AS k ON k.kegiatan_id = km.kegiatan_id").
		Scopes(periodScope(month, year, "k.")).
		Group("km.sobat_id, k.month, k.year").
		Order("km.sobat_id, k.year, k.month").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toMonthly(rows), nil
}

func (r *honorRepository) SumTotal(ctx context.Context, month, year int) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&monthlyHonorModel{}).
		Scopes(periodScope(month, year, "")).
		Select("COALESCE(SUM(total_honor), 0)").
		Scan(&total).Error
	return total, err
}

func (r *honorRepository) Periods(ctx context.Context) (domain.Periods, error) {
	return distinctPeriods(ctx, r.db.WithContext(ctx).Model(&monthlyHonorModel{}))
}

// Ledger lists entries newest first.
func (r *honorRepository) Ledger(ctx context.Context, filter ports.LedgerFilter) ([]domain.LedgerEntry, error) {
	var rows []ledgerModel
	if err := r.db.WithContext(ctx).
		Where("sobat_id = ?", filter.SobatID).
		Scopes(periodScope(filter.Month, filter.Year, "")).
		Order("id DESC").
		Limit(filter.Limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]domain.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, toDomainLedgerEntry(row))
	}
	return items, nil
}

func (r *honorRepository) ListLimits(ctx context.Context) ([]domain.HonorLimit, error) {
	var rows []honorLimitModel
	if err := r.db.WithContext(ctx).Order("jenis_petugas").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]domain.HonorLimit, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.HonorLimit{JenisPetugas: row.JenisPetugas, HonorMax: row.HonorMax})
	}
	return items, nil
}

func (r *honorRepository) GetLimits(ctx context.Context) (map[string]int64, error) {
	limits, err := r.ListLimits(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(limits))
	for _, l := range limits {
		out[l.JenisPetugas] = l.HonorMax
	}
	return out, nil
}

func (r *honorRepository) UpsertLimit(ctx context.Context, limit domain.HonorLimit) error {
	rec := honorLimitModel{JenisPetugas: limit.JenisPetugas, HonorMax: limit.HonorMax}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "jenis_petugas"}},
		DoUpdates: clause.AssignmentColumns([]string{"honor_max"}),
	}).Create(&rec).Error
}
