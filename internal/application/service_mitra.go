package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/bps3275/sinora/internal/domain"
	"github.com/bps3275/sinora/internal/ports"
)

var mitraSortColumns = map[string]struct{}{
	"nama":          {},
	"honor_bulanan": {},
	"sobat_id":      {},
}

func (s *Service) CreateMitra(ctx context.Context, mitra domain.Mitra) (domain.Mitra, error) {
	mitra.Normalize()
	if err := mitra.Validate(); err != nil {
		return domain.Mitra{}, err
	}
	err := s.uow.RunInTransaction(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		if err := tx.Mitra.Create(ctx, mitra); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, eventTypeMitraCreated, mitra.SobatID, map[string]any{
			"sobat_id":      mitra.SobatID,
			"jenis_petugas": mitra.JenisPetugas,
		})
	})
	if err != nil {
		return domain.Mitra{}, err
	}
	return mitra, nil
}

func (s *Service) GetMitra(ctx context.Context, sobatID string) (domain.Mitra, error) {
	sobatID = strings.TrimSpace(sobatID)
	if sobatID == "" {
		return domain.Mitra{}, fmt.Errorf("%w: sobat_id is required", domain.ErrInvalidInput)
	}
	return s.mitra.Get(ctx, sobatID)
}

// UpdateMitra overwrites every field of an existing mitra; the path id wins.
func (s *Service) UpdateMitra(ctx context.Context, sobatID string, mitra domain.Mitra) (domain.Mitra, error) {
	mitra.SobatID = sobatID
	mitra.Normalize()
	if err := mitra.Validate(); err != nil {
		return domain.Mitra{}, err
	}
	err := s.uow.RunInTransaction(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		return tx.Mitra.Update(ctx, mitra)
	})
	if err != nil {
		return domain.Mitra{}, err
	}
	return mitra, nil
}

// DeleteMitra reverses the mitra's accrued honor before removing it with its assignments.
func (s *Service) DeleteMitra(ctx context.Context, sobatID string) error {
	sobatID = strings.TrimSpace(sobatID)
	if sobatID == "" {
		return fmt.Errorf("%w: sobat_id is required", domain.ErrInvalidInput)
	}
	return s.uow.RunInTransaction(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		locked, err := tx.Mitra.LockMany(ctx, []string{sobatID})
		if err != nil {
			return err
		}
		if _, ok := locked[sobatID]; !ok {
			return fmt.Errorf("%w: mitra %s", domain.ErrNotFound, sobatID)
		}

		monthly, err := tx.Honor.ListMonthlyBySobat(ctx, sobatID)
		if err != nil {
			return err
		}
		var reversed int64
		for _, row := range monthly {
			if err := s.post(ctx, tx.Honor, domain.EntryReverse, row.Key(), nil, -row.TotalHonor, "mitra deleted"); err != nil {
				return err
			}
			reversed += row.TotalHonor
		}
		if err := tx.Honor.DeleteMonthlyBySobat(ctx, sobatID); err != nil {
			return err
		}
		if err := tx.Kegiatan.DeleteAssignmentsBySobat(ctx, sobatID); err != nil {
			return err
		}
		if err := tx.Mitra.Delete(ctx, sobatID); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, eventTypeMitraDeleted, sobatID, map[string]any{
			"sobat_id":       sobatID,
			"reversed_honor": reversed,
		})
	})
}

func (s *Service) ListMitra(ctx context.Context, filter ports.MitraFilter) (MitraListResponse, error) {
	if err := normalizeMitraFilter(&filter); err != nil {
		return MitraListResponse{}, err
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)
	items, total, err := s.mitra.List(ctx, filter)
	if err != nil {
		return MitraListResponse{}, err
	}
	if items == nil {
		items = []domain.MitraSummary{}
	}
	return MitraListResponse{
		Items:      items,
		TotalCount: total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	}, nil
}

func (s *Service) ListAllMitra(ctx context.Context, filter ports.MitraFilter) ([]domain.MitraSummary, error) {
	if err := normalizeMitraFilter(&filter); err != nil {
		return nil, err
	}
	items, err := s.mitra.ListAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.MitraSummary{}
	}
	return items, nil
}

func (s *Service) MitraCounts(ctx context.Context) (MitraCountsResponse, error) {
	counts, err := s.mitra.CountByJenisPetugas(ctx)
	if err != nil {
		return MitraCountsResponse{}, err
	}
	resp := MitraCountsResponse{
		Pendataan:              counts[domain.JenisPetugasPendataan],
		Pengolahan:             counts[domain.JenisPetugasPengolahan],
		PendataanDanPengolahan: counts[domain.JenisPetugasPendataanPengolahan],
	}
	for _, n := range counts {
		resp.Total += n
	}
	return resp, nil
}

func (s *Service) MitraDates(ctx context.Context) (domain.Periods, error) {
	return s.honor.Periods(ctx)
}

func (s *Service) MitraKegiatan(ctx context.Context, sobatID string, filter ports.MitraKegiatanFilter) ([]domain.MitraKegiatan, error) {
	sobatID = strings.TrimSpace(sobatID)
	if sobatID == "" {
		return nil, fmt.Errorf("%w: sobat_id is required", domain.ErrInvalidInput)
	}
	if err := validateOptionalPeriod(filter.Month, filter.Year); err != nil {
		return nil, err
	}
	filter.Search = strings.TrimSpace(filter.Search)
	items, err := s.mitra.ListKegiatan(ctx, sobatID, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.MitraKegiatan{}
	}
	return items, nil
}

// MitraMonthlyHonor reports the accrued honor of one mitra against its limit.
func (s *Service) MitraMonthlyHonor(ctx context.Context, sobatID string, month, year int) (MonthlyHonorResponse, error) {
	sobatID = strings.TrimSpace(sobatID)
	if sobatID == "" {
		return MonthlyHonorResponse{}, fmt.Errorf("%w: sobat_id is required", domain.ErrInvalidInput)
	}
	if err := validateRequiredPeriod(month, year); err != nil {
		return MonthlyHonorResponse{}, err
	}
	mitra, err := s.mitra.Get(ctx, sobatID)
	if err != nil {
		return MonthlyHonorResponse{}, err
	}
	total, err := s.honor.GetMonthly(ctx, domain.HonorKey{SobatID: sobatID, Month: month, Year: year})
	if err != nil {
		return MonthlyHonorResponse{}, err
	}
	limits, err := s.honor.GetLimits(ctx)
	if err != nil {
		return MonthlyHonorResponse{}, err
	}

	resp := MonthlyHonorResponse{
		SobatID:      sobatID,
		Month:        month,
		Year:         year,
		JenisPetugas: mitra.JenisPetugas,
		TotalHonor:   total,
	}
	if max, ok := limits[mitra.JenisPetugas]; ok {
		remaining := max - total
		resp.HonorMax = &max
		resp.Remaining = &remaining
	}
	return resp, nil
}

func normalizeMitraFilter(filter *ports.MitraFilter) error {
	filter.Search = strings.TrimSpace(filter.Search)
	filter.JenisPetugas = strings.TrimSpace(filter.JenisPetugas)
	if filter.JenisPetugas != "" && !domain.ValidJenisPetugas(filter.JenisPetugas) {
		return fmt.Errorf("%w: unknown jenis_petugas %q", domain.ErrInvalidInput, filter.JenisPetugas)
	}
	if err := validateOptionalPeriod(filter.Month, filter.Year); err != nil {
		return err
	}

	filter.SortBy = strings.ToLower(strings.TrimSpace(filter.SortBy))
	if filter.SortBy == "" {
		filter.SortBy = "nama"
	}
	if _, ok := mitraSortColumns[filter.SortBy]; !ok {
		return fmt.Errorf("%w: sort_by must be nama, honor_bulanan or sobat_id", domain.ErrInvalidInput)
	}
	filter.SortOrder = strings.ToLower(strings.TrimSpace(filter.SortOrder))
	switch filter.SortOrder {
	case "":
		filter.SortOrder = "asc"
	case "asc", "desc":
	default:
		return fmt.Errorf("%w: sort_order must be asc or desc", domain.ErrInvalidInput)
	}
	return nil
}
