package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bps3275/sinora/internal/domain"
	"github.com/bps3275/sinora/internal/ports"
	"github.com/google/uuid"
)

const defaultLedgerLimit = 200

// honorDelta accumulates the net change per mitra-month that a write is about to post.
type honorDelta map[domain.HonorKey]int64

func (d honorDelta) add(key domain.HonorKey, amount int64) {
	d[key] += amount
}

func (d honorDelta) keys() []domain.HonorKey {
	keys := make([]domain.HonorKey, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sortHonorKeys(keys)
	return keys
}

func sortHonorKeys(keys []domain.HonorKey) {
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.SobatID != b.SobatID {
			return a.SobatID < b.SobatID
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})
}

// post appends one ledger entry. Zero amounts are not recorded.
func (s *Service) post(ctx context.Context, honor ports.HonorRepository, entryType string, key domain.HonorKey, kegiatanID *int64, amount int64, note string) error {
	if amount == 0 {
		return nil
	}
	_, err := honor.Post(ctx, domain.LedgerEntry{
		EntryID:    uuid.New(),
		SobatID:    key.SobatID,
		Month:      key.Month,
		Year:       key.Year,
		KegiatanID: kegiatanID,
		EntryType:  entryType,
		Amount:     amount,
		Note:       note,
		CreatedAt:  s.nowFn(),
	})
	return err
}

// checkLimits fails when any positive delta would push a mitra-month past the
// limit for its jenis_petugas. Mitra rows must already be locked by the caller.
func (s *Service) checkLimits(ctx context.Context, honor ports.HonorRepository, mitra map[string]domain.Mitra, delta honorDelta) error {
	if !s.cfg.EnforceHonorLimit || len(delta) == 0 {
		return nil
	}
	limits, err := honor.GetLimits(ctx)
	if err != nil {
		return err
	}
	if len(limits) == 0 {
		return nil
	}
	keys := delta.keys()
	current, err := honor.GetMonthlyMany(ctx, keys)
	if err != nil {
		return err
	}
	for _, key := range keys {
		amount := delta[key]
		if amount <= 0 {
			continue
		}
		m, ok := mitra[key.SobatID]
		if !ok {
			continue
		}
		max, ok := limits[m.JenisPetugas]
		if !ok {
			continue
		}
		projected := current[key] + amount
		if projected > max {
			return &domain.HonorLimitError{
				SobatID:   key.SobatID,
				Month:     key.Month,
				Year:      key.Year,
				Projected: projected,
				Limit:     max,
			}
		}
	}
	return nil
}

// PreviewHonor is the read-only form of the limit check used by the kegiatan forms.
func (s *Service) PreviewHonor(ctx context.Context, req HonorPreviewRequest) (HonorPreviewResponse, error) {
	sobatID := strings.TrimSpace(req.SobatID)
	if sobatID == "" {
		return HonorPreviewResponse{}, fmt.Errorf("%w: sobat_id is required", domain.ErrInvalidInput)
	}
	if err := validateRequiredPeriod(req.Month, req.Year); err != nil {
		return HonorPreviewResponse{}, err
	}
	if req.Additional < 0 {
		return HonorPreviewResponse{}, fmt.Errorf("%w: additional must not be negative", domain.ErrInvalidInput)
	}

	mitra, err := s.mitra.Get(ctx, sobatID)
	if err != nil {
		return HonorPreviewResponse{}, err
	}
	key := domain.HonorKey{SobatID: sobatID, Month: req.Month, Year: req.Year}
	current, err := s.honor.GetMonthly(ctx, key)
	if err != nil {
		return HonorPreviewResponse{}, err
	}

	var excluded int64
	if req.ExcludeKegiatanID > 0 {
		k, err := s.kegiatan.Get(ctx, req.ExcludeKegiatanID)
		if err != nil {
			return HonorPreviewResponse{}, err
		}
		if k.Month == req.Month && k.Year == req.Year {
			assignments, err := s.kegiatan.ListAssignments(ctx, k.KegiatanID)
			if err != nil {
				return HonorPreviewResponse{}, err
			}
			for _, a := range assignments {
				if a.SobatID == sobatID {
					excluded += a.TotalHonor
				}
			}
		}
	}

	limits, err := s.honor.GetLimits(ctx)
	if err != nil {
		return HonorPreviewResponse{}, err
	}
	resp := HonorPreviewResponse{
		Current:    current,
		Additional: req.Additional,
		Projected:  current - excluded + req.Additional,
	}
	if max, ok := limits[mitra.JenisPetugas]; ok {
		resp.HonorMax = &max
		resp.Exceeds = resp.Projected > max
	}
	return resp, nil
}

func (s *Service) ListHonorLimits(ctx context.Context) ([]domain.HonorLimit, error) {
	limits, err := s.honor.ListLimits(ctx)
	if err != nil {
		return nil, err
	}
	if limits == nil {
		limits = []domain.HonorLimit{}
	}
	return limits, nil
}

func (s *Service) UpdateHonorLimit(ctx context.Context, jenisPetugas string, honorMax int64) (domain.HonorLimit, error) {
	jenisPetugas = strings.TrimSpace(jenisPetugas)
	if !domain.ValidJenisPetugas(jenisPetugas) {
		return domain.HonorLimit{}, fmt.Errorf("%w: unknown jenis_petugas %q", domain.ErrInvalidInput, jenisPetugas)
	}
	if honorMax < 0 {
		return domain.HonorLimit{}, fmt.Errorf("%w: honor_max must not be negative", domain.ErrInvalidInput)
	}
	limit := domain.HonorLimit{JenisPetugas: jenisPetugas, HonorMax: honorMax}
	err := s.uow.RunInTransaction(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		if err := tx.Honor.UpsertLimit(ctx, limit); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, eventTypeHonorLimitUpdated, jenisPetugas, map[string]any{
			"jenis_petugas": jenisPetugas,
			"honor_max":     honorMax,
		})
	})
	if err != nil {
		return domain.HonorLimit{}, err
	}
	return limit, nil
}

func (s *Service) TotalHonor(ctx context.Context, month, year int) (TotalHonorResponse, error) {
	if err := validateOptionalPeriod(month, year); err != nil {
		return TotalHonorResponse{}, err
	}
	total, err := s.honor.SumTotal(ctx, month, year)
	if err != nil {
		return TotalHonorResponse{}, err
	}
	return TotalHonorResponse{Month: month, Year: year, TotalHonor: total}, nil
}

func (s *Service) CurrentMonthTotalHonor(ctx context.Context, now time.Time) (TotalHonorResponse, error) {
	return s.TotalHonor(ctx, int(now.Month()), now.Year())
}

func (s *Service) HonorLedger(ctx context.Context, filter ports.LedgerFilter) ([]domain.LedgerEntry, error) {
	filter.SobatID = strings.TrimSpace(filter.SobatID)
	if filter.SobatID == "" {
		return nil, fmt.Errorf("%w: sobat_id is required", domain.ErrInvalidInput)
	}
	if err := validateOptionalPeriod(filter.Month, filter.Year); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 || filter.Limit > 1000 {
		filter.Limit = defaultLedgerLimit
	}
	entries, err := s.honor.Ledger(ctx, filter)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	return entries, nil
}

// lockedTotals reads expected and projected totals with every involved mitra
// locked. It re-reads until no unlocked mitra shows up.
func lockedTotals(ctx context.Context, tx ports.TxRepositories, month, year int) ([]domain.MonthlyHonor, []domain.MonthlyHonor, error) {
	locked := make(map[string]struct{})
	for {
		expected, err := tx.Honor.ExpectedTotals(ctx, month, year)
		if err != nil {
			return nil, nil, err
		}
		actual, err := tx.Honor.ListMonthly(ctx, month, year)
		if err != nil {
			return nil, nil, err
		}

		var pending []string
		for _, rows := range [][]domain.MonthlyHonor{expected, actual} {
			for _, row := range rows {
				if _, ok := locked[row.SobatID]; !ok {
					pending = append(pending, row.SobatID)
				}
			}
		}
		if len(pending) == 0 {
			return expected, actual, nil
		}
		pending = uniqueSorted(pending)
		if _, err := tx.Mitra.LockMany(ctx, pending); err != nil {
			return nil, nil, err
		}
		for _, id := range pending {
			locked[id] = struct{}{}
		}
	}
}

// RebuildMonthlyHonor reconciles the monthly projection with the assignments,
// posting a REBUILD entry for every difference.
func (s *Service) RebuildMonthlyHonor(ctx context.Context, month, year int) (RebuildResponse, error) {
	if err := validateOptionalPeriod(month, year); err != nil {
		return RebuildResponse{}, err
	}
	var resp RebuildResponse
	err := s.uow.RunInTransaction(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		expected, actual, err := lockedTotals(ctx, tx, month, year)
		if err != nil {
			return err
		}

		diff := honorDelta{}
		for _, row := range expected {
			diff.add(row.Key(), row.TotalHonor)
		}
		for _, row := range actual {
			diff.add(row.Key(), -row.TotalHonor)
		}

		resp.Checked = len(diff)
		for _, key := range diff.keys() {
			amount := diff[key]
			if amount == 0 {
				continue
			}
			if err := s.post(ctx, tx.Honor, domain.EntryRebuild, key, nil, amount, "reconciled from assignments"); err != nil {
				return err
			}
			resp.Corrected++
		}
		if resp.Corrected == 0 {
			return nil
		}
		return s.enqueue(ctx, tx, eventTypeHonorRebuilt, fmt.Sprintf("%04d-%02d", year, month), map[string]any{
			"month":     month,
			"year":      year,
			"checked":   resp.Checked,
			"corrected": resp.Corrected,
		})
	})
	if err != nil {
		return RebuildResponse{}, err
	}
	logger().InfoContext(ctx, "monthly honor rebuilt",
		"operation", "rebuild_monthly_honor",
		"outcome", "success",
		"month", month,
		"year", year,
		"checked", resp.Checked,
		"corrected", resp.Corrected,
	)
	return resp, nil
}
