package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bps3275/sinora/internal/domain"
	"github.com/bps3275/sinora/internal/ports"
)

// prepareKegiatan normalizes the request into a kegiatan and its assignment set.
// The responsible user is resolved later inside the transaction.
func prepareKegiatan(req KegiatanRequest) (domain.Kegiatan, []domain.Assignment, error) {
	k := domain.Kegiatan{
		NamaKegiatan:    req.NamaKegiatan,
		Kode:            req.Kode,
		JenisKegiatan:   req.JenisKegiatan,
		TanggalMulai:    req.TanggalMulai,
		TanggalBerakhir: req.TanggalBerakhir,
		SatuanHonor:     req.SatuanHonor,
	}
	if err := k.Normalize(); err != nil {
		return domain.Kegiatan{}, nil, err
	}
	assignments := make([]domain.Assignment, 0, len(req.Mitra))
	for _, in := range req.Mitra {
		assignments = append(assignments, toAssignment(in))
	}
	if err := domain.ValidateAssignments(k.JenisKegiatan, assignments); err != nil {
		return domain.Kegiatan{}, nil, err
	}
	return k, assignments, nil
}

func toAssignment(in AssignmentInput) domain.Assignment {
	return domain.Assignment{
		SobatID:               in.SobatID,
		HonorSatuan:           in.HonorSatuan,
		TargetVolumePekerjaan: in.TargetVolumePekerjaan,
		StatusMitra:           in.StatusMitra,
	}
}

func resolvePenanggungJawab(ctx context.Context, users ports.UserRepository, req KegiatanRequest) (domain.User, error) {
	if req.PenanggungJawabID > 0 {
		user, err := users.GetByID(ctx, req.PenanggungJawabID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, fmt.Errorf("%w: penanggung_jawab user %d not found", domain.ErrInvalidInput, req.PenanggungJawabID)
		}
		return user, err
	}
	name := strings.TrimSpace(req.PenanggungJawab)
	if name == "" {
		return domain.User{}, fmt.Errorf("%w: penanggung_jawab is required", domain.ErrInvalidInput)
	}
	user, err := users.GetByName(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, fmt.Errorf("%w: penanggung_jawab user %q not found", domain.ErrInvalidInput, name)
	}
	return user, err
}

// lockMitra locks every listed mitra and fails on the first unknown id in required.
func lockMitra(ctx context.Context, repo ports.MitraRepository, ids []string, required []string) (map[string]domain.Mitra, error) {
	ids = uniqueSorted(ids)
	locked, err := repo.LockMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range required {
		if _, ok := locked[id]; !ok {
			return nil, fmt.Errorf("%w: mitra %s not found", domain.ErrInvalidInput, id)
		}
	}
	return locked, nil
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func sobatIDs(assignments []domain.Assignment) []string {
	ids := make([]string, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.SobatID)
	}
	return ids
}

func honorKeyOf(k domain.Kegiatan, sobatID string) domain.HonorKey {
	return domain.HonorKey{SobatID: sobatID, Month: k.Month, Year: k.Year}
}

func (s *Service) CreateKegiatan(ctx context.Context, req KegiatanRequest) (CreateKegiatanResponse, error) {
	k, assignments, err := prepareKegiatan(req)
	if err != nil {
		return CreateKegiatanResponse{}, err
	}

	var created domain.Kegiatan
	err = s.uow.RunInTransaction(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		pj, err := resolvePenanggungJawab(ctx, tx.Users, req)
		if err != nil {
			return err
		}
		k.PenanggungJawab = pj.ID
		k.PenanggungJawabNama = pj.Name
		if err := k.Validate(); err != nil {
			return err
		}

		ids := sobatIDs(assignments)
		locked, err := lockMitra(ctx, tx.Mitra, ids, ids)
		if err != nil {
			return err
		}
		delta := honorDelta{}
		for _, a := range assignments {
			delta.add(honorKeyOf(k, a.SobatID), a.TotalHonor)
		}
		if err := s.checkLimits(ctx, tx.Honor, locked, delta); err != nil {
			return err
		}

		created, err = tx.Kegiatan.Create(ctx, k)
		if err != nil {
			return err
		}
		kegiatanID := created.KegiatanID
		for _, a := range assignments {
			a.KegiatanID = kegiatanID
			if _, err := tx.Kegiatan.AddAssignment(ctx, a); err != nil {
				return err
			}
			if err := s.post(ctx, tx.Honor, domain.EntryAccrue, honorKeyOf(created, a.SobatID), &kegiatanID, a.TotalHonor, "kegiatan created"); err != nil {
				return err
			}
		}
		return s.enqueue(ctx, tx, eventTypeKegiatanCreated, fmt.Sprint(kegiatanID), map[string]any{
			"kegiatan_id": kegiatanID,
			"month":       created.Month,
			"year":        created.Year,
			"mitra_count": len(assignments),
		})
	})
	if err != nil {
		return CreateKegiatanResponse{}, err
	}
	return CreateKegiatanResponse{KegiatanID: created.KegiatanID}, nil
}

func (s *Service) GetKegiatan(ctx context.Context, kegiatanID int64) (domain.Kegiatan, error) {
	return s.kegiatan.Get(ctx, kegiatanID)
}

func (s *Service) KegiatanDetail(ctx context.Context, kegiatanID int64) (domain.KegiatanDetail, error) {
	k, err := s.kegiatan.Get(ctx, kegiatanID)
	if err != nil {
		return domain.KegiatanDetail{}, err
	}
	assignments, err := s.kegiatan.ListAssignments(ctx, kegiatanID)
	if err != nil {
		return domain.KegiatanDetail{}, err
	}
	detail := domain.KegiatanDetail{Kegiatan: k, Peserta: assignments}
	if detail.Peserta == nil {
		detail.Peserta = []domain.Assignment{}
	}
	if len(assignments) > 0 {
		detail.HonorSatuan = assignments[0].HonorSatuan
	}
	for _, a := range assignments {
		detail.TotalHonor += a.TotalHonor
	}
	return detail, nil
}

func (s *Service) KegiatanMitra(ctx context.Context, kegiatanID int64) ([]domain.Assignment, error) {
	assignments, err := s.kegiatan.ListAssignments(ctx, kegiatanID)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, fmt.Errorf("%w: kegiatan %d has no mitra", domain.ErrNotFound, kegiatanID)
	}
	return assignments, nil
}

func (s *Service) ListKegiatan(ctx context.Context, filter ports.KegiatanFilter) (KegiatanListResponse, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	filter.JenisKegiatan = strings.TrimSpace(filter.JenisKegiatan)
	if filter.JenisKegiatan != "" && !domain.ValidJenisKegiatan(filter.JenisKegiatan) {
		return KegiatanListResponse{}, fmt.Errorf("%w: jenis_kegiatan must be Lapangan or Pengolahan", domain.ErrInvalidInput)
	}
	if err := validateOptionalPeriod(filter.Month, filter.Year); err != nil {
		return KegiatanListResponse{}, err
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)
	items, total, err := s.kegiatan.List(ctx, filter)
	if err != nil {
		return KegiatanListResponse{}, err
	}
	if items == nil {
		items = []domain.Kegiatan{}
	}
	return KegiatanListResponse{
		Items:      items,
		TotalCount: total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	}, nil
}

// UpdateKegiatan replaces the kegiatan and its assignment set. Old accruals are
// reversed under the old period and the new set accrues under the new one.
func (s *Service) UpdateKegiatan(ctx context.Context, kegiatanID int64, req KegiatanRequest) error {
	k, assignments, err := prepareKegiatan(req)
	if err != nil {
		return err
	}
	k.KegiatanID = kegiatanID

	return s.uow.RunInTransaction(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		existing, err := tx.Kegiatan.Get(ctx, kegiatanID)
		if err != nil {
			return err
		}
		pj, err := resolvePenanggungJawab(ctx, tx.Users, req)
		if err != nil {
			return err
		}
		k.PenanggungJawab = pj.ID
		k.PenanggungJawabNama = pj.Name
		if err := k.Validate(); err != nil {
			return err
		}

		old, err := tx.Kegiatan.ListAssignments(ctx, kegiatanID)
		if err != nil {
			return err
		}
		newIDs := sobatIDs(assignments)
		locked, err := lockMitra(ctx, tx.Mitra, append(sobatIDs(old), newIDs...), newIDs)
		if err != nil {
			return err
		}

		delta := honorDelta{}
		for _, o := range old {
			delta.add(honorKeyOf(existing, o.SobatID), -o.TotalHonor)
		}
		for _, a := range assignments {
			delta.add(honorKeyOf(k, a.SobatID), a.TotalHonor)
		}
		if err := s.checkLimits(ctx, tx.Honor, locked, delta); err != nil {
			return err
		}

		if err := tx.Kegiatan.Update(ctx, k); err != nil {
			return err
		}
		for _, o := range old {
			if err := s.post(ctx, tx.Honor, domain.EntryReverse, honorKeyOf(existing, o.SobatID), &kegiatanID, -o.TotalHonor, "kegiatan updated"); err != nil {
				return err
			}
		}

		oldBySobat := make(map[string]domain.Assignment, len(old))
		for _, o := range old {
			oldBySobat[o.SobatID] = o
		}
		listed := make(map[string]struct{}, len(assignments))
		for _, a := range assignments {
			a.KegiatanID = kegiatanID
			listed[a.SobatID] = struct{}{}
			if prev, ok := oldBySobat[a.SobatID]; ok {
				a.ID = prev.ID
				if err := tx.Kegiatan.UpdateAssignment(ctx, a); err != nil {
					return err
				}
			} else if _, err := tx.Kegiatan.AddAssignment(ctx, a); err != nil {
				return err
			}
			if err := s.post(ctx, tx.Honor, domain.EntryAccrue, honorKeyOf(k, a.SobatID), &kegiatanID, a.TotalHonor, "kegiatan updated"); err != nil {
				return err
			}
		}
		for _, o := range old {
			if _, ok := listed[o.SobatID]; ok {
				continue
			}
			if err := tx.Kegiatan.DeleteAssignment(ctx, kegiatanID, o.SobatID); err != nil {
				return err
			}
		}

		return s.enqueue(ctx, tx, eventTypeKegiatanUpdated, fmt.Sprint(kegiatanID), map[string]any{
			"kegiatan_id": kegiatanID,
			"month":       k.Month,
			"year":        k.Year,
			"mitra_count": len(assignments),
		})
	})
}

// ReplaceAssignment swaps the mitra of one assignment or adjusts its rate,
// volume or status in place.
func (s *Service) ReplaceAssignment(ctx context.Context, kegiatanID int64, oldSobatID string, in AssignmentInput) error {
	oldSobatID = strings.TrimSpace(oldSobatID)
	if oldSobatID == "" {
		return fmt.Errorf("%w: sobat_id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.SobatID) == "" {
		in.SobatID = oldSobatID
	}

	return s.uow.RunInTransaction(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		k, err := tx.Kegiatan.Get(ctx, kegiatanID)
		if err != nil {
			return err
		}
		next := []domain.Assignment{toAssignment(in)}
		if err := domain.ValidateAssignments(k.JenisKegiatan, next); err != nil {
			return err
		}
		replacement := next[0]
		replacement.KegiatanID = kegiatanID

		current, err := tx.Kegiatan.ListAssignments(ctx, kegiatanID)
		if err != nil {
			return err
		}
		var prev *domain.Assignment
		for i := range current {
			switch current[i].SobatID {
			case oldSobatID:
				prev = &current[i]
			case replacement.SobatID:
				return fmt.Errorf("%w: mitra %s is already assigned to kegiatan %d", domain.ErrConflict, replacement.SobatID, kegiatanID)
			}
		}
		if prev == nil {
			return fmt.Errorf("%w: mitra %s is not assigned to kegiatan %d", domain.ErrNotFound, oldSobatID, kegiatanID)
		}

		locked, err := lockMitra(ctx, tx.Mitra, []string{oldSobatID, replacement.SobatID}, []string{replacement.SobatID})
		if err != nil {
			return err
		}
		delta := honorDelta{}
		delta.add(honorKeyOf(k, prev.SobatID), -prev.TotalHonor)
		delta.add(honorKeyOf(k, replacement.SobatID), replacement.TotalHonor)
		if err := s.checkLimits(ctx, tx.Honor, locked, delta); err != nil {
			return err
		}

		reverseType, accrueType, note := domain.EntryReverse, domain.EntryAccrue, "mitra replaced"
		if replacement.SobatID == prev.SobatID {
			reverseType, accrueType, note = domain.EntryAdjust, domain.EntryAdjust, "assignment adjusted"
			replacement.ID = prev.ID
			if err := tx.Kegiatan.UpdateAssignment(ctx, replacement); err != nil {
				return err
			}
		} else {
			if err := tx.Kegiatan.DeleteAssignment(ctx, kegiatanID, prev.SobatID); err != nil {
				return err
			}
			if _, err := tx.Kegiatan.AddAssignment(ctx, replacement); err != nil {
				return err
			}
		}
		if err := s.post(ctx, tx.Honor, reverseType, honorKeyOf(k, prev.SobatID), &kegiatanID, -prev.TotalHonor, note); err != nil {
			return err
		}
		if err := s.post(ctx, tx.Honor, accrueType, honorKeyOf(k, replacement.SobatID), &kegiatanID, replacement.TotalHonor, note); err != nil {
			return err
		}

		return s.enqueue(ctx, tx, eventTypeKegiatanUpdated, fmt.Sprint(kegiatanID), map[string]any{
			"kegiatan_id":  kegiatanID,
			"old_sobat_id": prev.SobatID,
			"new_sobat_id": replacement.SobatID,
		})
	})
}

func (s *Service) RemoveAssignment(ctx context.Context, kegiatanID int64, sobatID string) error {
	sobatID = strings.TrimSpace(sobatID)
	if sobatID == "" {
		return fmt.Errorf("%w: sobat_id is required", domain.ErrInvalidInput)
	}
	return s.uow.RunInTransaction(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		k, err := tx.Kegiatan.Get(ctx, kegiatanID)
		if err != nil {
			return err
		}
		current, err := tx.Kegiatan.ListAssignments(ctx, kegiatanID)
		if err != nil {
			return err
		}
		var target *domain.Assignment
		for i := range current {
			if current[i].SobatID == sobatID {
				target = &current[i]
				break
			}
		}
		if target == nil {
			return fmt.Errorf("%w: mitra %s is not assigned to kegiatan %d", domain.ErrNotFound, sobatID, kegiatanID)
		}
		if _, err := tx.Mitra.LockMany(ctx, []string{sobatID}); err != nil {
			return err
		}
		if err := tx.Kegiatan.DeleteAssignment(ctx, kegiatanID, sobatID); err != nil {
			return err
		}
		if err := s.post(ctx, tx.Honor, domain.EntryReverse, honorKeyOf(k, sobatID), &kegiatanID, -target.TotalHonor, "assignment removed"); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, eventTypeKegiatanUpdated, fmt.Sprint(kegiatanID), map[string]any{
			"kegiatan_id":      kegiatanID,
			"removed_sobat_id": sobatID,
		})
	})
}

func (s *Service) DeleteKegiatan(ctx context.Context, kegiatanID int64) error {
	return s.uow.RunInTransaction(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		k, err := tx.Kegiatan.Get(ctx, kegiatanID)
		if err != nil {
			return err
		}
		current, err := tx.Kegiatan.ListAssignments(ctx, kegiatanID)
		if err != nil {
			return err
		}
		if _, err := tx.Mitra.LockMany(ctx, uniqueSorted(sobatIDs(current))); err != nil {
			return err
		}
		for _, a := range current {
			if err := s.post(ctx, tx.Honor, domain.EntryReverse, honorKeyOf(k, a.SobatID), &kegiatanID, -a.TotalHonor, "kegiatan deleted"); err != nil {
				return err
			}
		}
		if err := tx.Kegiatan.DeleteAssignmentsByKegiatan(ctx, kegiatanID); err != nil {
			return err
		}
		if err := tx.Kegiatan.Delete(ctx, kegiatanID); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, eventTypeKegiatanDeleted, fmt.Sprint(kegiatanID), map[string]any{
			"kegiatan_id": kegiatanID,
			"month":       k.Month,
			"year":        k.Year,
		})
	})
}

func (s *Service) KegiatanCounts(ctx context.Context, now time.Time) (KegiatanCountsResponse, error) {
	month, year := int(now.Month()), now.Year()
	counts, err := s.kegiatan.CountByJenis(ctx, month, year)
	if err != nil {
		return KegiatanCountsResponse{}, err
	}
	return KegiatanCountsResponse{
		Month:      month,
		Year:       year,
		Lapangan:   counts[domain.JenisKegiatanLapangan],
		Pengolahan: counts[domain.JenisKegiatanPengolahan],
	}, nil
}

func (s *Service) KegiatanDates(ctx context.Context) (domain.Periods, error) {
	return s.kegiatan.Periods(ctx)
}
