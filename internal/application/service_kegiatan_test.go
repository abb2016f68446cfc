package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bps3275/sinora/internal/application"
	"github.com/bps3275/sinora/internal/domain"
	"github.com/bps3275/sinora/internal/ports"
	"github.com/bps3275/sinora/internal/testsupport"
)

func TestCreateKegiatanAccruesHonor(t *testing.T) {
	t.Parallel()

	h := testsupport.New(t)
	ctx := context.Background()
	seedOffice(t, h)

	id := createKegiatan(t, h, lapanganRequest(ppl("1001", 50000, 10), application.AssignmentInput{
		SobatID: "1002", HonorSatuan: 60000, TargetVolumePekerjaan: 5, StatusMitra: domain.StatusPML,
	}))

	if got := monthly(t, h, "1001", 3, 2025); got != 500000 {
		t.Fatalf("expected 500000 for 1001, got %d", got)
	}
	if got := monthly(t, h, "1002", 3, 2025); got != 300000 {
		t.Fatalf("expected 300000 for 1002, got %d", got)
	}
	entries := ledger(t, h, "1001")
	if len(entries) != 1 || entries[0].EntryType != domain.EntryAccrue || entries[0].Amount != 500000 {
		t.Fatalf("unexpected ledger: %+v", entries)
	}
	if entries[0].KegiatanID == nil || *entries[0].KegiatanID != id {
		t.Fatalf("expected ledger entry to reference kegiatan %d", id)
	}

	detail, err := h.Service.KegiatanDetail(ctx, id)
	if err != nil {
		t.Fatalf("detail failed: %v", err)
	}
	if detail.Month != 3 || detail.Year != 2025 {
		t.Fatalf("expected period from tanggal_berakhir, got %d/%d", detail.Month, detail.Year)
	}
	if detail.PenanggungJawabNama != testsupport.AdminName {
		t.Fatalf("unexpected penanggung jawab: %q", detail.PenanggungJawabNama)
	}
	if detail.HonorSatuan != 50000 || detail.TotalHonor != 800000 || len(detail.Peserta) != 2 {
		t.Fatalf("unexpected detail: %+v", detail)
	}
	if detail.Peserta[0].Nama != "Ani Rahmawati" {
		t.Fatalf("expected mitra names in peserta, got %+v", detail.Peserta[0])
	}
}

func TestCreateKegiatanValidation(t *testing.T) {
	t.Parallel()

	h := testsupport.New(t)
	ctx := context.Background()
	seedOffice(t, h)

	wrongStatus := lapanganRequest(application.AssignmentInput{SobatID: "1001", HonorSatuan: 1000, TargetVolumePekerjaan: 1, StatusMitra: domain.StatusOperator})
	unknownPJ := lapanganRequest(ppl("1001", 1000, 1))
	unknownPJ.PenanggungJawab = "Tidak Ada"
	unknownMitra := lapanganRequest(ppl("9999", 1000, 1))
	reversedDates := lapanganRequest(ppl("1001", 1000, 1))
	reversedDates.TanggalMulai = "2025-03-21"
	duplicate := lapanganRequest(ppl("1001", 1000, 1), ppl("1001", 2000, 1))
	negative := lapanganRequest(ppl("1001", -1, 1))
	badSatuan := lapanganRequest(ppl("1001", 1000, 1))
	badSatuan.SatuanHonor = "Liter"

	cases := map[string]application.KegiatanRequest{
		"status mismatch": wrongStatus,
		"unknown pj":      unknownPJ,
		"unknown mitra":   unknownMitra,
		"reversed dates":  reversedDates,
		"duplicate mitra": duplicate,
		"negative rate":   negative,
		"unknown satuan":  badSatuan,
	}
	for name, req := range cases {
		if _, err := h.Service.CreateKegiatan(ctx, req); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("%s: expected invalid input, got %v", name, err)
		}
	}

	list, err := h.Service.ListKegiatan(ctx, ports.KegiatanFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if list.TotalCount != 0 {
		t.Fatalf("rejected requests must not persist, got %d kegiatan", list.TotalCount)
	}
}

func TestUpdateKegiatanMovesHonorToNewPeriod(t *testing.T) {
	t.Parallel()

	h := testsupport.New(t)
	ctx := context.Background()
	seedOffice(t, h)
	id := createKegiatan(t, h, lapanganRequest(ppl("1001", 50000, 10), ppl("1002", 60000, 5)))

	req := lapanganRequest(ppl("1001", 50000, 12))
	req.TanggalMulai = "2025-03-25"
	req.TanggalBerakhir = "2025-04-02"
	if err := h.Service.UpdateKegiatan(ctx, id, req); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	k, err := h.Service.GetKegiatan(ctx, id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if k.Month != 4 || k.Year != 2025 {
		t.Fatalf("expected recomputed period 4/2025, got %d/%d", k.Month, k.Year)
	}
	if got := monthly(t, h, "1001", 3, 2025); got != 0 {
		t.Fatalf("expected March reversed for 1001, got %d", got)
	}
	if got := monthly(t, h, "1001", 4, 2025); got != 600000 {
		t.Fatalf("expected 600000 in April for 1001, got %d", got)
	}
	if got := monthly(t, h, "1002", 3, 2025); got != 0 {
		t.Fatalf("expected removed mitra reversed, got %d", got)
	}
	peserta, err := h.Service.KegiatanMitra(ctx, id)
	if err != nil {
		t.Fatalf("kegiatan mitra failed: %v", err)
	}
	if len(peserta) != 1 || peserta[0].SobatID != "1001" || peserta[0].TotalHonor != 600000 {
		t.Fatalf("unexpected assignments: %+v", peserta)
	}

	if err := h.Service.UpdateKegiatan(ctx, 9999, req); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReplaceAndAdjustAssignment(t *testing.T) {
	t.Parallel()

	h := testsupport.New(t)
	ctx := context.Background()
	seedOffice(t, h)
	id := createKegiatan(t, h, lapanganRequest(ppl("1001", 50000, 10)))

	if err := h.Service.ReplaceAssignment(ctx, id, "1001", ppl("1002", 40000, 10)); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if got := monthly(t, h, "1001", 3, 2025); got != 0 {
		t.Fatalf("expected old mitra reversed, got %d", got)
	}
	if got := monthly(t, h, "1002", 3, 2025); got != 400000 {
		t.Fatalf("expected replacement accrued, got %d", got)
	}
	if entries := ledger(t, h, "1001"); len(entries) != 2 || entries[0].EntryType != domain.EntryReverse {
		t.Fatalf("expected reverse entry for old mitra, got %+v", entries)
	}

	adjust := ppl("", 40000, 5)
	if err := h.Service.ReplaceAssignment(ctx, id, "1002", adjust); err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if got := monthly(t, h, "1002", 3, 2025); got != 200000 {
		t.Fatalf("expected adjusted total 200000, got %d", got)
	}
	entries := ledger(t, h, "1002")
	if len(entries) != 3 || entries[0].EntryType != domain.EntryAdjust || entries[1].EntryType != domain.EntryAdjust {
		t.Fatalf("expected two adjust entries on top, got %+v", entries)
	}

	if err := h.Service.ReplaceAssignment(ctx, id, "1001", ppl("1001", 1, 1)); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for unassigned mitra, got %v", err)
	}
	if err := h.Service.RemoveAssignment(ctx, id, "1001"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on remove, got %v", err)
	}
}

func TestReplaceAssignmentRejectsAlreadyAssignedMitra(t *testing.T) {
	t.Parallel()

	h := testsupport.New(t)
	ctx := context.Background()
	seedOffice(t, h)
	id := createKegiatan(t, h, lapanganRequest(ppl("1001", 1000, 1), ppl("1002", 1000, 1)))

	if err := h.Service.ReplaceAssignment(ctx, id, "1001", ppl("1002", 1000, 1)); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRemoveAssignmentAndDeleteKegiatan(t *testing.T) {
	t.Parallel()

	h := testsupport.New(t)
	ctx := context.Background()
	seedOffice(t, h)
	id := createKegiatan(t, h, lapanganRequest(ppl("1001", 50000, 10), ppl("1002", 60000, 5)))

	if err := h.Service.RemoveAssignment(ctx, id, "1002"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if got := monthly(t, h, "1002", 3, 2025); got != 0 {
		t.Fatalf("expected removed assignment reversed, got %d", got)
	}

	if err := h.Service.DeleteKegiatan(ctx, id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if got := monthly(t, h, "1001", 3, 2025); got != 0 {
		t.Fatalf("expected deleted kegiatan reversed, got %d", got)
	}
	if _, err := h.Service.GetKegiatan(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := h.Service.DeleteKegiatan(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if _, err := h.Service.KegiatanMitra(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for kegiatan without mitra, got %v", err)
	}
}

func TestListKegiatanCountsAndDates(t *testing.T) {
	t.Parallel()

	h := testsupport.New(t)
	ctx := context.Background()
	seedOffice(t, h)

	now := h.Clock.Now()
	current := lapanganRequest(ppl("1001", 1000, 1))
	current.NamaKegiatan = "Sakernas"
	current.TanggalMulai = now.Format("2006-01-02")
	current.TanggalBerakhir = now.Format("2006-01-02")
	createKegiatan(t, h, current)

	olah := lapanganRequest(application.AssignmentInput{SobatID: "1003", HonorSatuan: 1000, TargetVolumePekerjaan: 1, StatusMitra: domain.StatusOperator})
	olah.JenisKegiatan = domain.JenisKegiatanPengolahan
	olah.NamaKegiatan = "Entri Dokumen Susenas"
	createKegiatan(t, h, olah)

	list, err := h.Service.ListKegiatan(ctx, ports.KegiatanFilter{Search: "susenas"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if list.TotalCount != 1 || list.Items[0].NamaKegiatan != "Entri Dokumen Susenas" {
		t.Fatalf("unexpected search result: %+v", list)
	}
	all, err := h.Service.ListKegiatan(ctx, ports.KegiatanFilter{Search: "admin statistik"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if all.TotalCount != 2 || all.Page != 1 || all.PageSize != 10 {
		t.Fatalf("expected search by penanggung jawab to match both, got %+v", all)
	}

	counts, err := h.Service.KegiatanCounts(ctx, now)
	if err != nil {
		t.Fatalf("counts failed: %v", err)
	}
	if counts.Lapangan != 1 || counts.Pengolahan != 0 {
		t.Fatalf("unexpected counts: %+v", counts)
	}

	dates, err := h.Service.KegiatanDates(ctx)
	if err != nil {
		t.Fatalf("dates failed: %v", err)
	}
	if len(dates.Years) == 0 || dates.Years[0] != 2025 {
		t.Fatalf("unexpected dates: %+v", dates)
	}
}
