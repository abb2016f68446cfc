package application_test

import (
	"context"
	"testing"

	"github.com/bps3275/sinora/internal/application"
	"github.com/bps3275/sinora/internal/domain"
	"github.com/bps3275/sinora/internal/ports"
	"github.com/bps3275/sinora/internal/testsupport"
)

// seedOffice creates the admin plus three mitra used by the kegiatan tests.
func seedOffice(t *testing.T, h *testsupport.Harness) {
	t.Helper()
	h.SeedAdmin(t)
	h.SeedMitra(t, "1001", "Ani Rahmawati", domain.JenisPetugasPendataan)
	h.SeedMitra(t, "1002", "Budi Hartono", domain.JenisPetugasPendataan)
	h.SeedMitra(t, "1003", "Citra Dewi", domain.JenisPetugasPengolahan)
}

func lapanganRequest(mitra ...application.AssignmentInput) application.KegiatanRequest {
	return application.KegiatanRequest{
		NamaKegiatan:    "Survei Harga Konsumen",
		Kode:            "SHK-01",
		JenisKegiatan:   domain.JenisKegiatanLapangan,
		TanggalMulai:    "2025-03-01",
		TanggalBerakhir: "2025-03-20",
		PenanggungJawab: testsupport.AdminName,
		SatuanHonor:     "Dokumen",
		Mitra:           mitra,
	}
}

func ppl(sobatID string, rate int64, volume int) application.AssignmentInput {
	return application.AssignmentInput{SobatID: sobatID, HonorSatuan: rate, TargetVolumePekerjaan: volume, StatusMitra: domain.StatusPPL}
}

func createKegiatan(t *testing.T, h *testsupport.Harness, req application.KegiatanRequest) int64 {
	t.Helper()
	res, err := h.Service.CreateKegiatan(context.Background(), req)
	if err != nil {
		t.Fatalf("create kegiatan failed: %v", err)
	}
	return res.KegiatanID
}

func monthly(t *testing.T, h *testsupport.Harness, sobatID string, month, year int) int64 {
	t.Helper()
	total, err := h.Repos.Honor.GetMonthly(context.Background(), domain.HonorKey{SobatID: sobatID, Month: month, Year: year})
	if err != nil {
		t.Fatalf("get monthly failed: %v", err)
	}
	return total
}

func ledger(t *testing.T, h *testsupport.Harness, sobatID string) []domain.LedgerEntry {
	t.Helper()
	entries, err := h.Service.HonorLedger(context.Background(), ports.LedgerFilter{SobatID: sobatID})
	if err != nil {
		t.Fatalf("ledger failed: %v", err)
	}
	return entries
}
