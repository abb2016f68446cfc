package application_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bps3275/sinora/internal/application"
	"github.com/bps3275/sinora/internal/domain"
	"github.com/bps3275/sinora/internal/ports"
	"github.com/bps3275/sinora/internal/testsupport"
)

func TestMitraCRUD(t *testing.T) {
	t.Parallel()

	h := testsupport.New(t)
	ctx := context.Background()

	created := h.SeedMitra(t, " 2001 ", "Dewi Lestari", domain.JenisPetugasPendataan)
	if created.SobatID != "2001" {
		t.Fatalf("expected trimmed sobat_id, got %q", created.SobatID)
	}
	if _, err := h.Service.CreateMitra(ctx, testsupport.Mitra("2001", "Dewi Lain", domain.JenisPetugasPendataan)); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	bad := testsupport.Mitra("2002", "Dewi 99", domain.JenisPetugasPendataan)
	if _, err := h.Service.CreateMitra(ctx, bad); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid nama, got %v", err)
	}

	update := testsupport.Mitra("ignored", "Dewi Lestari Putri", domain.JenisPetugasPengolahan)
	if _, err := h.Service.UpdateMitra(ctx, "2001", update); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	got, err := h.Service.GetMitra(ctx, "2001")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Nama != "Dewi Lestari Putri" || got.JenisPetugas != domain.JenisPetugasPengolahan {
		t.Fatalf("unexpected mitra after update: %+v", got)
	}
	if _, err := h.Service.UpdateMitra(ctx, "9999", update); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := h.Service.GetMitra(ctx, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty id, got %v", err)
	}
}

func TestDeleteMitraReversesHonor(t *testing.T) {
	t.Parallel()

	h := testsupport.New(t)
	ctx := context.Background()
	seedOffice(t, h)
	id := createKegiatan(t, h, lapanganRequest(ppl("1001", 50000, 10), ppl("1002", 1000, 1)))

	if err := h.Service.DeleteMitra(ctx, "1001"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := h.Service.GetMitra(ctx, "1001"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected deleted mitra to be gone, got %v", err)
	}
	peserta, err := h.Service.KegiatanMitra(ctx, id)
	if err != nil {
		t.Fatalf("kegiatan mitra failed: %v", err)
	}
	if len(peserta) != 1 || peserta[0].SobatID != "1002" {
		t.Fatalf("expected only remaining assignment, got %+v", peserta)
	}
	entries := ledger(t, h, "1001")
	if len(entries) != 2 || entries[0].EntryType != domain.EntryReverse || entries[0].Amount != -500000 {
		t.Fatalf("expected reverse entry to remain in ledger, got %+v", entries)
	}
	if err := h.Service.DeleteMitra(ctx, "1001"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestListMitraWithHonor(t *testing.T) {
	t.Parallel()

	h := testsupport.New(t)
	ctx := context.Background()
	seedOffice(t, h)
	createKegiatan(t, h, lapanganRequest(ppl("1001", 1000, 10)))
	april := lapanganRequest(ppl("1001", 1000, 50), ppl("1002", 1000, 30))
	april.TanggalMulai = "2025-04-01"
	april.TanggalBerakhir = "2025-04-30"
	createKegiatan(t, h, april)

	list, err := h.Service.ListMitra(ctx, ports.MitraFilter{SortBy: "honor_bulanan", SortOrder: "desc"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if list.TotalCount != 3 || list.Items[0].SobatID != "1001" || list.Items[0].HonorBulanan != 60000 {
		t.Fatalf("expected summed honor ordering, got %+v", list)
	}
	if list.Items[2].HonorBulanan != 0 {
		t.Fatalf("expected mitra without honor to report 0, got %+v", list.Items[2])
	}

	march, err := h.Service.ListMitra(ctx, ports.MitraFilter{Month: 3, Year: 2025, JenisPetugas: domain.JenisPetugasPendataan})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if march.TotalCount != 2 || march.Items[0].Nama != "Ani Rahmawati" || march.Items[0].HonorBulanan != 10000 {
		t.Fatalf("unexpected filtered list: %+v", march)
	}

	all, err := h.Service.ListAllMitra(ctx, ports.MitraFilter{Search: "ani"})
	if err != nil {
		t.Fatalf("list all failed: %v", err)
	}
	if len(all) != 1 || all[0].HonorBulanan != 50000 {
		t.Fatalf("expected max monthly honor, got %+v", all)
	}

	if _, err := h.Service.ListMitra(ctx, ports.MitraFilter{SortBy: "nik"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid sort column, got %v", err)
	}

	kegiatan, err := h.Service.MitraKegiatan(ctx, "1001", ports.MitraKegiatanFilter{Month: 4})
	if err != nil {
		t.Fatalf("mitra kegiatan failed: %v", err)
	}
	if len(kegiatan) != 1 || kegiatan[0].Honor != 50000 || kegiatan[0].PenanggungJawab != testsupport.AdminName {
		t.Fatalf("unexpected mitra kegiatan: %+v", kegiatan)
	}

	dates, err := h.Service.MitraDates(ctx)
	if err != nil {
		t.Fatalf("dates failed: %v", err)
	}
	if len(dates.Months) != 2 || dates.Months[0] != 3 || dates.Months[1] != 4 {
		t.Fatalf("unexpected months: %+v", dates)
	}
}

const importHeader = "SOBAT ID,NIK,Nama,Jenis Petugas,Pekerjaan,Jenis Kelamin,Alamat\n"

func TestImportMitraInsertsAndSkips(t *testing.T) {
	t.Parallel()

	h := testsupport.New(t)
	ctx := context.Background()

	body := importHeader +
		"2001,3275010101900002,Dewi Lestari,Mitra (Pendataan),Petani,Perempuan,Jl. Merdeka 5\n" +
		"2002,3275010101900003,Eko Prasetyo,Pengolahan,Guru,Laki-laki,Jl. Sudirman 7\n" +
		"2003,3275010101900004,Fajar Nugroho,,Guru,Laki-laki,Jl. Sudirman 9\n"
	res, err := h.Service.ImportMitra(ctx, strings.NewReader(body), application.ImportRequest{Format: "csv"})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if res.Inserted != 2 || res.Skipped != 1 || res.Updated != 0 {
		t.Fatalf("unexpected import result: %+v", res)
	}
	got, err := h.Service.GetMitra(ctx, "2001")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.JenisPetugas != domain.JenisPetugasPendataan {
		t.Fatalf("expected normalized jenis_petugas, got %q", got.JenisPetugas)
	}

	again := importHeader + "2001,3275010101900002,Dewi Lestari Ayu,Pendataan,Petani,Perempuan,Jl. Merdeka 5\n"
	res, err = h.Service.ImportMitra(ctx, strings.NewReader(again), application.ImportRequest{Format: "csv", OnConflict: "skip"})
	if err != nil || res.Skipped != 1 || res.Inserted != 0 {
		t.Fatalf("expected skip on conflict, got %+v err=%v", res, err)
	}
	res, err = h.Service.ImportMitra(ctx, strings.NewReader(again), application.ImportRequest{Format: "csv", OnConflict: "update"})
	if err != nil || res.Updated != 1 {
		t.Fatalf("expected update on conflict, got %+v err=%v", res, err)
	}
	got, err = h.Service.GetMitra(ctx, "2001")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Nama != "Dewi Lestari Ayu" {
		t.Fatalf("expected overwritten nama, got %q", got.Nama)
	}

	_, err = h.Service.ImportMitra(ctx, strings.NewReader(again), application.ImportRequest{Format: "csv"})
	var importErr *domain.ImportError
	if !errors.As(err, &importErr) || len(importErr.Rows) != 1 || importErr.Rows[0].Row != 2 {
		t.Fatalf("expected reject on conflict by default, got %v", err)
	}
}

func TestImportMitraIsAllOrNothing(t *testing.T) {
	t.Parallel()

	h := testsupport.New(t)
	ctx := context.Background()

	body := importHeader +
		"3001,3275010101900005,Gita Savitri,Pendataan,Petani,Perempuan,Jl. Merdeka 1\n" +
		"3002,32750ABC,Hadi Susanto,Pendataan,Petani,Laki-laki,Jl. Merdeka 2\n" +
		"3001,3275010101900007,Indah Permata,Pendataan,Petani,Perempuan,Jl. Merdeka 3\n"
	_, err := h.Service.ImportMitra(ctx, strings.NewReader(body), application.ImportRequest{Format: "csv"})
	if !errors.Is(err, domain.ErrImportRejected) {
		t.Fatalf("expected import rejection, got %v", err)
	}
	var importErr *domain.ImportError
	if !errors.As(err, &importErr) {
		t.Fatalf("expected typed import error, got %T", err)
	}
	if len(importErr.Rows) != 2 {
		t.Fatalf("expected two row errors, got %+v", importErr.Rows)
	}
	if importErr.Rows[0].Row != 3 || importErr.Rows[0].Field != "nik" {
		t.Fatalf("unexpected first row error: %+v", importErr.Rows[0])
	}
	if importErr.Rows[1].Row != 4 || importErr.Rows[1].Field != "sobat_id" {
		t.Fatalf("unexpected second row error: %+v", importErr.Rows[1])
	}
	if _, err := h.Service.GetMitra(ctx, "3001"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("valid rows must not be written on rejection, got %v", err)
	}

	if _, err := h.Service.ImportMitra(ctx, strings.NewReader(body), application.ImportRequest{Format: "pdf"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
	if _, err := h.Service.ImportMitra(ctx, strings.NewReader("sobat_id,nama\n1,A\n"), application.ImportRequest{Format: "csv"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected missing columns, got %v", err)
	}
}

func TestLaporanListAndExports(t *testing.T) {
	t.Parallel()

	h := testsupport.New(t)
	ctx := context.Background()
	seedOffice(t, h)
	createKegiatan(t, h, lapanganRequest(ppl("1001", 50000, 10), ppl("1002", 60000, 0)))

	list, err := h.Service.ListLaporan(ctx, ports.LaporanFilter{Month: 3, Year: 2025})
	if err != nil {
		t.Fatalf("list laporan failed: %v", err)
	}
	if list.TotalCount != 1 || len(list.Items) != 1 {
		t.Fatalf("expected zero-target rows excluded from count, got %+v", list)
	}
	item := list.Items[0]
	if item.Bulan != "Maret" || item.TanggalMulai != "01" || item.TanggalSelesai != "20" || item.TotalHonor != 500000 {
		t.Fatalf("unexpected laporan item: %+v", item)
	}

	file, err := h.Service.ExportLaporan(ctx, 3, 2025)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if file.FileName != "Laporan Kegiatan Statistik_Maret_2025.xlsx" || len(file.Content) == 0 {
		t.Fatalf("unexpected export file: %s (%d bytes)", file.FileName, len(file.Content))
	}
	all, err := h.Service.ExportLaporanCSV(ctx, 0, 0)
	if err != nil {
		t.Fatalf("csv export failed: %v", err)
	}
	if all.FileName != "Laporan Kegiatan Statistik_Semua Bulan_Semua Tahun.csv" {
		t.Fatalf("unexpected csv file name: %s", all.FileName)
	}
	if !strings.Contains(string(all.Content), "Survei Harga Konsumen") {
		t.Fatalf("expected kegiatan row in csv, got %s", all.Content)
	}

	statement, err := h.Service.ExportMitra(ctx, "1001", 3, 2025)
	if err != nil {
		t.Fatalf("mitra export failed: %v", err)
	}
	if statement.FileName != "mitra_export.xlsx" || len(statement.Content) == 0 {
		t.Fatalf("unexpected statement: %s", statement.FileName)
	}
	if _, err := h.Service.ExportMitra(ctx, "1001", 0, 2025); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected month to be required, got %v", err)
	}
}
