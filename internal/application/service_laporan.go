package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bps3275/sinora/internal/domain"
	"github.com/bps3275/sinora/internal/ports"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
)

func (s *Service) ListLaporan(ctx context.Context, filter ports.LaporanFilter) (LaporanListResponse, error) {
	if err := validateOptionalPeriod(filter.Month, filter.Year); err != nil {
		return LaporanListResponse{}, err
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)
	rows, total, err := s.laporan.List(ctx, filter)
	if err != nil {
		return LaporanListResponse{}, err
	}
	items := make([]LaporanItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, LaporanItem{
			NIK:            row.NIK,
			NamaMitra:      row.NamaMitra,
			NamaKegiatan:   row.NamaKegiatan,
			Bulan:          domain.BulanName(row.Month),
			TanggalMulai:   dayOf(row.TanggalMulai, true),
			TanggalSelesai: dayOf(row.TanggalBerakhir, true),
			Target:         row.Target,
			HonorSatuan:    row.HonorSatuan,
			TotalHonor:     row.TotalHonor,
		})
	}
	return LaporanListResponse{
		Items:      items,
		TotalCount: total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	}, nil
}

// ExportLaporan renders the report workbook. month 0 exports every month.
func (s *Service) ExportLaporan(ctx context.Context, month, year int) (ExportFile, error) {
	rows, err := s.laporanSheetRows(ctx, month, year)
	if err != nil {
		return ExportFile{}, err
	}
	content, err := s.reports.LaporanXLSX(rows)
	if err != nil {
		return ExportFile{}, fmt.Errorf("render laporan xlsx: %w", err)
	}
	return ExportFile{
		FileName:    laporanFileName(month, year) + ".xlsx",
		ContentType: contentTypeXLSX,
		Content:     content,
	}, nil
}

func (s *Service) ExportLaporanCSV(ctx context.Context, month, year int) (ExportFile, error) {
	rows, err := s.laporanSheetRows(ctx, month, year)
	if err != nil {
		return ExportFile{}, err
	}
	content, err := s.reports.LaporanCSV(rows)
	if err != nil {
		return ExportFile{}, fmt.Errorf("render laporan csv: %w", err)
	}
	return ExportFile{
		FileName:    laporanFileName(month, year) + ".csv",
		ContentType: contentTypeCSV,
		Content:     content,
	}, nil
}

func (s *Service) laporanSheetRows(ctx context.Context, month, year int) ([]ports.LaporanSheetRow, error) {
	if err := validateOptionalPeriod(month, year); err != nil {
		return nil, err
	}
	rows, err := s.laporan.ListAll(ctx, ports.LaporanFilter{Month: month, Year: year})
	if err != nil {
		return nil, err
	}
	out := make([]ports.LaporanSheetRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.LaporanSheetRow{
			NIK:              row.NIK,
			Nama:             row.NamaMitra,
			NamaKegiatan:     row.NamaKegiatan,
			Bulan:            domain.BulanName(row.Month),
			TanggalMulai:     dayOf(row.TanggalMulai, false),
			TanggalBerakhir:  dayOf(row.TanggalBerakhir, false),
			CapaianTarget:    row.Target,
			CapaianRealisasi: row.Target,
			HonorSatuan:      row.HonorSatuan,
			TotalHonor:       row.TotalHonor,
		})
	}
	return out, nil
}

// ExportMitra renders one mitra's monthly statement.
func (s *Service) ExportMitra(ctx context.Context, sobatID string, month, year int) (ExportFile, error) {
	sobatID = strings.TrimSpace(sobatID)
	if sobatID == "" {
		return ExportFile{}, fmt.Errorf("%w: sobat_id is required", domain.ErrInvalidInput)
	}
	if err := validateRequiredPeriod(month, year); err != nil {
		return ExportFile{}, err
	}
	if _, err := s.mitra.Get(ctx, sobatID); err != nil {
		return ExportFile{}, err
	}
	rows, err := s.laporan.MitraActivities(ctx, sobatID, month, year)
	if err != nil {
		return ExportFile{}, err
	}
	total, err := s.honor.GetMonthly(ctx, domain.HonorKey{SobatID: sobatID, Month: month, Year: year})
	if err != nil {
		return ExportFile{}, err
	}
	content, err := s.reports.MitraStatementXLSX(rows, total)
	if err != nil {
		return ExportFile{}, fmt.Errorf("render mitra statement: %w", err)
	}
	return ExportFile{
		FileName:    "mitra_export.xlsx",
		ContentType: contentTypeXLSX,
		Content:     content,
	}, nil
}

func laporanFileName(month, year int) string {
	bulan := "Semua Bulan"
	if month > 0 {
		bulan = domain.BulanName(month)
	}
	tahun := "Semua Tahun"
	if year > 0 {
		tahun = strconv.Itoa(year)
	}
	return fmt.Sprintf("Laporan Kegiatan Statistik_%s_%s", bulan, tahun)
}

// dayOf extracts the day of a stored date, zero padded when pad is set.
func dayOf(date string, pad bool) string {
	t, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return date
	}
	if pad {
		return fmt.Sprintf("%02d", t.Day())
	}
	return strconv.Itoa(t.Day())
}
