package spreadsheet

import (
	"fmt"

	"github.com/bps3275/sinora/internal/domain"
	"github.com/bps3275/sinora/internal/ports"
	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

const (
	laporanSheet = "Laporan Data"
	mitraSheet   = "Mitra Data"
	thousands    = "#,##0"
)

var laporanHeader = []any{
	"NIK", "Nama", "Nama Kegiatan", "Bulan", "Tanggal Mulai", "Tanggal Berakhir",
	"Capaian Target", "Capaian Realisasi", "Honor Satuan", "Total Honor",
}

var mitraHeader = []any{
	"Nama Kegiatan", "Periode Waktu", "Target Volume Pekerjaan", "Satuan Honor",
	"Honor Satuan", "Honor Kegiatan", "Kode Kegiatan",
}

// ReportWriter renders report workbooks and CSV files.
type ReportWriter struct{}

func NewReportWriter() *ReportWriter {
	return &ReportWriter{}
}

func newWorkbook(sheet string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
}

func writeHeader(f *excelize.File, sheet string, header []any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	style, err := headerStyle(f)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func finish(f *excelize.File) ([]byte, error) {
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (ReportWriter) LaporanXLSX(rows []ports.LaporanSheetRow) ([]byte, error) {
	f, err := newWorkbook(laporanSheet)
	if err != nil {
		return nil, err
	}
	if err := writeHeader(f, laporanSheet, laporanHeader); err != nil {
		_ = f.Close()
		return nil, err
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []any{
			row.NIK, row.Nama, row.NamaKegiatan, row.Bulan, row.TanggalMulai, row.TanggalBerakhir,
			row.CapaianTarget, row.CapaianRealisasi, row.HonorSatuan, row.TotalHonor,
		}
		if err := f.SetSheetRow(laporanSheet, cell, &values); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if len(rows) > 0 {
		numFmt := thousands
		style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetCellStyle(laporanSheet, "I2", fmt.Sprintf("J%d", len(rows)+1), style); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	_ = f.SetColWidth(laporanSheet, "A", "A", 20)
	_ = f.SetColWidth(laporanSheet, "B", "C", 32)
	_ = f.SetColWidth(laporanSheet, "D", "J", 16)
	return finish(f)
}

func (ReportWriter) LaporanCSV(rows []ports.LaporanSheetRow) ([]byte, error) {
	if rows == nil {
		rows = []ports.LaporanSheetRow{}
	}
	return gocsv.MarshalBytes(&rows)
}

func (ReportWriter) MitraStatementXLSX(rows []domain.MitraActivityRow, totalHonor int64) ([]byte, error) {
	f, err := newWorkbook(mitraSheet)
	if err != nil {
		return nil, err
	}
	if err := writeHeader(f, mitraSheet, mitraHeader); err != nil {
		_ = f.Close()
		return nil, err
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []any{
			row.NamaKegiatan,
			periodeWaktu(row.TanggalMulai, row.TanggalBerakhir),
			row.TargetVolumePekerjaan,
			row.SatuanHonor,
			Rupiah(row.HonorSatuan),
			Rupiah(row.TotalHonor),
			row.Kode,
		}
		if err := f.SetSheetRow(mitraSheet, cell, &values); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	totalRow := len(rows) + 2
	label, _ := excelize.CoordinatesToCellName(1, totalRow)
	amount, _ := excelize.CoordinatesToCellName(6, totalRow)
	if err := f.SetCellValue(mitraSheet, label, "Total Honor"); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.SetCellValue(mitraSheet, amount, Rupiah(totalHonor)); err != nil {
		_ = f.Close()
		return nil, err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(mitraSheet, label, amount, style)
	}
	_ = f.SetColWidth(mitraSheet, "A", "B", 40)
	_ = f.SetColWidth(mitraSheet, "C", "G", 20)
	return finish(f)
}
