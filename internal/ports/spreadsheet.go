package ports

import (
	"io"

	"github.com/bps3275/sinora/internal/domain"
)

const (
	SheetFormatXLSX = "xlsx"
	SheetFormatCSV  = "csv"
)

// MitraSheetRow is one raw data row from an uploaded mitra sheet.
// Line is the 1-based line in the source, counting the header.
type MitraSheetRow struct {
	Line  int
	Mitra domain.Mitra
}

// MitraSheetReader decodes an uploaded mitra sheet. Rows come back with
// trimmed cells but without domain normalization or validation.
type MitraSheetReader interface {
	ReadMitra(r io.Reader, format string) ([]MitraSheetRow, error)
}

// LaporanSheetRow is a report line with display values already resolved.
type LaporanSheetRow struct {
	NIK              string `csv:"NIK"`
	Nama             string `csv:"Nama"`
	NamaKegiatan     string `csv:"Nama Kegiatan"`
	Bulan            string `csv:"Bulan"`
	TanggalMulai     string `csv:"Tanggal Mulai"`
	TanggalBerakhir  string `csv:"Tanggal Berakhir"`
	CapaianTarget    int    `csv:"Capaian Target"`
	CapaianRealisasi int    `csv:"Capaian Realisasi"`
	HonorSatuan      int64  `csv:"Honor Satuan"`
	TotalHonor       int64  `csv:"Total Honor"`
}

// ReportWriter renders report documents.
type ReportWriter interface {
	LaporanXLSX(rows []LaporanSheetRow) ([]byte, error)
	LaporanCSV(rows []LaporanSheetRow) ([]byte, error)
	MitraStatementXLSX(rows []domain.MitraActivityRow, totalHonor int64) ([]byte, error)
}
