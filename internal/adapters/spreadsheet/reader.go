package spreadsheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/bps3275/sinora/internal/domain"
	"github.com/bps3275/sinora/internal/ports"
	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

// MitraReader decodes uploaded mitra sheets.
type MitraReader struct{}

func NewMitraReader() *MitraReader {
	return &MitraReader{}
}

func (MitraReader) ReadMitra(r io.Reader, format string) ([]ports.MitraSheetRow, error) {
	var (
		records [][]string
		err     error
	)
	switch format {
	case ports.SheetFormatXLSX:
		records, err = readXLSX(r)
	case ports.SheetFormatCSV:
		records, err = gocsv.LazyCSVReader(r).ReadAll()
	default:
		return nil, fmt.Errorf("%w: unsupported sheet format %q", domain.ErrInvalidInput, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable %s file: %v", domain.ErrInvalidInput, format, err)
	}
	return mitraRows(records)
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}

// mitraRows maps raw records onto mitra. records[0] is the header; blank rows are dropped.
func mitraRows(records [][]string) ([]ports.MitraSheetRow, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: file is empty", domain.ErrInvalidInput)
	}
	idx := headerIndex(records[0])
	if missing := missingColumns(idx); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns: %s", domain.ErrInvalidInput, strings.Join(missing, ", "))
	}

	cell := func(record []string, col string) string {
		i := idx[col]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	rows := make([]ports.MitraSheetRow, 0, len(records)-1)
	for i, record := range records[1:] {
		if blank(record) {
			continue
		}
		rows = append(rows, ports.MitraSheetRow{
			Line: i + 2,
			Mitra: domain.Mitra{
				SobatID:      cell(record, colSobatID),
				NIK:          cell(record, colNIK),
				JenisPetugas: cell(record, colJenisPetugas),
				Nama:         cell(record, colNama),
				Pekerjaan:    cell(record, colPekerjaan),
				Alamat:       cell(record, colAlamat),
				JenisKelamin: cell(record, colJenisKelamin),
			},
		})
	}
	return rows, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
