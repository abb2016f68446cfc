package spreadsheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bps3275/sinora/internal/domain"
	"github.com/bps3275/sinora/internal/ports"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestNormalizeHeader(t *testing.T) {
	cases := map[string]string{
		"Sobat ID":          "sobat_id",
		"  NIK ":            "nik",
		"Jenis-Petugas":     "jenis_petugas",
		"jénis   kelamin":   "jenis_kelamin",
		"\ufeffsobat_id":    "sobat_id",
		"Alamat__Lengkap":   "alamat_lengkap",
		"":                  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeHeader(in), in)
	}
}

func TestReadMitraCSV(t *testing.T) {
	csv := strings.Join([]string{
		"Sobat ID,NIK,Nama,Jenis Petugas,Pekerjaan,Jenis Kelamin,Alamat",
		"S1,3275010101900001, Ani Lestari ,Mitra Pendataan,Petani,Perempuan,Jl. Merdeka 1",
		",,,,,,",
		"S2,3275010101900002,Bayu,,Guru,Laki-laki,Bekasi",
	}, "\n")

	rows, err := NewMitraReader().ReadMitra(strings.NewReader(csv), ports.SheetFormatCSV)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "Ani Lestari", rows[0].Mitra.Nama)
	assert.Equal(t, "Mitra Pendataan", rows[0].Mitra.JenisPetugas)
	assert.Equal(t, 4, rows[1].Line)
	assert.Empty(t, rows[1].Mitra.JenisPetugas)
}

func TestReadMitraRejectsMissingColumns(t *testing.T) {
	_, err := NewMitraReader().ReadMitra(strings.NewReader("sobat_id,nama\nS1,Ani\n"), ports.SheetFormatCSV)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "nik")

	_, err = NewMitraReader().ReadMitra(strings.NewReader(""), "ods")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReadMitraXLSX(t *testing.T) {
	f := excelize.NewFile()
	header := []any{"SOBAT_ID", "NIK", "NAMA", "JENIS PETUGAS", "PEKERJAAN", "JENIS KELAMIN", "ALAMAT"}
	row := []any{"S9", "3275010101900009", "Citra", "Pengolahan", "Wiraswasta", "Perempuan", "Depok"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &row))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	rows, err := NewMitraReader().ReadMitra(bytes.NewReader(buf.Bytes()), ports.SheetFormatXLSX)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "S9", rows[0].Mitra.SobatID)
	assert.Equal(t, "3275010101900009", rows[0].Mitra.NIK)
	assert.Equal(t, "Depok", rows[0].Mitra.Alamat)
}

func laporanFixture() []ports.LaporanSheetRow {
	return []ports.LaporanSheetRow{
		{
			NIK: "3275010101900001", Nama: "Ani Lestari", NamaKegiatan: "Survei Harga Konsumen", Bulan: "Maret",
			TanggalMulai: "1", TanggalBerakhir: "20", CapaianTarget: 5, CapaianRealisasi: 5,
			HonorSatuan: 150000, TotalHonor: 750000,
		},
		{
			NIK: "3275010101900002", Nama: "Bayu Pratama", NamaKegiatan: "Pendataan Podes", Bulan: "Februari",
			TanggalMulai: "3", TanggalBerakhir: "28", CapaianTarget: 10, CapaianRealisasi: 10,
			HonorSatuan: 50000, TotalHonor: 500000,
		},
	}
}

func TestLaporanCSVGolden(t *testing.T) {
	out, err := NewReportWriter().LaporanCSV(laporanFixture())
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "laporan_csv", out)
}

func TestLaporanXLSX(t *testing.T) {
	out, err := NewReportWriter().LaporanXLSX(laporanFixture())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{laporanSheet}, f.GetSheetList())
	rows, err := f.GetRows(laporanSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Capaian Realisasi", rows[0][7])
	assert.Equal(t, "Ani Lestari", rows[1][1])
	assert.Equal(t, "750000", rows[1][9])
}

func TestMitraStatementXLSX(t *testing.T) {
	out, err := NewReportWriter().MitraStatementXLSX([]domain.MitraActivityRow{{
		NamaKegiatan:          "Survei Harga Konsumen",
		TanggalMulai:          "2025-03-01",
		TanggalBerakhir:       "2025-03-20",
		TargetVolumePekerjaan: 10,
		SatuanHonor:           "Dokumen",
		HonorSatuan:           150000,
		TotalHonor:            1500000,
		Kode:                  "SHK-01",
	}}, 1500000)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(mitraSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "01 Maret 2025 s.d 20 Maret 2025", rows[1][1])
	assert.Equal(t, "Rp 150.000", rows[1][4])
	assert.Equal(t, "Total Honor", rows[2][0])
	assert.Equal(t, "Rp 1.500.000", rows[2][5])
}

func TestRupiah(t *testing.T) {
	assert.Equal(t, "Rp 0", Rupiah(0))
	assert.Equal(t, "Rp 1.500.000", Rupiah(1500000))
}
