package spreadsheet

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	colSobatID      = "sobat_id"
	colNIK          = "nik"
	colNama         = "nama"
	colJenisPetugas = "jenis_petugas"
	colPekerjaan    = "pekerjaan"
	colJenisKelamin = "jenis_kelamin"
	colAlamat       = "alamat"
)

var requiredColumns = []string{
	colSobatID, colNIK, colNama, colJenisPetugas, colPekerjaan, colJenisKelamin, colAlamat,
}

// normalizeHeader folds a header cell to snake case ASCII: "Jenis Petugas" and
// "jénis-petugas" both become "jenis_petugas".
func normalizeHeader(raw string) string {
	raw = strings.TrimPrefix(raw, "\ufeff")
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), raw)
	if err != nil {
		stripped = raw
	}
	stripped = strings.ToLower(strings.TrimSpace(stripped))
	fields := strings.FieldsFunc(stripped, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_'
	})
	return strings.Join(fields, "_")
}

// headerIndex maps normalized header names to column positions. The first
// occurrence of a duplicated header wins.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, cell := range header {
		name := normalizeHeader(cell)
		if name == "" {
			continue
		}
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	return idx
}

func missingColumns(idx map[string]int) []string {
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}
