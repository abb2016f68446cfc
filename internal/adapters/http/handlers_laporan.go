package http

import (
	"net/http"
	"strings"

	"github.com/bps3275/sinora/internal/application"
	"github.com/bps3275/sinora/internal/ports"
)

func (h *Handler) listLaporan(w http.ResponseWriter, r *http.Request) {
	month, year, err := queryPeriod(r)
	if err != nil {
		writeMappedError(r.Context(), w, "list_laporan", err)
		return
	}
	q := r.URL.Query()
	res, err := h.service.ListLaporan(r.Context(), ports.LaporanFilter{
		Month:    month,
		Year:     year,
		Page:     parseIntDefault(q.Get("page"), 1),
		PageSize: parseIntDefault(q.Get("page_size"), 10),
	})
	if err != nil {
		writeMappedError(r.Context(), w, "list_laporan", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

// exportLaporan serves the xlsx workbook, or CSV when format=csv.
func (h *Handler) exportLaporan(w http.ResponseWriter, r *http.Request) {
	month, year, err := queryPeriod(r)
	if err != nil {
		writeMappedError(r.Context(), w, "export_laporan", err)
		return
	}
	var file application.ExportFile
	if strings.EqualFold(r.URL.Query().Get("format"), ports.SheetFormatCSV) {
		file, err = h.service.ExportLaporanCSV(r.Context(), month, year)
	} else {
		file, err = h.service.ExportLaporan(r.Context(), month, year)
	}
	if err != nil {
		writeMappedError(r.Context(), w, "export_laporan", err)
		return
	}
	writeFile(w, file)
}
