package http

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/bps3275/sinora/internal/application"
	"github.com/bps3275/sinora/internal/domain"
	"github.com/bps3275/sinora/internal/ports"
)

const (
	maxUploadBytes    = 10 << 20
	uploadMemoryBytes = 1 << 20
)

func mitraFilterFromQuery(r *http.Request) (ports.MitraFilter, error) {
	month, year, err := queryPeriod(r)
	if err != nil {
		return ports.MitraFilter{}, err
	}
	q := r.URL.Query()
	return ports.MitraFilter{
		Search:       q.Get("search"),
		JenisPetugas: q.Get("jenis_petugas"),
		Month:        month,
		Year:         year,
		SortBy:       q.Get("sort_by"),
		SortOrder:    q.Get("sort_order"),
		Page:         parseIntDefault(q.Get("page"), 1),
		PageSize:     parseIntDefault(q.Get("page_size"), 10),
	}, nil
}

func (h *Handler) listMitra(w http.ResponseWriter, r *http.Request) {
	filter, err := mitraFilterFromQuery(r)
	if err != nil {
		writeMappedError(r.Context(), w, "list_mitra", err)
		return
	}
	res, err := h.service.ListMitra(r.Context(), filter)
	if err != nil {
		writeMappedError(r.Context(), w, "list_mitra", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) listAllMitra(w http.ResponseWriter, r *http.Request) {
	filter, err := mitraFilterFromQuery(r)
	if err != nil {
		writeMappedError(r.Context(), w, "list_all_mitra", err)
		return
	}
	items, err := h.service.ListAllMitra(r.Context(), filter)
	if err != nil {
		writeMappedError(r.Context(), w, "list_all_mitra", err)
		return
	}
	writeSuccess(w, http.StatusOK, items)
}

func (h *Handler) mitraCounts(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.MitraCounts(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "mitra_counts", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) mitraDates(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.MitraDates(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "mitra_dates", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) createMitra(w http.ResponseWriter, r *http.Request) {
	var req domain.Mitra
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_mitra", err)
		return
	}
	res, err := h.service.CreateMitra(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "create_mitra", err)
		return
	}
	writeSuccess(w, http.StatusCreated, res)
}

func (h *Handler) getMitra(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.GetMitra(r.Context(), pathString(r, "sobat_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "get_mitra", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) updateMitra(w http.ResponseWriter, r *http.Request) {
	var req domain.Mitra
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "update_mitra", err)
		return
	}
	res, err := h.service.UpdateMitra(r.Context(), pathString(r, "sobat_id"), req)
	if err != nil {
		writeMappedError(r.Context(), w, "update_mitra", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) deleteMitra(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteMitra(r.Context(), pathString(r, "sobat_id")); err != nil {
		writeMappedError(r.Context(), w, "delete_mitra", err)
		return
	}
	writeMessage(w, http.StatusOK, "mitra deleted")
}

func (h *Handler) mitraKegiatan(w http.ResponseWriter, r *http.Request) {
	month, year, err := queryPeriod(r)
	if err != nil {
		writeMappedError(r.Context(), w, "mitra_kegiatan", err)
		return
	}
	items, err := h.service.MitraKegiatan(r.Context(), pathString(r, "sobat_id"), ports.MitraKegiatanFilter{
		Search: r.URL.Query().Get("search"),
		Month:  month,
		Year:   year,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "mitra_kegiatan", err)
		return
	}
	writeSuccess(w, http.StatusOK, items)
}

func (h *Handler) mitraMonthlyHonor(w http.ResponseWriter, r *http.Request) {
	month, year, err := queryPeriod(r)
	if err != nil {
		writeMappedError(r.Context(), w, "mitra_monthly_honor", err)
		return
	}
	res, err := h.service.MitraMonthlyHonor(r.Context(), pathString(r, "sobat_id"), month, year)
	if err != nil {
		writeMappedError(r.Context(), w, "mitra_monthly_honor", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) exportMitra(w http.ResponseWriter, r *http.Request) {
	month, year, err := queryPeriod(r)
	if err != nil {
		writeMappedError(r.Context(), w, "export_mitra", err)
		return
	}
	file, err := h.service.ExportMitra(r.Context(), pathString(r, "sobat_id"), month, year)
	if err != nil {
		writeMappedError(r.Context(), w, "export_mitra", err)
		return
	}
	writeFile(w, file)
}

// importMitra accepts a multipart upload with a "file" part and an optional on_conflict field.
func (h *Handler) importMitra(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(uploadMemoryBytes); err != nil {
		writeValidationError(r.Context(), w, "import_mitra", fmt.Errorf("invalid multipart upload: %w", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()
	file, header, err := r.FormFile("file")
	if err != nil {
		writeValidationError(r.Context(), w, "import_mitra", fmt.Errorf("file is required: %w", err))
		return
	}
	defer file.Close()

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	res, err := h.service.ImportMitra(r.Context(), file, application.ImportRequest{
		Format:     format,
		OnConflict: r.FormValue("on_conflict"),
	})
	if err != nil {
		writeMappedError(r.Context(), w, "import_mitra", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}
