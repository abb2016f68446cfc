package http

import (
	"net/http"

	"github.com/bps3275/sinora/internal/application"
	"github.com/bps3275/sinora/internal/ports"
)

func (h *Handler) listKegiatan(w http.ResponseWriter, r *http.Request) {
	month, year, err := queryPeriod(r)
	if err != nil {
		writeMappedError(r.Context(), w, "list_kegiatan", err)
		return
	}
	q := r.URL.Query()
	res, err := h.service.ListKegiatan(r.Context(), ports.KegiatanFilter{
		Search:        q.Get("search"),
		JenisKegiatan: q.Get("jenis_kegiatan"),
		Month:         month,
		Year:          year,
		Page:          parseIntDefault(q.Get("page"), 1),
		PageSize:      parseIntDefault(q.Get("page_size"), 10),
	})
	if err != nil {
		writeMappedError(r.Context(), w, "list_kegiatan", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) kegiatanCounts(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.KegiatanCounts(r.Context(), h.service.Now())
	if err != nil {
		writeMappedError(r.Context(), w, "kegiatan_counts", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) kegiatanDates(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.KegiatanDates(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "kegiatan_dates", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) createKegiatan(w http.ResponseWriter, r *http.Request) {
	var req application.KegiatanRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_kegiatan", err)
		return
	}
	res, err := h.service.CreateKegiatan(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "create_kegiatan", err)
		return
	}
	writeSuccess(w, http.StatusCreated, res)
}

func (h *Handler) getKegiatan(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "kegiatan_id")
	if err != nil {
		writeMappedError(r.Context(), w, "get_kegiatan", err)
		return
	}
	res, err := h.service.GetKegiatan(r.Context(), id)
	if err != nil {
		writeMappedError(r.Context(), w, "get_kegiatan", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) kegiatanDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "kegiatan_id")
	if err != nil {
		writeMappedError(r.Context(), w, "kegiatan_detail", err)
		return
	}
	res, err := h.service.KegiatanDetail(r.Context(), id)
	if err != nil {
		writeMappedError(r.Context(), w, "kegiatan_detail", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) kegiatanMitra(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "kegiatan_id")
	if err != nil {
		writeMappedError(r.Context(), w, "kegiatan_mitra", err)
		return
	}
	res, err := h.service.KegiatanMitra(r.Context(), id)
	if err != nil {
		writeMappedError(r.Context(), w, "kegiatan_mitra", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) updateKegiatan(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "kegiatan_id")
	if err != nil {
		writeMappedError(r.Context(), w, "update_kegiatan", err)
		return
	}
	var req application.KegiatanRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "update_kegiatan", err)
		return
	}
	if err := h.service.UpdateKegiatan(r.Context(), id, req); err != nil {
		writeMappedError(r.Context(), w, "update_kegiatan", err)
		return
	}
	writeMessage(w, http.StatusOK, "kegiatan updated")
}

func (h *Handler) deleteKegiatan(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "kegiatan_id")
	if err != nil {
		writeMappedError(r.Context(), w, "delete_kegiatan", err)
		return
	}
	if err := h.service.DeleteKegiatan(r.Context(), id); err != nil {
		writeMappedError(r.Context(), w, "delete_kegiatan", err)
		return
	}
	writeMessage(w, http.StatusOK, "kegiatan deleted")
}

func (h *Handler) replaceAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "kegiatan_id")
	if err != nil {
		writeMappedError(r.Context(), w, "replace_assignment", err)
		return
	}
	var req application.AssignmentInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "replace_assignment", err)
		return
	}
	if err := h.service.ReplaceAssignment(r.Context(), id, pathString(r, "sobat_id"), req); err != nil {
		writeMappedError(r.Context(), w, "replace_assignment", err)
		return
	}
	writeMessage(w, http.StatusOK, "assignment replaced")
}

func (h *Handler) removeAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "kegiatan_id")
	if err != nil {
		writeMappedError(r.Context(), w, "remove_assignment", err)
		return
	}
	if err := h.service.RemoveAssignment(r.Context(), id, pathString(r, "sobat_id")); err != nil {
		writeMappedError(r.Context(), w, "remove_assignment", err)
		return
	}
	writeMessage(w, http.StatusOK, "assignment removed")
}
