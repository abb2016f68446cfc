package http

import (
	"net/http"

	"github.com/bps3275/sinora/internal/application"
	"github.com/bps3275/sinora/internal/ports"
)

func (h *Handler) listHonorLimits(w http.ResponseWriter, r *http.Request) {
	limits, err := h.service.ListHonorLimits(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "list_honor_limits", err)
		return
	}
	writeSuccess(w, http.StatusOK, limits)
}

func (h *Handler) updateHonorLimit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HonorMax int64 `json:"honor_max"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "update_honor_limit", err)
		return
	}
	limit, err := h.service.UpdateHonorLimit(r.Context(), pathString(r, "jenis_petugas"), req.HonorMax)
	if err != nil {
		writeMappedError(r.Context(), w, "update_honor_limit", err)
		return
	}
	writeSuccess(w, http.StatusOK, limit)
}

func (h *Handler) totalHonor(w http.ResponseWriter, r *http.Request) {
	month, year, err := queryPeriod(r)
	if err != nil {
		writeMappedError(r.Context(), w, "total_honor", err)
		return
	}
	res, err := h.service.TotalHonor(r.Context(), month, year)
	if err != nil {
		writeMappedError(r.Context(), w, "total_honor", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) currentMonthHonor(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.CurrentMonthTotalHonor(r.Context(), h.service.Now())
	if err != nil {
		writeMappedError(r.Context(), w, "current_month_honor", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) previewHonor(w http.ResponseWriter, r *http.Request) {
	var req application.HonorPreviewRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "preview_honor", err)
		return
	}
	res, err := h.service.PreviewHonor(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "preview_honor", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) honorLedger(w http.ResponseWriter, r *http.Request) {
	month, year, err := queryPeriod(r)
	if err != nil {
		writeMappedError(r.Context(), w, "honor_ledger", err)
		return
	}
	q := r.URL.Query()
	entries, err := h.service.HonorLedger(r.Context(), ports.LedgerFilter{
		SobatID: q.Get("sobat_id"),
		Month:   month,
		Year:    year,
		Limit:   parseIntDefault(q.Get("limit"), 0),
	})
	if err != nil {
		writeMappedError(r.Context(), w, "honor_ledger", err)
		return
	}
	writeSuccess(w, http.StatusOK, entries)
}

func (h *Handler) rebuildHonor(w http.ResponseWriter, r *http.Request) {
	month, year, err := queryPeriod(r)
	if err != nil {
		writeMappedError(r.Context(), w, "rebuild_honor", err)
		return
	}
	res, err := h.service.RebuildMonthlyHonor(r.Context(), month, year)
	if err != nil {
		writeMappedError(r.Context(), w, "rebuild_honor", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}
