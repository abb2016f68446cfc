package http

import (
	"net/http"
)

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "list_users", err)
		return
	}
	writeSuccess(w, http.StatusOK, users)
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeMissingBearerError(r.Context(), w, "change_role")
		return
	}
	userID, err := pathInt64(r, "user_id")
	if err != nil {
		writeMappedError(r.Context(), w, "change_role", err)
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "change_role", err)
		return
	}
	if err := h.service.ChangeRole(r.Context(), claims, userID, req.Role); err != nil {
		writeMappedError(r.Context(), w, "change_role", err)
		return
	}
	writeMessage(w, http.StatusOK, "role updated")
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Dashboard(r.Context(), h.service.Now())
	if err != nil {
		writeMappedError(r.Context(), w, "dashboard", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}
