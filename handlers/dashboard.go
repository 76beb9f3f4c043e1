package handlers

import (
	"net/http"
	"strconv"

	"hrportal/directory"
	"hrportal/middleware"
)

func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.directory.Metrics(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func activityLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 100 {
		return 0
	}
	return limit
}

func (h *Handler) Activities(w http.ResponseWriter, r *http.Request) {
	rows, err := h.directory.RecentHires(r.Context(), middleware.IdentityFrom(r.Context()), activityLimit(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []directory.Activity{}
	}
	writeJSON(w, http.StatusOK, rows)
}
