package handlers

import (
	"net/http"

	"hrportal/directory"
	"hrportal/middleware"
	"hrportal/models"

	"github.com/go-chi/chi/v5"
)

func departmentFilter(r *http.Request) directory.DepartmentFilter {
	return directory.DepartmentFilter{
		Search: r.URL.Query().Get("search"),
		Status: r.URL.Query().Get("status"),
	}
}

func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	rows, err := h.directory.ListDepartments(r.Context(), middleware.IdentityFrom(r.Context()), departmentFilter(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []models.Department{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var in directory.NewDepartment
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	dep, err := h.directory.CreateDepartment(r.Context(), middleware.IdentityFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dep)
}

func (h *Handler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	var patch directory.DepartmentPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	dep, err := h.directory.UpdateDepartment(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dep)
}

type departmentStatusRequest struct {
	Status models.DepartmentStatus `json:"status"`
}

func (h *Handler) SetDepartmentStatus(w http.ResponseWriter, r *http.Request) {
	var req departmentStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	dep, err := h.directory.SetDepartmentStatus(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dep)
}

func (h *Handler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	if err := h.directory.DeleteDepartment(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
