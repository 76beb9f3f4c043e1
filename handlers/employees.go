package handlers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"

	"hrportal/apperr"
	"hrportal/directory"
	"hrportal/middleware"
	"hrportal/models"

	"github.com/go-chi/chi/v5"
)

const maxUploadSize = 32 << 20

func employeeFilter(r *http.Request) directory.EmployeeFilter {
	q := r.URL.Query()
	return directory.EmployeeFilter{
		Search:     q.Get("search"),
		Department: q.Get("department"),
		Status:     q.Get("status"),
	}
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	rows, err := h.directory.ListEmployees(r.Context(), middleware.IdentityFrom(r.Context()), employeeFilter(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []models.Employee{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.directory.GetEmployee(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

// CreateEmployee accepts either a JSON body or a multipart form with the
// employee as JSON in the "employee" field and files under "documents".
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var in directory.NewEmployee
	var docs []directory.Document

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			writeError(w, r, apperr.Invalid("form", err))
			return
		}
		if err := json.Unmarshal([]byte(r.FormValue("employee")), &in); err != nil {
			writeError(w, r, apperr.Invalid("employee", err))
			return
		}
		files, err := openDocuments(r.MultipartForm.File["documents"])
		if err != nil {
			writeError(w, r, apperr.Invalid("documents", err))
			return
		}
		defer func() {
			for _, f := range files {
				f.Close()
			}
		}()
		for i, fh := range r.MultipartForm.File["documents"] {
			docs = append(docs, directory.Document{Name: fh.Filename, Content: files[i]})
		}
	} else if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	emp, err := h.directory.CreateEmployee(r.Context(), middleware.IdentityFrom(r.Context()), in, docs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, emp)
}

func openDocuments(headers []*multipart.FileHeader) ([]multipart.File, error) {
	files := make([]multipart.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			for _, opened := range files {
				opened.Close()
			}
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var patch directory.EmployeePatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	emp, err := h.directory.UpdateEmployee(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

type employeeStatusRequest struct {
	Status models.EmployeeStatus `json:"status"`
}

func (h *Handler) SetEmployeeStatus(w http.ResponseWriter, r *http.Request) {
	var req employeeStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	emp, err := h.directory.SetEmployeeStatus(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.directory.DeleteEmployee(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) EmployeeDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.directory.Documents(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if docs == nil {
		docs = []models.EmployeeDocument{}
	}
	writeJSON(w, http.StatusOK, docs)
}
