package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"hrportal/directory"
	"hrportal/export"
	"hrportal/leave"
	"hrportal/middleware"
	"hrportal/models"

	"github.com/go-chi/chi/v5"
)

func leaveFilter(r *http.Request) leave.Filter {
	return leave.Filter{
		Status:    r.URL.Query().Get("status"),
		LeaveType: r.URL.Query().Get("type"),
	}
}

func (h *Handler) ListLeaveRequests(w http.ResponseWriter, r *http.Request) {
	rows, err := h.leave.List(r.Context(), middleware.IdentityFrom(r.Context()), leaveFilter(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []models.LeaveRequest{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) SubmitLeaveRequest(w http.ResponseWriter, r *http.Request) {
	var in leave.SubmitInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	req, err := h.leave.Submit(r.Context(), middleware.IdentityFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *Handler) ApproveLeaveRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.leave.Approve(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) RejectLeaveRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.leave.Reject(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) DeleteLeaveRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.leave.Delete(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type calendarDay struct {
	Date     string                `json:"date"`
	Requests []models.LeaveRequest `json:"requests"`
}

// LeaveCalendar groups approved and pending requests by day.
func (h *Handler) LeaveCalendar(w http.ResponseWriter, r *http.Request) {
	f := leaveFilter(r)
	rows, err := h.leave.List(r.Context(), middleware.IdentityFrom(r.Context()), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if f.Status == "" {
		kept := rows[:0]
		for _, row := range rows {
			if row.Status != models.LeaveRejected {
				kept = append(kept, row)
			}
		}
		rows = kept
	}

	cal := leave.Calendar(rows)
	days := make([]calendarDay, 0, len(cal))
	for _, d := range leave.Days(cal) {
		days = append(days, calendarDay{Date: d, Requests: cal[d]})
	}
	writeJSON(w, http.StatusOK, days)
}

// ExportLeaveRequests downloads the filtered requests as xlsx, or CSV with
// format=csv. month and year go together and keep requests starting in
// that month.
func (h *Handler) ExportLeaveRequests(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	rows, err := h.leave.List(r.Context(), identity, leaveFilter(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	suffix := "all"
	if monthStr, yearStr := r.URL.Query().Get("month"), r.URL.Query().Get("year"); monthStr != "" || yearStr != "" {
		month, err := strconv.Atoi(monthStr)
		if err != nil || month < 1 || month > 12 {
			http.Error(w, "Invalid month", http.StatusBadRequest)
			return
		}
		year, err := strconv.Atoi(yearStr)
		if err != nil || year < 2000 || year > 2100 {
			http.Error(w, "Invalid year", http.StatusBadRequest)
			return
		}
		start := models.NewDate(year, time.Month(month), 1)
		end := models.Date{Time: start.AddDate(0, 1, 0)}

		kept := rows[:0]
		for _, row := range rows {
			if !row.StartDate.Before(start) && row.StartDate.Before(end) {
				kept = append(kept, row)
			}
		}
		rows = kept
		suffix = fmt.Sprintf("%d_%02d", year, month)
	}

	employees, err := h.directory.ListEmployees(r.Context(), identity, directory.EmployeeFilter{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	names := make(map[string]string, len(employees))
	for i := range employees {
		names[employees[i].ID] = employees[i].DisplayName()
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=leave_requests_%s.csv", suffix))
		if err := export.LeaveCSV(w, rows, names); err != nil {
			log.Printf("[handlers.ExportLeaveRequests] csv: %v", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=leave_requests_%s.xlsx", suffix))
	if err := export.LeaveWorkbook(w, rows, names); err != nil {
		log.Printf("[handlers.ExportLeaveRequests] xlsx: %v", err)
	}
}
