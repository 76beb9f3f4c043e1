package handlers

import (
	"net/http"

	"hrportal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Routes builds the API router. authenticate is normally
// middleware.Authenticate over the configured verifier.
func (h *Handler) Routes(authenticate func(http.Handler) http.Handler) chi.Router {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/me", h.Me)
			r.Post("/me/password", h.ChangePassword)

			r.Get("/employees", h.ListEmployees)
			r.Get("/employees/{id}", h.GetEmployee)
			r.Patch("/employees/{id}", h.UpdateEmployee)
			r.Get("/employees/{id}/documents", h.EmployeeDocuments)

			r.Get("/departments", h.ListDepartments)

			r.Get("/leave-requests", h.ListLeaveRequests)
			r.Post("/leave-requests", h.SubmitLeaveRequest)
			r.Get("/leave-requests/calendar", h.LeaveCalendar)

			r.Get("/activities", h.Activities)
			r.Get("/stream/{collection}", h.Stream)

			// Admin only routes. The services check roles again.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Post("/employees", h.CreateEmployee)
				r.Put("/employees/{id}/status", h.SetEmployeeStatus)
				r.Delete("/employees/{id}", h.DeleteEmployee)

				r.Post("/departments", h.CreateDepartment)
				r.Patch("/departments/{id}", h.UpdateDepartment)
				r.Put("/departments/{id}/status", h.SetDepartmentStatus)
				r.Delete("/departments/{id}", h.DeleteDepartment)

				r.Post("/leave-requests/{id}/approve", h.ApproveLeaveRequest)
				r.Post("/leave-requests/{id}/reject", h.RejectLeaveRequest)
				r.Delete("/leave-requests/{id}", h.DeleteLeaveRequest)
				r.Get("/leave-requests/export", h.ExportLeaveRequests)

				r.Get("/metrics", h.Metrics)
			})
		})
	})

	return router
}
