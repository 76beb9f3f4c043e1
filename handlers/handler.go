package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"hrportal/apperr"
	"hrportal/auth"
	"hrportal/config"
	"hrportal/directory"
	"hrportal/leave"
	"hrportal/middleware"
	"hrportal/views"
)

// Handler serves the JSON API. Every method takes the caller's identity
// from the request context and passes it on explicitly.
type Handler struct {
	config    *config.Config
	auth      auth.Authenticator
	resolver  middleware.IdentityResolver
	directory *directory.Service
	leave     *leave.Service
	source    views.Source
}

func New(cfg *config.Config, authenticator auth.Authenticator, resolver middleware.IdentityResolver, dir *directory.Service, lv *leave.Service, source views.Source) *Handler {
	return &Handler{
		config:    cfg,
		auth:      authenticator,
		resolver:  resolver,
		directory: dir,
		leave:     lv,
		source:    source,
	}
}

type errorResponse struct {
	Error     string   `json:"error"`
	Completed []string `json:"completed,omitempty"`
	Failed    string   `json:"failed,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[handlers] encode response: %v", err)
	}
}

func statusFor(err error) int {
	var partial *apperr.PartialWriteError
	var storeErr *apperr.StoreError
	switch {
	case errors.As(err, &partial):
		return http.StatusInternalServerError
	case apperr.IsValidation(err):
		return http.StatusBadRequest
	case apperr.IsAccessDenied(err):
		return http.StatusForbidden
	case apperr.IsAuth(err):
		return http.StatusUnauthorized
	case apperr.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, leave.ErrTerminal):
		return http.StatusConflict
	case errors.As(err, &storeErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: views.Describe(err).Message}

	var partial *apperr.PartialWriteError
	if errors.As(err, &partial) {
		resp.Completed = partial.Completed
		resp.Failed = partial.Failed
	}
	if status >= http.StatusInternalServerError {
		log.Printf("[handlers] %s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, resp)
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Invalid("request body", err)
	}
	return nil
}
