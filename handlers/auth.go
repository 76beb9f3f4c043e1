package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"hrportal/apperr"
	"hrportal/auth"
	"hrportal/middleware"
	"hrportal/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Identity  *models.Identity `json:"identity"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	identity, err := h.resolver.ResolveAuthID(r.Context(), session.AuthID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if identity == nil {
		h.revoke(r.Context(), session.AccessToken)
		writeError(w, r, &apperr.AuthError{Reason: "account is not provisioned"})
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	if session.ExpiresAt.IsZero() {
		maxAge = int(h.config.JWTExpiration.Seconds())
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    session.AccessToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     session.AccessToken,
		ExpiresAt: session.ExpiresAt,
		Identity:  identity,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.TokenFromRequest(r); token != "" {
		h.revoke(r.Context(), token)
	}
	middleware.ClearTokenCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) revoke(ctx context.Context, token string) {
	if rv, ok := h.auth.(auth.Revoker); ok {
		if err := rv.Revoke(ctx, token); err != nil {
			log.Printf("[handlers.Logout] revoke token: %v", err)
		}
	}
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.IdentityFrom(r.Context()))
}

type passwordChanger interface {
	ChangePassword(ctx context.Context, accountID, current, next string) error
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ChangePassword is only available with locally managed accounts.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	changer, ok := h.auth.(passwordChanger)
	if !ok {
		http.Error(w, "Password changes are handled by the identity provider", http.StatusNotImplemented)
		return
	}
	session := middleware.SessionFrom(r.Context())
	if session == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Passwords do not match"})
		return
	}

	if err := changer.ChangePassword(r.Context(), session.AuthID, req.CurrentPassword, req.NewPassword); err != nil {
		if apperr.IsAuth(err) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
