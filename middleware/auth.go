package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"hrportal/auth"
	"hrportal/models"
)

type contextKey string

const (
	IdentityContextKey contextKey = "identity"
	SessionContextKey  contextKey = "session"
)

const TokenCookie = "token"

type Verifier interface {
	Verify(ctx context.Context, token string) (*auth.Session, error)
}

// IdentityResolver maps an auth id to the linked employee identity, or nil
// when the login has no employee.
type IdentityResolver interface {
	ResolveAuthID(ctx context.Context, authID string) (*models.Identity, error)
}

// TokenFromRequest reads the token cookie first, then a Bearer header.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	return ""
}

func ClearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// Authenticate resolves the request's token into an identity and stores
// both in the request context. Requests without a linked employee are
// rejected.
func Authenticate(verifier Verifier, resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			session, err := verifier.Verify(r.Context(), token)
			if err != nil {
				ClearTokenCookie(w)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := resolver.ResolveAuthID(r.Context(), session.AuthID)
			if err != nil {
				log.Printf("[middleware.Authenticate] resolve %s: %v", session.AuthID, err)
				http.Error(w, "Failed to resolve identity", http.StatusBadGateway)
				return
			}
			if identity == nil {
				http.Error(w, "Account is not provisioned", http.StatusForbidden)
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			ctx = context.WithValue(ctx, SessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFrom(r.Context())
			if identity == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			for _, role := range roles {
				if identity.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			http.Error(w, "Forbidden", http.StatusForbidden)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(models.RoleAdmin)(next)
}

func WithIdentity(ctx context.Context, id *models.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, id)
}

func IdentityFrom(ctx context.Context) *models.Identity {
	id, ok := ctx.Value(IdentityContextKey).(*models.Identity)
	if !ok {
		return nil
	}
	return id
}

func SessionFrom(ctx context.Context) *auth.Session {
	s, ok := ctx.Value(SessionContextKey).(*auth.Session)
	if !ok {
		return nil
	}
	return s
}
