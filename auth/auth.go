// Package auth is the boundary to the authentication provider.
package auth

import (
	"context"
	"time"
)

type Session struct {
	AccessToken string    `json:"access_token"`
	AuthID      string    `json:"auth_id"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return s == nil || (!s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt))
}

type ChangeEvent string

const (
	SignedIn  ChangeEvent = "SIGNED_IN"
	SignedOut ChangeEvent = "SIGNED_OUT"
)

type Listener func(ChangeEvent, *Session)

// Authenticator checks credentials and tokens without holding any state.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*Session, error)
	Verify(ctx context.Context, token string) (*Session, error)
}

// Revoker is implemented by authenticators that can invalidate a token
// server side.
type Revoker interface {
	Revoke(ctx context.Context, token string) error
}

// Provider holds the current session of one client.
type Provider interface {
	GetSession(ctx context.Context) (*Session, error)
	OnSessionChange(fn Listener) (cancel func())
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
}
