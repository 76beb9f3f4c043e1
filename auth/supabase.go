package auth

import (
	"context"
	"fmt"
	"time"

	"hrportal/apperr"
	"hrportal/models"

	"github.com/supabase-community/gotrue-go/types"
	supa "github.com/supabase-community/supabase-go"
)

// SupabaseAuthenticator uses the project's GoTrue service. The shared client
// is never switched to a user token.
type SupabaseAuthenticator struct {
	client *supa.Client
}

func NewSupabaseAuthenticator(client *supa.Client) *SupabaseAuthenticator {
	return &SupabaseAuthenticator{client: client}
}

func (s *SupabaseAuthenticator) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := s.client.Auth.SignInWithEmailPassword(normalizeEmail(email), password)
	if err != nil {
		return nil, &apperr.AuthError{Reason: "invalid credentials", Err: err}
	}
	return &Session{
		AccessToken: resp.AccessToken,
		AuthID:      resp.User.ID.String(),
		Email:       resp.User.Email,
		ExpiresAt:   time.Unix(resp.ExpiresAt, 0),
	}, nil
}

func (s *SupabaseAuthenticator) Verify(ctx context.Context, token string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	user, err := s.client.Auth.WithToken(token).GetUser()
	if err != nil {
		return nil, &apperr.AuthError{Reason: "invalid or expired token", Err: err}
	}
	return &Session{AccessToken: token, AuthID: user.ID.String(), Email: user.Email}, nil
}

// Register creates a confirmed GoTrue user. It needs the service role key.
func (s *SupabaseAuthenticator) Register(ctx context.Context, email, password string) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, &apperr.AuthError{Reason: fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}
	resp, err := s.client.Auth.AdminCreateUser(types.AdminCreateUserRequest{
		Email:        normalizeEmail(email),
		Password:     &password,
		EmailConfirm: true,
	})
	if err != nil {
		return nil, &apperr.AuthError{Reason: "create user", Err: err}
	}
	return &models.Account{ID: resp.ID.String(), CreatedAt: resp.CreatedAt, Email: resp.Email}, nil
}

func (s *SupabaseAuthenticator) Revoke(ctx context.Context, token string) error {
	return s.client.Auth.WithToken(token).Logout()
}

var (
	_ Authenticator = (*SupabaseAuthenticator)(nil)
	_ Revoker       = (*SupabaseAuthenticator)(nil)
)
