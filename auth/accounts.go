package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hrportal/apperr"
	"hrportal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 5

// Accounts authenticates against the local accounts table.
type Accounts struct {
	db     *gorm.DB
	tokens *TokenIssuer
}

func NewAccounts(db *gorm.DB, tokens *TokenIssuer) *Accounts {
	return &Accounts{db: db, tokens: tokens}
}

func (a *Accounts) Register(ctx context.Context, email, password string) (*models.Account, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, &apperr.AuthError{Reason: "email is required"}
	}
	if len(password) < minPasswordLength {
		return nil, &apperr.AuthError{Reason: fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}

	var count int64
	if err := a.db.WithContext(ctx).Model(&models.Account{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, &apperr.StoreError{Op: "register", Reason: "lookup account", Err: err}
	}
	if count > 0 {
		return nil, &apperr.AuthError{Reason: "email already registered"}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := models.Account{Email: email, PasswordHash: string(hashedPassword)}
	if err := a.db.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, &apperr.StoreError{Op: "register", Reason: "create account", Err: err}
	}
	return &account, nil
}

func (a *Accounts) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	var account models.Account
	err := a.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apperr.AuthError{Reason: "invalid credentials"}
	}
	if err != nil {
		return nil, &apperr.StoreError{Op: "authenticate", Reason: "lookup account", Err: err}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, &apperr.AuthError{Reason: "invalid credentials"}
	}

	token, expiresAt, err := a.tokens.Generate(&account)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &Session{AccessToken: token, AuthID: account.ID, Email: account.Email, ExpiresAt: expiresAt}, nil
}

func (a *Accounts) Verify(ctx context.Context, token string) (*Session, error) {
	claims, err := a.tokens.Validate(token)
	if err != nil {
		return nil, &apperr.AuthError{Reason: "invalid or expired token", Err: err}
	}
	s := &Session{AccessToken: token, AuthID: claims.Subject, Email: claims.Email}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

func (a *Accounts) ChangePassword(ctx context.Context, accountID, current, next string) error {
	var account models.Account
	if err := a.db.WithContext(ctx).First(&account, "id = ?", accountID).Error; err != nil {
		return &apperr.AuthError{Reason: "no such account", Err: err}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(current)); err != nil {
		return &apperr.AuthError{Reason: "current password is incorrect"}
	}
	if len(next) < minPasswordLength {
		return &apperr.AuthError{Reason: fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return a.db.WithContext(ctx).Model(&account).Update("password_hash", string(hashedPassword)).Error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ Authenticator = (*Accounts)(nil)
