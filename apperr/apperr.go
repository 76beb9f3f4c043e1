// Package apperr holds the error taxonomy shared by the data-access layer.
// Every error that reaches a view or handler is one of these kinds.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAccessDenied = errors.New("access denied")
	ErrNotFound     = errors.New("not found")
	ErrNoSession    = errors.New("no session")
)

// AuthError covers bad credentials, missing sessions and sessions that are
// not linked to an employee.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return "auth: " + e.Reason + ": " + e.Err.Error()
	}
	return "auth: " + e.Reason
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Denied reports an operation rejected by the role filter before it reached
// the store.
func Denied(op string) error {
	return fmt.Errorf("%s: %w", op, ErrAccessDenied)
}

// StoreError is a failure reported by the remote store.
type StoreError struct {
	Op     string
	Reason string
	Err    error
}

func (e *StoreError) Error() string {
	msg := "store " + e.Op + ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// PartialWriteError reports a multi-step pipeline that stopped partway.
// Completed lists the steps that were applied and are not rolled back.
type PartialWriteError struct {
	Pipeline  string
	Completed []string
	Failed    string
	Err       error
}

func (e *PartialWriteError) Error() string {
	last := "none"
	if n := len(e.Completed); n > 0 {
		last = e.Completed[n-1]
	}
	return fmt.Sprintf("%s: step %q failed after %q (completed: %s): %v",
		e.Pipeline, e.Failed, last, strings.Join(e.Completed, ", "), e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

// LastCompleted is the last step that succeeded, or "" if none did.
func (e *PartialWriteError) LastCompleted() string {
	if len(e.Completed) == 0 {
		return ""
	}
	return e.Completed[len(e.Completed)-1]
}

// ValidationError is input rejected before anything was sent to the store.
type ValidationError struct {
	What string
	Err  error
}

func (e *ValidationError) Error() string {
	return "invalid " + e.What + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func Invalid(what string, err error) error {
	return &ValidationError{What: what, Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
