package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	denied := fmt.Errorf("handler: %w", Denied("approve leave"))
	assert.True(t, IsAccessDenied(denied))
	assert.False(t, IsNotFound(denied))

	missing := &StoreError{Op: "update leave_requests", Reason: "no row x", Err: ErrNotFound}
	assert.True(t, IsNotFound(missing))
	assert.Equal(t, "store update leave_requests: no row x: not found", missing.Error())

	auth := fmt.Errorf("login: %w", &AuthError{Reason: "no session", Err: ErrNoSession})
	assert.True(t, IsAuth(auth))
	assert.ErrorIs(t, auth, ErrNoSession)

	invalid := Invalid("department", errors.New("name must be at least 2 characters"))
	assert.True(t, IsValidation(invalid))
	assert.Equal(t, "invalid department: name must be at least 2 characters", invalid.Error())
}

func TestPartialWriteError(t *testing.T) {
	cause := errors.New("bucket unavailable")
	err := &PartialWriteError{
		Pipeline:  "create employee",
		Completed: []string{"account", "employee"},
		Failed:    "upload cv.pdf",
		Err:       cause,
	}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "employee", err.LastCompleted())
	assert.Contains(t, err.Error(), `step "upload cv.pdf" failed after "employee"`)
	assert.Equal(t, "", (&PartialWriteError{}).LastCompleted())
}
