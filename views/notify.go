package views

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"hrportal/apperr"
	"hrportal/leave"
	"hrportal/models"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a user-facing message. Err keeps the cause for logs.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

type Notifier interface {
	Notify(Notification)
}

type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

// LogNotifier writes notifications to the standard logger.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notification) {
	if n.Err != nil {
		log.Printf("[views] %s: %s (%v)", n.Level, n.Message, n.Err)
		return
	}
	log.Printf("[views] %s: %s", n.Level, n.Message)
}

// Describe turns an error from the data-access layer into a message a user
// can act on.
func Describe(err error) Notification {
	if err == nil {
		return Notification{Level: LevelInfo, Message: "Done."}
	}

	var partial *apperr.PartialWriteError
	var storeErr *apperr.StoreError
	switch {
	case errors.As(err, &partial):
		msg := fmt.Sprintf("%s stopped at %q.", capitalize(partial.Pipeline), partial.Failed)
		if len(partial.Completed) > 0 {
			msg += fmt.Sprintf(" Already saved: %s.", strings.Join(partial.Completed, ", "))
		}
		return Notification{Level: LevelError, Message: msg, Err: err}
	case apperr.IsAccessDenied(err):
		return Notification{Level: LevelWarning, Message: "You do not have permission to do that.", Err: err}
	case apperr.IsAuth(err):
		return Notification{Level: LevelWarning, Message: "Please sign in again.", Err: err}
	case errors.Is(err, leave.ErrTerminal):
		return Notification{Level: LevelWarning, Message: "This leave request has already been decided.", Err: err}
	case errors.Is(err, models.ErrInvalidLeavePeriod):
		return Notification{Level: LevelWarning, Message: "End date must not be before start date.", Err: err}
	case apperr.IsNotFound(err):
		return Notification{Level: LevelWarning, Message: "The record no longer exists.", Err: err}
	case errors.As(err, &storeErr):
		return Notification{Level: LevelError, Message: "The server could not complete the request: " + storeErr.Reason, Err: err}
	}
	return Notification{Level: LevelError, Message: err.Error(), Err: err}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
