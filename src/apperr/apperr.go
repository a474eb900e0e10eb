// Package apperr holds the error kinds shared by handlers and services and
// their mapping to HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

var (
	ErrValidation              = errors.New("validation error")
	ErrNotFound                = errors.New("not found")
	ErrConfiguration           = errors.New("configuration error")
	ErrUpstream                = errors.New("upstream error")
	ErrAuthenticity            = errors.New("authenticity error")
	ErrPaymentInitiationFailed = errors.New("payment initiation failed")
	ErrInvalidState            = errors.New("invalid state")
	ErrForbidden               = errors.New("forbidden")
)

type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func E(kind error, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

func Ef(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind error, msg string, cause error) error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// FromDB translates gorm's missing-row error into ErrNotFound.
func FromDB(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Ef(ErrNotFound, "%s not found", what)
	}
	return err
}

func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAuthenticity):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ErrUpstream), errors.Is(err, ErrPaymentInitiationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-facing text of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if errors.Is(e.Kind, ErrConfiguration) {
			return "server is not configured to handle this request"
		}
		return e.Message
	}
	return err.Error()
}
