package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Messaging
	ErrPersistence   = fmt.Errorf("message store unavailable")
	ErrNotIdentified = fmt.Errorf("connection is not identified, register first")
	ErrValidation    = fmt.Errorf("invalid payload")
	ErrNotFound      = fmt.Errorf("not found")

	// Auth
	ErrUnauthenticated    = fmt.Errorf("unauthenticated")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
)

// HTTPStatus translates domain errors into HTTP status codes for the REST layer.
// Unknown errors are reported as internal failures so nothing internal leaks to clients.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.Is(err, ErrUnauthenticated), stderrors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case stderrors.Is(err, ErrValidation), stderrors.Is(err, ErrInvalidPassword),
		stderrors.Is(err, ErrUserAlreadyExists):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
