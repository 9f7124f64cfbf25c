// internal/app/system/fault/fault.go

// Package fault defines the error kinds the core propagates to the HTTP
// layer. Stores and the workflow engine wrap context onto these sentinels
// with fmt.Errorf("...: %w", ...); handlers translate them to status codes
// with Status.
package fault

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound means an entity, version, or key is absent.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the acting user lacks the company context or role
	// the operation requires.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidReference means a submission or snapshot points at a form
	// or field that cannot be resolved.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrConflict means a version race or an already-decided state
	// transition; safe for the caller to re-read and retry deliberately.
	ErrConflict = errors.New("conflict")
)

// Status maps a core error to an HTTP status code. Unrecognized errors map
// to 500.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidReference):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
