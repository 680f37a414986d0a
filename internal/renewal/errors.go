package renewal

import (
	"errors"
	"net/http"
)

// Typed errors for the renewal pipeline. Callers wrap them with
// fmt.Errorf("%w: ...") and transports map them with StatusCode.
var (
	// ErrUnauthorized indicates a webhook whose verification header did not match.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation indicates an unusable payload, such as a missing school code.
	ErrValidation = errors.New("validation error")
	// ErrNotFound indicates no license record exists for the school code.
	ErrNotFound = errors.New("school not found")
	// ErrInternal indicates a store or other unexpected failure.
	ErrInternal = errors.New("internal error")
	// ErrIgnored marks a gateway notification that is deliberately not processed.
	ErrIgnored = errors.New("transaction ignored")
)

func StatusCode(err error) int {
	switch {
	case err == nil, errors.Is(err, ErrIgnored):
		return http.StatusOK
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
