package httpapi

import (
	"errors"
	"net/http"

	"github.com/roach88/jsondocs/internal/docstore"
	"github.com/roach88/jsondocs/internal/value"
)

// requestError is a malformed request, reported as 400.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &requestError{msg: msg}
}

// StatusFor maps repository errors to HTTP status codes.
func StatusFor(err error) int {
	var re *requestError
	switch {
	case errors.As(err, &re),
		errors.Is(err, docstore.ErrInvalidDocument),
		value.IsUnsupportedValueType(err):
		return http.StatusBadRequest
	case docstore.IsNotFound(err):
		return http.StatusNotFound
	case docstore.IsConflict(err):
		return http.StatusConflict
	case docstore.IsNotImplemented(err):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
