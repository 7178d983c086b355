// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/pantry/internal/shared"
)

// Sentinel errors for the transport layer.
var (
	ErrValidation = errors.New("validation failed")
	ErrBadRequest = errors.New("malformed request body")
)

// ExtensionError carries extra problem members, such as the available quantity
// on a stock conflict.
type ExtensionError interface {
	error
	ProblemExtensions() map[string]any
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var ext map[string]any
	var withExt ExtensionError
	if errors.As(err, &withExt) {
		ext = withExt.ProblemExtensions()
	}
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		ProblemWith(w, http.StatusBadRequest, "Validation Failed", err.Error(), map[string]any{"fields": fields})
	case errors.Is(err, shared.ErrNotFound):
		ProblemWith(w, http.StatusNotFound, "Not Found", err.Error(), ext)
	case errors.Is(err, shared.ErrConflict):
		ProblemWith(w, http.StatusConflict, "Conflict", err.Error(), ext)
	case errors.Is(err, ErrValidation), errors.Is(err, ErrBadRequest), errors.Is(err, shared.ErrInvalidInput):
		ProblemWith(w, http.StatusBadRequest, "Validation Failed", err.Error(), ext)
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
