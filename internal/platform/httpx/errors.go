package httpx

import (
	"errors"
	"net/http"

	"github.com/curastock/curastock/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
//
// The mapping mirrors what API consumers rely on: missing resources are 404,
// business-rule and input failures are 422, duplicate idempotency keys are
// 409, and anything unexpected is a detail-free 500.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicateCode),
		errors.Is(err, shared.ErrInvalidQuantity),
		errors.Is(err, shared.ErrInsufficientStock):
		Problem(w, http.StatusUnprocessableEntity, "Unprocessable", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		Problem(w, http.StatusConflict, "Duplicate Request", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
