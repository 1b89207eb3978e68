package httpx

import (
	"errors"
	"net/http"

	"github.com/goover/docudesk/internal/shared"
)

// ValidationProblem carries per-field messages alongside the problem detail.
type ValidationProblem struct {
	ProblemDetail
	Errors []shared.FieldError `json:"errors"`
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var verr *shared.ValidationError
	switch {
	case errors.As(err, &verr):
		writeProblem(w, http.StatusBadRequest, ValidationProblem{
			ProblemDetail: ProblemDetail{Type: ProblemValidation, Title: "Validation Failed", Status: http.StatusBadRequest, Detail: verr.Error()},
			Errors:        verr.Fields,
		})
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrInvalidTransition):
		Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.Is(err, shared.ErrStorageUnavailable), errors.Is(err, shared.ErrAssetUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Service Unavailable", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
