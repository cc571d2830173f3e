package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/amishk599/shortlist/internal/model"
	"github.com/amishk599/shortlist/internal/pool"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// Error codes returned in the "code" field of error bodies.
const (
	CodeAlreadyLinked = "already_linked"
	CodeNotFound      = "not_found"
	CodeIneligible    = "ineligible"
	CodeInvalid       = "invalid_request"
	CodeUnavailable   = "unavailable"
	CodeInternal      = "internal"
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var ve *ErrValidation
	var le *pool.LoadError
	switch {
	case errors.As(err, &ve), errors.Is(err, model.ErrInvalidStage):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrPositionNotFound), errors.Is(err, model.ErrCandidateNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrAlreadyLinked):
		return http.StatusConflict
	case errors.Is(err, model.ErrCandidateIneligible):
		return http.StatusUnprocessableEntity
	case errors.As(err, &le):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode returns the machine-readable code for an error.
func ErrorCode(err error) string {
	switch HTTPStatus(err) {
	case http.StatusBadRequest:
		return CodeInvalid
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeAlreadyLinked
	case http.StatusUnprocessableEntity:
		return CodeIneligible
	case http.StatusServiceUnavailable:
		return CodeUnavailable
	default:
		return CodeInternal
	}
}

func extractValidationErrors(err error) *ErrValidation {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		// Report the first failing field.
		ve := validationErrors[0]
		return &ErrValidation{Field: ve.Field(), Message: ve.Tag()}
	}
	return &ErrValidation{Field: "body", Message: "invalid request"}
}
