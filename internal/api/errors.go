// errors.go - Structured error envelope for API responses.
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/insightflow/backend/internal/ai"
	"github.com/insightflow/backend/internal/analysis"
	"github.com/insightflow/backend/internal/session"
)

// APIError is the structured error response body.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError creates a 400 Bad Request error.
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field.
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewNotFoundError creates a 404 Not Found error.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// FromAnalysisError maps orchestrator failures onto distinct API errors so
// the client can tell a configuration problem from a transient one.
func FromAnalysisError(err error) *APIError {
	switch {
	case errors.Is(err, analysis.ErrNoValidFiles):
		return &APIError{
			Status:  http.StatusBadRequest,
			Code:    "NO_VALID_FILES",
			Message: err.Error(),
		}
	case errors.Is(err, session.ErrAnalysisActive):
		return &APIError{
			Status:  http.StatusConflict,
			Code:    "ANALYSIS_ACTIVE",
			Message: err.Error(),
		}
	case errors.Is(err, ai.ErrMissingAPIKey):
		return &APIError{
			Status:  http.StatusServiceUnavailable,
			Code:    "MISSING_CREDENTIAL",
			Message: err.Error(),
		}
	case errors.Is(err, ai.ErrRateLimited):
		return &APIError{
			Status:  http.StatusTooManyRequests,
			Code:    "RATE_LIMITED",
			Message: err.Error(),
		}
	case errors.Is(err, ai.ErrTruncated):
		return &APIError{
			Status:  http.StatusBadGateway,
			Code:    "RESPONSE_TRUNCATED",
			Message: err.Error(),
		}
	case errors.Is(err, ai.ErrEmptyResponse), errors.Is(err, ai.ErrInvalidFormat):
		return &APIError{
			Status:  http.StatusBadGateway,
			Code:    "INVALID_AI_RESPONSE",
			Message: err.Error(),
		}
	default:
		return &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "INTERNAL_ERROR",
			Message: "analysis failed",
			Details: err.Error(),
		}
	}
}

// ErrorHandler is the Echo HTTPErrorHandler turning APIError values (and
// anything else) into the structured envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	switch e := err.(type) {
	case *APIError:
		apiErr = e
	case *echo.HTTPError:
		apiErr = &APIError{
			Status:  e.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", e.Message),
		}
	default:
		apiErr = &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "UNKNOWN_ERROR",
			Message: "An unexpected error occurred",
			Details: err.Error(),
		}
	}

	c.JSON(apiErr.Status, apiErr)
}
