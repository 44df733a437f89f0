package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridebook/internal/repository"
	"ridebook/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrUnknownReference):
		return http.StatusNotFound

	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest

	// State machine conflicts
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrStaleState),
		errors.Is(err, service.ErrReconciliationConflict),
		errors.Is(err, service.ErrAlreadyRated),
		errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, service.ErrNotEligible):
		return http.StatusForbidden

	case errors.Is(err, service.ErrVehicleLocked):
		return http.StatusLocked

	case errors.Is(err, service.ErrGatewayUnavailable):
		return http.StatusBadGateway

	case errors.Is(err, service.ErrNoDriverAvailable),
		errors.Is(err, service.ErrTransient),
		errors.Is(err, repository.ErrTransient):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
