package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"paygate/internal/domain"
	"paygate/internal/repository"
	"paygate/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
// The error is attached to the gin context so instrumentation can record it.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	var (
		gatewayErr  *service.GatewayError
		protocolErr *service.ProtocolError
	)

	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrNothingToResolve):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidOrderID),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidRefundMode),
		errors.Is(err, service.ErrInvalidOperation),
		errors.Is(err, service.ErrCurrencyMismatch),
		errors.Is(err, domain.ErrInvalidPrecision):
		return http.StatusBadRequest

	// Business rule errors
	case errors.Is(err, service.ErrNoTransactionID),
		errors.Is(err, service.ErrExcessiveRefund),
		errors.Is(err, service.ErrOrderNotPayable),
		errors.Is(err, service.ErrOrderNotCapturable),
		errors.Is(err, service.ErrTransactionMismatch):
		return http.StatusUnprocessableEntity

	// Conflict errors
	case errors.Is(err, repository.ErrAlreadyExists),
		errors.Is(err, service.ErrUnreconciled),
		errors.Is(err, service.ErrOrderLocked):
		return http.StatusConflict

	// Processor errors
	case errors.As(err, &gatewayErr):
		if gatewayErr.Timeout() {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.As(err, &protocolErr),
		errors.Is(err, service.ErrCaptureFailed):
		return http.StatusBadGateway

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
