package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/pkg/validation"
)

// Error types reported in APIError.ErrorType.
const (
	ErrTypeValidation     = "VALIDATION_ERROR"
	ErrTypeAuthentication = "AUTHENTICATION_ERROR"
	ErrTypeRegionTooLarge = "REGION_TOO_LARGE"
	ErrTypeNotFound       = "NOT_FOUND"
	ErrTypeRateLimited    = "RATE_LIMITED"
	ErrTypeServer         = "SERVER_ERROR"
)

// APIError is a structured error response.
type APIError struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`     // Short summary
	Message   string `json:"message"`   // Human-readable detail
	ErrorType string `json:"error_type"`
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, errType, summary, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Success:   false,
		Error:     summary,
		Message:   message,
		ErrorType: errType,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, summary, msg string) error {
	return newError(c, fiber.StatusBadRequest, ErrTypeValidation, summary, msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, ErrTypeNotFound, "Not found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, ErrTypeServer, "Internal server error", msg)
}

// respondError maps a usecase error to its HTTP status.
func respondError(c *fiber.Ctx, err error) error {
	var reqErr *validation.RequestError
	switch {
	case errors.As(err, &reqErr):
		return errBadRequest(c, "Invalid request", reqErr.Error())
	case errors.Is(err, domain.ErrInvalidBounds):
		return errBadRequest(c, "Invalid bounds", err.Error())
	case errors.Is(err, domain.ErrInvalidParameter):
		return errBadRequest(c, "Invalid parameter", err.Error())
	case errors.Is(err, domain.ErrBackendNotReady):
		return newError(c, fiber.StatusServiceUnavailable, ErrTypeAuthentication,
			"Earth Engine not configured", "Earth Engine authentication credentials are not set up")
	case errors.Is(err, domain.ErrRegionTooLarge):
		return newError(c, fiber.StatusUnprocessableEntity, ErrTypeRegionTooLarge,
			"Region too large", err.Error()+". Try zooming in to a smaller area.")
	case errors.Is(err, domain.ErrNoImagery):
		return errNotFound(c, err.Error())
	}

	LoggerFromCtx(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
	return errInternal(c, err.Error())
}

// ErrorHandler renders errors that escape handlers (timeouts, 404s, panics
// recovered upstream) in the APIError shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		errType := ErrTypeServer
		switch {
		case fe.Code == fiber.StatusNotFound:
			errType = ErrTypeNotFound
		case fe.Code == fiber.StatusTooManyRequests:
			errType = ErrTypeRateLimited
		case fe.Code < 500:
			errType = ErrTypeValidation
		}
		return newError(c, fe.Code, errType, fe.Message, fe.Message)
	}
	slog.Error("unhandled error", "path", c.Path(), "error", err)
	return errInternal(c, err.Error())
}
