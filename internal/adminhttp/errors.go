package adminhttp

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const messageInternalError = "internal server error"

type errorResponse struct {
	Error string `json:"error"`
}

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	var fiberErr *fiber.Error
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.As(err, &validationErrs), errors.Is(err, circulation.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, circulation.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, circulation.ErrUnavailable),
		errors.Is(err, circulation.ErrAlreadyClosed),
		errors.Is(err, circulation.ErrConflict),
		errors.Is(err, circulation.ErrDuplicateKey):
		return fiber.StatusConflict
	case errors.Is(err, circulation.ErrCheckoutLimitReached):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, circulation.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// handleError writes {"error": "..."}; details of server errors are logged, not returned.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	message := err.Error()

	if status >= fiber.StatusInternalServerError {
		if s.logger != nil {
			s.logger.ErrorContext(c.UserContext(), logMsgServerError,
				"path", c.Path(),
				"error", err.Error(),
				"request_id", requestID(c),
			)
		}

		message = messageInternalError
	}

	return c.Status(status).JSON(errorResponse{Error: message})
}
