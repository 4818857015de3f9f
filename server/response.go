package server

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// APIResponse is the uniform success envelope.
type APIResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// APIError is the uniform failure envelope.
type APIError struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors"`
	Success    bool     `json:"success"`
}

func respond(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(APIResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// errorHandler is the single translation point between rich errors and the
// wire envelope. Handlers return errors, they never shape failure bodies.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "internal server error"
	var details []string

	var verr validation.Errors
	var richErr *goerrors.Error
	var fiberErr *fiber.Error

	switch {
	case errors.As(err, &verr):
		status = fiber.StatusBadRequest
		message = "invalid request payload"
		details = formatValidationErrors(verr)
	case goerrors.As(err, &richErr):
		status = statusFromRichError(richErr)
		message = richErr.Message
		if richErr.TextCode != "" {
			details = append(details, richErr.TextCode)
		}
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
		message = fiberErr.Message
	}

	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
		// Internal details stay out of the envelope.
		message = "internal server error"
		details = nil
	}

	return c.Status(status).JSON(APIError{
		StatusCode: status,
		Message:    message,
		Errors:     details,
		Success:    false,
	})
}

func statusFromRichError(err *goerrors.Error) int {
	if err.Code > 0 {
		return err.Code
	}

	switch err.Category {
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return fiber.StatusForbidden
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	case goerrors.CategoryConflict:
		return fiber.StatusConflict
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func formatValidationErrors(verr validation.Errors) []string {
	out := make([]string, 0, len(verr))
	for field, err := range verr {
		out = append(out, field+": "+err.Error())
	}
	sort.Strings(out)
	return out
}
