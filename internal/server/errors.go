package server

import (
	"errors"

	"snapcircle/internal/middleware"
	"snapcircle/internal/models"

	"github.com/gofiber/fiber/v2"
)

// statusForCode maps AppError codes to HTTP statuses.
var statusForCode = map[string]int{
	models.CodeInvalidOperation: fiber.StatusBadRequest,
	models.CodeDuplicateRequest: fiber.StatusConflict,
	models.CodeNotFound:         fiber.StatusNotFound,
	models.CodeNotParticipant:   fiber.StatusForbidden,
	models.CodeEmptyContent:     fiber.StatusBadRequest,
	models.CodeValidation:       fiber.StatusBadRequest,
	models.CodeUnauthorized:     fiber.StatusUnauthorized,
	models.CodeForbidden:        fiber.StatusForbidden,
	models.CodeInternal:         fiber.StatusInternalServerError,
}

// mapServiceError turns any error into an AppError and the status to send.
// Errors without a code become INTERNAL_ERROR.
func mapServiceError(err error) (int, *models.AppError) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		appErr = models.NewInternalError(err)
	}
	status, ok := statusForCode[appErr.Code]
	if !ok {
		status = fiber.StatusInternalServerError
	}
	return status, appErr
}

// respondServiceError writes the error response for err. Server-side
// failures are logged with the request context; their cause never reaches
// the client.
func respondServiceError(c *fiber.Ctx, err error) error {
	status, appErr := mapServiceError(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			"path", c.Path(), "method", c.Method(), "error", err)
	}
	return models.RespondWithError(c, status, appErr)
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return models.CodeNotFound
	case fiber.StatusUnauthorized:
		return models.CodeUnauthorized
	case fiber.StatusForbidden:
		return models.CodeForbidden
	case fiber.StatusBadRequest, fiber.StatusMethodNotAllowed, fiber.StatusUnprocessableEntity:
		return models.CodeValidation
	default:
		return models.CodeInternal
	}
}
