package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/convohq/messaging-service/pkg/apperr"
)

func statusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeInvalidArgument:
		return http.StatusBadRequest
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperr.CodePermissionDenied:
		return http.StatusForbidden
	case apperr.CodePartialFailure:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail maps a service error onto the wire: the code and message are
// surfaced, the wrapped cause stays in the logs only.
func fail(c *fiber.Ctx, err error) error {
	var ae *apperr.AppError
	if errors.As(err, &ae) {
		body := fiber.Map{"code": ae.Code, "error": ae.Message}
		if len(ae.Completed) > 0 {
			body["completed"] = ae.Completed
		}
		return c.Status(statusFor(ae.Code)).JSON(body)
	}
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
		"code":  apperr.CodeInternal,
		"error": "internal error",
	})
}
