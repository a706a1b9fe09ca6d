package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"qbank-admin/internal/pkg/logger"
	"qbank-admin/pkg/staging"
)

// StatusOf maps a service error onto the HTTP status the admin client expects.
func StatusOf(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, staging.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, staging.ErrParse):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, staging.ErrSessionExpired):
		return fiber.StatusGone
	case errors.Is(err, staging.ErrImageNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON
// envelope. Internal errors are logged and their text is not exposed.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := StatusOf(err)
		if code == fiber.StatusInternalServerError {
			log.Error("HTTP", "Unhandled error", map[string]interface{}{
				"path":   ctx.Path(),
				"method": ctx.Method(),
				"error":  err.Error(),
			})
			return ctx.Status(code).JSON(ErrorResponse(code, "internal server error"))
		}

		var verr *staging.ValidationError
		if errors.As(err, &verr) && len(verr.Fields) > 0 {
			return ctx.Status(code).JSON(ErrorResponseWithData(code, verr.Message, verr.Fields))
		}
		var remote *staging.RemoteError
		if errors.As(err, &remote) {
			return ctx.Status(code).JSON(ErrorResponse(code, remote.Message))
		}
		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}
