package serverutils

import (
	"errors"

	"github.com/u9401066/medvision-mcp/internal/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts errors bubbling out of handlers into the
// structured error envelope. Controllers just return errors; the mapping to
// status codes lives here.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		if appErr, ok := apperror.As(err); ok {
			return ctx.Status(appErr.HTTPStatus()).JSON(
				ErrorResponse(appErr.Code, appErr.Message),
			)
		}

		var verr *ValidationError
		if errors.As(err, &verr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(
				ErrorResponse(apperror.CodeValidation, verr.Error()),
			)
		}

		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			code := apperror.CodeInternal
			if ferr.Code == fiber.StatusNotFound {
				code = apperror.CodeNotFound
			}
			return ctx.Status(ferr.Code).JSON(
				ErrorResponse(code, ferr.Message),
			)
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(
			ErrorResponse(apperror.CodeInternal, "internal server error"),
		)
	}
}
