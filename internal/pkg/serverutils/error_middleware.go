package serverutils

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts unhandled errors into the standard envelope.
// Fiber errors keep their status code; everything else becomes a 500 with a
// generic message so internals never leak.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		log.Printf("[ERROR] unhandled: %v (path=%s)", err, ctx.Path())
		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, "internal server error"))
	}
}
