package handlers

import (
	"errors"

	"github.com/fenilmodi00/ipo-dashboard/shared"
	"github.com/gofiber/fiber/v2"
)

// Every response uses the envelope {success, data?, message?, error?, count?}

func respondData(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func respondList[T any](c *fiber.Ctx, items []T) error {
	if items == nil {
		items = make([]T, 0)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    items,
		"count":   len(items),
	})
}

func respondMessage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": status < fiber.StatusBadRequest,
		"message": message,
	})
}

// respondError maps err to a status by category. Server errors carry the stable
// fallback text in message and the underlying cause in error.
func respondError(c *fiber.Ctx, err error, fallbackMessage string) error {
	serviceErr, ok := shared.AsServiceError(err)
	if !ok {
		serviceErr = shared.NewServiceError("", "INTERNAL", fallbackMessage, "API", c.Path(), false, err)
	}
	serviceErr.LogError()

	status := serviceErr.HTTPStatus()
	if status < fiber.StatusInternalServerError {
		return respondMessage(c, status, serviceErr.Message)
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": fallbackMessage,
		"error":   serviceErr.CauseMessage(),
	})
}

// ErrorHandler renders errors that escape a handler, including fiber's own routing errors
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		if fiberErr.Code == fiber.StatusNotFound {
			return respondMessage(c, fiber.StatusNotFound, MsgRouteNotFound)
		}
		return respondMessage(c, fiberErr.Code, fiberErr.Message)
	}
	return respondError(c, err, "Internal server error")
}
