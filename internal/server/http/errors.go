package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/dkorzhov/tasksync/internal/errs"
)

// fail maps a service error onto a status code and a stable error body.
func fail(c *fiber.Ctx, err error) error {
	if ve, ok := errs.AsValidation(err); ok {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error:   "validation_failed",
			Message: ve.Field + ": " + ve.Reason,
		})
	}

	switch {
	case errors.Is(err, errs.ErrTokenExpired):
		return c.Status(fiber.StatusUnauthorized).JSON(errorResponse{Error: "token_expired"})
	case errors.Is(err, errs.ErrTokenMalformed), errors.Is(err, errs.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(errorResponse{Error: "unauthorized"})
	case errors.Is(err, errs.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "not_found"})
	case errors.Is(err, errs.ErrAlreadyExists):
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error:   "email_taken",
			Message: "a user with this email already exists",
		})
	case errors.Is(err, errs.ErrCycle):
		return c.Status(fiber.StatusConflict).JSON(errorResponse{
			Error:   "cycle",
			Message: "a task cannot become a subtask of its own descendant",
		})
	case errors.Is(err, errs.ErrRateLimited):
		return c.Status(fiber.StatusTooManyRequests).JSON(errorResponse{Error: "rate_limited"})
	case errors.Is(err, errs.ErrTransient):
		return c.Status(fiber.StatusServiceUnavailable).JSON(errorResponse{Error: "storage_unavailable"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "internal_error"})
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "bad_request", Message: msg})
}
