package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/abudi-09/CMS-sub000/internal/services"
	"github.com/abudi-09/CMS-sub000/pkg/utils"
)

// handleError maps the service error taxonomy to HTTP codes in one place.
// The short code in the envelope is the sentinel's text; the message is the
// full wrapped error.
func handleError(c *fiber.Ctx, err error) error {
	type mapping struct {
		sentinel error
		status   int
	}
	for _, m := range []mapping{
		{services.ErrNotFound, fiber.StatusNotFound},
		{services.ErrValidation, fiber.StatusBadRequest},
		{services.ErrInvalidRecipient, fiber.StatusBadRequest},
		{services.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{services.ErrPermissionDenied, fiber.StatusForbidden},
		{services.ErrCrossDepartment, fiber.StatusForbidden},
		{services.ErrInactiveAccount, fiber.StatusForbidden},
		{services.ErrPendingApproval, fiber.StatusForbidden},
		{services.ErrStatusConflict, fiber.StatusConflict},
		{services.ErrStatusLocked, fiber.StatusConflict},
		{services.ErrDuplicate, fiber.StatusConflict},
		{services.ErrFeedbackExists, fiber.StatusConflict},
		{services.ErrNotResolved, fiber.StatusConflict},
	} {
		if errors.Is(err, m.sentinel) {
			return utils.ErrorResponseWithCode(c, m.status, m.sentinel.Error(), err.Error())
		}
	}
	return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Internal server error")
}
