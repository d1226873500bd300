package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/abudi-09/CMS-sub000/internal/middleware"
	"github.com/abudi-09/CMS-sub000/internal/services"
	"github.com/abudi-09/CMS-sub000/pkg/utils"
)

type NotificationHandler struct {
	service services.NotificationService
}

func NewNotificationHandler(service services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	unreadOnly := c.Query("unread") == "true"
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	notifications, total, err := h.service.ListForUser(c.Context(), userID, unreadOnly, page, limit)
	if err != nil {
		return handleError(c, err)
	}
	return utils.PaginatedSuccessResponse(c, notifications, page, limit, total)
}

func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	count, err := h.service.UnreadCount(c.Context(), userID)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Unread count retrieved", fiber.Map{"count": count})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid notification ID")
	}

	if err := h.service.MarkRead(c.Context(), id, userID); err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Notification marked as read", nil)
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	updated, err := h.service.MarkAllRead(c.Context(), userID)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "All notifications marked as read", fiber.Map{"updated": updated})
}

func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid notification ID")
	}

	if err := h.service.Delete(c.Context(), id, userID); err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Notification deleted", nil)
}
