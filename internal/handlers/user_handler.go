package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/abudi-09/CMS-sub000/internal/middleware"
	"github.com/abudi-09/CMS-sub000/internal/models"
	"github.com/abudi-09/CMS-sub000/internal/services"
	"github.com/abudi-09/CMS-sub000/pkg/utils"
)

type UserHandler struct {
	service   services.UserService
	validator *validator.Validate
}

func NewUserHandler(service services.UserService) *UserHandler {
	return &UserHandler{
		service:   service,
		validator: validator.New(),
	}
}

func (h *UserHandler) Register(c *fiber.Ctx) error {
	var req models.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	user, err := h.service.Register(c.Context(), &req)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, "Account created, awaiting approval", user)
}

func (h *UserHandler) Login(c *fiber.Ctx) error {
	var req models.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.service.Login(c.Context(), &req)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Login successful", resp)
}

func (h *UserHandler) Logout(c *fiber.Ctx) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	token, _ := c.Locals("token").(string)

	if err := h.service.Logout(c.Context(), userID, token); err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Logged out successfully", nil)
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	user, err := h.service.GetProfile(c.Context(), userID)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Profile retrieved successfully", user)
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	filter := &models.UserFilter{
		Department: c.Query("department"),
		Search:     c.Query("search"),
		Page:       c.QueryInt("page", 1),
		Limit:      c.QueryInt("limit", 20),
	}
	if raw := c.Query("role"); raw != "" {
		if role, ok := models.NormalizeRole(raw); ok {
			filter.Role = &role
		}
	}
	if raw := c.Query("approved"); raw != "" {
		approved := raw == "true"
		filter.Approved = &approved
	}
	if raw := c.Query("active"); raw != "" {
		active := raw == "true"
		filter.Active = &active
	}

	users, total, err := h.service.ListUsers(c.Context(), filter)
	if err != nil {
		return handleError(c, err)
	}
	return utils.PaginatedSuccessResponse(c, users, filter.Page, filter.Limit, total)
}

func (h *UserHandler) Approve(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	user, err := h.service.Approve(c.Context(), actor, userID)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "User approved successfully", user)
}

func (h *UserHandler) Deactivate(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	user, err := h.service.Deactivate(c.Context(), actor, userID)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "User deactivated successfully", user)
}
