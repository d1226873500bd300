package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/abudi-09/CMS-sub000/internal/models"
	"github.com/abudi-09/CMS-sub000/internal/services"
	"github.com/abudi-09/CMS-sub000/pkg/utils"
)

// ActivityHandler exposes the audit trail to administrators. Per-complaint
// timelines live on the complaint routes; this is the cross-complaint view.
type ActivityHandler struct {
	service services.ActivityService
}

func NewActivityHandler(service services.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

func (h *ActivityHandler) List(c *fiber.Ctx) error {
	filter := parseActivityFilter(c)

	logs, total, err := h.service.List(c.Context(), filter)
	if err != nil {
		return handleError(c, err)
	}

	responses := make([]models.ActivityLogResponse, len(logs))
	for i := range logs {
		responses[i] = models.ToActivityLogResponse(&logs[i])
	}
	return utils.PaginatedSuccessResponse(c, responses, filter.Page, filter.Limit, total)
}

// Actions lists every action name seen in the log, for filter pickers.
func (h *ActivityHandler) Actions(c *fiber.Ctx) error {
	actions, err := h.service.DistinctActions(c.Context())
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Actions retrieved", actions)
}

func parseActivityFilter(c *fiber.Ctx) *models.ActivityLogFilter {
	filter := &models.ActivityLogFilter{
		Action: c.Query("action"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 20),
	}
	if raw := c.Query("role"); raw != "" {
		if role, ok := models.NormalizeRole(raw); ok {
			filter.Role = role
		}
	}
	if raw := c.Query("user_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.UserID = &id
		}
	}
	if raw := c.Query("complaint_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.ComplaintID = &id
		}
	}
	if raw := c.Query("start_date"); raw != "" {
		if ts, err := time.Parse("2006-01-02", raw); err == nil {
			filter.StartDate = &ts
		}
	}
	if raw := c.Query("end_date"); raw != "" {
		if ts, err := time.Parse("2006-01-02", raw); err == nil {
			filter.EndDate = &ts
		}
	}
	return filter
}
