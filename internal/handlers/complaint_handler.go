package handlers

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/abudi-09/CMS-sub000/internal/middleware"
	"github.com/abudi-09/CMS-sub000/internal/models"
	"github.com/abudi-09/CMS-sub000/internal/services"
	"github.com/abudi-09/CMS-sub000/pkg/utils"
)

type ComplaintHandler struct {
	service     services.ComplaintService
	attachments services.AttachmentService
	validator   *validator.Validate
}

func NewComplaintHandler(service services.ComplaintService, attachments services.AttachmentService) *ComplaintHandler {
	return &ComplaintHandler{
		service:     service,
		attachments: attachments,
		validator:   validator.New(),
	}
}

func (h *ComplaintHandler) Create(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req models.ComplaintCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	complaint, err := h.service.Create(c.Context(), actor, &req)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, "Complaint submitted successfully", models.ToComplaintResponse(complaint))
}

// list is the shared engine behind the five listing surfaces. The view
// decides whose rows are visible; the query string only refines within that.
func (h *ComplaintHandler) list(c *fiber.Ctx, view models.ScopeView) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	filter := parseComplaintFilter(c)
	complaints, total, err := h.service.List(c.Context(), actor, view, filter)
	if err != nil {
		return handleError(c, err)
	}

	responses := make([]models.ComplaintResponse, len(complaints))
	for i := range complaints {
		responses[i] = models.ToComplaintResponse(&complaints[i])
	}
	return utils.PaginatedSuccessResponse(c, responses, filter.Page, filter.Limit, total)
}

func (h *ComplaintHandler) ListMine(c *fiber.Ctx) error      { return h.list(c, models.ViewMine) }
func (h *ComplaintHandler) ListInbox(c *fiber.Ctx) error     { return h.list(c, models.ViewInbox) }
func (h *ComplaintHandler) ListManaged(c *fiber.Ctx) error   { return h.list(c, models.ViewManaged) }
func (h *ComplaintHandler) ListAll(c *fiber.Ctx) error       { return h.list(c, models.ViewAll) }
func (h *ComplaintHandler) ListEscalated(c *fiber.Ctx) error { return h.list(c, models.ViewEscalated) }

func (h *ComplaintHandler) Stats(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	stats, err := h.service.Stats(c.Context(), actor)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Statistics retrieved successfully", stats)
}

func (h *ComplaintHandler) GetByID(c *fiber.Ctx) error {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return nil
	}

	complaint, err := h.service.GetByID(c.Context(), actor, id)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Complaint retrieved successfully", models.ToComplaintResponse(complaint))
}

func (h *ComplaintHandler) GetByCode(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	complaint, err := h.service.GetByCode(c.Context(), actor, c.Params("code"))
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Complaint retrieved successfully", models.ToComplaintResponse(complaint))
}

func (h *ComplaintHandler) Timeline(c *fiber.Ctx) error {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return nil
	}

	logs, err := h.service.Timeline(c.Context(), actor, id)
	if err != nil {
		return handleError(c, err)
	}

	responses := make([]models.ActivityLogResponse, len(logs))
	for i := range logs {
		responses[i] = models.ToActivityLogResponse(&logs[i])
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Activity log retrieved successfully", responses)
}

func (h *ComplaintHandler) UpdateRecipient(c *fiber.Ctx) error {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return nil
	}

	var req models.RecipientUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	complaint, err := h.service.UpdateRecipient(c.Context(), actor, id, &req)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Recipient updated successfully", models.ToComplaintResponse(complaint))
}

func (h *ComplaintHandler) ReassignRecipient(c *fiber.Ctx) error {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return nil
	}

	var req models.RecipientUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	complaint, err := h.service.ReassignRecipient(c.Context(), actor, id, &req)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Complaint reassigned successfully", models.ToComplaintResponse(complaint))
}

func (h *ComplaintHandler) Assign(c *fiber.Ctx) error {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return nil
	}

	var req models.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	complaint, err := h.service.Assign(c.Context(), actor, id, &req)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Complaint assigned successfully", models.ToComplaintResponse(complaint))
}

func (h *ComplaintHandler) AssignToHod(c *fiber.Ctx) error {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return nil
	}

	var req models.AssignHodRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	complaint, err := h.service.AssignToHod(c.Context(), actor, id, &req)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Complaint assigned to head of department", models.ToComplaintResponse(complaint))
}

func (h *ComplaintHandler) AssignToStaff(c *fiber.Ctx) error {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return nil
	}

	var req models.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	complaint, err := h.service.AssignToStaff(c.Context(), actor, id, &req)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Complaint assigned to staff", models.ToComplaintResponse(complaint))
}

func (h *ComplaintHandler) AcceptAssignment(c *fiber.Ctx) error {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return nil
	}

	complaint, err := h.service.AcceptAssignment(c.Context(), actor, id)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Assignment accepted", models.ToComplaintResponse(complaint))
}

func (h *ComplaintHandler) RejectAssignment(c *fiber.Ctx) error {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return nil
	}

	var req struct {
		Note string `json:"note"`
	}
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	complaint, err := h.service.RejectAssignment(c.Context(), actor, id, req.Note)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Assignment rejected", models.ToComplaintResponse(complaint))
}

func (h *ComplaintHandler) Approve(c *fiber.Ctx) error {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return nil
	}

	var req models.ApproveRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	complaint, err := h.service.Approve(c.Context(), actor, id, &req)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Complaint approved", models.ToComplaintResponse(complaint))
}

func (h *ComplaintHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return nil
	}

	var req models.StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	complaint, err := h.service.UpdateStatus(c.Context(), actor, id, &req)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Status updated successfully", models.ToComplaintResponse(complaint))
}

func (h *ComplaintHandler) SubmitFeedback(c *fiber.Ctx) error {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return nil
	}

	var req models.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	complaint, err := h.service.SubmitFeedback(c.Context(), actor, id, &req)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Feedback submitted successfully", models.ToComplaintResponse(complaint))
}

func (h *ComplaintHandler) ReviewFeedback(c *fiber.Ctx) error {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return nil
	}

	complaint, err := h.service.ReviewFeedback(c.Context(), actor, id)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Feedback marked as reviewed", models.ToComplaintResponse(complaint))
}

func (h *ComplaintHandler) Delete(c *fiber.Ctx) error {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return nil
	}

	if err := h.service.SoftDelete(c.Context(), actor, id); err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Complaint deleted successfully", nil)
}

// Attachments

func (h *ComplaintHandler) UploadAttachment(c *fiber.Ctx) error {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return nil
	}

	header, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File is required")
	}
	file, err := header.Open()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Could not read uploaded file")
	}
	defer file.Close()

	resp, err := h.attachments.Upload(c.Context(), actor, id, file, header)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, "File uploaded successfully", resp)
}

func (h *ComplaintHandler) ListAttachments(c *fiber.Ctx) error {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return nil
	}

	responses, err := h.attachments.ListForComplaint(c.Context(), actor, id)
	if err != nil {
		return handleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Attachments retrieved successfully", responses)
}

func (h *ComplaintHandler) DownloadAttachment(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	attachmentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid attachment ID")
	}

	attachment, reader, err := h.attachments.Download(c.Context(), actor, attachmentID)
	if err != nil {
		return handleError(c, err)
	}

	c.Set(fiber.HeaderContentType, attachment.MimeType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", attachment.FileName))
	return c.SendStream(reader, int(attachment.FileSize))
}

// helpers

// actorAndID writes the error response itself when it fails; callers return
// nil in that case.
func (h *ComplaintHandler) actorAndID(c *fiber.Ctx) (models.Actor, uuid.UUID, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		_ = utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
		return models.Actor{}, uuid.Nil, false
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		_ = utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid complaint ID")
		return models.Actor{}, uuid.Nil, false
	}
	return actor, id, true
}

func parseComplaintFilter(c *fiber.Ctx) *models.ComplaintFilter {
	filter := &models.ComplaintFilter{
		Category:   c.Query("category"),
		Department: c.Query("department"),
		Search:     c.Query("search"),
		Page:       c.QueryInt("page", 1),
		Limit:      c.QueryInt("limit", 20),
	}
	if raw := c.Query("status"); raw != "" {
		if status, ok := models.ParseStatus(raw); ok {
			filter.Status = &status
		}
	}
	if raw := c.Query("priority"); raw != "" {
		if priority, ok := models.ParsePriority(raw); ok {
			filter.Priority = &priority
		}
	}
	return filter
}
