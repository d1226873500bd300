package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/abudi-09/CMS-sub000/internal/models"
	"github.com/abudi-09/CMS-sub000/internal/repository"
)

// ComplaintService is the routing and transition engine. Every operation
// follows the same discipline: load, validate all preconditions, mutate,
// persist, then emit side effects. Nothing is written before validation
// passes, and no side-effect failure unwinds the persisted mutation.
type ComplaintService interface {
	Create(ctx context.Context, actor models.Actor, req *models.ComplaintCreateRequest) (*models.Complaint, error)
	GetByID(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Complaint, error)
	GetByCode(ctx context.Context, actor models.Actor, code string) (*models.Complaint, error)
	List(ctx context.Context, actor models.Actor, view models.ScopeView, filter *models.ComplaintFilter) ([]models.Complaint, int64, error)
	Stats(ctx context.Context, actor models.Actor) (*models.ComplaintStatsResponse, error)
	Timeline(ctx context.Context, actor models.Actor, id uuid.UUID) ([]models.ActivityLog, error)

	UpdateRecipient(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.RecipientUpdateRequest) (*models.Complaint, error)
	ReassignRecipient(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.RecipientUpdateRequest) (*models.Complaint, error)
	Assign(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.AssignRequest) (*models.Complaint, error)
	AssignToHod(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.AssignHodRequest) (*models.Complaint, error)
	AssignToStaff(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.AssignRequest) (*models.Complaint, error)
	AcceptAssignment(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Complaint, error)
	RejectAssignment(ctx context.Context, actor models.Actor, id uuid.UUID, note string) (*models.Complaint, error)

	Approve(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.ApproveRequest) (*models.Complaint, error)
	UpdateStatus(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.StatusUpdateRequest) (*models.Complaint, error)

	SubmitFeedback(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.FeedbackRequest) (*models.Complaint, error)
	ReviewFeedback(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Complaint, error)
	SoftDelete(ctx context.Context, actor models.Actor, id uuid.UUID) error
}

type complaintService struct {
	complaints repository.ComplaintRepository
	users      repository.UserRepository
	activity   ActivityService
	notifier   NotificationService
	dispatcher Dispatcher
	mailer     *Mailer
	log        zerolog.Logger
	now        func() time.Time
}

func NewComplaintService(
	complaints repository.ComplaintRepository,
	users repository.UserRepository,
	activity ActivityService,
	notifier NotificationService,
	dispatcher Dispatcher,
	mailer *Mailer,
	log zerolog.Logger,
) ComplaintService {
	return &complaintService{
		complaints: complaints,
		users:      users,
		activity:   activity,
		notifier:   notifier,
		dispatcher: dispatcher,
		mailer:     mailer,
		log:        log.With().Str("component", "complaints").Logger(),
		now:        time.Now,
	}
}

// Create

func (s *complaintService) Create(ctx context.Context, actor models.Actor, req *models.ComplaintCreateRequest) (*models.Complaint, error) {
	now := s.now()

	sourceRole := actor.Role
	if req.SourceRole != nil {
		role, ok := models.NormalizeRole(*req.SourceRole)
		if !ok {
			return nil, fmt.Errorf("%w: unknown source role %q", ErrValidation, *req.SourceRole)
		}
		sourceRole = role
	}

	priority := models.PriorityMedium
	if req.Priority != "" {
		p, ok := models.ParsePriority(req.Priority)
		if !ok {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, req.Priority)
		}
		priority = p
	}

	department := req.Department
	if department == "" {
		department = actor.Department
	}

	c := &models.Complaint{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Department:  department,
		Status:      models.StatusPending,
		Priority:    priority,
		SourceRole:  sourceRole,
		SubmittedBy: actor.ID,
		SubmittedTo: req.SubmittedTo,
	}
	c.AppendPath(sourceRole)

	if req.Deadline != nil {
		deadline, err := parseDate(*req.Deadline)
		if err != nil {
			return nil, fmt.Errorf("%w: bad deadline", ErrValidation)
		}
		c.Deadline = deadline
	}

	if req.RecipientRole != nil {
		role, ok := models.NormalizeRole(*req.RecipientRole)
		if !ok {
			return nil, fmt.Errorf("%w: unknown recipient role %q", ErrValidation, *req.RecipientRole)
		}
		if req.RecipientID == nil {
			return nil, fmt.Errorf("%w: recipient_id required when recipient_role is set", ErrValidation)
		}
		recipientID, err := uuid.Parse(*req.RecipientID)
		if err != nil {
			return nil, fmt.Errorf("%w: bad recipient_id", ErrValidation)
		}
		c.RecipientRole = &role
		c.RecipientID = &recipientID
	}

	if err := checkDeanAddressing(c); err != nil {
		return nil, err
	}

	// Direct assignment at creation bypasses routing but not validation.
	switch {
	case req.RecipientStaffID != nil:
		staff, err := s.resolveTarget(ctx, *req.RecipientStaffID, models.RoleStaff)
		if err != nil {
			return nil, err
		}
		s.bindAssignment(c, staff, actor, now)
	case req.RecipientHodID != nil:
		hod, err := s.resolveTarget(ctx, *req.RecipientHodID, models.RoleHod)
		if err != nil {
			return nil, err
		}
		s.bindAssignment(c, hod, actor, now)
	}

	// Concurrent submitters can draw the same code; the unique index on
	// complaint_code decides, and the loser draws again.
	for attempt := 0; ; attempt++ {
		code, cerr := s.complaints.GenerateComplaintCode(ctx)
		if cerr != nil {
			return nil, cerr
		}
		c.ComplaintCode = code

		cerr = s.complaints.Create(ctx, c)
		if cerr == nil {
			break
		}
		if errors.Is(cerr, gorm.ErrDuplicatedKey) && attempt < 3 {
			continue
		}
		return nil, cerr
	}

	s.record(ctx, actor, c.ID, "Complaint Submitted", map[string]interface{}{
		"complaint_code": c.ComplaintCode,
		"department":     c.Department,
	})

	targets := []uuid.UUID{actor.ID}
	targets = append(targets, s.routingTargets(ctx, c)...)
	s.safeNotify(c.ID, targets, models.NotificationSubmission,
		"Complaint submitted",
		fmt.Sprintf("Complaint %s (%q) has been submitted.", c.ComplaintCode, c.Title))

	return c, nil
}

// bindAssignment applies a direct assignment at creation time. Status stays
// Pending: direct targeting routes the complaint into a queue, it does not
// start the work.
func (s *complaintService) bindAssignment(c *models.Complaint, target *models.User, actor models.Actor, now time.Time) {
	role := target.Role
	c.AssignedTo = &target.ID
	c.AssignedToRole = &role
	c.AssignedBy = &actor.ID
	actorRole := actor.Role
	c.AssignedByRole = &actorRole
	c.AssignedAt = &now
	if c.Department == "" {
		c.Department = target.Department
	}
}

// Reads

func (s *complaintService) GetByID(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Complaint, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canView(actor, c) {
		return nil, ErrPermissionDenied
	}
	return s.complaints.FindByIDWithRelations(ctx, id)
}

// GetByCode resolves the human-facing complaint code under the same
// visibility rules as GetByID.
func (s *complaintService) GetByCode(ctx context.Context, actor models.Actor, code string) (*models.Complaint, error) {
	c, err := s.complaints.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if c.IsDeleted {
		return nil, ErrNotFound
	}
	if !s.canView(actor, c) {
		return nil, ErrPermissionDenied
	}
	return s.complaints.FindByIDWithRelations(ctx, c.ID)
}

func (s *complaintService) List(ctx context.Context, actor models.Actor, view models.ScopeView, filter *models.ComplaintFilter) ([]models.Complaint, int64, error) {
	if view == models.ViewEscalated && !(actor.Role == models.RoleAdmin || actor.Role == models.RoleDean) {
		return nil, 0, ErrPermissionDenied
	}
	scope, err := s.scopeFor(ctx, actor, view)
	if err != nil {
		return nil, 0, err
	}
	return s.complaints.List(ctx, scope, filter)
}

func (s *complaintService) Stats(ctx context.Context, actor models.Actor) (*models.ComplaintStatsResponse, error) {
	scope, err := s.scopeFor(ctx, actor, models.ViewAll)
	if err != nil {
		return nil, err
	}
	return s.complaints.GetStats(ctx, scope)
}

func (s *complaintService) Timeline(ctx context.Context, actor models.Actor, id uuid.UUID) ([]models.ActivityLog, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canView(actor, c) {
		return nil, ErrPermissionDenied
	}
	return s.activity.Timeline(ctx, id)
}

func (s *complaintService) scopeFor(ctx context.Context, actor models.Actor, view models.ScopeView) (models.ComplaintScope, error) {
	var handlers []uuid.UUID
	if actor.Role == models.RoleHod && view == models.ViewManaged {
		ids, err := s.users.ListIDsByRoles(ctx, actor.Department, []models.Role{models.RoleStaff, models.RoleHod})
		if err != nil {
			return models.ComplaintScope{}, err
		}
		handlers = ids
	}
	return models.ScopeFor(actor, view, handlers), nil
}

// Routing

func (s *complaintService) UpdateRecipient(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.RecipientUpdateRequest) (*models.Complaint, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.SubmittedBy != actor.ID {
		return nil, ErrPermissionDenied
	}
	if c.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: recipient can only change while Pending", ErrStatusConflict)
	}

	role, target, err := s.resolveRecipient(ctx, req.RecipientRole, req.RecipientID)
	if err != nil {
		return nil, err
	}

	prevRole := c.RecipientRole
	c.RecipientRole = &role
	c.RecipientID = &target.ID
	if req.SubmittedTo != nil {
		c.SubmittedTo = *req.SubmittedTo
	}
	if err := checkDeanAddressing(c); err != nil {
		return nil, err
	}
	now := s.now()
	c.LastEditedAt = &now
	c.EditsCount++

	if err := s.complaints.Update(ctx, c); err != nil {
		return nil, err
	}

	details := map[string]interface{}{"to_role": string(role), "to_id": target.ID.String()}
	if prevRole != nil {
		details["from_role"] = string(*prevRole)
	}
	s.record(ctx, actor, c.ID, "Recipient Updated", details)
	s.safeNotify(c.ID, []uuid.UUID{target.ID}, models.NotificationAssignment,
		"Complaint routed to you",
		fmt.Sprintf("Complaint %s has been routed to you.", c.ComplaintCode))

	return c, nil
}

func (s *complaintService) ReassignRecipient(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.RecipientUpdateRequest) (*models.Complaint, error) {
	if !actor.Role.IsLeadership() {
		return nil, ErrPermissionDenied
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	role, target, err := s.resolveRecipient(ctx, req.RecipientRole, req.RecipientID)
	if err != nil {
		return nil, err
	}

	details := map[string]interface{}{
		"to_role": string(role),
		"to_id":   target.ID.String(),
	}
	if c.RecipientRole != nil {
		details["from_role"] = string(*c.RecipientRole)
	}
	if c.RecipientID != nil {
		details["from_id"] = c.RecipientID.String()
	}
	if req.Note != "" {
		details["note"] = req.Note
	}

	c.RecipientRole = &role
	c.RecipientID = &target.ID
	if err := checkDeanAddressing(c); err != nil {
		return nil, err
	}

	if err := s.complaints.Update(ctx, c); err != nil {
		return nil, err
	}

	s.record(ctx, actor, c.ID, "Recipient Reassigned", details)
	s.safeNotify(c.ID, []uuid.UUID{target.ID, c.SubmittedBy}, models.NotificationAssignment,
		"Complaint rerouted",
		fmt.Sprintf("Complaint %s has been rerouted.", c.ComplaintCode))

	return c, nil
}

func (s *complaintService) Assign(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.AssignRequest) (*models.Complaint, error) {
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleDean {
		return nil, ErrPermissionDenied
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	staff, err := s.resolveTarget(ctx, req.StaffID, models.RoleStaff)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleDean && staff.Department != actor.Department {
		return nil, fmt.Errorf("%w: can only assign staff in your department", ErrCrossDepartment)
	}

	first := c.AssignedTo == nil
	now := s.now()

	s.bindAssignment(c, staff, actor, now)
	c.Status = models.StatusInProgress
	if actor.Role == models.RoleDean && !c.PathContains(models.RoleDean) {
		c.AppendPath(models.RoleDean)
	}
	if req.Deadline != nil {
		deadline, derr := parseDate(*req.Deadline)
		if derr != nil {
			return nil, fmt.Errorf("%w: bad deadline", ErrValidation)
		}
		c.Deadline = deadline
	}

	if err := s.complaints.Update(ctx, c); err != nil {
		return nil, err
	}

	action := "Complaint Assigned"
	if !first {
		action = "Complaint Reassigned"
	}
	s.record(ctx, actor, c.ID, action, map[string]interface{}{
		"staff_id": staff.ID.String(),
		"by_role":  string(actor.Role),
	})
	s.safeNotify(c.ID, []uuid.UUID{staff.ID, c.SubmittedBy}, models.NotificationAssignment,
		"Complaint assigned",
		fmt.Sprintf("Complaint %s has been assigned to %s.", c.ComplaintCode, staff.FullName))

	return c, nil
}

func (s *complaintService) AssignToHod(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.AssignHodRequest) (*models.Complaint, error) {
	if actor.Role != models.RoleDean {
		return nil, ErrPermissionDenied
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	hod, err := s.resolveTarget(ctx, req.HodID, models.RoleHod)
	if err != nil {
		return nil, err
	}

	now := s.now()
	s.bindAssignment(c, hod, actor, now)

	// Assigned, not In Progress: the HoD must explicitly accept or reject.
	c.Status = models.StatusAssigned
	c.AppendPath(models.RoleDean)
	c.AppendPath(models.RoleHod)
	if req.Deadline != nil {
		deadline, derr := parseDate(*req.Deadline)
		if derr != nil {
			return nil, fmt.Errorf("%w: bad deadline", ErrValidation)
		}
		c.Deadline = deadline
	}

	if err := s.complaints.Update(ctx, c); err != nil {
		return nil, err
	}

	s.record(ctx, actor, c.ID, "Assigned to HOD", map[string]interface{}{
		"hod_id": hod.ID.String(),
	})
	s.safeNotify(c.ID, []uuid.UUID{hod.ID, c.SubmittedBy}, models.NotificationAssignment,
		"Complaint awaiting acceptance",
		fmt.Sprintf("Complaint %s has been assigned to the head of department.", c.ComplaintCode))

	return c, nil
}

func (s *complaintService) AssignToStaff(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.AssignRequest) (*models.Complaint, error) {
	if actor.Role != models.RoleHod {
		return nil, ErrPermissionDenied
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	staff, err := s.resolveTarget(ctx, req.StaffID, models.RoleStaff)
	if err != nil {
		return nil, err
	}
	if staff.Department != actor.Department {
		return nil, fmt.Errorf("%w: can only assign staff in your department", ErrCrossDepartment)
	}

	now := s.now()
	s.bindAssignment(c, staff, actor, now)
	c.Status = models.StatusInProgress
	c.AppendPath(models.RoleHod)
	if req.Deadline != nil {
		deadline, derr := parseDate(*req.Deadline)
		if derr != nil {
			return nil, fmt.Errorf("%w: bad deadline", ErrValidation)
		}
		c.Deadline = deadline
	}

	if err := s.complaints.Update(ctx, c); err != nil {
		return nil, err
	}

	s.record(ctx, actor, c.ID, "Assigned to Staff", map[string]interface{}{
		"staff_id": staff.ID.String(),
	})
	s.safeNotify(c.ID, []uuid.UUID{staff.ID, c.SubmittedBy}, models.NotificationAssignment,
		"Complaint assigned",
		fmt.Sprintf("Complaint %s has been assigned to %s.", c.ComplaintCode, staff.FullName))

	return c, nil
}

func (s *complaintService) AcceptAssignment(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Complaint, error) {
	c, err := s.loadPendingHodAssignment(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c.Status = models.StatusInProgress
	c.AssignedAt = &now
	c.AppendPath(models.RoleHod)

	if err := s.complaints.Update(ctx, c); err != nil {
		return nil, err
	}

	s.record(ctx, actor, c.ID, "Complaint accepted by HOD", nil)

	targets := []uuid.UUID{c.SubmittedBy}
	if c.AssignedBy != nil {
		targets = append(targets, *c.AssignedBy)
	}
	s.safeNotify(c.ID, targets, models.NotificationAccept,
		"Assignment accepted",
		fmt.Sprintf("Complaint %s has been accepted by the head of department.", c.ComplaintCode))

	return c, nil
}

func (s *complaintService) RejectAssignment(ctx context.Context, actor models.Actor, id uuid.UUID, note string) (*models.Complaint, error) {
	c, err := s.loadPendingHodAssignment(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	assignedBy := c.AssignedBy

	c.AssignedTo = nil
	c.AssignedToRole = nil
	c.AssignedAt = nil
	c.Status = models.StatusPending

	// Rejection hands the complaint back to the dean's queue.
	c.AppendPath(models.RoleDean)

	if err := s.complaints.Update(ctx, c); err != nil {
		return nil, err
	}

	details := map[string]interface{}{}
	if note != "" {
		details["note"] = note
	}
	s.record(ctx, actor, c.ID, "Complaint rejected by HOD", details)

	targets := []uuid.UUID{c.SubmittedBy}
	if assignedBy != nil {
		targets = append(targets, *assignedBy)
	}
	s.safeNotify(c.ID, targets, models.NotificationReject,
		"Assignment rejected",
		fmt.Sprintf("Complaint %s was rejected by the head of department and returned.", c.ComplaintCode))

	return c, nil
}

func (s *complaintService) loadPendingHodAssignment(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Complaint, error) {
	if actor.Role != models.RoleHod {
		return nil, ErrPermissionDenied
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.AssignedTo == nil || *c.AssignedTo != actor.ID {
		return nil, ErrPermissionDenied
	}
	if c.Status != models.StatusAssigned && c.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: assignment already settled", ErrStatusConflict)
	}
	return c, nil
}

// Transitions

func (s *complaintService) Approve(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.ApproveRequest) (*models.Complaint, error) {
	if !actor.Role.IsLeadership() {
		return nil, ErrPermissionDenied
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != models.StatusPending && c.Status != models.StatusClosed {
		return nil, fmt.Errorf("%w: approval requires Pending or Closed", ErrStatusConflict)
	}

	reopened := c.Status == models.StatusClosed
	now := s.now()

	if actor.Role == models.RoleDean {
		c.Status = models.StatusInProgress
	} else {
		c.Status = models.StatusAccepted
	}
	if !c.PathContains(actor.Role) {
		c.AppendPath(actor.Role)
	}

	switch {
	case req.AssignToSelf:
		role := actor.Role
		c.AssignedTo = &actor.ID
		c.AssignedToRole = &role
		c.AssignedBy = &actor.ID
		c.AssignedByRole = &role
		c.AssignedAt = &now
	case req.AssignedTo != nil:
		target, terr := s.resolveAnyTarget(ctx, *req.AssignedTo)
		if terr != nil {
			return nil, terr
		}
		s.bindAssignment(c, target, actor, now)
	}

	if req.Note != "" {
		appendResolutionNote(c, req.Note, now)
	}

	if err := s.complaints.Update(ctx, c); err != nil {
		return nil, err
	}

	// Three entries on purpose: one machine-groupable approval marker, one
	// human-readable acceptance line, one consolidated status record.
	s.record(ctx, actor, c.ID, "Complaint Approved", map[string]interface{}{
		"reopened": reopened,
		"status":   string(c.Status),
	})
	s.record(ctx, actor, c.ID, fmt.Sprintf("Complaint accepted by %s", strings.ToUpper(string(actor.Role))), nil)
	s.record(ctx, actor, c.ID, fmt.Sprintf("Status Updated: %s", c.Status), nil)

	s.safeNotify(c.ID, []uuid.UUID{c.SubmittedBy}, models.NotificationStatus,
		"Complaint approved",
		fmt.Sprintf("Complaint %s is now %s.", c.ComplaintCode, c.Status))

	return c, nil
}

func (s *complaintService) UpdateStatus(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.StatusUpdateRequest) (*models.Complaint, error) {
	target, ok := models.ParseStatus(req.Status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeStatusChange(actor, c, target); err != nil {
		return nil, err
	}

	now := s.now()
	from := c.Status
	c.Status = target
	if target == models.StatusResolved {
		c.ResolvedAt = &now
	}
	if req.Description != "" {
		appendResolutionNote(c, req.Description, now)
	}

	if err := s.complaints.Update(ctx, c); err != nil {
		return nil, err
	}

	// Leadership updates get richer wording; staff entries share one label
	// per status so consecutive repeats collapse in the activity service.
	action := fmt.Sprintf("Status Updated: %s", target)
	if actor.Role.IsLeadership() {
		action = fmt.Sprintf("Status updated to %s by %s", target, strings.ToUpper(string(actor.Role)))
	}
	s.record(ctx, actor, c.ID, action, map[string]interface{}{
		"from": string(from),
		"to":   string(target),
	})

	s.safeNotify(c.ID, []uuid.UUID{c.SubmittedBy}, models.NotificationStatus,
		"Complaint status changed",
		fmt.Sprintf("Complaint %s moved from %s to %s.", c.ComplaintCode, from, target))

	if actor.Role == models.RoleStaff && c.Department != "" {
		s.notifyDepartmentHod(c, from, target)
	}
	if target == models.StatusClosed || target == models.StatusResolved {
		s.sendStatusEmail(c)
	}

	return c, nil
}

// Feedback and lifecycle

func (s *complaintService) SubmitFeedback(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.FeedbackRequest) (*models.Complaint, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.SubmittedBy != actor.ID {
		return nil, ErrPermissionDenied
	}
	if c.Status != models.StatusResolved {
		return nil, ErrNotResolved
	}
	if c.HasFeedback() {
		return nil, ErrFeedbackExists
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be 1-5", ErrValidation)
	}

	now := s.now()
	c.Feedback = models.Feedback{
		Rating:      req.Rating,
		Comment:     req.Comment,
		SubmittedAt: &now,
	}

	if err := s.complaints.Update(ctx, c); err != nil {
		return nil, err
	}

	s.record(ctx, actor, c.ID, "Feedback Submitted", map[string]interface{}{
		"rating": req.Rating,
	})

	if c.AssignedTo != nil {
		s.safeNotify(c.ID, []uuid.UUID{*c.AssignedTo}, models.NotificationFeedback,
			"Feedback received",
			fmt.Sprintf("The submitter rated complaint %s: %d/5.", c.ComplaintCode, req.Rating))
	}

	return c, nil
}

func (s *complaintService) ReviewFeedback(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Complaint, error) {
	if actor.Role != models.RoleDean && actor.Role != models.RoleAdmin {
		return nil, ErrPermissionDenied
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.HasFeedback() {
		return nil, fmt.Errorf("%w: no feedback to review", ErrNotFound)
	}
	if c.Feedback.Reviewed {
		return nil, ErrDuplicate
	}

	now := s.now()
	c.Feedback.Reviewed = true
	c.Feedback.ReviewedAt = &now
	c.Feedback.ReviewedBy = &actor.ID

	if err := s.complaints.Update(ctx, c); err != nil {
		return nil, err
	}

	s.record(ctx, actor, c.ID, "Feedback Reviewed", nil)
	return c, nil
}

func (s *complaintService) SoftDelete(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if c.SubmittedBy != actor.ID {
		return ErrPermissionDenied
	}
	if c.Status != models.StatusPending {
		return fmt.Errorf("%w: only Pending complaints can be withdrawn", ErrStatusConflict)
	}

	now := s.now()
	c.IsDeleted = true
	c.DeletedOn = &now
	c.DeletedBy = &actor.ID

	if err := s.complaints.Update(ctx, c); err != nil {
		return err
	}

	s.record(ctx, actor, c.ID, "Complaint Withdrawn", nil)
	return nil
}

// Helpers

func (s *complaintService) load(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	c, err := s.complaints.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if c.IsDeleted {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *complaintService) canView(actor models.Actor, c *models.Complaint) bool {
	return canViewComplaint(actor, c)
}

// canViewComplaint is the single-complaint form of the listing scopes: the
// actor may see the complaint if any of their views would have listed it.
func canViewComplaint(actor models.Actor, c *models.Complaint) bool {
	for _, view := range []models.ScopeView{models.ViewMine, models.ViewInbox, models.ViewAll} {
		if models.ScopeFor(actor, view, nil).Matches(c) {
			return true
		}
	}
	return false
}

// resolveTarget loads and validates a routing target of a specific role.
func (s *complaintService) resolveTarget(ctx context.Context, rawID string, want models.Role) (*models.User, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad user id", ErrValidation)
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: target user not found", ErrInvalidRecipient)
		}
		return nil, err
	}
	if user.Role != want {
		return nil, fmt.Errorf("%w: target is not a %s", ErrInvalidRecipient, want)
	}
	if !user.IsApproved || !user.IsActive {
		return nil, fmt.Errorf("%w: target account is not active", ErrInvalidRecipient)
	}
	return user, nil
}

func (s *complaintService) resolveAnyTarget(ctx context.Context, rawID string) (*models.User, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad user id", ErrValidation)
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: target user not found", ErrInvalidRecipient)
		}
		return nil, err
	}
	if !user.IsApproved || !user.IsActive {
		return nil, fmt.Errorf("%w: target account is not active", ErrInvalidRecipient)
	}
	return user, nil
}

func (s *complaintService) resolveRecipient(ctx context.Context, rawRole, rawID string) (models.Role, *models.User, error) {
	role, ok := models.NormalizeRole(rawRole)
	if !ok {
		return "", nil, fmt.Errorf("%w: unknown recipient role %q", ErrValidation, rawRole)
	}
	user, err := s.resolveTarget(ctx, rawID, role)
	if err != nil {
		return "", nil, err
	}
	return role, user, nil
}

// checkDeanAddressing holds across every routing mutation: a complaint
// addressed to the dean's office must name a concrete dean recipient.
func checkDeanAddressing(c *models.Complaint) error {
	if !strings.Contains(strings.ToLower(c.SubmittedTo), "dean") {
		return nil
	}
	if c.RecipientRole == nil || *c.RecipientRole != models.RoleDean || c.RecipientID == nil {
		return fmt.Errorf("%w: dean-addressed complaints require a dean recipient", ErrValidation)
	}
	return nil
}

// routingTargets computes who should hear about a newly-created complaint
// beyond the submitter: the direct assignee or named recipient when present,
// otherwise the addressed role group in the complaint's department.
func (s *complaintService) routingTargets(ctx context.Context, c *models.Complaint) []uuid.UUID {
	if c.AssignedTo != nil {
		return []uuid.UUID{*c.AssignedTo}
	}
	if c.RecipientID != nil {
		return []uuid.UUID{*c.RecipientID}
	}
	if c.RecipientRole != nil {
		ids, err := s.users.ListIDsByRoles(ctx, c.Department, []models.Role{*c.RecipientRole})
		if err != nil {
			s.log.Warn().Err(err).Msg("could not resolve recipient role group")
			return nil
		}
		return ids
	}
	return nil
}

// record appends an activity entry. Audit failures are logged, never
// propagated: the primary mutation already persisted.
func (s *complaintService) record(ctx context.Context, actor models.Actor, complaintID uuid.UUID, action string, details map[string]interface{}) {
	if err := s.activity.Record(ctx, actor, complaintID, action, details); err != nil {
		s.log.Error().Err(err).
			Str("complaint_id", complaintID.String()).
			Str("action", action).
			Msg("activity log write failed")
	}
}

// safeNotify schedules notification creation off the request path. Failure
// is logged inside the task and never reaches the caller.
func (s *complaintService) safeNotify(complaintID uuid.UUID, targets []uuid.UUID, typ models.NotificationType, title, message string) {
	if len(targets) == 0 {
		return
	}
	cid := complaintID
	s.dispatcher.Enqueue("notify", func(ctx context.Context) {
		err := s.notifier.NotifyUsers(ctx, targets, models.Notification{
			ComplaintID: &cid,
			Type:        typ,
			Title:       title,
			Message:     message,
		})
		if err != nil {
			s.log.Warn().Err(err).Str("complaint_id", cid.String()).Msg("notification write failed")
		}
	})
}

func (s *complaintService) notifyDepartmentHod(c *models.Complaint, from, to models.Status) {
	department := c.Department
	code := c.ComplaintCode
	cid := c.ID
	s.dispatcher.Enqueue("notify-hod", func(ctx context.Context) {
		hod, err := s.users.FindActiveHod(ctx, department)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				s.log.Warn().Err(err).Str("department", department).Msg("could not resolve department hod")
			}
			return
		}
		err = s.notifier.Notify(ctx, &models.Notification{
			UserID:      hod.ID,
			ComplaintID: &cid,
			Type:        models.NotificationStatus,
			Title:       "Staff status update",
			Message:     fmt.Sprintf("Complaint %s moved from %s to %s.", code, from, to),
		})
		if err != nil {
			s.log.Warn().Err(err).Msg("hod notification write failed")
		}
	})
}

func (s *complaintService) sendStatusEmail(c *models.Complaint) {
	if s.mailer == nil {
		return
	}
	snapshot := *c
	s.dispatcher.Enqueue("status-email", func(ctx context.Context) {
		submitter, err := s.users.FindByID(ctx, snapshot.SubmittedBy)
		if err != nil {
			s.log.Warn().Err(err).Msg("could not load submitter for status email")
			return
		}
		if err := s.mailer.SendStatusEmail(submitter.Email, submitter.FullName, &snapshot); err != nil {
			s.log.Warn().Err(err).Str("to", submitter.Email).Msg("status email failed")
		}
	})
}

// appendResolutionNote appends a timestamped note. The field is append-only
// text: existing entries are never rewritten.
func appendResolutionNote(c *models.Complaint, note string, at time.Time) {
	entry := fmt.Sprintf("[%s] %s", at.UTC().Format(time.RFC3339), note)
	if c.ResolutionNote == "" {
		c.ResolutionNote = entry
		return
	}
	c.ResolutionNote += "\n" + entry
}

func parseDate(raw string) (*time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unparseable date %q", raw)
}
