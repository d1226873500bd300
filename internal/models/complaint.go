package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Status is the closed set of complaint states. The legal transition graph
// lives in services; the model only carries the value.
type Status string

const (
	StatusPending     Status = "Pending"
	StatusAssigned    Status = "Assigned"
	StatusAccepted    Status = "Accepted"
	StatusInProgress  Status = "In Progress"
	StatusUnderReview Status = "Under Review"
	StatusResolved    Status = "Resolved"
	StatusClosed      Status = "Closed"
)

// ParseStatus validates a raw status string against the closed set.
func ParseStatus(raw string) (Status, bool) {
	switch Status(strings.TrimSpace(raw)) {
	case StatusPending, StatusAssigned, StatusAccepted, StatusInProgress,
		StatusUnderReview, StatusResolved, StatusClosed:
		return Status(strings.TrimSpace(raw)), true
	default:
		return "", false
	}
}

type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

func ParsePriority(raw string) (Priority, bool) {
	switch Priority(strings.TrimSpace(raw)) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return Priority(strings.TrimSpace(raw)), true
	default:
		return "", false
	}
}

// Feedback is the single-slot rating a submitter may attach once the
// complaint is Resolved. Embedded on the complaint row.
type Feedback struct {
	Rating      int        `gorm:"column:feedback_rating" json:"rating,omitempty"`
	Comment     string     `gorm:"column:feedback_comment;type:text" json:"comment,omitempty"`
	SubmittedAt *time.Time `gorm:"column:feedback_submitted_at" json:"submitted_at,omitempty"`
	Reviewed    bool       `gorm:"column:feedback_reviewed" json:"reviewed,omitempty"`
	ReviewedAt  *time.Time `gorm:"column:feedback_reviewed_at" json:"reviewed_at,omitempty"`
	ReviewedBy  *uuid.UUID `gorm:"column:feedback_reviewed_by;type:uuid" json:"reviewed_by,omitempty"`
}

// Complaint is the central entity. Routing target (recipient_*) says who the
// complaint is addressed to; assignment (assigned_*) says who is handling it.
// assignment_path is the append-only trail of roles the complaint has passed
// through, used for audit and for negative visibility filters.
type Complaint struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ComplaintCode string    `gorm:"size:50;uniqueIndex;not null" json:"complaint_code"`

	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"size:100;index" json:"category"`
	Department  string `gorm:"size:100;index" json:"department"`

	Status   Status   `gorm:"size:20;not null;default:'Pending';index" json:"status"`
	Priority Priority `gorm:"size:10;not null;default:'Medium'" json:"priority"`

	// Provenance
	SourceRole  Role      `gorm:"size:20;not null;default:'student'" json:"source_role"`
	SubmittedBy uuid.UUID `gorm:"type:uuid;not null;index" json:"submitted_by"`
	Submitter   *User     `gorm:"foreignKey:SubmittedBy" json:"submitter,omitempty"`
	SubmittedTo string    `gorm:"size:100" json:"submitted_to"`

	// Routing target
	RecipientRole *Role      `gorm:"size:20;index" json:"recipient_role"`
	RecipientID   *uuid.UUID `gorm:"type:uuid;index" json:"recipient_id"`
	Recipient     *User      `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`

	// Assignment
	AssignedTo     *uuid.UUID     `gorm:"type:uuid;index" json:"assigned_to"`
	Assignee       *User          `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
	AssignedToRole *Role          `gorm:"size:20" json:"assigned_to_role"`
	AssignedBy     *uuid.UUID     `gorm:"type:uuid" json:"assigned_by"`
	AssignedByRole *Role          `gorm:"size:20" json:"assigned_by_role"`
	AssignedAt     *time.Time     `json:"assigned_at"`
	AssignmentPath pq.StringArray `gorm:"type:text[]" json:"assignment_path"`

	// Scheduling
	Deadline *time.Time `json:"deadline"`

	// Escalation, set only by the background sweep
	IsEscalated bool       `gorm:"default:false;index" json:"is_escalated"`
	EscalatedOn *time.Time `json:"escalated_on"`

	// Resolution
	ResolutionNote string     `gorm:"type:text" json:"resolution_note"`
	ResolvedAt     *time.Time `json:"resolved_at"`

	Feedback Feedback `gorm:"embedded" json:"feedback"`

	// Soft lifecycle
	IsDeleted bool       `gorm:"default:false;index" json:"is_deleted"`
	DeletedOn *time.Time `json:"deleted_at,omitempty"`
	DeletedBy *uuid.UUID `gorm:"type:uuid" json:"deleted_by,omitempty"`

	LastEditedAt *time.Time `json:"last_edited_at"`
	EditsCount   int        `gorm:"default:0" json:"edits_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Complaint) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// PathContains reports whether the assignment path already records the role,
// case-insensitively (legacy rows may carry mixed case).
func (c *Complaint) PathContains(role Role) bool {
	for _, entry := range c.AssignmentPath {
		if strings.EqualFold(entry, string(role)) {
			return true
		}
	}
	return false
}

// AppendPath appends the role to the assignment path if it is not already the
// last entry. The path only ever grows.
func (c *Complaint) AppendPath(role Role) {
	if n := len(c.AssignmentPath); n > 0 && strings.EqualFold(c.AssignmentPath[n-1], string(role)) {
		return
	}
	c.AssignmentPath = append(c.AssignmentPath, string(role))
}

// AddressedToAdmin reports whether any routing field ties the complaint to
// the admin office. Dean-facing listings must exclude such complaints
// unconditionally.
func (c *Complaint) AddressedToAdmin() bool {
	if strings.Contains(strings.ToLower(c.SubmittedTo), "admin") {
		return true
	}
	if c.AssignedByRole != nil && *c.AssignedByRole == RoleAdmin {
		return true
	}
	if c.RecipientRole != nil && *c.RecipientRole == RoleAdmin {
		return true
	}
	return c.PathContains(RoleAdmin)
}

// HasFeedback reports whether the single feedback slot is occupied.
func (c *Complaint) HasFeedback() bool {
	return c.Feedback.SubmittedAt != nil
}

// Request / response DTOs

type ComplaintCreateRequest struct {
	Title            string  `json:"title" validate:"required,max=200"`
	Description      string  `json:"description" validate:"required"`
	Category         string  `json:"category" validate:"max=100"`
	Department       string  `json:"department" validate:"max=100"`
	Priority         string  `json:"priority" validate:"max=10"`
	SubmittedTo      string  `json:"submitted_to" validate:"max=100"`
	RecipientRole    *string `json:"recipient_role"`
	RecipientID      *string `json:"recipient_id"`
	RecipientStaffID *string `json:"recipient_staff_id"`
	RecipientHodID   *string `json:"recipient_hod_id"`
	Deadline         *string `json:"deadline"`
	SourceRole       *string `json:"source_role"`
}

type RecipientUpdateRequest struct {
	RecipientRole string  `json:"recipient_role" validate:"required"`
	RecipientID   string  `json:"recipient_id" validate:"required"`
	Note          string  `json:"note"`
	SubmittedTo   *string `json:"submitted_to"`
}

type AssignRequest struct {
	StaffID        string  `json:"staff_id" validate:"required"`
	Deadline       *string `json:"deadline"`
	AssignedByRole *string `json:"assigned_by_role"`
}

type AssignHodRequest struct {
	HodID    string  `json:"hod_id" validate:"required"`
	Deadline *string `json:"deadline"`
}

type ApproveRequest struct {
	Note         string  `json:"note"`
	AssignToSelf bool    `json:"assign_to_self"`
	AssignedTo   *string `json:"assigned_to"`
}

type StatusUpdateRequest struct {
	Status      string `json:"status" validate:"required"`
	Description string `json:"description"`
}

type FeedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type ComplaintResponse struct {
	ID             uuid.UUID  `json:"id"`
	ComplaintCode  string     `json:"complaint_code"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	Department     string     `json:"department"`
	Status         Status     `json:"status"`
	Priority       Priority   `json:"priority"`
	SourceRole     Role       `json:"source_role"`
	SubmittedBy    uuid.UUID  `json:"submitted_by"`
	SubmittedTo    string     `json:"submitted_to,omitempty"`
	RecipientRole  *Role      `json:"recipient_role,omitempty"`
	RecipientID    *uuid.UUID `json:"recipient_id,omitempty"`
	AssignedTo     *uuid.UUID `json:"assigned_to,omitempty"`
	AssignedToRole *Role      `json:"assigned_to_role,omitempty"`
	AssignedBy     *uuid.UUID `json:"assigned_by,omitempty"`
	AssignedByRole *Role      `json:"assigned_by_role,omitempty"`
	AssignedAt     *time.Time `json:"assigned_at,omitempty"`
	AssignmentPath []string   `json:"assignment_path"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	IsEscalated    bool       `json:"is_escalated"`
	EscalatedOn    *time.Time `json:"escalated_on,omitempty"`
	ResolutionNote string     `json:"resolution_note,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	Feedback       *Feedback  `json:"feedback,omitempty"`
	LastEditedAt   *time.Time `json:"last_edited_at,omitempty"`
	EditsCount     int        `json:"edits_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func ToComplaintResponse(c *Complaint) ComplaintResponse {
	resp := ComplaintResponse{
		ID:             c.ID,
		ComplaintCode:  c.ComplaintCode,
		Title:          c.Title,
		Description:    c.Description,
		Category:       c.Category,
		Department:     c.Department,
		Status:         c.Status,
		Priority:       c.Priority,
		SourceRole:     c.SourceRole,
		SubmittedBy:    c.SubmittedBy,
		SubmittedTo:    c.SubmittedTo,
		RecipientRole:  c.RecipientRole,
		RecipientID:    c.RecipientID,
		AssignedTo:     c.AssignedTo,
		AssignedToRole: c.AssignedToRole,
		AssignedBy:     c.AssignedBy,
		AssignedByRole: c.AssignedByRole,
		AssignedAt:     c.AssignedAt,
		AssignmentPath: append([]string(nil), c.AssignmentPath...),
		Deadline:       c.Deadline,
		IsEscalated:    c.IsEscalated,
		EscalatedOn:    c.EscalatedOn,
		ResolutionNote: c.ResolutionNote,
		ResolvedAt:     c.ResolvedAt,
		LastEditedAt:   c.LastEditedAt,
		EditsCount:     c.EditsCount,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
	if c.HasFeedback() {
		fb := c.Feedback
		resp.Feedback = &fb
	}
	return resp
}

type ComplaintStatsResponse struct {
	Total       int64 `json:"total"`
	Pending     int64 `json:"pending"`
	Assigned    int64 `json:"assigned"`
	Accepted    int64 `json:"accepted"`
	InProgress  int64 `json:"in_progress"`
	UnderReview int64 `json:"under_review"`
	Resolved    int64 `json:"resolved"`
	Closed      int64 `json:"closed"`
	Escalated   int64 `json:"escalated"`
}
