package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityLog is the append-only record of every state-changing action on a
// complaint. Entries are never deleted; the only mutation ever applied is the
// collapse of consecutive same-action same-actor entries (see the activity
// service for the rule).
type ActivityLog struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role        Role      `gorm:"size:20;not null" json:"role"`
	Action      string    `gorm:"size:200;not null;index" json:"action"`
	ComplaintID uuid.UUID `gorm:"type:uuid;index;not null" json:"complaint_id"`

	// Opaque key/value context, serialized JSON.
	Details string `gorm:"type:text" json:"details"`

	// Count is how many consecutive occurrences this entry absorbed.
	Count int `gorm:"not null;default:1" json:"count"`

	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type ActivityLogResponse struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	UserName    string    `json:"user_name,omitempty"`
	Role        Role      `json:"role"`
	Action      string    `json:"action"`
	ComplaintID uuid.UUID `json:"complaint_id"`
	Details     string    `json:"details,omitempty"`
	Count       int       `json:"count"`
	Timestamp   time.Time `json:"timestamp"`
}

func ToActivityLogResponse(l *ActivityLog) ActivityLogResponse {
	resp := ActivityLogResponse{
		ID:          l.ID,
		UserID:      l.UserID,
		Role:        l.Role,
		Action:      l.Action,
		ComplaintID: l.ComplaintID,
		Details:     l.Details,
		Count:       l.Count,
		Timestamp:   l.Timestamp,
	}
	if l.User != nil {
		resp.UserName = l.User.FullName
	}
	return resp
}

type ActivityLogFilter struct {
	UserID      *uuid.UUID
	ComplaintID *uuid.UUID
	Action      string
	Role        Role
	StartDate   *time.Time
	EndDate     *time.Time
	Page        int
	Limit       int
}
