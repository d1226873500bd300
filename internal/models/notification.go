package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationSubmission NotificationType = "submission"
	NotificationAssignment NotificationType = "assignment"
	NotificationAccept     NotificationType = "accept"
	NotificationReject     NotificationType = "reject"
	NotificationStatus     NotificationType = "status"
	NotificationFeedback   NotificationType = "feedback"
	NotificationUserSignup NotificationType = "user-signup"
)

// Notification is a best-effort delivery record. Creation failures are
// swallowed by the notification service and never block the triggering
// transition.
type Notification struct {
	ID          uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID        `gorm:"type:uuid;index;not null" json:"user_id"`
	ComplaintID *uuid.UUID       `gorm:"type:uuid;index" json:"complaint_id,omitempty"`
	Type        NotificationType `gorm:"size:20;not null" json:"type"`
	Title       string           `gorm:"size:200;not null" json:"title"`
	Message     string           `gorm:"type:text" json:"message"`
	Read        bool             `gorm:"default:false;index" json:"read"`

	// Opaque key/value context, serialized JSON.
	Meta string `gorm:"type:text" json:"meta,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
