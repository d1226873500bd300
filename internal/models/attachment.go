package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ComplaintAttachment references a file held in object storage. Storage
// mechanics live behind the storage package; the core only records the path.
type ComplaintAttachment struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ComplaintID  uuid.UUID `gorm:"type:uuid;index;not null" json:"complaint_id"`
	FileName     string    `gorm:"size:255;not null" json:"file_name"`
	FileSize     int64     `json:"file_size"`
	MimeType     string    `gorm:"size:100" json:"mime_type"`
	FilePath     string    `gorm:"size:500;not null" json:"file_path"`
	UploadedByID uuid.UUID `gorm:"type:uuid;index;not null" json:"uploaded_by_id"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *ComplaintAttachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type AttachmentResponse struct {
	ID           uuid.UUID `json:"id"`
	ComplaintID  uuid.UUID `json:"complaint_id"`
	FileName     string    `json:"file_name"`
	FileSize     int64     `json:"file_size"`
	MimeType     string    `json:"mime_type"`
	URL          string    `json:"url,omitempty"`
	UploadedByID uuid.UUID `json:"uploaded_by_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func ToAttachmentResponse(a *ComplaintAttachment, url string) AttachmentResponse {
	return AttachmentResponse{
		ID:           a.ID,
		ComplaintID:  a.ComplaintID,
		FileName:     a.FileName,
		FileSize:     a.FileSize,
		MimeType:     a.MimeType,
		URL:          url,
		UploadedByID: a.UploadedByID,
		CreatedAt:    a.CreatedAt,
	}
}
