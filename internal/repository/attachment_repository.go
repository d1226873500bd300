package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abudi-09/CMS-sub000/internal/models"
)

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *models.ComplaintAttachment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ComplaintAttachment, error)
	ListForComplaint(ctx context.Context, complaintID uuid.UUID) ([]models.ComplaintAttachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type attachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *models.ComplaintAttachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *attachmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ComplaintAttachment, error) {
	var attachment models.ComplaintAttachment
	err := r.db.WithContext(ctx).First(&attachment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *attachmentRepository) ListForComplaint(ctx context.Context, complaintID uuid.UUID) ([]models.ComplaintAttachment, error) {
	var attachments []models.ComplaintAttachment
	err := r.db.WithContext(ctx).
		Where("complaint_id = ?", complaintID).
		Order("created_at DESC").
		Find(&attachments).Error
	return attachments, err
}

func (r *attachmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ComplaintAttachment{}, "id = ?", id).Error
}
