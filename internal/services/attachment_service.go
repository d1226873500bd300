package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/abudi-09/CMS-sub000/internal/models"
	"github.com/abudi-09/CMS-sub000/internal/repository"
	"github.com/abudi-09/CMS-sub000/internal/storage"
)

type AttachmentService interface {
	Upload(ctx context.Context, actor models.Actor, complaintID uuid.UUID, file multipart.File, header *multipart.FileHeader) (*models.AttachmentResponse, error)
	ListForComplaint(ctx context.Context, actor models.Actor, complaintID uuid.UUID) ([]models.AttachmentResponse, error)
	Download(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.ComplaintAttachment, io.ReadCloser, error)
}

type attachmentService struct {
	attachments repository.AttachmentRepository
	complaints  repository.ComplaintRepository
	storage     *storage.MinIOStorage
	log         zerolog.Logger
}

func NewAttachmentService(
	attachments repository.AttachmentRepository,
	complaints repository.ComplaintRepository,
	store *storage.MinIOStorage,
	log zerolog.Logger,
) AttachmentService {
	return &attachmentService{
		attachments: attachments,
		complaints:  complaints,
		storage:     store,
		log:         log.With().Str("component", "attachments").Logger(),
	}
}

func (s *attachmentService) Upload(ctx context.Context, actor models.Actor, complaintID uuid.UUID, file multipart.File, header *multipart.FileHeader) (*models.AttachmentResponse, error) {
	c, err := s.visibleComplaint(ctx, actor, complaintID)
	if err != nil {
		return nil, err
	}
	if c.Status == models.StatusClosed {
		return nil, fmt.Errorf("%w: closed complaints do not accept attachments", ErrStatusConflict)
	}

	objectName, err := s.storage.UploadFile(ctx, file, header, complaintID.String())
	if err != nil {
		return nil, err
	}

	attachment := &models.ComplaintAttachment{
		ComplaintID:  complaintID,
		FileName:     header.Filename,
		FileSize:     header.Size,
		MimeType:     header.Header.Get("Content-Type"),
		FilePath:     objectName,
		UploadedByID: actor.ID,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		// Orphan cleanup: the row is the source of truth, so a failed row
		// write means the object must go too.
		if delErr := s.storage.DeleteFile(ctx, objectName); delErr != nil {
			s.log.Warn().Err(delErr).Str("object", objectName).Msg("could not remove orphaned object")
		}
		return nil, err
	}

	url, err := s.storage.GetFileURL(ctx, objectName)
	if err != nil {
		s.log.Warn().Err(err).Str("object", objectName).Msg("could not presign attachment url")
		url = ""
	}
	resp := models.ToAttachmentResponse(attachment, url)
	return &resp, nil
}

func (s *attachmentService) ListForComplaint(ctx context.Context, actor models.Actor, complaintID uuid.UUID) ([]models.AttachmentResponse, error) {
	if _, err := s.visibleComplaint(ctx, actor, complaintID); err != nil {
		return nil, err
	}

	attachments, err := s.attachments.ListForComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}

	responses := make([]models.AttachmentResponse, len(attachments))
	for i := range attachments {
		url, err := s.storage.GetFileURL(ctx, attachments[i].FilePath)
		if err != nil {
			url = ""
		}
		responses[i] = models.ToAttachmentResponse(&attachments[i], url)
	}
	return responses, nil
}

func (s *attachmentService) Download(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.ComplaintAttachment, io.ReadCloser, error) {
	attachment, err := s.attachments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	if _, err := s.visibleComplaint(ctx, actor, attachment.ComplaintID); err != nil {
		return nil, nil, err
	}

	reader, err := s.storage.DownloadFile(ctx, attachment.FilePath)
	if err != nil {
		return nil, nil, err
	}
	return attachment, reader, nil
}

func (s *attachmentService) visibleComplaint(ctx context.Context, actor models.Actor, complaintID uuid.UUID) (*models.Complaint, error) {
	c, err := s.complaints.FindByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if c.IsDeleted {
		return nil, ErrNotFound
	}
	if !canViewComplaint(actor, c) {
		return nil, ErrPermissionDenied
	}
	return c, nil
}
