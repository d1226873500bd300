package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abudi-09/CMS-sub000/internal/models"
	"github.com/abudi-09/CMS-sub000/internal/repository"
)

// mergeWindow bounds the collapse of repeated entries: a new entry with the
// same action, same actor, and same complaint as the latest stored entry
// increments that entry's count instead of appending, provided the latest
// entry is younger than this window.
const mergeWindow = 15 * time.Minute

type ActivityService interface {
	Record(ctx context.Context, actor models.Actor, complaintID uuid.UUID, action string, details map[string]interface{}) error
	Timeline(ctx context.Context, complaintID uuid.UUID) ([]models.ActivityLog, error)
	List(ctx context.Context, filter *models.ActivityLogFilter) ([]models.ActivityLog, int64, error)
	DistinctActions(ctx context.Context) ([]string, error)
}

type activityService struct {
	repo repository.ActivityLogRepository
	now  func() time.Time
}

func NewActivityService(repo repository.ActivityLogRepository) ActivityService {
	return &activityService{repo: repo, now: time.Now}
}

func (s *activityService) Record(ctx context.Context, actor models.Actor, complaintID uuid.UUID, action string, details map[string]interface{}) error {
	now := s.now()

	latest, err := s.repo.FindLatestForComplaint(ctx, complaintID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if latest != nil &&
		latest.Action == action &&
		latest.UserID == actor.ID &&
		now.Sub(latest.Timestamp) < mergeWindow {
		latest.Count++
		if len(details) > 0 {
			latest.Details = marshalDetails(details)
		}
		return s.repo.Update(ctx, latest)
	}

	entry := &models.ActivityLog{
		UserID:      actor.ID,
		Role:        actor.Role,
		Action:      action,
		ComplaintID: complaintID,
		Details:     marshalDetails(details),
		Count:       1,
		Timestamp:   now,
	}
	return s.repo.Create(ctx, entry)
}

func (s *activityService) Timeline(ctx context.Context, complaintID uuid.UUID) ([]models.ActivityLog, error) {
	return s.repo.ListForComplaint(ctx, complaintID)
}

func (s *activityService) List(ctx context.Context, filter *models.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	return s.repo.List(ctx, filter)
}

func (s *activityService) DistinctActions(ctx context.Context) ([]string, error) {
	return s.repo.GetDistinctActions(ctx)
}

func marshalDetails(details map[string]interface{}) string {
	if len(details) == 0 {
		return ""
	}
	b, err := json.Marshal(details)
	if err != nil {
		return ""
	}
	return string(b)
}
