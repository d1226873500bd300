package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abudi-09/CMS-sub000/internal/models"
)

type ActivityLogRepository interface {
	Create(ctx context.Context, log *models.ActivityLog) error
	Update(ctx context.Context, log *models.ActivityLog) error
	List(ctx context.Context, filter *models.ActivityLogFilter) ([]models.ActivityLog, int64, error)
	ListForComplaint(ctx context.Context, complaintID uuid.UUID) ([]models.ActivityLog, error)

	// FindLatestForComplaint returns the newest entry for the complaint, or
	// gorm.ErrRecordNotFound when none exists. Used by the merge window.
	FindLatestForComplaint(ctx context.Context, complaintID uuid.UUID) (*models.ActivityLog, error)

	GetDistinctActions(ctx context.Context) ([]string, error)
}

type activityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, log *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *activityLogRepository) Update(ctx context.Context, log *models.ActivityLog) error {
	return r.db.WithContext(ctx).Save(log).Error
}

func (r *activityLogRepository) List(ctx context.Context, filter *models.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	var logs []models.ActivityLog
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ActivityLog{})

	if filter == nil {
		filter = &models.ActivityLogFilter{}
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.ComplaintID != nil {
		query = query.Where("complaint_id = ?", *filter.ComplaintID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.StartDate != nil {
		query = query.Where("timestamp >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("timestamp <= ?", *filter.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	err := query.
		Preload("User").
		Order("timestamp DESC").
		Offset(offset).
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

func (r *activityLogRepository) ListForComplaint(ctx context.Context, complaintID uuid.UUID) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("complaint_id = ?", complaintID).
		Order("timestamp ASC").
		Find(&logs).Error
	return logs, err
}

func (r *activityLogRepository) FindLatestForComplaint(ctx context.Context, complaintID uuid.UUID) (*models.ActivityLog, error) {
	var log models.ActivityLog
	err := r.db.WithContext(ctx).
		Where("complaint_id = ?", complaintID).
		Order("timestamp DESC").
		First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *activityLogRepository) GetDistinctActions(ctx context.Context) ([]string, error) {
	var actions []string
	err := r.db.WithContext(ctx).Model(&models.ActivityLog{}).
		Distinct("action").
		Pluck("action", &actions).Error
	return actions, err
}
