package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abudi-09/CMS-sub000/internal/models"
)

type ComplaintRepository interface {
	Create(ctx context.Context, complaint *models.Complaint) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*models.Complaint, error)
	FindByCode(ctx context.Context, code string) (*models.Complaint, error)
	List(ctx context.Context, scope models.ComplaintScope, filter *models.ComplaintFilter) ([]models.Complaint, int64, error)
	Update(ctx context.Context, complaint *models.Complaint) error
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error

	GenerateComplaintCode(ctx context.Context) (string, error)

	// Escalation sweep
	ListOverdue(ctx context.Context, assignedBefore, now time.Time) ([]models.Complaint, error)
	MarkEscalated(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

	GetStats(ctx context.Context, scope models.ComplaintScope) (*models.ComplaintStatsResponse, error)
}

type complaintRepository struct {
	db *gorm.DB
}

func NewComplaintRepository(db *gorm.DB) ComplaintRepository {
	return &complaintRepository{db: db}
}

func (r *complaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	return r.db.WithContext(ctx).Create(complaint).Error
}

func (r *complaintRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	var complaint models.Complaint
	err := r.db.WithContext(ctx).First(&complaint, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *complaintRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	var complaint models.Complaint
	err := r.db.WithContext(ctx).
		Preload("Submitter").
		Preload("Assignee").
		Preload("Recipient").
		First(&complaint, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *complaintRepository) FindByCode(ctx context.Context, code string) (*models.Complaint, error) {
	var complaint models.Complaint
	err := r.db.WithContext(ctx).
		Where("complaint_code = ?", code).
		First(&complaint).Error
	if err != nil {
		return nil, err
	}
	return &complaint, nil
}

// applyScopeFilter renders a ComplaintScope as SQL. It mirrors
// models.ComplaintScope.Matches exactly; visibility is enforced here so that
// counts and pagination operate on the already-restricted row set.
func (r *complaintRepository) applyScopeFilter(query *gorm.DB, scope models.ComplaintScope) *gorm.DB {
	if !scope.IncludeDeleted {
		query = query.Where("is_deleted = ?", false)
	}
	if scope.ExcludeAdminBound {
		query = query.Where(`NOT (
			lower(submitted_to) LIKE '%admin%'
			OR lower(coalesce(assigned_by_role, '')) = 'admin'
			OR lower(coalesce(recipient_role, '')) = 'admin'
			OR EXISTS (SELECT 1 FROM unnest(assignment_path) AS p WHERE lower(p) = 'admin')
		)`)
	}
	if scope.EscalatedOnly {
		query = query.Where("is_escalated = ?", true)
	}
	if scope.Unrestricted {
		return query
	}
	if scope.SubmitterID != nil {
		return query.Where("submitted_by = ?", *scope.SubmitterID)
	}
	if scope.Department != "" {
		query = query.Where("department = ?", scope.Department)
	}

	var conds []string
	var args []interface{}
	if scope.AssigneeID != nil {
		conds = append(conds, "assigned_to = ?")
		args = append(args, *scope.AssigneeID)
	}
	if scope.RecipientRole != nil && scope.RecipientID != nil {
		conds = append(conds, "(recipient_role = ? AND recipient_id = ?)")
		args = append(args, *scope.RecipientRole, *scope.RecipientID)
	}
	if scope.AssignedByID != nil {
		conds = append(conds, "assigned_by = ?")
		args = append(args, *scope.AssignedByID)
	}
	if len(scope.DeptHandlerIDs) > 0 {
		conds = append(conds, "(assigned_to IN ? OR (recipient_role = ? AND recipient_id IN ?))")
		args = append(args, scope.DeptHandlerIDs, models.RoleHod, scope.DeptHandlerIDs)
	}
	if len(conds) > 0 {
		query = query.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
	return query
}

func (r *complaintRepository) List(ctx context.Context, scope models.ComplaintScope, filter *models.ComplaintFilter) ([]models.Complaint, int64, error) {
	var complaints []models.Complaint
	var total int64

	query := r.applyScopeFilter(r.db.WithContext(ctx).Model(&models.Complaint{}), scope)

	if filter == nil {
		filter = &models.ComplaintFilter{}
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("complaint_code ILIKE ? OR title ILIKE ? OR description ILIKE ?", pattern, pattern, pattern)
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
		Preload("Submitter").
		Preload("Assignee").
		Preload("Recipient").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&complaints).Error
	if err != nil {
		return nil, 0, err
	}

	return complaints, total, nil
}

func (r *complaintRepository) Update(ctx context.Context, complaint *models.Complaint) error {
	return r.db.WithContext(ctx).Save(complaint).Error
}

func (r *complaintRepository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Complaint{}).Where("id = ?", id).Updates(updates).Error
}

func (r *complaintRepository) GenerateComplaintCode(ctx context.Context) (string, error) {
	year := time.Now().Year()
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Complaint{}).
		Where("EXTRACT(YEAR FROM created_at) = ?", year).
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CMP-%d-%05d", year, count+1), nil
}

// Escalation sweep

// ListOverdue returns complaints still open past their handling window:
// assigned longer ago than the threshold, or past an explicit deadline.
// Already-escalated rows are excluded here, which is what makes the sweep
// safe to re-run.
func (r *complaintRepository) ListOverdue(ctx context.Context, assignedBefore, now time.Time) ([]models.Complaint, error) {
	var complaints []models.Complaint
	err := r.db.WithContext(ctx).
		Where("is_escalated = ?", false).
		Where("is_deleted = ?", false).
		Where("status NOT IN ?", []models.Status{models.StatusResolved, models.StatusClosed}).
		Where("(assigned_at IS NOT NULL AND assigned_at < ?) OR (deadline IS NOT NULL AND deadline < ?)", assignedBefore, now).
		Find(&complaints).Error
	return complaints, err
}

// MarkEscalated flips the escalation flag once. The is_escalated guard in the
// WHERE clause makes concurrent sweeps idempotent: only one update reports a
// changed row.
func (r *complaintRepository) MarkEscalated(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Complaint{}).
		Where("id = ?", id).
		Where("is_escalated = ?", false).
		Updates(map[string]interface{}{
			"is_escalated": true,
			"escalated_on": at,
		})
	return result.RowsAffected > 0, result.Error
}

func (r *complaintRepository) GetStats(ctx context.Context, scope models.ComplaintScope) (*models.ComplaintStatsResponse, error) {
	stats := &models.ComplaintStatsResponse{}

	base := r.applyScopeFilter(r.db.WithContext(ctx).Model(&models.Complaint{}), scope)
	if err := base.Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	type statusCount struct {
		Status models.Status `gorm:"column:status"`
		Count  int64         `gorm:"column:count"`
	}
	var counts []statusCount
	err := r.applyScopeFilter(r.db.WithContext(ctx).Model(&models.Complaint{}), scope).
		Select("status, count(*) as count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	for _, sc := range counts {
		switch sc.Status {
		case models.StatusPending:
			stats.Pending = sc.Count
		case models.StatusAssigned:
			stats.Assigned = sc.Count
		case models.StatusAccepted:
			stats.Accepted = sc.Count
		case models.StatusInProgress:
			stats.InProgress = sc.Count
		case models.StatusUnderReview:
			stats.UnderReview = sc.Count
		case models.StatusResolved:
			stats.Resolved = sc.Count
		case models.StatusClosed:
			stats.Closed = sc.Count
		}
	}

	err = r.applyScopeFilter(r.db.WithContext(ctx).Model(&models.Complaint{}), scope).
		Where("is_escalated = ?", true).
		Count(&stats.Escalated).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}
