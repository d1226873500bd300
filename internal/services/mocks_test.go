package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abudi-09/CMS-sub000/internal/models"
)

// In-memory fakes for the repository and side-effect interfaces. They keep
// just enough behavior for the service semantics under test.

type fakeComplaintRepo struct {
	mu         sync.Mutex
	complaints map[uuid.UUID]*models.Complaint
	codeSeq    int
}

func newFakeComplaintRepo() *fakeComplaintRepo {
	return &fakeComplaintRepo{complaints: make(map[uuid.UUID]*models.Complaint)}
}

func (r *fakeComplaintRepo) Create(_ context.Context, c *models.Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.complaints {
		if existing.ComplaintCode != "" && existing.ComplaintCode == c.ComplaintCode {
			return gorm.ErrDuplicatedKey
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	clone := *c
	r.complaints[c.ID] = &clone
	return nil
}

func (r *fakeComplaintRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.complaints[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *fakeComplaintRepo) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeComplaintRepo) FindByCode(_ context.Context, code string) (*models.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.complaints {
		if c.ComplaintCode == code {
			clone := *c
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeComplaintRepo) List(_ context.Context, scope models.ComplaintScope, filter *models.ComplaintFilter) ([]models.Complaint, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Complaint
	for _, c := range r.complaints {
		if !scope.Matches(c) {
			continue
		}
		if filter != nil && filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *fakeComplaintRepo) Update(_ context.Context, c *models.Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.complaints[c.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *c
	r.complaints[c.ID] = &clone
	return nil
}

func (r *fakeComplaintRepo) UpdateFields(_ context.Context, id uuid.UUID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.complaints[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["is_escalated"]; ok {
		c.IsEscalated = v.(bool)
	}
	return nil
}

func (r *fakeComplaintRepo) GenerateComplaintCode(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codeSeq++
	return fmt.Sprintf("CMP-2026-%05d", r.codeSeq), nil
}

func (r *fakeComplaintRepo) ListOverdue(_ context.Context, assignedBefore, now time.Time) ([]models.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Complaint
	for _, c := range r.complaints {
		if c.IsEscalated || c.IsDeleted {
			continue
		}
		switch c.Status {
		case models.StatusResolved, models.StatusClosed:
			continue
		}
		overdueAssignment := c.AssignedAt != nil && c.AssignedAt.Before(assignedBefore)
		missedDeadline := c.Deadline != nil && c.Deadline.Before(now)
		if overdueAssignment || missedDeadline {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeComplaintRepo) MarkEscalated(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.complaints[id]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if c.IsEscalated {
		return false, nil
	}
	c.IsEscalated = true
	escalated := at
	c.EscalatedOn = &escalated
	return true, nil
}

func (r *fakeComplaintRepo) GetStats(_ context.Context, scope models.ComplaintScope) (*models.ComplaintStatsResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &models.ComplaintStatsResponse{}
	for _, c := range r.complaints {
		if !scope.Matches(c) {
			continue
		}
		stats.Total++
		switch c.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusAssigned:
			stats.Assigned++
		case models.StatusAccepted:
			stats.Accepted++
		case models.StatusInProgress:
			stats.InProgress++
		case models.StatusUnderReview:
			stats.UnderReview++
		case models.StatusResolved:
			stats.Resolved++
		case models.StatusClosed:
			stats.Closed++
		}
		if c.IsEscalated {
			stats.Escalated++
		}
	}
	return stats, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) UpdateFields(_ context.Context, id uuid.UUID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["is_approved"]; ok {
		u.IsApproved = v.(bool)
	}
	if v, ok := updates["is_active"]; ok {
		u.IsActive = v.(bool)
	}
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, _ *models.UserFilter) ([]models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *fakeUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.FindByUsername(ctx, username)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *fakeUserRepo) ListIDsByRoles(_ context.Context, department string, roles []models.Role) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for _, u := range r.users {
		if !u.IsActive || !u.IsApproved {
			continue
		}
		if department != "" && u.Department != department {
			continue
		}
		for _, role := range roles {
			if u.Role == role {
				ids = append(ids, u.ID)
				break
			}
		}
	}
	return ids, nil
}

func (r *fakeUserRepo) ListByRole(_ context.Context, role models.Role, department string) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		if u.Role != role {
			continue
		}
		if department != "" && u.Department != department {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) FindActiveHod(_ context.Context, department string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Role == models.RoleHod && u.Department == department && u.IsActive && u.IsApproved {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type recordedActivity struct {
	Actor  models.Actor
	Action string
}

type fakeActivity struct {
	mu      sync.Mutex
	entries []recordedActivity
}

func (a *fakeActivity) Record(_ context.Context, actor models.Actor, _ uuid.UUID, action string, _ map[string]interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, recordedActivity{Actor: actor, Action: action})
	return nil
}

func (a *fakeActivity) Timeline(context.Context, uuid.UUID) ([]models.ActivityLog, error) {
	return nil, nil
}

func (a *fakeActivity) List(context.Context, *models.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	return nil, 0, nil
}

func (a *fakeActivity) DistinctActions(context.Context) ([]string, error) {
	return nil, nil
}

func (a *fakeActivity) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Action
	}
	return out
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (n *fakeNotifier) Notify(_ context.Context, notification *models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, *notification)
	return nil
}

func (n *fakeNotifier) NotifyUsers(_ context.Context, userIDs []uuid.UUID, tmpl models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, id := range userIDs {
		entry := tmpl
		entry.UserID = id
		n.sent = append(n.sent, entry)
	}
	return nil
}

func (n *fakeNotifier) ListForUser(context.Context, uuid.UUID, bool, int, int) ([]models.Notification, int64, error) {
	return nil, 0, nil
}

func (n *fakeNotifier) UnreadCount(context.Context, uuid.UUID) (int64, error) { return 0, nil }

func (n *fakeNotifier) MarkRead(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (n *fakeNotifier) MarkAllRead(context.Context, uuid.UUID) (int64, error) { return 0, nil }

func (n *fakeNotifier) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (n *fakeNotifier) recipients() []uuid.UUID {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]uuid.UUID, len(n.sent))
	for i, s := range n.sent {
		out[i] = s.UserID
	}
	return out
}

// syncDispatcher runs enqueued tasks inline so tests observe side effects
// deterministically.
type syncDispatcher struct{}

func (syncDispatcher) Start(context.Context) {}
func (syncDispatcher) Stop()                 {}
func (syncDispatcher) Enqueue(_ string, fn func(ctx context.Context)) bool {
	fn(context.Background())
	return true
}
