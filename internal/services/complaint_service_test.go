package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abudi-09/CMS-sub000/internal/models"
)

type complaintFixture struct {
	service    ComplaintService
	complaints *fakeComplaintRepo
	users      *fakeUserRepo
	activity   *fakeActivity
	notifier   *fakeNotifier

	student models.User
	staff   models.User
	hod     models.User
	dean    models.User
	admin   models.User
}

func newComplaintFixture(t *testing.T) *complaintFixture {
	t.Helper()

	f := &complaintFixture{
		complaints: newFakeComplaintRepo(),
		activity:   &fakeActivity{},
		notifier:   &fakeNotifier{},
	}

	mkUser := func(role models.Role, dept string) models.User {
		return models.User{
			ID:         uuid.New(),
			Email:      string(role) + "@university.edu",
			Username:   string(role),
			Role:       role,
			Department: dept,
			IsActive:   true,
			IsApproved: true,
		}
	}
	f.student = mkUser(models.RoleStudent, "CS")
	f.staff = mkUser(models.RoleStaff, "CS")
	f.hod = mkUser(models.RoleHod, "CS")
	f.dean = mkUser(models.RoleDean, "CS")
	f.admin = mkUser(models.RoleAdmin, "")

	f.users = newFakeUserRepo(&f.student, &f.staff, &f.hod, &f.dean, &f.admin)

	f.service = NewComplaintService(
		f.complaints, f.users, f.activity, f.notifier,
		syncDispatcher{}, nil, zerolog.Nop(),
	)
	return f
}

func (f *complaintFixture) actor(u models.User) models.Actor { return u.ToActor() }

func (f *complaintFixture) submit(t *testing.T, req *models.ComplaintCreateRequest) *models.Complaint {
	t.Helper()
	if req == nil {
		req = &models.ComplaintCreateRequest{Title: "Broken projector", Description: "Room 204"}
	}
	c, err := f.service.Create(context.Background(), f.actor(f.student), req)
	require.NoError(t, err)
	return c
}

func TestCreateDefaults(t *testing.T) {
	f := newComplaintFixture(t)

	c := f.submit(t, nil)

	assert.Equal(t, models.StatusPending, c.Status)
	assert.Equal(t, models.PriorityMedium, c.Priority)
	assert.Equal(t, "CS", c.Department, "department defaults to the submitter's")
	assert.Equal(t, models.RoleStudent, c.SourceRole)
	assert.True(t, strings.HasPrefix(c.ComplaintCode, "CMP-"))
	assert.Equal(t, []string{"student"}, []string(c.AssignmentPath))

	assert.Contains(t, f.activity.actions(), "Complaint Submitted")
	assert.Contains(t, f.notifier.recipients(), f.student.ID)
}

func TestCreateRetriesOnCodeCollision(t *testing.T) {
	f := newComplaintFixture(t)

	// Another submitter already claimed the next code in the sequence.
	taken := &models.Complaint{
		ID:            uuid.New(),
		ComplaintCode: "CMP-2026-00001",
		Title:         "Parking",
		SubmittedBy:   f.student.ID,
		Status:        models.StatusPending,
	}
	require.NoError(t, f.complaints.Create(context.Background(), taken))

	c := f.submit(t, nil)
	assert.Equal(t, "CMP-2026-00002", c.ComplaintCode)
}

func TestCreateRecipientRequiresID(t *testing.T) {
	f := newComplaintFixture(t)
	role := "hod"

	_, err := f.service.Create(context.Background(), f.actor(f.student), &models.ComplaintCreateRequest{
		Title:         "Missing grade",
		Description:   "Final not posted",
		RecipientRole: &role,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateDeanAddressedNeedsDeanRecipient(t *testing.T) {
	f := newComplaintFixture(t)

	_, err := f.service.Create(context.Background(), f.actor(f.student), &models.ComplaintCreateRequest{
		Title:       "Harassment report",
		Description: "details",
		SubmittedTo: "Dean Office",
	})
	assert.ErrorIs(t, err, ErrValidation)

	role := "dean"
	deanID := f.dean.ID.String()
	c, err := f.service.Create(context.Background(), f.actor(f.student), &models.ComplaintCreateRequest{
		Title:         "Harassment report",
		Description:   "details",
		SubmittedTo:   "Dean Office",
		RecipientRole: &role,
		RecipientID:   &deanID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleDean, *c.RecipientRole)
	assert.Contains(t, f.notifier.recipients(), f.dean.ID)
}

func TestCreateDirectStaffAssignmentStaysPending(t *testing.T) {
	f := newComplaintFixture(t)
	staffID := f.staff.ID.String()

	c := f.submit(t, &models.ComplaintCreateRequest{
		Title:            "Lab access",
		Description:      "card reader dead",
		RecipientStaffID: &staffID,
	})

	assert.Equal(t, models.StatusPending, c.Status, "direct targeting routes, it does not start work")
	require.NotNil(t, c.AssignedTo)
	assert.Equal(t, f.staff.ID, *c.AssignedTo)
	assert.Contains(t, f.notifier.recipients(), f.staff.ID)
}

func TestAssignByAdmin(t *testing.T) {
	f := newComplaintFixture(t)
	c := f.submit(t, nil)

	updated, err := f.service.Assign(context.Background(), f.actor(f.admin), c.ID,
		&models.AssignRequest{StaffID: f.staff.ID.String()})
	require.NoError(t, err)

	assert.Equal(t, models.StatusInProgress, updated.Status)
	assert.Equal(t, f.staff.ID, *updated.AssignedTo)
	assert.Equal(t, models.RoleAdmin, *updated.AssignedByRole)
	assert.Contains(t, f.activity.actions(), "Complaint Assigned")

	// Assigning again is a reassignment.
	other := models.User{ID: uuid.New(), Role: models.RoleStaff, Department: "CS", IsActive: true, IsApproved: true}
	require.NoError(t, f.users.Create(context.Background(), &other))
	_, err = f.service.Assign(context.Background(), f.actor(f.admin), c.ID,
		&models.AssignRequest{StaffID: other.ID.String()})
	require.NoError(t, err)
	assert.Contains(t, f.activity.actions(), "Complaint Reassigned")
}

func TestAssignDeanCrossDepartmentRejected(t *testing.T) {
	f := newComplaintFixture(t)
	c := f.submit(t, nil)

	eeStaff := models.User{ID: uuid.New(), Role: models.RoleStaff, Department: "EE", IsActive: true, IsApproved: true}
	require.NoError(t, f.users.Create(context.Background(), &eeStaff))

	_, err := f.service.Assign(context.Background(), f.actor(f.dean), c.ID,
		&models.AssignRequest{StaffID: eeStaff.ID.String()})
	assert.ErrorIs(t, err, ErrCrossDepartment)

	// Failed validation must leave the stored row untouched.
	stored, ferr := f.complaints.FindByID(context.Background(), c.ID)
	require.NoError(t, ferr)
	assert.Nil(t, stored.AssignedTo)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestAssignRejectsInactiveTarget(t *testing.T) {
	f := newComplaintFixture(t)
	c := f.submit(t, nil)

	suspended := models.User{ID: uuid.New(), Role: models.RoleStaff, Department: "CS", IsActive: false, IsApproved: true}
	require.NoError(t, f.users.Create(context.Background(), &suspended))

	_, err := f.service.Assign(context.Background(), f.actor(f.admin), c.ID,
		&models.AssignRequest{StaffID: suspended.ID.String()})
	assert.ErrorIs(t, err, ErrInvalidRecipient)
}

func TestHodAcceptRejectCycle(t *testing.T) {
	f := newComplaintFixture(t)
	c := f.submit(t, nil)

	assigned, err := f.service.AssignToHod(context.Background(), f.actor(f.dean), c.ID,
		&models.AssignHodRequest{HodID: f.hod.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, assigned.Status, "hod must explicitly accept")
	assert.Equal(t, []string{"student", "dean", "hod"}, []string(assigned.AssignmentPath))

	accepted, err := f.service.AcceptAssignment(context.Background(), f.actor(f.hod), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, accepted.Status)
	require.NotNil(t, accepted.AssignedAt)
	assert.Contains(t, f.activity.actions(), "Complaint accepted by HOD")
	assert.Contains(t, f.notifier.recipients(), f.dean.ID)

	// Settled assignments cannot be accepted twice.
	_, err = f.service.AcceptAssignment(context.Background(), f.actor(f.hod), c.ID)
	assert.ErrorIs(t, err, ErrStatusConflict)
}

func TestHodRejectReturnsToDean(t *testing.T) {
	f := newComplaintFixture(t)
	c := f.submit(t, nil)

	_, err := f.service.AssignToHod(context.Background(), f.actor(f.dean), c.ID,
		&models.AssignHodRequest{HodID: f.hod.ID.String()})
	require.NoError(t, err)

	rejected, err := f.service.RejectAssignment(context.Background(), f.actor(f.hod), c.ID, "wrong department")
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, rejected.Status)
	assert.Nil(t, rejected.AssignedTo)
	assert.Equal(t, "dean", rejected.AssignmentPath[len(rejected.AssignmentPath)-1])
	assert.Contains(t, f.activity.actions(), "Complaint rejected by HOD")
	assert.Contains(t, f.notifier.recipients(), f.dean.ID)
}

func TestAcceptRequiresOwnAssignment(t *testing.T) {
	f := newComplaintFixture(t)
	c := f.submit(t, nil)

	_, err := f.service.AssignToHod(context.Background(), f.actor(f.dean), c.ID,
		&models.AssignHodRequest{HodID: f.hod.ID.String()})
	require.NoError(t, err)

	otherHod := models.User{ID: uuid.New(), Role: models.RoleHod, Department: "EE", IsActive: true, IsApproved: true}
	require.NoError(t, f.users.Create(context.Background(), &otherHod))

	_, err = f.service.AcceptAssignment(context.Background(), otherHod.ToActor(), c.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestAssignToStaffByHod(t *testing.T) {
	f := newComplaintFixture(t)
	c := f.submit(t, nil)

	updated, err := f.service.AssignToStaff(context.Background(), f.actor(f.hod), c.ID,
		&models.AssignRequest{StaffID: f.staff.ID.String()})
	require.NoError(t, err)

	assert.Equal(t, models.StatusInProgress, updated.Status)
	assert.Equal(t, f.staff.ID, *updated.AssignedTo)
	assert.True(t, updated.PathContains(models.RoleHod))

	// Cross-department delegation is rejected.
	eeStaff := models.User{ID: uuid.New(), Role: models.RoleStaff, Department: "EE", IsActive: true, IsApproved: true}
	require.NoError(t, f.users.Create(context.Background(), &eeStaff))
	_, err = f.service.AssignToStaff(context.Background(), f.actor(f.hod), c.ID,
		&models.AssignRequest{StaffID: eeStaff.ID.String()})
	assert.ErrorIs(t, err, ErrCrossDepartment)
}

func TestApproveByHodAndDean(t *testing.T) {
	f := newComplaintFixture(t)

	c := f.submit(t, nil)
	approved, err := f.service.Approve(context.Background(), f.actor(f.hod), c.ID, &models.ApproveRequest{AssignToSelf: true})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, approved.Status)
	assert.Equal(t, f.hod.ID, *approved.AssignedTo)
	assert.True(t, approved.PathContains(models.RoleHod))

	actions := f.activity.actions()
	assert.Contains(t, actions, "Complaint Approved")
	assert.Contains(t, actions, "Complaint accepted by HOD")
	assert.Contains(t, actions, "Status Updated: Accepted")

	// Dean approval lands directly in In Progress.
	c2 := f.submit(t, nil)
	approved2, err := f.service.Approve(context.Background(), f.actor(f.dean), c2.ID, &models.ApproveRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, approved2.Status)
}

func TestApproveReopensClosed(t *testing.T) {
	f := newComplaintFixture(t)
	c := f.submit(t, nil)

	_, err := f.service.UpdateStatus(context.Background(), f.actor(f.admin), c.ID,
		&models.StatusUpdateRequest{Status: "Closed"})
	require.NoError(t, err)

	reopened, err := f.service.Approve(context.Background(), f.actor(f.admin), c.ID, &models.ApproveRequest{Note: "reopening on appeal"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, reopened.Status)
	assert.Contains(t, reopened.ResolutionNote, "reopening on appeal")

	// Approval is only for Pending or Closed.
	_, err = f.service.Approve(context.Background(), f.actor(f.admin), c.ID, &models.ApproveRequest{})
	assert.ErrorIs(t, err, ErrStatusConflict)
}

func TestUpdateStatusStaffFlow(t *testing.T) {
	f := newComplaintFixture(t)
	c := f.submit(t, nil)

	_, err := f.service.Assign(context.Background(), f.actor(f.admin), c.ID,
		&models.AssignRequest{StaffID: f.staff.ID.String()})
	require.NoError(t, err)

	// Staff may move their own assignment, but never to Resolved.
	_, err = f.service.UpdateStatus(context.Background(), f.actor(f.staff), c.ID,
		&models.StatusUpdateRequest{Status: "Resolved"})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	updated, err := f.service.UpdateStatus(context.Background(), f.actor(f.staff), c.ID,
		&models.StatusUpdateRequest{Status: "Under Review"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, updated.Status)
	assert.Contains(t, f.activity.actions(), "Status Updated: Under Review")

	// Staff updates ping the department hod.
	assert.Contains(t, f.notifier.recipients(), f.hod.ID)

	// Dean of the same department resolves; resolved_at is stamped.
	resolved, err := f.service.UpdateStatus(context.Background(), f.actor(f.dean), c.ID,
		&models.StatusUpdateRequest{Status: "Resolved", Description: "fixed"})
	require.NoError(t, err)
	assert.NotNil(t, resolved.ResolvedAt)
	assert.Contains(t, resolved.ResolutionNote, "fixed")
	assert.Contains(t, f.activity.actions(), "Status updated to Resolved by DEAN")
}

func TestUpdateStatusUnknownValue(t *testing.T) {
	f := newComplaintFixture(t)
	c := f.submit(t, nil)

	_, err := f.service.UpdateStatus(context.Background(), f.actor(f.admin), c.ID,
		&models.StatusUpdateRequest{Status: "Done"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateRecipientWhilePending(t *testing.T) {
	f := newComplaintFixture(t)
	c := f.submit(t, nil)

	updated, err := f.service.UpdateRecipient(context.Background(), f.actor(f.student), c.ID,
		&models.RecipientUpdateRequest{RecipientRole: "hod", RecipientID: f.hod.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, models.RoleHod, *updated.RecipientRole)
	assert.Equal(t, 1, updated.EditsCount)
	assert.NotNil(t, updated.LastEditedAt)

	// Only the submitter may retarget.
	_, err = f.service.UpdateRecipient(context.Background(), f.actor(f.staff), c.ID,
		&models.RecipientUpdateRequest{RecipientRole: "hod", RecipientID: f.hod.ID.String()})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	// And only while Pending.
	_, err = f.service.Assign(context.Background(), f.actor(f.admin), c.ID,
		&models.AssignRequest{StaffID: f.staff.ID.String()})
	require.NoError(t, err)
	_, err = f.service.UpdateRecipient(context.Background(), f.actor(f.student), c.ID,
		&models.RecipientUpdateRequest{RecipientRole: "hod", RecipientID: f.hod.ID.String()})
	assert.ErrorIs(t, err, ErrStatusConflict)
}

func TestReassignRecipientLeadershipOnly(t *testing.T) {
	f := newComplaintFixture(t)
	c := f.submit(t, nil)

	_, err := f.service.ReassignRecipient(context.Background(), f.actor(f.student), c.ID,
		&models.RecipientUpdateRequest{RecipientRole: "hod", RecipientID: f.hod.ID.String()})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	updated, err := f.service.ReassignRecipient(context.Background(), f.actor(f.dean), c.ID,
		&models.RecipientUpdateRequest{RecipientRole: "hod", RecipientID: f.hod.ID.String(), Note: "departmental matter"})
	require.NoError(t, err)
	assert.Equal(t, f.hod.ID, *updated.RecipientID)
	assert.Contains(t, f.activity.actions(), "Recipient Reassigned")
}

func TestRecipientUpdateKeepsDeanAddressingIntact(t *testing.T) {
	f := newComplaintFixture(t)

	role := "dean"
	deanID := f.dean.ID.String()
	c := f.submit(t, &models.ComplaintCreateRequest{
		Title:         "Harassment report",
		Description:   "details",
		SubmittedTo:   "Dean Office",
		RecipientRole: &role,
		RecipientID:   &deanID,
	})

	// A dean-addressed complaint cannot be retargeted to a non-dean.
	_, err := f.service.UpdateRecipient(context.Background(), f.actor(f.student), c.ID,
		&models.RecipientUpdateRequest{RecipientRole: "hod", RecipientID: f.hod.ID.String()})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.service.ReassignRecipient(context.Background(), f.actor(f.admin), c.ID,
		&models.RecipientUpdateRequest{RecipientRole: "hod", RecipientID: f.hod.ID.String()})
	assert.ErrorIs(t, err, ErrValidation)

	stored, err := f.complaints.FindByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleDean, *stored.RecipientRole)
	assert.Equal(t, f.dean.ID, *stored.RecipientID)

	// Relabeling an ordinary complaint as dean-addressed needs a dean recipient too.
	plain := f.submit(t, nil)
	label := "Dean Office"
	_, err = f.service.UpdateRecipient(context.Background(), f.actor(f.student), plain.ID,
		&models.RecipientUpdateRequest{RecipientRole: "hod", RecipientID: f.hod.ID.String(), SubmittedTo: &label})
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := f.service.UpdateRecipient(context.Background(), f.actor(f.student), plain.ID,
		&models.RecipientUpdateRequest{RecipientRole: "dean", RecipientID: deanID, SubmittedTo: &label})
	require.NoError(t, err)
	assert.Equal(t, "Dean Office", updated.SubmittedTo)
	assert.Equal(t, models.RoleDean, *updated.RecipientRole)
}

func TestFeedbackLifecycle(t *testing.T) {
	f := newComplaintFixture(t)
	c := f.submit(t, nil)

	// Not resolved yet.
	_, err := f.service.SubmitFeedback(context.Background(), f.actor(f.student), c.ID,
		&models.FeedbackRequest{Rating: 4})
	assert.ErrorIs(t, err, ErrNotResolved)

	_, err = f.service.Assign(context.Background(), f.actor(f.admin), c.ID,
		&models.AssignRequest{StaffID: f.staff.ID.String()})
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(context.Background(), f.actor(f.admin), c.ID,
		&models.StatusUpdateRequest{Status: "Resolved"})
	require.NoError(t, err)

	// Only the submitter rates.
	_, err = f.service.SubmitFeedback(context.Background(), f.actor(f.staff), c.ID,
		&models.FeedbackRequest{Rating: 4})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	rated, err := f.service.SubmitFeedback(context.Background(), f.actor(f.student), c.ID,
		&models.FeedbackRequest{Rating: 4, Comment: "quick turnaround"})
	require.NoError(t, err)
	assert.True(t, rated.HasFeedback())
	assert.Contains(t, f.notifier.recipients(), f.staff.ID)

	// Single slot.
	_, err = f.service.SubmitFeedback(context.Background(), f.actor(f.student), c.ID,
		&models.FeedbackRequest{Rating: 2})
	assert.ErrorIs(t, err, ErrFeedbackExists)

	// Review, once.
	reviewed, err := f.service.ReviewFeedback(context.Background(), f.actor(f.dean), c.ID)
	require.NoError(t, err)
	assert.True(t, reviewed.Feedback.Reviewed)
	_, err = f.service.ReviewFeedback(context.Background(), f.actor(f.dean), c.ID)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestSoftDelete(t *testing.T) {
	f := newComplaintFixture(t)
	c := f.submit(t, nil)

	// Only the submitter withdraws.
	err := f.service.SoftDelete(context.Background(), f.actor(f.staff), c.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	require.NoError(t, f.service.SoftDelete(context.Background(), f.actor(f.student), c.ID))

	// Withdrawn complaints read as gone.
	_, err = f.service.GetByID(context.Background(), f.actor(f.student), c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Non-Pending complaints cannot be withdrawn.
	c2 := f.submit(t, nil)
	_, err = f.service.Assign(context.Background(), f.actor(f.admin), c2.ID,
		&models.AssignRequest{StaffID: f.staff.ID.String()})
	require.NoError(t, err)
	err = f.service.SoftDelete(context.Background(), f.actor(f.student), c2.ID)
	assert.ErrorIs(t, err, ErrStatusConflict)
}

func TestGetByIDVisibility(t *testing.T) {
	f := newComplaintFixture(t)
	c := f.submit(t, nil)

	// Unrelated staff in another department cannot read it.
	outsider := models.User{ID: uuid.New(), Role: models.RoleStaff, Department: "EE", IsActive: true, IsApproved: true}
	_, err := f.service.GetByID(context.Background(), outsider.ToActor(), c.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	// Submitter, department hod, and admin all can.
	for _, u := range []models.User{f.student, f.hod, f.admin} {
		_, err := f.service.GetByID(context.Background(), u.ToActor(), c.ID)
		assert.NoError(t, err, "role=%s", u.Role)
	}
}

func TestGetByCode(t *testing.T) {
	f := newComplaintFixture(t)
	c := f.submit(t, nil)

	got, err := f.service.GetByCode(context.Background(), f.actor(f.student), c.ComplaintCode)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = f.service.GetByCode(context.Background(), f.actor(f.student), "CMP-2020-99999")
	assert.ErrorIs(t, err, ErrNotFound)

	// Same visibility gate as lookup by id.
	outsider := models.User{ID: uuid.New(), Role: models.RoleStaff, Department: "EE", IsActive: true, IsApproved: true}
	_, err = f.service.GetByCode(context.Background(), outsider.ToActor(), c.ComplaintCode)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestListEscalatedRestricted(t *testing.T) {
	f := newComplaintFixture(t)

	_, _, err := f.service.List(context.Background(), f.actor(f.staff), models.ViewEscalated, &models.ComplaintFilter{Page: 1, Limit: 20})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, _, err = f.service.List(context.Background(), f.actor(f.admin), models.ViewEscalated, &models.ComplaintFilter{Page: 1, Limit: 20})
	assert.NoError(t, err)
}

func TestStatsScopedBySubmitterForStudents(t *testing.T) {
	f := newComplaintFixture(t)
	f.submit(t, nil)
	f.submit(t, nil)

	other := models.User{ID: uuid.New(), Role: models.RoleStudent, Department: "EE", IsActive: true, IsApproved: true}
	require.NoError(t, f.users.Create(context.Background(), &other))
	_, err := f.service.Create(context.Background(), other.ToActor(),
		&models.ComplaintCreateRequest{Title: "Noise", Description: "dorm"})
	require.NoError(t, err)

	stats, err := f.service.Stats(context.Background(), f.actor(f.student))
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(2), stats.Pending)
}

func TestResolutionNoteIsAppendOnly(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := &models.Complaint{}

	appendResolutionNote(c, "first pass", now)
	appendResolutionNote(c, "second pass", now.Add(time.Hour))

	lines := strings.Split(c.ResolutionNote, "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "[2026-03-01T10:00:00Z]"))
	assert.Contains(t, lines[0], "first pass")
	assert.Contains(t, lines[1], "second pass")
}
