package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/abudi-09/CMS-sub000/internal/models"
)

var allStatuses = []models.Status{
	models.StatusPending, models.StatusAssigned, models.StatusAccepted,
	models.StatusInProgress, models.StatusUnderReview, models.StatusResolved,
	models.StatusClosed,
}

func TestCanTransitionExhaustive(t *testing.T) {
	legal := map[models.Status]map[models.Status]bool{
		models.StatusPending:     {models.StatusAssigned: true, models.StatusAccepted: true, models.StatusInProgress: true, models.StatusClosed: true},
		models.StatusAssigned:    {models.StatusInProgress: true, models.StatusPending: true},
		models.StatusAccepted:    {models.StatusInProgress: true, models.StatusClosed: true},
		models.StatusInProgress:  {models.StatusUnderReview: true, models.StatusResolved: true, models.StatusClosed: true},
		models.StatusUnderReview: {models.StatusResolved: true, models.StatusClosed: true},
		models.StatusResolved:    {models.StatusClosed: true},
		models.StatusClosed:      {},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			assert.Equal(t, legal[from][to], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestResolvedIsTerminalExceptClose(t *testing.T) {
	admin := models.Actor{ID: uuid.New(), Role: models.RoleAdmin}
	c := &models.Complaint{Status: models.StatusResolved, Department: "CS"}

	for _, to := range allStatuses {
		err := AuthorizeStatusChange(admin, c, to)
		if to == models.StatusClosed {
			assert.NoError(t, err)
		} else {
			assert.ErrorIs(t, err, ErrStatusLocked, "resolved -> %s", to)
		}
	}
}

func TestOnlyFinalAuthorityResolves(t *testing.T) {
	c := &models.Complaint{Status: models.StatusInProgress, Department: "CS"}

	admin := models.Actor{ID: uuid.New(), Role: models.RoleAdmin}
	assert.NoError(t, AuthorizeStatusChange(admin, c, models.StatusResolved))

	sameDean := models.Actor{ID: uuid.New(), Role: models.RoleDean, Department: "CS"}
	assert.NoError(t, AuthorizeStatusChange(sameDean, c, models.StatusResolved))

	otherDean := models.Actor{ID: uuid.New(), Role: models.RoleDean, Department: "EE"}
	assert.ErrorIs(t, AuthorizeStatusChange(otherDean, c, models.StatusResolved), ErrCrossDepartment)

	hod := models.Actor{ID: uuid.New(), Role: models.RoleHod, Department: "CS"}
	assert.ErrorIs(t, AuthorizeStatusChange(hod, c, models.StatusResolved), ErrPermissionDenied)

	staffID := uuid.New()
	assigned := &models.Complaint{Status: models.StatusInProgress, Department: "CS", AssignedTo: &staffID}
	staff := models.Actor{ID: staffID, Role: models.RoleStaff, Department: "CS"}
	assert.ErrorIs(t, AuthorizeStatusChange(staff, assigned, models.StatusResolved), ErrPermissionDenied)
}

func TestStaffOnlyMovesOwnAssignment(t *testing.T) {
	staffID := uuid.New()
	staff := models.Actor{ID: staffID, Role: models.RoleStaff, Department: "CS"}

	mine := &models.Complaint{Status: models.StatusInProgress, AssignedTo: &staffID}
	assert.NoError(t, AuthorizeStatusChange(staff, mine, models.StatusUnderReview))

	otherID := uuid.New()
	theirs := &models.Complaint{Status: models.StatusInProgress, AssignedTo: &otherID}
	assert.ErrorIs(t, AuthorizeStatusChange(staff, theirs, models.StatusUnderReview), ErrPermissionDenied)

	unassigned := &models.Complaint{Status: models.StatusInProgress}
	assert.ErrorIs(t, AuthorizeStatusChange(staff, unassigned, models.StatusUnderReview), ErrPermissionDenied)
}

func TestLeadershipOwnershipFallbacks(t *testing.T) {
	dean := models.Actor{ID: uuid.New(), Role: models.RoleDean, Department: "EE"}
	deanRole := models.RoleDean

	// Different department, but the dean's office routed it.
	routed := &models.Complaint{
		Status:         models.StatusInProgress,
		Department:     "CS",
		AssignedByRole: &deanRole,
	}
	assert.NoError(t, AuthorizeStatusChange(dean, routed, models.StatusUnderReview))

	// Role appears in the assignment path.
	viaPath := &models.Complaint{
		Status:         models.StatusInProgress,
		Department:     "CS",
		AssignmentPath: []string{"student", "dean"},
	}
	assert.NoError(t, AuthorizeStatusChange(dean, viaPath, models.StatusUnderReview))

	// No tie at all: only Closed is allowed.
	foreign := &models.Complaint{Status: models.StatusInProgress, Department: "CS"}
	assert.ErrorIs(t, AuthorizeStatusChange(dean, foreign, models.StatusUnderReview), ErrPermissionDenied)
	assert.NoError(t, AuthorizeStatusChange(dean, foreign, models.StatusClosed))
}

func TestIllegalEdgeIsConflictBeforeRoleCheck(t *testing.T) {
	student := models.Actor{ID: uuid.New(), Role: models.RoleStudent}
	c := &models.Complaint{Status: models.StatusPending}
	assert.ErrorIs(t, AuthorizeStatusChange(student, c, models.StatusUnderReview), ErrStatusConflict)
}

func TestNextStatusesCopies(t *testing.T) {
	next := NextStatuses(models.StatusPending)
	assert.Len(t, next, 4)
	next[0] = models.StatusClosed
	assert.Equal(t, models.StatusAssigned, statusGraph[models.StatusPending][0])
}
