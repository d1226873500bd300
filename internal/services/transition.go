package services

import (
	"github.com/abudi-09/CMS-sub000/internal/models"
)

// The legal status graph, expressed as data so it can be enumerated and
// tested exhaustively. Closed has no outgoing edges here: the only way out
// of Closed is the explicit re-approval path in ApproveComplaint.
var statusGraph = map[models.Status][]models.Status{
	models.StatusPending:     {models.StatusAssigned, models.StatusAccepted, models.StatusInProgress, models.StatusClosed},
	models.StatusAssigned:    {models.StatusInProgress, models.StatusPending},
	models.StatusAccepted:    {models.StatusInProgress, models.StatusClosed},
	models.StatusInProgress:  {models.StatusUnderReview, models.StatusResolved, models.StatusClosed},
	models.StatusUnderReview: {models.StatusResolved, models.StatusClosed},
	models.StatusResolved:    {models.StatusClosed},
	models.StatusClosed:      {},
}

// CanTransition reports whether the edge from -> to exists in the status
// graph. It encodes the Resolved terminal lock: once Resolved, only Closed.
func CanTransition(from, to models.Status) bool {
	for _, next := range statusGraph[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the legal targets from a given status.
func NextStatuses(from models.Status) []models.Status {
	return append([]models.Status(nil), statusGraph[from]...)
}

// AuthorizeStatusChange applies the role matrix for free status changes on
// top of the graph check. It returns nil when the actor may move the
// complaint to target, and a taxonomy error otherwise. No mutation happens
// here; callers persist only after this passes.
func AuthorizeStatusChange(actor models.Actor, c *models.Complaint, target models.Status) error {
	if c.Status == models.StatusResolved && target != models.StatusClosed {
		return ErrStatusLocked
	}
	if !CanTransition(c.Status, target) {
		return ErrStatusConflict
	}

	// Resolved is reserved for final authority: dean (own department) or
	// admin.
	if target == models.StatusResolved {
		switch actor.Role {
		case models.RoleAdmin:
			return nil
		case models.RoleDean:
			if c.Department != "" && c.Department != actor.Department {
				return ErrCrossDepartment
			}
			return nil
		default:
			return ErrPermissionDenied
		}
	}

	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleStaff:
		if c.AssignedTo != nil && *c.AssignedTo == actor.ID {
			return nil
		}
		return ErrPermissionDenied
	case models.RoleHod, models.RoleDean:
		if c.Department != "" && c.Department == actor.Department {
			return nil
		}
		if hasOwnership(actor, c) {
			return nil
		}
		if target == models.StatusClosed {
			return nil
		}
		return ErrPermissionDenied
	default:
		return ErrPermissionDenied
	}
}

// hasOwnership reports whether the actor's role previously routed or
// assigned this complaint.
func hasOwnership(actor models.Actor, c *models.Complaint) bool {
	if c.PathContains(actor.Role) {
		return true
	}
	return c.AssignedByRole != nil && *c.AssignedByRole == actor.Role
}
