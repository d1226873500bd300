package models

import "github.com/google/uuid"

// ScopeView names the listing surfaces. Each maps to a role-dependent
// predicate; the repository renders the same predicate as SQL so that
// pagination and counts can never leak rows the response shaping would have
// hidden.
type ScopeView string

const (
	ViewMine      ScopeView = "mine"
	ViewInbox     ScopeView = "inbox"
	ViewManaged   ScopeView = "managed"
	ViewAll       ScopeView = "all"
	ViewEscalated ScopeView = "escalated"
)

// ComplaintScope is the fully-resolved visibility predicate for one actor and
// one view. It is plain data: derivable from stored complaint fields alone,
// applied at the query layer by the repository, and directly evaluable in
// memory via Matches.
type ComplaintScope struct {
	Unrestricted      bool
	IncludeDeleted    bool
	ExcludeAdminBound bool
	EscalatedOnly     bool

	SubmitterID    *uuid.UUID
	AssigneeID     *uuid.UUID
	RecipientRole  *Role
	RecipientID    *uuid.UUID
	AssignedByID   *uuid.UUID
	Department     string
	DeptHandlerIDs []uuid.UUID
}

// ScopeFor computes the visibility predicate for the actor and view.
// deptHandlers is the set of staff/hod user ids in the actor's department;
// it is only consulted for the HoD managed view and may be nil elsewhere.
func ScopeFor(actor Actor, view ScopeView, deptHandlers []uuid.UUID) ComplaintScope {
	id := actor.ID
	scope := ComplaintScope{}

	if view == ViewEscalated {
		scope.EscalatedOnly = true
	}

	switch actor.Role {
	case RoleStudent:
		scope.SubmitterID = &id

	case RoleStaff:
		switch view {
		case ViewMine:
			scope.SubmitterID = &id
		case ViewAll:
			if actor.Department != "" {
				scope.Department = actor.Department
			} else {
				scope.AssigneeID = &id
			}
		default:
			scope.AssigneeID = &id
		}

	case RoleHod:
		role := RoleHod
		switch view {
		case ViewMine:
			scope.SubmitterID = &id
		case ViewAll:
			scope.Department = actor.Department
		case ViewManaged:
			scope.Department = actor.Department
			scope.AssigneeID = &id
			scope.RecipientRole = &role
			scope.RecipientID = &id
			scope.DeptHandlerIDs = deptHandlers
		default: // inbox: personal queue only, never a peer's
			scope.Department = actor.Department
			scope.AssigneeID = &id
			scope.RecipientRole = &role
			scope.RecipientID = &id
		}

	case RoleDean:
		scope.ExcludeAdminBound = true
		role := RoleDean
		switch view {
		case ViewMine:
			scope.SubmitterID = &id
		case ViewAll, ViewEscalated:
			// Broadened, still admin-excluded.
		default:
			scope.RecipientRole = &role
			scope.RecipientID = &id
			scope.AssignedByID = &id
		}

	case RoleAdmin:
		scope.Unrestricted = true
		scope.IncludeDeleted = view == ViewAll
		if view == ViewMine {
			scope.Unrestricted = false
			scope.IncludeDeleted = false
			scope.SubmitterID = &id
		}
	}

	return scope
}

// Matches evaluates the predicate against a complaint in memory. The
// repository renders the identical logic as SQL; this form exists so the
// scoping rules stay testable as a pure function.
func (s ComplaintScope) Matches(c *Complaint) bool {
	if c.IsDeleted && !s.IncludeDeleted {
		return false
	}
	if s.ExcludeAdminBound && c.AddressedToAdmin() {
		return false
	}
	if s.EscalatedOnly && !c.IsEscalated {
		return false
	}
	if s.Unrestricted {
		return true
	}
	if s.SubmitterID != nil {
		return c.SubmittedBy == *s.SubmitterID
	}
	if s.Department != "" && c.Department != s.Department {
		return false
	}

	// Remaining fields are alternatives: membership in any personal or
	// managed queue grants visibility.
	matched := false
	considered := false
	if s.AssigneeID != nil {
		considered = true
		if c.AssignedTo != nil && *c.AssignedTo == *s.AssigneeID {
			matched = true
		}
	}
	if s.RecipientRole != nil && s.RecipientID != nil {
		considered = true
		if c.RecipientRole != nil && *c.RecipientRole == *s.RecipientRole &&
			c.RecipientID != nil && *c.RecipientID == *s.RecipientID {
			matched = true
		}
	}
	if s.AssignedByID != nil {
		considered = true
		if c.AssignedBy != nil && *c.AssignedBy == *s.AssignedByID {
			matched = true
		}
	}
	for _, handler := range s.DeptHandlerIDs {
		considered = true
		if c.AssignedTo != nil && *c.AssignedTo == handler {
			matched = true
		}
		if c.RecipientRole != nil && *c.RecipientRole == RoleHod &&
			c.RecipientID != nil && *c.RecipientID == handler {
			matched = true
		}
	}
	if !considered {
		// Pure department (or escalated-only) broadening.
		return true
	}
	return matched
}

// ComplaintFilter carries the optional listing refinements layered on top of
// a ComplaintScope.
type ComplaintFilter struct {
	Status     *Status
	Priority   *Priority
	Category   string
	Department string
	Search     string
	Page       int
	Limit      int
}
