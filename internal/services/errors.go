package services

import "errors"

// Sentinel errors form the service-level taxonomy. Handlers map each to an
// HTTP status plus a short machine-readable code; services never see HTTP.
var (
	ErrNotFound           = errors.New("not-found")
	ErrValidation         = errors.New("validation-failed")
	ErrInvalidCredentials = errors.New("invalid-credentials")
	ErrPermissionDenied = errors.New("forbidden")
	ErrStatusConflict   = errors.New("status-conflict")
	ErrStatusLocked     = errors.New("status-locked")
	ErrCrossDepartment  = errors.New("cross-department")
	ErrInvalidRecipient = errors.New("invalid-recipient")
	ErrInactiveAccount  = errors.New("inactive-account")
	ErrPendingApproval  = errors.New("pending-approval")
	ErrDuplicate        = errors.New("duplicate")
	ErrFeedbackExists   = errors.New("feedback-exists")
	ErrNotResolved      = errors.New("not-resolved")
)
