package services

import (
	"errors"
	"fmt"
)

// Error classes. Every domain error wraps exactly one of these, so callers
// can branch with errors.Is at whichever granularity they need.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrMismatch     = errors.New("mismatch")
	ErrDependency   = errors.New("dependency failure")
	ErrInvalidInput = errors.New("invalid input")
)

var (
	ErrInvitationNotFound  = fmt.Errorf("invitation %w", ErrNotFound)
	ErrProcessNotFound     = fmt.Errorf("selection process %w", ErrNotFound)
	ErrIdentityNotFound    = fmt.Errorf("identity %w", ErrNotFound)
	ErrVideoNotFound       = fmt.Errorf("video %w", ErrNotFound)
	ErrApplicationNotFound = fmt.Errorf("application %w", ErrNotFound)

	ErrDuplicatePending = fmt.Errorf("%w: a pending invitation already exists for this email", ErrConflict)
	ErrAlreadyApplied   = fmt.Errorf("%w: candidate already applied to this process", ErrConflict)
	ErrVideoExists      = fmt.Errorf("%w: a video was already uploaded for this scope", ErrConflict)

	ErrExpired   = fmt.Errorf("%w: invitation expired", ErrInvalidState)
	ErrCancelled = fmt.Errorf("%w: invitation cancelled", ErrInvalidState)

	ErrProcessClosed = fmt.Errorf("%w: selection process is closed", ErrInvalidState)

	ErrEmailMismatch = fmt.Errorf("%w: invitation was issued to a different email", ErrMismatch)
	ErrNotVideoOwner = fmt.Errorf("%w: caller may only act for their own candidate profile", ErrMismatch)

	ErrApplicationScope = fmt.Errorf("%w: application does not belong to this worker and process", ErrInvalidInput)

	ErrStorageUnavailable = fmt.Errorf("%w: artifact storage unavailable", ErrDependency)
)

// ErrAlreadyAccepted is both an invalid state and a conflict.
var ErrAlreadyAccepted error = alreadyAccepted{}

type alreadyAccepted struct{}

func (alreadyAccepted) Error() string { return "invalid state: invitation already accepted" }

func (alreadyAccepted) Is(target error) bool {
	return target == ErrInvalidState || target == ErrConflict
}
