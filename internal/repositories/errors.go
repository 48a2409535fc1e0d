package repositories

import "errors"

// Storage level outcomes. Services translate these into domain errors.
var (
	ErrNoRows               = errors.New("no rows")
	ErrDuplicateToken       = errors.New("duplicate invitation token")
	ErrDuplicatePending     = errors.New("duplicate pending invitation")
	ErrDuplicateApplication = errors.New("duplicate application")
	ErrDuplicateVideo       = errors.New("duplicate video requirement")
	ErrStateChanged         = errors.New("row not in expected state")
)
