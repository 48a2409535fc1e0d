package models

import "time"

type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "PENDING"
	InvitationAccepted  InvitationStatus = "ACCEPTED"
	InvitationExpired   InvitationStatus = "EXPIRED"
	InvitationCancelled InvitationStatus = "CANCELLED"
)

func (s InvitationStatus) Valid() bool {
	switch s {
	case InvitationPending, InvitationAccepted, InvitationExpired, InvitationCancelled:
		return true
	}
	return false
}

type Invitation struct {
	ID              string           `json:"id" db:"id"`
	Token           string           `json:"token,omitempty" db:"-"`
	TokenHash       string           `json:"-" db:"token_hash"`
	Email           string           `json:"email" db:"email"`
	EmailNormalized string           `json:"-" db:"email_normalized"`
	FirstName       string           `json:"first_name" db:"first_name"`
	LastName        string           `json:"last_name" db:"last_name"`
	ProcessID       string           `json:"process_id" db:"process_id"`
	Status          InvitationStatus `json:"status" db:"status"`
	SentAt          *time.Time       `json:"sent_at,omitempty" db:"sent_at"`
	AcceptedAt      *time.Time       `json:"accepted_at,omitempty" db:"accepted_at"`
	ExpiresAt       time.Time        `json:"expires_at" db:"expires_at"`
	CreatedByID     string           `json:"created_by_id" db:"created_by_id"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}

type InvitationFilter struct {
	ProcessID string
	Status    InvitationStatus
	Email     string
	Limit     int
	Offset    int
}
