package models

import "time"

type VideoStatus string

const (
	VideoPendingReview VideoStatus = "PENDING_REVIEW"
	VideoApproved      VideoStatus = "APPROVED"
	VideoRejected      VideoStatus = "REJECTED"
)

type VideoRequirement struct {
	ID              string      `json:"id" db:"id"`
	WorkerID        string      `json:"worker_id" db:"worker_id"`
	ProcessID       string      `json:"process_id" db:"process_id"`
	WorkerProcessID *string     `json:"worker_process_id,omitempty" db:"worker_process_id"`
	ScopeKey        string      `json:"-" db:"scope_key"`
	Locator         string      `json:"-" db:"locator"`
	Filename        string      `json:"filename" db:"filename"`
	ContentType     string      `json:"content_type" db:"content_type"`
	SizeBytes       int64       `json:"size_bytes" db:"size_bytes"`
	Status          VideoStatus `json:"status" db:"status"`
	ReviewNotes     string      `json:"review_notes,omitempty" db:"review_notes"`
	ReviewedByID    *string     `json:"reviewed_by_id,omitempty" db:"reviewed_by_id"`
	ReviewedAt      *time.Time  `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
}

// VideoScope identifies what a video unlocks. ApplicationID wins when set.
type VideoScope struct {
	WorkerID      string
	ProcessID     string
	ApplicationID string
}

func (s VideoScope) Key() string {
	if s.ApplicationID != "" {
		return "app:" + s.ApplicationID
	}
	return "pair:" + s.WorkerID + ":" + s.ProcessID
}
