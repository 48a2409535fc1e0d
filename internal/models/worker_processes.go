package models

import "time"

const WorkerProcessApplied = "APPLIED"

// WorkerProcess is a candidate's application to a selection process.
type WorkerProcess struct {
	ID           string    `json:"id" db:"id"`
	WorkerID     string    `json:"worker_id" db:"worker_id"`
	ProcessID    string    `json:"process_id" db:"process_id"`
	InvitationID *string   `json:"invitation_id,omitempty" db:"invitation_id"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
