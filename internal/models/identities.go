package models

// Identity is what the identity provider knows about an authenticated
// caller. WorkerID is nil until the user has created a candidate profile.
type Identity struct {
	ID        string  `json:"id" db:"id"`
	Email     string  `json:"email" db:"email"`
	FirstName string  `json:"first_name" db:"first_name"`
	WorkerID  *string `json:"worker_id,omitempty" db:"worker_id"`
}
