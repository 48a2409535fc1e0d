package invitations

import "recruitgate/internal/models"

type OutcomeKind string

const (
	OutcomeNeedsRegistration  OutcomeKind = "needs_registration"
	OutcomeNeedsWorkerProfile OutcomeKind = "needs_worker_profile"
	OutcomeApplied            OutcomeKind = "applied"
)

// Outcome is the result of a successful Accept call. It is one of
// NeedsRegistration, NeedsWorkerProfile or Applied.
type Outcome interface {
	Kind() OutcomeKind
	outcome()
}

// NeedsRegistration is returned to anonymous callers. Nothing was written.
type NeedsRegistration struct {
	Invitation *models.Invitation
}

// NeedsWorkerProfile is returned when the caller has no candidate profile
// yet. Nothing was written.
type NeedsWorkerProfile struct {
	Invitation *models.Invitation
	ProcessID  string
}

type Applied struct {
	Invitation  *models.Invitation
	Application *models.WorkerProcess
	ProcessID   string
}

func (NeedsRegistration) Kind() OutcomeKind  { return OutcomeNeedsRegistration }
func (NeedsWorkerProfile) Kind() OutcomeKind { return OutcomeNeedsWorkerProfile }
func (Applied) Kind() OutcomeKind            { return OutcomeApplied }

func (NeedsRegistration) outcome()  {}
func (NeedsWorkerProfile) outcome() {}
func (Applied) outcome()            {}
