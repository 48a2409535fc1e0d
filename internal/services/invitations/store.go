package invitations

import (
	"context"
	"time"

	"recruitgate/internal/models"
)

// Store is the persistence the workflow needs. Every mutating method is a
// conditional write; a false result means the row was not in the expected
// prior state.
type Store interface {
	GetProcess(ctx context.Context, id string) (*models.SelectionProcess, error)

	InsertInvitation(ctx context.Context, inv *models.Invitation) error
	GetInvitationByID(ctx context.Context, id string) (*models.Invitation, error)
	GetInvitationByTokenHash(ctx context.Context, tokenHash string) (*models.Invitation, error)
	ListInvitations(ctx context.Context, filter models.InvitationFilter) ([]models.Invitation, error)

	ExpireInvitation(ctx context.Context, id string, now time.Time) (bool, error)
	ExpireStalePending(ctx context.Context, processID, emailNormalized string, now time.Time) (int64, error)
	CancelInvitation(ctx context.Context, id string, now time.Time) (bool, error)
	ReissueInvitation(ctx context.Context, id, tokenHash string, expiresAt, now time.Time) (bool, error)
	MarkInvitationSent(ctx context.Context, id, tokenHash string, sentAt time.Time) error
	ExpireOverdue(ctx context.Context, now time.Time, limit int) (int64, error)
	ExpireOverdueMatching(ctx context.Context, filter models.InvitationFilter, now time.Time) (int64, error)

	FindApplication(ctx context.Context, workerID, processID string) (*models.WorkerProcess, error)
	AcceptInvitation(ctx context.Context, invitationID string, app *models.WorkerProcess, now time.Time) error
}

type IdentityProvider interface {
	ResolveIdentity(ctx context.Context, userID string) (*models.Identity, error)
}

type Notifier interface {
	Send(ctx context.Context, to, subject, textBody, htmlBody string) error
}
