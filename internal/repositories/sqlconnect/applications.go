package sqlconnect

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"recruitgate/internal/models"
	"recruitgate/internal/repositories"
	"recruitgate/pkg/utils"
)

const applicationColumns = `id, worker_id, process_id, invitation_id, status, created_at`

func scanApplication(row rowScanner) (*models.WorkerProcess, error) {
	var (
		app          models.WorkerProcess
		invitationID sql.NullString
	)
	err := row.Scan(&app.ID, &app.WorkerID, &app.ProcessID, &invitationID, &app.Status, &app.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNoRows
		}
		return nil, err
	}
	app.InvitationID = nullString(invitationID)
	app.CreatedAt = app.CreatedAt.UTC()
	return &app, nil
}

func (s *Store) FindApplication(ctx context.Context, workerID, processID string) (*models.WorkerProcess, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+applicationColumns+`
		FROM worker_processes WHERE worker_id = ? AND process_id = ?`, workerID, processID)
	return scanApplication(row)
}

func (s *Store) GetApplication(ctx context.Context, id string) (*models.WorkerProcess, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM worker_processes WHERE id = ?`, id)
	return scanApplication(row)
}

// AcceptInvitation marks the invitation ACCEPTED and inserts the application
// in one transaction. The invitation update is conditional on it still being
// PENDING and unexpired at now; otherwise nothing is written and
// ErrStateChanged is returned.
func (s *Store) AcceptInvitation(ctx context.Context, invitationID string, app *models.WorkerProcess, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return utils.ErrorHandler(err, "failed to start transaction")
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE invitations SET status = 'ACCEPTED', accepted_at = ?, updated_at = ?
		WHERE id = ? AND status = 'PENDING' AND expires_at >= ?`,
		now, now, invitationID, now)
	if err != nil {
		tx.Rollback()
		return utils.ErrorHandler(err, "failed to accept invitation")
	}
	n, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return utils.ErrorHandler(err, "failed to accept invitation")
	}
	if n != 1 {
		tx.Rollback()
		return repositories.ErrStateChanged
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO worker_processes (id, worker_id, process_id, invitation_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		app.ID, app.WorkerID, app.ProcessID, app.InvitationID, app.Status, app.CreatedAt)
	if err != nil {
		tx.Rollback()
		if key, ok := duplicateKey(err); ok && strings.Contains(key, "uq_worker_processes_worker_process") {
			return repositories.ErrDuplicateApplication
		}
		return utils.ErrorHandler(err, "failed to create application")
	}

	if err = tx.Commit(); err != nil {
		return utils.ErrorHandler(err, "failed to commit transaction")
	}
	return nil
}
