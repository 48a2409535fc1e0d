package sqlconnect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"recruitgate/internal/models"
	"recruitgate/internal/repositories"
)

const invitationColumns = `id, token_hash, email, email_normalized, first_name, last_name, process_id,
	status, sent_at, accepted_at, expires_at, created_by_id, created_at, updated_at`

func scanInvitation(row rowScanner) (*models.Invitation, error) {
	var (
		inv        models.Invitation
		sentAt     sql.NullTime
		acceptedAt sql.NullTime
	)
	err := row.Scan(
		&inv.ID,
		&inv.TokenHash,
		&inv.Email,
		&inv.EmailNormalized,
		&inv.FirstName,
		&inv.LastName,
		&inv.ProcessID,
		&inv.Status,
		&sentAt,
		&acceptedAt,
		&inv.ExpiresAt,
		&inv.CreatedByID,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNoRows
		}
		return nil, err
	}
	inv.SentAt = nullTime(sentAt)
	inv.AcceptedAt = nullTime(acceptedAt)
	inv.ExpiresAt = inv.ExpiresAt.UTC()
	inv.CreatedAt = inv.CreatedAt.UTC()
	inv.UpdatedAt = inv.UpdatedAt.UTC()
	return &inv, nil
}

func mapInvitationWriteErr(err error) error {
	key, ok := duplicateKey(err)
	if !ok {
		return err
	}
	switch {
	case strings.Contains(key, "uq_invitations_pending"):
		return repositories.ErrDuplicatePending
	case strings.Contains(key, "uq_invitations_token_hash"):
		return repositories.ErrDuplicateToken
	}
	return err
}

func (s *Store) InsertInvitation(ctx context.Context, inv *models.Invitation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invitations (id, token_hash, email, email_normalized, first_name, last_name,
			process_id, status, expires_at, created_by_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.TokenHash, inv.Email, inv.EmailNormalized, inv.FirstName, inv.LastName,
		inv.ProcessID, inv.Status, inv.ExpiresAt, inv.CreatedByID, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return mapInvitationWriteErr(err)
	}
	return nil
}

func (s *Store) GetInvitationByID(ctx context.Context, id string) (*models.Invitation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE id = ?`, id)
	return scanInvitation(row)
}

func (s *Store) GetInvitationByTokenHash(ctx context.Context, tokenHash string) (*models.Invitation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE token_hash = ?`, tokenHash)
	return scanInvitation(row)
}

func (s *Store) ListInvitations(ctx context.Context, filter models.InvitationFilter) ([]models.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE 1 = 1`
	var args []any

	if filter.ProcessID != "" {
		query += " AND process_id = ?"
		args = append(args, filter.ProcessID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Email != "" {
		query += " AND email_normalized = ?"
		args = append(args, strings.ToLower(strings.TrimSpace(filter.Email)))
	}

	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invites []models.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invites = append(invites, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read invitations: %w", err)
	}
	return invites, nil
}

// ExpireInvitation flips one overdue PENDING invitation to EXPIRED. It
// reports false when the row was not PENDING-and-overdue any more.
func (s *Store) ExpireInvitation(ctx context.Context, id string, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE invitations SET status = 'EXPIRED', updated_at = ?
		WHERE id = ? AND status = 'PENDING' AND expires_at < ?`,
		now, id, now)
	return affectedOne(res, err)
}

// ExpireStalePending expires an overdue PENDING invitation for the same
// (process, email) so it does not hold the pending unique key.
func (s *Store) ExpireStalePending(ctx context.Context, processID, emailNormalized string, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE invitations SET status = 'EXPIRED', updated_at = ?
		WHERE process_id = ? AND email_normalized = ? AND status = 'PENDING' AND expires_at < ?`,
		now, processID, emailNormalized, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ExpireOverdueMatching expires the overdue PENDING invitations inside the
// process and email scope of filter. Status, limit and offset are ignored.
func (s *Store) ExpireOverdueMatching(ctx context.Context, filter models.InvitationFilter, now time.Time) (int64, error) {
	query := `UPDATE invitations SET status = 'EXPIRED', updated_at = ?
		WHERE status = 'PENDING' AND expires_at < ?`
	args := []any{now, now}

	if filter.ProcessID != "" {
		query += " AND process_id = ?"
		args = append(args, filter.ProcessID)
	}
	if filter.Email != "" {
		query += " AND email_normalized = ?"
		args = append(args, strings.ToLower(strings.TrimSpace(filter.Email)))
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) CancelInvitation(ctx context.Context, id string, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE invitations SET status = 'CANCELLED', updated_at = ?
		WHERE id = ? AND status = 'PENDING' AND expires_at >= ?`,
		now, id, now)
	return affectedOne(res, err)
}

// ReissueInvitation installs a new token and expiry and forces PENDING on
// any invitation that is not ACCEPTED.
func (s *Store) ReissueInvitation(ctx context.Context, id, tokenHash string, expiresAt, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE invitations
		SET token_hash = ?, expires_at = ?, status = 'PENDING', sent_at = NULL, updated_at = ?
		WHERE id = ? AND status <> 'ACCEPTED'`,
		tokenHash, expiresAt, now, id)
	if err != nil {
		return false, mapInvitationWriteErr(err)
	}
	return affectedOne(res, nil)
}

// MarkInvitationSent records delivery of the token identified by tokenHash.
// A send that finishes after a resend does not touch the newer token.
func (s *Store) MarkInvitationSent(ctx context.Context, id, tokenHash string, sentAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE invitations SET sent_at = ?, updated_at = ?
		WHERE id = ? AND token_hash = ?`,
		sentAt, sentAt, id, tokenHash)
	return err
}

// ExpireOverdue expires at most limit overdue PENDING invitations and
// returns how many rows changed.
func (s *Store) ExpireOverdue(ctx context.Context, now time.Time, limit int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE invitations SET status = 'EXPIRED', updated_at = ?
		WHERE status = 'PENDING' AND expires_at < ?
		ORDER BY expires_at
		LIMIT ?`,
		now, now, limit)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func affectedOne(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
