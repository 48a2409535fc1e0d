package sqlconnect

import (
	"context"
	"database/sql"
	"errors"

	"recruitgate/internal/models"
	"recruitgate/internal/repositories"
)

func (s *Store) ResolveIdentity(ctx context.Context, userID string) (*models.Identity, error) {
	var (
		identity models.Identity
		workerID sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.first_name, w.id
		FROM users u LEFT JOIN workers w ON w.user_id = u.id
		WHERE u.id = ?`, userID).
		Scan(&identity.ID, &identity.Email, &identity.FirstName, &workerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNoRows
		}
		return nil, err
	}
	identity.WorkerID = nullString(workerID)
	return &identity, nil
}

func (s *Store) GetProcess(ctx context.Context, id string) (*models.SelectionProcess, error) {
	var p models.SelectionProcess
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, is_active FROM selection_processes WHERE id = ?`, id).
		Scan(&p.ID, &p.Title, &p.Description, &p.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNoRows
		}
		return nil, err
	}
	return &p, nil
}
