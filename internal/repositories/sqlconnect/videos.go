package sqlconnect

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"recruitgate/internal/models"
	"recruitgate/internal/repositories"
)

// HasVideo checks the most specific scope: the application when given,
// otherwise any video for the (worker, process) pair.
func (s *Store) HasVideo(ctx context.Context, scope models.VideoScope) (bool, error) {
	var exists bool
	var err error
	if scope.ApplicationID != "" {
		err = s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM video_requirements WHERE worker_process_id = ?)`,
			scope.ApplicationID).Scan(&exists)
	} else {
		err = s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM video_requirements WHERE worker_id = ? AND process_id = ?)`,
			scope.WorkerID, scope.ProcessID).Scan(&exists)
	}
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (s *Store) InsertVideo(ctx context.Context, v *models.VideoRequirement) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO video_requirements (id, worker_id, process_id, worker_process_id, scope_key, locator,
			filename, content_type, size_bytes, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.WorkerID, v.ProcessID, v.WorkerProcessID, v.ScopeKey, v.Locator,
		v.Filename, v.ContentType, v.SizeBytes, v.Status, v.CreatedAt)
	if err != nil {
		if key, ok := duplicateKey(err); ok && strings.Contains(key, "uq_video_requirements_scope") {
			return repositories.ErrDuplicateVideo
		}
		return err
	}
	return nil
}

func (s *Store) GetVideo(ctx context.Context, id string) (*models.VideoRequirement, error) {
	var (
		v               models.VideoRequirement
		workerProcessID sql.NullString
		reviewNotes     sql.NullString
		reviewedByID    sql.NullString
		reviewedAt      sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, worker_id, process_id, worker_process_id, scope_key, locator, filename,
			content_type, size_bytes, status, review_notes, reviewed_by_id, reviewed_at, created_at
		FROM video_requirements WHERE id = ?`, id).
		Scan(&v.ID, &v.WorkerID, &v.ProcessID, &workerProcessID, &v.ScopeKey, &v.Locator, &v.Filename,
			&v.ContentType, &v.SizeBytes, &v.Status, &reviewNotes, &reviewedByID, &reviewedAt, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNoRows
		}
		return nil, err
	}
	v.WorkerProcessID = nullString(workerProcessID)
	v.ReviewNotes = reviewNotes.String
	v.ReviewedByID = nullString(reviewedByID)
	v.ReviewedAt = nullTime(reviewedAt)
	v.CreatedAt = v.CreatedAt.UTC()
	return &v, nil
}

func (s *Store) ReviewVideo(ctx context.Context, id string, status models.VideoStatus, notes, reviewerID string, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE video_requirements SET status = ?, review_notes = ?, reviewed_by_id = ?, reviewed_at = ?
		WHERE id = ?`,
		status, notes, reviewerID, now, id)
	return affectedOne(res, err)
}
