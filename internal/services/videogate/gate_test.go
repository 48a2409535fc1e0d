package videogate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruitgate/internal/models"
	"recruitgate/internal/repositories"
	"recruitgate/internal/services"
)

type memVideos struct {
	mu     sync.Mutex
	videos map[string]models.VideoRequirement
	apps   map[string]models.WorkerProcess

	// skipExistsCheck lets a test lose the race to the unique key.
	skipExistsCheck bool
}

func newMemVideos() *memVideos {
	return &memVideos{videos: map[string]models.VideoRequirement{}, apps: map[string]models.WorkerProcess{}}
}

func (m *memVideos) addApplication(id, workerID, processID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apps[id] = models.WorkerProcess{ID: id, WorkerID: workerID, ProcessID: processID, Status: models.WorkerProcessApplied}
}

func (m *memVideos) GetApplication(_ context.Context, id string) (*models.WorkerProcess, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok {
		return nil, repositories.ErrNoRows
	}
	return &app, nil
}

func (m *memVideos) HasVideo(_ context.Context, scope models.VideoScope) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.skipExistsCheck {
		return false, nil
	}
	for _, v := range m.videos {
		if scope.ApplicationID != "" {
			if v.WorkerProcessID != nil && *v.WorkerProcessID == scope.ApplicationID {
				return true, nil
			}
			continue
		}
		if v.WorkerID == scope.WorkerID && v.ProcessID == scope.ProcessID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memVideos) InsertVideo(_ context.Context, v *models.VideoRequirement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.videos {
		if other.ScopeKey == v.ScopeKey {
			return repositories.ErrDuplicateVideo
		}
	}
	m.videos[v.ID] = *v
	return nil
}

func (m *memVideos) GetVideo(_ context.Context, id string) (*models.VideoRequirement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return nil, repositories.ErrNoRows
	}
	return &v, nil
}

func (m *memVideos) ReviewVideo(_ context.Context, id string, status models.VideoStatus, notes, reviewerID string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return false, nil
	}
	v.Status = status
	v.ReviewNotes = notes
	v.ReviewedByID = &reviewerID
	v.ReviewedAt = &now
	m.videos[id] = v
	return true, nil
}

type memArtifacts struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	storeErr error
	openErr  error
	deleted  []string
}

func newMemArtifacts() *memArtifacts {
	return &memArtifacts{blobs: map[string][]byte{}}
}

func (a *memArtifacts) Store(_ context.Context, key string, r io.Reader) (string, error) {
	if a.storeErr != nil {
		return "", a.storeErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.blobs["mem://"+key] = b
	return "mem://" + key, nil
}

func (a *memArtifacts) Open(_ context.Context, locator string) (io.ReadCloser, error) {
	if a.openErr != nil {
		return nil, a.openErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.blobs[locator]
	if !ok {
		return nil, errors.New("no such artifact")
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (a *memArtifacts) Delete(_ context.Context, locator string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.blobs, locator)
	a.deleted = append(a.deleted, locator)
	return nil
}

// memIdentities maps user ids to candidate profiles.
type memIdentities map[string]models.Identity

func (m memIdentities) ResolveIdentity(_ context.Context, userID string) (*models.Identity, error) {
	identity, ok := m[userID]
	if !ok {
		return nil, repositories.ErrNoRows
	}
	return &identity, nil
}

func workerPtr(id string) *string { return &id }

var (
	recruiter = Actor{UserID: "recruiter-1", Operator: true}
	alice     = Actor{UserID: "user-alice"}
	mallory   = Actor{UserID: "user-mallory"}
	noProfile = Actor{UserID: "user-new"}
)

func newTestService(t *testing.T) (*Service, *memVideos, *memArtifacts) {
	t.Helper()
	videos := newMemVideos()
	artifacts := newMemArtifacts()
	identities := memIdentities{
		"user-alice":   {ID: "user-alice", Email: "alice@example.com", WorkerID: workerPtr("worker-1")},
		"user-mallory": {ID: "user-mallory", Email: "mallory@example.com", WorkerID: workerPtr("worker-9")},
		"user-new":     {ID: "user-new", Email: "new@example.com"},
	}
	logger, _ := test.NewNullLogger()
	svc := NewService(videos, identities, artifacts, Options{
		StorageTimeout: time.Second,
		MaxBytes:       1 << 20,
		Logger:         logger,
		Now:            func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) },
	})
	return svc, videos, artifacts
}

func upload(workerID, processID, applicationID string) UploadInput {
	body := "fake mp4 bytes"
	return UploadInput{
		WorkerID:      workerID,
		ProcessID:     processID,
		ApplicationID: applicationID,
		Filename:      "intro.MP4",
		ContentType:   "video/mp4",
		Size:          int64(len(body)),
		Body:          strings.NewReader(body),
	}
}

func TestCanAccessTestsAfterUpload(t *testing.T) {
	svc, _, artifacts := newTestService(t)
	ctx := context.Background()

	ok, err := svc.CanAccessTests(ctx, alice, "worker-1", "proc-1", "")
	require.NoError(t, err)
	assert.False(t, ok)

	video, err := svc.Upload(ctx, alice, upload("worker-1", "proc-1", ""))
	require.NoError(t, err)
	assert.Equal(t, models.VideoPendingReview, video.Status)
	assert.Equal(t, "pair:worker-1:proc-1", video.ScopeKey)
	assert.Equal(t, "intro.MP4", video.Filename)
	assert.True(t, strings.HasPrefix(video.Locator, "mem://proc-1/worker-1/VID"))
	assert.True(t, strings.HasSuffix(video.Locator, video.ID+".mp4"))
	assert.Len(t, artifacts.blobs, 1)

	ok, err = svc.CanAccessTests(ctx, alice, "worker-1", "proc-1", "")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CanAccessTests(ctx, recruiter, "worker-1", "proc-2", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCandidateDefaultsToOwnWorker(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	video, err := svc.Upload(ctx, alice, upload("", "proc-1", ""))
	require.NoError(t, err)
	assert.Equal(t, "worker-1", video.WorkerID)

	ok, err := svc.CanAccessTests(ctx, alice, "", "proc-1", "")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCandidateCannotUploadForSomeoneElse(t *testing.T) {
	svc, videos, artifacts := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, mallory, upload("worker-1", "proc-1", ""))
	assert.ErrorIs(t, err, services.ErrNotVideoOwner)
	assert.ErrorIs(t, err, services.ErrMismatch)
	assert.Empty(t, videos.videos)
	assert.Empty(t, artifacts.blobs)

	ok, err := svc.CanAccessTests(ctx, recruiter, "worker-1", "proc-1", "")
	require.NoError(t, err)
	assert.False(t, ok, "the other candidate's gate stays locked")

	_, err = svc.Upload(ctx, alice, upload("worker-1", "proc-1", ""))
	require.NoError(t, err, "the slot is still free for its owner")
}

func TestCandidateCannotCheckSomeoneElsesAccess(t *testing.T) {
	svc, videos, _ := newTestService(t)
	videos.addApplication("app-1", "worker-1", "proc-1")

	_, err := svc.CanAccessTests(context.Background(), mallory, "worker-1", "proc-1", "")
	assert.ErrorIs(t, err, services.ErrNotVideoOwner)

	_, err = svc.CanAccessTests(context.Background(), mallory, "", "", "app-1")
	assert.ErrorIs(t, err, services.ErrNotVideoOwner)
}

func TestCallerWithoutProfileIsRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, noProfile, upload("", "proc-1", ""))
	assert.ErrorIs(t, err, services.ErrNotVideoOwner)

	_, err = svc.Upload(ctx, Actor{UserID: "ghost"}, upload("", "proc-1", ""))
	assert.ErrorIs(t, err, services.ErrIdentityNotFound)

	_, err = svc.CanAccessTests(ctx, Actor{}, "worker-1", "proc-1", "")
	assert.ErrorIs(t, err, services.ErrNotVideoOwner)
}

func TestOperatorUploadsForAnyCandidate(t *testing.T) {
	svc, _, _ := newTestService(t)

	video, err := svc.Upload(context.Background(), recruiter, upload("worker-9", "proc-1", ""))
	require.NoError(t, err)
	assert.Equal(t, "worker-9", video.WorkerID)
}

func TestUploadConflict(t *testing.T) {
	svc, _, artifacts := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, alice, upload("worker-1", "proc-1", ""))
	require.NoError(t, err)

	_, err = svc.Upload(ctx, alice, upload("worker-1", "proc-1", ""))
	assert.ErrorIs(t, err, services.ErrVideoExists)
	assert.ErrorIs(t, err, services.ErrConflict)
	assert.Len(t, artifacts.blobs, 1)
}

func TestUploadLosesRaceToUniqueKey(t *testing.T) {
	svc, videos, artifacts := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, alice, upload("worker-1", "proc-1", ""))
	require.NoError(t, err)

	videos.skipExistsCheck = true
	_, err = svc.Upload(ctx, alice, upload("worker-1", "proc-1", ""))
	assert.ErrorIs(t, err, services.ErrVideoExists)

	require.Len(t, artifacts.deleted, 1)
	assert.Len(t, artifacts.blobs, 1)
	assert.NotContains(t, artifacts.blobs, artifacts.deleted[0])
}

func TestApplicationScopeTakesPrecedence(t *testing.T) {
	svc, videos, _ := newTestService(t)
	videos.addApplication("app-1", "worker-1", "proc-1")
	videos.addApplication("app-2", "worker-1", "proc-2")
	ctx := context.Background()

	video, err := svc.Upload(ctx, alice, upload("", "", "app-1"))
	require.NoError(t, err)
	assert.Equal(t, "app:app-1", video.ScopeKey)
	assert.Equal(t, "worker-1", video.WorkerID)
	assert.Equal(t, "proc-1", video.ProcessID)

	ok, err := svc.CanAccessTests(ctx, alice, "worker-1", "proc-1", "app-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CanAccessTests(ctx, alice, "", "", "app-2")
	require.NoError(t, err)
	assert.False(t, ok, "a different application is not covered")

	ok, err = svc.CanAccessTests(ctx, recruiter, "", "", "app-1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Upload(ctx, alice, upload("worker-1", "proc-1", "app-1"))
	assert.ErrorIs(t, err, services.ErrVideoExists)
}

func TestApplicationMustMatchWorkerAndProcess(t *testing.T) {
	svc, videos, artifacts := newTestService(t)
	videos.addApplication("app-1", "worker-1", "proc-1")
	videos.addApplication("app-9", "worker-9", "proc-1")
	ctx := context.Background()

	_, err := svc.Upload(ctx, alice, upload("worker-1", "proc-2", "app-1"))
	assert.ErrorIs(t, err, services.ErrApplicationScope)
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = svc.Upload(ctx, recruiter, upload("worker-1", "proc-1", "app-9"))
	assert.ErrorIs(t, err, services.ErrApplicationScope)

	_, err = svc.Upload(ctx, alice, upload("", "", "app-9"))
	assert.ErrorIs(t, err, services.ErrNotVideoOwner)

	_, err = svc.Upload(ctx, alice, upload("", "", "app-missing"))
	assert.ErrorIs(t, err, services.ErrApplicationNotFound)

	_, err = svc.CanAccessTests(ctx, recruiter, "", "", "app-missing")
	assert.ErrorIs(t, err, services.ErrApplicationNotFound)

	assert.Empty(t, videos.videos)
	assert.Empty(t, artifacts.blobs)
}

func TestCanAccessTestsNeedsScope(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.CanAccessTests(context.Background(), recruiter, "worker-1", "", "")
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = svc.CanAccessTests(context.Background(), alice, "", "", "")
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestUploadStorageFailure(t *testing.T) {
	svc, videos, artifacts := newTestService(t)
	artifacts.storeErr = errors.New("disk full")

	_, err := svc.Upload(context.Background(), alice, upload("worker-1", "proc-1", ""))
	assert.ErrorIs(t, err, services.ErrStorageUnavailable)
	assert.ErrorIs(t, err, services.ErrDependency)
	assert.Empty(t, videos.videos)

	ok, err := svc.CanAccessTests(context.Background(), alice, "worker-1", "proc-1", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUploadValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	tests := []struct {
		name   string
		mutate func(in *UploadInput)
	}{
		{"missing worker", func(in *UploadInput) { in.WorkerID = "" }},
		{"missing process", func(in *UploadInput) { in.ProcessID = " " }},
		{"missing body", func(in *UploadInput) { in.Body = nil }},
		{"not a video", func(in *UploadInput) { in.ContentType = "image/png" }},
		{"too large", func(in *UploadInput) { in.Size = 2 << 20 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := upload("worker-1", "proc-1", "")
			tt.mutate(&in)
			_, err := svc.Upload(context.Background(), recruiter, in)
			assert.ErrorIs(t, err, services.ErrInvalidInput)
		})
	}
}

func TestOpen(t *testing.T) {
	svc, _, artifacts := newTestService(t)
	ctx := context.Background()

	video, err := svc.Upload(ctx, alice, upload("worker-1", "proc-1", ""))
	require.NoError(t, err)

	got, rc, err := svc.Open(ctx, alice, video.ID)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, video.ID, got.ID)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "fake mp4 bytes", string(b))

	_, _, err = svc.Open(ctx, alice, "missing")
	assert.ErrorIs(t, err, services.ErrVideoNotFound)

	artifacts.openErr = errors.New("bucket offline")
	_, _, err = svc.Open(ctx, recruiter, video.ID)
	assert.ErrorIs(t, err, services.ErrStorageUnavailable)
}

func TestOtherCandidatesVideosAreHidden(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	video, err := svc.Upload(ctx, alice, upload("worker-1", "proc-1", ""))
	require.NoError(t, err)

	_, err = svc.Get(ctx, mallory, video.ID)
	assert.ErrorIs(t, err, services.ErrVideoNotFound)

	_, rc, err := svc.Open(ctx, mallory, video.ID)
	assert.ErrorIs(t, err, services.ErrVideoNotFound)
	assert.Nil(t, rc)

	got, err := svc.Get(ctx, recruiter, video.ID)
	require.NoError(t, err)
	assert.Equal(t, video.ID, got.ID)

	got, err = svc.Get(ctx, alice, video.ID)
	require.NoError(t, err)
	assert.Equal(t, video.ID, got.ID)
}

func TestReviewDoesNotChangeAccess(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	video, err := svc.Upload(ctx, alice, upload("worker-1", "proc-1", ""))
	require.NoError(t, err)

	reviewed, err := svc.Review(ctx, video.ID, ReviewInput{Status: models.VideoRejected, Notes: " too dark ", ReviewerID: "recruiter-1"})
	require.NoError(t, err)
	assert.Equal(t, models.VideoRejected, reviewed.Status)
	assert.Equal(t, "too dark", reviewed.ReviewNotes)
	require.NotNil(t, reviewed.ReviewedByID)
	assert.Equal(t, "recruiter-1", *reviewed.ReviewedByID)

	ok, err := svc.CanAccessTests(ctx, alice, "worker-1", "proc-1", "")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReviewErrors(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Review(ctx, "missing", ReviewInput{Status: models.VideoApproved})
	assert.ErrorIs(t, err, services.ErrVideoNotFound)

	_, err = svc.Review(ctx, "missing", ReviewInput{Status: models.VideoPendingReview})
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}
