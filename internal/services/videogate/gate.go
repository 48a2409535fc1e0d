package videogate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"recruitgate/internal/models"
	"recruitgate/internal/repositories"
	"recruitgate/internal/services"
	"recruitgate/pkg/utils"
)

const defaultStorageTimeout = 60 * time.Second

type Store interface {
	HasVideo(ctx context.Context, scope models.VideoScope) (bool, error)
	InsertVideo(ctx context.Context, v *models.VideoRequirement) error
	GetVideo(ctx context.Context, id string) (*models.VideoRequirement, error)
	GetApplication(ctx context.Context, id string) (*models.WorkerProcess, error)
	ReviewVideo(ctx context.Context, id string, status models.VideoStatus, notes, reviewerID string, now time.Time) (bool, error)
}

// ArtifactStore holds the uploaded bytes. Locators are opaque to callers.
type ArtifactStore interface {
	Store(ctx context.Context, key string, r io.Reader) (string, error)
	Open(ctx context.Context, locator string) (io.ReadCloser, error)
	Delete(ctx context.Context, locator string) error
}

type Options struct {
	StorageTimeout time.Duration
	MaxBytes       int64
	Logger         logrus.FieldLogger
	Now            func() time.Time
}

type Service struct {
	store          Store
	identities     IdentityProvider
	artifacts      ArtifactStore
	storageTimeout time.Duration
	maxBytes       int64
	log            logrus.FieldLogger
	now            func() time.Time
}

func NewService(store Store, identities IdentityProvider, artifacts ArtifactStore, opts Options) *Service {
	s := &Service{
		store:          store,
		identities:     identities,
		artifacts:      artifacts,
		storageTimeout: opts.StorageTimeout,
		maxBytes:       opts.MaxBytes,
		log:            opts.Logger,
		now:            opts.Now,
	}
	if s.storageTimeout <= 0 {
		s.storageTimeout = defaultStorageTimeout
	}
	if s.log == nil {
		s.log = utils.Logger
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// CanAccessTests reports whether a video exists for the most specific scope
// given. Review status is not consulted. A candidate asking without a
// worker id is asking about themselves.
func (s *Service) CanAccessTests(ctx context.Context, actor Actor, workerID, processID, applicationID string) (bool, error) {
	scope, err := s.resolveScope(ctx, actor, models.VideoScope{WorkerID: workerID, ProcessID: processID, ApplicationID: applicationID})
	if err != nil {
		return false, err
	}
	if err := validScope(scope); err != nil {
		return false, err
	}
	ok, err := s.store.HasVideo(ctx, scope)
	if err != nil {
		return false, utils.ErrorHandlerWithFields(err, "failed to check video requirement", logrus.Fields{
			"scope": scope.Key(),
		})
	}
	return ok, nil
}

func validScope(scope models.VideoScope) error {
	if scope.ApplicationID != "" {
		return nil
	}
	if strings.TrimSpace(scope.WorkerID) == "" || strings.TrimSpace(scope.ProcessID) == "" {
		return fmt.Errorf("%w: worker_id and process_id are required without application_id", services.ErrInvalidInput)
	}
	return nil
}

type UploadInput struct {
	WorkerID      string
	ProcessID     string
	ApplicationID string
	Filename      string
	ContentType   string
	Size          int64
	Body          io.Reader
}

// Upload stores the artifact and records the video requirement. A scope can
// be covered once; the second upload is a conflict. Candidates upload only
// for themselves.
func (s *Service) Upload(ctx context.Context, actor Actor, in UploadInput) (*models.VideoRequirement, error) {
	if err := s.validateUpload(in); err != nil {
		return nil, err
	}
	scope, err := s.resolveScope(ctx, actor, models.VideoScope{WorkerID: in.WorkerID, ProcessID: in.ProcessID, ApplicationID: in.ApplicationID})
	if err != nil {
		services.VideoUploads.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if scope.WorkerID == "" || scope.ProcessID == "" {
		return nil, fmt.Errorf("%w: worker_id and process_id are required", services.ErrInvalidInput)
	}

	exists, err := s.store.HasVideo(ctx, scope)
	if err != nil {
		return nil, utils.ErrorHandlerWithFields(err, "failed to check video requirement", logrus.Fields{
			"scope": scope.Key(),
		})
	}
	if exists {
		services.VideoUploads.WithLabelValues("conflict").Inc()
		return nil, services.ErrVideoExists
	}

	id := uuid.NewString()
	locator, err := s.storeArtifact(ctx, artifactKey(scope, in.Filename, id), in.Body)
	if err != nil {
		services.VideoUploads.WithLabelValues("storage_error").Inc()
		s.log.WithError(err).WithField("worker_id", scope.WorkerID).Error("failed to store video artifact")
		return nil, fmt.Errorf("%w: %v", services.ErrStorageUnavailable, err)
	}

	video := &models.VideoRequirement{
		ID:          id,
		WorkerID:    scope.WorkerID,
		ProcessID:   scope.ProcessID,
		ScopeKey:    scope.Key(),
		Locator:     locator,
		Filename:    filepath.Base(in.Filename),
		ContentType: in.ContentType,
		SizeBytes:   in.Size,
		Status:      models.VideoPendingReview,
		CreatedAt:   s.now().UTC(),
	}
	if scope.ApplicationID != "" {
		appID := scope.ApplicationID
		video.WorkerProcessID = &appID
	}

	if err := s.store.InsertVideo(ctx, video); err != nil {
		s.discard(ctx, locator)
		if errors.Is(err, repositories.ErrDuplicateVideo) {
			services.VideoUploads.WithLabelValues("conflict").Inc()
			return nil, services.ErrVideoExists
		}
		return nil, utils.ErrorHandlerWithFields(err, "failed to save video requirement", logrus.Fields{
			"video_id": video.ID,
			"scope":    video.ScopeKey,
		})
	}

	services.VideoUploads.WithLabelValues("stored").Inc()
	s.log.WithFields(logrus.Fields{
		"video_id":   video.ID,
		"worker_id":  video.WorkerID,
		"process_id": video.ProcessID,
	}).Info("video uploaded")
	return video, nil
}

func (s *Service) validateUpload(in UploadInput) error {
	if in.Body == nil {
		return fmt.Errorf("%w: video file is required", services.ErrInvalidInput)
	}
	if !strings.HasPrefix(in.ContentType, "video/") {
		return fmt.Errorf("%w: unsupported content type %q", services.ErrInvalidInput, in.ContentType)
	}
	if s.maxBytes > 0 && in.Size > s.maxBytes {
		return fmt.Errorf("%w: video exceeds %d bytes", services.ErrInvalidInput, s.maxBytes)
	}
	return nil
}

func (s *Service) storeArtifact(ctx context.Context, key string, body io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	return s.artifacts.Store(ctx, key, body)
}

// discard removes an artifact whose row was never written.
func (s *Service) discard(ctx context.Context, locator string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storageTimeout)
	defer cancel()
	if err := s.artifacts.Delete(ctx, locator); err != nil {
		s.log.WithError(err).WithField("locator", locator).Warn("failed to delete orphaned video artifact")
	}
}

// artifactKey lays artifacts out per process and worker.
func artifactKey(scope models.VideoScope, filename, id string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\`) {
		ext = ""
	}
	return path.Join(scope.ProcessID, scope.WorkerID, services.GenerateReference("VID")+"-"+id+ext)
}

// Get returns a video the actor may see. Other candidates' videos read as
// not found.
func (s *Service) Get(ctx context.Context, actor Actor, id string) (*models.VideoRequirement, error) {
	video, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.visible(ctx, actor, video); err != nil {
		return nil, err
	}
	return video, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.VideoRequirement, error) {
	video, err := s.store.GetVideo(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNoRows) {
			return nil, services.ErrVideoNotFound
		}
		return nil, utils.ErrorHandlerWithFields(err, "failed to load video requirement", logrus.Fields{
			"video_id": id,
		})
	}
	return video, nil
}

// Open returns the video and a reader over its artifact. The caller closes it.
func (s *Service) Open(ctx context.Context, actor Actor, id string) (*models.VideoRequirement, io.ReadCloser, error) {
	video, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.artifacts.Open(ctx, video.Locator)
	if err != nil {
		s.log.WithError(err).WithField("video_id", id).Error("failed to open video artifact")
		return nil, nil, fmt.Errorf("%w: %v", services.ErrStorageUnavailable, err)
	}
	return video, rc, nil
}

type ReviewInput struct {
	Status     models.VideoStatus `json:"status"`
	Notes      string             `json:"notes"`
	ReviewerID string             `json:"-"`
}

// Review records a reviewer's verdict. It has no effect on CanAccessTests.
func (s *Service) Review(ctx context.Context, id string, in ReviewInput) (*models.VideoRequirement, error) {
	if in.Status != models.VideoApproved && in.Status != models.VideoRejected {
		return nil, fmt.Errorf("%w: status must be %s or %s", services.ErrInvalidInput, models.VideoApproved, models.VideoRejected)
	}

	ok, err := s.store.ReviewVideo(ctx, id, in.Status, strings.TrimSpace(in.Notes), in.ReviewerID, s.now().UTC())
	if err != nil {
		return nil, utils.ErrorHandlerWithFields(err, "failed to review video", logrus.Fields{
			"video_id": id,
		})
	}
	if !ok {
		return nil, services.ErrVideoNotFound
	}
	return s.load(ctx, id)
}
