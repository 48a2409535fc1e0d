package videos

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"recruitgate/internal/api/handlers"
	"recruitgate/internal/models"
	"recruitgate/internal/services/videogate"
	"recruitgate/pkg/utils"
)

const multipartMemory = 32 << 20

type Service interface {
	CanAccessTests(ctx context.Context, actor videogate.Actor, workerID, processID, applicationID string) (bool, error)
	Upload(ctx context.Context, actor videogate.Actor, in videogate.UploadInput) (*models.VideoRequirement, error)
	Get(ctx context.Context, actor videogate.Actor, id string) (*models.VideoRequirement, error)
	Open(ctx context.Context, actor videogate.Actor, id string) (*models.VideoRequirement, io.ReadCloser, error)
	Review(ctx context.Context, id string, in videogate.ReviewInput) (*models.VideoRequirement, error)
}

type Handler struct {
	svc      Service
	maxBytes int64
}

// NewHandler caps multipart uploads at maxBytes of video plus form overhead.
func NewHandler(svc Service, maxBytes int64) *Handler {
	return &Handler{svc: svc, maxBytes: maxBytes}
}

// actor is the caller as the JWT middleware left it in the request context.
func actor(w http.ResponseWriter, r *http.Request) (videogate.Actor, bool) {
	userID, ok := handlers.RequireUserID(w, r)
	if !ok {
		return videogate.Actor{}, false
	}
	return videogate.Actor{UserID: userID, Operator: utils.IsOperator(r.Context())}, true
}

// UploadVideoHandler takes the "video" file part. worker_id may be omitted
// by candidates; operators name the candidate they upload for.
func (h *Handler) UploadVideoHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartMemory)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.WriteError(w, "video too large", http.StatusRequestEntityTooLarge)
			return
		}
		utils.WriteError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("video")
	if err != nil {
		utils.WriteError(w, "no video uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	video, err := h.svc.Upload(r.Context(), caller, videogate.UploadInput{
		WorkerID:      r.FormValue("worker_id"),
		ProcessID:     r.FormValue("process_id"),
		ApplicationID: r.FormValue("application_id"),
		Filename:      header.Filename,
		ContentType:   header.Header.Get("Content-Type"),
		Size:          header.Size,
		Body:          file,
	})
	if err != nil {
		handlers.WriteServiceError(w, err)
		return
	}
	handlers.WriteSuccess(w, http.StatusCreated, "video uploaded", video)
}

func (h *Handler) CanAccessTestsHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	allowed, err := h.svc.CanAccessTests(ctx, caller,
		handlers.QueryParam(r, "worker_id"),
		handlers.QueryParam(r, "process_id"),
		handlers.QueryParam(r, "application_id"))
	if err != nil {
		handlers.WriteServiceError(w, err)
		return
	}
	handlers.WriteSuccess(w, http.StatusOK, "", map[string]bool{"can_access_tests": allowed})
}

func (h *Handler) GetVideoHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	video, err := h.svc.Get(ctx, caller, r.PathValue("id"))
	if err != nil {
		handlers.WriteServiceError(w, err)
		return
	}
	handlers.WriteSuccess(w, http.StatusOK, "video found", video)
}

// StreamVideoHandler serves the artifact. File-backed artifacts support
// range requests.
func (h *Handler) StreamVideoHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}
	video, rc, err := h.svc.Open(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		handlers.WriteServiceError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", video.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": video.Filename}))

	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, video.Filename, video.CreatedAt, rs)
		return
	}
	w.Header().Set("Content-Length", strconv.FormatInt(video.SizeBytes, 10))
	if _, err := io.Copy(w, rc); err != nil {
		utils.Logger.WithError(err).WithField("video_id", video.ID).Warn("video stream interrupted")
	}
}

func (h *Handler) ReviewVideoHandler(w http.ResponseWriter, r *http.Request) {
	reviewerID, ok := handlers.RequireUserID(w, r)
	if !ok {
		return
	}

	var in videogate.ReviewInput
	if err := handlers.DecodeJSON(w, r, &in); err != nil {
		handlers.WriteServiceError(w, err)
		return
	}
	in.ReviewerID = reviewerID

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	video, err := h.svc.Review(ctx, r.PathValue("id"), in)
	if err != nil {
		handlers.WriteServiceError(w, err)
		return
	}
	handlers.WriteSuccess(w, http.StatusOK, "video reviewed", video)
}
