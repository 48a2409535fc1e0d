package invitations

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"recruitgate/internal/api/handlers"
	"recruitgate/internal/models"
	invsvc "recruitgate/internal/services/invitations"
	"recruitgate/pkg/utils"
)

const (
	requestTimeout = 30 * time.Second
	maxBulkSize    = 500
)

type Service interface {
	Create(ctx context.Context, in invsvc.CreateInput) (*models.Invitation, error)
	BulkCreate(ctx context.Context, processID, createdByID string, invitees []invsvc.Invitee) (*invsvc.BulkResult, error)
	List(ctx context.Context, filter models.InvitationFilter) ([]models.Invitation, error)
	Get(ctx context.Context, id string) (*models.Invitation, error)
	Cancel(ctx context.Context, id string) (*models.Invitation, error)
	Resend(ctx context.Context, id string) (*models.Invitation, error)
	Sweep(ctx context.Context) (int64, error)
	FindByToken(ctx context.Context, token string) (*models.Invitation, error)
	Accept(ctx context.Context, token string, caller *invsvc.Caller) (invsvc.Outcome, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) CreateInvitationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := handlers.RequireUserID(w, r)
	if !ok {
		return
	}

	var in invsvc.CreateInput
	if err := handlers.DecodeJSON(w, r, &in); err != nil {
		handlers.WriteServiceError(w, err)
		return
	}
	in.CreatedByID = userID

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	inv, err := h.svc.Create(ctx, in)
	if err != nil {
		handlers.WriteServiceError(w, err)
		return
	}
	handlers.WriteSuccess(w, http.StatusCreated, "invitation created", inv)
}

type bulkRequest struct {
	ProcessID string           `json:"process_id"`
	Invitees  []invsvc.Invitee `json:"invitees"`
}

func (h *Handler) BulkCreateInvitationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := handlers.RequireUserID(w, r)
	if !ok {
		return
	}

	var req bulkRequest
	if err := handlers.DecodeJSON(w, r, &req); err != nil {
		handlers.WriteServiceError(w, err)
		return
	}
	if len(req.Invitees) == 0 {
		utils.WriteError(w, "no invites provided", http.StatusBadRequest)
		return
	}
	if len(req.Invitees) > maxBulkSize {
		utils.WriteError(w, fmt.Sprintf("at most %d invites per request", maxBulkSize), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	result, err := h.svc.BulkCreate(ctx, req.ProcessID, userID, req.Invitees)
	if err != nil {
		handlers.WriteServiceError(w, err)
		return
	}
	handlers.WriteSuccess(w, http.StatusOK,
		fmt.Sprintf("%d invites sent, %d skipped", len(result.Successful), len(result.Failed)), result)
}

type listResponse struct {
	Status   string              `json:"status"`
	Count    int                 `json:"count"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	Data     []models.Invitation `json:"data"`
}

func (h *Handler) ListInvitationsHandler(w http.ResponseWriter, r *http.Request) {
	page, limit := utils.GetPaginationParams(r)
	filter := models.InvitationFilter{
		ProcessID: handlers.QueryParam(r, "process_id"),
		Status:    models.InvitationStatus(handlers.QueryParam(r, "status")),
		Email:     handlers.QueryParam(r, "email"),
		Limit:     limit,
		Offset:    (page - 1) * limit,
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	invites, err := h.svc.List(ctx, filter)
	if err != nil {
		handlers.WriteServiceError(w, err)
		return
	}
	if invites == nil {
		invites = []models.Invitation{}
	}

	utils.WriteJSON(w, listResponse{
		Status:   "success",
		Count:    len(invites),
		Page:     page,
		PageSize: limit,
		Data:     invites,
	})
}

func (h *Handler) GetInvitationHandler(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, "invitation found", h.svc.Get)
}

func (h *Handler) CancelInvitationHandler(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, "invitation cancelled", h.svc.Cancel)
}

func (h *Handler) ResendInvitationHandler(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, "invitation resent", h.svc.Resend)
}

func (h *Handler) byID(w http.ResponseWriter, r *http.Request, message string, op func(context.Context, string) (*models.Invitation, error)) {
	id := r.PathValue("id")
	if id == "" {
		utils.WriteError(w, "invalid invitation ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	inv, err := op(ctx, id)
	if err != nil {
		handlers.WriteServiceError(w, err)
		return
	}
	handlers.WriteSuccess(w, http.StatusOK, message, inv)
}

func (h *Handler) SweepInvitationsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	n, err := h.svc.Sweep(ctx)
	if err != nil {
		handlers.WriteServiceError(w, err)
		return
	}
	handlers.WriteSuccess(w, http.StatusOK, fmt.Sprintf("%d invitations expired", n), map[string]int64{"expired": n})
}

// publicInvitation is what a token holder may see.
type publicInvitation struct {
	ID        string                  `json:"id"`
	Email     string                  `json:"email"`
	FirstName string                  `json:"first_name"`
	LastName  string                  `json:"last_name"`
	ProcessID string                  `json:"process_id"`
	Status    models.InvitationStatus `json:"status"`
	ExpiresAt time.Time               `json:"expires_at"`
}

func toPublic(inv *models.Invitation) publicInvitation {
	return publicInvitation{
		ID:        inv.ID,
		Email:     inv.Email,
		FirstName: inv.FirstName,
		LastName:  inv.LastName,
		ProcessID: inv.ProcessID,
		Status:    inv.Status,
		ExpiresAt: inv.ExpiresAt,
	}
}

func (h *Handler) FindByTokenHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	inv, err := h.svc.FindByToken(ctx, r.PathValue("token"))
	if err != nil {
		handlers.WriteServiceError(w, err)
		return
	}
	handlers.WriteSuccess(w, http.StatusOK, "invitation found", toPublic(inv))
}

type acceptResponse struct {
	Outcome     invsvc.OutcomeKind    `json:"outcome"`
	ProcessID   string                `json:"process_id"`
	Invitation  publicInvitation      `json:"invitation"`
	Application *models.WorkerProcess `json:"application,omitempty"`
}

var acceptMessages = map[invsvc.OutcomeKind]string{
	invsvc.OutcomeNeedsRegistration:  "sign up or log in to accept this invitation",
	invsvc.OutcomeNeedsWorkerProfile: "complete your candidate profile to accept this invitation",
	invsvc.OutcomeApplied:            "invite accepted successfully",
}

// AcceptInvitationHandler runs behind OptionalJWT: anonymous callers are told
// to register instead of being rejected.
func (h *Handler) AcceptInvitationHandler(w http.ResponseWriter, r *http.Request) {
	var caller *invsvc.Caller
	if id, ok := utils.UserID(r.Context()); ok {
		caller = &invsvc.Caller{UserID: id}
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	out, err := h.svc.Accept(ctx, r.PathValue("token"), caller)
	if err != nil {
		handlers.WriteServiceError(w, err)
		return
	}

	resp := acceptResponse{Outcome: out.Kind()}
	status := http.StatusOK
	switch o := out.(type) {
	case invsvc.NeedsRegistration:
		resp.Invitation = toPublic(o.Invitation)
		resp.ProcessID = o.Invitation.ProcessID
	case invsvc.NeedsWorkerProfile:
		resp.Invitation = toPublic(o.Invitation)
		resp.ProcessID = o.ProcessID
	case invsvc.Applied:
		resp.Invitation = toPublic(o.Invitation)
		resp.ProcessID = o.ProcessID
		resp.Application = o.Application
		status = http.StatusCreated
	default:
		handlers.WriteServiceError(w, fmt.Errorf("unexpected accept outcome %T", out))
		return
	}
	handlers.WriteSuccess(w, status, acceptMessages[out.Kind()], resp)
}
