package invitations

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"recruitgate/internal/models"
	"recruitgate/internal/repositories"
	"recruitgate/internal/services"
	"recruitgate/pkg/utils"
)

const (
	DefaultTokenTTL     = 7 * 24 * time.Hour
	defaultEmailTimeout = 10 * time.Second
	defaultSweepBatch   = 500
)

type Options struct {
	TokenTTL       time.Duration
	AcceptBaseURL  string
	EmailTimeout   time.Duration
	SweepBatchSize int
	Logger         logrus.FieldLogger
	Now            func() time.Time
	NewToken       func() (string, error)
}

type Service struct {
	store      Store
	identities IdentityProvider
	notifier   Notifier

	tokenTTL      time.Duration
	acceptBaseURL string
	emailTimeout  time.Duration
	sweepBatch    int
	log           logrus.FieldLogger
	now           func() time.Time
	newToken      func() (string, error)
}

func NewService(store Store, identities IdentityProvider, notifier Notifier, opts Options) *Service {
	s := &Service{
		store:         store,
		identities:    identities,
		notifier:      notifier,
		tokenTTL:      opts.TokenTTL,
		acceptBaseURL: strings.TrimRight(opts.AcceptBaseURL, "/"),
		emailTimeout:  opts.EmailTimeout,
		sweepBatch:    opts.SweepBatchSize,
		log:           opts.Logger,
		now:           opts.Now,
		newToken:      opts.NewToken,
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = DefaultTokenTTL
	}
	if s.emailTimeout <= 0 {
		s.emailTimeout = defaultEmailTimeout
	}
	if s.sweepBatch <= 0 {
		s.sweepBatch = defaultSweepBatch
	}
	if s.log == nil {
		s.log = utils.Logger
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newToken == nil {
		s.newToken = GenerateToken
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

type CreateInput struct {
	ProcessID   string `json:"process_id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	CreatedByID string `json:"-"`
}

type Invitee struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type BulkFailure struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

type BulkResult struct {
	Successful []*models.Invitation `json:"successful"`
	Failed     []BulkFailure        `json:"failed"`
}

// Create issues a PENDING invitation and tries to email it. The returned
// invitation carries the plaintext token; it is not recoverable later.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Invitation, error) {
	process, err := s.openProcess(ctx, in.ProcessID)
	if err != nil {
		return nil, err
	}
	return s.createOne(ctx, process, in)
}

// BulkCreate runs every invitee through Create independently. Per-invitee
// failures are reported in the result and never stop the batch.
func (s *Service) BulkCreate(ctx context.Context, processID, createdByID string, invitees []Invitee) (*BulkResult, error) {
	process, err := s.openProcess(ctx, processID)
	if err != nil {
		return nil, err
	}

	result := &BulkResult{
		Successful: []*models.Invitation{},
		Failed:     []BulkFailure{},
	}
	for _, invitee := range invitees {
		if ctx.Err() != nil {
			result.Failed = append(result.Failed, BulkFailure{Email: invitee.Email, Reason: "request cancelled"})
			continue
		}

		inv, err := s.createOne(ctx, process, CreateInput{
			ProcessID:   processID,
			Email:       invitee.Email,
			FirstName:   invitee.FirstName,
			LastName:    invitee.LastName,
			CreatedByID: createdByID,
		})
		if err != nil {
			result.Failed = append(result.Failed, BulkFailure{Email: invitee.Email, Reason: bulkReason(err)})
			continue
		}
		result.Successful = append(result.Successful, inv)
	}

	s.log.WithFields(logrus.Fields{
		"process_id": processID,
		"successful": len(result.Successful),
		"failed":     len(result.Failed),
	}).Info("bulk invitation finished")
	return result, nil
}

func bulkReason(err error) string {
	switch {
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrInvalidInput):
		return err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "request cancelled"
	}
	return "internal error"
}

func (s *Service) openProcess(ctx context.Context, processID string) (*models.SelectionProcess, error) {
	if strings.TrimSpace(processID) == "" {
		return nil, fmt.Errorf("%w: process_id is required", services.ErrInvalidInput)
	}
	process, err := s.store.GetProcess(ctx, processID)
	if err != nil {
		if errors.Is(err, repositories.ErrNoRows) {
			return nil, services.ErrProcessNotFound
		}
		return nil, utils.ErrorHandler(err, "failed to load selection process")
	}
	if !process.IsActive {
		return nil, services.ErrProcessClosed
	}
	return process, nil
}

func (s *Service) createOne(ctx context.Context, process *models.SelectionProcess, in CreateInput) (*models.Invitation, error) {
	email := strings.TrimSpace(in.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: invalid email %q", services.ErrInvalidInput, in.Email)
	}
	normalized := services.NormalizeEmail(email)
	now := s.clock()

	// an overdue PENDING row still holds the pending unique key until expired
	n, err := s.store.ExpireStalePending(ctx, process.ID, normalized, now)
	if err != nil {
		return nil, utils.ErrorHandler(err, "failed to expire stale invitation")
	}
	if n > 0 {
		services.InvitationsExpired.WithLabelValues("list").Add(float64(n))
	}

	token, err := s.newToken()
	if err != nil {
		return nil, utils.ErrorHandler(err, "failed to generate invitation token")
	}

	inv := &models.Invitation{
		ID:              uuid.NewString(),
		Token:           token,
		TokenHash:       HashToken(token),
		Email:           email,
		EmailNormalized: normalized,
		FirstName:       strings.TrimSpace(in.FirstName),
		LastName:        strings.TrimSpace(in.LastName),
		ProcessID:       process.ID,
		Status:          models.InvitationPending,
		ExpiresAt:       now.Add(s.tokenTTL),
		CreatedByID:     in.CreatedByID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.InsertInvitation(ctx, inv); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicatePending):
			return nil, services.ErrDuplicatePending
		case errors.Is(err, repositories.ErrDuplicateToken):
			return nil, utils.ErrorHandler(err, "invitation token collision")
		}
		return nil, utils.ErrorHandler(err, "failed to save invitation")
	}

	services.InvitationsCreated.Inc()
	s.log.WithFields(logrus.Fields{
		"invitation_id": inv.ID,
		"process_id":    inv.ProcessID,
	}).Info("invitation created")

	s.sendInvitation(ctx, process, inv)
	return inv, nil
}

// FindByToken is the side-effect free status read for a token holder, apart
// from persisting a due expiry.
func (s *Service) FindByToken(ctx context.Context, token string) (*models.Invitation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, services.ErrInvitationNotFound
	}
	inv, err := s.store.GetInvitationByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, repositories.ErrNoRows) {
			return nil, services.ErrInvitationNotFound
		}
		return nil, utils.ErrorHandler(err, "failed to load invitation")
	}
	return s.refresh(ctx, inv)
}

func (s *Service) Get(ctx context.Context, id string) (*models.Invitation, error) {
	inv, err := s.store.GetInvitationByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNoRows) {
			return nil, services.ErrInvitationNotFound
		}
		return nil, utils.ErrorHandler(err, "failed to load invitation")
	}
	return s.refresh(ctx, inv)
}

// List returns invitations matching filter with expiry applied to each row.
// Overdue rows in the filter's scope are expired before the page is read,
// so a PENDING page is full whenever enough PENDING rows exist.
func (s *Service) List(ctx context.Context, filter models.InvitationFilter) ([]models.Invitation, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", services.ErrInvalidInput, filter.Status)
	}

	if expiryAffects(filter.Status) {
		n, err := s.store.ExpireOverdueMatching(ctx, filter, s.clock())
		if err != nil {
			return nil, utils.ErrorHandlerWithFields(err, "failed to expire invitations before listing", logrus.Fields{
				"process_id": filter.ProcessID,
			})
		}
		if n > 0 {
			services.InvitationsExpired.WithLabelValues("list").Add(float64(n))
		}
	}

	rows, err := s.store.ListInvitations(ctx, filter)
	if err != nil {
		return nil, utils.ErrorHandler(err, "failed to list invitations")
	}

	invites := make([]models.Invitation, 0, len(rows))
	for i := range rows {
		inv, err := s.refresh(ctx, &rows[i])
		if err != nil {
			return nil, err
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		invites = append(invites, *inv)
	}
	return invites, nil
}

// expiryAffects reports whether expiring rows can change which rows a
// listing with status returns.
func expiryAffects(status models.InvitationStatus) bool {
	return status == "" || status == models.InvitationPending || status == models.InvitationExpired
}

// refresh persists a due PENDING -> EXPIRED transition before the invitation
// is used. When the conditional write loses to another writer the row is
// read again so the caller sees whatever won.
func (s *Service) refresh(ctx context.Context, inv *models.Invitation) (*models.Invitation, error) {
	now := s.clock()
	if Evaluate(inv, now) != models.InvitationExpired || inv.Status != models.InvitationPending {
		return inv, nil
	}

	ok, err := s.store.ExpireInvitation(ctx, inv.ID, now)
	if err != nil {
		return nil, utils.ErrorHandler(err, "failed to expire invitation")
	}
	if ok {
		services.InvitationsExpired.WithLabelValues("lazy").Inc()
		inv.Status = models.InvitationExpired
		inv.UpdatedAt = now
		return inv, nil
	}

	current, err := s.store.GetInvitationByID(ctx, inv.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNoRows) {
			return nil, services.ErrInvitationNotFound
		}
		return nil, utils.ErrorHandler(err, "failed to reload invitation")
	}
	return current, nil
}

// Cancel moves a PENDING invitation to CANCELLED.
func (s *Service) Cancel(ctx context.Context, id string) (*models.Invitation, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckCancellable(inv.Status); err != nil {
		return nil, err
	}

	now := s.clock()
	ok, err := s.store.CancelInvitation(ctx, inv.ID, now)
	if err != nil {
		return nil, utils.ErrorHandler(err, "failed to cancel invitation")
	}
	if !ok {
		return nil, s.lostTransition(ctx, inv.ID)
	}

	inv.Status = models.InvitationCancelled
	inv.UpdatedAt = now
	s.log.WithField("invitation_id", inv.ID).Info("invitation cancelled")
	return inv, nil
}

// lostTransition explains why a conditional write from PENDING matched no
// row: somebody else moved the invitation, or it expired in between.
func (s *Service) lostTransition(ctx context.Context, id string) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := stateError(current.Status); err != nil {
		return err
	}
	return services.ErrExpired
}

// Resend installs a fresh token and expiry and forces the invitation back to
// PENDING. The previous token stops working immediately.
func (s *Service) Resend(ctx context.Context, id string) (*models.Invitation, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckResendable(inv.Status); err != nil {
		return nil, err
	}

	process, err := s.store.GetProcess(ctx, inv.ProcessID)
	if err != nil {
		if errors.Is(err, repositories.ErrNoRows) {
			return nil, services.ErrProcessNotFound
		}
		return nil, utils.ErrorHandler(err, "failed to load selection process")
	}

	token, err := s.newToken()
	if err != nil {
		return nil, utils.ErrorHandler(err, "failed to generate invitation token")
	}
	tokenHash := HashToken(token)
	now := s.clock()
	expiresAt := now.Add(s.tokenTTL)

	ok, err := s.store.ReissueInvitation(ctx, inv.ID, tokenHash, expiresAt, now)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicatePending):
			return nil, services.ErrDuplicatePending
		case errors.Is(err, repositories.ErrDuplicateToken):
			return nil, utils.ErrorHandler(err, "invitation token collision")
		}
		return nil, utils.ErrorHandler(err, "failed to reissue invitation")
	}
	if !ok {
		return nil, services.ErrAlreadyAccepted
	}

	inv.Token = token
	inv.TokenHash = tokenHash
	inv.ExpiresAt = expiresAt
	inv.Status = models.InvitationPending
	inv.SentAt = nil
	inv.UpdatedAt = now

	s.log.WithField("invitation_id", inv.ID).Info("invitation reissued")
	s.sendInvitation(ctx, process, inv)
	return inv, nil
}

// Sweep expires every overdue PENDING invitation in batches and returns how
// many it changed. A cancelled context stops it between batches; rerunning
// picks up where it stopped.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	now := s.clock()
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := s.store.ExpireOverdue(ctx, now, s.sweepBatch)
		if err != nil {
			return total, utils.ErrorHandler(err, "failed to sweep expired invitations")
		}
		total += n
		if n < int64(s.sweepBatch) {
			break
		}
	}

	if total > 0 {
		services.InvitationsExpired.WithLabelValues("sweep").Add(float64(total))
		s.log.Infof("Updated %d expired invitations to status 'EXPIRED'", total)
	}
	return total, nil
}

func (s *Service) acceptURL(token string) string {
	return s.acceptBaseURL + "/" + token
}
