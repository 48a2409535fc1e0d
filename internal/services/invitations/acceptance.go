package invitations

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"recruitgate/internal/models"
	"recruitgate/internal/repositories"
	"recruitgate/internal/services"
	"recruitgate/pkg/utils"
)

// Caller is an authenticated principal as seen by the transport layer.
type Caller struct {
	UserID string
}

// Accept redeems token. A nil caller is an anonymous visitor.
//
// Anonymous callers and callers without a candidate profile get an outcome
// telling them what to do next and nothing is written, so the same token can
// be presented again afterwards. Otherwise the application is created and
// the invitation accepted in one transaction.
func (s *Service) Accept(ctx context.Context, token string, caller *Caller) (Outcome, error) {
	inv, err := s.FindByToken(ctx, token)
	if err != nil {
		return nil, s.rejected(err)
	}
	if err := CheckAcceptable(inv.Status); err != nil {
		return nil, s.rejected(err)
	}
	inv.Token = ""

	if caller == nil || strings.TrimSpace(caller.UserID) == "" {
		services.Acceptances.WithLabelValues(string(OutcomeNeedsRegistration)).Inc()
		return NeedsRegistration{Invitation: inv}, nil
	}

	identity, err := s.identities.ResolveIdentity(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNoRows) {
			return nil, s.rejected(services.ErrIdentityNotFound)
		}
		return nil, utils.ErrorHandler(err, "failed to resolve caller identity")
	}
	if identity.WorkerID == nil || *identity.WorkerID == "" {
		services.Acceptances.WithLabelValues(string(OutcomeNeedsWorkerProfile)).Inc()
		return NeedsWorkerProfile{Invitation: inv, ProcessID: inv.ProcessID}, nil
	}
	workerID := *identity.WorkerID

	if services.NormalizeEmail(identity.Email) != inv.EmailNormalized {
		s.log.WithFields(logrus.Fields{
			"invitation_id": inv.ID,
			"user_id":       identity.ID,
		}).Warn("invitation redeemed by a different email")
		return nil, s.rejected(services.ErrEmailMismatch)
	}

	_, err = s.store.FindApplication(ctx, workerID, inv.ProcessID)
	switch {
	case err == nil:
		return nil, s.rejected(s.existingApplication(ctx, inv.ID))
	case !errors.Is(err, repositories.ErrNoRows):
		return nil, utils.ErrorHandler(err, "failed to check existing application")
	}

	now := s.clock()
	invitationID := inv.ID
	app := &models.WorkerProcess{
		ID:           uuid.NewString(),
		WorkerID:     workerID,
		ProcessID:    inv.ProcessID,
		InvitationID: &invitationID,
		Status:       models.WorkerProcessApplied,
		CreatedAt:    now,
	}

	if err := s.store.AcceptInvitation(ctx, inv.ID, app, now); err != nil {
		switch {
		case errors.Is(err, repositories.ErrStateChanged):
			return nil, s.rejected(s.lostTransition(ctx, inv.ID))
		case errors.Is(err, repositories.ErrDuplicateApplication):
			return nil, s.rejected(s.existingApplication(ctx, inv.ID))
		}
		return nil, utils.ErrorHandler(err, "failed to accept invitation")
	}

	inv.Status = models.InvitationAccepted
	inv.AcceptedAt = &now
	inv.UpdatedAt = now

	services.Acceptances.WithLabelValues(string(OutcomeApplied)).Inc()
	s.log.WithFields(logrus.Fields{
		"invitation_id":  inv.ID,
		"application_id": app.ID,
		"process_id":     inv.ProcessID,
	}).Info("invitation accepted")

	s.sendWelcome(ctx, identity, inv)

	return Applied{Invitation: inv, Application: app, ProcessID: inv.ProcessID}, nil
}

// existingApplication tells a caller who raced another acceptance of this
// same invitation apart from one who applied some other way.
func (s *Service) existingApplication(ctx context.Context, invitationID string) error {
	current, err := s.store.GetInvitationByID(ctx, invitationID)
	if err == nil && current.Status == models.InvitationAccepted {
		return services.ErrAlreadyAccepted
	}
	return services.ErrAlreadyApplied
}

func (s *Service) rejected(err error) error {
	services.Acceptances.WithLabelValues("rejected").Inc()
	return err
}
