package invitations

import (
	"context"

	"github.com/sirupsen/logrus"

	"recruitgate/internal/models"
	"recruitgate/internal/services"
	"recruitgate/pkg/utils"
)

// sendInvitation emails the accept link after the invitation is committed.
// Failures are logged and counted, never returned: sent_at simply stays
// empty so operators can see the invitation was not delivered.
func (s *Service) sendInvitation(ctx context.Context, process *models.SelectionProcess, inv *models.Invitation) {
	subject, text, html := utils.RenderInvitationEmail(utils.InvitationEmail{
		FirstName:    inv.FirstName,
		ProcessTitle: process.Title,
		Description:  process.Description,
		AcceptURL:    s.acceptURL(inv.Token),
		ExpiresAt:    inv.ExpiresAt,
	})

	if !s.deliver(ctx, "invitation", inv.Email, subject, text, html) {
		return
	}

	sentAt := s.clock()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.emailTimeout)
	defer cancel()
	if err := s.store.MarkInvitationSent(ctx, inv.ID, inv.TokenHash, sentAt); err != nil {
		s.log.WithError(err).WithField("invitation_id", inv.ID).Warn("failed to record invitation delivery")
		return
	}
	inv.SentAt = &sentAt
}

func (s *Service) sendWelcome(ctx context.Context, identity *models.Identity, inv *models.Invitation) {
	title := inv.ProcessID
	if process, err := s.store.GetProcess(ctx, inv.ProcessID); err == nil {
		title = process.Title
	}

	firstName := identity.FirstName
	if firstName == "" {
		firstName = inv.FirstName
	}
	subject, text, html := utils.RenderWelcomeEmail(firstName, title)
	s.deliver(ctx, "welcome", identity.Email, subject, text, html)
}

// deliver runs one bounded, isolated send and reports whether it succeeded.
func (s *Service) deliver(ctx context.Context, kind, to, subject, text, html string) (ok bool) {
	if s.notifier == nil {
		return false
	}

	log := s.log.WithFields(logrus.Fields{"kind": kind, "to": to})
	defer func() {
		if r := recover(); r != nil {
			services.NotificationFailures.WithLabelValues(kind).Inc()
			log.Errorf("notifier panicked: %v", r)
			ok = false
		}
	}()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.emailTimeout)
	defer cancel()

	if err := s.notifier.Send(ctx, to, subject, text, html); err != nil {
		services.NotificationFailures.WithLabelValues(kind).Inc()
		log.WithError(err).Error("failed to send email")
		return false
	}
	log.Debug("email sent")
	return true
}
