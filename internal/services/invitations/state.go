package invitations

import (
	"fmt"
	"time"

	"recruitgate/internal/models"
	"recruitgate/internal/services"
)

// Evaluate returns the effective status of inv at now. A PENDING invitation
// past its expiry is EXPIRED even if storage has not caught up yet.
func Evaluate(inv *models.Invitation, now time.Time) models.InvitationStatus {
	if inv.Status == models.InvitationPending && now.After(inv.ExpiresAt) {
		return models.InvitationExpired
	}
	return inv.Status
}

// stateError is the error for leaving status through accept or cancel.
func stateError(status models.InvitationStatus) error {
	switch status {
	case models.InvitationPending:
		return nil
	case models.InvitationAccepted:
		return services.ErrAlreadyAccepted
	case models.InvitationExpired:
		return services.ErrExpired
	case models.InvitationCancelled:
		return services.ErrCancelled
	}
	return fmt.Errorf("%w: unknown invitation status %q", services.ErrInvalidState, status)
}

func CheckAcceptable(status models.InvitationStatus) error {
	return stateError(status)
}

func CheckCancellable(status models.InvitationStatus) error {
	return stateError(status)
}

// CheckResendable allows every status but ACCEPTED: resend is how an operator
// revives an expired or cancelled invitation.
func CheckResendable(status models.InvitationStatus) error {
	if status == models.InvitationAccepted {
		return services.ErrAlreadyAccepted
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown invitation status %q", services.ErrInvalidState, status)
	}
	return nil
}
