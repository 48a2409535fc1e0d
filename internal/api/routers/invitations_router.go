package routers

import (
	"net/http"

	"recruitgate/internal/api/handlers/invitations"
	mw "recruitgate/internal/api/middlewares"
)

func invitationsRouter(auth *mw.Authenticator, h *invitations.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("POST /invitations", operator(auth, h.CreateInvitationHandler))

	mux.Handle("POST /invitations/bulk", operator(auth, h.BulkCreateInvitationsHandler))

	mux.Handle("GET /invitations", operator(auth, h.ListInvitationsHandler))

	mux.Handle("POST /invitations/sweep", operator(auth, h.SweepInvitationsHandler))

	mux.Handle("GET /invitations/{id}", operator(auth, h.GetInvitationHandler))

	mux.Handle("PATCH /invitations/{id}/cancel", operator(auth, h.CancelInvitationHandler))

	mux.Handle("POST /invitations/{id}/resend", operator(auth, h.ResendInvitationHandler))

	mux.HandleFunc("GET /invitations/token/{token}", h.FindByTokenHandler)

	mux.Handle("POST /invitations/token/{token}/accept", auth.OptionalJWT(http.HandlerFunc(h.AcceptInvitationHandler)))

	return mux
}
