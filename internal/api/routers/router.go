package routers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"recruitgate/internal/api/handlers"
	"recruitgate/internal/api/handlers/invitations"
	"recruitgate/internal/api/handlers/videos"
	mw "recruitgate/internal/api/middlewares"
	"recruitgate/pkg/utils"
)

type Deps struct {
	Auth        *mw.Authenticator
	Invitations *invitations.Handler
	Videos      *videos.Handler
	DB          handlers.Pinger
}

func MainRouter(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	iRouter := invitationsRouter(d.Auth, d.Invitations)
	mux.Handle("/invitations", iRouter)
	mux.Handle("/invitations/", iRouter)

	vRouter := videosRouter(d.Auth, d.Videos)
	mux.Handle("/videos", vRouter)
	mux.Handle("/videos/", vRouter)

	mux.HandleFunc("GET /health", handlers.HealthHandler(d.DB))
	mux.Handle("GET /metrics", promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}))

	return mux
}

func operator(auth *mw.Authenticator, h http.HandlerFunc) http.Handler {
	return auth.JWTMiddleware(mw.RequireRole(utils.OperatorRoles...)(h))
}
