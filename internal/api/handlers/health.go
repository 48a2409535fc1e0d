package handlers

import (
	"context"
	"net/http"
	"time"

	"recruitgate/pkg/utils"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

func HealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				utils.Logger.WithError(err).Warn("health check failed")
				utils.WriteError(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		WriteSuccess(w, http.StatusOK, "ok", nil)
	}
}
