package routers

import (
	"net/http"

	"recruitgate/internal/api/handlers/videos"
	mw "recruitgate/internal/api/middlewares"
)

func videosRouter(auth *mw.Authenticator, h *videos.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("POST /videos", auth.JWTMiddleware(http.HandlerFunc(h.UploadVideoHandler)))

	mux.Handle("GET /videos/access", auth.JWTMiddleware(http.HandlerFunc(h.CanAccessTestsHandler)))

	mux.Handle("GET /videos/{id}", auth.JWTMiddleware(http.HandlerFunc(h.GetVideoHandler)))

	mux.Handle("GET /videos/{id}/stream", auth.JWTMiddleware(http.HandlerFunc(h.StreamVideoHandler)))

	mux.Handle("PATCH /videos/{id}/review", operator(auth, h.ReviewVideoHandler))

	return mux
}
