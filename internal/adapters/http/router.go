package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func NewRouter(handler *Handler, media *MediaHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, http.StatusOK, "", map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, http.StatusOK, "", map[string]string{"status": "ready"})
	})

	r.Get("/api/images/{filename}", media.getImage)
	r.Get("/api/videos/{filename}", media.getVideo)

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/publications/publish", handler.publish)
			r.Post("/publications/video", handler.publishVideo)
			r.Get("/publications/history", handler.getHistory)
			r.Get("/publications/instagram/containers/{containerID}", handler.getContainerStatus)
		})
	})

	return r
}
