package event

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eventhub/eventhub-api/internal/middleware"
)

// Routes returns the /events router. extra mounts organizer routes owned
// by other packages (vouchers) under the authenticated group.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler, extra func(r chi.Router)) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireOrganizer())

		r.Get("/organizer", h.ListMine)
		r.Get("/statistics", h.Statistics)
		r.Post("/", h.Create)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		if extra != nil {
			extra(r)
		}
	})

	r.Get("/{slug}", h.GetBySlug)

	return r
}
