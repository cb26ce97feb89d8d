package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eventhub/eventhub-api/internal/middleware"
)

// Routes returns the /users router. extra mounts handlers owned by other
// packages (the rewards summary) before the /{id} catch-all.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler, extra func(r chi.Router)) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.With(middleware.RequireAdmin()).Get("/", h.List)
	r.Get("/profile", h.GetProfile)
	r.Patch("/profile", h.UpdateProfile)
	r.Patch("/change-password", h.ChangePassword)
	r.Post("/photo-profile", h.UploadPhoto)
	if extra != nil {
		extra(r)
	}
	r.Get("/{id}", h.GetByID)
	r.Delete("/{id}", h.Delete)

	return r
}
