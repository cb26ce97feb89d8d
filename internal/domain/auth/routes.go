package auth

import (
	"github.com/go-chi/chi/v5"
)

// Routes returns auth router
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/google", h.Google)
	r.Post("/logout", h.Logout)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Patch("/reset-password", h.ResetPassword)

	return r
}
