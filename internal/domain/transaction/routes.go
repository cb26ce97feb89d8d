package transaction

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eventhub/eventhub-api/internal/middleware"
)

// Routes returns the /transactions router. extra mounts customer routes
// owned by other packages (reviews).
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler, extra func(r chi.Router)) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireCustomer())
		r.Post("/", h.Create)
		r.Get("/me", h.ListMine)
		r.Patch("/{id}/payment-proof", h.UploadPaymentProof)
		if extra != nil {
			extra(r)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireOrganizer())
		r.Get("/", h.List)
		r.Patch("/{id}/accept", h.Accept)
		r.Patch("/{id}/reject", h.Reject)
	})

	return r
}
