package reward

import (
	"net/http"

	"github.com/eventhub/eventhub-api/internal/middleware"
	"github.com/eventhub/eventhub-api/internal/pkg/errorhandler"
	"github.com/eventhub/eventhub-api/internal/pkg/response"
)

// Handler handles reward HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates reward handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetMine handles GET /users/rewards
func (h *Handler) GetMine(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}
	response.OK(w, summary)
}
