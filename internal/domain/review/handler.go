package review

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eventhub/eventhub-api/internal/middleware"
	"github.com/eventhub/eventhub-api/internal/pkg/errorhandler"
	"github.com/eventhub/eventhub-api/internal/pkg/response"
	"github.com/eventhub/eventhub-api/internal/pkg/validator"
)

// Handler handles review HTTP requests.
type Handler struct {
	service *Service
}

// NewHandler creates a new review handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Mount registers the review route on the customer /transactions group.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/{id}/review", h.Create)
}

// Create handles POST /transactions/{id}/review
// @Summary Review an attended event
// @Tags Review
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRequest true "Review"
// @Router /transactions/{id}/review [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid transaction ID")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if err := validator.Struct(&req); err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}

	review, err := h.service.Create(r.Context(), id, middleware.GetUserID(r.Context()), &req)
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}
	response.Created(w, "Create review success", review.ToResponse())
}
