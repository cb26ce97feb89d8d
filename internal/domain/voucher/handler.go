package voucher

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

// Handler handles voucher HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates voucher handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Mount registers the voucher routes on the organizer /events group.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/{id}/vouchers", h.Create)
	r.Get("/{id}/vouchers", h.List)
}

func eventID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid event ID")
		return 0, false
	}
	return id, true
}

// Create handles POST /events/{id}/vouchers
// @Summary Create voucher
// @Tags Voucher
// @Security BearerAuth
// @Router /events/{id}/vouchers [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
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

	v, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), id, &req)
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}
	response.Created(w, "Create voucher success", v.ToResponse())
}

// List handles GET /events/{id}/vouchers
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}

	vouchers, err := h.service.ListByEvent(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}
	items := make([]*Response, len(vouchers))
	for i, v := range vouchers {
		items[i] = v.ToResponse()
	}
	response.OK(w, items)
}
