package transaction

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eventhub/eventhub-api/internal/middleware"
	"github.com/eventhub/eventhub-api/internal/pkg/errorhandler"
	"github.com/eventhub/eventhub-api/internal/pkg/response"
	"github.com/eventhub/eventhub-api/internal/pkg/storage"
	"github.com/eventhub/eventhub-api/internal/pkg/validator"
)

// Handler handles transaction HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates transaction handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func transactionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid transaction ID")
		return 0, false
	}
	return id, true
}

func toListResponses(items []*ListItem) []*ListItemResponse {
	out := make([]*ListItemResponse, len(items))
	for i, item := range items {
		out[i] = item.ToResponse()
	}
	return out
}

// Create handles POST /transactions
// @Summary Buy tickets
// @Tags Transaction
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRequest true "Purchase"
// @Router /transactions [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if err := validator.Struct(&req); err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}
	response.Created(w, "Create transaction success", result)
}

// List handles GET /transactions for organizers
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListForOrganizer(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}
	response.OK(w, toListResponses(items))
}

// ListMine handles GET /transactions/me
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListMine(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}
	response.OK(w, toListResponses(items))
}

// UploadPaymentProof handles PATCH /transactions/{id}/payment-proof (multipart field "image")
func (h *Handler) UploadPaymentProof(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxImageSize+1<<20)
	if err := r.ParseMultipartForm(storage.MaxImageSize); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		errorhandler.HandleError(w, r, ErrPaymentProofMissing)
		return
	}
	defer file.Close()

	t, err := h.service.UploadPaymentProof(r.Context(), id, middleware.GetUserID(r.Context()), file)
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}
	response.Message(w, "Upload payment proof success", t.ToResponse())
}

// Accept handles PATCH /transactions/{id}/accept
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}

	t, err := h.service.Accept(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}
	response.Message(w, "Accept transaction success", t.ToResponse())
}

// Reject handles PATCH /transactions/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}

	if _, err := h.service.Reject(r.Context(), id, middleware.GetUserID(r.Context())); err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}
	response.Message(w, "Reject transaction success", nil)
}
