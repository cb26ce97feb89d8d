package user

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eventhub/eventhub-api/internal/middleware"
	"github.com/eventhub/eventhub-api/internal/pkg/apperror"
	"github.com/eventhub/eventhub-api/internal/pkg/errorhandler"
	"github.com/eventhub/eventhub-api/internal/pkg/pagination"
	"github.com/eventhub/eventhub-api/internal/pkg/response"
	"github.com/eventhub/eventhub-api/internal/pkg/storage"
	"github.com/eventhub/eventhub-api/internal/pkg/validator"
)

// Handler handles user HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates user handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func toResponses(users []*User) []*Response {
	items := make([]*Response, len(users))
	for i, u := range users {
		items[i] = u.ToResponse()
	}
	return items
}

// List handles GET /users
// @Summary List users
// @Tags User
// @Security BearerAuth
// @Router /users [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := pagination.Parse(r, 3, "createdAt")

	users, total, err := h.service.List(r.Context(), ListFilter{
		Search: p.Search,
		Limit:  p.Take,
		Offset: p.Offset(),
	})
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}

	response.WithMeta(w, toResponses(users), p.Meta(total))
}

// GetProfile handles GET /users/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}
	response.OK(w, u.ToResponse())
}

// UpdateProfile handles PATCH /users/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if err := validator.Struct(&req); err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}
	response.Message(w, "Update profile success", u.ToResponse())
}

// ChangePassword handles PATCH /users/change-password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if err := validator.Struct(&req); err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), middleware.GetUserID(r.Context()), &req); err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}
	response.Message(w, "Change password success", nil)
}

// UploadPhoto handles POST /users/photo-profile (multipart field "photoProfile")
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxImageSize+1<<20)
	if err := r.ParseMultipartForm(storage.MaxImageSize); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}
	file, _, err := r.FormFile("photoProfile")
	if err != nil {
		errorhandler.HandleError(w, r, apperror.Validation("photoProfile is required"))
		return
	}
	defer file.Close()

	u, err := h.service.UpdateProfilePicture(r.Context(), middleware.GetUserID(r.Context()), file)
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}
	response.Message(w, "Upload photo profile success", u.ToResponse())
}

// GetByID handles GET /users/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	u, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}
	response.OK(w, u.ToResponse())
}

// Delete handles DELETE /users/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	ctx := r.Context()
	if err := h.service.Delete(ctx, middleware.GetUserID(ctx), Role(middleware.GetRole(ctx)), id); err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}
	response.Message(w, "Delete user success", nil)
}
