package event

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/eventhub/eventhub-api/internal/middleware"
	"github.com/eventhub/eventhub-api/internal/pkg/apperror"
	"github.com/eventhub/eventhub-api/internal/pkg/errorhandler"
	"github.com/eventhub/eventhub-api/internal/pkg/pagination"
	"github.com/eventhub/eventhub-api/internal/pkg/response"
	"github.com/eventhub/eventhub-api/internal/pkg/storage"
	"github.com/eventhub/eventhub-api/internal/pkg/validator"
)

var sortColumns = map[string]string{
	"createdAt": "e.created_at",
	"name":      "e.name",
	"price":     "e.price",
	"startDate": "e.start_date",
	"location":  "e.location",
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// Handler handles event HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates event handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func toListResponses(items []*ListItem) []*ListItemResponse {
	out := make([]*ListItemResponse, len(items))
	for i, item := range items {
		out[i] = item.ToResponse()
	}
	return out
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, organizerID int64) {
	p := pagination.Parse(r, 10, "createdAt")
	q := r.URL.Query()

	items, total, err := h.service.List(r.Context(), ListFilter{
		Search:      p.Search,
		Category:    strings.TrimSpace(q.Get("category")),
		Location:    strings.TrimSpace(q.Get("location")),
		OrganizerID: organizerID,
		OrderBy:     p.OrderBy(sortColumns, "e.created_at"),
		Limit:       p.Take,
		Offset:      p.Offset(),
	})
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}

	response.WithMeta(w, toListResponses(items), p.Meta(total))
}

// List handles GET /events
// @Summary List events
// @Tags Event
// @Produce json
// @Param page query int false "Page"
// @Param take query int false "Page size"
// @Param sortBy query string false "createdAt, name, price, startDate, location"
// @Param sortOrder query string false "asc or desc"
// @Param search query string false "Search by name"
// @Router /events [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, 0)
}

// ListMine handles GET /events/organizer
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, middleware.GetUserID(r.Context()))
}

// GetBySlug handles GET /events/{slug}
func (h *Handler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}
	response.OK(w, detail)
}

func parseTime(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseCreateForm reads the multipart fields into a request.
func parseCreateForm(r *http.Request) (*CreateRequest, map[string]string) {
	fields := map[string]string{}
	value := func(key string) string { return strings.TrimSpace(r.FormValue(key)) }

	req := &CreateRequest{
		Name:        value("name"),
		Description: value("description"),
		Category:    value("category"),
		Location:    value("location"),
		Price:       decimal.Zero,
	}

	if raw := value("price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			fields["price"] = "Invalid number"
		} else {
			req.Price = price
		}
	}
	if raw := value("totalSeats"); raw != "" {
		seats, err := strconv.Atoi(raw)
		if err != nil {
			fields["totalSeats"] = "Invalid number"
		}
		req.TotalSeats = seats
	}
	for key, dst := range map[string]*time.Time{"startDate": &req.StartDate, "endDate": &req.EndDate} {
		if raw := value(key); raw != "" {
			t, ok := parseTime(raw)
			if !ok {
				fields[key] = "Invalid date"
			}
			*dst = t
		}
	}

	for field, msg := range validator.Validate(req) {
		if _, ok := fields[field]; !ok {
			fields[field] = msg
		}
	}
	if len(fields) == 0 {
		return req, nil
	}
	return nil, fields
}

// Create handles POST /events (multipart, optional "thumbnail" file)
// @Summary Create event
// @Tags Event
// @Accept multipart/form-data
// @Security BearerAuth
// @Router /events [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxImageSize+1<<20)
	if err := r.ParseMultipartForm(storage.MaxImageSize); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}

	req, fields := parseCreateForm(r)
	if fields != nil {
		response.ValidationError(w, fields)
		return
	}

	var thumbnail io.Reader
	if file, _, err := r.FormFile("thumbnail"); err == nil {
		defer file.Close()
		thumbnail = file
	}

	e, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req, thumbnail)
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}
	resp := e.ToResponse()
	response.Created(w, "Create event success", &resp)
}

func eventID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, apperror.Validation("Invalid event ID")
	}
	return id, nil
}

// Update handles PATCH /events/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if err := validator.Struct(&req); err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}

	e, err := h.service.Update(r.Context(), middleware.GetUserID(r.Context()), id, &req)
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}
	resp := e.ToResponse()
	response.Message(w, "Update event success", &resp)
}

// Delete handles DELETE /events/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}
	response.Message(w, "Delete event success", nil)
}

// Statistics handles GET /events/statistics?period=year|month|day
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = string(PeriodMonth)
	}
	if err := validator.ValidateVar(period, "period"); err != nil {
		errorhandler.HandleError(w, r, apperror.ValidationFields(map[string]string{
			"period": "Invalid period. Must be: year, month, or day",
		}))
		return
	}

	stats, err := h.service.Statistics(r.Context(), middleware.GetUserID(r.Context()), Period(period))
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}
	response.OK(w, stats)
}
