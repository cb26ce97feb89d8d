package event

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eventhub/eventhub-api/internal/pkg/database"
	"github.com/eventhub/eventhub-api/internal/pkg/slug"
	"github.com/eventhub/eventhub-api/internal/pkg/storage"
)

const slugAttempts = 5

// Uploader stores images and returns their URL.
type Uploader interface {
	Upload(ctx context.Context, reader io.Reader, folder string) (string, error)
	RemoveByURL(ctx context.Context, url string) error
}

// Service handles event business logic
type Service struct {
	repo     Repository
	cache    Cache
	uploader Uploader
	now      func() time.Time
}

// NewService creates event service
func NewService(repo Repository, cache Cache, uploader Uploader) *Service {
	if cache == nil {
		cache = nopCache{}
	}
	return &Service{repo: repo, cache: cache, uploader: uploader, now: time.Now}
}

// List returns public events
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*ListItem, int, error) {
	return s.repo.List(ctx, filter)
}

// GetBySlug returns the event page, served from cache when possible.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*DetailResponse, error) {
	if cached, ok := s.cache.Get(ctx, slug); ok {
		return cached, nil
	}

	detail, err := s.repo.GetDetailBySlug(ctx, slug, s.now())
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, ErrEventNotFound
	}

	resp := detail.ToResponse()
	s.cache.Set(ctx, slug, resp)
	return resp, nil
}

// GetOwned returns event id if organizerID owns it.
func (s *Service) GetOwned(ctx context.Context, organizerID, id int64) (*Event, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrEventNotFound
	}
	if !e.IsOwnedBy(organizerID) {
		return nil, ErrNotEventOwner
	}
	return e, nil
}

// Invalidate drops the cached page of slug.
func (s *Service) Invalidate(ctx context.Context, slug string) {
	s.cache.Invalidate(ctx, slug)
}

// Create creates an event with an optional thumbnail image.
func (s *Service) Create(ctx context.Context, organizerID int64, req *CreateRequest, thumbnail io.Reader) (*Event, error) {
	if req.Price.IsNegative() {
		return nil, ErrNegativePrice
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, ErrInvalidDateRange
	}

	e := &Event{
		OrganizerID: organizerID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		Location:    strings.TrimSpace(req.Location),
		Price:       req.Price,
		TotalSeats:  req.TotalSeats,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}

	if thumbnail != nil {
		url, err := s.uploader.Upload(ctx, thumbnail, storage.FolderThumbnails)
		if err != nil {
			return nil, err
		}
		e.Thumbnail = sql.NullString{String: url, Valid: true}
	}

	if err := s.insertWithSlug(ctx, e); err != nil {
		if e.Thumbnail.Valid {
			_ = s.uploader.RemoveByURL(ctx, e.Thumbnail.String)
		}
		return nil, err
	}

	log.Info().Int64("event_id", e.ID).Int64("organizer_id", organizerID).Str("slug", e.Slug).Msg("Event created")
	return e, nil
}

// insertWithSlug derives the slug from the name, adding a random suffix
// while it is taken.
func (s *Service) insertWithSlug(ctx context.Context, e *Event) error {
	base := slug.Make(e.Name)
	candidate := base
	for attempt := 1; ; attempt++ {
		exists, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return err
		}
		if !exists {
			e.Slug = candidate
			err = s.repo.Create(ctx, e)
			if err == nil || !database.IsUniqueViolation(err, "events_slug_key") || attempt >= slugAttempts {
				return err
			}
		}
		candidate = slug.WithSuffix(base)
	}
}

// Update applies a partial update. Changing totalSeats shifts the
// available seats by the same amount.
func (s *Service) Update(ctx context.Context, organizerID, id int64, req *UpdateRequest) (*Event, error) {
	e, err := s.GetOwned(ctx, organizerID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		e.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Category != nil {
		e.Category = strings.TrimSpace(*req.Category)
	}
	if req.Location != nil {
		e.Location = strings.TrimSpace(*req.Location)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, ErrNegativePrice
		}
		e.Price = *req.Price
	}
	if req.StartDate != nil {
		e.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		e.EndDate = *req.EndDate
	}
	if e.EndDate.Before(e.StartDate) {
		return nil, ErrInvalidDateRange
	}

	seatDelta := 0
	if req.TotalSeats != nil {
		seatDelta = *req.TotalSeats - e.TotalSeats
		if e.AvailableSeats+seatDelta < 0 {
			return nil, ErrSeatsBelowSold
		}
	}

	if err := s.repo.Update(ctx, e, seatDelta); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, e.Slug)
	return e, nil
}

// Delete soft deletes an owned event
func (s *Service) Delete(ctx context.Context, organizerID, id int64) error {
	e, err := s.GetOwned(ctx, organizerID, id)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, e.ID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, e.Slug)
	log.Info().Int64("event_id", e.ID).Msg("Event deleted")
	return nil
}

// Statistics returns paid revenue of the organizer's events per period.
func (s *Service) Statistics(ctx context.Context, organizerID int64, period Period) (*StatisticsResponse, error) {
	buckets, err := s.repo.Statistics(ctx, organizerID, period)
	if err != nil {
		return nil, err
	}
	return NewStatisticsResponse(period, buckets), nil
}
