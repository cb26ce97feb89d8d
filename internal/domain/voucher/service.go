package voucher

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/eventhub/eventhub-api/internal/domain/event"
)

// Events is the part of the event service vouchers depend on.
type Events interface {
	GetOwned(ctx context.Context, organizerID, id int64) (*event.Event, error)
	Invalidate(ctx context.Context, slug string)
}

// Service handles voucher business logic
type Service struct {
	repo   Repository
	events Events
}

// NewService creates voucher service
func NewService(repo Repository, events Events) *Service {
	return &Service{repo: repo, events: events}
}

// Create adds a voucher to an event owned by organizerID
func (s *Service) Create(ctx context.Context, organizerID, eventID int64, req *CreateRequest) (*Voucher, error) {
	e, err := s.events.GetOwned(ctx, organizerID, eventID)
	if err != nil {
		return nil, err
	}
	if req.EndDate.After(e.EndDate) {
		return nil, ErrEndsAfterEvent
	}

	v := &Voucher{
		EventID:            e.ID,
		VoucherCode:        strings.ToUpper(strings.TrimSpace(req.VoucherCode)),
		DiscountPercentage: req.DiscountPercentage,
		Quota:              req.Quota,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}

	s.events.Invalidate(ctx, e.Slug)
	log.Info().Int64("event_id", e.ID).Str("code", v.VoucherCode).Msg("Voucher created")
	return v, nil
}

// ListByEvent returns all vouchers of an owned event
func (s *Service) ListByEvent(ctx context.Context, organizerID, eventID int64) ([]*Voucher, error) {
	if _, err := s.events.GetOwned(ctx, organizerID, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListByEvent(ctx, eventID)
}
