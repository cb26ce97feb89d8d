package review

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// EventCache drops the cached event page that lists reviews.
type EventCache interface {
	Invalidate(ctx context.Context, slug string)
}

// Service handles review business logic
type Service struct {
	repo   Repository
	events EventCache
	now    func() time.Time
}

// NewService creates review service. events may be nil.
func NewService(repo Repository, events EventCache) *Service {
	return &Service{repo: repo, events: events, now: time.Now}
}

// Create reviews a paid transaction of userID once its event has ended.
func (s *Service) Create(ctx context.Context, transactionID, userID int64, req *CreateRequest) (*Review, error) {
	el, err := s.repo.Eligibility(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if el == nil || el.UserID != userID {
		return nil, ErrTransactionNotFound
	}
	if el.Status != "PAID" {
		return nil, ErrNotPaid
	}
	if el.EventEndDate.After(s.now()) {
		return nil, ErrEventNotEnded
	}
	if el.Reviewed {
		return nil, ErrAlreadyReviewed
	}

	review := &Review{
		TransactionID: transactionID,
		UserID:        userID,
		EventID:       el.EventID,
		Rating:        req.Rating,
		Comment:       strings.TrimSpace(req.Comment),
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.Invalidate(ctx, el.EventSlug)
	}
	log.Info().Int64("review_id", review.ID).Int64("event_id", review.EventID).Int("rating", review.Rating).Msg("Review created")
	return review, nil
}
