package reward

import (
	"context"
	"time"
)

// Service exposes a user's reward ledger.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates reward service
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Summary returns the usable balance, the grants behind it and the
// coupons that can still be applied.
func (s *Service) Summary(ctx context.Context, userID int64) (*Summary, error) {
	now := s.now()

	points, err := s.repo.ListActivePoints(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	coupons, err := s.repo.ListUsableCoupons(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	if points == nil {
		points = []*Point{}
	}
	if coupons == nil {
		coupons = []*Coupon{}
	}
	return &Summary{
		PointBalance: Balance(points, now),
		Points:       points,
		Coupons:      coupons,
	}, nil
}
