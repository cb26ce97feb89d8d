package auth

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eventhub/eventhub-api/internal/domain/reward"
	"github.com/eventhub/eventhub-api/internal/domain/user"
	"github.com/eventhub/eventhub-api/internal/pkg/database"
)

// ReferralReward describes the rewards issued when a user signs up with
// someone's referral code.
type ReferralReward struct {
	ReferrerID     int64
	ReferrerPoints int
	CouponCode     string
	CouponRate     int
	ExpiresAt      time.Time
}

// RegistrationStore creates a user and any referral rewards as one unit.
type RegistrationStore interface {
	CreateUser(ctx context.Context, u *user.User, referral *ReferralReward) error
}

type registrationStore struct {
	db *sqlx.DB
}

// NewRegistrationStore creates the Postgres registration store
func NewRegistrationStore(db *sqlx.DB) RegistrationStore {
	return &registrationStore{db: db}
}

func (s *registrationStore) CreateUser(ctx context.Context, u *user.User, referral *ReferralReward) error {
	return database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := user.CreateTx(ctx, tx, u); err != nil {
			return err
		}
		if referral == nil {
			return nil
		}

		if _, err := reward.GrantPoints(ctx, tx, referral.ReferrerID, referral.ReferrerPoints, referral.ExpiresAt); err != nil {
			return err
		}
		return reward.CreateCoupon(ctx, tx, &reward.Coupon{
			UserID:       u.ID,
			CouponCode:   referral.CouponCode,
			DiscountRate: referral.CouponRate,
			ExpiredAt:    referral.ExpiresAt,
		})
	})
}
