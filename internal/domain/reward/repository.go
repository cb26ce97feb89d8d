package reward

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

// The functions below take a sqlx.ExtContext so they can run on the pool
// or inside a caller's transaction.

// GrantPoints inserts a new point grant.
func GrantPoints(ctx context.Context, q sqlx.ExtContext, userID int64, amount int, expiredAt time.Time) (*Point, error) {
	p := &Point{UserID: userID, Amount: amount, RemainingAmount: amount, ExpiredAt: expiredAt}
	err := q.QueryRowxContext(ctx, `
		INSERT INTO points (user_id, amount, remaining_amount, expired_at)
		VALUES ($1, $2, $2, $3)
		RETURNING id, created_at
	`, userID, amount, expiredAt).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("grant points: %w", err)
	}
	return p, nil
}

// CreateCoupon inserts c and fills in its id.
func CreateCoupon(ctx context.Context, q sqlx.ExtContext, c *Coupon) error {
	err := q.QueryRowxContext(ctx, `
		INSERT INTO coupons (user_id, coupon_code, discount_rate, expired_at, is_used)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING id, created_at
	`, c.UserID, c.CouponCode, c.DiscountRate, c.ExpiredAt).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create coupon: %w", err)
	}
	return nil
}

// LockUsablePoints locks the user's unexpired grants with points left,
// earliest expiry first.
func LockUsablePoints(ctx context.Context, q sqlx.ExtContext, userID int64, now time.Time) ([]*Point, error) {
	var points []*Point
	err := sqlx.SelectContext(ctx, q, &points, `
		SELECT id, user_id, amount, remaining_amount, expired_at, created_at
		FROM points
		WHERE user_id = $1 AND expired_at > $2 AND remaining_amount > 0
		ORDER BY expired_at ASC, id ASC
		FOR UPDATE
	`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("lock points: %w", err)
	}
	return points, nil
}

// ApplyDeductions subtracts each deduction from its grant.
func ApplyDeductions(ctx context.Context, q sqlx.ExtContext, plan []Deduction) error {
	for _, d := range plan {
		res, err := q.ExecContext(ctx, `
			UPDATE points SET remaining_amount = remaining_amount - $2
			WHERE id = $1 AND remaining_amount >= $2
		`, d.PointID, d.Amount)
		if err != nil {
			return fmt.Errorf("deduct points: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("deduct points: grant %d changed concurrently", d.PointID)
		}
	}
	return nil
}

// LockCoupon locks the user's coupon by code. Returns nil if not found.
func LockCoupon(ctx context.Context, q sqlx.ExtContext, userID int64, code string) (*Coupon, error) {
	var c Coupon
	err := sqlx.GetContext(ctx, q, &c, `
		SELECT id, user_id, coupon_code, discount_rate, expired_at, is_used, created_at
		FROM coupons
		WHERE user_id = $1 AND coupon_code = $2
		FOR UPDATE
	`, userID, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock coupon: %w", err)
	}
	return &c, nil
}

// SetCouponUsed flips the single-use flag.
func SetCouponUsed(ctx context.Context, q sqlx.ExtContext, couponID int64, used bool) error {
	res, err := q.ExecContext(ctx, `UPDATE coupons SET is_used = $2 WHERE id = $1`, couponID, used)
	if err != nil {
		return fmt.Errorf("set coupon used: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set coupon used: coupon %d not found", couponID)
	}
	return nil
}

// Repository is the read side of the reward ledger.
type Repository interface {
	ListActivePoints(ctx context.Context, userID int64, now time.Time) ([]*Point, error)
	ListUsableCoupons(ctx context.Context, userID int64, now time.Time) ([]*Coupon, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates reward repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListActivePoints(ctx context.Context, userID int64, now time.Time) ([]*Point, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var points []*Point
	err := r.db.SelectContext(ctx, &points, `
		SELECT id, user_id, amount, remaining_amount, expired_at, created_at
		FROM points
		WHERE user_id = $1 AND expired_at > $2 AND remaining_amount > 0
		ORDER BY expired_at ASC
	`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("list points: %w", err)
	}
	return points, nil
}

func (r *repository) ListUsableCoupons(ctx context.Context, userID int64, now time.Time) ([]*Coupon, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var coupons []*Coupon
	err := r.db.SelectContext(ctx, &coupons, `
		SELECT id, user_id, coupon_code, discount_rate, expired_at, is_used, created_at
		FROM coupons
		WHERE user_id = $1 AND is_used = FALSE AND expired_at > $2
		ORDER BY expired_at ASC
	`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	return coupons, nil
}
