package reward

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// ReferralPoints is granted to the referrer for every sign-up with their code.
	ReferralPoints = 10000
	// ReferralCouponRate is the discount percentage given to the referred user.
	ReferralCouponRate = 10
)

// ExpiryFrom returns the expiry used for every point grant and coupon.
func ExpiryFrom(now time.Time) time.Time {
	return now.AddDate(0, 3, 0)
}

// Point is a grant of points with its own expiry.
type Point struct {
	ID              int64     `db:"id" json:"id"`
	UserID          int64     `db:"user_id" json:"userId"`
	Amount          int       `db:"amount" json:"amount"`
	RemainingAmount int       `db:"remaining_amount" json:"remainingAmount"`
	ExpiredAt       time.Time `db:"expired_at" json:"expiredAt"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}

// Coupon is a single-use percentage discount owned by one user.
type Coupon struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"userId"`
	CouponCode   string    `db:"coupon_code" json:"couponCode"`
	DiscountRate int       `db:"discount_rate" json:"discountRate"`
	ExpiredAt    time.Time `db:"expired_at" json:"expiredAt"`
	IsUsed       bool      `db:"is_used" json:"isUsed"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Usable reports whether the coupon can be applied at now.
func (c *Coupon) Usable(now time.Time) bool {
	return !c.IsUsed && c.ExpiredAt.After(now)
}

// NewCouponCode returns a random code such as "REF-3F9A1C2B".
func NewCouponCode() string {
	return "REF-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}

// Deduction takes Amount points from grant PointID.
type Deduction struct {
	PointID int64
	Amount  int
}

// PlanConsumption spends amount from grants, earliest expiry first.
// grants must already be sorted by expiry and contain only unexpired
// grants. Returns false when the grants do not cover amount.
func PlanConsumption(grants []*Point, amount int) ([]Deduction, bool) {
	if amount <= 0 {
		return nil, true
	}
	var plan []Deduction
	left := amount
	for _, g := range grants {
		if left == 0 {
			break
		}
		if g.RemainingAmount <= 0 {
			continue
		}
		take := g.RemainingAmount
		if take > left {
			take = left
		}
		plan = append(plan, Deduction{PointID: g.ID, Amount: take})
		left -= take
	}
	return plan, left == 0
}

// Balance sums the remaining amount of grants unexpired at now.
func Balance(grants []*Point, now time.Time) int {
	total := 0
	for _, g := range grants {
		if g.ExpiredAt.After(now) {
			total += g.RemainingAmount
		}
	}
	return total
}

// Summary is the GET /users/rewards payload.
type Summary struct {
	PointBalance int       `json:"pointBalance"`
	Points       []*Point  `json:"points"`
	Coupons      []*Coupon `json:"coupons"`
}
