package transaction

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eventhub/eventhub-api/internal/domain/reward"
)

var hundred = decimal.NewFromInt(100)

// Compensation undoes the side effects of creating a transaction.
type Compensation struct {
	UserID          int64
	PointsToReissue int
	PointsExpireAt  time.Time
	VoucherID       int64
	CouponID        int64
	EventID         int64
	Seats           int
}

// Plan is the full effect of one settlement step, computed before any
// write and applied as one unit.
type Plan struct {
	From         Status
	To           Status
	ConfirmedAt  sql.NullTime
	Compensation *Compensation
}

// PlanAcceptance moves a pending transaction to PAID.
func PlanAcceptance(t *Transaction, now time.Time) (*Plan, error) {
	if !t.IsPending() {
		return nil, ErrNotPending
	}
	return &Plan{
		From:        StatusPending,
		To:          StatusPaid,
		ConfirmedAt: sql.NullTime{Time: now, Valid: true},
	}, nil
}

// PlanRejection moves a pending transaction to REJECTED and returns what
// it consumed: used points come back as a new grant, the voucher gets its
// quota back, the coupon becomes usable again and the seats are released.
func PlanRejection(t *Transaction, now time.Time) (*Plan, error) {
	if !t.IsPending() {
		return nil, ErrNotPending
	}

	c := &Compensation{
		UserID:  t.UserID,
		EventID: t.EventID,
		Seats:   t.TicketQuantity,
	}
	if t.PointsUsed > 0 {
		c.PointsToReissue = t.PointsUsed
		c.PointsExpireAt = reward.ExpiryFrom(now)
	}
	if t.VoucherID.Valid {
		c.VoucherID = t.VoucherID.Int64
	}
	if t.CouponID.Valid {
		c.CouponID = t.CouponID.Int64
	}

	return &Plan{From: StatusPending, To: StatusRejected, Compensation: c}, nil
}

// Apply updates t in memory the way the plan changes the stored row.
func (p *Plan) Apply(t *Transaction) {
	t.Status = p.To
	if p.ConfirmedAt.Valid {
		t.ConfirmedAt = p.ConfirmedAt
	}
}

// Pricing is the breakdown of a purchase.
type Pricing struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	VoucherDiscount decimal.Decimal `json:"voucherDiscount"`
	CouponDiscount  decimal.Decimal `json:"couponDiscount"`
	PointsUsed      int             `json:"pointsUsed"`
	Total           decimal.Decimal `json:"total"`
}

// Quote prices quantity tickets at unitPrice. The voucher percentage is
// applied first, then the coupon rate on what remains, then points, one
// point per currency unit, capped by both the balance and the
// remaining amount.
func Quote(unitPrice decimal.Decimal, quantity, voucherPct, couponRate, pointsRequested, pointBalance int) Pricing {
	p := Pricing{Subtotal: unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)}

	total := p.Subtotal
	if voucherPct > 0 {
		p.VoucherDiscount = total.Mul(decimal.NewFromInt(int64(voucherPct))).Div(hundred).Round(2)
		total = total.Sub(p.VoucherDiscount)
	}
	if couponRate > 0 {
		p.CouponDiscount = total.Mul(decimal.NewFromInt(int64(couponRate))).Div(hundred).Round(2)
		total = total.Sub(p.CouponDiscount)
	}

	points := pointsRequested
	if points > pointBalance {
		points = pointBalance
	}
	if maxPoints := int(total.Floor().IntPart()); points > maxPoints {
		points = maxPoints
	}
	if points < 0 {
		points = 0
	}
	p.PointsUsed = points
	total = total.Sub(decimal.NewFromInt(int64(points)))

	if total.IsNegative() {
		total = decimal.Zero
	}
	p.Total = total
	return p
}
