package transaction

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Status represents transaction status
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusPaid     Status = "PAID"
	StatusRejected Status = "REJECTED"
)

// Transaction is a ticket purchase. It is the aggregate root of settlement:
// point, coupon, voucher and seat changes follow its status changes.
type Transaction struct {
	ID                     int64           `db:"id"`
	UserID                 int64           `db:"user_id"`
	EventID                int64           `db:"event_id"`
	TicketQuantity         int             `db:"ticket_quantity"`
	TotalPrice             decimal.Decimal `db:"total_price"`
	PointsUsed             int             `db:"points_used"`
	VoucherID              sql.NullInt64   `db:"voucher_id"`
	CouponID               sql.NullInt64   `db:"coupon_id"`
	Status                 Status          `db:"status"`
	PaymentProof           sql.NullString  `db:"payment_proof"`
	PaymentProofUploadedAt sql.NullTime    `db:"payment_proof_uploaded_at"`
	ConfirmedAt            sql.NullTime    `db:"confirmed_at"`
	CreatedAt              time.Time       `db:"created_at"`
	UpdatedAt              time.Time       `db:"updated_at"`
	DeletedAt              sql.NullTime    `db:"deleted_at"`
}

// IsPending reports whether the transaction can still be settled.
func (t *Transaction) IsPending() bool {
	return t.Status == StatusPending
}

// HasPaymentProof reports whether the buyer uploaded a proof.
func (t *Transaction) HasPaymentProof() bool {
	return t.PaymentProof.Valid
}

// Settlement is a locked transaction together with what accept, reject
// and the emails after them need to know about its event and buyer.
type Settlement struct {
	Transaction
	OrganizerID int64  `db:"organizer_id"`
	EventName   string `db:"event_name"`
	EventSlug   string `db:"event_slug"`
	UserName    string `db:"user_name"`
	UserEmail   string `db:"user_email"`
}

// ListItem is a transaction joined with the summaries shown in lists.
type ListItem struct {
	Transaction
	UserName           string         `db:"user_name"`
	UserEmail          string         `db:"user_email"`
	UserPicture        sql.NullString `db:"user_picture"`
	EventName          string         `db:"event_name"`
	EventSlug          string         `db:"event_slug"`
	EventStartDate     time.Time      `db:"event_start_date"`
	VoucherCode        sql.NullString `db:"voucher_code"`
	DiscountPercentage sql.NullInt64  `db:"discount_percentage"`
	CouponCode         sql.NullString `db:"coupon_code"`
	DiscountRate       sql.NullInt64  `db:"discount_rate"`
}
