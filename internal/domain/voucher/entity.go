package voucher

import (
	"database/sql"
	"time"
)

// Voucher is an event-scoped percentage discount with a usage quota
type Voucher struct {
	ID                 int64        `db:"id"`
	EventID            int64        `db:"event_id"`
	VoucherCode        string       `db:"voucher_code"`
	DiscountPercentage int          `db:"discount_percentage"`
	Quota              int          `db:"quota"`
	StartDate          time.Time    `db:"start_date"`
	EndDate            time.Time    `db:"end_date"`
	CreatedAt          time.Time    `db:"created_at"`
	DeletedAt          sql.NullTime `db:"deleted_at"`
}

// ActiveAt reports whether the voucher can be redeemed at now.
func (v *Voucher) ActiveAt(now time.Time) bool {
	return !now.Before(v.StartDate) && !now.After(v.EndDate) && v.Quota > 0
}

// CreateRequest for POST /events/{id}/vouchers
type CreateRequest struct {
	VoucherCode        string    `json:"voucherCode" validate:"required,min=3,max=50"`
	DiscountPercentage int       `json:"discountPercentage" validate:"required,gte=1,lte=100"`
	Quota              int       `json:"quota" validate:"required,gte=1"`
	StartDate          time.Time `json:"startDate" validate:"required"`
	EndDate            time.Time `json:"endDate" validate:"required,gtefield=StartDate"`
}

// Response is the voucher representation
type Response struct {
	ID                 int64     `json:"id"`
	EventID            int64     `json:"eventId"`
	VoucherCode        string    `json:"voucherCode"`
	DiscountPercentage int       `json:"discountPercentage"`
	Quota              int       `json:"quota"`
	StartDate          time.Time `json:"startDate"`
	EndDate            time.Time `json:"endDate"`
	CreatedAt          time.Time `json:"createdAt"`
}

// ToResponse converts entity to response
func (v *Voucher) ToResponse() *Response {
	return &Response{
		ID:                 v.ID,
		EventID:            v.EventID,
		VoucherCode:        v.VoucherCode,
		DiscountPercentage: v.DiscountPercentage,
		Quota:              v.Quota,
		StartDate:          v.StartDate,
		EndDate:            v.EndDate,
		CreatedAt:          v.CreatedAt,
	}
}
