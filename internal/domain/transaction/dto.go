package transaction

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// CreateRequest for POST /transactions
type CreateRequest struct {
	EventID        int64  `json:"eventId" validate:"required,gt=0"`
	TicketQuantity int    `json:"ticketQuantity" validate:"required,gte=1"`
	PointsToUse    int    `json:"pointsToUse" validate:"gte=0"`
	VoucherCode    string `json:"voucherCode" validate:"omitempty,max=50"`
	CouponCode     string `json:"couponCode" validate:"omitempty,max=50"`
}

// Response is the transaction representation
type Response struct {
	ID                     int64           `json:"id"`
	UserID                 int64           `json:"userId"`
	EventID                int64           `json:"eventId"`
	TicketQuantity         int             `json:"ticketQuantity"`
	TotalPrice             decimal.Decimal `json:"totalPrice"`
	PointsUsed             int             `json:"pointsUsed"`
	VoucherID              *int64          `json:"voucherId"`
	CouponID               *int64          `json:"couponId"`
	Status                 Status          `json:"status"`
	PaymentProof           *string         `json:"paymentProof"`
	PaymentProofUploadedAt *time.Time      `json:"paymentProofUploadedAt"`
	ConfirmedAt            *time.Time      `json:"confirmedAt"`
	CreatedAt              time.Time       `json:"createdAt"`
	UpdatedAt              time.Time       `json:"updatedAt"`
}

// ListItemResponse adds buyer, event and discount summaries
type ListItemResponse struct {
	*Response
	User struct {
		Name           string  `json:"name"`
		Email          string  `json:"email"`
		ProfilePicture *string `json:"profilePicture"`
	} `json:"user"`
	Event struct {
		Name      string    `json:"name"`
		Slug      string    `json:"slug"`
		StartDate time.Time `json:"startDate"`
	} `json:"event"`
	Voucher *struct {
		VoucherCode        string `json:"voucherCode"`
		DiscountPercentage int64  `json:"discountPercentage"`
	} `json:"voucher"`
	Coupon *struct {
		CouponCode   string `json:"couponCode"`
		DiscountRate int64  `json:"discountRate"`
	} `json:"coupon"`
}

// CreateResponse is returned by POST /transactions
type CreateResponse struct {
	*Response
	Pricing Pricing `json:"pricing"`
}

// ToResponse converts entity to response
func (t *Transaction) ToResponse() *Response {
	resp := &Response{
		ID:             t.ID,
		UserID:         t.UserID,
		EventID:        t.EventID,
		TicketQuantity: t.TicketQuantity,
		TotalPrice:     t.TotalPrice,
		PointsUsed:     t.PointsUsed,
		Status:         t.Status,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if t.VoucherID.Valid {
		resp.VoucherID = &t.VoucherID.Int64
	}
	if t.CouponID.Valid {
		resp.CouponID = &t.CouponID.Int64
	}
	if t.PaymentProof.Valid {
		resp.PaymentProof = &t.PaymentProof.String
	}
	if t.PaymentProofUploadedAt.Valid {
		resp.PaymentProofUploadedAt = &t.PaymentProofUploadedAt.Time
	}
	if t.ConfirmedAt.Valid {
		resp.ConfirmedAt = &t.ConfirmedAt.Time
	}
	return resp
}

// ToResponse converts a list row to response
func (i *ListItem) ToResponse() *ListItemResponse {
	resp := &ListItemResponse{Response: i.Transaction.ToResponse()}
	resp.User.Name = i.UserName
	resp.User.Email = i.UserEmail
	if i.UserPicture.Valid {
		resp.User.ProfilePicture = &i.UserPicture.String
	}
	resp.Event.Name = i.EventName
	resp.Event.Slug = i.EventSlug
	resp.Event.StartDate = i.EventStartDate
	if i.VoucherCode.Valid {
		resp.Voucher = &struct {
			VoucherCode        string `json:"voucherCode"`
			DiscountPercentage int64  `json:"discountPercentage"`
		}{i.VoucherCode.String, i.DiscountPercentage.Int64}
	}
	if i.CouponCode.Valid {
		resp.Coupon = &struct {
			CouponCode   string `json:"couponCode"`
			DiscountRate int64  `json:"discountRate"`
		}{i.CouponCode.String, i.DiscountRate.Int64}
	}
	return resp
}

// FormatIDR renders an amount with Indonesian grouping, e.g. "IDR 1.250.000".
func FormatIDR(amount decimal.Decimal) string {
	p := message.NewPrinter(language.Indonesian)
	return "IDR " + p.Sprint(number.Decimal(amount.Round(2).InexactFloat64(), number.MaxFractionDigits(2)))
}
