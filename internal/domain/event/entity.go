package event

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Event represents an organizer's ticketed event
type Event struct {
	ID             int64           `db:"id"`
	OrganizerID    int64           `db:"organizer_id"`
	Name           string          `db:"name"`
	Slug           string          `db:"slug"`
	Description    string          `db:"description"`
	Category       string          `db:"category"`
	Location       string          `db:"location"`
	Price          decimal.Decimal `db:"price"`
	TotalSeats     int             `db:"total_seats"`
	AvailableSeats int             `db:"available_seats"`
	StartDate      time.Time       `db:"start_date"`
	EndDate        time.Time       `db:"end_date"`
	Thumbnail      sql.NullString  `db:"thumbnail"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
	DeletedAt      sql.NullTime    `db:"deleted_at"`
}

// HasEnded reports whether the event is over at now.
func (e *Event) HasEnded(now time.Time) bool {
	return !e.EndDate.After(now)
}

// IsOwnedBy checks organizer ownership
func (e *Event) IsOwnedBy(organizerID int64) bool {
	return e.OrganizerID == organizerID
}

// ListItem is an event row joined with its organizer and rating.
type ListItem struct {
	Event
	OrganizerName    string         `db:"organizer_name"`
	OrganizerPicture sql.NullString `db:"organizer_picture"`
	AverageRating    float64        `db:"average_rating"`
	ReviewCount      int            `db:"review_count"`
}

// ActiveVoucher is a voucher still redeemable for the event.
type ActiveVoucher struct {
	ID                 int64     `db:"id" json:"id"`
	VoucherCode        string    `db:"voucher_code" json:"voucherCode"`
	DiscountPercentage int       `db:"discount_percentage" json:"discountPercentage"`
	Quota              int       `db:"quota" json:"quota"`
	StartDate          time.Time `db:"start_date" json:"startDate"`
	EndDate            time.Time `db:"end_date" json:"endDate"`
}

// EventReview is a review left on a paid transaction of the event.
type EventReview struct {
	ID          int64          `db:"id"`
	Rating      int            `db:"rating"`
	Comment     string         `db:"comment"`
	CreatedAt   time.Time      `db:"created_at"`
	UserName    string         `db:"user_name"`
	UserPicture sql.NullString `db:"user_picture"`
}

// Detail is the GET /events/{slug} read model.
type Detail struct {
	ListItem
	Vouchers []*ActiveVoucher
	Reviews  []*EventReview
}

// Period groups statistics.
type Period string

const (
	PeriodYear  Period = "year"
	PeriodMonth Period = "month"
	PeriodDay   Period = "day"
)

// StatBucket is revenue and tickets sold for one period bucket.
type StatBucket struct {
	Bucket       time.Time       `db:"bucket"`
	Revenue      decimal.Decimal `db:"revenue"`
	TicketsSold  int             `db:"tickets_sold"`
	Transactions int             `db:"transactions"`
}
