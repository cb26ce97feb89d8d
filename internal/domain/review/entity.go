package review

import "time"

// Review is a buyer's rating of an event they attended
type Review struct {
	ID            int64     `db:"id"`
	TransactionID int64     `db:"transaction_id"`
	UserID        int64     `db:"user_id"`
	EventID       int64     `db:"event_id"`
	Rating        int       `db:"rating"`
	Comment       string    `db:"comment"`
	CreatedAt     time.Time `db:"created_at"`
}

// Eligibility is what decides whether a transaction can be reviewed.
type Eligibility struct {
	TransactionID int64     `db:"transaction_id"`
	UserID        int64     `db:"user_id"`
	EventID       int64     `db:"event_id"`
	Status        string    `db:"status"`
	EventSlug     string    `db:"event_slug"`
	EventEndDate  time.Time `db:"event_end_date"`
	Reviewed      bool      `db:"reviewed"`
}

// CreateRequest for POST /transactions/{id}/review
type CreateRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// Response is the review representation
type Response struct {
	ID            int64     `json:"id"`
	TransactionID int64     `json:"transactionId"`
	UserID        int64     `json:"userId"`
	EventID       int64     `json:"eventId"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ToResponse converts entity to response
func (r *Review) ToResponse() *Response {
	return &Response{
		ID:            r.ID,
		TransactionID: r.TransactionID,
		UserID:        r.UserID,
		EventID:       r.EventID,
		Rating:        r.Rating,
		Comment:       r.Comment,
		CreatedAt:     r.CreatedAt,
	}
}
