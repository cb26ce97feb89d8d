package event

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateRequest is read from the multipart form of POST /events
type CreateRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description" validate:"required"`
	Category    string          `json:"category" validate:"omitempty,max=100"`
	Location    string          `json:"location" validate:"required,max=255"`
	Price       decimal.Decimal `json:"price"`
	TotalSeats  int             `json:"totalSeats" validate:"required,gte=1"`
	StartDate   time.Time       `json:"startDate" validate:"required"`
	EndDate     time.Time       `json:"endDate" validate:"required,gtefield=StartDate"`
}

// UpdateRequest for PATCH /events/{id}. Nil fields are left unchanged.
type UpdateRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description" validate:"omitempty,min=1"`
	Category    *string          `json:"category" validate:"omitempty,max=100"`
	Location    *string          `json:"location" validate:"omitempty,min=1,max=255"`
	Price       *decimal.Decimal `json:"price"`
	TotalSeats  *int             `json:"totalSeats" validate:"omitempty,gte=1"`
	StartDate   *time.Time       `json:"startDate"`
	EndDate     *time.Time       `json:"endDate"`
}

// ListFilter narrows GET /events and GET /events/organizer.
type ListFilter struct {
	Search      string
	Category    string
	Location    string
	OrganizerID int64
	OrderBy     string
	Limit       int
	Offset      int
}

// Response is the public event representation
type Response struct {
	ID             int64           `json:"id"`
	OrganizerID    int64           `json:"organizerId"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Description    string          `json:"description"`
	Category       string          `json:"category"`
	Location       string          `json:"location"`
	Price          decimal.Decimal `json:"price"`
	TotalSeats     int             `json:"totalSeats"`
	AvailableSeats int             `json:"availableSeats"`
	StartDate      time.Time       `json:"startDate"`
	EndDate        time.Time       `json:"endDate"`
	Thumbnail      *string         `json:"thumbnail"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// OrganizerResponse is the organizer summary attached to events
type OrganizerResponse struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	ProfilePicture *string `json:"profilePicture"`
}

// ListItemResponse is one entry of GET /events
type ListItemResponse struct {
	Response
	Organizer     OrganizerResponse `json:"organizer"`
	AverageRating float64           `json:"averageRating"`
	ReviewCount   int               `json:"reviewCount"`
}

// ReviewResponse is a review shown on the event page
type ReviewResponse struct {
	ID        int64     `json:"id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	User      struct {
		Name           string  `json:"name"`
		ProfilePicture *string `json:"profilePicture"`
	} `json:"user"`
}

// DetailResponse is GET /events/{slug}
type DetailResponse struct {
	ListItemResponse
	Vouchers []*ActiveVoucher  `json:"vouchers"`
	Reviews  []*ReviewResponse `json:"reviews"`
}

// StatBucketResponse is one period of organizer statistics
type StatBucketResponse struct {
	Bucket       string          `json:"bucket"`
	Revenue      decimal.Decimal `json:"revenue"`
	TicketsSold  int             `json:"ticketsSold"`
	Transactions int             `json:"transactions"`
}

// StatisticsResponse is GET /events/statistics
type StatisticsResponse struct {
	Period            Period                `json:"period"`
	TotalRevenue      decimal.Decimal       `json:"totalRevenue"`
	TotalTicketsSold  int                   `json:"totalTicketsSold"`
	TotalTransactions int                   `json:"totalTransactions"`
	Buckets           []*StatBucketResponse `json:"buckets"`
}

func nullable(s string, valid bool) *string {
	if !valid {
		return nil
	}
	return &s
}

// ToResponse converts entity to response
func (e *Event) ToResponse() Response {
	return Response{
		ID:             e.ID,
		OrganizerID:    e.OrganizerID,
		Name:           e.Name,
		Slug:           e.Slug,
		Description:    e.Description,
		Category:       e.Category,
		Location:       e.Location,
		Price:          e.Price,
		TotalSeats:     e.TotalSeats,
		AvailableSeats: e.AvailableSeats,
		StartDate:      e.StartDate,
		EndDate:        e.EndDate,
		Thumbnail:      nullable(e.Thumbnail.String, e.Thumbnail.Valid),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

// ToResponse converts a list row to response
func (i *ListItem) ToResponse() *ListItemResponse {
	return &ListItemResponse{
		Response: i.Event.ToResponse(),
		Organizer: OrganizerResponse{
			ID:             i.OrganizerID,
			Name:           i.OrganizerName,
			ProfilePicture: nullable(i.OrganizerPicture.String, i.OrganizerPicture.Valid),
		},
		AverageRating: i.AverageRating,
		ReviewCount:   i.ReviewCount,
	}
}

// ToResponse converts the detail read model to response
func (d *Detail) ToResponse() *DetailResponse {
	resp := &DetailResponse{
		ListItemResponse: *d.ListItem.ToResponse(),
		Vouchers:         d.Vouchers,
		Reviews:          make([]*ReviewResponse, len(d.Reviews)),
	}
	if resp.Vouchers == nil {
		resp.Vouchers = []*ActiveVoucher{}
	}
	for i, r := range d.Reviews {
		rr := &ReviewResponse{ID: r.ID, Rating: r.Rating, Comment: r.Comment, CreatedAt: r.CreatedAt}
		rr.User.Name = r.UserName
		rr.User.ProfilePicture = nullable(r.UserPicture.String, r.UserPicture.Valid)
		resp.Reviews[i] = rr
	}
	return resp
}

func bucketLabel(t time.Time, period Period) string {
	switch period {
	case PeriodYear:
		return t.Format("2006")
	case PeriodMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// NewStatisticsResponse totals buckets for the response.
func NewStatisticsResponse(period Period, buckets []*StatBucket) *StatisticsResponse {
	resp := &StatisticsResponse{
		Period:       period,
		TotalRevenue: decimal.Zero,
		Buckets:      make([]*StatBucketResponse, len(buckets)),
	}
	for i, b := range buckets {
		resp.TotalRevenue = resp.TotalRevenue.Add(b.Revenue)
		resp.TotalTicketsSold += b.TicketsSold
		resp.TotalTransactions += b.Transactions
		resp.Buckets[i] = &StatBucketResponse{
			Bucket:       bucketLabel(b.Bucket, period),
			Revenue:      b.Revenue,
			TicketsSold:  b.TicketsSold,
			Transactions: b.Transactions,
		}
	}
	return resp
}
