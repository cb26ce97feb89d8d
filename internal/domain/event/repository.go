package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eventhub/eventhub-api/internal/pkg/database"
)

var eventFields = []string{
	"id", "organizer_id", "name", "slug", "description", "category", "location", "price",
	"total_seats", "available_seats", "start_date", "end_date", "thumbnail",
	"created_at", "updated_at", "deleted_at",
}

// columns returns the event column list qualified with alias.
func columns(alias string) string {
	if alias == "" {
		return strings.Join(eventFields, ", ")
	}
	qualified := make([]string, len(eventFields))
	for i, f := range eventFields {
		qualified[i] = alias + "." + f
	}
	return strings.Join(qualified, ", ")
}

// listSelect joins organizer and rating aggregates onto events aliased e.
var listSelect = `
	SELECT ` + columns("e") + `,
		u.name AS organizer_name,
		u.profile_picture AS organizer_picture,
		COALESCE(r.average_rating, 0) AS average_rating,
		COALESCE(r.review_count, 0) AS review_count
	FROM events e
	JOIN users u ON u.id = e.organizer_id
	LEFT JOIN (
		SELECT event_id, AVG(rating)::float8 AS average_rating, COUNT(*) AS review_count
		FROM reviews
		GROUP BY event_id
	) r ON r.event_id = e.id
`

// Repository defines event data access interface
type Repository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id int64) (*Event, error)
	GetDetailBySlug(ctx context.Context, slug string, now time.Time) (*Detail, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]*ListItem, int, error)
	// Update writes e's editable fields and shifts both seat counters by
	// seatDelta. It returns ErrSeatsBelowSold when available seats would
	// drop below zero.
	Update(ctx context.Context, e *Event, seatDelta int) error
	SoftDelete(ctx context.Context, id int64) error
	Statistics(ctx context.Context, organizerID int64, period Period) ([]*StatBucket, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new event repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, e *Event) error {
	query := `
		INSERT INTO events (
			organizer_id, name, slug, description, category, location, price,
			total_seats, available_seats, start_date, end_date, thumbnail
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8, $9, $10, $11)
		RETURNING id, available_seats, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		e.OrganizerID, e.Name, e.Slug, e.Description, e.Category, e.Location, e.Price,
		e.TotalSeats, e.StartDate, e.EndDate, e.Thumbnail,
	).Scan(&e.ID, &e.AvailableSeats, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("event repository create: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Event, error) {
	query := `SELECT ` + columns("") + ` FROM events WHERE id = $1 AND ` + database.NotDeleted("")

	var e Event
	if err := r.db.GetContext(ctx, &e, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("event repository get: %w", err)
	}
	return &e, nil
}

func (r *repository) GetDetailBySlug(ctx context.Context, slug string, now time.Time) (*Detail, error) {
	var d Detail
	query := listSelect + ` WHERE e.slug = $1 AND ` + database.NotDeleted("e")
	if err := r.db.GetContext(ctx, &d.ListItem, query, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("event repository get by slug: %w", err)
	}

	vouchersQuery := `
		SELECT id, voucher_code, discount_percentage, quota, start_date, end_date
		FROM vouchers
		WHERE event_id = $1 AND ` + database.NotDeleted("") + ` AND end_date >= $2 AND quota > 0
		ORDER BY end_date
	`
	if err := r.db.SelectContext(ctx, &d.Vouchers, vouchersQuery, d.ID, now); err != nil {
		return nil, fmt.Errorf("event repository vouchers: %w", err)
	}

	reviewsQuery := `
		SELECT r.id, r.rating, r.comment, r.created_at,
			u.name AS user_name, u.profile_picture AS user_picture
		FROM reviews r
		JOIN transactions t ON t.id = r.transaction_id
		JOIN users u ON u.id = r.user_id
		WHERE r.event_id = $1 AND t.status = 'PAID'
		ORDER BY r.created_at DESC
	`
	if err := r.db.SelectContext(ctx, &d.Reviews, reviewsQuery, d.ID); err != nil {
		return nil, fmt.Errorf("event repository reviews: %w", err)
	}
	return &d, nil
}

// SlugExists also sees soft-deleted events, which still hold their slug.
func (r *repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM events WHERE slug = $1)`, slug); err != nil {
		return false, fmt.Errorf("event repository slug exists: %w", err)
	}
	return exists, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*ListItem, int, error) {
	conditions := []string{database.NotDeleted("e")}
	args := []interface{}{}
	argIndex := 1

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("e.name ILIKE $%d", argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("e.category ILIKE $%d", argIndex))
		args = append(args, filter.Category)
		argIndex++
	}
	if filter.Location != "" {
		conditions = append(conditions, fmt.Sprintf("e.location ILIKE $%d", argIndex))
		args = append(args, "%"+filter.Location+"%")
		argIndex++
	}
	if filter.OrganizerID != 0 {
		conditions = append(conditions, fmt.Sprintf("e.organizer_id = $%d", argIndex))
		args = append(args, filter.OrganizerID)
		argIndex++
	}

	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM events e"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("event repository count: %w", err)
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "e.created_at DESC"
	}
	query := listSelect + where + fmt.Sprintf(" ORDER BY %s, e.id DESC LIMIT $%d OFFSET $%d", orderBy, argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	items := []*ListItem{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("event repository list: %w", err)
	}
	return items, total, nil
}

func (r *repository) Update(ctx context.Context, e *Event, seatDelta int) error {
	query := `
		UPDATE events SET
			name = $2, description = $3, category = $4, location = $5, price = $6,
			start_date = $7, end_date = $8, thumbnail = $9,
			total_seats = total_seats + $10,
			available_seats = available_seats + $10,
			updated_at = NOW()
		WHERE id = $1 AND ` + database.NotDeleted("") + ` AND available_seats + $10 >= 0
		RETURNING total_seats, available_seats, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		e.ID, e.Name, e.Description, e.Category, e.Location, e.Price,
		e.StartDate, e.EndDate, e.Thumbnail, seatDelta,
	).Scan(&e.TotalSeats, &e.AvailableSeats, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSeatsBelowSold
	}
	if err != nil {
		return fmt.Errorf("event repository update: %w", err)
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, id int64) error {
	query := `UPDATE events SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND ` + database.NotDeleted("")
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("event repository delete: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *repository) Statistics(ctx context.Context, organizerID int64, period Period) ([]*StatBucket, error) {
	query := `
		SELECT date_trunc($2, COALESCE(t.confirmed_at, t.created_at)) AS bucket,
			COALESCE(SUM(t.total_price), 0) AS revenue,
			COALESCE(SUM(t.ticket_quantity), 0) AS tickets_sold,
			COUNT(*) AS transactions
		FROM transactions t
		JOIN events e ON e.id = t.event_id
		WHERE e.organizer_id = $1 AND t.status = 'PAID'
			AND ` + database.NotDeleted("t") + ` AND ` + database.NotDeleted("e") + `
		GROUP BY bucket
		ORDER BY bucket
	`
	buckets := []*StatBucket{}
	if err := r.db.SelectContext(ctx, &buckets, query, organizerID, string(period)); err != nil {
		return nil, fmt.Errorf("event repository statistics: %w", err)
	}
	return buckets, nil
}

// The functions below run inside the transaction workflow's atomic unit.

// LockForPurchase loads a live event and holds its row lock until the
// surrounding transaction ends.
func LockForPurchase(ctx context.Context, q sqlx.ExtContext, id int64) (*Event, error) {
	query := `SELECT ` + columns("") + ` FROM events WHERE id = $1 AND ` + database.NotDeleted("") + ` FOR UPDATE`

	var e Event
	if err := sqlx.GetContext(ctx, q, &e, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("lock event: %w", err)
	}
	return &e, nil
}

// AdjustSeats adds delta to available seats, keeping them within
// [0, total_seats]. It returns ErrNotEnoughSeats otherwise.
func AdjustSeats(ctx context.Context, q sqlx.ExtContext, id int64, delta int) error {
	result, err := q.ExecContext(ctx, `
		UPDATE events
		SET available_seats = available_seats + $2, updated_at = NOW()
		WHERE id = $1 AND available_seats + $2 BETWEEN 0 AND total_seats
	`, id, delta)
	if err != nil {
		return fmt.Errorf("adjust seats: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotEnoughSeats
	}
	return nil
}
