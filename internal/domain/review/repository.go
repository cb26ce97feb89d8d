package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eventhub/eventhub-api/internal/pkg/database"
)

// Repository defines review data access interface
type Repository interface {
	// Eligibility returns nil when the transaction does not exist.
	Eligibility(ctx context.Context, transactionID int64) (*Eligibility, error)
	Create(ctx context.Context, review *Review) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates review repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Eligibility(ctx context.Context, transactionID int64) (*Eligibility, error) {
	query := `
		SELECT t.id AS transaction_id, t.user_id, t.event_id, t.status,
			e.slug AS event_slug, e.end_date AS event_end_date,
			EXISTS (SELECT 1 FROM reviews rv WHERE rv.transaction_id = t.id) AS reviewed
		FROM transactions t
		JOIN events e ON e.id = t.event_id
		WHERE t.id = $1 AND ` + database.NotDeleted("t")

	var el Eligibility
	if err := r.db.GetContext(ctx, &el, query, transactionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("review repository eligibility: %w", err)
	}
	return &el, nil
}

func (r *repository) Create(ctx context.Context, review *Review) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO reviews (transaction_id, user_id, event_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, review.TransactionID, review.UserID, review.EventID, review.Rating, review.Comment).
		Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "reviews_transaction_key") {
			return ErrAlreadyReviewed
		}
		return fmt.Errorf("review repository create: %w", err)
	}
	return nil
}
