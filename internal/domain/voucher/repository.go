package voucher

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/eventhub/eventhub-api/internal/pkg/database"
)

const voucherColumns = `id, event_id, voucher_code, discount_percentage, quota, start_date, end_date, created_at, deleted_at`

// Repository defines voucher data access interface
type Repository interface {
	Create(ctx context.Context, v *Voucher) error
	ListByEvent(ctx context.Context, eventID int64) ([]*Voucher, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new voucher repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, v *Voucher) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO vouchers (event_id, voucher_code, discount_percentage, quota, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, v.EventID, v.VoucherCode, v.DiscountPercentage, v.Quota, v.StartDate, v.EndDate).Scan(&v.ID, &v.CreatedAt)
	if database.IsUniqueViolation(err, "vouchers_event_code_key") {
		return ErrCodeTaken
	}
	if err != nil {
		return fmt.Errorf("voucher repository create: %w", err)
	}
	return nil
}

func (r *repository) ListByEvent(ctx context.Context, eventID int64) ([]*Voucher, error) {
	vouchers := []*Voucher{}
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE event_id = $1 AND ` + database.NotDeleted("") + ` ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &vouchers, query, eventID); err != nil {
		return nil, fmt.Errorf("voucher repository list: %w", err)
	}
	return vouchers, nil
}

// The functions below run inside the transaction workflow's atomic unit.

// LockByCode loads the event's voucher with code and locks its row.
func LockByCode(ctx context.Context, q sqlx.ExtContext, eventID int64, code string) (*Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers
		WHERE event_id = $1 AND UPPER(voucher_code) = $2 AND ` + database.NotDeleted("") + `
		FOR UPDATE`

	var v Voucher
	if err := sqlx.GetContext(ctx, q, &v, query, eventID, strings.ToUpper(strings.TrimSpace(code))); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVoucherNotFound
		}
		return nil, fmt.Errorf("lock voucher: %w", err)
	}
	return &v, nil
}

// ChangeQuota adds delta to the voucher quota. A decrement that would take
// the quota below zero fails with ErrVoucherUsedUp.
func ChangeQuota(ctx context.Context, q sqlx.ExtContext, id int64, delta int) error {
	result, err := q.ExecContext(ctx, `
		UPDATE vouchers SET quota = quota + $2
		WHERE id = $1 AND quota + $2 >= 0
	`, id, delta)
	if err != nil {
		return fmt.Errorf("change voucher quota: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrVoucherUsedUp
	}
	return nil
}
