package transaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eventhub/eventhub-api/internal/domain/event"
	"github.com/eventhub/eventhub-api/internal/domain/reward"
	"github.com/eventhub/eventhub-api/internal/domain/voucher"
	"github.com/eventhub/eventhub-api/internal/pkg/database"
)

const transactionColumns = `t.id, t.user_id, t.event_id, t.ticket_quantity, t.total_price, t.points_used,
	t.voucher_id, t.coupon_id, t.status, t.payment_proof, t.payment_proof_uploaded_at,
	t.confirmed_at, t.created_at, t.updated_at, t.deleted_at`

// TxStore is the set of reads and writes available inside one atomic unit.
// Every Lock method holds its row lock until the unit ends.
type TxStore interface {
	LockSettlement(ctx context.Context, id int64) (*Settlement, error)
	ApplyPlan(ctx context.Context, t *Transaction, plan *Plan) error

	LockEvent(ctx context.Context, id int64) (*event.Event, error)
	LockVoucher(ctx context.Context, eventID int64, code string) (*voucher.Voucher, error)
	LockCoupon(ctx context.Context, userID int64, code string) (*reward.Coupon, error)
	LockUsablePoints(ctx context.Context, userID int64, now time.Time) ([]*reward.Point, error)
	ConsumeVoucher(ctx context.Context, voucherID int64) error
	UseCoupon(ctx context.Context, couponID int64) error
	DeductPoints(ctx context.Context, plan []reward.Deduction) error
	TakeSeats(ctx context.Context, eventID int64, quantity int) error
	Insert(ctx context.Context, t *Transaction) error
}

// Repository defines transaction data access interface
type Repository interface {
	// WithinTx runs fn in one database transaction. Any error from fn
	// rolls back every write made through the TxStore.
	WithinTx(ctx context.Context, fn func(TxStore) error) error
	GetByID(ctx context.Context, id int64) (*Transaction, error)
	// SetPaymentProof records the proof if the transaction is still pending.
	SetPaymentProof(ctx context.Context, id int64, url string, at time.Time) (*Transaction, error)
	ListByOrganizer(ctx context.Context, organizerID int64) ([]*ListItem, error)
	ListByUser(ctx context.Context, userID int64) ([]*ListItem, error)
	// ListOverdue returns pending transactions without proof created before cutoff.
	ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]int64, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new transaction repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithinTx(ctx context.Context, fn func(TxStore) error) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&txStore{q: tx})
	})
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions t WHERE t.id = $1 AND ` + database.NotDeleted("t")

	var t Transaction
	if err := r.db.GetContext(ctx, &t, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("transaction repository get: %w", err)
	}
	return &t, nil
}

func (r *repository) SetPaymentProof(ctx context.Context, id int64, url string, at time.Time) (*Transaction, error) {
	query := `
		UPDATE transactions t
		SET payment_proof = $2, payment_proof_uploaded_at = $3, updated_at = NOW()
		WHERE t.id = $1 AND t.status = 'PENDING' AND ` + database.NotDeleted("t") + `
		RETURNING ` + transactionColumns

	var t Transaction
	if err := r.db.GetContext(ctx, &t, query, id, url, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotPending
		}
		return nil, fmt.Errorf("transaction repository set payment proof: %w", err)
	}
	return &t, nil
}

const listSelect = `
	SELECT ` + transactionColumns + `,
		u.name AS user_name, u.email AS user_email, u.profile_picture AS user_picture,
		e.name AS event_name, e.slug AS event_slug, e.start_date AS event_start_date,
		v.voucher_code, v.discount_percentage,
		c.coupon_code, c.discount_rate
	FROM transactions t
	JOIN users u ON u.id = t.user_id
	JOIN events e ON e.id = t.event_id
	LEFT JOIN vouchers v ON v.id = t.voucher_id
	LEFT JOIN coupons c ON c.id = t.coupon_id
`

func (r *repository) list(ctx context.Context, where string, arg interface{}) ([]*ListItem, error) {
	query := listSelect + ` WHERE ` + where + ` AND ` + database.NotDeleted("t") + ` ORDER BY t.created_at DESC, t.id DESC`

	items := []*ListItem{}
	if err := r.db.SelectContext(ctx, &items, query, arg); err != nil {
		return nil, fmt.Errorf("transaction repository list: %w", err)
	}
	return items, nil
}

func (r *repository) ListByOrganizer(ctx context.Context, organizerID int64) ([]*ListItem, error) {
	return r.list(ctx, "e.organizer_id = $1", organizerID)
}

func (r *repository) ListByUser(ctx context.Context, userID int64) ([]*ListItem, error) {
	return r.list(ctx, "t.user_id = $1", userID)
}

func (r *repository) ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]int64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids, `
		SELECT id FROM transactions
		WHERE status = 'PENDING' AND payment_proof IS NULL AND created_at < $1 AND deleted_at IS NULL
		ORDER BY created_at
		LIMIT $2
	`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("transaction repository list overdue: %w", err)
	}
	return ids, nil
}

// txStore implements TxStore on a database transaction.
type txStore struct {
	q sqlx.ExtContext
}

func (s *txStore) LockSettlement(ctx context.Context, id int64) (*Settlement, error) {
	query := `
		SELECT ` + transactionColumns + `,
			e.organizer_id, e.name AS event_name, e.slug AS event_slug,
			u.name AS user_name, u.email AS user_email
		FROM transactions t
		JOIN events e ON e.id = t.event_id
		JOIN users u ON u.id = t.user_id
		WHERE t.id = $1 AND ` + database.NotDeleted("t") + `
		FOR UPDATE OF t
	`
	var st Settlement
	if err := sqlx.GetContext(ctx, s.q, &st, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("lock transaction: %w", err)
	}
	return &st, nil
}

// ApplyPlan writes the status change, guarded on the plan's source status,
// then every compensation the plan carries.
func (s *txStore) ApplyPlan(ctx context.Context, t *Transaction, plan *Plan) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE transactions
		SET status = $3, confirmed_at = COALESCE($4, confirmed_at), updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, t.ID, plan.From, plan.To, plan.ConfirmedAt)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotPending
	}

	c := plan.Compensation
	if c == nil {
		return nil
	}
	if c.PointsToReissue > 0 {
		if _, err := reward.GrantPoints(ctx, s.q, c.UserID, c.PointsToReissue, c.PointsExpireAt); err != nil {
			return err
		}
	}
	if c.VoucherID != 0 {
		if err := voucher.ChangeQuota(ctx, s.q, c.VoucherID, 1); err != nil {
			return err
		}
	}
	if c.CouponID != 0 {
		if err := reward.SetCouponUsed(ctx, s.q, c.CouponID, false); err != nil {
			return err
		}
	}
	if c.Seats > 0 {
		if err := event.AdjustSeats(ctx, s.q, c.EventID, c.Seats); err != nil {
			return err
		}
	}
	return nil
}

func (s *txStore) LockEvent(ctx context.Context, id int64) (*event.Event, error) {
	return event.LockForPurchase(ctx, s.q, id)
}

func (s *txStore) LockVoucher(ctx context.Context, eventID int64, code string) (*voucher.Voucher, error) {
	return voucher.LockByCode(ctx, s.q, eventID, code)
}

func (s *txStore) LockCoupon(ctx context.Context, userID int64, code string) (*reward.Coupon, error) {
	return reward.LockCoupon(ctx, s.q, userID, code)
}

func (s *txStore) LockUsablePoints(ctx context.Context, userID int64, now time.Time) ([]*reward.Point, error) {
	return reward.LockUsablePoints(ctx, s.q, userID, now)
}

func (s *txStore) ConsumeVoucher(ctx context.Context, voucherID int64) error {
	return voucher.ChangeQuota(ctx, s.q, voucherID, -1)
}

func (s *txStore) UseCoupon(ctx context.Context, couponID int64) error {
	return reward.SetCouponUsed(ctx, s.q, couponID, true)
}

func (s *txStore) DeductPoints(ctx context.Context, plan []reward.Deduction) error {
	return reward.ApplyDeductions(ctx, s.q, plan)
}

func (s *txStore) TakeSeats(ctx context.Context, eventID int64, quantity int) error {
	return event.AdjustSeats(ctx, s.q, eventID, -quantity)
}

func (s *txStore) Insert(ctx context.Context, t *Transaction) error {
	err := sqlx.GetContext(ctx, s.q, t, `
		INSERT INTO transactions (user_id, event_id, ticket_quantity, total_price, points_used, voucher_id, coupon_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, user_id, event_id, ticket_quantity, total_price, points_used, voucher_id, coupon_id,
			status, payment_proof, payment_proof_uploaded_at, confirmed_at, created_at, updated_at, deleted_at
	`, t.UserID, t.EventID, t.TicketQuantity, t.TotalPrice, t.PointsUsed, t.VoucherID, t.CouponID, t.Status)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}
