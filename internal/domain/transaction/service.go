package transaction

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eventhub/eventhub-api/internal/domain/event"
	"github.com/eventhub/eventhub-api/internal/domain/reward"
	"github.com/eventhub/eventhub-api/internal/domain/voucher"
	"github.com/eventhub/eventhub-api/internal/pkg/email"
	"github.com/eventhub/eventhub-api/internal/pkg/metrics"
	"github.com/eventhub/eventhub-api/internal/pkg/storage"
)

// Mailer queues settlement emails. Delivery is best effort.
type Mailer interface {
	SendTransactionAccepted(to string, data email.TransactionEmail)
	SendTransactionRejected(to string, data email.TransactionEmail)
}

// StatusPublisher pushes status changes to the buyer's open connections.
type StatusPublisher interface {
	PublishTransactionStatus(ctx context.Context, userID, transactionID int64, status string)
}

// EventCache drops cached event pages whose seat counts changed.
type EventCache interface {
	Invalidate(ctx context.Context, slug string)
}

// Uploader stores payment proof images.
type Uploader interface {
	Upload(ctx context.Context, reader io.Reader, folder string) (string, error)
	RemoveByURL(ctx context.Context, url string) error
}

// Service runs the purchase and settlement workflow
type Service struct {
	repo      Repository
	uploader  Uploader
	mailer    Mailer
	publisher StatusPublisher
	events    EventCache
	now       func() time.Time
}

// NewService creates transaction service. publisher and events may be nil.
func NewService(repo Repository, uploader Uploader, mailer Mailer, publisher StatusPublisher, events EventCache) *Service {
	return &Service{
		repo:      repo,
		uploader:  uploader,
		mailer:    mailer,
		publisher: publisher,
		events:    events,
		now:       time.Now,
	}
}

// Create books tickets for userID. The event row, voucher, coupon and
// point grants are locked for the whole unit so concurrent purchases
// cannot oversell seats or double spend discounts.
func (s *Service) Create(ctx context.Context, userID int64, req *CreateRequest) (*CreateResponse, error) {
	now := s.now()
	var (
		t       *Transaction
		pricing Pricing
		slug    string
	)

	err := s.repo.WithinTx(ctx, func(store TxStore) error {
		e, err := store.LockEvent(ctx, req.EventID)
		if err != nil {
			return err
		}
		if e.HasEnded(now) {
			return event.ErrEventEnded
		}
		if e.AvailableSeats < req.TicketQuantity {
			return event.ErrNotEnoughSeats
		}
		slug = e.Slug

		t = &Transaction{
			UserID:         userID,
			EventID:        e.ID,
			TicketQuantity: req.TicketQuantity,
			Status:         StatusPending,
		}

		voucherPct := 0
		if code := strings.TrimSpace(req.VoucherCode); code != "" {
			v, err := store.LockVoucher(ctx, e.ID, code)
			if err != nil {
				return err
			}
			if v.Quota <= 0 {
				return voucher.ErrVoucherUsedUp
			}
			if !v.ActiveAt(now) {
				return voucher.ErrVoucherInactive
			}
			if err := store.ConsumeVoucher(ctx, v.ID); err != nil {
				return err
			}
			voucherPct = v.DiscountPercentage
			t.VoucherID = sql.NullInt64{Int64: v.ID, Valid: true}
		}

		couponRate := 0
		if code := strings.TrimSpace(req.CouponCode); code != "" {
			c, err := store.LockCoupon(ctx, userID, code)
			if err != nil {
				return err
			}
			switch {
			case c == nil:
				return ErrCouponInvalid
			case c.IsUsed:
				return ErrCouponUsed
			case !c.Usable(now):
				return ErrCouponExpired
			}
			if err := store.UseCoupon(ctx, c.ID); err != nil {
				return err
			}
			couponRate = c.DiscountRate
			t.CouponID = sql.NullInt64{Int64: c.ID, Valid: true}
		}

		var grants []*reward.Point
		balance := 0
		if req.PointsToUse > 0 {
			grants, err = store.LockUsablePoints(ctx, userID, now)
			if err != nil {
				return err
			}
			balance = reward.Balance(grants, now)
		}

		pricing = Quote(e.Price, req.TicketQuantity, voucherPct, couponRate, req.PointsToUse, balance)
		if pricing.PointsUsed > 0 {
			plan, ok := reward.PlanConsumption(grants, pricing.PointsUsed)
			if !ok {
				return errors.New("point grants do not cover the planned amount")
			}
			if err := store.DeductPoints(ctx, plan); err != nil {
				return err
			}
		}
		t.PointsUsed = pricing.PointsUsed
		t.TotalPrice = pricing.Total

		if err := store.TakeSeats(ctx, e.ID, req.TicketQuantity); err != nil {
			return err
		}
		return store.Insert(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncTransactionCreated()
	s.invalidate(ctx, slug)
	log.Info().
		Int64("transaction_id", t.ID).
		Int64("user_id", userID).
		Int64("event_id", t.EventID).
		Int("quantity", t.TicketQuantity).
		Str("total", t.TotalPrice.String()).
		Msg("Transaction created")

	return &CreateResponse{Response: t.ToResponse(), Pricing: pricing}, nil
}

// UploadPaymentProof stores image as the proof of a pending transaction
// owned by userID.
func (s *Service) UploadPaymentProof(ctx context.Context, id, userID int64, image io.Reader) (*Transaction, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil || t.UserID != userID {
		return nil, ErrTransactionNotFound
	}
	if !t.IsPending() {
		return nil, ErrNotPending
	}

	url, err := s.uploader.Upload(ctx, image, storage.FolderPaymentProofs)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.SetPaymentProof(ctx, id, url, s.now())
	if err != nil {
		_ = s.uploader.RemoveByURL(ctx, url)
		return nil, err
	}
	if t.PaymentProof.Valid {
		if err := s.uploader.RemoveByURL(ctx, t.PaymentProof.String); err != nil {
			log.Warn().Err(err).Int64("transaction_id", id).Msg("Failed to remove previous payment proof")
		}
	}
	return updated, nil
}

// Accept marks a pending transaction of the organizer's event as PAID.
func (s *Service) Accept(ctx context.Context, id, organizerID int64) (*Transaction, error) {
	st, err := s.settle(ctx, id, ownedBy(organizerID), PlanAcceptance)
	if err != nil {
		return nil, err
	}

	metrics.IncSettlement(metrics.OutcomeAccepted)
	log.Info().Int64("transaction_id", id).Int64("organizer_id", organizerID).Msg("Transaction accepted")
	s.notify(ctx, st)
	return &st.Transaction, nil
}

// Reject marks a pending transaction as REJECTED and returns everything
// it consumed.
func (s *Service) Reject(ctx context.Context, id, organizerID int64) (*Transaction, error) {
	st, err := s.settle(ctx, id, ownedBy(organizerID), PlanRejection)
	if err != nil {
		return nil, err
	}

	metrics.IncSettlement(metrics.OutcomeRejected)
	log.Info().Int64("transaction_id", id).Int64("organizer_id", organizerID).Msg("Transaction rejected")
	s.invalidate(ctx, st.EventSlug)
	s.notify(ctx, st)
	return &st.Transaction, nil
}

// Expire rejects a pending transaction whose proof never arrived. It
// reports false when the transaction no longer qualifies.
func (s *Service) Expire(ctx context.Context, id int64, cutoff time.Time) (bool, error) {
	overdue := func(st *Settlement) error {
		if !st.IsPending() || st.HasPaymentProof() || !st.CreatedAt.Before(cutoff) {
			return errSkip
		}
		return nil
	}

	st, err := s.settle(ctx, id, overdue, PlanRejection)
	if errors.Is(err, errSkip) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	metrics.IncSettlement(metrics.OutcomeExpired)
	log.Info().Int64("transaction_id", id).Msg("Transaction expired without payment proof")
	s.invalidate(ctx, st.EventSlug)
	s.notify(ctx, st)
	return true, nil
}

func ownedBy(organizerID int64) func(*Settlement) error {
	return func(st *Settlement) error {
		if st.OrganizerID != organizerID {
			return ErrTransactionNotFound
		}
		return nil
	}
}

// settle locks the transaction, checks it with authorize, plans the step
// on the locked row and applies the plan, all in one unit.
func (s *Service) settle(
	ctx context.Context,
	id int64,
	authorize func(*Settlement) error,
	planner func(*Transaction, time.Time) (*Plan, error),
) (*Settlement, error) {
	var st *Settlement
	err := s.repo.WithinTx(ctx, func(store TxStore) error {
		locked, err := store.LockSettlement(ctx, id)
		if err != nil {
			return err
		}
		if err := authorize(locked); err != nil {
			return err
		}

		plan, err := planner(&locked.Transaction, s.now())
		if err != nil {
			return err
		}
		if err := store.ApplyPlan(ctx, &locked.Transaction, plan); err != nil {
			return err
		}
		plan.Apply(&locked.Transaction)
		st = locked
		return nil
	})
	return st, err
}

// notify runs after commit. Neither the email nor the push can fail the
// settlement.
func (s *Service) notify(ctx context.Context, st *Settlement) {
	if s.mailer != nil {
		data := email.TransactionEmail{
			Name:           st.UserName,
			EventName:      st.EventName,
			TicketQuantity: st.TicketQuantity,
			TotalPrice:     FormatIDR(st.TotalPrice),
		}
		if st.Status == StatusPaid {
			s.mailer.SendTransactionAccepted(st.UserEmail, data)
		} else {
			s.mailer.SendTransactionRejected(st.UserEmail, data)
		}
	}
	if s.publisher != nil {
		s.publisher.PublishTransactionStatus(ctx, st.UserID, st.ID, string(st.Status))
	}
}

func (s *Service) invalidate(ctx context.Context, slug string) {
	if s.events != nil && slug != "" {
		s.events.Invalidate(ctx, slug)
	}
}

// ListForOrganizer returns transactions of the organizer's events, newest first.
func (s *Service) ListForOrganizer(ctx context.Context, organizerID int64) ([]*ListItem, error) {
	return s.repo.ListByOrganizer(ctx, organizerID)
}

// ListMine returns the buyer's own transactions, newest first.
func (s *Service) ListMine(ctx context.Context, userID int64) ([]*ListItem, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ExpireOverdue rejects up to limit transactions created before cutoff
// that still have no payment proof.
func (s *Service) ExpireOverdue(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	ids, err := s.repo.ListOverdue(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		ok, err := s.Expire(ctx, id, cutoff)
		if err != nil {
			log.Error().Err(err).Int64("transaction_id", id).Msg("Failed to expire transaction")
			continue
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}
