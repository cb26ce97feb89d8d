package transaction

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhub/eventhub-api/internal/domain/event"
	"github.com/eventhub/eventhub-api/internal/domain/reward"
	"github.com/eventhub/eventhub-api/internal/domain/voucher"
	"github.com/eventhub/eventhub-api/internal/pkg/email"
)

// memState is the data a fake unit of work reads and writes.
type memState struct {
	events   map[int64]event.Event
	vouchers map[int64]voucher.Voucher
	coupons  map[int64]reward.Coupon
	points   map[int64]reward.Point
	txs      map[int64]Settlement
	nextID   int64
}

func newMemState() *memState {
	return &memState{
		events:   map[int64]event.Event{},
		vouchers: map[int64]voucher.Voucher{},
		coupons:  map[int64]reward.Coupon{},
		points:   map[int64]reward.Point{},
		txs:      map[int64]Settlement{},
		nextID:   100,
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	c.nextID = s.nextID
	for k, v := range s.events {
		c.events[k] = v
	}
	for k, v := range s.vouchers {
		c.vouchers[k] = v
	}
	for k, v := range s.coupons {
		c.coupons[k] = v
	}
	for k, v := range s.points {
		c.points[k] = v
	}
	for k, v := range s.txs {
		c.txs[k] = v
	}
	return c
}

func (s *memState) id() int64 {
	s.nextID++
	return s.nextID
}

// fakeRepo commits a unit of work only when fn succeeds.
type fakeRepo struct {
	mu    sync.Mutex
	state *memState

	// failVoucher makes ApplyPlan fail at the voucher quota step.
	failVoucher error
}

func (r *fakeRepo) WithinTx(ctx context.Context, fn func(TxStore) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	work := r.state.clone()
	if err := fn(&memTx{s: work, failVoucher: r.failVoucher}); err != nil {
		return err
	}
	r.state = work
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id int64) (*Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.state.txs[id]
	if !ok {
		return nil, nil
	}
	return &st.Transaction, nil
}

func (r *fakeRepo) SetPaymentProof(ctx context.Context, id int64, url string, at time.Time) (*Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.state.txs[id]
	if !ok || !st.IsPending() {
		return nil, ErrNotPending
	}
	st.PaymentProof = sql.NullString{String: url, Valid: true}
	st.PaymentProofUploadedAt = sql.NullTime{Time: at, Valid: true}
	r.state.txs[id] = st
	return &st.Transaction, nil
}

func (r *fakeRepo) list(keep func(Settlement) bool) []*ListItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*ListItem
	for _, st := range r.state.txs {
		if keep(st) {
			items = append(items, &ListItem{Transaction: st.Transaction, EventName: st.EventName})
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	return items
}

func (r *fakeRepo) ListByOrganizer(ctx context.Context, organizerID int64) ([]*ListItem, error) {
	return r.list(func(st Settlement) bool { return st.OrganizerID == organizerID }), nil
}

func (r *fakeRepo) ListByUser(ctx context.Context, userID int64) ([]*ListItem, error) {
	return r.list(func(st Settlement) bool { return st.UserID == userID }), nil
}

func (r *fakeRepo) ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for id, st := range r.state.txs {
		if st.IsPending() && !st.HasPaymentProof() && st.CreatedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

type memTx struct {
	s           *memState
	failVoucher error
}

func (m *memTx) LockSettlement(ctx context.Context, id int64) (*Settlement, error) {
	st, ok := m.s.txs[id]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	return &st, nil
}

func (m *memTx) ApplyPlan(ctx context.Context, t *Transaction, plan *Plan) error {
	st := m.s.txs[t.ID]
	if st.Status != plan.From {
		return ErrNotPending
	}
	st.Status = plan.To
	if plan.ConfirmedAt.Valid {
		st.ConfirmedAt = plan.ConfirmedAt
	}
	m.s.txs[t.ID] = st

	c := plan.Compensation
	if c == nil {
		return nil
	}
	if c.PointsToReissue > 0 {
		id := m.s.id()
		m.s.points[id] = reward.Point{
			ID: id, UserID: c.UserID, Amount: c.PointsToReissue,
			RemainingAmount: c.PointsToReissue, ExpiredAt: c.PointsExpireAt,
		}
	}
	if c.VoucherID != 0 {
		if m.failVoucher != nil {
			return m.failVoucher
		}
		v := m.s.vouchers[c.VoucherID]
		v.Quota++
		m.s.vouchers[c.VoucherID] = v
	}
	if c.CouponID != 0 {
		cp := m.s.coupons[c.CouponID]
		cp.IsUsed = false
		m.s.coupons[c.CouponID] = cp
	}
	if c.Seats > 0 {
		return m.TakeSeats(ctx, c.EventID, -c.Seats)
	}
	return nil
}

func (m *memTx) LockEvent(ctx context.Context, id int64) (*event.Event, error) {
	e, ok := m.s.events[id]
	if !ok {
		return nil, event.ErrEventNotFound
	}
	return &e, nil
}

func (m *memTx) LockVoucher(ctx context.Context, eventID int64, code string) (*voucher.Voucher, error) {
	for _, v := range m.s.vouchers {
		if v.EventID == eventID && v.VoucherCode == strings.ToUpper(code) {
			return &v, nil
		}
	}
	return nil, voucher.ErrVoucherNotFound
}

func (m *memTx) LockCoupon(ctx context.Context, userID int64, code string) (*reward.Coupon, error) {
	for _, c := range m.s.coupons {
		if c.UserID == userID && c.CouponCode == code {
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memTx) LockUsablePoints(ctx context.Context, userID int64, now time.Time) ([]*reward.Point, error) {
	var out []*reward.Point
	for _, p := range m.s.points {
		if p.UserID == userID && p.RemainingAmount > 0 && p.ExpiredAt.After(now) {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiredAt.Before(out[j].ExpiredAt) })
	return out, nil
}

func (m *memTx) ConsumeVoucher(ctx context.Context, voucherID int64) error {
	v := m.s.vouchers[voucherID]
	if v.Quota <= 0 {
		return voucher.ErrVoucherUsedUp
	}
	v.Quota--
	m.s.vouchers[voucherID] = v
	return nil
}

func (m *memTx) UseCoupon(ctx context.Context, couponID int64) error {
	c := m.s.coupons[couponID]
	c.IsUsed = true
	m.s.coupons[couponID] = c
	return nil
}

func (m *memTx) DeductPoints(ctx context.Context, plan []reward.Deduction) error {
	for _, d := range plan {
		p := m.s.points[d.PointID]
		if p.RemainingAmount < d.Amount {
			return errors.New("insufficient remaining amount")
		}
		p.RemainingAmount -= d.Amount
		m.s.points[d.PointID] = p
	}
	return nil
}

func (m *memTx) TakeSeats(ctx context.Context, eventID int64, quantity int) error {
	e := m.s.events[eventID]
	left := e.AvailableSeats - quantity
	if left < 0 || left > e.TotalSeats {
		return event.ErrNotEnoughSeats
	}
	e.AvailableSeats = left
	m.s.events[eventID] = e
	return nil
}

func (m *memTx) Insert(ctx context.Context, t *Transaction) error {
	t.ID = m.s.id()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	e := m.s.events[t.EventID]
	m.s.txs[t.ID] = Settlement{
		Transaction: *t,
		OrganizerID: e.OrganizerID,
		EventName:   e.Name,
		EventSlug:   e.Slug,
	}
	return nil
}

type sentEmail struct {
	to       string
	accepted bool
	data     email.TransactionEmail
}

type fakeMailer struct {
	sent []sentEmail
}

func (m *fakeMailer) SendTransactionAccepted(to string, data email.TransactionEmail) {
	m.sent = append(m.sent, sentEmail{to: to, accepted: true, data: data})
}

func (m *fakeMailer) SendTransactionRejected(to string, data email.TransactionEmail) {
	m.sent = append(m.sent, sentEmail{to: to, data: data})
}

type published struct {
	userID, transactionID int64
	status                string
}

type fakePublisher struct {
	events []published
}

func (p *fakePublisher) PublishTransactionStatus(ctx context.Context, userID, transactionID int64, status string) {
	p.events = append(p.events, published{userID, transactionID, status})
}

type fakeCache struct {
	invalidated []string
}

func (c *fakeCache) Invalidate(ctx context.Context, slug string) {
	c.invalidated = append(c.invalidated, slug)
}

type fakeUploader struct {
	uploaded []string
	removed  []string
}

func (u *fakeUploader) Upload(ctx context.Context, reader io.Reader, folder string) (string, error) {
	url := "/uploads/" + folder + "/proof-" + string(rune('a'+len(u.uploaded))) + ".jpg"
	u.uploaded = append(u.uploaded, url)
	return url, nil
}

func (u *fakeUploader) RemoveByURL(ctx context.Context, url string) error {
	u.removed = append(u.removed, url)
	return nil
}

const (
	organizerID = int64(2)
	buyerID     = int64(5)
	eventID     = int64(3)
)

type fixture struct {
	repo      *fakeRepo
	mailer    *fakeMailer
	publisher *fakePublisher
	cache     *fakeCache
	uploader  *fakeUploader
	service   *Service
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	state := newMemState()
	state.events[eventID] = event.Event{
		ID:             eventID,
		OrganizerID:    organizerID,
		Name:           "Jazz Night",
		Slug:           "jazz-night",
		Price:          decimal.NewFromInt(100000),
		TotalSeats:     20,
		AvailableSeats: 10,
		StartDate:      now.Add(48 * time.Hour),
		EndDate:        now.Add(52 * time.Hour),
	}

	f := &fixture{
		repo:      &fakeRepo{state: state},
		mailer:    &fakeMailer{},
		publisher: &fakePublisher{},
		cache:     &fakeCache{},
		uploader:  &fakeUploader{},
		now:       now,
	}
	f.service = NewService(f.repo, f.uploader, f.mailer, f.publisher, f.cache)
	f.service.now = func() time.Time { return f.now }
	return f
}

// seedPending stores the transaction from the rejection walkthrough:
// two seats, 200 points and voucher 7 whose quota has run out.
func (f *fixture) seedPending() {
	f.repo.state.vouchers[7] = voucher.Voucher{
		ID: 7, EventID: eventID, VoucherCode: "EARLY", DiscountPercentage: 10, Quota: 0,
		StartDate: f.now.Add(-time.Hour), EndDate: f.now.Add(24 * time.Hour),
	}
	f.repo.state.txs[1] = Settlement{
		Transaction: Transaction{
			ID:             1,
			UserID:         buyerID,
			EventID:        eventID,
			TicketQuantity: 2,
			TotalPrice:     decimal.NewFromInt(179800),
			PointsUsed:     200,
			VoucherID:      sql.NullInt64{Int64: 7, Valid: true},
			Status:         StatusPending,
			CreatedAt:      f.now.Add(-time.Hour),
		},
		OrganizerID: organizerID,
		EventName:   "Jazz Night",
		EventSlug:   "jazz-night",
		UserName:    "Budi",
		UserEmail:   "budi@example.com",
	}
}

func (f *fixture) pointsOf(userID int64) []reward.Point {
	var out []reward.Point
	for _, p := range f.repo.state.points {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out
}

func TestRejectReturnsConsumedResources(t *testing.T) {
	f := newFixture(t)
	f.seedPending()

	tx, err := f.service.Reject(context.Background(), 1, organizerID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, tx.Status)

	state := f.repo.state
	assert.Equal(t, StatusRejected, state.txs[1].Status)
	assert.Equal(t, 12, state.events[eventID].AvailableSeats)
	assert.Equal(t, 1, state.vouchers[7].Quota)

	points := f.pointsOf(buyerID)
	require.Len(t, points, 1)
	assert.Equal(t, 200, points[0].Amount)
	assert.Equal(t, 200, points[0].RemainingAmount)
	assert.Equal(t, reward.ExpiryFrom(f.now), points[0].ExpiredAt)

	require.Len(t, f.mailer.sent, 1)
	assert.False(t, f.mailer.sent[0].accepted)
	assert.Equal(t, "budi@example.com", f.mailer.sent[0].to)
	assert.Equal(t, "IDR 179.800", f.mailer.sent[0].data.TotalPrice)
	assert.Equal(t, []published{{buyerID, 1, "REJECTED"}}, f.publisher.events)
	assert.Equal(t, []string{"jazz-night"}, f.cache.invalidated)
}

func TestRejectRestoresCoupon(t *testing.T) {
	f := newFixture(t)
	f.seedPending()
	f.repo.state.coupons[9] = reward.Coupon{ID: 9, UserID: buyerID, CouponCode: "REF-1", DiscountRate: 10, IsUsed: true}
	st := f.repo.state.txs[1]
	st.CouponID = sql.NullInt64{Int64: 9, Valid: true}
	f.repo.state.txs[1] = st

	_, err := f.service.Reject(context.Background(), 1, organizerID)
	require.NoError(t, err)
	assert.False(t, f.repo.state.coupons[9].IsUsed)
}

func TestAcceptTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	f.seedPending()
	ctx := context.Background()

	tx, err := f.service.Accept(ctx, 1, organizerID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, tx.Status)
	assert.True(t, tx.ConfirmedAt.Valid)
	assert.Equal(t, f.now, f.repo.state.txs[1].ConfirmedAt.Time)
	assert.Empty(t, f.pointsOf(buyerID), "accepting never reissues points")
	assert.Equal(t, 10, f.repo.state.events[eventID].AvailableSeats)

	_, err = f.service.Accept(ctx, 1, organizerID)
	assert.True(t, errors.Is(err, ErrNotPending))
	_, err = f.service.Reject(ctx, 1, organizerID)
	assert.True(t, errors.Is(err, ErrNotPending))

	assert.Equal(t, StatusPaid, f.repo.state.txs[1].Status)
	require.Len(t, f.mailer.sent, 1)
	assert.True(t, f.mailer.sent[0].accepted)
	assert.Equal(t, []published{{buyerID, 1, "PAID"}}, f.publisher.events)
}

func TestSettledRejectionIsNotCompensatedTwice(t *testing.T) {
	f := newFixture(t)
	f.seedPending()
	ctx := context.Background()

	_, err := f.service.Reject(ctx, 1, organizerID)
	require.NoError(t, err)

	_, err = f.service.Reject(ctx, 1, organizerID)
	assert.True(t, errors.Is(err, ErrNotPending))
	_, err = f.service.Accept(ctx, 1, organizerID)
	assert.True(t, errors.Is(err, ErrNotPending))

	state := f.repo.state
	assert.Equal(t, StatusRejected, state.txs[1].Status)
	assert.Equal(t, 12, state.events[eventID].AvailableSeats)
	assert.Equal(t, 1, state.vouchers[7].Quota)
	points := f.pointsOf(buyerID)
	require.Len(t, points, 1)
	assert.Equal(t, 200, points[0].RemainingAmount)
	assert.Len(t, f.mailer.sent, 1)
	assert.Len(t, f.publisher.events, 1)
}

func TestConcurrentAcceptAndRejectSettleOnce(t *testing.T) {
	f := newFixture(t)
	f.seedPending()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = f.service.Accept(ctx, 1, organizerID)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = f.service.Reject(ctx, 1, organizerID)
	}()
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, ErrNotPending), "unexpected error %v", err)
	}
	require.Equal(t, 1, succeeded)

	state := f.repo.state
	if errs[0] == nil {
		assert.Equal(t, StatusPaid, state.txs[1].Status)
		assert.Equal(t, 10, state.events[eventID].AvailableSeats)
		assert.Equal(t, 0, state.vouchers[7].Quota)
		assert.Empty(t, f.pointsOf(buyerID))
	} else {
		assert.Equal(t, StatusRejected, state.txs[1].Status)
		assert.Equal(t, 12, state.events[eventID].AvailableSeats)
		assert.Equal(t, 1, state.vouchers[7].Quota)
		assert.Len(t, f.pointsOf(buyerID), 1)
	}
}

func TestRejectLeavesNothingBehindWhenCompensationFails(t *testing.T) {
	f := newFixture(t)
	f.seedPending()
	f.repo.failVoucher = errors.New("voucher update failed")

	_, err := f.service.Reject(context.Background(), 1, organizerID)
	require.Error(t, err)

	state := f.repo.state
	assert.Equal(t, StatusPending, state.txs[1].Status)
	assert.Equal(t, 10, state.events[eventID].AvailableSeats)
	assert.Equal(t, 0, state.vouchers[7].Quota)
	assert.Empty(t, f.pointsOf(buyerID))
	assert.Empty(t, f.mailer.sent)
	assert.Empty(t, f.publisher.events)
	assert.Empty(t, f.cache.invalidated)

	f.repo.failVoucher = nil
	_, err = f.service.Reject(context.Background(), 1, organizerID)
	require.NoError(t, err)
	assert.Equal(t, 12, f.repo.state.events[eventID].AvailableSeats)
}

func TestSettleHidesOtherOrganizersTransactions(t *testing.T) {
	f := newFixture(t)
	f.seedPending()

	_, err := f.service.Accept(context.Background(), 1, 99)
	assert.True(t, errors.Is(err, ErrTransactionNotFound))
	_, err = f.service.Reject(context.Background(), 404, organizerID)
	assert.True(t, errors.Is(err, ErrTransactionNotFound))
	assert.Equal(t, StatusPending, f.repo.state.txs[1].Status)
}

func TestSettleWithoutNotifiers(t *testing.T) {
	f := newFixture(t)
	f.seedPending()
	f.service = NewService(f.repo, f.uploader, nil, nil, nil)

	_, err := f.service.Reject(context.Background(), 1, organizerID)
	require.NoError(t, err)
}

func TestCreateAppliesDiscountsAndPoints(t *testing.T) {
	f := newFixture(t)
	state := f.repo.state
	state.vouchers[7] = voucher.Voucher{
		ID: 7, EventID: eventID, VoucherCode: "EARLY", DiscountPercentage: 10, Quota: 3,
		StartDate: f.now.Add(-time.Hour), EndDate: f.now.Add(24 * time.Hour),
	}
	state.coupons[9] = reward.Coupon{
		ID: 9, UserID: buyerID, CouponCode: "REF-ABC", DiscountRate: 10, ExpiredAt: f.now.Add(time.Hour),
	}
	state.points[1] = reward.Point{ID: 1, UserID: buyerID, Amount: 3000, RemainingAmount: 3000, ExpiredAt: f.now.Add(time.Hour)}
	state.points[2] = reward.Point{ID: 2, UserID: buyerID, Amount: 5000, RemainingAmount: 5000, ExpiredAt: f.now.Add(48 * time.Hour)}

	result, err := f.service.Create(context.Background(), buyerID, &CreateRequest{
		EventID:        eventID,
		TicketQuantity: 2,
		PointsToUse:    5000,
		VoucherCode:    "early",
		CouponCode:     "REF-ABC",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, result.Status)
	assert.True(t, result.TotalPrice.Equal(decimal.NewFromInt(157000)), "total %s", result.TotalPrice)
	assert.Equal(t, 5000, result.PointsUsed)
	require.NotNil(t, result.VoucherID)
	require.NotNil(t, result.CouponID)
	assert.True(t, result.Pricing.CouponDiscount.Equal(decimal.NewFromInt(18000)))

	state = f.repo.state
	assert.Equal(t, 8, state.events[eventID].AvailableSeats)
	assert.Equal(t, 2, state.vouchers[7].Quota)
	assert.True(t, state.coupons[9].IsUsed)
	assert.Equal(t, 0, state.points[1].RemainingAmount, "earliest expiry is spent first")
	assert.Equal(t, 3000, state.points[2].RemainingAmount)
	assert.Equal(t, []string{"jazz-night"}, f.cache.invalidated)
}

func TestCreateRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	state := f.repo.state
	state.vouchers[7] = voucher.Voucher{
		ID: 7, EventID: eventID, VoucherCode: "EARLY", DiscountPercentage: 10, Quota: 3,
		StartDate: f.now.Add(-time.Hour), EndDate: f.now.Add(24 * time.Hour),
	}
	state.coupons[9] = reward.Coupon{
		ID: 9, UserID: buyerID, CouponCode: "REF-ABC", DiscountRate: 10, ExpiredAt: f.now.Add(time.Hour), IsUsed: true,
	}

	_, err := f.service.Create(context.Background(), buyerID, &CreateRequest{
		EventID: eventID, TicketQuantity: 1, VoucherCode: "EARLY", CouponCode: "REF-ABC",
	})
	assert.True(t, errors.Is(err, ErrCouponUsed))

	assert.Equal(t, 3, f.repo.state.vouchers[7].Quota)
	assert.Equal(t, 10, f.repo.state.events[eventID].AvailableSeats)
	assert.Empty(t, f.repo.state.txs)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		prepare func(f *fixture)
		req     CreateRequest
		want    error
	}{
		{
			name: "unknown event",
			req:  CreateRequest{EventID: 404, TicketQuantity: 1},
			want: event.ErrEventNotFound,
		},
		{
			name: "not enough seats",
			req:  CreateRequest{EventID: eventID, TicketQuantity: 11},
			want: event.ErrNotEnoughSeats,
		},
		{
			name: "event ended",
			prepare: func(f *fixture) {
				e := f.repo.state.events[eventID]
				e.EndDate = f.now.Add(-time.Minute)
				f.repo.state.events[eventID] = e
			},
			req:  CreateRequest{EventID: eventID, TicketQuantity: 1},
			want: event.ErrEventEnded,
		},
		{
			name: "unknown voucher",
			req:  CreateRequest{EventID: eventID, TicketQuantity: 1, VoucherCode: "NOPE"},
			want: voucher.ErrVoucherNotFound,
		},
		{
			name: "voucher used up",
			prepare: func(f *fixture) {
				f.repo.state.vouchers[7] = voucher.Voucher{
					ID: 7, EventID: eventID, VoucherCode: "EARLY", Quota: 0,
					StartDate: f.now.Add(-time.Hour), EndDate: f.now.Add(time.Hour),
				}
			},
			req:  CreateRequest{EventID: eventID, TicketQuantity: 1, VoucherCode: "EARLY"},
			want: voucher.ErrVoucherUsedUp,
		},
		{
			name: "voucher not started",
			prepare: func(f *fixture) {
				f.repo.state.vouchers[7] = voucher.Voucher{
					ID: 7, EventID: eventID, VoucherCode: "EARLY", Quota: 5,
					StartDate: f.now.Add(time.Hour), EndDate: f.now.Add(2 * time.Hour),
				}
			},
			req:  CreateRequest{EventID: eventID, TicketQuantity: 1, VoucherCode: "EARLY"},
			want: voucher.ErrVoucherInactive,
		},
		{
			name: "coupon of another user",
			prepare: func(f *fixture) {
				f.repo.state.coupons[9] = reward.Coupon{ID: 9, UserID: 77, CouponCode: "REF-ABC", ExpiredAt: f.now.Add(time.Hour)}
			},
			req:  CreateRequest{EventID: eventID, TicketQuantity: 1, CouponCode: "REF-ABC"},
			want: ErrCouponInvalid,
		},
		{
			name: "coupon expired",
			prepare: func(f *fixture) {
				f.repo.state.coupons[9] = reward.Coupon{ID: 9, UserID: buyerID, CouponCode: "REF-ABC", ExpiredAt: f.now.Add(-time.Hour)}
			},
			req:  CreateRequest{EventID: eventID, TicketQuantity: 1, CouponCode: "REF-ABC"},
			want: ErrCouponExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.prepare != nil {
				tt.prepare(f)
			}
			req := tt.req
			_, err := f.service.Create(ctx, buyerID, &req)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestCreatePointsCappedByBalance(t *testing.T) {
	f := newFixture(t)
	f.repo.state.points[1] = reward.Point{ID: 1, UserID: buyerID, Amount: 3000, RemainingAmount: 3000, ExpiredAt: f.now.Add(time.Hour)}
	f.repo.state.points[2] = reward.Point{ID: 2, UserID: buyerID, Amount: 9000, RemainingAmount: 9000, ExpiredAt: f.now.Add(-time.Hour)}

	result, err := f.service.Create(context.Background(), buyerID, &CreateRequest{
		EventID: eventID, TicketQuantity: 1, PointsToUse: 10000,
	})
	require.NoError(t, err)
	assert.Equal(t, 3000, result.PointsUsed, "expired grants do not count")
	assert.True(t, result.TotalPrice.Equal(decimal.NewFromInt(97000)))
	assert.Equal(t, 9000, f.repo.state.points[2].RemainingAmount)
}

func TestUploadPaymentProof(t *testing.T) {
	f := newFixture(t)
	f.seedPending()
	ctx := context.Background()

	_, err := f.service.UploadPaymentProof(ctx, 1, 99, strings.NewReader("img"))
	assert.True(t, errors.Is(err, ErrTransactionNotFound))

	tx, err := f.service.UploadPaymentProof(ctx, 1, buyerID, strings.NewReader("img"))
	require.NoError(t, err)
	assert.True(t, tx.PaymentProof.Valid)
	assert.Equal(t, f.now, tx.PaymentProofUploadedAt.Time)

	_, err = f.service.UploadPaymentProof(ctx, 1, buyerID, strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, []string{f.uploader.uploaded[0]}, f.uploader.removed, "replaced proof is removed")

	_, err = f.service.Accept(ctx, 1, organizerID)
	require.NoError(t, err)
	_, err = f.service.UploadPaymentProof(ctx, 1, buyerID, strings.NewReader("img"))
	assert.True(t, errors.Is(err, ErrNotPending))
}

func TestExpireOverdue(t *testing.T) {
	f := newFixture(t)
	f.seedPending()

	withProof := f.repo.state.txs[1]
	withProof.ID = 2
	withProof.VoucherID = sql.NullInt64{}
	withProof.PaymentProof = sql.NullString{String: "/uploads/p.jpg", Valid: true}
	f.repo.state.txs[2] = withProof

	recent := f.repo.state.txs[1]
	recent.ID = 3
	recent.CreatedAt = f.now
	f.repo.state.txs[3] = recent

	cutoff := f.now.Add(-30 * time.Minute)
	n, err := f.service.ExpireOverdue(context.Background(), cutoff, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, StatusRejected, f.repo.state.txs[1].Status)
	assert.Equal(t, StatusPending, f.repo.state.txs[2].Status)
	assert.Equal(t, StatusPending, f.repo.state.txs[3].Status)
	assert.Equal(t, 12, f.repo.state.events[eventID].AvailableSeats)
	assert.Equal(t, []published{{buyerID, 1, "REJECTED"}}, f.publisher.events)
}

func TestExpireSkipsSettledTransaction(t *testing.T) {
	f := newFixture(t)
	f.seedPending()
	ctx := context.Background()

	_, err := f.service.Accept(ctx, 1, organizerID)
	require.NoError(t, err)

	ok, err := f.service.Expire(ctx, 1, f.now)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, StatusPaid, f.repo.state.txs[1].Status)
}

func TestListings(t *testing.T) {
	f := newFixture(t)
	f.seedPending()
	ctx := context.Background()

	mine, err := f.service.ListMine(ctx, buyerID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	forOrganizer, err := f.service.ListForOrganizer(ctx, organizerID)
	require.NoError(t, err)
	assert.Len(t, forOrganizer, 1)

	none, err := f.service.ListForOrganizer(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, none)
}
