package reward

import (
	"regexp"
	"testing"
	"time"
)

func TestPlanConsumptionEarliestFirst(t *testing.T) {
	grants := []*Point{
		{ID: 1, RemainingAmount: 300},
		{ID: 2, RemainingAmount: 0},
		{ID: 3, RemainingAmount: 1000},
	}

	plan, ok := PlanConsumption(grants, 500)
	if !ok {
		t.Fatal("expected grants to cover 500")
	}
	if len(plan) != 2 || plan[0] != (Deduction{PointID: 1, Amount: 300}) || plan[1] != (Deduction{PointID: 3, Amount: 200}) {
		t.Fatalf("unexpected plan %+v", plan)
	}
}

func TestPlanConsumptionInsufficient(t *testing.T) {
	if _, ok := PlanConsumption([]*Point{{ID: 1, RemainingAmount: 100}}, 101); ok {
		t.Fatal("expected insufficient balance")
	}
}

func TestPlanConsumptionZero(t *testing.T) {
	plan, ok := PlanConsumption(nil, 0)
	if !ok || plan != nil {
		t.Fatalf("expected empty plan, got %+v %v", plan, ok)
	}
}

func TestBalanceIgnoresExpired(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	grants := []*Point{
		{RemainingAmount: 500, ExpiredAt: now.Add(time.Hour)},
		{RemainingAmount: 700, ExpiredAt: now.Add(-time.Hour)},
	}
	if got := Balance(grants, now); got != 500 {
		t.Fatalf("expected 500, got %d", got)
	}
}

func TestExpiryFromIsThreeMonths(t *testing.T) {
	now := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	if got := ExpiryFrom(now); !got.Equal(time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected expiry %v", got)
	}
}

func TestCouponUsable(t *testing.T) {
	now := time.Now()
	if !(&Coupon{ExpiredAt: now.Add(time.Hour)}).Usable(now) {
		t.Fatal("expected coupon usable")
	}
	if (&Coupon{ExpiredAt: now.Add(time.Hour), IsUsed: true}).Usable(now) {
		t.Fatal("used coupon must not be usable")
	}
	if (&Coupon{ExpiredAt: now.Add(-time.Hour)}).Usable(now) {
		t.Fatal("expired coupon must not be usable")
	}
}

func TestNewCouponCode(t *testing.T) {
	if !regexp.MustCompile(`^REF-[0-9A-F]{8}$`).MatchString(NewCouponCode()) {
		t.Fatal("unexpected coupon code format")
	}
}
