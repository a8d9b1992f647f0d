package classify

import (
	"testing"
	"time"

	"github.com/doorline/wholesale-analytics/internal/domain"
)

var testNow = time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)

func snapshotLastOrderedDaysAgo(days int) domain.CustomerSnapshot {
	last := testNow.AddDate(0, 0, -days)
	first := last.AddDate(-1, 0, 0)
	return domain.CustomerSnapshot{
		ID:              1,
		Name:            "Test Door",
		FirstSaleDate:   &first,
		LastSaleDate:    &last,
		LifetimeRevenue: 1000,
		LifetimeOrders:  3,
	}
}

func TestSegmentBoundaries(t *testing.T) {
	rules := DefaultRules()
	cases := []struct {
		revenue float64
		want    domain.Segment
	}{
		{4999.99, domain.SegmentSmall},
		{5000, domain.SegmentMid},
		{19999.99, domain.SegmentMid},
		{20000, domain.SegmentMajor},
		{0, domain.SegmentSmall},
	}

	for _, tc := range cases {
		if got := SegmentFor(tc.revenue, rules); got != tc.want {
			t.Fatalf("SegmentFor(%v) = %q, want %q", tc.revenue, got, tc.want)
		}
	}
}

func TestStatusBoundaries(t *testing.T) {
	rules := DefaultRules()
	cases := []struct {
		days int
		want domain.HealthStatus
	}{
		{0, domain.StatusHealthy},
		{179, domain.StatusHealthy},
		{180, domain.StatusAtRisk},
		{269, domain.StatusAtRisk},
		{270, domain.StatusChurning},
		{364, domain.StatusChurning},
		{365, domain.StatusChurned},
		{1000, domain.StatusChurned},
	}

	for _, tc := range cases {
		got := Classify(snapshotLastOrderedDaysAgo(tc.days), rules, testNow)
		if got.Status != tc.want {
			t.Fatalf("days=%d: status = %q, want %q", tc.days, got.Status, tc.want)
		}
		if got.DaysSinceLastOrder == nil || *got.DaysSinceLastOrder != tc.days {
			t.Fatalf("days=%d: derived days_since_last_order = %v", tc.days, got.DaysSinceLastOrder)
		}
	}
}

func TestNoHistory(t *testing.T) {
	c := Classify(domain.CustomerSnapshot{ID: 2, Name: "Never Ordered"}, DefaultRules(), testNow)
	if c.Status != domain.StatusNoHistory {
		t.Fatalf("status = %q, want no_history", c.Status)
	}
	if c.DaysSinceLastOrder != nil || c.ChurnYear != nil {
		t.Fatal("expected nil derived dates for a customer with no sales")
	}
}

func TestZeroRevenueExcluded(t *testing.T) {
	snap := snapshotLastOrderedDaysAgo(400)
	snap.LifetimeRevenue = 0
	c := Classify(snap, DefaultRules(), testNow)
	if c.Status == domain.StatusChurned {
		t.Fatal("a zero-revenue customer must never be classified churned")
	}
	if c.InFunnel() {
		t.Fatal("a zero-revenue customer must not join the funnel population")
	}
}

func TestDecliningTag(t *testing.T) {
	yoy := -25.0
	snap := snapshotLastOrderedDaysAgo(30)
	snap.YoYRevenueChangePct = &yoy

	c := Classify(snap, DefaultRules(), testNow)
	if c.Status != domain.StatusHealthy {
		t.Fatalf("status = %q, want healthy", c.Status)
	}
	if !c.IsDeclining {
		t.Fatal("expected declining tag at -25% YoY")
	}

	yoy = -20.0
	c = Classify(snap, DefaultRules(), testNow)
	if c.IsDeclining {
		t.Fatal("-20% exactly is not declining (strict less-than)")
	}
}

func TestReactivatedTag(t *testing.T) {
	snap := snapshotLastOrderedDaysAgo(30)
	snap.WasChurned = true
	c := Classify(snap, DefaultRules(), testNow)
	if !c.IsReactivated {
		t.Fatal("previously churned door with a recent order should be reactivated")
	}

	snap = snapshotLastOrderedDaysAgo(500)
	snap.WasChurned = true
	c = Classify(snap, DefaultRules(), testNow)
	if c.IsReactivated {
		t.Fatal("a still-churned door is not reactivated")
	}
}

func TestChurnYear(t *testing.T) {
	last := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	snap := domain.CustomerSnapshot{LastSaleDate: &last, LifetimeRevenue: 100, LifetimeOrders: 1}
	c := Classify(snap, DefaultRules(), testNow)
	if c.ChurnYear == nil || *c.ChurnYear != 2025 {
		t.Fatalf("churn year = %v, want 2025", c.ChurnYear)
	}
}

func TestLifespanMonths(t *testing.T) {
	first := time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)
	last := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	snap := domain.CustomerSnapshot{FirstSaleDate: &first, LastSaleDate: &last, LifetimeRevenue: 100, LifetimeOrders: 2}
	c := Classify(snap, DefaultRules(), testNow)
	if c.LifespanMonths != 11 {
		t.Fatalf("lifespan = %d months, want 11", c.LifespanMonths)
	}

	// Same-day first and last sale.
	snap.LastSaleDate = &first
	if got := Classify(snap, DefaultRules(), testNow).LifespanMonths; got != 0 {
		t.Fatalf("lifespan = %d months, want 0", got)
	}
}

func TestFunnelPartition(t *testing.T) {
	rules := DefaultRules()
	snapshots := []domain.CustomerSnapshot{}
	for _, days := range []int{10, 100, 200, 280, 400, 900} {
		s := snapshotLastOrderedDaysAgo(days)
		snapshots = append(snapshots, s)
	}
	// Outside the funnel: never ordered, corporate, zero revenue.
	snapshots = append(snapshots, domain.CustomerSnapshot{Name: "ghost"})
	corp := snapshotLastOrderedDaysAgo(10)
	corp.IsCorporate = true
	snapshots = append(snapshots, corp)
	zero := snapshotLastOrderedDaysAgo(10)
	zero.LifetimeRevenue = 0
	snapshots = append(snapshots, zero)

	f := BuildFunnel(ClassifyAll(snapshots, rules, testNow))
	if f.Population != 6 {
		t.Fatalf("population = %d, want 6", f.Population)
	}
	if sum := f.Active + f.AtRisk + f.Churning + f.Churned; sum != f.Population {
		t.Fatalf("funnel buckets sum to %d, want population %d", sum, f.Population)
	}
	if f.Active != 2 || f.AtRisk != 1 || f.Churning != 1 || f.Churned != 2 {
		t.Fatalf("unexpected funnel: %+v", f)
	}
}

func TestClassifyIdempotent(t *testing.T) {
	snap := snapshotLastOrderedDaysAgo(200)
	a := Classify(snap, DefaultRules(), testNow)
	b := Classify(snap, DefaultRules(), testNow)
	if a.Status != b.Status || *a.DaysSinceLastOrder != *b.DaysSinceLastOrder || a.Segment != b.Segment {
		t.Fatal("classification is not deterministic for fixed snapshot and now")
	}
}

func TestRulesValidate(t *testing.T) {
	bad := DefaultRules()
	bad.ChurningDays = 180
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for non-increasing day thresholds")
	}

	bad = DefaultRules()
	bad.MajorRevenueMin = 5000
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for overlapping segment thresholds")
	}

	if err := DefaultRules().Validate(); err != nil {
		t.Fatalf("default rules should validate: %v", err)
	}
}
