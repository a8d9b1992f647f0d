package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/doorline/wholesale-analytics/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

// Planning run before the forecast year starts: every month is remaining.
var planningNow = time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)

func baseDrivers() domain.ForecastDrivers {
	return domain.ForecastDrivers{
		Year:                  2026,
		ExpectedChurnPct:      floatPtr(0.17),
		OrganicGrowthPct:      0.11,
		ReturningDoorAvgYield: 10000,
		AnnualTarget:          2000000,
	}
}

func TestNoNewDoorsScenario(t *testing.T) {
	p, err := Project(baseDrivers(), 200, planningNow)
	if err != nil {
		t.Fatal(err)
	}

	if p.ExpectedChurnDoors != 34 {
		t.Fatalf("expected churn doors = %d, want 34", p.ExpectedChurnDoors)
	}
	if p.RetainedDoors != 166 {
		t.Fatalf("retained doors = %d, want 166", p.RetainedDoors)
	}
	if !almostEqual(p.ExistingDoorBaseRevenue, 1660000) {
		t.Fatalf("existing door base = %v, want 1660000", p.ExistingDoorBaseRevenue)
	}
	if !almostEqual(p.OrganicGrowthRevenue, 182600) {
		t.Fatalf("organic growth revenue = %v, want 182600", p.OrganicGrowthRevenue)
	}
	if !almostEqual(p.ProjectedRevenue, 1842600) {
		t.Fatalf("projected revenue = %v, want 1842600", p.ProjectedRevenue)
	}
	if p.EndingDoors != 166 {
		t.Fatalf("ending doors = %d, want 166", p.EndingDoors)
	}
}

func TestGapAndDoorsNeeded(t *testing.T) {
	d := baseDrivers()
	d.NewDoorTargets = []domain.SegmentDoorTarget{
		{Segment: domain.SegmentMid, Doors: 10, AvgFirstYearYield: 8000},
	}

	p, err := Project(d, 200, planningNow)
	if err != nil {
		t.Fatal(err)
	}

	// Full remaining year: factor is the average of (13-m)/12 over m=1..12.
	if !almostEqual(p.RemainingFactor, 78.0/144.0) {
		t.Fatalf("remaining factor = %v, want %v", p.RemainingFactor, 78.0/144.0)
	}
	wantNewDoor := 10 * 8000 * (78.0 / 144.0)
	if !almostEqual(p.NewDoorRevenue, wantNewDoor) {
		t.Fatalf("new door revenue = %v, want %v", p.NewDoorRevenue, wantNewDoor)
	}

	wantGap := 2000000 - (1842600 + wantNewDoor)
	if !almostEqual(p.GapToTarget, wantGap) {
		t.Fatalf("gap = %v, want %v", p.GapToTarget, wantGap)
	}
	if !almostEqual(p.GapPct, wantGap/2000000*100) {
		t.Fatalf("gap pct = %v", p.GapPct)
	}

	wantNeeded := int(math.Ceil(wantGap / (8000 * 78.0 / 144.0)))
	if p.DoorsNeededToCloseGap == nil || *p.DoorsNeededToCloseGap != wantNeeded {
		t.Fatalf("doors needed = %v, want %d", p.DoorsNeededToCloseGap, wantNeeded)
	}
	if p.EndingDoors != 176 {
		t.Fatalf("ending doors = %d, want 176", p.EndingDoors)
	}
}

func TestNoHintWhenAheadOfTarget(t *testing.T) {
	d := baseDrivers()
	d.AnnualTarget = 1000000

	p, err := Project(d, 200, planningNow)
	if err != nil {
		t.Fatal(err)
	}
	if p.GapToTarget >= 0 {
		t.Fatalf("gap = %v, expected negative (ahead of target)", p.GapToTarget)
	}
	if p.DoorsNeededToCloseGap != nil {
		t.Fatal("no doors-needed hint expected when ahead of target")
	}
}

func TestMidYearSplitFactors(t *testing.T) {
	d := baseDrivers()
	d.Year = 2025
	d.NewDoorTargets = []domain.SegmentDoorTarget{
		{Segment: domain.SegmentSmall, Doors: 20, AvgFirstYearYield: 5000},
	}
	d.DoorsAcquiredToDate = intPtr(8)

	// July 1: six months fully elapsed.
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	p, err := Project(d, 200, now)
	if err != nil {
		t.Fatal(err)
	}

	// acquired factor: avg of (13-m)/12 for m=1..6 = (12+11+10+9+8+7)/(12*6)
	wantAcquired := 57.0 / 72.0
	// remaining factor: avg of (13-m)/12 for m=7..12 = (6+5+4+3+2+1)/(12*6)
	wantRemaining := 21.0 / 72.0

	if p.AcquiredFactor == nil || !almostEqual(*p.AcquiredFactor, wantAcquired) {
		t.Fatalf("acquired factor = %v, want %v", p.AcquiredFactor, wantAcquired)
	}
	if !almostEqual(p.RemainingFactor, wantRemaining) {
		t.Fatalf("remaining factor = %v, want %v", p.RemainingFactor, wantRemaining)
	}

	wantRevenue := 8*5000*wantAcquired + 12*5000*wantRemaining
	if !almostEqual(p.NewDoorRevenue, wantRevenue) {
		t.Fatalf("new door revenue = %v, want %v", p.NewDoorRevenue, wantRevenue)
	}
}

func TestAbsoluteChurnDoorsWins(t *testing.T) {
	d := baseDrivers()
	d.ExpectedChurnDoors = intPtr(25)

	p, err := Project(d, 200, planningNow)
	if err != nil {
		t.Fatal(err)
	}
	if p.ExpectedChurnDoors != 25 || p.RetainedDoors != 175 {
		t.Fatalf("churn=%d retained=%d, want 25/175", p.ExpectedChurnDoors, p.RetainedDoors)
	}
}

func TestValidationFailures(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*domain.ForecastDrivers)
		starting int
	}{
		{"negative starting doors", func(d *domain.ForecastDrivers) {}, -1},
		{"churn pct over 1", func(d *domain.ForecastDrivers) { d.ExpectedChurnPct = floatPtr(1.5) }, 200},
		{"negative churn doors", func(d *domain.ForecastDrivers) { d.ExpectedChurnDoors = intPtr(-3) }, 200},
		{"implausible organic growth", func(d *domain.ForecastDrivers) { d.OrganicGrowthPct = 9 }, 200},
		{"negative yield", func(d *domain.ForecastDrivers) { d.ReturningDoorAvgYield = -1 }, 200},
		{"negative segment target", func(d *domain.ForecastDrivers) {
			d.NewDoorTargets = []domain.SegmentDoorTarget{{Segment: domain.SegmentMid, Doors: -5, AvgFirstYearYield: 100}}
		}, 200},
		{"churn exceeds starting doors", func(d *domain.ForecastDrivers) { d.ExpectedChurnDoors = intPtr(300) }, 200},
	}

	for _, tc := range cases {
		d := baseDrivers()
		tc.mutate(&d)
		if _, err := Project(d, tc.starting, planningNow); err == nil {
			t.Fatalf("%s: expected an error", tc.name)
		}
	}
}

func TestZeroTargetGapPct(t *testing.T) {
	d := baseDrivers()
	d.AnnualTarget = 0

	p, err := Project(d, 200, planningNow)
	if err != nil {
		t.Fatal(err)
	}
	if p.GapPct != 0 {
		t.Fatalf("gap pct = %v, want 0 for a zero target", p.GapPct)
	}
}

func TestFactorBounds(t *testing.T) {
	if got := remainingFactor(12); got != 0 {
		t.Fatalf("remaining factor after year end = %v, want 0", got)
	}
	if got := acquiredFactor(0); got != 0 {
		t.Fatalf("acquired factor before year start = %v, want 0", got)
	}
	// Both factors are fractions of a year.
	for m := 0; m <= 12; m++ {
		if f := acquiredFactor(m); f < 0 || f > 1 {
			t.Fatalf("acquiredFactor(%d) = %v out of [0,1]", m, f)
		}
		if f := remainingFactor(m); f < 0 || f > 1 {
			t.Fatalf("remainingFactor(%d) = %v out of [0,1]", m, f)
		}
	}
}
