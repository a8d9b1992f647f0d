package churn

import (
	"math"
	"testing"
	"time"

	"github.com/doorline/wholesale-analytics/internal/domain"
	"github.com/doorline/wholesale-analytics/internal/engine/classify"
)

var testNow = time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// door builds a classified real customer that last ordered on the given date.
func door(id int64, firstSale, lastSale time.Time) domain.ClassifiedCustomer {
	snap := domain.CustomerSnapshot{
		ID:              id,
		FirstSaleDate:   &firstSale,
		LastSaleDate:    &lastSale,
		LifetimeRevenue: 1000,
		LifetimeOrders:  2,
	}
	return classify.Classify(snap, classify.DefaultRules(), testNow)
}

// healthyDoor last ordered recently so it sits in the healthy bucket.
func healthyDoor(id int64) domain.ClassifiedCustomer {
	return door(id, testNow.AddDate(-2, 0, 0), testNow.AddDate(0, 0, -10))
}

// churnedInYear builds a door whose 365-day churn threshold fell in the given
// calendar year (churn year = last sale year + 1 when the last sale is mid-year).
func churnedInYear(id int64, year int) domain.ClassifiedCustomer {
	lastSale := time.Date(year-1, 6, 1, 0, 0, 0, 0, time.UTC)
	return door(id, lastSale.AddDate(-1, 0, 0), lastSale)
}

func TestRollingRate(t *testing.T) {
	set := []domain.ClassifiedCustomer{
		healthyDoor(1),
		healthyDoor(2),
		healthyDoor(3),
		churnedInYear(4, 2024),
	}
	if got := RollingRate(set); !almostEqual(got, 25) {
		t.Fatalf("rolling rate = %v, want 25", got)
	}
}

func TestRollingRateEmpty(t *testing.T) {
	if got := RollingRate(nil); got != 0 {
		t.Fatalf("rolling rate over empty set = %v, want 0", got)
	}
}

func TestPoolAdjustedByYear(t *testing.T) {
	// 100 doors: 10 churn in 2023, 10 churn in 2024, 80 still healthy.
	set := make([]domain.ClassifiedCustomer, 0, 100)
	var id int64
	for i := 0; i < 10; i++ {
		id++
		set = append(set, churnedInYear(id, 2023))
	}
	for i := 0; i < 10; i++ {
		id++
		set = append(set, churnedInYear(id, 2024))
	}
	for i := 0; i < 80; i++ {
		id++
		set = append(set, healthyDoor(id))
	}

	rows := ByYear(set)
	if len(rows) != 2 {
		t.Fatalf("got %d year rows, want 2", len(rows))
	}

	if rows[0].Year != 2023 || rows[0].Pool != 100 || !almostEqual(rows[0].RatePct, 10) {
		t.Fatalf("2023 row = %+v, want pool 100 rate 10", rows[0])
	}
	if rows[1].Year != 2024 || rows[1].Pool != 90 || !almostEqual(rows[1].RatePct, float64(10)*100/90) {
		t.Fatalf("2024 row = %+v, want pool 90 rate ~11.11", rows[1])
	}
	if rows[0].Flagged || rows[1].Flagged {
		t.Fatal("consistent data must not be flagged")
	}
}

func TestPoolNeverIncreases(t *testing.T) {
	set := []domain.ClassifiedCustomer{
		churnedInYear(1, 2022),
		churnedInYear(2, 2023),
		churnedInYear(3, 2024),
		healthyDoor(4),
	}
	rows := ByYear(set)
	for i := 1; i < len(rows); i++ {
		if rows[i].Pool > rows[i-1].Pool {
			t.Fatalf("pool grew from %d to %d between %d and %d",
				rows[i-1].Pool, rows[i].Pool, rows[i-1].Year, rows[i].Year)
		}
	}
}

func TestCohortRetention(t *testing.T) {
	cohortStart := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)
	set := []domain.ClassifiedCustomer{
		door(1, cohortStart, testNow.AddDate(0, 0, -10)),  // healthy
		door(2, cohortStart, testNow.AddDate(0, 0, -200)), // at risk
		door(3, cohortStart, testNow.AddDate(0, 0, -300)), // churning
		door(4, cohortStart, testNow.AddDate(0, 0, -400)), // churned
	}

	// Data gap: acquired but no last sale date recorded. Counts healthy.
	gap := domain.CustomerSnapshot{ID: 5, FirstSaleDate: &cohortStart, LifetimeRevenue: 50, LifetimeOrders: 1}
	set = append(set, classify.Classify(gap, classify.DefaultRules(), testNow))

	cohorts := CohortRetention(set, testNow)
	if len(cohorts) != 1 {
		t.Fatalf("got %d cohorts, want 1", len(cohorts))
	}

	c := cohorts[0]
	if c.Year != 2022 || c.Acquired != 5 {
		t.Fatalf("cohort = %+v, want year 2022 acquired 5", c)
	}
	if c.Healthy != 2 || c.AtRisk != 1 || c.Churning != 1 || c.Churned != 1 {
		t.Fatalf("breakdown = %+v", c)
	}
	if c.Retained != 4 || !almostEqual(c.RetentionPct, 80) {
		t.Fatalf("retained = %d (%.1f%%), want 4 (80%%)", c.Retained, c.RetentionPct)
	}
	if c.IsMaturing {
		t.Fatal("a 2022 cohort observed in Aug 2025 is fully matured")
	}
}

func TestCohortMaturingFlag(t *testing.T) {
	first := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	set := []domain.ClassifiedCustomer{door(1, first, first)}

	cohorts := CohortRetention(set, testNow)
	if len(cohorts) != 1 || !cohorts[0].IsMaturing {
		t.Fatalf("current-year cohort must be maturing: %+v", cohorts)
	}
}

func TestCohortRetentionExcludesCorporate(t *testing.T) {
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	corp := domain.CustomerSnapshot{
		ID: 1, FirstSaleDate: &first, LastSaleDate: &first,
		LifetimeRevenue: 99999, LifetimeOrders: 5, IsCorporate: true,
	}
	set := []domain.ClassifiedCustomer{classify.Classify(corp, classify.DefaultRules(), testNow)}
	if cohorts := CohortRetention(set, testNow); len(cohorts) != 0 {
		t.Fatalf("corporate accounts must be excluded, got %+v", cohorts)
	}
}
