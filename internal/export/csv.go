// Package export renders analytics results as CSV for download endpoints and
// the report archive.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/doorline/wholesale-analytics/internal/domain"
)

// WriteFunnel writes the funnel summary as a two-row CSV.
func WriteFunnel(w io.Writer, funnel domain.Funnel) error {
	return writeAll(w, [][]string{
		{"population", "active", "at_risk", "churning", "churned", "healthy_declining", "reactivated"},
		{
			itoa(funnel.Population), itoa(funnel.Active), itoa(funnel.AtRisk),
			itoa(funnel.Churning), itoa(funnel.Churned),
			itoa(funnel.HealthyDeclining), itoa(funnel.Reactivated),
		},
	})
}

// WriteChurnByYear writes the pool-adjusted churn table.
func WriteChurnByYear(w io.Writer, rows []domain.YearChurn) error {
	records := [][]string{{"year", "churned", "pool", "rate_pct", "flagged"}}
	for _, row := range rows {
		records = append(records, []string{
			itoa(row.Year), itoa(row.Churned), itoa(row.Pool),
			ftoa(row.RatePct), fmt.Sprintf("%t", row.Flagged),
		})
	}
	return writeAll(w, records)
}

// WriteCohortRetention writes the acquisition-cohort retention table.
func WriteCohortRetention(w io.Writer, cohorts []domain.CohortRetention) error {
	records := [][]string{{
		"year", "acquired", "healthy", "at_risk", "churning", "churned",
		"retained", "retention_pct", "is_maturing",
	}}
	for _, c := range cohorts {
		records = append(records, []string{
			itoa(c.Year), itoa(c.Acquired), itoa(c.Healthy), itoa(c.AtRisk),
			itoa(c.Churning), itoa(c.Churned), itoa(c.Retained),
			ftoa(c.RetentionPct), fmt.Sprintf("%t", c.IsMaturing),
		})
	}
	return writeAll(w, records)
}

// WriteDudRates writes the dud-rate cohort table. Unassessable cohorts show
// an empty rate cell rather than 0.
func WriteDudRates(w io.Writer, cohorts []domain.DudCohort) error {
	records := [][]string{{"cohort", "acquired", "mature", "mature_one_time", "dud_rate_pct", "is_mature"}}
	for _, c := range cohorts {
		rate := ""
		if c.DudRatePct != nil {
			rate = ftoa(*c.DudRatePct)
		}
		records = append(records, []string{
			c.Key, itoa(c.Acquired), itoa(c.MatureCount), itoa(c.MatureOneTime),
			rate, fmt.Sprintf("%t", c.IsMature),
		})
	}
	return writeAll(w, records)
}

// WriteCustomers writes the classified customer list with display labels for
// segment and status, the shape account managers paste into spreadsheets.
func WriteCustomers(w io.Writer, customers []domain.ClassifiedCustomer) error {
	records := [][]string{{
		"id", "name", "segment", "status", "lifetime_revenue", "lifetime_orders",
		"days_since_last_order", "lifespan_months",
	}}
	for _, c := range customers {
		days := ""
		if c.DaysSinceLastOrder != nil {
			days = itoa(*c.DaysSinceLastOrder)
		}
		records = append(records, []string{
			fmt.Sprintf("%d", c.ID), c.Name, c.Segment.Label(), c.Status.Label(),
			ftoa(c.LifetimeRevenue), itoa(c.LifetimeOrders),
			days, itoa(c.LifespanMonths),
		})
	}
	return writeAll(w, records)
}

// WriteProjection writes the forecast projection as a key/value CSV, with
// monetary values rounded to whole currency units at this presentation edge.
func WriteProjection(w io.Writer, p domain.ForecastProjection) error {
	records := [][]string{
		{"metric", "value"},
		{"starting_doors", itoa(p.StartingDoors)},
		{"expected_churn_doors", itoa(p.ExpectedChurnDoors)},
		{"retained_doors", itoa(p.RetainedDoors)},
		{"ending_doors", itoa(p.EndingDoors)},
		{"existing_door_base_revenue", money(p.ExistingDoorBaseRevenue)},
		{"organic_growth_revenue", money(p.OrganicGrowthRevenue)},
		{"existing_door_total", money(p.ExistingDoorTotal)},
		{"new_door_revenue", money(p.NewDoorRevenue)},
		{"projected_revenue", money(p.ProjectedRevenue)},
		{"gap_to_target", money(p.GapToTarget)},
		{"gap_pct", ftoa(p.GapPct)},
	}
	if p.DoorsNeededToCloseGap != nil {
		records = append(records, []string{"doors_needed_to_close_gap", itoa(*p.DoorsNeededToCloseGap)})
	}
	return writeAll(w, records)
}

func writeAll(w io.Writer, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

func itoa(v int) string {
	return fmt.Sprintf("%d", v)
}

func ftoa(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func money(v float64) string {
	return fmt.Sprintf("%.0f", v)
}
