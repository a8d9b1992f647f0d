// Package churn computes churn rates and cohort retention over a classified
// customer set. All functions are read-only over their inputs.
package churn

import (
	"sort"
	"time"

	"github.com/doorline/wholesale-analytics/internal/domain"
)

// RollingRate is the point-in-time churn rate: churned doors over the full
// funnel population, as a percentage. It moves day to day only because the
// classifier re-buckets doors as recency grows or resets.
func RollingRate(classified []domain.ClassifiedCustomer) float64 {
	var churned, population int
	for _, c := range classified {
		if !c.InFunnel() {
			continue
		}
		population++
		if c.Status == domain.StatusChurned {
			churned++
		}
	}

	if population == 0 {
		return 0
	}

	return float64(churned) * 100 / float64(population)
}

// ByYear buckets churned doors by churn year and rates each year against a
// shrinking pool: doors that churned in an earlier year are no longer
// eligible, so they leave the denominator. Years come back in ascending
// order. A negative pool cannot happen when the input is consistent; if it
// does, the row is flagged and reported as 0% rather than a negative rate.
func ByYear(classified []domain.ClassifiedCustomer) []domain.YearChurn {
	var population int
	churnedByYear := make(map[int]int)
	for _, c := range classified {
		if !c.InFunnel() {
			continue
		}
		population++
		if c.Status == domain.StatusChurned && c.ChurnYear != nil {
			churnedByYear[*c.ChurnYear]++
		}
	}

	years := make([]int, 0, len(churnedByYear))
	for y := range churnedByYear {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]domain.YearChurn, 0, len(years))
	churnedSoFar := 0
	for _, year := range years {
		row := domain.YearChurn{
			Year:    year,
			Churned: churnedByYear[year],
			Pool:    population - churnedSoFar,
		}

		switch {
		case row.Pool > 0:
			row.RatePct = float64(row.Churned) * 100 / float64(row.Pool)
		case row.Pool < 0:
			// Data-integrity fault: more churners than the pool implies.
			row.RatePct = 0
			row.Flagged = true
		}

		churnedSoFar += row.Churned
		out = append(out, row)
	}

	return out
}

// CohortRetention groups all real customers by first-sale year and breaks
// down each cohort by current status. Members with no last sale date count as
// healthy: that is a data-gap default, not a positive signal. A cohort is
// maturing while fewer than 365 days have elapsed since Dec 31 of its
// acquisition year.
func CohortRetention(classified []domain.ClassifiedCustomer, now time.Time) []domain.CohortRetention {
	byYear := make(map[int]*domain.CohortRetention)
	for _, c := range classified {
		if !c.IsRealCustomer() || c.FirstSaleDate == nil {
			continue
		}

		year := c.FirstSaleDate.Year()
		cohort, ok := byYear[year]
		if !ok {
			cohort = &domain.CohortRetention{Year: year}
			byYear[year] = cohort
		}

		cohort.Acquired++
		if c.DaysSinceLastOrder == nil {
			cohort.Healthy++
			continue
		}

		switch c.Status {
		case domain.StatusHealthy:
			cohort.Healthy++
		case domain.StatusAtRisk:
			cohort.AtRisk++
		case domain.StatusChurning:
			cohort.Churning++
		case domain.StatusChurned:
			cohort.Churned++
		}
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]domain.CohortRetention, 0, len(years))
	for _, year := range years {
		cohort := byYear[year]
		cohort.Retained = cohort.Acquired - cohort.Churned
		if cohort.Acquired > 0 {
			cohort.RetentionPct = float64(cohort.Retained) * 100 / float64(cohort.Acquired)
		}

		yearEnd := time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)
		cohort.IsMaturing = now.Sub(yearEnd) < 365*24*time.Hour

		out = append(out, *cohort)
	}

	return out
}
