// Package classify derives segment, lifecycle status and the funnel summary
// from raw customer snapshots. Everything here is a pure function over the
// snapshot and an explicit as-of time, so identical inputs always produce
// identical output.
package classify

import (
	"fmt"
	"time"

	"github.com/doorline/wholesale-analytics/internal/domain"
)

// Rules are the business constants behind classification. They are injected
// per call rather than read from package globals so tests and what-if runs
// can substitute alternates.
type Rules struct {
	MajorRevenueMin float64
	MidRevenueMin   float64
	AtRiskDays      int
	ChurningDays    int
	ChurnedDays     int
	DecliningYoYPct float64
}

// DefaultRules returns the production thresholds.
func DefaultRules() Rules {
	return Rules{
		MajorRevenueMin: 20000,
		MidRevenueMin:   5000,
		AtRiskDays:      180,
		ChurningDays:    270,
		ChurnedDays:     365,
		DecliningYoYPct: -20,
	}
}

// Validate rejects rule sets whose thresholds are not strictly ordered.
// A misordered rule set would silently produce overlapping buckets, so this
// fails loudly instead.
func (r Rules) Validate() error {
	if r.MidRevenueMin <= 0 || r.MajorRevenueMin <= r.MidRevenueMin {
		return fmt.Errorf("segment thresholds must satisfy major (%v) > mid (%v) > 0", r.MajorRevenueMin, r.MidRevenueMin)
	}
	if r.AtRiskDays <= 0 || r.ChurningDays <= r.AtRiskDays || r.ChurnedDays <= r.ChurningDays {
		return fmt.Errorf("day thresholds must satisfy 0 < at_risk (%d) < churning (%d) < churned (%d)",
			r.AtRiskDays, r.ChurningDays, r.ChurnedDays)
	}

	return nil
}

// SegmentFor maps lifetime revenue to a tier. Total function, no errors.
func SegmentFor(lifetimeRevenue float64, rules Rules) domain.Segment {
	switch {
	case lifetimeRevenue >= rules.MajorRevenueMin:
		return domain.SegmentMajor
	case lifetimeRevenue >= rules.MidRevenueMin:
		return domain.SegmentMid
	default:
		return domain.SegmentSmall
	}
}

// Classify computes every derived field for one snapshot.
func Classify(c domain.CustomerSnapshot, rules Rules, now time.Time) domain.ClassifiedCustomer {
	out := domain.ClassifiedCustomer{CustomerSnapshot: c}

	// 1. Recency. Nil when the door has never ordered.
	if c.LastSaleDate != nil {
		days := daysBetween(*c.LastSaleDate, now)
		out.DaysSinceLastOrder = &days

		churnYear := c.LastSaleDate.AddDate(0, 0, rules.ChurnedDays).Year()
		out.ChurnYear = &churnYear
	}

	// 2. Lifespan in whole months between first and last sale, floored at 0.
	if c.FirstSaleDate != nil && c.LastSaleDate != nil {
		out.LifespanMonths = monthsBetween(*c.FirstSaleDate, *c.LastSaleDate)
	}

	// 3. Revenue tier.
	out.Segment = SegmentFor(c.LifetimeRevenue, rules)

	// 4. Lifecycle bucket. Doors that never produced a real order stay in
	// no_history regardless of dates; they are reported elsewhere but never
	// counted as churned.
	out.Status = statusFor(out, rules)

	// 5. Cross-cutting tags.
	if c.YoYRevenueChangePct != nil && *c.YoYRevenueChangePct < rules.DecliningYoYPct {
		out.IsDeclining = true
	}
	if c.WasChurned && out.Status != domain.StatusChurned && out.Status != domain.StatusNoHistory {
		out.IsReactivated = true
	}

	return out
}

// ClassifyAll classifies a whole snapshot set with a single rules/now pair.
func ClassifyAll(snapshots []domain.CustomerSnapshot, rules Rules, now time.Time) []domain.ClassifiedCustomer {
	out := make([]domain.ClassifiedCustomer, 0, len(snapshots))
	for _, c := range snapshots {
		out = append(out, Classify(c, rules, now))
	}

	return out
}

// BuildFunnel aggregates lifecycle counts over one classified set.
// Active+AtRisk+Churning+Churned equals Population by construction.
func BuildFunnel(classified []domain.ClassifiedCustomer) domain.Funnel {
	var f domain.Funnel
	for _, c := range classified {
		if !c.InFunnel() {
			continue
		}

		f.Population++
		switch c.Status {
		case domain.StatusHealthy:
			f.Active++
			if c.IsDeclining {
				f.HealthyDeclining++
			}
		case domain.StatusAtRisk:
			f.AtRisk++
		case domain.StatusChurning:
			f.Churning++
		case domain.StatusChurned:
			f.Churned++
		}

		if c.IsReactivated {
			f.Reactivated++
		}
	}

	return f
}

func statusFor(c domain.ClassifiedCustomer, rules Rules) domain.HealthStatus {
	if c.DaysSinceLastOrder == nil || !c.IsRealCustomer() {
		return domain.StatusNoHistory
	}

	days := *c.DaysSinceLastOrder
	switch {
	case days < rules.AtRiskDays:
		return domain.StatusHealthy
	case days < rules.ChurningDays:
		return domain.StatusAtRisk
	case days < rules.ChurnedDays:
		return domain.StatusChurning
	default:
		return domain.StatusChurned
	}
}

func daysBetween(from, to time.Time) int {
	days := int(to.Sub(from).Hours() / 24)
	if days < 0 {
		return 0
	}

	return days
}

func monthsBetween(first, last time.Time) int {
	months := (last.Year()-first.Year())*12 + int(last.Month()) - int(first.Month())
	if last.Day() < first.Day() {
		months--
	}
	if months < 0 {
		return 0
	}

	return months
}
