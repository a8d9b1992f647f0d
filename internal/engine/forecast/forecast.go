// Package forecast implements the bottom-up door-math revenue model:
// retained existing doors plus organic growth plus time-decayed new-door
// revenue, compared against the annual target.
package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/doorline/wholesale-analytics/internal/domain"
)

// Project runs the door-math model for the drivers' year. startingDoors is
// externally computed truth (the active-door count from the classifier) and
// is never recomputed here. Monetary outputs stay unrounded; rounding is a
// presentation concern.
func Project(d domain.ForecastDrivers, startingDoors int, now time.Time) (domain.ForecastProjection, error) {
	var p domain.ForecastProjection
	if err := validate(d, startingDoors); err != nil {
		return p, err
	}

	p.StartingDoors = startingDoors

	// 1. Expected churn in doors. An absolute count wins over a percentage.
	switch {
	case d.ExpectedChurnDoors != nil:
		p.ExpectedChurnDoors = *d.ExpectedChurnDoors
	case d.ExpectedChurnPct != nil:
		p.ExpectedChurnDoors = int(math.Round(float64(startingDoors) * *d.ExpectedChurnPct))
	}
	if p.ExpectedChurnDoors > startingDoors {
		return p, fmt.Errorf("expected churn of %d doors exceeds starting count %d", p.ExpectedChurnDoors, startingDoors)
	}

	// 2-5. Existing-door revenue: retained doors at the returning-door
	// benchmark yield, grown organically.
	p.RetainedDoors = startingDoors - p.ExpectedChurnDoors
	p.ExistingDoorBaseRevenue = float64(p.RetainedDoors) * d.ReturningDoorAvgYield
	p.OrganicGrowthRevenue = p.ExistingDoorBaseRevenue * d.OrganicGrowthPct
	p.ExistingDoorTotal = p.ExistingDoorBaseRevenue + p.OrganicGrowthRevenue

	// 6-7. New-door revenue, decayed for partial-year contribution.
	elapsed := monthsElapsed(d.Year, now)
	p.RemainingFactor = remainingFactor(elapsed)

	totalTarget := 0
	fullYearPotential := 0.0
	for _, tgt := range d.NewDoorTargets {
		totalTarget += tgt.Doors
		fullYearPotential += float64(tgt.Doors) * tgt.AvgFirstYearYield
	}

	if totalTarget > 0 {
		avgYield := fullYearPotential / float64(totalTarget)

		if d.DoorsAcquiredToDate != nil && elapsed > 0 {
			// Mid-year revision: doors already in the books contribute at
			// the acquired factor, the rest at the remaining factor.
			acquired := *d.DoorsAcquiredToDate
			if acquired > totalTarget {
				acquired = totalTarget
			}
			remaining := totalTarget - acquired

			af := acquiredFactor(elapsed)
			p.AcquiredFactor = &af
			p.NewDoorRevenue = float64(acquired)*avgYield*af + float64(remaining)*avgYield*p.RemainingFactor
		} else {
			p.NewDoorRevenue = fullYearPotential * p.RemainingFactor
		}
	}

	// 8-9. Totals.
	p.ProjectedRevenue = p.ExistingDoorTotal + p.NewDoorRevenue
	p.EndingDoors = startingDoors - p.ExpectedChurnDoors + totalTarget

	// 10. Gap to target, with an actionable doors-needed hint when behind.
	p.GapToTarget = d.AnnualTarget - p.ProjectedRevenue
	if d.AnnualTarget != 0 {
		p.GapPct = p.GapToTarget / d.AnnualTarget * 100
	}

	if p.GapToTarget > 0 {
		hintYield := d.ReturningDoorAvgYield
		if totalTarget > 0 {
			hintYield = fullYearPotential / float64(totalTarget)
		}
		if perDoor := hintYield * p.RemainingFactor; perDoor > 0 {
			needed := int(math.Ceil(p.GapToTarget / perDoor))
			p.DoorsNeededToCloseGap = &needed
		}
	}

	return p, nil
}

// monthsElapsed counts fully elapsed months of the forecast year at `now`.
// The current month always counts as remaining.
func monthsElapsed(year int, now time.Time) int {
	switch {
	case now.Year() < year:
		return 0
	case now.Year() > year:
		return 12
	default:
		return int(now.Month()) - 1
	}
}

// acquiredFactor is the average fraction of the year contributed by a door
// acquired during one of the elapsed months. Acquisition is assumed uniform
// across those months; this is a modeling simplification, not a measured
// distribution.
func acquiredFactor(elapsed int) float64 {
	if elapsed <= 0 {
		return 0
	}
	if elapsed > 12 {
		elapsed = 12
	}

	sum := 0.0
	for m := 1; m <= elapsed; m++ {
		sum += float64(12-m+1) / 12
	}

	return sum / float64(elapsed)
}

// remainingFactor is the same average over the months still to come, under
// the same uniform-acquisition assumption.
func remainingFactor(elapsed int) float64 {
	if elapsed >= 12 {
		return 0
	}
	if elapsed < 0 {
		elapsed = 0
	}

	sum := 0.0
	for m := elapsed + 1; m <= 12; m++ {
		sum += float64(12-m+1) / 12
	}

	return sum / float64(12-elapsed)
}

func validate(d domain.ForecastDrivers, startingDoors int) error {
	if startingDoors < 0 {
		return fmt.Errorf("starting doors must be non-negative, got %d", startingDoors)
	}
	if d.ExpectedChurnPct != nil && (*d.ExpectedChurnPct < 0 || *d.ExpectedChurnPct > 1) {
		return fmt.Errorf("expected churn pct must be within [0,1], got %v", *d.ExpectedChurnPct)
	}
	if d.ExpectedChurnDoors != nil && *d.ExpectedChurnDoors < 0 {
		return fmt.Errorf("expected churn doors must be non-negative, got %d", *d.ExpectedChurnDoors)
	}
	if d.OrganicGrowthPct < -1 || d.OrganicGrowthPct > 5 {
		return fmt.Errorf("organic growth pct %v is outside the plausible range [-1,5]", d.OrganicGrowthPct)
	}
	if d.ReturningDoorAvgYield < 0 {
		return fmt.Errorf("returning door yield must be non-negative, got %v", d.ReturningDoorAvgYield)
	}
	if d.DoorsAcquiredToDate != nil && *d.DoorsAcquiredToDate < 0 {
		return fmt.Errorf("doors acquired to date must be non-negative, got %d", *d.DoorsAcquiredToDate)
	}
	for _, tgt := range d.NewDoorTargets {
		if tgt.Doors < 0 {
			return fmt.Errorf("segment %s: door target must be non-negative, got %d", tgt.Segment, tgt.Doors)
		}
		if tgt.AvgFirstYearYield < 0 {
			return fmt.Errorf("segment %s: first-year yield must be non-negative, got %v", tgt.Segment, tgt.AvgFirstYearYield)
		}
	}

	return nil
}
