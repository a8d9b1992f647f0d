// Package dud scores acquisition cohorts for doors that placed exactly one
// order and then went quiet past the maturity window.
package dud

import (
	"fmt"
	"sort"
	"time"

	"github.com/doorline/wholesale-analytics/internal/domain"
)

// DefaultMaturityDays is roughly twice the observed median reorder interval.
// A business constant, not derived at runtime.
const DefaultMaturityDays = 133

type cohortKey struct {
	year int
	half int // 0 = whole year, 1/2 = half-year split for the current year
}

func (k cohortKey) String() string {
	if k.half == 0 {
		return fmt.Sprintf("%d", k.year)
	}

	return fmt.Sprintf("%d H%d", k.year, k.half)
}

// ByCohort groups real customers by first-sale cohort and computes the
// fraction of matured members that never reordered. Current-year cohorts are
// split into halves; earlier years stay whole. DudRatePct is nil while a
// cohort has no matured members, because "cannot assess yet" is not "0%".
func ByCohort(classified []domain.ClassifiedCustomer, maturityDays int, now time.Time) []domain.DudCohort {
	if maturityDays <= 0 {
		maturityDays = DefaultMaturityDays
	}

	maturity := time.Duration(maturityDays) * 24 * time.Hour
	buckets := make(map[cohortKey]*domain.DudCohort)

	for _, c := range classified {
		if !c.IsRealCustomer() || c.FirstSaleDate == nil {
			continue
		}

		key := keyFor(*c.FirstSaleDate, now)
		cohort, ok := buckets[key]
		if !ok {
			cohort = &domain.DudCohort{Key: key.String()}
			buckets[key] = cohort
		}

		cohort.Acquired++
		if now.Sub(*c.FirstSaleDate) >= maturity {
			cohort.MatureCount++
			if c.LifetimeOrders == 1 {
				cohort.MatureOneTime++
			}
		}
	}

	keys := make([]cohortKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].half < keys[j].half
	})

	out := make([]domain.DudCohort, 0, len(keys))
	for _, k := range keys {
		cohort := buckets[k]
		if cohort.MatureCount > 0 {
			rate := float64(cohort.MatureOneTime) * 100 / float64(cohort.MatureCount)
			cohort.DudRatePct = &rate
		}
		cohort.IsMature = cohort.MatureCount == cohort.Acquired && cohort.Acquired > 0

		out = append(out, *cohort)
	}

	return out
}

func keyFor(firstSale, now time.Time) cohortKey {
	year := firstSale.Year()
	if year != now.Year() {
		return cohortKey{year: year}
	}

	half := 1
	if firstSale.Month() > time.June {
		half = 2
	}

	return cohortKey{year: year, half: half}
}
