// Package seasonality allocates an annual revenue figure across quarters and
// months using fixed weight curves. All arithmetic happens in integer cents
// so a distribution always reconciles back to its input exactly.
package seasonality

import (
	"fmt"
	"math"

	"github.com/doorline/wholesale-analytics/internal/domain"
)

// weightTolerance is how far a weight set may drift from summing to 1.0
// before it is treated as a configuration fault.
const weightTolerance = 0.001

// DefaultMonthTriple is the within-quarter split used for Q1-Q3, slightly
// back-loaded toward the last month of the quarter.
var DefaultMonthTriple = [3]float64{0.30, 0.33, 0.37}

// Q4MonthTriple is more aggressively back-loaded to reflect holiday timing.
var Q4MonthTriple = [3]float64{0.28, 0.32, 0.40}

// Curve is one channel's full seasonality shape.
type Curve struct {
	Quarters [4]float64
	Months   [4][3]float64
}

// NewCurve pairs quarterly weights with the default month triples.
func NewCurve(quarters [4]float64) Curve {
	return Curve{
		Quarters: quarters,
		Months:   [4][3]float64{DefaultMonthTriple, DefaultMonthTriple, DefaultMonthTriple, Q4MonthTriple},
	}
}

// Validate rejects curves whose weights do not sum to 1.0 within tolerance.
func (c Curve) Validate() error {
	if err := checkWeights(c.Quarters[:]); err != nil {
		return fmt.Errorf("quarterly weights: %w", err)
	}
	for q, triple := range c.Months {
		if err := checkWeights(triple[:]); err != nil {
			return fmt.Errorf("q%d month weights: %w", q+1, err)
		}
	}

	return nil
}

// DistributeQuarters splits an annual amount into four quarters. The rounding
// remainder lands on Q4 so the quarters always sum back to the annual figure
// to the cent.
func DistributeQuarters(annual float64, weights [4]float64) ([4]float64, error) {
	var out [4]float64
	if err := checkWeights(weights[:]); err != nil {
		return out, fmt.Errorf("quarterly weights: %w", err)
	}

	cents := toCents(annual)
	var allocated int64
	for i := 0; i < 3; i++ {
		c := int64(math.Round(float64(cents) * weights[i]))
		out[i] = fromCents(c)
		allocated += c
	}
	out[3] = fromCents(cents - allocated)

	return out, nil
}

// DistributeMonths splits one quarter into its three months with the same
// remainder-to-last rule.
func DistributeMonths(quarterAmount float64, triple [3]float64) ([3]float64, error) {
	var out [3]float64
	if err := checkWeights(triple[:]); err != nil {
		return out, fmt.Errorf("month weights: %w", err)
	}

	cents := toCents(quarterAmount)
	var allocated int64
	for i := 0; i < 2; i++ {
		c := int64(math.Round(float64(cents) * triple[i]))
		out[i] = fromCents(c)
		allocated += c
	}
	out[2] = fromCents(cents - allocated)

	return out, nil
}

// DistributeYear runs both stages and returns the full quarterly and monthly
// breakdown. The twelve months sum to the annual input to the cent.
func DistributeYear(annual float64, curve Curve) (domain.SeasonalBreakdown, error) {
	breakdown := domain.SeasonalBreakdown{Annual: annual}

	quarters, err := DistributeQuarters(annual, curve.Quarters)
	if err != nil {
		return breakdown, err
	}
	breakdown.Quarters = quarters

	for q := 0; q < 4; q++ {
		months, err := DistributeMonths(quarters[q], curve.Months[q])
		if err != nil {
			return breakdown, err
		}
		copy(breakdown.Months[q*3:q*3+3], months[:])
	}

	return breakdown, nil
}

func checkWeights(weights []float64) error {
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return fmt.Errorf("negative weight %v", w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("weights sum to %v, want 1.0", sum)
	}

	return nil
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromCents(cents int64) float64 {
	return float64(cents) / 100
}
