// internal/domain/analytics.go
package domain

import "time"

// YearChurn is one row of the pool-adjusted churn table. The pool for a year
// is the funnel population minus everyone who already churned in an earlier
// year, so rates stay honest as the denominator shrinks.
type YearChurn struct {
	Year    int     `json:"year"`
	Churned int     `json:"churned"`
	Pool    int     `json:"pool"`
	RatePct float64 `json:"rate_pct"`
	Flagged bool    `json:"flagged,omitempty"`
}

// CohortRetention is the current-status breakdown of one acquisition-year
// cohort. IsMaturing means the cohort can still produce more churn, so a low
// churn count must not be read as health yet.
type CohortRetention struct {
	Year         int     `json:"year"`
	Acquired     int     `json:"acquired"`
	Healthy      int     `json:"healthy"`
	AtRisk       int     `json:"at_risk"`
	Churning     int     `json:"churning"`
	Churned      int     `json:"churned"`
	Retained     int     `json:"retained"`
	RetentionPct float64 `json:"retention_pct"`
	IsMaturing   bool    `json:"is_maturing"`
}

// DudCohort is one acquisition cohort scored for never-reordered doors.
// DudRate is nil (not zero) while no member has crossed the maturity window,
// to keep "cannot assess yet" distinct from "0% duds".
type DudCohort struct {
	Key           string   `json:"key"`
	Acquired      int      `json:"acquired"`
	MatureCount   int      `json:"mature_count"`
	MatureOneTime int      `json:"mature_one_time"`
	DudRatePct    *float64 `json:"dud_rate_pct"`
	IsMature      bool     `json:"is_mature"`
}

// SeasonalBreakdown is an annual figure distributed across quarters and
// months. Quarters sum to Annual to the cent, and each quarter's three months
// sum back to that quarter.
type SeasonalBreakdown struct {
	Annual   float64     `json:"annual"`
	Quarters [4]float64  `json:"quarters"`
	Months   [12]float64 `json:"months"`
}

// SegmentDoorTarget is a new-door acquisition target for one segment along
// with the average revenue a first-year door of that segment produces.
type SegmentDoorTarget struct {
	Segment           Segment `json:"segment" db:"segment"`
	Doors             int     `json:"doors" db:"doors"`
	AvgFirstYearYield float64 `json:"avg_first_year_yield" db:"avg_first_year_yield"`
}

// ForecastDrivers are the externally supplied inputs to the door-math model.
// Exactly one of ExpectedChurnPct / ExpectedChurnDoors should be set; when
// both are present the absolute count wins.
type ForecastDrivers struct {
	Year                  int                 `json:"year" db:"year"`
	ExpectedChurnPct      *float64            `json:"expected_churn_pct" db:"expected_churn_pct"`
	ExpectedChurnDoors    *int                `json:"expected_churn_doors" db:"expected_churn_doors"`
	OrganicGrowthPct      float64             `json:"organic_growth_pct" db:"organic_growth_pct"`
	ReturningDoorAvgYield float64             `json:"returning_door_avg_yield" db:"returning_door_avg_yield"`
	AnnualTarget          float64             `json:"annual_target" db:"annual_target"`
	DoorsAcquiredToDate   *int                `json:"doors_acquired_to_date" db:"doors_acquired_to_date"`
	NewDoorTargets        []SegmentDoorTarget `json:"new_door_targets"`
}

// ForecastProjection is the bottom-up revenue projection produced by the
// door-math forecaster. Monetary fields are unrounded; presentation layers
// round to whole currency units.
type ForecastProjection struct {
	StartingDoors           int      `json:"starting_doors"`
	ExpectedChurnDoors      int      `json:"expected_churn_doors"`
	RetainedDoors           int      `json:"retained_doors"`
	EndingDoors             int      `json:"ending_doors"`
	ExistingDoorBaseRevenue float64  `json:"existing_door_base_revenue"`
	OrganicGrowthRevenue    float64  `json:"organic_growth_revenue"`
	ExistingDoorTotal       float64  `json:"existing_door_total"`
	NewDoorRevenue          float64  `json:"new_door_revenue"`
	ProjectedRevenue        float64  `json:"projected_revenue"`
	GapToTarget             float64  `json:"gap_to_target"`
	GapPct                  float64  `json:"gap_pct"`
	DoorsNeededToCloseGap   *int     `json:"doors_needed_to_close_gap,omitempty"`
	AcquiredFactor          *float64 `json:"acquired_factor,omitempty"`
	RemainingFactor         float64  `json:"remaining_factor"`
}

// CustomerFilter narrows the snapshot set fetched from the repository.
// Search runs in SQL; Segment and Status are classification outputs, so the
// service applies them after classifying and then pages the filtered set.
type CustomerFilter struct {
	Search   string       `json:"search"`
	Segment  Segment      `json:"segment"`
	Status   HealthStatus `json:"status"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

// NeedsClassification reports whether the filter can only be applied to
// classified customers, not raw snapshots.
func (f CustomerFilter) NeedsClassification() bool {
	return f.Segment != "" || f.Status != ""
}

// Dashboard bundles every customer-lifecycle analysis for one as-of date.
type Dashboard struct {
	AsOf            time.Time         `json:"as_of"`
	Funnel          Funnel            `json:"funnel"`
	RollingChurnPct float64           `json:"rolling_churn_pct"`
	ChurnByYear     []YearChurn       `json:"churn_by_year"`
	CohortRetention []CohortRetention `json:"cohort_retention"`
	DudRates        []DudCohort       `json:"dud_rates"`
}
