// internal/domain/customer.go
package domain

import "time"

// CustomerSnapshot is one wholesale door as fetched from the persistence
// layer. It is immutable for the duration of an analysis run; every derived
// field lives on ClassifiedCustomer instead.
type CustomerSnapshot struct {
	ID                  int64      `json:"id" db:"id"`
	Name                string     `json:"name" db:"name"`
	FirstSaleDate       *time.Time `json:"first_sale_date" db:"first_sale_date"`
	LastSaleDate        *time.Time `json:"last_sale_date" db:"last_sale_date"`
	LifetimeRevenue     float64    `json:"lifetime_revenue" db:"lifetime_revenue"`
	LifetimeOrders      int        `json:"lifetime_orders" db:"lifetime_orders"`
	IsCorporate         bool       `json:"is_corporate" db:"is_corporate"`
	WasChurned          bool       `json:"was_churned" db:"was_churned"`
	YoYRevenueChangePct *float64   `json:"yoy_revenue_change_pct" db:"yoy_revenue_change_pct"`
}

// ClassifiedCustomer is a snapshot plus the fields derived during
// classification. Derived values are recomputed from scratch on every run.
type ClassifiedCustomer struct {
	CustomerSnapshot

	DaysSinceLastOrder *int         `json:"days_since_last_order"`
	LifespanMonths     int          `json:"lifespan_months"`
	Segment            Segment      `json:"segment"`
	Status             HealthStatus `json:"health_status"`
	ChurnYear          *int         `json:"churn_year"`
	IsDeclining        bool         `json:"is_declining"`
	IsReactivated      bool         `json:"is_reactivated"`
}

// IsRealCustomer is the canonical "ever actually bought something" predicate.
// Every analytics component filters on this same predicate so that a door can
// never be counted as churned in one report and ignored in another.
func (c ClassifiedCustomer) IsRealCustomer() bool {
	return !c.IsCorporate && c.LifetimeOrders > 0 && c.LifetimeRevenue > 0
}

// InFunnel reports whether the customer belongs to the funnel denominator:
// a real customer with a known last order date.
func (c ClassifiedCustomer) InFunnel() bool {
	return c.IsRealCustomer() && c.DaysSinceLastOrder != nil
}

// Funnel is the aggregated lifecycle summary over one classified set.
// Active + AtRisk + Churning + Churned always equals Population;
// HealthyDeclining and Reactivated are cross-cutting tags, not buckets.
type Funnel struct {
	Population       int `json:"population"`
	Active           int `json:"active"`
	AtRisk           int `json:"at_risk"`
	Churning         int `json:"churning"`
	Churned          int `json:"churned"`
	HealthyDeclining int `json:"healthy_declining"`
	Reactivated      int `json:"reactivated"`
}
