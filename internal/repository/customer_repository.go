// internal/repository/customer_repository.go
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/doorline/wholesale-analytics/internal/domain"
	"github.com/doorline/wholesale-analytics/internal/repository/postgres"
	"github.com/jmoiron/sqlx"
)

// CustomerRepository serves the already-filtered customer snapshot set the
// engine consumes. Hardcoded test identifiers and accounts flagged excluded
// in the database never leave this layer. Segment and status filtering is not
// done here: those are classification outputs, so the service applies them
// after classifying.
type CustomerRepository interface {
	ListSnapshots(ctx context.Context, filter domain.CustomerFilter) ([]domain.CustomerSnapshot, error)
	CountActiveDoors(ctx context.Context, asOf time.Time, churnedDays int) (int, error)
}

type customerRepository struct {
	db *postgres.DB
}

func NewCustomerRepository(db *postgres.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) ListSnapshots(ctx context.Context, filter domain.CustomerFilter) ([]domain.CustomerSnapshot, error) {
	query := `
        SELECT
            id,
            name,
            first_sale_date,
            last_sale_date,
            lifetime_revenue,
            lifetime_orders,
            is_corporate,
            was_churned,
            yoy_revenue_change_pct
        FROM wholesale_customers
        WHERE excluded = false
    `

	var args []interface{}
	var conditions []string
	argCounter := 1

	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argCounter))
		args = append(args, "%"+search+"%")
		argCounter++
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY name"

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCounter, argCounter+1)
		args = append(args, filter.PageSize, (page-1)*filter.PageSize)
	}

	var snapshots []domain.CustomerSnapshot
	err := r.db.WithConn(ctx, func(q *sqlx.DB) error {
		return q.SelectContext(ctx, &snapshots, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("error listing customer snapshots: %w", err)
	}

	return snapshots, nil
}

// CountActiveDoors counts doors whose last order falls inside the churn
// horizon, using the same predicate the classifier applies, so the forecast's
// starting-door input stays consistent with the funnel.
func (r *customerRepository) CountActiveDoors(ctx context.Context, asOf time.Time, churnedDays int) (int, error) {
	query := `
        SELECT COUNT(*)
        FROM wholesale_customers
        WHERE excluded = false
          AND is_corporate = false
          AND lifetime_orders > 0
          AND lifetime_revenue > 0
          AND last_sale_date IS NOT NULL
          AND last_sale_date > $1
    `

	cutoff := asOf.AddDate(0, 0, -churnedDays)

	var count int
	err := r.db.WithConn(ctx, func(q *sqlx.DB) error {
		return q.GetContext(ctx, &count, query, cutoff)
	})
	if err != nil {
		return 0, fmt.Errorf("error counting active doors: %w", err)
	}

	return count, nil
}
