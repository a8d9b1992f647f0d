// internal/repository/forecast_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doorline/wholesale-analytics/internal/domain"
	"github.com/doorline/wholesale-analytics/internal/repository/postgres"
	"github.com/jmoiron/sqlx"
)

// ErrDriversNotFound is returned when no forecast drivers exist for a year.
var ErrDriversNotFound = errors.New("forecast drivers not found")

// ForecastRepository loads the externally maintained forecast driver records.
// The engine treats them as read-only truth; editing them is someone else's
// CRUD surface.
type ForecastRepository interface {
	GetDrivers(ctx context.Context, year int) (domain.ForecastDrivers, error)
}

type forecastRepository struct {
	db *postgres.DB
}

func NewForecastRepository(db *postgres.DB) ForecastRepository {
	return &forecastRepository{db: db}
}

func (r *forecastRepository) GetDrivers(ctx context.Context, year int) (domain.ForecastDrivers, error) {
	var drivers domain.ForecastDrivers

	query := `
        SELECT
            year,
            expected_churn_pct,
            expected_churn_doors,
            organic_growth_pct,
            returning_door_avg_yield,
            annual_target,
            doors_acquired_to_date
        FROM forecast_drivers
        WHERE year = $1
    `

	targetsQuery := `
        SELECT segment, doors, avg_first_year_yield
        FROM forecast_door_targets
        WHERE year = $1
        ORDER BY segment
    `

	err := r.db.WithConn(ctx, func(q *sqlx.DB) error {
		if err := q.GetContext(ctx, &drivers, query, year); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("year %d: %w", year, ErrDriversNotFound)
			}
			return fmt.Errorf("error loading forecast drivers for %d: %w", year, err)
		}

		if err := q.SelectContext(ctx, &drivers.NewDoorTargets, targetsQuery, year); err != nil {
			return fmt.Errorf("error loading door targets for %d: %w", year, err)
		}

		return nil
	})
	if err != nil {
		return drivers, err
	}

	return drivers, nil
}
