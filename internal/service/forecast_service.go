package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/doorline/wholesale-analytics/internal/config"
	"github.com/doorline/wholesale-analytics/internal/domain"
	"github.com/doorline/wholesale-analytics/internal/engine/classify"
	"github.com/doorline/wholesale-analytics/internal/engine/forecast"
	"github.com/doorline/wholesale-analytics/internal/engine/seasonality"
	"github.com/doorline/wholesale-analytics/internal/repository"
	"github.com/rs/zerolog/log"
)

// ForecastService wires the door-math model to its two external inputs: the
// driver record for the year and the current active-door count.
type ForecastService struct {
	forecasts      repository.ForecastRepository
	customers      repository.CustomerRepository
	rules          classify.Rules
	returningYield float64
	curves         map[string]seasonality.Curve
}

func NewForecastService(forecasts repository.ForecastRepository, customers repository.CustomerRepository, cfg config.RulesConfig) (*ForecastService, error) {
	rules := ClassifierRules(cfg)
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid classifier rules: %w", err)
	}

	curves := map[string]seasonality.Curve{
		"b2b":       curveFromWeights(cfg.B2BQuarterWeights),
		"corporate": curveFromWeights(cfg.CorpQuarterWeights),
	}
	for channel, curve := range curves {
		if err := curve.Validate(); err != nil {
			return nil, fmt.Errorf("invalid %s seasonality curve: %w", channel, err)
		}
	}

	return &ForecastService{
		forecasts:      forecasts,
		customers:      customers,
		rules:          rules,
		returningYield: cfg.ReturningDoorYield,
		curves:         curves,
	}, nil
}

// Projection runs the forecaster for a year. The starting-door count is the
// classifier-consistent active count as of the given time, never recomputed
// inside the engine.
func (s *ForecastService) Projection(ctx context.Context, year int, asOf time.Time) (domain.ForecastProjection, error) {
	drivers, err := s.forecasts.GetDrivers(ctx, year)
	if err != nil {
		return domain.ForecastProjection{}, err
	}

	if drivers.ReturningDoorAvgYield == 0 {
		// Fall back to the configured historical benchmark.
		drivers.ReturningDoorAvgYield = s.returningYield
	}

	startingDoors, err := s.customers.CountActiveDoors(ctx, asOf, s.rules.ChurnedDays)
	if err != nil {
		return domain.ForecastProjection{}, err
	}

	projection, err := forecast.Project(drivers, startingDoors, asOf)
	if err != nil {
		return domain.ForecastProjection{}, fmt.Errorf("projecting year %d: %w", year, err)
	}

	log.Debug().Int("year", year).Int("starting_doors", startingDoors).
		Float64("projected_revenue", projection.ProjectedRevenue).
		Msg("forecast projection computed")

	return projection, nil
}

// Seasonality distributes an annual amount over the named channel's curve.
func (s *ForecastService) Seasonality(channel string, annual float64) (domain.SeasonalBreakdown, error) {
	curve, ok := s.curves[strings.ToLower(strings.TrimSpace(channel))]
	if !ok {
		return domain.SeasonalBreakdown{}, fmt.Errorf("unknown channel %q", channel)
	}

	return seasonality.DistributeYear(annual, curve)
}

func curveFromWeights(weights []float64) seasonality.Curve {
	var quarters [4]float64
	copy(quarters[:], weights)
	return seasonality.NewCurve(quarters)
}
