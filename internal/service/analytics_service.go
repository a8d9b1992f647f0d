package service

import (
	"context"
	"fmt"
	"time"

	"github.com/doorline/wholesale-analytics/internal/cache"
	"github.com/doorline/wholesale-analytics/internal/config"
	"github.com/doorline/wholesale-analytics/internal/domain"
	"github.com/doorline/wholesale-analytics/internal/engine/churn"
	"github.com/doorline/wholesale-analytics/internal/engine/classify"
	"github.com/doorline/wholesale-analytics/internal/engine/dud"
	"github.com/doorline/wholesale-analytics/internal/repository"
	"github.com/rs/zerolog/log"
)

// AnalyticsService runs the lifecycle analytics over a fresh snapshot set.
// Every method takes an explicit as-of time so results are reproducible.
type AnalyticsService struct {
	repo         repository.CustomerRepository
	cache        cache.DashboardCache
	rules        classify.Rules
	maturityDays int
	rulesHash    string
}

// ClassifierRules maps the config rule values onto the engine's rule set.
func ClassifierRules(cfg config.RulesConfig) classify.Rules {
	return classify.Rules{
		MajorRevenueMin: cfg.SegmentMajorMin,
		MidRevenueMin:   cfg.SegmentMidMin,
		AtRiskDays:      cfg.AtRiskDays,
		ChurningDays:    cfg.ChurningDays,
		ChurnedDays:     cfg.ChurnedDays,
		DecliningYoYPct: cfg.DecliningYoYPct,
	}
}

func NewAnalyticsService(repo repository.CustomerRepository, cacheImpl cache.DashboardCache, cfg config.RulesConfig) (*AnalyticsService, error) {
	rules := ClassifierRules(cfg)
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid classifier rules: %w", err)
	}

	if cacheImpl == nil {
		cacheImpl = cache.NewNoopDashboardCache()
	}

	maturityDays := cfg.DudMaturityDays
	if maturityDays <= 0 {
		maturityDays = dud.DefaultMaturityDays
	}

	return &AnalyticsService{
		repo:         repo,
		cache:        cacheImpl,
		rules:        rules,
		maturityDays: maturityDays,
		rulesHash:    cache.HashRules(rules),
	}, nil
}

// ClassifiedSet fetches the full snapshot and classifies it in one pass.
func (s *AnalyticsService) ClassifiedSet(ctx context.Context, asOf time.Time) ([]domain.ClassifiedCustomer, error) {
	snapshots, err := s.repo.ListSnapshots(ctx, domain.CustomerFilter{})
	if err != nil {
		return nil, err
	}

	return classify.ClassifyAll(snapshots, s.rules, asOf), nil
}

// Customers returns a classified page for listing endpoints. Segment and
// status filters only exist after classification, so when one is present the
// full (search-narrowed) set is classified first and paging happens here
// instead of in SQL.
func (s *AnalyticsService) Customers(ctx context.Context, filter domain.CustomerFilter, asOf time.Time) ([]domain.ClassifiedCustomer, error) {
	if !filter.NeedsClassification() {
		snapshots, err := s.repo.ListSnapshots(ctx, filter)
		if err != nil {
			return nil, err
		}
		return classify.ClassifyAll(snapshots, s.rules, asOf), nil
	}

	unpaged := filter
	unpaged.Page = 0
	unpaged.PageSize = 0

	snapshots, err := s.repo.ListSnapshots(ctx, unpaged)
	if err != nil {
		return nil, err
	}

	matched := make([]domain.ClassifiedCustomer, 0, len(snapshots))
	for _, c := range classify.ClassifyAll(snapshots, s.rules, asOf) {
		if filter.Segment != "" && c.Segment != filter.Segment {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		matched = append(matched, c)
	}

	return pageOf(matched, filter.Page, filter.PageSize), nil
}

func pageOf(customers []domain.ClassifiedCustomer, page, pageSize int) []domain.ClassifiedCustomer {
	if pageSize <= 0 {
		return customers
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * pageSize
	if start >= len(customers) {
		return []domain.ClassifiedCustomer{}
	}

	end := start + pageSize
	if end > len(customers) {
		end = len(customers)
	}

	return customers[start:end]
}

func (s *AnalyticsService) Funnel(ctx context.Context, asOf time.Time) (domain.Funnel, error) {
	classified, err := s.ClassifiedSet(ctx, asOf)
	if err != nil {
		return domain.Funnel{}, err
	}

	return classify.BuildFunnel(classified), nil
}

func (s *AnalyticsService) RollingChurn(ctx context.Context, asOf time.Time) (float64, error) {
	classified, err := s.ClassifiedSet(ctx, asOf)
	if err != nil {
		return 0, err
	}

	return churn.RollingRate(classified), nil
}

func (s *AnalyticsService) ChurnByYear(ctx context.Context, asOf time.Time) ([]domain.YearChurn, error) {
	classified, err := s.ClassifiedSet(ctx, asOf)
	if err != nil {
		return nil, err
	}

	rows := churn.ByYear(classified)
	for _, row := range rows {
		if row.Flagged {
			log.Warn().Int("year", row.Year).Int("pool", row.Pool).Int("churned", row.Churned).
				Msg("churn pool went negative; reporting 0% for the year")
		}
	}

	return rows, nil
}

func (s *AnalyticsService) CohortRetention(ctx context.Context, asOf time.Time) ([]domain.CohortRetention, error) {
	classified, err := s.ClassifiedSet(ctx, asOf)
	if err != nil {
		return nil, err
	}

	return churn.CohortRetention(classified, asOf), nil
}

func (s *AnalyticsService) DudRates(ctx context.Context, asOf time.Time) ([]domain.DudCohort, error) {
	classified, err := s.ClassifiedSet(ctx, asOf)
	if err != nil {
		return nil, err
	}

	return dud.ByCohort(classified, s.maturityDays, asOf), nil
}

// Dashboard assembles every lifecycle analysis from a single classified set,
// behind the cache. The classified set is computed once and shared so all
// numbers in one response agree with each other.
func (s *AnalyticsService) Dashboard(ctx context.Context, asOf time.Time) (*domain.Dashboard, error) {
	if cached, ok, err := s.cache.Get(ctx, asOf, s.rulesHash); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("analytics: dashboard cache get failed")
	}

	classified, err := s.ClassifiedSet(ctx, asOf)
	if err != nil {
		return nil, err
	}

	dashboard := &domain.Dashboard{
		AsOf:            asOf,
		Funnel:          classify.BuildFunnel(classified),
		RollingChurnPct: churn.RollingRate(classified),
		ChurnByYear:     churn.ByYear(classified),
		CohortRetention: churn.CohortRetention(classified, asOf),
		DudRates:        dud.ByCohort(classified, s.maturityDays, asOf),
	}

	if dashboard.ChurnByYear == nil {
		dashboard.ChurnByYear = make([]domain.YearChurn, 0)
	}
	if dashboard.CohortRetention == nil {
		dashboard.CohortRetention = make([]domain.CohortRetention, 0)
	}
	if dashboard.DudRates == nil {
		dashboard.DudRates = make([]domain.DudCohort, 0)
	}

	if err := s.cache.Set(ctx, asOf, s.rulesHash, dashboard); err != nil {
		log.Warn().Err(err).Msg("analytics: dashboard cache set failed")
	}

	return dashboard, nil
}

// InvalidateCache drops every cached dashboard. Called after upstream data
// loads so the next request recomputes from fresh snapshots.
func (s *AnalyticsService) InvalidateCache(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}
