// cmd/analytics/main.go
package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/doorline/wholesale-analytics/internal/cache"
	"github.com/doorline/wholesale-analytics/internal/config"
	"github.com/doorline/wholesale-analytics/internal/domain"
	"github.com/doorline/wholesale-analytics/internal/export"
	"github.com/doorline/wholesale-analytics/internal/repository"
	"github.com/doorline/wholesale-analytics/internal/repository/postgres"
	"github.com/doorline/wholesale-analytics/internal/service"
	"github.com/doorline/wholesale-analytics/internal/storage"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newAsOfFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "as-of",
		Usage: "Analysis date in YYYY-MM-DD format (defaults to today)",
	}
}

type runContext struct {
	analytics *service.AnalyticsService
	forecast  *service.ForecastService
	asOf      time.Time
}

func newRunContext(c *cli.Context) (*runContext, func(), error) {
	db, err := sqlx.Connect("pgx", c.String("db-url"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	cfg := config.Load()

	pool := postgres.Wrap(db)
	customerRepo := repository.NewCustomerRepository(pool)
	forecastRepo := repository.NewForecastRepository(pool)

	analyticsService, err := service.NewAnalyticsService(customerRepo, cache.NewNoopDashboardCache(), cfg.Rules)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	forecastService, err := service.NewForecastService(forecastRepo, customerRepo, cfg.Rules)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	asOf := time.Now().UTC()
	if raw := c.String("as-of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("invalid --as-of date %q: %w", raw, err)
		}
		asOf = parsed
	}

	rc := &runContext{analytics: analyticsService, forecast: forecastService, asOf: asOf}
	return rc, func() { db.Close() }, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "analytics",
		Usage: "Run wholesale lifecycle analyses from the command line",
		Commands: []*cli.Command{
			{
				Name:   "funnel",
				Usage:  "Print the customer lifecycle funnel as CSV",
				Flags:  []cli.Flag{newDBURLFlag(), newAsOfFlag()},
				Action: runFunnel,
			},
			{
				Name:   "customers",
				Usage:  "Print the classified customer list as CSV",
				Flags:  []cli.Flag{newDBURLFlag(), newAsOfFlag()},
				Action: runCustomers,
			},
			{
				Name:   "churn",
				Usage:  "Print pool-adjusted churn by year as CSV",
				Flags:  []cli.Flag{newDBURLFlag(), newAsOfFlag()},
				Action: runChurn,
			},
			{
				Name:   "retention",
				Usage:  "Print acquisition-cohort retention as CSV",
				Flags:  []cli.Flag{newDBURLFlag(), newAsOfFlag()},
				Action: runRetention,
			},
			{
				Name:   "duds",
				Usage:  "Print dud-rate cohorts as CSV",
				Flags:  []cli.Flag{newDBURLFlag(), newAsOfFlag()},
				Action: runDuds,
			},
			{
				Name:  "forecast",
				Usage: "Print the revenue projection for a year as CSV",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newAsOfFlag(),
					&cli.IntFlag{
						Name:  "year",
						Usage: "Forecast year (defaults to the as-of year)",
					},
				},
				Action: runForecast,
			},
			{
				Name:   "archive",
				Usage:  "Render all reports and upload them to the report archive",
				Flags:  []cli.Flag{newDBURLFlag(), newAsOfFlag()},
				Action: runArchive,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runFunnel(c *cli.Context) error {
	rc, closeDB, err := newRunContext(c)
	if err != nil {
		return err
	}
	defer closeDB()

	funnel, err := rc.analytics.Funnel(c.Context, rc.asOf)
	if err != nil {
		return err
	}
	return export.WriteFunnel(os.Stdout, funnel)
}

func runCustomers(c *cli.Context) error {
	rc, closeDB, err := newRunContext(c)
	if err != nil {
		return err
	}
	defer closeDB()

	customers, err := rc.analytics.Customers(c.Context, domain.CustomerFilter{}, rc.asOf)
	if err != nil {
		return err
	}
	return export.WriteCustomers(os.Stdout, customers)
}

func runChurn(c *cli.Context) error {
	rc, closeDB, err := newRunContext(c)
	if err != nil {
		return err
	}
	defer closeDB()

	rows, err := rc.analytics.ChurnByYear(c.Context, rc.asOf)
	if err != nil {
		return err
	}
	return export.WriteChurnByYear(os.Stdout, rows)
}

func runRetention(c *cli.Context) error {
	rc, closeDB, err := newRunContext(c)
	if err != nil {
		return err
	}
	defer closeDB()

	cohorts, err := rc.analytics.CohortRetention(c.Context, rc.asOf)
	if err != nil {
		return err
	}
	return export.WriteCohortRetention(os.Stdout, cohorts)
}

func runDuds(c *cli.Context) error {
	rc, closeDB, err := newRunContext(c)
	if err != nil {
		return err
	}
	defer closeDB()

	cohorts, err := rc.analytics.DudRates(c.Context, rc.asOf)
	if err != nil {
		return err
	}
	return export.WriteDudRates(os.Stdout, cohorts)
}

func runForecast(c *cli.Context) error {
	rc, closeDB, err := newRunContext(c)
	if err != nil {
		return err
	}
	defer closeDB()

	year := c.Int("year")
	if year == 0 {
		year = rc.asOf.Year()
	}

	projection, err := rc.forecast.Projection(c.Context, year, rc.asOf)
	if err != nil {
		return err
	}
	return export.WriteProjection(os.Stdout, projection)
}

// runArchive renders every report for the as-of date and pushes the CSVs to
// the configured object store, keyed by date so reruns overwrite in place.
func runArchive(c *cli.Context) error {
	rc, closeDB, err := newRunContext(c)
	if err != nil {
		return err
	}
	defer closeDB()

	cfg := config.Load()
	if !cfg.Storage.Enabled {
		return fmt.Errorf("report archive is disabled (set STORAGE_ENABLED=true)")
	}

	store, err := storage.NewMinioStore(cfg.Storage)
	if err != nil {
		return err
	}

	funnel, err := rc.analytics.Funnel(c.Context, rc.asOf)
	if err != nil {
		return err
	}
	customers, err := rc.analytics.Customers(c.Context, domain.CustomerFilter{}, rc.asOf)
	if err != nil {
		return err
	}
	churnRows, err := rc.analytics.ChurnByYear(c.Context, rc.asOf)
	if err != nil {
		return err
	}
	retention, err := rc.analytics.CohortRetention(c.Context, rc.asOf)
	if err != nil {
		return err
	}
	duds, err := rc.analytics.DudRates(c.Context, rc.asOf)
	if err != nil {
		return err
	}

	reports := []struct {
		name   string
		render func(*bytes.Buffer) error
	}{
		{"funnel.csv", func(b *bytes.Buffer) error { return export.WriteFunnel(b, funnel) }},
		{"customers.csv", func(b *bytes.Buffer) error { return export.WriteCustomers(b, customers) }},
		{"churn_by_year.csv", func(b *bytes.Buffer) error { return export.WriteChurnByYear(b, churnRows) }},
		{"cohort_retention.csv", func(b *bytes.Buffer) error { return export.WriteCohortRetention(b, retention) }},
		{"dud_rates.csv", func(b *bytes.Buffer) error { return export.WriteDudRates(b, duds) }},
	}

	prefix := fmt.Sprintf("reports/%s", rc.asOf.Format("2006-01-02"))
	for _, report := range reports {
		var buf bytes.Buffer
		if err := report.render(&buf); err != nil {
			return fmt.Errorf("rendering %s: %w", report.name, err)
		}

		key := fmt.Sprintf("%s/%s", prefix, report.name)
		if err := store.UploadReport(c.Context, key, buf.Bytes(), "text/csv"); err != nil {
			return err
		}
		log.Printf("Uploaded %s (%d bytes)", key, buf.Len())
	}

	// Read back the prefix so a truncated or failed upload is visible in the
	// run log, not discovered later by a report consumer.
	stored, err := store.ListReports(c.Context, prefix)
	if err != nil {
		return fmt.Errorf("verifying archive: %w", err)
	}
	if len(stored) < len(reports) {
		return fmt.Errorf("archive incomplete: %d of %d reports under %s", len(stored), len(reports), prefix)
	}
	for _, obj := range stored {
		log.Printf("Archived %s (%d bytes)", obj.Key, obj.Size)
	}

	log.Printf("Archive complete under %s", prefix)
	return nil
}
