package main

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/doorline/wholesale-analytics/internal/cache"
	"github.com/doorline/wholesale-analytics/internal/config"
	"github.com/doorline/wholesale-analytics/internal/domain"
	"github.com/doorline/wholesale-analytics/internal/export"
	"github.com/doorline/wholesale-analytics/internal/repository"
	"github.com/doorline/wholesale-analytics/internal/repository/postgres"
	"github.com/doorline/wholesale-analytics/internal/service"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

// The export server is a small sidecar to the main API: it serves the same
// analyses as downloadable CSV so reports can be pulled by spreadsheets and
// cron jobs without touching the JSON surface.
func main() {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Initialize Database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Repositories
	customerRepo := repository.NewCustomerRepository(db)
	forecastRepo := repository.NewForecastRepository(db)

	// Initialize Services
	analyticsService, err := service.NewAnalyticsService(customerRepo, cache.NewNoopDashboardCache(), cfg.Rules)
	if err != nil {
		log.Fatalf("Failed to initialize analytics service: %v", err)
	}

	forecastService, err := service.NewForecastService(forecastRepo, customerRepo, cfg.Rules)
	if err != nil {
		log.Fatalf("Failed to initialize forecast service: %v", err)
	}

	// Create router
	r := mux.NewRouter()

	// Register routes
	h := &exportHandler{analytics: analyticsService, forecast: forecastService}
	r.HandleFunc("/export/funnel.csv", h.funnel).Methods("GET")
	r.HandleFunc("/export/customers.csv", h.customers).Methods("GET")
	r.HandleFunc("/export/churn_by_year.csv", h.churnByYear).Methods("GET")
	r.HandleFunc("/export/cohort_retention.csv", h.cohortRetention).Methods("GET")
	r.HandleFunc("/export/dud_rates.csv", h.dudRates).Methods("GET")
	r.HandleFunc("/export/projection.csv", h.projection).Methods("GET")

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Export server starting on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

type exportHandler struct {
	analytics *service.AnalyticsService
	forecast  *service.ForecastService
}

// asOf reads the optional as_of query param so exports are reproducible.
// A malformed value is rejected rather than silently replaced by "now".
func asOf(r *http.Request) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("as_of"))
	if raw == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid as_of value %q, want YYYY-MM-DD", raw)
}

func csvHeaders(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
}

func (h *exportHandler) funnel(w http.ResponseWriter, r *http.Request) {
	at, err := asOf(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	funnel, err := h.analytics.Funnel(r.Context(), at)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	csvHeaders(w, "funnel.csv")
	if err := export.WriteFunnel(w, funnel); err != nil {
		log.Printf("Error writing funnel export: %v", err)
	}
}

func (h *exportHandler) customers(w http.ResponseWriter, r *http.Request) {
	at, err := asOf(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	customers, err := h.analytics.Customers(r.Context(), domain.CustomerFilter{}, at)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	csvHeaders(w, "customers.csv")
	if err := export.WriteCustomers(w, customers); err != nil {
		log.Printf("Error writing customers export: %v", err)
	}
}

func (h *exportHandler) churnByYear(w http.ResponseWriter, r *http.Request) {
	at, err := asOf(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows, err := h.analytics.ChurnByYear(r.Context(), at)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	csvHeaders(w, "churn_by_year.csv")
	if err := export.WriteChurnByYear(w, rows); err != nil {
		log.Printf("Error writing churn export: %v", err)
	}
}

func (h *exportHandler) cohortRetention(w http.ResponseWriter, r *http.Request) {
	at, err := asOf(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cohorts, err := h.analytics.CohortRetention(r.Context(), at)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	csvHeaders(w, "cohort_retention.csv")
	if err := export.WriteCohortRetention(w, cohorts); err != nil {
		log.Printf("Error writing retention export: %v", err)
	}
}

func (h *exportHandler) dudRates(w http.ResponseWriter, r *http.Request) {
	at, err := asOf(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cohorts, err := h.analytics.DudRates(r.Context(), at)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	csvHeaders(w, "dud_rates.csv")
	if err := export.WriteDudRates(w, cohorts); err != nil {
		log.Printf("Error writing dud rate export: %v", err)
	}
}

func (h *exportHandler) projection(w http.ResponseWriter, r *http.Request) {
	at, err := asOf(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	year := at.Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid year", http.StatusBadRequest)
			return
		}
		year = parsed
	}

	projection, err := h.forecast.Projection(r.Context(), year, at)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	csvHeaders(w, fmt.Sprintf("projection_%d.csv", year))
	if err := export.WriteProjection(w, projection); err != nil {
		log.Printf("Error writing projection export: %v", err)
	}
}
