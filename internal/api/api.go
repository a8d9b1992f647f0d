// internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/doorline/wholesale-analytics/internal/api/handlers"
	"github.com/doorline/wholesale-analytics/internal/api/middleware"
	"github.com/doorline/wholesale-analytics/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Analytics *service.AnalyticsService
	Forecast  *service.ForecastService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.Analytics != nil {
			analyticsHandler := handlers.NewAnalyticsHandler(services.Analytics)
			analyticsGroup := apiGroup.Group("/analytics")
			{
				analyticsGroup.GET("/funnel", analyticsHandler.GetFunnel)
				analyticsGroup.GET("/customers", analyticsHandler.GetCustomers)
				analyticsGroup.GET("/churn/rolling", analyticsHandler.GetRollingChurn)
				analyticsGroup.GET("/churn/by_year", analyticsHandler.GetChurnByYear)
				analyticsGroup.GET("/cohorts/retention", analyticsHandler.GetCohortRetention)
				analyticsGroup.GET("/cohorts/duds", analyticsHandler.GetDudRates)
				analyticsGroup.GET("/dashboard", analyticsHandler.GetDashboard)
				analyticsGroup.DELETE("/dashboard/cache", analyticsHandler.InvalidateDashboardCache)
			}
		}

		if services.Forecast != nil {
			forecastHandler := handlers.NewForecastHandler(services.Forecast)
			forecastGroup := apiGroup.Group("/forecast")
			{
				forecastGroup.GET("/projection", forecastHandler.GetProjection)
				forecastGroup.GET("/seasonality", forecastHandler.GetSeasonality)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
