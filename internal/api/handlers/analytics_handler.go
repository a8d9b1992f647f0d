package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/doorline/wholesale-analytics/internal/domain"
	"github.com/doorline/wholesale-analytics/internal/service"
	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	service *service.AnalyticsService
}

func NewAnalyticsHandler(service *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// parseAsOf reads the optional as_of query param (YYYY-MM-DD or RFC3339).
// Every analysis pins its "now" to this value so responses are reproducible.
// A malformed value is an error, not a silent fallback to the server clock.
func parseAsOf(c *gin.Context) (time.Time, error) {
	raw := strings.TrimSpace(c.Query("as_of"))
	if raw == "" {
		return time.Now().UTC(), nil
	}

	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid as_of value %q, want YYYY-MM-DD or RFC3339", raw)
}

func parseFilter(c *gin.Context) (domain.CustomerFilter, error) {
	filter := domain.CustomerFilter{
		Page:     1,
		PageSize: 50,
	}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "50")); err == nil && size > 0 {
		filter.PageSize = size
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.Search = search
	}

	if raw := c.Query("segment"); raw != "" {
		segment, ok := domain.ParseSegment(raw)
		if !ok {
			return filter, fmt.Errorf("invalid segment %q", raw)
		}
		filter.Segment = segment
	}
	if raw := c.Query("status"); raw != "" {
		status, ok := domain.ParseHealthStatus(raw)
		if !ok {
			return filter, fmt.Errorf("invalid status %q", raw)
		}
		filter.Status = status
	}

	return filter, nil
}

func (h *AnalyticsHandler) GetFunnel(c *gin.Context) {
	asOf, err := parseAsOf(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	funnel, err := h.service.Funnel(c.Request.Context(), asOf)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute funnel", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, funnel)
}

func (h *AnalyticsHandler) GetCustomers(c *gin.Context) {
	asOf, err := parseAsOf(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customers, err := h.service.Customers(c.Request.Context(), filter, asOf)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch customers", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customers": customers,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
}

func (h *AnalyticsHandler) GetRollingChurn(c *gin.Context) {
	asOf, err := parseAsOf(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rate, err := h.service.RollingChurn(c.Request.Context(), asOf)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute churn rate", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"as_of": asOf, "rolling_churn_pct": rate})
}

func (h *AnalyticsHandler) GetChurnByYear(c *gin.Context) {
	asOf, err := parseAsOf(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := h.service.ChurnByYear(c.Request.Context(), asOf)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute churn by year", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"years": rows})
}

func (h *AnalyticsHandler) GetCohortRetention(c *gin.Context) {
	asOf, err := parseAsOf(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cohorts, err := h.service.CohortRetention(c.Request.Context(), asOf)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute cohort retention", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cohorts": cohorts})
}

func (h *AnalyticsHandler) GetDudRates(c *gin.Context) {
	asOf, err := parseAsOf(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cohorts, err := h.service.DudRates(c.Request.Context(), asOf)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute dud rates", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cohorts": cohorts})
}

func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	asOf, err := parseAsOf(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dashboard, err := h.service.Dashboard(c.Request.Context(), asOf)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build dashboard", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// InvalidateDashboardCache drops cached dashboards after an upstream reload.
func (h *AnalyticsHandler) InvalidateDashboardCache(c *gin.Context) {
	if err := h.service.InvalidateCache(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to invalidate dashboard cache", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
}
