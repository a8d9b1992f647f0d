package handlers

import (
	"net/http"
	"strconv"

	"github.com/doorline/wholesale-analytics/internal/service"
	"github.com/gin-gonic/gin"
)

type ForecastHandler struct {
	service *service.ForecastService
}

func NewForecastHandler(service *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

func (h *ForecastHandler) GetProjection(c *gin.Context) {
	asOf, err := parseAsOf(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	year := asOf.Year()
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year", "details": err.Error()})
			return
		}
		year = parsed
	}

	projection, err := h.service.Projection(c.Request.Context(), year, asOf)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute projection", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"year": year, "as_of": asOf, "projection": projection})
}

func (h *ForecastHandler) GetSeasonality(c *gin.Context) {
	channel := c.DefaultQuery("channel", "b2b")

	annual, err := strconv.ParseFloat(c.DefaultQuery("annual", "0"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid annual amount", "details": err.Error()})
		return
	}

	breakdown, err := h.service.Seasonality(channel, annual)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to distribute annual amount", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"channel": channel, "breakdown": breakdown})
}
