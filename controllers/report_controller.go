package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SaiCharanMahadevan/HealthTrackerApp/services"

	"github.com/gin-gonic/gin"
)

type ReportController struct {
	Svc *services.ReportService
}

func NewReportController(svc *services.ReportService) *ReportController {
	return &ReportController{Svc: svc}
}

func (h *ReportController) GetDailySummary(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	summary, err := h.Svc.DailySummary(c.Request.Context(), userID, c.Query("date"), tzOffsetParam(c))
	if err != nil {
		respondReportError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ReportController) GetWeeklySummary(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	summary, err := h.Svc.WeeklySummary(c.Request.Context(), userID, c.Query("date"), tzOffsetParam(c))
	if err != nil {
		respondReportError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ReportController) GetTrends(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	trends, err := h.Svc.Trends(c.Request.Context(), userID,
		c.Query("start_date"), c.Query("end_date"), tzOffsetParam(c))
	if err != nil {
		respondReportError(c, err)
		return
	}
	c.JSON(http.StatusOK, trends)
}

// tzOffsetParam reads the client's UTC offset in minutes (the value subtracted
// from UTC to get local time, as reported by JS getTimezoneOffset).
func tzOffsetParam(c *gin.Context) int {
	offset, err := strconv.Atoi(c.DefaultQuery("tz_offset_minutes", "0"))
	if err != nil {
		return 0
	}
	return offset
}

func respondReportError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrInvalidDate) || errors.Is(err, services.ErrInvalidDateRange) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
