package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/response"
	"github.com/oerms/oerms-backend/internal/service"
)

// AnalyticsHandler serves exam, result and system statistics.
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// ExamStatistics godoc
// GET /api/v1/exams/:exam_id/statistics
func (h *AnalyticsHandler) ExamStatistics(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	examID, ok := paramID(c, "exam_id")
	if !ok {
		return
	}

	stats, err := h.analyticsService.ExamStatistics(c.Request.Context(), p, examID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// ResultStatistics godoc
// GET /api/v1/results/statistics?exam_id=&institution_id=
// Institutional admins are held to their own institution.
func (h *AnalyticsHandler) ResultStatistics(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	examID, ok := queryID(c, "exam_id")
	if !ok {
		return
	}
	institutionID, ok := queryID(c, "institution_id")
	if !ok {
		return
	}

	stats, err := h.analyticsService.ResultStatistics(c.Request.Context(), p, model.ResultFilter{
		ExamID:        examID,
		InstitutionID: institutionID,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// SystemWide godoc
// GET /api/v1/analytics/system-wide
func (h *AnalyticsHandler) SystemWide(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}

	stats, err := h.analyticsService.SystemAnalytics(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}
