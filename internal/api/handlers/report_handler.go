package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobber/internal/services"
	"github.com/yoockh/jobber/internal/utils"
)

// ReportHandler serves dashboards and analytics.
type ReportHandler struct {
	analytics  services.AnalyticsService
	dashboards services.DashboardService
}

func NewReportHandler(analytics services.AnalyticsService, dashboards services.DashboardService) *ReportHandler {
	return &ReportHandler{analytics: analytics, dashboards: dashboards}
}

func dateRange(c *gin.Context, op string) (services.DateRange, bool) {
	start, ok := queryDate(c, "startDate", op)
	if !ok {
		return services.DateRange{}, false
	}
	end, ok := queryDate(c, "endDate", op)
	if !ok {
		return services.DateRange{}, false
	}
	if start != nil && end != nil && end.Before(*start) {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "endDate must not be before startDate", nil))
		return services.DateRange{}, false
	}
	return services.DateRange{Start: start, End: end}, true
}

func (h *ReportHandler) EmployerAnalytics(c *gin.Context) {
	const op = "ReportHandler.EmployerAnalytics"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	rng, ok := dateRange(c, op)
	if !ok {
		return
	}
	out, err := h.analytics.Employer(c.Request.Context(), userID, rng)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ReportHandler) ApplicantAnalytics(c *gin.Context) {
	const op = "ReportHandler.ApplicantAnalytics"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	rng, ok := dateRange(c, op)
	if !ok {
		return
	}
	out, err := h.analytics.Applicant(c.Request.Context(), userID, rng)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ReportHandler) UserDashboard(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	out, err := h.dashboards.User(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ReportHandler) EmployerDashboard(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	out, err := h.dashboards.Employer(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ReportHandler) AdminDashboard(c *gin.Context) {
	out, err := h.dashboards.Admin(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
