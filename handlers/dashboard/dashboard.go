package dashboard

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/starbooks/monitoring-api/handlers"
	"github.com/starbooks/monitoring-api/services"
	"github.com/starbooks/monitoring-api/utils/response"
)

// DashboardHandler serves the dashboard and summary report
type DashboardHandler struct {
	dashboards *services.DashboardService
	reports    *services.ReportService
	log        *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboards *services.DashboardService, reports *services.ReportService, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards, reports: reports, log: log}
}

// GetDashboard handles GET /api/v1/dashboard?year=&page=&limit=
// Without a year the trend covers the trailing twelve months.
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	q := services.DashboardQuery{}

	if v := c.Query("year"); v != "" && v != "all" {
		year, err := strconv.Atoi(v)
		if err != nil || year < 1900 {
			return response.BadRequest(c, "year must be a four digit year")
		}
		q.Year = year
	}
	q.Page, _ = strconv.Atoi(c.Query("page", "1"))
	q.PageSize, _ = strconv.Atoi(c.Query("limit", strconv.Itoa(services.RecentDeploymentsPageSize)))

	d, err := h.dashboards.Dashboard(c.UserContext(), q)
	if err != nil {
		h.log.Error("build dashboard", zap.Error(err))
		return response.InternalServerError(c, "Failed to build dashboard")
	}
	return response.Success(c, d)
}

// GetSummaryReport handles GET /api/v1/reports/summary with the list filters
func (h *DashboardHandler) GetSummaryReport(c *fiber.Ctx) error {
	report, err := h.reports.Summary(c.UserContext(), handlers.FilterSpec(c))
	if err != nil {
		h.log.Error("build summary report", zap.Error(err))
		return response.InternalServerError(c, "Failed to build report")
	}
	return response.Success(c, report)
}
