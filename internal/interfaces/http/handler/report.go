package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/retailcore/backend/internal/application/report"
)

// ReportHandler serves the dashboard reporting endpoints
type ReportHandler struct {
	BaseHandler
	service *report.RevenueService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service *report.RevenueService) *ReportHandler {
	return &ReportHandler{service: service}
}

// RegisterRoutes registers the report routes
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")
	{
		reports.GET("/revenue", h.GetRevenue)
	}
}

// GetRevenue returns the per-currency revenue of completed sales over
// [from, to). Both bounds accept RFC 3339 timestamps or plain dates.
func (h *ReportHandler) GetRevenue(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	shopID, err := getShopID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	from, err := parseTimeParam(c.Query("from"))
	if err != nil {
		h.BadRequest(c, "from must be an RFC 3339 timestamp or a YYYY-MM-DD date")
		return
	}
	to, err := parseTimeParam(c.Query("to"))
	if err != nil {
		h.BadRequest(c, "to must be an RFC 3339 timestamp or a YYYY-MM-DD date")
		return
	}

	result, err := h.service.GetRevenue(c.Request.Context(), tenantID, shopID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// parseTimeParam accepts RFC 3339 timestamps and bare dates
func parseTimeParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
