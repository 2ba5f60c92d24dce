package handler

import (
	"github.com/gin-gonic/gin"

	appfinance "github.com/retailcore/backend/internal/application/finance"
)

// DebtHandler serves the debt tracking endpoints
type DebtHandler struct {
	BaseHandler
	service *appfinance.DebtService
}

// NewDebtHandler creates a new DebtHandler
func NewDebtHandler(service *appfinance.DebtService) *DebtHandler {
	return &DebtHandler{service: service}
}

// RegisterRoutes registers the debt routes
func (h *DebtHandler) RegisterRoutes(rg *gin.RouterGroup) {
	debts := rg.Group("/debts")
	{
		debts.GET("", h.ListOutstanding)
		debts.GET("/overdue", h.ListOverdue)
		debts.GET("/party/:partyId", h.ListByParty)
		debts.GET("/:id", h.GetDebt)
		debts.POST("/:id/payments", h.RecordPayment)
		debts.POST("/:id/close", h.CloseDebt)
	}
}

// RecordPayment applies one payment to a debt
func (h *DebtHandler) RecordPayment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	debtID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid debt ID")
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var cmd appfinance.RecordDebtPaymentCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	cmd.TenantID = tenantID
	cmd.DebtID = debtID
	cmd.RecordedBy = userID

	debt, err := h.service.RecordPayment(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, debt)
}

// CloseDebt marks a zero-balance debt settled
func (h *DebtHandler) CloseDebt(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	debtID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid debt ID")
		return
	}

	debt, err := h.service.Close(c.Request.Context(), tenantID, debtID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, debt)
}

// GetDebt returns one debt with its settlement history
func (h *DebtHandler) GetDebt(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	debtID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid debt ID")
		return
	}

	debt, err := h.service.GetDebt(c.Request.Context(), tenantID, debtID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, debt)
}

// ListOutstanding lists the shop's debts that still carry a balance
func (h *DebtHandler) ListOutstanding(c *gin.Context) {
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

	var filter appfinance.DebtListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	debts, total, err := h.service.ListOutstanding(c.Request.Context(), tenantID, shopID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, debts, total, filter.Page, filter.PageSize)
}

// ListOverdue lists unsettled debts past their due date
func (h *DebtHandler) ListOverdue(c *gin.Context) {
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

	var filter appfinance.DebtListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	debts, total, err := h.service.ListOverdue(c.Request.Context(), tenantID, shopID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, debts, total, filter.Page, filter.PageSize)
}

// ListByParty lists the debts of one client or supplier
func (h *DebtHandler) ListByParty(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	partyID, err := parseUUIDParam(c, "partyId")
	if err != nil {
		h.BadRequest(c, "Invalid party ID")
		return
	}

	var filter appfinance.DebtListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	debts, total, err := h.service.ListByParty(c.Request.Context(), tenantID, partyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, debts, total, filter.Page, filter.PageSize)
}
