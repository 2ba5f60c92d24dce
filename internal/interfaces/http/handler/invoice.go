package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appfinance "github.com/retailcore/backend/internal/application/finance"
	"github.com/retailcore/backend/internal/domain/finance"
)

// InvoiceHandler serves the invoice endpoints
type InvoiceHandler struct {
	BaseHandler
	service *appfinance.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(service *appfinance.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

// RegisterRoutes registers the invoice routes
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.IssueInvoice)
		invoices.GET("", h.ListInvoices)
		invoices.GET("/:id", h.GetInvoice)
		invoices.POST("/:id/validate", h.ValidateInvoice)
		invoices.POST("/:id/pay", h.MarkPaid)
	}
}

// issueInvoiceRequest identifies the document to invoice. Purchase sources
// carry their billing details inline.
type issueInvoiceRequest struct {
	SourceType string                             `json:"source_type" binding:"required,oneof=SALE PURCHASE"`
	SourceID   string                             `json:"source_id" binding:"required,uuid"`
	Purchase   *appfinance.PurchaseInvoiceDetails `json:"purchase"`
}

// IssueInvoice issues a draft invoice snapshotting a sale or purchase
func (h *InvoiceHandler) IssueInvoice(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req issueInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	sourceID, err := uuid.Parse(req.SourceID)
	if err != nil {
		h.BadRequest(c, "Invalid source ID")
		return
	}

	invoice, err := h.service.Issue(c.Request.Context(), appfinance.IssueInvoiceCommand{
		TenantID:   tenantID,
		SourceType: finance.ReferenceType(req.SourceType),
		SourceID:   sourceID,
		Purchase:   req.Purchase,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// ValidateInvoice finalizes a draft invoice
func (h *InvoiceHandler) ValidateInvoice(c *gin.Context) {
	h.transition(c, h.service.Validate)
}

// MarkPaid marks a validated invoice paid
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	h.transition(c, h.service.MarkPaid)
}

// GetInvoice returns one invoice
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	h.transition(c, h.service.GetInvoice)
}

// transition runs one of the tenant+id invoice operations and renders the
// result, keeping the lookup and status endpoints uniform.
func (h *InvoiceHandler) transition(c *gin.Context, fn func(context.Context, uuid.UUID, uuid.UUID) (*appfinance.InvoiceResponse, error)) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	invoiceID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := fn(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// ListInvoices lists the shop's invoices, optionally by status
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
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

	invoices, total, err := h.service.ListInvoices(c.Request.Context(), tenantID, shopID, c.Query("status"), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, invoices, total, filter.Page, filter.PageSize)
}
