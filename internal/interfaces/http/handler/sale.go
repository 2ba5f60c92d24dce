package handler

import (
	"github.com/gin-gonic/gin"

	appsales "github.com/retailcore/backend/internal/application/sales"
)

// SaleHandler serves the sale settlement endpoints
type SaleHandler struct {
	BaseHandler
	service *appsales.SettlementService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(service *appsales.SettlementService) *SaleHandler {
	return &SaleHandler{service: service}
}

// RegisterRoutes registers the sale routes
func (h *SaleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sales := rg.Group("/sales")
	{
		sales.POST("", h.RecordSale)
		sales.GET("", h.ListSales)
		sales.GET("/:id", h.GetSale)
		sales.GET("/number/:number", h.GetSaleByNumber)
		sales.POST("/:id/cancel", h.CancelSale)
	}
}

// RecordSale settles a new sale: consumes stock, persists the sale and
// creates a debt for any unpaid remainder, all in one transaction.
func (h *SaleHandler) RecordSale(c *gin.Context) {
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

	var cmd appsales.RecordSaleCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	cmd.TenantID = tenantID
	cmd.ShopID = shopID

	sale, err := h.service.RecordSale(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// CancelSale voids a sale, restocking the consumed lots and retiring any
// unpaid debt it created.
func (h *SaleHandler) CancelSale(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	saleID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid sale ID")
		return
	}

	var cmd appsales.CancelSaleCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	cmd.TenantID = tenantID
	cmd.SaleID = saleID

	sale, err := h.service.CancelSale(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// GetSale returns one sale with its lines
func (h *SaleHandler) GetSale(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	saleID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid sale ID")
		return
	}

	sale, err := h.service.GetSale(c.Request.Context(), tenantID, saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// GetSaleByNumber returns one sale looked up by its document number
func (h *SaleHandler) GetSaleByNumber(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sale, err := h.service.GetSaleByNumber(c.Request.Context(), tenantID, c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// ListSales lists the shop's sales with filtering and pagination
func (h *SaleHandler) ListSales(c *gin.Context) {
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

	var filter appsales.SaleListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ListSales(c.Request.Context(), tenantID, shopID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
