package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appinventory "github.com/retailcore/backend/internal/application/inventory"
)

// defaultExpiryHorizonDays is the window of the expiring-lots dashboard
// query when the request names none.
const defaultExpiryHorizonDays = 7

// LotHandler serves the lot ledger endpoints
type LotHandler struct {
	BaseHandler
	service *appinventory.LotService
}

// NewLotHandler creates a new LotHandler
func NewLotHandler(service *appinventory.LotService) *LotHandler {
	return &LotHandler{service: service}
}

// RegisterRoutes registers the lot routes
func (h *LotHandler) RegisterRoutes(rg *gin.RouterGroup) {
	lots := rg.Group("/lots")
	{
		lots.POST("", h.ReceiveLot)
		lots.GET("/expiring", h.ListExpiring)
		lots.GET("/expired", h.ListExpired)
		lots.GET("/low-stock", h.ListLowStock)
		lots.GET("/:id", h.GetLot)
	}
}

// ReceiveLot records a received batch as a new lot
func (h *LotHandler) ReceiveLot(c *gin.Context) {
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

	var cmd appinventory.ReceiveLotCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	cmd.TenantID = tenantID
	cmd.ShopID = shopID

	lot, err := h.service.ReceiveLot(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, lot)
}

// GetLot returns one lot
func (h *LotHandler) GetLot(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	lotID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid lot ID")
		return
	}

	lot, err := h.service.GetLot(c.Request.Context(), tenantID, lotID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lot)
}

// ListExpiring lists active lots expiring within the requested day horizon
func (h *LotHandler) ListExpiring(c *gin.Context) {
	tenantID, shopID, ok := h.shopScope(c)
	if !ok {
		return
	}

	days := defaultExpiryHorizonDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.BadRequest(c, "days must be a positive integer")
			return
		}
		days = parsed
	}

	lots, err := h.service.ListExpiringWithin(c.Request.Context(), tenantID, shopID, days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lots)
}

// ListExpired lists lots that still hold quantity past their expiration day
func (h *LotHandler) ListExpired(c *gin.Context) {
	tenantID, shopID, ok := h.shopScope(c)
	if !ok {
		return
	}

	lots, err := h.service.ListExpired(c.Request.Context(), tenantID, shopID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lots)
}

// ListLowStock lists products whose consumable stock fell below their
// threshold
func (h *LotHandler) ListLowStock(c *gin.Context) {
	tenantID, shopID, ok := h.shopScope(c)
	if !ok {
		return
	}

	items, err := h.service.ListLowStock(c.Request.Context(), tenantID, shopID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// shopScope extracts the tenant and shop or renders the failure
func (h *LotHandler) shopScope(c *gin.Context) (tenantID, shopID uuid.UUID, ok bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	shopID, err = getShopID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, shopID, true
}
