package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/sales"
)

// RecordSaleCommand is the full input of a settlement. Quantities and
// amounts arrive as decimals; the service turns them into value objects.
type RecordSaleCommand struct {
	TenantID    uuid.UUID
	ShopID      uuid.UUID
	SellerID    uuid.UUID       `json:"seller_id" binding:"required"`
	CustomerID  *uuid.UUID      `json:"customer_id"`
	Currency    string          `json:"currency"`
	PaymentType string          `json:"payment_type" binding:"required"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	DueDate     *time.Time      `json:"due_date"`
	Lines       []SaleLineInput `json:"lines" binding:"required,min=1,dive"`
}

// SaleLineInput is one requested sale line
type SaleLineInput struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	Discount  decimal.Decimal `json:"discount"`
}

// CancelSaleCommand requests cancellation of a completed sale
type CancelSaleCommand struct {
	TenantID uuid.UUID
	SaleID   uuid.UUID
	Reason   string `json:"reason" binding:"required,min=1,max=500"`
}

// SaleListFilter represents filter options for the sale list
type SaleListFilter struct {
	Status   string `form:"status"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// AllocationResponse reports which lot a line quantity was drawn from
type AllocationResponse struct {
	LotID       uuid.UUID       `json:"lot_id"`
	BatchNumber string          `json:"batch_number"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// SaleLineResponse represents a sale line in API responses
type SaleLineResponse struct {
	ID          uuid.UUID            `json:"id"`
	ProductID   uuid.UUID            `json:"product_id"`
	ProductName string               `json:"product_name"`
	Quantity    decimal.Decimal      `json:"quantity"`
	UnitPrice   decimal.Decimal      `json:"unit_price"`
	TaxRate     decimal.Decimal      `json:"tax_rate"`
	Discount    decimal.Decimal      `json:"discount"`
	Subtotal    decimal.Decimal      `json:"subtotal"`
	Tax         decimal.Decimal      `json:"tax"`
	Total       decimal.Decimal      `json:"total"`
	Allocations []AllocationResponse `json:"allocations"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID           uuid.UUID          `json:"id"`
	SaleNumber   string             `json:"sale_number"`
	ShopID       uuid.UUID          `json:"shop_id"`
	SellerID     uuid.UUID          `json:"seller_id"`
	CustomerID   *uuid.UUID         `json:"customer_id,omitempty"`
	Status       string             `json:"status"`
	Currency     string             `json:"currency"`
	Lines        []SaleLineResponse `json:"lines"`
	Subtotal     decimal.Decimal    `json:"subtotal"`
	TaxAmount    decimal.Decimal    `json:"tax_amount"`
	Discount     decimal.Decimal    `json:"discount"`
	Total        decimal.Decimal    `json:"total"`
	PaidAmount   decimal.Decimal    `json:"paid_amount"`
	Outstanding  decimal.Decimal    `json:"outstanding"`
	PaymentType  string             `json:"payment_type"`
	SoldAt       *time.Time         `json:"sold_at,omitempty"`
	CancelledAt  *time.Time         `json:"cancelled_at,omitempty"`
	CancelReason string             `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// ToSaleResponse converts a sale aggregate to its response DTO
func ToSaleResponse(sale *sales.Sale) *SaleResponse {
	lines := make([]SaleLineResponse, 0, len(sale.Lines))
	for _, line := range sale.Lines {
		allocations := make([]AllocationResponse, 0, len(line.Allocations))
		for _, alloc := range line.Allocations {
			allocations = append(allocations, AllocationResponse{
				LotID:       alloc.LotID,
				BatchNumber: alloc.BatchNumber,
				Quantity:    alloc.Quantity.Amount(),
			})
		}
		lines = append(lines, SaleLineResponse{
			ID:          line.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity.Amount(),
			UnitPrice:   line.UnitPrice,
			TaxRate:     line.TaxRate,
			Discount:    line.Discount,
			Subtotal:    line.LineSubtotal,
			Tax:         line.LineTax,
			Total:       line.LineTotal,
			Allocations: allocations,
		})
	}

	return &SaleResponse{
		ID:           sale.ID,
		SaleNumber:   sale.SaleNumber,
		ShopID:       sale.ShopID,
		SellerID:     sale.SellerID,
		CustomerID:   sale.CustomerID,
		Status:       sale.Status.String(),
		Currency:     string(sale.Currency),
		Lines:        lines,
		Subtotal:     sale.Subtotal,
		TaxAmount:    sale.TaxAmount,
		Discount:     sale.DiscountAmount,
		Total:        sale.Total,
		PaidAmount:   sale.PaidAmount,
		Outstanding:  sale.OutstandingMoney().Amount(),
		PaymentType:  string(sale.PaymentType),
		SoldAt:       sale.SoldAt,
		CancelledAt:  sale.CancelledAt,
		CancelReason: sale.CancelReason,
		CreatedAt:    sale.CreatedAt,
	}
}
