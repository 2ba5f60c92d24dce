package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

// LotService receives lots into stock and serves the expiry and low-stock
// queries. Consumption itself belongs to the settlement service; this
// service never deducts.
type LotService struct {
	lotRepo     inventory.LotRepository
	productRepo catalog.ProductRepository
	clock       shared.Clock
	publisher   shared.EventPublisher
}

// NewLotService creates a new LotService
func NewLotService(lotRepo inventory.LotRepository, productRepo catalog.ProductRepository, clock shared.Clock) *LotService {
	return &LotService{
		lotRepo:     lotRepo,
		productRepo: productRepo,
		clock:       clock,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LotService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// ReceiveLot records a new lot of stock for a product.
func (s *LotService) ReceiveLot(ctx context.Context, cmd ReceiveLotCommand) (*LotResponse, error) {
	product, err := s.productRepo.FindByID(ctx, cmd.TenantID, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.BelongsTo(cmd.TenantID, cmd.ShopID) {
		return nil, shared.NewDomainErrorWithDetails(shared.CodeNotFound, "Product not found in this shop",
			map[string]any{"product_id": cmd.ProductID.String()})
	}

	quantity, err := valueobject.NewQuantity(cmd.Quantity)
	if err != nil {
		return nil, err
	}
	if !product.Divisible {
		if err := quantity.RequireWhole(); err != nil {
			return nil, err
		}
	}

	lot, err := inventory.NewLot(cmd.TenantID, cmd.ShopID, cmd.ProductID, cmd.BatchNumber, cmd.ExpirationDate, quantity)
	if err != nil {
		return nil, err
	}
	if err := s.lotRepo.Save(ctx, lot); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, lot.GetDomainEvents()...)
		lot.ClearDomainEvents()
	}
	return ToLotResponse(lot, s.clock.Now()), nil
}

// GetLot retrieves a lot by ID
func (s *LotService) GetLot(ctx context.Context, tenantID, lotID uuid.UUID) (*LotResponse, error) {
	lot, err := s.lotRepo.FindByID(ctx, tenantID, lotID)
	if err != nil {
		return nil, err
	}
	return ToLotResponse(lot, s.clock.Now()), nil
}

// ListExpiringWithin lists active lots expiring within the given number of days
func (s *LotService) ListExpiringWithin(ctx context.Context, tenantID, shopID uuid.UUID, days int) ([]*LotResponse, error) {
	if days <= 0 {
		days = 30
	}
	now := s.clock.Now()
	lots, err := s.lotRepo.FindExpiringWithin(ctx, tenantID, shopID, now, days)
	if err != nil {
		return nil, err
	}
	return s.toResponses(lots, now), nil
}

// ListExpired lists lots past their expiration day that still hold quantity
func (s *LotService) ListExpired(ctx context.Context, tenantID, shopID uuid.UUID) ([]*LotResponse, error) {
	now := s.clock.Now()
	lots, err := s.lotRepo.FindExpired(ctx, tenantID, shopID, now)
	if err != nil {
		return nil, err
	}
	return s.toResponses(lots, now), nil
}

// ProductAvailability returns the total consumable quantity of one product
func (s *LotService) ProductAvailability(ctx context.Context, tenantID, shopID, productID uuid.UUID) (*LowStockItem, error) {
	product, err := s.productRepo.FindByID(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	stocks, err := s.lotRepo.SumRemainingByProduct(ctx, tenantID, shopID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	item := &LowStockItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		Threshold:   product.LowStockThreshold,
	}
	for _, stock := range stocks {
		if stock.ProductID == productID {
			item.Available = stock.Total
			break
		}
	}
	return item, nil
}

// ListLowStock lists products whose total consumable quantity sits at or
// below their low-stock threshold. A product with no consumable lots at all
// counts as zero available.
func (s *LotService) ListLowStock(ctx context.Context, tenantID, shopID uuid.UUID) ([]*LowStockItem, error) {
	stocks, err := s.lotRepo.SumRemainingByProduct(ctx, tenantID, shopID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	available := make(map[uuid.UUID]inventory.ProductStock, len(stocks))
	for _, stock := range stocks {
		available[stock.ProductID] = stock
	}

	products, err := s.productRepo.FindActiveByShop(ctx, tenantID, shopID)
	if err != nil {
		return nil, err
	}

	items := make([]*LowStockItem, 0)
	for i := range products {
		product := &products[i]
		if !product.LowStockThreshold.IsPositive() {
			continue
		}
		total := available[product.ID].Total
		if total.LessThanOrEqual(product.LowStockThreshold) {
			items = append(items, &LowStockItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   total,
				Threshold:   product.LowStockThreshold,
			})
		}
	}
	return items, nil
}

func (s *LotService) toResponses(lots []inventory.Lot, now time.Time) []*LotResponse {
	responses := make([]*LotResponse, 0, len(lots))
	for i := range lots {
		responses = append(responses, ToLotResponse(&lots[i], now))
	}
	return responses
}
