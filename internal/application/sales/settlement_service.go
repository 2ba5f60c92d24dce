package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/sales"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

// SaleNumberPrefix is the document prefix for sale numbers
const SaleNumberPrefix = "VNT"

// saleSequenceScope is the sequence key family for sale numbering
const saleSequenceScope = "sale"

// SettlementService executes the settlement transaction: it consumes stock
// FIFO by expiration, computes and records the sale, and hands an underpaid
// sale to the finance layer for debt creation. All of it happens inside one
// transaction scope.
type SettlementService struct {
	scope     TransactionScope
	saleRepo  sales.SaleRepository
	sequences shared.SequenceGenerator
	clock     shared.Clock
	notifier  SettlementNotifier
	publisher shared.EventPublisher
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(
	scope TransactionScope,
	saleRepo sales.SaleRepository,
	sequences shared.SequenceGenerator,
	clock shared.Clock,
) *SettlementService {
	return &SettlementService{
		scope:     scope,
		saleRepo:  saleRepo,
		sequences: sequences,
		clock:     clock,
	}
}

// SetNotifier sets the settlement notifier called inside the transaction
func (s *SettlementService) SetNotifier(notifier SettlementNotifier) {
	s.notifier = notifier
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *SettlementService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// RecordSale settles a sale: validates the request, consumes lots FIFO by
// expiration for every line, computes the totals, persists the sale and, when
// the payment falls short of the total, creates the client debt — all in one
// transaction. Any failure rolls the whole settlement back.
func (s *SettlementService) RecordSale(ctx context.Context, cmd RecordSaleCommand) (*SaleResponse, error) {
	currency := valueobject.Currency(cmd.Currency)
	if cmd.Currency == "" {
		currency = valueobject.CDF
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Unsupported currency %q", cmd.Currency))
	}
	if len(cmd.Lines) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Sale must have at least one line")
	}
	paymentType := sales.PaymentType(cmd.PaymentType)
	if !paymentType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Unknown payment type %q", cmd.PaymentType))
	}
	paid, err := valueobject.NewMoney(cmd.PaidAmount, currency)
	if err != nil {
		return nil, err
	}
	if paid.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Paid amount cannot be negative")
	}

	now := s.clock.Now()

	var sale *sales.Sale
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		saleNumber, err := s.nextSaleNumber(ctx, cmd.TenantID)
		if err != nil {
			return err
		}

		sale, err = sales.NewSale(cmd.TenantID, cmd.ShopID, saleNumber, cmd.SellerID, cmd.CustomerID, currency)
		if err != nil {
			return err
		}

		products, err := s.loadProducts(ctx, repos, cmd)
		if err != nil {
			return err
		}

		for _, input := range cmd.Lines {
			product := products[input.ProductID]
			line, err := s.buildLine(product, input, currency)
			if err != nil {
				return err
			}
			if err := s.consumeStock(ctx, repos, sale, line, now); err != nil {
				return err
			}
			if err := sale.AddLine(line, currency); err != nil {
				return err
			}
		}

		if err := sale.Complete(paid, paymentType, now); err != nil {
			return err
		}
		if sale.IsUnderpaid() && sale.CustomerID == nil {
			return shared.NewDomainErrorWithDetails(
				shared.CodeValidation,
				"A sale with an outstanding balance requires a customer",
				map[string]any{"outstanding": sale.OutstandingMoney().Amount().String()},
			)
		}

		if err := repos.SaleRepo().Save(ctx, sale); err != nil {
			return err
		}

		if s.notifier != nil && sale.IsUnderpaid() {
			if err := s.notifier.SaleCompleted(ctx, repos, sale, cmd.DueDate); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, sale)
	return ToSaleResponse(sale), nil
}

// CancelSale voids a completed sale and returns its consumed quantities to
// the lots they were drawn from. The finance layer vetoes the cancellation
// when the sale's debt already received payments.
func (s *SettlementService) CancelSale(ctx context.Context, cmd CancelSaleCommand) (*SaleResponse, error) {
	var sale *sales.Sale
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		sale, err = repos.SaleRepo().FindByID(ctx, cmd.TenantID, cmd.SaleID)
		if err != nil {
			return err
		}

		if s.notifier != nil {
			if err := s.notifier.SaleCancelled(ctx, repos, sale); err != nil {
				return err
			}
		}

		if err := sale.Cancel(cmd.Reason, s.clock.Now()); err != nil {
			return err
		}
		if err := s.restock(ctx, repos, sale); err != nil {
			return err
		}
		return repos.SaleRepo().Save(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, sale)
	return ToSaleResponse(sale), nil
}

// GetSale retrieves a sale by ID
func (s *SettlementService) GetSale(ctx context.Context, tenantID, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	return ToSaleResponse(sale), nil
}

// GetSaleByNumber retrieves a sale by its document number
func (s *SettlementService) GetSaleByNumber(ctx context.Context, tenantID uuid.UUID, saleNumber string) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindBySaleNumber(ctx, tenantID, saleNumber)
	if err != nil {
		return nil, err
	}
	return ToSaleResponse(sale), nil
}

// ListSales lists sales for a shop
func (s *SettlementService) ListSales(ctx context.Context, tenantID, shopID uuid.UUID, filter SaleListFilter) ([]*SaleResponse, error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	}
	if filter.Status != "" {
		domainFilter.Filters = map[string]any{"status": filter.Status}
	}

	found, err := s.saleRepo.FindAll(ctx, tenantID, shopID, domainFilter)
	if err != nil {
		return nil, err
	}
	responses := make([]*SaleResponse, 0, len(found))
	for i := range found {
		responses = append(responses, ToSaleResponse(&found[i]))
	}
	return responses, nil
}

// nextSaleNumber builds the day-scoped sale number, e.g. VNT-20240315-0001.
func (s *SettlementService) nextSaleNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	day := s.clock.Now().Format("20060102")
	seq, err := s.sequences.Next(ctx, tenantID, saleSequenceScope, day)
	if err != nil {
		return "", fmt.Errorf("generate sale number: %w", err)
	}
	return fmt.Sprintf("%s-%s-%04d", SaleNumberPrefix, day, seq), nil
}

// loadProducts fetches and validates every product referenced by the command.
func (s *SettlementService) loadProducts(ctx context.Context, repos TransactionalRepositories, cmd RecordSaleCommand) (map[uuid.UUID]*catalog.Product, error) {
	ids := make([]uuid.UUID, 0, len(cmd.Lines))
	seen := make(map[uuid.UUID]bool, len(cmd.Lines))
	for _, line := range cmd.Lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}

	found, err := repos.ProductRepo().FindByIDs(ctx, cmd.TenantID, ids)
	if err != nil {
		return nil, err
	}

	products := make(map[uuid.UUID]*catalog.Product, len(found))
	for i := range found {
		products[found[i].ID] = &found[i]
	}
	for _, id := range ids {
		product, ok := products[id]
		if !ok {
			return nil, shared.NewDomainErrorWithDetails(shared.CodeNotFound, "Product not found",
				map[string]any{"product_id": id.String()})
		}
		if !product.BelongsTo(cmd.TenantID, cmd.ShopID) {
			return nil, shared.NewDomainErrorWithDetails(shared.CodeNotFound, "Product not found in this shop",
				map[string]any{"product_id": id.String()})
		}
		if !product.Active {
			return nil, shared.NewDomainErrorWithDetails(shared.CodeValidation, "Product is not active",
				map[string]any{"product_id": id.String()})
		}
	}
	return products, nil
}

// buildLine turns one input line into a SaleLine, enforcing divisibility.
func (s *SettlementService) buildLine(product *catalog.Product, input SaleLineInput, currency valueobject.Currency) (*sales.SaleLine, error) {
	quantity, err := valueobject.NewQuantity(input.Quantity)
	if err != nil {
		return nil, err
	}
	if !product.Divisible {
		if err := quantity.RequireWhole(); err != nil {
			return nil, shared.NewDomainErrorWithDetails(
				shared.CodeFractionalQuantity,
				fmt.Sprintf("Product %q is sold in whole units only", product.Name),
				map[string]any{"product_id": product.ID.String(), "quantity": quantity.String()},
			)
		}
	}

	unitPrice, err := valueobject.NewMoney(input.UnitPrice, currency)
	if err != nil {
		return nil, err
	}
	discount, err := valueobject.NewMoney(input.Discount, currency)
	if err != nil {
		return nil, err
	}
	return sales.NewSaleLine(product.ID, product.Name, quantity, unitPrice, input.TaxRate, discount)
}

// consumeStock locks the product's consumable lots, plans the FIFO
// consumption and applies it, recording the allocations on the line.
func (s *SettlementService) consumeStock(ctx context.Context, repos TransactionalRepositories, sale *sales.Sale, line *sales.SaleLine, now time.Time) error {
	lots, err := repos.LotRepo().FindConsumable(ctx, sale.TenantID, sale.ShopID, line.ProductID, now)
	if err != nil {
		return err
	}
	plan, err := inventory.PlanConsumption(lots, line.ProductID, line.Quantity, now)
	if err != nil {
		return err
	}
	if err := plan.Apply(lots, now); err != nil {
		return err
	}
	if err := repos.LotRepo().SaveAll(ctx, lots); err != nil {
		return err
	}
	line.SetAllocations(plan.Allocations)
	return nil
}

// restock returns every allocated quantity of a cancelled sale to its source lot.
func (s *SettlementService) restock(ctx context.Context, repos TransactionalRepositories, sale *sales.Sale) error {
	lotIDs := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]bool)
	for _, line := range sale.Lines {
		for _, alloc := range line.Allocations {
			if !seen[alloc.LotID] {
				seen[alloc.LotID] = true
				lotIDs = append(lotIDs, alloc.LotID)
			}
		}
	}
	if len(lotIDs) == 0 {
		return nil
	}

	lots, err := repos.LotRepo().FindByIDsForUpdate(ctx, sale.TenantID, lotIDs)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*inventory.Lot, len(lots))
	for _, lot := range lots {
		byID[lot.ID] = lot
	}

	now := s.clock.Now()
	for _, line := range sale.Lines {
		for _, alloc := range line.Allocations {
			lot, ok := byID[alloc.LotID]
			if !ok {
				return shared.NewDomainErrorWithDetails(shared.CodeNotFound, "Allocated lot no longer exists",
					map[string]any{"lot_id": alloc.LotID.String()})
			}
			lot.Restock(alloc.Quantity, now)
		}
	}
	return repos.LotRepo().SaveAll(ctx, lots)
}

// publishDomainEvents publishes and clears the sale's pending events
func (s *SettlementService) publishDomainEvents(ctx context.Context, sale *sales.Sale) {
	if s.publisher == nil || sale == nil {
		return
	}
	events := sale.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.publisher.Publish(ctx, events...)
	sale.ClearDomainEvents()
}
