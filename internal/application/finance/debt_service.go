package finance

import (
	"context"

	"github.com/google/uuid"

	appsales "github.com/retailcore/backend/internal/application/sales"
	"github.com/retailcore/backend/internal/domain/finance"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

// DebtService handles debt payments and queries. Payment recording runs
// under the transaction scope so the row lock, the settlement append and the
// status change commit atomically.
type DebtService struct {
	scope     appsales.TransactionScope
	debtRepo  finance.DebtRepository
	clock     shared.Clock
	publisher shared.EventPublisher
}

// NewDebtService creates a new DebtService
func NewDebtService(scope appsales.TransactionScope, debtRepo finance.DebtRepository, clock shared.Clock) *DebtService {
	return &DebtService{
		scope:    scope,
		debtRepo: debtRepo,
		clock:    clock,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *DebtService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// RecordPayment applies one payment against a debt under an exclusive row
// lock. The settlement history is append-only and always sums to the debt's
// paid amount.
func (s *DebtService) RecordPayment(ctx context.Context, cmd RecordDebtPaymentCommand) (*DebtResponse, error) {
	var debt *finance.Debt
	now := s.clock.Now()

	err := s.scope.Execute(ctx, func(repos appsales.TransactionalRepositories) error {
		var err error
		debt, err = repos.DebtRepo().FindByIDForUpdate(ctx, cmd.TenantID, cmd.DebtID)
		if err != nil {
			return err
		}

		amount, err := valueobject.NewMoney(cmd.Amount, debt.Currency)
		if err != nil {
			return err
		}
		if _, err := debt.RecordPayment(amount, now, cmd.PaymentMethod, cmd.Reference, cmd.RecordedBy); err != nil {
			return err
		}
		return repos.DebtRepo().Save(ctx, debt)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, debt)
	return ToDebtResponse(debt, now), nil
}

// Close marks a zero-balance debt settled.
func (s *DebtService) Close(ctx context.Context, tenantID, debtID uuid.UUID) (*DebtResponse, error) {
	var debt *finance.Debt
	now := s.clock.Now()

	err := s.scope.Execute(ctx, func(repos appsales.TransactionalRepositories) error {
		var err error
		debt, err = repos.DebtRepo().FindByIDForUpdate(ctx, tenantID, debtID)
		if err != nil {
			return err
		}
		if err := debt.Close(now); err != nil {
			return err
		}
		return repos.DebtRepo().Save(ctx, debt)
	})
	if err != nil {
		return nil, err
	}
	return ToDebtResponse(debt, now), nil
}

// GetDebt retrieves a debt with its settlement history
func (s *DebtService) GetDebt(ctx context.Context, tenantID, debtID uuid.UUID) (*DebtResponse, error) {
	debt, err := s.debtRepo.FindByID(ctx, tenantID, debtID)
	if err != nil {
		return nil, err
	}
	return ToDebtResponse(debt, s.clock.Now()), nil
}

// ListByParty lists the debts of one client or supplier
func (s *DebtService) ListByParty(ctx context.Context, tenantID, partyID uuid.UUID, filter DebtListFilter) ([]*DebtResponse, int64, error) {
	debts, total, err := s.debtRepo.FindByParty(ctx, tenantID, partyID, toDomainFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	return s.toResponses(debts), total, nil
}

// ListOutstanding lists debts still carrying a balance for a shop
func (s *DebtService) ListOutstanding(ctx context.Context, tenantID, shopID uuid.UUID, filter DebtListFilter) ([]*DebtResponse, int64, error) {
	debts, total, err := s.debtRepo.FindOutstanding(ctx, tenantID, shopID, toDomainFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	return s.toResponses(debts), total, nil
}

// ListOverdue lists unsettled debts past their due date as of now
func (s *DebtService) ListOverdue(ctx context.Context, tenantID, shopID uuid.UUID, filter DebtListFilter) ([]*DebtResponse, int64, error) {
	debts, total, err := s.debtRepo.FindOverdue(ctx, tenantID, shopID, s.clock.Now(), toDomainFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	return s.toResponses(debts), total, nil
}

func (s *DebtService) toResponses(debts []*finance.Debt) []*DebtResponse {
	now := s.clock.Now()
	responses := make([]*DebtResponse, 0, len(debts))
	for _, debt := range debts {
		responses = append(responses, ToDebtResponse(debt, now))
	}
	return responses
}

func (s *DebtService) publishDomainEvents(ctx context.Context, debt *finance.Debt) {
	if s.publisher == nil || debt == nil {
		return
	}
	events := debt.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.publisher.Publish(ctx, events...)
	debt.ClearDomainEvents()
}

func toDomainFilter(filter DebtListFilter) shared.Filter {
	return shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	}
}
