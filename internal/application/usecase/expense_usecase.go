package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/invoiceaz/billing-api/internal/application/billing"
	"github.com/invoiceaz/billing-api/internal/application/dto"
	"github.com/invoiceaz/billing-api/internal/application/tenant"
	"github.com/invoiceaz/billing-api/internal/domain"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
	"github.com/invoiceaz/billing-api/internal/domain/rbac"
	"github.com/invoiceaz/billing-api/internal/domain/repository"
)

const expenseDateLayout = "2006-01-02"

// ExpenseUseCase gestiona los gastos del negocio activo, con el cupo
// mensual del plan y el aviso al exceder el presupuesto del negocio.
type ExpenseUseCase struct {
	expenseRepo  repository.ExpenseRepository
	clientRepo   repository.ClientRepository
	businessRepo repository.BusinessRepository
	publisher    billing.EventPublisher
	cache        tenant.Cache
}

// NewExpenseUseCase construye el caso de uso.
func NewExpenseUseCase(
	expenseRepo repository.ExpenseRepository,
	clientRepo repository.ClientRepository,
	businessRepo repository.BusinessRepository,
	publisher billing.EventPublisher,
	cache tenant.Cache,
) *ExpenseUseCase {
	return &ExpenseUseCase{
		expenseRepo:  expenseRepo,
		clientRepo:   clientRepo,
		businessRepo: businessRepo,
		publisher:    publisher,
		cache:        cache,
	}
}

// Create registra un gasto.
func (uc *ExpenseUseCase) Create(ctx context.Context, actor tenant.Actor, in dto.CreateExpenseRequest) (*dto.ExpenseResponse, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionCreate, rbac.ResourceExpense)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	if in.Description == "" || !in.Amount.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	category := in.Category
	if category == "" {
		category = entity.ExpenseCategoryOther
	}
	if !entity.ValidExpenseCategory(category) {
		return nil, fmt.Errorf("categoría %q: %w", in.Category, domain.ErrInvalidInput)
	}
	status := in.Status
	if status == "" {
		status = entity.ExpenseStatusPaid
	}
	if status != entity.ExpenseStatusPaid && status != entity.ExpenseStatusPending {
		return nil, domain.ErrInvalidInput
	}
	date := time.Now()
	if in.Date != "" {
		parsed, err := time.Parse(expenseDateLayout, in.Date)
		if err != nil {
			return nil, fmt.Errorf("fecha inválida %q: %w", in.Date, domain.ErrInvalidInput)
		}
		date = parsed
	}
	currency := in.Currency
	if currency != "" && !entity.ValidCurrency(currency) {
		return nil, domain.ErrInvalidInput
	}
	if in.ClientID != "" {
		client, err := uc.clientRepo.GetByID(in.ClientID)
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, domain.ErrNotFound
		}
		if err := tenant.SameTenant(actor.BusinessID, client.BusinessID); err != nil {
			return nil, err
		}
	}

	// Cupo mensual del plan
	limits := entity.LimitsForPlan(actor.Plan)
	if limits.ExpensesPerMonth != entity.Unlimited {
		count, err := uc.expenseRepo.CountInMonth(actor.BusinessID, date.Year(), date.Month())
		if err != nil {
			return nil, err
		}
		if !limits.Allows(limits.ExpensesPerMonth, count) {
			return nil, &domain.LimitExceededError{Resource: "expenses", Limit: limits.ExpensesPerMonth, Current: count}
		}
	}

	business, err := uc.businessRepo.GetByID(actor.BusinessID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, domain.ErrNotFound
	}
	if currency == "" {
		currency = business.DefaultCurrency
	}

	now := time.Now()
	expense := &entity.Expense{
		ID:          uuid.New().String(),
		BusinessID:  actor.BusinessID,
		Description: in.Description,
		Vendor:      in.Vendor,
		Amount:      in.Amount,
		Currency:    currency,
		Date:        date,
		Category:    category,
		Status:      status,
		Method:      in.Method,
		ClientID:    in.ClientID,
		Notes:       in.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.expenseRepo.Create(expense); err != nil {
		return nil, err
	}

	uc.cache.Invalidate(actor.BusinessID)
	uc.publisher.Publish(&entity.Event{
		BusinessID: actor.BusinessID,
		ActorID:    actor.MembershipID,
		EntityKind: entity.EntityExpense,
		EntityID:   expense.ID,
		Action:     entity.EventCreated,
		Detail:     expense.Description,
		OccurredAt: now,
	})
	uc.warnIfOverBudget(actor, business, date)

	resp := toExpenseResponse(expense)
	return &resp, nil
}

// Get devuelve un gasto del negocio activo.
func (uc *ExpenseUseCase) Get(ctx context.Context, actor tenant.Actor, id string) (*dto.ExpenseResponse, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionRead, rbac.ResourceExpense)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	expense, err := uc.loadScoped(actor, id)
	if err != nil {
		return nil, err
	}
	resp := toExpenseResponse(expense)
	return &resp, nil
}

// List lista los gastos del negocio activo.
func (uc *ExpenseUseCase) List(ctx context.Context, actor tenant.Actor, page dto.PageRequest) ([]dto.ExpenseResponse, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionRead, rbac.ResourceExpense)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	page.DefaultPage()
	list, err := uc.expenseRepo.ListByBusiness(actor.BusinessID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ExpenseResponse, 0, len(list))
	for _, e := range list {
		out = append(out, toExpenseResponse(e))
	}
	return out, nil
}

// Update edita un gasto.
func (uc *ExpenseUseCase) Update(ctx context.Context, actor tenant.Actor, id string, in dto.UpdateExpenseRequest) (*dto.ExpenseResponse, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionUpdate, rbac.ResourceExpense)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	expense, err := uc.loadScoped(actor, id)
	if err != nil {
		return nil, err
	}

	if in.Description != nil {
		if *in.Description == "" {
			return nil, domain.ErrInvalidInput
		}
		expense.Description = *in.Description
	}
	if in.Vendor != nil {
		expense.Vendor = *in.Vendor
	}
	if in.Amount != nil {
		if !in.Amount.IsPositive() {
			return nil, domain.ErrInvalidInput
		}
		expense.Amount = *in.Amount
	}
	if in.Currency != nil {
		if !entity.ValidCurrency(*in.Currency) {
			return nil, domain.ErrInvalidInput
		}
		expense.Currency = *in.Currency
	}
	if in.Date != nil {
		parsed, err := time.Parse(expenseDateLayout, *in.Date)
		if err != nil {
			return nil, fmt.Errorf("fecha inválida %q: %w", *in.Date, domain.ErrInvalidInput)
		}
		expense.Date = parsed
	}
	if in.Category != nil {
		if !entity.ValidExpenseCategory(*in.Category) {
			return nil, domain.ErrInvalidInput
		}
		expense.Category = *in.Category
	}
	if in.Status != nil {
		if *in.Status != entity.ExpenseStatusPaid && *in.Status != entity.ExpenseStatusPending {
			return nil, domain.ErrInvalidInput
		}
		expense.Status = *in.Status
	}
	if in.Method != nil {
		expense.Method = *in.Method
	}
	if in.ClientID != nil {
		if *in.ClientID != "" {
			client, err := uc.clientRepo.GetByID(*in.ClientID)
			if err != nil {
				return nil, err
			}
			if client == nil {
				return nil, domain.ErrNotFound
			}
			if err := tenant.SameTenant(actor.BusinessID, client.BusinessID); err != nil {
				return nil, err
			}
		}
		expense.ClientID = *in.ClientID
	}
	if in.Notes != nil {
		expense.Notes = *in.Notes
	}
	expense.UpdatedAt = time.Now()

	if err := uc.expenseRepo.Update(expense); err != nil {
		return nil, err
	}
	uc.cache.Invalidate(actor.BusinessID)

	if business, err := uc.businessRepo.GetByID(actor.BusinessID); err == nil && business != nil {
		uc.warnIfOverBudget(actor, business, expense.Date)
	}

	resp := toExpenseResponse(expense)
	return &resp, nil
}

// Delete elimina un gasto.
func (uc *ExpenseUseCase) Delete(ctx context.Context, actor tenant.Actor, id string) error {
	decision := rbac.Authorize(actor.Role, rbac.ActionDelete, rbac.ResourceExpense)
	if !decision.Allowed {
		return domain.ErrForbidden
	}
	expense, err := uc.loadScoped(actor, id)
	if err != nil {
		return err
	}
	if err := uc.expenseRepo.Delete(expense.ID); err != nil {
		return err
	}
	uc.cache.Invalidate(actor.BusinessID)
	uc.publisher.Publish(&entity.Event{
		BusinessID: actor.BusinessID,
		ActorID:    actor.MembershipID,
		EntityKind: entity.EntityExpense,
		EntityID:   expense.ID,
		Action:     entity.EventDeleted,
		Detail:     expense.Description,
		OccurredAt: time.Now(),
	})
	return nil
}

// warnIfOverBudget emite el aviso de presupuesto cuando la suma del mes
// supera el límite del negocio. Con límite cero no hay control.
func (uc *ExpenseUseCase) warnIfOverBudget(actor tenant.Actor, business *entity.Business, date time.Time) {
	if !business.BudgetLimit.IsPositive() {
		return
	}
	sum, err := uc.expenseRepo.SumInMonth(actor.BusinessID, date.Year(), date.Month())
	if err != nil || sum.LessThanOrEqual(business.BudgetLimit) {
		return
	}
	uc.publisher.Publish(&entity.Event{
		BusinessID: actor.BusinessID,
		ActorID:    actor.MembershipID,
		EntityKind: entity.EntityBusiness,
		EntityID:   business.ID,
		Action:     entity.EventBudgetWarning,
		Detail:     fmt.Sprintf("gastos del mes %s sobre un presupuesto de %s", sum.StringFixed(2), business.BudgetLimit.StringFixed(2)),
		OccurredAt: time.Now(),
	})
}

func (uc *ExpenseUseCase) loadScoped(actor tenant.Actor, id string) (*entity.Expense, error) {
	expense, err := uc.expenseRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, domain.ErrNotFound
	}
	if err := tenant.SameTenant(actor.BusinessID, expense.BusinessID); err != nil {
		return nil, err
	}
	return expense, nil
}

func toExpenseResponse(e *entity.Expense) dto.ExpenseResponse {
	return dto.ExpenseResponse{
		ID:          e.ID,
		BusinessID:  e.BusinessID,
		Description: e.Description,
		Vendor:      e.Vendor,
		Amount:      e.Amount,
		Currency:    e.Currency,
		Date:        e.Date.Format(expenseDateLayout),
		Category:    e.Category,
		Status:      e.Status,
		Method:      e.Method,
		ClientID:    e.ClientID,
		Notes:       e.Notes,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
