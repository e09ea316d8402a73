package usecase

import (
	"context"
	"time"

	"github.com/invoiceaz/billing-api/internal/application/dto"
	"github.com/invoiceaz/billing-api/internal/application/tenant"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
	"github.com/invoiceaz/billing-api/internal/domain/repository"
)

// PlanUseCase reporta los cupos del plan del caller y su uso actual.
type PlanUseCase struct {
	invoiceRepo  repository.InvoiceRepository
	clientRepo   repository.ClientRepository
	expenseRepo  repository.ExpenseRepository
	businessRepo repository.BusinessRepository
}

// NewPlanUseCase construye el caso de uso.
func NewPlanUseCase(
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	expenseRepo repository.ExpenseRepository,
	businessRepo repository.BusinessRepository,
) *PlanUseCase {
	return &PlanUseCase{
		invoiceRepo:  invoiceRepo,
		clientRepo:   clientRepo,
		expenseRepo:  expenseRepo,
		businessRepo: businessRepo,
	}
}

// Status devuelve límites y uso del plan sobre el negocio activo. Las
// consultas son conteos baratos; no pasa por el caché para que la UI vea
// el cupo real al instante.
func (uc *PlanUseCase) Status(ctx context.Context, actor tenant.Actor) (*dto.PlanStatusResponse, error) {
	limits := entity.LimitsForPlan(actor.Plan)
	now := time.Now()

	invoices, err := uc.invoiceRepo.CountCreatedInMonth(actor.BusinessID, now.Year(), now.Month())
	if err != nil {
		return nil, err
	}
	clients, err := uc.clientRepo.CountByOwner(actor.UserID)
	if err != nil {
		return nil, err
	}
	expenses, err := uc.expenseRepo.CountInMonth(actor.BusinessID, now.Year(), now.Month())
	if err != nil {
		return nil, err
	}
	businesses, err := uc.businessRepo.CountOwnedBy(actor.UserID)
	if err != nil {
		return nil, err
	}

	return &dto.PlanStatusResponse{
		Plan: actor.Plan,
		Limits: dto.PlanLimits{
			InvoicesPerMonth: limits.InvoicesPerMonth,
			Clients:          limits.Clients,
			ExpensesPerMonth: limits.ExpensesPerMonth,
			Businesses:       limits.Businesses,
			TeamMembers:      limits.TeamMembers,
			CustomThemes:     limits.CustomThemes,
			PremiumPDF:       limits.PremiumPDF,
		},
		Usage: dto.PlanUsage{
			InvoicesThisMonth: invoices,
			Clients:           clients,
			ExpensesThisMonth: expenses,
			Businesses:        businesses,
		},
	}, nil
}
