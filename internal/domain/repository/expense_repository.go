package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoiceaz/billing-api/internal/domain/entity"
)

// ExpenseRepository persistencia de gastos.
type ExpenseRepository interface {
	Create(e *entity.Expense) error
	Update(e *entity.Expense) error
	Delete(id string) error
	GetByID(id string) (*entity.Expense, error)
	ListByBusiness(businessID string, limit, offset int) ([]*entity.Expense, error)
	CountInMonth(businessID string, year int, month time.Month) (int, error)
	// SumInMonth suma los gastos del mes (control del presupuesto del negocio).
	SumInMonth(businessID string, year int, month time.Month) (decimal.Decimal, error)
}

// EventRepository persistencia del log de actividad (solo inserción y lectura).
type EventRepository interface {
	Create(e *entity.Event) error
	ListByBusiness(businessID string, limit, offset int) ([]*entity.Event, error)
}
