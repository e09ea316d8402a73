package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Categorías de gasto.
const (
	ExpenseCategoryOffice    = "office"
	ExpenseCategorySalary    = "salary"
	ExpenseCategoryMarketing = "marketing"
	ExpenseCategoryRent      = "rent"
	ExpenseCategoryTravel    = "travel"
	ExpenseCategorySoftware  = "software"
	ExpenseCategoryTransport = "transport"
	ExpenseCategoryHardware  = "hardware"
	ExpenseCategoryTax       = "tax"
	ExpenseCategoryBank      = "bank"
	ExpenseCategoryTraining  = "training"
	ExpenseCategoryOther     = "other"
)

// Estados de gasto.
const (
	ExpenseStatusPaid    = "paid"
	ExpenseStatusPending = "pending"
)

// Expense representa un gasto del negocio, opcionalmente facturable a un cliente.
type Expense struct {
	ID          string
	BusinessID  string
	Description string
	Vendor      string
	Amount      decimal.Decimal
	Currency    string
	Date        time.Time
	Category    string
	Status      string // paid, pending
	Method      string // método de pago, texto libre
	ClientID    string // opcional: gasto facturable a un cliente
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidExpenseCategory verifica la categoría contra el conjunto cerrado.
func ValidExpenseCategory(c string) bool {
	switch c {
	case ExpenseCategoryOffice, ExpenseCategorySalary, ExpenseCategoryMarketing,
		ExpenseCategoryRent, ExpenseCategoryTravel, ExpenseCategorySoftware,
		ExpenseCategoryTransport, ExpenseCategoryHardware, ExpenseCategoryTax,
		ExpenseCategoryBank, ExpenseCategoryTraining, ExpenseCategoryOther:
		return true
	}
	return false
}
