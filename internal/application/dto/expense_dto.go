package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateExpenseRequest alta de gasto.
type CreateExpenseRequest struct {
	Description string          `json:"description"`
	Vendor      string          `json:"vendor"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Date        string          `json:"date"` // YYYY-MM-DD
	Category    string          `json:"category"`
	Status      string          `json:"status"`
	Method      string          `json:"method"`
	ClientID    string          `json:"client_id"`
	Notes       string          `json:"notes"`
}

// UpdateExpenseRequest edición de gasto.
type UpdateExpenseRequest struct {
	Description *string          `json:"description"`
	Vendor      *string          `json:"vendor"`
	Amount      *decimal.Decimal `json:"amount"`
	Currency    *string          `json:"currency"`
	Date        *string          `json:"date"`
	Category    *string          `json:"category"`
	Status      *string          `json:"status"`
	Method      *string          `json:"method"`
	ClientID    *string          `json:"client_id"`
	Notes       *string          `json:"notes"`
}

// ExpenseResponse representación de un gasto.
type ExpenseResponse struct {
	ID          string          `json:"id"`
	BusinessID  string          `json:"business_id"`
	Description string          `json:"description"`
	Vendor      string          `json:"vendor,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Date        string          `json:"date"`
	Category    string          `json:"category"`
	Status      string          `json:"status"`
	Method      string          `json:"method,omitempty"`
	ClientID    string          `json:"client_id,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// PlanStatusResponse límites del plan y uso actual.
type PlanStatusResponse struct {
	Plan   string     `json:"plan"`
	Limits PlanLimits `json:"limits"`
	Usage  PlanUsage  `json:"usage"`
}

// PlanLimits cupos del plan (-1 = ilimitado).
type PlanLimits struct {
	InvoicesPerMonth int  `json:"invoices_per_month"`
	Clients          int  `json:"clients"`
	ExpensesPerMonth int  `json:"expenses_per_month"`
	Businesses       int  `json:"businesses"`
	TeamMembers      int  `json:"team_members"`
	CustomThemes     bool `json:"custom_themes"`
	PremiumPDF       bool `json:"premium_pdf"`
}

// PlanUsage uso actual contra los cupos.
type PlanUsage struct {
	InvoicesThisMonth int `json:"invoices_this_month"`
	Clients           int `json:"clients"`
	ExpensesThisMonth int `json:"expenses_this_month"`
	Businesses        int `json:"businesses"`
}
