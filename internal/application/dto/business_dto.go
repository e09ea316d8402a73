package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateBusinessRequest alta de negocio. Quien lo crea queda como OWNER.
type CreateBusinessRequest struct {
	Name            string          `json:"name"`
	TaxID           string          `json:"tax_id"`
	Address         string          `json:"address"`
	City            string          `json:"city"`
	Phone           string          `json:"phone"`
	Email           string          `json:"email"`
	Website         string          `json:"website"`
	BankName        string          `json:"bank_name"`
	IBAN            string          `json:"iban"`
	Swift           string          `json:"swift"`
	BudgetLimit     decimal.Decimal `json:"budget_limit"`
	DefaultCurrency string          `json:"default_currency"`
	DefaultTheme    string          `json:"default_theme"`
}

// UpdateBusinessRequest edición de la configuración del negocio.
type UpdateBusinessRequest struct {
	Name            *string          `json:"name"`
	TaxID           *string          `json:"tax_id"`
	Address         *string          `json:"address"`
	City            *string          `json:"city"`
	Phone           *string          `json:"phone"`
	Email           *string          `json:"email"`
	Website         *string          `json:"website"`
	BankName        *string          `json:"bank_name"`
	IBAN            *string          `json:"iban"`
	Swift           *string          `json:"swift"`
	BudgetLimit     *decimal.Decimal `json:"budget_limit"`
	DefaultCurrency *string          `json:"default_currency"`
	DefaultTheme    *string          `json:"default_theme"`
}

// BusinessResponse representación de un negocio.
type BusinessResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	TaxID           string          `json:"tax_id,omitempty"`
	Address         string          `json:"address,omitempty"`
	City            string          `json:"city,omitempty"`
	Phone           string          `json:"phone,omitempty"`
	Email           string          `json:"email,omitempty"`
	Website         string          `json:"website,omitempty"`
	BankName        string          `json:"bank_name,omitempty"`
	IBAN            string          `json:"iban,omitempty"`
	Swift           string          `json:"swift,omitempty"`
	BudgetLimit     decimal.Decimal `json:"budget_limit"`
	DefaultCurrency string          `json:"default_currency"`
	DefaultTheme    string          `json:"default_theme"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ActiveContextResponse resultado de SwitchBusiness: el negocio activo y la
// membresía (con rol) del caller en él.
type ActiveContextResponse struct {
	Business     BusinessResponse `json:"business"`
	MembershipID string           `json:"membership_id"`
	Role         string           `json:"role"`
}

// TeamMemberResponse miembro del equipo de un negocio.
type TeamMemberResponse struct {
	MembershipID string    `json:"membership_id"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// InviteMemberRequest alta de un miembro del equipo por email.
type InviteMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UpdateMemberRoleRequest cambio de rol de un miembro.
type UpdateMemberRoleRequest struct {
	Role string `json:"role"`
}
