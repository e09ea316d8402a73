package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceItemRequest línea de factura en creación/edición.
// Si ProductID viene, descripción/precio/unidad vacíos se copian del producto.
type InvoiceItemRequest struct {
	ProductID   string          `json:"product_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// CreateInvoiceRequest alta de factura (nace en draft).
type CreateInvoiceRequest struct {
	ClientID    string               `json:"client_id"`
	InvoiceDate string               `json:"invoice_date"` // YYYY-MM-DD
	DueDate     string               `json:"due_date"`     // YYYY-MM-DD
	Currency    string               `json:"currency"`     // vacío = moneda por defecto del negocio
	Theme       string               `json:"theme"`        // vacío = tema por defecto del negocio
	Discount    decimal.Decimal      `json:"discount"`
	Notes       string               `json:"notes"`
	Terms       string               `json:"terms"`
	Items       []InvoiceItemRequest `json:"items"`
}

// UpdateInvoiceRequest edición de factura; solo válida en draft.
// Items nil significa "no tocar las líneas"; una lista (aun vacía) las reemplaza.
type UpdateInvoiceRequest struct {
	ClientID    *string              `json:"client_id"`
	InvoiceDate *string              `json:"invoice_date"`
	DueDate     *string              `json:"due_date"`
	Currency    *string              `json:"currency"`
	Theme       *string              `json:"theme"`
	Discount    *decimal.Decimal     `json:"discount"`
	Notes       *string              `json:"notes"`
	Terms       *string              `json:"terms"`
	Items       []InvoiceItemRequest `json:"items"`
}

// TransitionInvoiceRequest pide un cambio de estado explícito.
type TransitionInvoiceRequest struct {
	Status string `json:"status"`
}

// ApplyPaymentRequest registra un pago contra la factura.
type ApplyPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date"` // YYYY-MM-DD; vacío = hoy
	Method      string          `json:"method"`
	Reference   string          `json:"reference"`
	Notes       string          `json:"notes"`
}

// InvoiceItemResponse línea de factura.
type InvoiceItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// PaymentResponse pago registrado.
type PaymentResponse struct {
	ID          string          `json:"id"`
	InvoiceID   string          `json:"invoice_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date"`
	Method      string          `json:"method"`
	Reference   string          `json:"reference,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// InvoiceResponse factura completa.
type InvoiceResponse struct {
	ID         string          `json:"id"`
	BusinessID string          `json:"business_id"`
	ClientID   string          `json:"client_id"`
	ClientName string          `json:"client_name,omitempty"`
	CreatedBy  string          `json:"created_by,omitempty"`
	Number     string          `json:"number"`
	Date       string          `json:"invoice_date"`
	DueDate    string          `json:"due_date"`
	Status     string          `json:"status"`
	Currency   string          `json:"currency"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	TaxAmount  decimal.Decimal `json:"tax_amount"`
	Discount   decimal.Decimal `json:"discount"`
	Total      decimal.Decimal `json:"total"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	Notes      string          `json:"notes,omitempty"`
	Terms      string          `json:"terms,omitempty"`
	Theme      string          `json:"theme"`
	ShareToken string          `json:"share_token,omitempty"`
	SentAt     *time.Time      `json:"sent_at,omitempty"`
	ViewedAt   *time.Time      `json:"viewed_at,omitempty"`
	PaidAt     *time.Time      `json:"paid_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	Items    []InvoiceItemResponse `json:"items,omitempty"`
	Payments []PaymentResponse     `json:"payments,omitempty"`
}

// PublicInvoiceResponse vista pública (share token): sin token ni created_by.
type PublicInvoiceResponse struct {
	Number       string                `json:"number"`
	BusinessName string                `json:"business_name"`
	ClientName   string                `json:"client_name"`
	Date         string                `json:"invoice_date"`
	DueDate      string                `json:"due_date"`
	Status       string                `json:"status"`
	Currency     string                `json:"currency"`
	Subtotal     decimal.Decimal       `json:"subtotal"`
	TaxAmount    decimal.Decimal       `json:"tax_amount"`
	Discount     decimal.Decimal       `json:"discount"`
	Total        decimal.Decimal       `json:"total"`
	PaidAmount   decimal.Decimal       `json:"paid_amount"`
	Theme        string                `json:"theme"`
	Items        []InvoiceItemResponse `json:"items"`
}
