package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus es el estado del ciclo de vida de una factura.
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "draft"     // inicial; único estado editable
	StatusFinalized InvoiceStatus = "finalized" // cerrada, lista para enviar
	StatusSent      InvoiceStatus = "sent"      // entregada al cliente
	StatusViewed    InvoiceStatus = "viewed"    // el cliente abrió el enlace público
	StatusPaid      InvoiceStatus = "paid"      // saldada (terminal)
	StatusOverdue   InvoiceStatus = "overdue"   // vencida con saldo pendiente
	StatusCancelled InvoiceStatus = "cancelled" // anulada (terminal)
)

// ParseInvoiceStatus valida un estado recibido en el borde HTTP.
func ParseInvoiceStatus(s string) (InvoiceStatus, bool) {
	switch InvoiceStatus(s) {
	case StatusDraft, StatusFinalized, StatusSent, StatusViewed, StatusPaid, StatusOverdue, StatusCancelled:
		return InvoiceStatus(s), true
	}
	return "", false
}

// Invoice representa la cabecera de una factura.
// Fuera de draft solo cambian el estado y los campos derivados de pago;
// el resto queda congelado. Los montos derivados (Subtotal, TaxAmount,
// Total, PaidAmount) se recalculan siempre con el paquete domain/invoice,
// nunca ad hoc en los callers.
type Invoice struct {
	ID         string
	BusinessID string
	ClientID   string
	CreatedBy  string // membership ID de quien la creó

	Number      string // INV-1001, único por negocio
	InvoiceDate time.Time
	DueDate     time.Time

	Status   InvoiceStatus
	Currency string // AZN, USD, EUR

	Subtotal   decimal.Decimal
	TaxAmount  decimal.Decimal
	Discount   decimal.Decimal
	Total      decimal.Decimal
	PaidAmount decimal.Decimal

	Notes string
	Terms string
	Theme string // modern, classic, minimal

	// Token opaco para la vista pública sin autenticación
	ShareToken string

	SentAt   *time.Time
	ViewedAt *time.Time
	PaidAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// InvoiceItem representa una línea de la factura. Si referencia un producto,
// precio y descripción quedan copiados al momento de agregarla: editar el
// producto después no altera líneas existentes.
type InvoiceItem struct {
	ID          string
	InvoiceID   string
	ProductID   string // opcional; vacío = línea libre
	Description string
	Quantity    decimal.Decimal // > 0
	Unit        string
	UnitPrice   decimal.Decimal // >= 0
	TaxRate     decimal.Decimal // porcentaje en [0,100]
	Amount      decimal.Decimal // Quantity * UnitPrice, sin impuesto
	SortOrder   int
}
