package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Métodos de pago.
const (
	PaymentMethodCash         = "cash"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCard         = "card"
	PaymentMethodOnline       = "online"
)

// ValidPaymentMethod verifica el método contra el conjunto cerrado.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCard, PaymentMethodOnline:
		return true
	}
	return false
}

// Payment es un abono inmutable contra una factura. Nunca se edita ni se
// elimina: un pago erróneo se corrige con un registro nuevo, preservando
// la pista de auditoría. La suma de pagos de una factura jamás excede su
// total (tolerancia 0.01 por redondeo).
type Payment struct {
	ID          string
	InvoiceID   string
	Amount      decimal.Decimal // > 0
	PaymentDate time.Time
	Method      string // cash, bank_transfer, card, online
	Reference   string
	Notes       string
	RecordedBy  string // membership ID; vacío = pago público por enlace
	CreatedAt   time.Time
}
