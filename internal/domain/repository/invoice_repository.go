package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoiceaz/billing-api/internal/domain/entity"
)

// InvoiceRepository persistencia de facturas y sus líneas.
type InvoiceRepository interface {
	Create(inv *entity.Invoice) error
	CreateItem(item *entity.InvoiceItem) error
	// Update persiste cabecera completa: campos editables, estado,
	// montos derivados y timestamps de transición.
	Update(inv *entity.Invoice) error
	// Delete elimina la factura y sus líneas. El caso de uso garantiza
	// antes que no existan pagos.
	Delete(id string) error
	DeleteItems(invoiceID string) error

	GetByID(id string) (*entity.Invoice, error)
	// GetByIDForUpdate bloquea la fila (SELECT ... FOR UPDATE); solo tiene
	// sentido dentro de una transacción. Serializa la aplicación de pagos
	// concurrentes sobre la misma factura.
	GetByIDForUpdate(id string) (*entity.Invoice, error)
	GetByShareToken(token string) (*entity.Invoice, error)
	ListItems(invoiceID string) ([]*entity.InvoiceItem, error)

	ListByBusiness(businessID string, status entity.InvoiceStatus, limit, offset int) ([]*entity.Invoice, error)
	// ListCreatedBy restringe a las facturas creadas por la membresía o de
	// clientes asignados a ella (alcance SALES_REP).
	ListCreatedBy(businessID, membershipID string, limit, offset int) ([]*entity.Invoice, error)

	// LastNumber devuelve el último número asignado en el negocio,
	// bloqueando contra asignaciones concurrentes ("" si no hay facturas).
	LastNumber(businessID string) (string, error)
	CountByBusiness(businessID string) (int, error)
	// CountCreatedInMonth cuenta facturas creadas en el mes (límites de plan).
	CountCreatedInMonth(businessID string, year int, month time.Month) (int, error)

	// ListOverdueCandidates devuelve facturas en {finalized, sent, viewed}
	// con due_date anterior a now y saldo pendiente, para el barrido que
	// materializa overdue.
	ListOverdueCandidates(now time.Time, limit int) ([]*entity.Invoice, error)
}

// PaymentRepository persistencia de pagos (solo inserción y lectura:
// los pagos son inmutables).
type PaymentRepository interface {
	Create(p *entity.Payment) error
	ListByInvoice(invoiceID string) ([]*entity.Payment, error)
	// SumByInvoice suma en SQL los pagos de la factura; se usa dentro de la
	// transacción de ApplyPayment para recalcular paid_amount.
	SumByInvoice(invoiceID string) (decimal.Decimal, error)
	CountByInvoice(invoiceID string) (int, error)
}
