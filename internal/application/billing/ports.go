package billing

import (
	"context"

	"github.com/invoiceaz/billing-api/internal/domain/entity"
	"github.com/invoiceaz/billing-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción con los repos de
// facturación atados a ella. ApplyPayment depende de esto: bloqueo de fila,
// inserción del pago, recálculo y transición deben confirmar o revertir
// juntos.
type TxRunner interface {
	RunInvoice(ctx context.Context, fn func(
		invoiceRepo repository.InvoiceRepository,
		paymentRepo repository.PaymentRepository,
	) error) error
}

// EventPublisher publica eventos del log de actividad. Contrato
// fire-and-forget al menos una vez: se invoca después del commit y un fallo
// de emisión jamás revierte la mutación que lo produjo (el publicador lo
// registra en el log y sigue).
type EventPublisher interface {
	Publish(evt *entity.Event)
}

// DeliverySender es el colaborador de entrega (email). Enabled() permite a
// los casos de uso distinguir "enviado de verdad" de "modo desarrollo sin
// credenciales".
type DeliverySender interface {
	Enabled() bool
	SendInvoice(ctx context.Context, business *entity.Business, client *entity.Client, inv *entity.Invoice, pdf []byte, publicURL string) error
}

// InvoicePDFGenerator produce la representación gráfica de la factura.
// Función pura del estado de la factura: no escribe nada.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, inv *entity.Invoice, items []*entity.InvoiceItem, business *entity.Business, client *entity.Client, publicURL string) ([]byte, error)
}
