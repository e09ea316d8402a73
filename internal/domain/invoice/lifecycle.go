// Package invoice contiene la lógica pura del ciclo de vida de facturas:
// la máquina de estados y el cálculo centralizado de montos derivados.
// No hace I/O; los casos de uso la invocan dentro de sus transacciones.
package invoice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoiceaz/billing-api/internal/domain"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
)

// Epsilon es la tolerancia de redondeo para comparar montos (0.01).
var Epsilon = decimal.New(1, -2)

// transitions enumera los destinos válidos desde cada estado.
// paid y cancelled son terminales. cancelled es alcanzable desde todo
// estado no pagado; una factura pagada no se anula.
var transitions = map[entity.InvoiceStatus][]entity.InvoiceStatus{
	entity.StatusDraft:     {entity.StatusFinalized, entity.StatusCancelled},
	entity.StatusFinalized: {entity.StatusSent, entity.StatusViewed, entity.StatusPaid, entity.StatusOverdue, entity.StatusCancelled},
	entity.StatusSent:      {entity.StatusViewed, entity.StatusPaid, entity.StatusOverdue, entity.StatusCancelled},
	entity.StatusViewed:    {entity.StatusPaid, entity.StatusOverdue, entity.StatusCancelled},
	entity.StatusOverdue:   {entity.StatusPaid, entity.StatusCancelled},
	entity.StatusPaid:      {},
	entity.StatusCancelled: {},
}

// rank ordena los estados de entrega para las reglas de idempotencia:
// marcar "sent" una factura que ya avanzó más allá es un no-op, no un error.
var rank = map[entity.InvoiceStatus]int{
	entity.StatusDraft:     0,
	entity.StatusFinalized: 1,
	entity.StatusSent:      2,
	entity.StatusViewed:    3,
	entity.StatusOverdue:   4,
	entity.StatusPaid:      5,
	entity.StatusCancelled: 5,
}

// CanTransition indica si el salto from→to está permitido por la máquina.
func CanTransition(from, to entity.InvoiceStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Editable indica si la factura admite mutaciones de contenido
// (ítems, cliente, fechas, moneda, tema). Solo en borrador.
func Editable(status entity.InvoiceStatus) bool {
	return status == entity.StatusDraft
}

// Apply ejecuta una transición sobre la factura, actualizando timestamps.
// Reglas especiales:
//   - sent es idempotente: pedirlo cuando la factura ya avanzó igual o más
//     allá de sent no es un error, es un no-op.
//   - viewed es monotónico: una factura vista nunca vuelve a sent, y pedir
//     viewed de nuevo es un no-op.
//   - draft→finalized exige PaidAmount == 0 (en draft no se aceptan pagos,
//     así que solo puede violarse por datos corruptos).
//
// Devuelve domain.ErrInvalidTransition envuelto con los estados si el salto
// no está permitido.
func Apply(inv *entity.Invoice, to entity.InvoiceStatus, now time.Time) error {
	if inv.Status == to {
		return nil // no-op
	}
	if to == entity.StatusSent && rank[inv.Status] >= rank[entity.StatusSent] {
		return nil
	}
	if to == entity.StatusViewed && rank[inv.Status] >= rank[entity.StatusViewed] {
		return nil
	}
	if !CanTransition(inv.Status, to) {
		return fmt.Errorf("%s → %s: %w", inv.Status, to, domain.ErrInvalidTransition)
	}
	if inv.Status == entity.StatusDraft && to == entity.StatusFinalized && !inv.PaidAmount.IsZero() {
		return fmt.Errorf("borrador con pagos registrados: %w", domain.ErrStateConflict)
	}

	inv.Status = to
	inv.UpdatedAt = now
	switch to {
	case entity.StatusSent:
		if inv.SentAt == nil {
			t := now
			inv.SentAt = &t
		}
	case entity.StatusViewed:
		if inv.ViewedAt == nil {
			t := now
			inv.ViewedAt = &t
		}
	case entity.StatusPaid:
		if inv.PaidAt == nil {
			t := now
			inv.PaidAt = &t
		}
	}
	return nil
}

// Payable indica si la factura acepta pagos: todo estado salvo draft y cancelled.
func Payable(status entity.InvoiceStatus) bool {
	switch status {
	case entity.StatusDraft, entity.StatusCancelled:
		return false
	}
	return true
}

// OverdueCandidate indica si el estado puede materializarse como vencido.
func OverdueCandidate(status entity.InvoiceStatus) bool {
	switch status {
	case entity.StatusFinalized, entity.StatusSent, entity.StatusViewed:
		return true
	}
	return false
}
