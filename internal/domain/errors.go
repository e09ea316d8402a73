package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")

	// Aislamiento de tenants. Ambos se presentan al caller como acceso
	// denegado, pero se registran por separado en el log interno.
	ErrNoMembership   = errors.New("el usuario no tiene membresía en este negocio")
	ErrTenantMismatch = errors.New("la entidad pertenece a otro negocio")

	// Ciclo de vida de facturas.
	ErrInvoiceImmutable   = errors.New("la factura ya no es editable; solo los borradores se pueden modificar")
	ErrInvalidTransition  = errors.New("transición de estado no permitida")
	ErrInvoiceHasPayments = errors.New("la factura tiene pagos registrados; cancélela en lugar de eliminarla")

	// Pagos.
	ErrInvalidAmount = errors.New("el monto del pago debe ser mayor que cero")

	// Concurrencia: otra petición modificó la factura primero; releer y reintentar.
	ErrStateConflict = errors.New("conflicto de estado concurrente")
)

// OverpaymentError rechaza un pago que excede el saldo pendiente.
// Lleva el máximo permitido para que el caller pueda mostrarlo; nunca se
// recorta el monto en silencio.
type OverpaymentError struct {
	Remaining decimal.Decimal // saldo exacto que aún se puede pagar
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("el pago excede el saldo pendiente; máximo permitido: %s", e.Remaining.StringFixed(2))
}

// LimitExceededError indica que el plan del usuario alcanzó su cupo.
// Distinto de ErrForbidden: lleva el límite numérico para presentarlo en la UI.
type LimitExceededError struct {
	Resource string // invoices, clients, expenses, businesses, team_members
	Limit    int
	Current  int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("límite del plan alcanzado para %s: %d de %d", e.Resource, e.Current, e.Limit)
}
