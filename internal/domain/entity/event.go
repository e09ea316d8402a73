package entity

import "time"

// Acciones registradas en el log de actividad.
const (
	EventCreated       = "created"
	EventUpdated       = "updated"
	EventDeleted       = "deleted"
	EventStatusChanged = "status_changed"
	EventPaymentAdded  = "payment_added"
	EventLowStock      = "low_stock"
	EventBudgetWarning = "budget_warning"
)

// Tipos de entidad referenciados por eventos.
const (
	EntityInvoice  = "invoice"
	EntityPayment  = "payment"
	EntityClient   = "client"
	EntityProduct  = "product"
	EntityExpense  = "expense"
	EntityBusiness = "business"
	EntityTeam     = "team_member"
)

// Event es un registro inmutable del log de actividad: una creación,
// eliminación o transición de estado, atribuida a la membresía que actuó.
// La emisión es fire-and-forget: un fallo al registrar el evento nunca
// revierte la mutación que lo produjo.
type Event struct {
	ID         string
	BusinessID string
	ActorID    string // membership ID; vacío para acciones del sistema (overdue, vista pública)
	EntityKind string
	EntityID   string
	Action     string
	FromStatus string // solo para status_changed
	ToStatus   string // solo para status_changed
	Detail     string // texto libre opcional
	OccurredAt time.Time
}
