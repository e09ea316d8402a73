// Package rbac implementa la política de autorización: una función pura y
// determinista de (rol, acción, recurso) a una decisión, sin I/O.
// La tabla es cerrada: un rol fuera del enum se trata como SALES_REP.
package rbac

import "github.com/invoiceaz/billing-api/internal/domain/entity"

// Action es la operación solicitada sobre un recurso.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Resource es el tipo de recurso sobre el que se actúa.
type Resource string

const (
	ResourceInvoice  Resource = "invoice"
	ResourcePayment  Resource = "payment"
	ResourceClient   Resource = "client"
	ResourceProduct  Resource = "product"
	ResourceExpense  Resource = "expense"
	ResourceTeam     Resource = "team"
	ResourceBusiness Resource = "business" // configuración del negocio
)

// Scope acota QUÉ filas alcanza una decisión permitida.
type Scope int

const (
	// ScopeNone: acceso denegado.
	ScopeNone Scope = iota
	// ScopeAll: todas las filas del negocio.
	ScopeAll
	// ScopeAssigned: solo filas propias o asignadas (SALES_REP:
	// clientes con assigned_to = su membresía, facturas creadas por él
	// o de clientes asignados a él).
	ScopeAssigned
)

// Decision es el resultado de Authorize.
type Decision struct {
	Allowed bool
	Scope   Scope
}

var deny = Decision{}

func allow(s Scope) Decision { return Decision{Allowed: true, Scope: s} }

// policy es la tabla rol × recurso × acción. OWNER y MANAGER no aparecen:
// tienen acceso total y se resuelven antes de consultar la tabla.
var policy = map[entity.Role]map[Resource]map[Action]Scope{
	entity.RoleAccountant: {
		// lectura completa y pagos; no crea ni edita facturas, pero puede
		// eliminar las no-draft sin pagos (regla fina en el caso de uso)
		ResourceInvoice: {ActionRead: ScopeAll, ActionDelete: ScopeAll},
		ResourcePayment: {ActionRead: ScopeAll, ActionCreate: ScopeAll},
		ResourceClient:  {ActionRead: ScopeAll, ActionCreate: ScopeAll, ActionUpdate: ScopeAll, ActionDelete: ScopeAll},
		ResourceProduct: {ActionRead: ScopeAll},
		ResourceExpense: {ActionRead: ScopeAll, ActionCreate: ScopeAll, ActionUpdate: ScopeAll, ActionDelete: ScopeAll},
	},
	entity.RoleInventoryManager: {
		ResourceProduct: {ActionRead: ScopeAll, ActionCreate: ScopeAll, ActionUpdate: ScopeAll, ActionDelete: ScopeAll},
	},
	entity.RoleSalesRep: {
		ResourceInvoice: {ActionRead: ScopeAssigned, ActionCreate: ScopeAssigned, ActionUpdate: ScopeAssigned},
		ResourceClient:  {ActionRead: ScopeAssigned, ActionCreate: ScopeAssigned, ActionUpdate: ScopeAssigned},
		ResourceProduct: {ActionRead: ScopeAll},
	},
}

// Authorize decide si el rol puede ejecutar la acción sobre el recurso.
// Pura y sin efectos: toda mutación del sistema la consulta primero y un
// deny no produce ningún efecto parcial. Un rol no reconocido se degrada
// a SALES_REP antes de consultar la tabla (fail closed).
func Authorize(role entity.Role, action Action, resource Resource) Decision {
	if !role.Valid() {
		role = entity.RoleSalesRep
	}
	if role == entity.RoleOwner || role == entity.RoleManager {
		return allow(ScopeAll)
	}
	byResource, ok := policy[role]
	if !ok {
		return deny
	}
	byAction, ok := byResource[resource]
	if !ok {
		return deny
	}
	scope, ok := byAction[action]
	if !ok || scope == ScopeNone {
		return deny
	}
	return allow(scope)
}
