package entity

import "time"

// Role es el conjunto cerrado de roles dentro de un negocio.
// El campo era un string libre en versiones anteriores; ahora es un enum
// con mapeo total a la tabla de permisos.
type Role string

const (
	RoleOwner            Role = "OWNER"
	RoleManager          Role = "MANAGER"
	RoleAccountant       Role = "ACCOUNTANT"
	RoleInventoryManager Role = "INVENTORY_MANAGER"
	RoleSalesRep         Role = "SALES_REP"
)

// ParseRole mapea un string al rol correspondiente. Cualquier valor
// desconocido o vacío resuelve al rol menos privilegiado (SALES_REP),
// nunca a OWNER: fail closed.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleOwner, RoleManager, RoleAccountant, RoleInventoryManager, RoleSalesRep:
		return Role(s)
	}
	return RoleSalesRep
}

// Valid indica si el rol pertenece al conjunto cerrado.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleAccountant, RoleInventoryManager, RoleSalesRep:
		return true
	}
	return false
}

// Membership vincula un User a un Business con exactamente un rol.
// Un negocio tiene exactamente un OWNER, creado en la misma transacción
// que el negocio.
type Membership struct {
	ID         string
	UserID     string
	BusinessID string
	Role       Role
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
