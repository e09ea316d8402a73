package rbac_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/invoiceaz/billing-api/internal/domain/entity"
	"github.com/invoiceaz/billing-api/internal/domain/rbac"
)

// OWNER y MANAGER tienen acceso total a todo recurso y acción.
func TestAuthorize_OwnerYManagerAccesoTotal(t *testing.T) {
	resources := []rbac.Resource{
		rbac.ResourceInvoice, rbac.ResourcePayment, rbac.ResourceClient,
		rbac.ResourceProduct, rbac.ResourceExpense, rbac.ResourceTeam, rbac.ResourceBusiness,
	}
	actions := []rbac.Action{rbac.ActionRead, rbac.ActionCreate, rbac.ActionUpdate, rbac.ActionDelete}

	for _, role := range []entity.Role{entity.RoleOwner, entity.RoleManager} {
		for _, res := range resources {
			for _, act := range actions {
				d := rbac.Authorize(role, act, res)
				assert.True(t, d.Allowed, "%s debe poder %s sobre %s", role, act, res)
				assert.Equal(t, rbac.ScopeAll, d.Scope)
			}
		}
	}
}

func TestAuthorize_Accountant(t *testing.T) {
	// Facturas: lectura sí, crear/editar no, eliminar sí (regla no-draft en el caso de uso)
	assert.True(t, rbac.Authorize(entity.RoleAccountant, rbac.ActionRead, rbac.ResourceInvoice).Allowed)
	assert.False(t, rbac.Authorize(entity.RoleAccountant, rbac.ActionCreate, rbac.ResourceInvoice).Allowed)
	assert.False(t, rbac.Authorize(entity.RoleAccountant, rbac.ActionUpdate, rbac.ResourceInvoice).Allowed)
	assert.True(t, rbac.Authorize(entity.RoleAccountant, rbac.ActionDelete, rbac.ResourceInvoice).Allowed)

	// Pagos y gastos: completos
	assert.True(t, rbac.Authorize(entity.RoleAccountant, rbac.ActionCreate, rbac.ResourcePayment).Allowed)
	assert.True(t, rbac.Authorize(entity.RoleAccountant, rbac.ActionCreate, rbac.ResourceExpense).Allowed)
	assert.True(t, rbac.Authorize(entity.RoleAccountant, rbac.ActionDelete, rbac.ResourceExpense).Allowed)

	// Productos: solo lectura
	assert.True(t, rbac.Authorize(entity.RoleAccountant, rbac.ActionRead, rbac.ResourceProduct).Allowed)
	assert.False(t, rbac.Authorize(entity.RoleAccountant, rbac.ActionCreate, rbac.ResourceProduct).Allowed)

	// Equipo y configuración del negocio: nada
	assert.False(t, rbac.Authorize(entity.RoleAccountant, rbac.ActionRead, rbac.ResourceTeam).Allowed)
	assert.False(t, rbac.Authorize(entity.RoleAccountant, rbac.ActionUpdate, rbac.ResourceBusiness).Allowed)
}

func TestAuthorize_InventoryManager(t *testing.T) {
	// Productos: completo
	for _, act := range []rbac.Action{rbac.ActionRead, rbac.ActionCreate, rbac.ActionUpdate, rbac.ActionDelete} {
		assert.True(t, rbac.Authorize(entity.RoleInventoryManager, act, rbac.ResourceProduct).Allowed)
	}
	// Todo lo demás: nada
	for _, res := range []rbac.Resource{
		rbac.ResourceInvoice, rbac.ResourcePayment, rbac.ResourceClient,
		rbac.ResourceExpense, rbac.ResourceTeam, rbac.ResourceBusiness,
	} {
		assert.False(t, rbac.Authorize(entity.RoleInventoryManager, rbac.ActionRead, res).Allowed,
			"INVENTORY_MANAGER no debe leer %s", res)
	}
}

func TestAuthorize_SalesRep(t *testing.T) {
	// Facturas y clientes: alcance asignado, sin delete
	d := rbac.Authorize(entity.RoleSalesRep, rbac.ActionCreate, rbac.ResourceInvoice)
	assert.True(t, d.Allowed)
	assert.Equal(t, rbac.ScopeAssigned, d.Scope)

	d = rbac.Authorize(entity.RoleSalesRep, rbac.ActionRead, rbac.ResourceClient)
	assert.True(t, d.Allowed)
	assert.Equal(t, rbac.ScopeAssigned, d.Scope)

	assert.False(t, rbac.Authorize(entity.RoleSalesRep, rbac.ActionDelete, rbac.ResourceInvoice).Allowed)
	assert.False(t, rbac.Authorize(entity.RoleSalesRep, rbac.ActionDelete, rbac.ResourceClient).Allowed)

	// Pagos: nada
	assert.False(t, rbac.Authorize(entity.RoleSalesRep, rbac.ActionCreate, rbac.ResourcePayment).Allowed)
	assert.False(t, rbac.Authorize(entity.RoleSalesRep, rbac.ActionRead, rbac.ResourcePayment).Allowed)

	// Productos: solo lectura, alcance total
	d = rbac.Authorize(entity.RoleSalesRep, rbac.ActionRead, rbac.ResourceProduct)
	assert.True(t, d.Allowed)
	assert.Equal(t, rbac.ScopeAll, d.Scope)
	assert.False(t, rbac.Authorize(entity.RoleSalesRep, rbac.ActionUpdate, rbac.ResourceProduct).Allowed)
}

// Un rol desconocido jamás escala: se degrada al menos privilegiado.
func TestAuthorize_RolDesconocidoFailClosed(t *testing.T) {
	for _, raw := range []string{"", "owner", "ADMIN", "SUPERUSER", "Owner "} {
		role := entity.ParseRole(raw)
		assert.Equal(t, entity.RoleSalesRep, role, "%q debe degradarse a SALES_REP", raw)
	}

	// Incluso pasando el rol crudo sin ParseRole, Authorize degrada
	d := rbac.Authorize(entity.Role("SUPERADMIN"), rbac.ActionDelete, rbac.ResourceBusiness)
	assert.False(t, d.Allowed)
	d = rbac.Authorize(entity.Role("SUPERADMIN"), rbac.ActionRead, rbac.ResourceProduct)
	assert.True(t, d.Allowed, "tras degradar a SALES_REP conserva lo que SALES_REP puede")
}
