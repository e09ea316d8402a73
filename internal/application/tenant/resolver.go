// Package tenant resuelve el negocio activo de cada petición y hace cumplir
// el aislamiento entre tenants. La resolución es una búsqueda pura que se
// repite en CADA petición: nunca se cachea una membresía a través de un
// cambio de negocio.
package tenant

import (
	"github.com/invoiceaz/billing-api/internal/domain"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
	"github.com/invoiceaz/billing-api/internal/domain/repository"
)

// Actor es la identidad ya resuelta que los casos de uso reciben en cada
// operación: quién llama, con qué membresía y rol, sobre qué negocio.
type Actor struct {
	UserID       string
	MembershipID string
	BusinessID   string
	Role         entity.Role
	Plan         string
}

// Cache es el caché de lecturas por tenant de la sesión. Cada tenant es un
// namespace aislado; Invalidate descarta el namespace completo de una vez,
// de modo que la corrección no dependa de convenciones de claves.
type Cache interface {
	Get(tenantID, key string) (interface{}, bool)
	Set(tenantID, key string, value interface{})
	Invalidate(tenantID string)
}

// Resolver determina la membresía del caller en el negocio pedido.
type Resolver struct {
	membershipRepo repository.MembershipRepository
	businessRepo   repository.BusinessRepository
	cache          Cache
}

// NewResolver construye el resolver.
func NewResolver(membershipRepo repository.MembershipRepository, businessRepo repository.BusinessRepository, cache Cache) *Resolver {
	return &Resolver{membershipRepo: membershipRepo, businessRepo: businessRepo, cache: cache}
}

// Resolve devuelve la membresía del usuario en el negocio, o ErrNoMembership
// si no existe o el negocio está inactivo. No distingue "negocio inexistente"
// de "sin membresía": el caller no debe poder inferir la existencia de datos
// de otros tenants.
func (r *Resolver) Resolve(userID, businessID string) (*entity.Membership, *entity.Business, error) {
	if userID == "" || businessID == "" {
		return nil, nil, domain.ErrNoMembership
	}
	m, err := r.membershipRepo.GetByUserAndBusiness(userID, businessID)
	if err != nil {
		return nil, nil, err
	}
	if m == nil {
		return nil, nil, domain.ErrNoMembership
	}
	b, err := r.businessRepo.GetByID(businessID)
	if err != nil {
		return nil, nil, err
	}
	if b == nil || !b.IsActive {
		return nil, nil, domain.ErrNoMembership
	}
	return m, b, nil
}

// Switch cambia el negocio activo de la sesión. Resuelve la membresía en el
// destino y descarta el namespace de caché del negocio anterior completo
// (facturas, clientes, productos, pagos), en una sola operación para que no
// haya ventana con datos mezclados. La lista de negocios del usuario vive en
// el namespace del usuario y sobrevive al cambio.
func (r *Resolver) Switch(userID, fromBusinessID, toBusinessID string) (*entity.Membership, *entity.Business, error) {
	m, b, err := r.Resolve(userID, toBusinessID)
	if err != nil {
		return nil, nil, err
	}
	if fromBusinessID != "" && fromBusinessID != toBusinessID {
		r.cache.Invalidate(fromBusinessID)
	}
	return m, b, nil
}

// SameTenant verifica que una entidad cargada por ID pertenezca al negocio
// resuelto. Un mismatch falla con ErrTenantMismatch en vez de filtrar en
// silencio; el borde HTTP lo presenta como acceso denegado y lo registra
// aparte.
func SameTenant(resolvedBusinessID, entityBusinessID string) error {
	if resolvedBusinessID == "" || entityBusinessID != resolvedBusinessID {
		return domain.ErrTenantMismatch
	}
	return nil
}
