package repository

import "github.com/invoiceaz/billing-api/internal/domain/entity"

// BusinessRepository persistencia de negocios (tenants).
type BusinessRepository interface {
	Create(b *entity.Business) error
	Update(b *entity.Business) error
	// Delete elimina el negocio; el esquema cascada a todas sus entidades.
	Delete(id string) error
	GetByID(id string) (*entity.Business, error)
	// ListByUser devuelve los negocios donde el usuario tiene membresía.
	ListByUser(userID string) ([]*entity.Business, error)
	// CountOwnedBy cuenta los negocios cuyo OWNER es el usuario (límite de plan).
	CountOwnedBy(userID string) (int, error)
}

// MembershipRepository persistencia de membresías (User, Business, Role).
type MembershipRepository interface {
	Create(m *entity.Membership) error
	Update(m *entity.Membership) error
	Delete(id string) error
	GetByID(id string) (*entity.Membership, error)
	// GetByUserAndBusiness es la consulta del resolver de tenant:
	// nil cuando la identidad no tiene membresía en ese negocio.
	GetByUserAndBusiness(userID, businessID string) (*entity.Membership, error)
	ListByBusiness(businessID string) ([]*entity.Membership, error)
	CountByBusiness(businessID string) (int, error)
}
