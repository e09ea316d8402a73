package repository

import "github.com/invoiceaz/billing-api/internal/domain/entity"

// ClientRepository persistencia de clientes.
type ClientRepository interface {
	Create(c *entity.Client) error
	Update(c *entity.Client) error
	Delete(id string) error
	GetByID(id string) (*entity.Client, error)
	ListByBusiness(businessID string, limit, offset int) ([]*entity.Client, error)
	// ListAssigned devuelve solo los clientes asignados a la membresía (SALES_REP).
	ListAssigned(businessID, membershipID string, limit, offset int) ([]*entity.Client, error)
	// CountByOwner cuenta los clientes de todos los negocios del usuario (límite de plan).
	CountByOwner(userID string) (int, error)
}

// ProductRepository persistencia de productos.
type ProductRepository interface {
	Create(p *entity.Product) error
	Update(p *entity.Product) error
	Delete(id string) error
	GetByID(id string) (*entity.Product, error)
	GetByBusinessAndSKU(businessID, sku string) (*entity.Product, error)
	ListByBusiness(businessID string, limit, offset int) ([]*entity.Product, error)
}
