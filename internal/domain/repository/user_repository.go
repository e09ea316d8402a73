package repository

import "github.com/invoiceaz/billing-api/internal/domain/entity"

// UserRepository persistencia de usuarios.
type UserRepository interface {
	Create(user *entity.User) error
	Update(user *entity.User) error
	GetByID(id string) (*entity.User, error)
	FindByEmail(email string) (*entity.User, error)
}
