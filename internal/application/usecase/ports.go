// Package usecase contiene los casos de uso de soporte del producto:
// negocios, equipo, clientes, productos, gastos y estado del plan. La
// facturación vive aparte en application/billing.
package usecase

import (
	"context"

	"github.com/invoiceaz/billing-api/internal/domain/repository"
)

// BusinessTxRunner ejecuta una función con los repos de negocio y membresía
// atados a una transacción. Crear un negocio y su membresía OWNER es
// atómico: nunca queda un negocio sin dueño.
type BusinessTxRunner interface {
	RunBusiness(ctx context.Context, fn func(
		businessRepo repository.BusinessRepository,
		membershipRepo repository.MembershipRepository,
	) error) error
}
