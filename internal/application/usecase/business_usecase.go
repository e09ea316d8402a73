package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/invoiceaz/billing-api/internal/application/billing"
	"github.com/invoiceaz/billing-api/internal/application/dto"
	"github.com/invoiceaz/billing-api/internal/application/tenant"
	"github.com/invoiceaz/billing-api/internal/domain"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
	"github.com/invoiceaz/billing-api/internal/domain/rbac"
	"github.com/invoiceaz/billing-api/internal/domain/repository"
)

// BusinessUseCase gestiona negocios (tenants) y el cambio de negocio activo.
type BusinessUseCase struct {
	txRunner       BusinessTxRunner
	businessRepo   repository.BusinessRepository
	membershipRepo repository.MembershipRepository
	resolver       *tenant.Resolver
	publisher      billing.EventPublisher
	cache          tenant.Cache
}

// NewBusinessUseCase construye el caso de uso.
func NewBusinessUseCase(
	txRunner BusinessTxRunner,
	businessRepo repository.BusinessRepository,
	membershipRepo repository.MembershipRepository,
	resolver *tenant.Resolver,
	publisher billing.EventPublisher,
	cache tenant.Cache,
) *BusinessUseCase {
	return &BusinessUseCase{
		txRunner:       txRunner,
		businessRepo:   businessRepo,
		membershipRepo: membershipRepo,
		resolver:       resolver,
		publisher:      publisher,
		cache:          cache,
	}
}

// Create crea un negocio con su membresía OWNER en la misma transacción.
// No requiere negocio activo: es la operación que los origina.
func (uc *BusinessUseCase) Create(ctx context.Context, userID, plan string, in dto.CreateBusinessRequest) (*dto.ActiveContextResponse, error) {
	if in.Name == "" {
		return nil, domain.ErrInvalidInput
	}

	limits := entity.LimitsForPlan(plan)
	if limits.Businesses != entity.Unlimited {
		owned, err := uc.businessRepo.CountOwnedBy(userID)
		if err != nil {
			return nil, err
		}
		if !limits.Allows(limits.Businesses, owned) {
			return nil, &domain.LimitExceededError{Resource: "businesses", Limit: limits.Businesses, Current: owned}
		}
	}

	currency := in.DefaultCurrency
	if currency == "" {
		currency = entity.CurrencyAZN
	}
	theme := in.DefaultTheme
	if theme == "" {
		theme = entity.ThemeModern
	}
	if !entity.ValidCurrency(currency) || !entity.ValidTheme(theme) {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	business := &entity.Business{
		ID:              uuid.New().String(),
		Name:            in.Name,
		TaxID:           in.TaxID,
		Address:         in.Address,
		City:            in.City,
		Phone:           in.Phone,
		Email:           in.Email,
		Website:         in.Website,
		BankName:        in.BankName,
		IBAN:            in.IBAN,
		Swift:           in.Swift,
		BudgetLimit:     in.BudgetLimit,
		DefaultCurrency: currency,
		DefaultTheme:    theme,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	membership := &entity.Membership{
		ID:         uuid.New().String(),
		UserID:     userID,
		BusinessID: business.ID,
		Role:       entity.RoleOwner,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := uc.txRunner.RunBusiness(ctx, func(businessRepo repository.BusinessRepository, membershipRepo repository.MembershipRepository) error {
		if err := businessRepo.Create(business); err != nil {
			return err
		}
		return membershipRepo.Create(membership)
	})
	if err != nil {
		return nil, err
	}

	uc.publisher.Publish(&entity.Event{
		BusinessID: business.ID,
		ActorID:    membership.ID,
		EntityKind: entity.EntityBusiness,
		EntityID:   business.ID,
		Action:     entity.EventCreated,
		Detail:     business.Name,
		OccurredAt: now,
	})

	return &dto.ActiveContextResponse{
		Business:     toBusinessResponse(business),
		MembershipID: membership.ID,
		Role:         string(membership.Role),
	}, nil
}

// List devuelve los negocios donde el usuario tiene membresía. Vive en el
// namespace de caché del usuario, no del tenant: sobrevive al switch.
func (uc *BusinessUseCase) List(ctx context.Context, userID string) ([]dto.BusinessResponse, error) {
	ns := userNamespace(userID)
	if cached, ok := uc.cache.Get(ns, "businesses"); ok {
		if list, ok := cached.([]dto.BusinessResponse); ok {
			return list, nil
		}
	}
	businesses, err := uc.businessRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.BusinessResponse, 0, len(businesses))
	for _, b := range businesses {
		out = append(out, toBusinessResponse(b))
	}
	uc.cache.Set(ns, "businesses", out)
	return out, nil
}

// Get devuelve el negocio activo del actor.
func (uc *BusinessUseCase) Get(ctx context.Context, actor tenant.Actor) (*dto.BusinessResponse, error) {
	business, err := uc.businessRepo.GetByID(actor.BusinessID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, domain.ErrNotFound
	}
	resp := toBusinessResponse(business)
	return &resp, nil
}

// Update edita la configuración del negocio activo (OWNER/MANAGER).
func (uc *BusinessUseCase) Update(ctx context.Context, actor tenant.Actor, in dto.UpdateBusinessRequest) (*dto.BusinessResponse, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionUpdate, rbac.ResourceBusiness)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	business, err := uc.businessRepo.GetByID(actor.BusinessID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, domain.ErrNotFound
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, domain.ErrInvalidInput
		}
		business.Name = *in.Name
	}
	if in.TaxID != nil {
		business.TaxID = *in.TaxID
	}
	if in.Address != nil {
		business.Address = *in.Address
	}
	if in.City != nil {
		business.City = *in.City
	}
	if in.Phone != nil {
		business.Phone = *in.Phone
	}
	if in.Email != nil {
		business.Email = *in.Email
	}
	if in.Website != nil {
		business.Website = *in.Website
	}
	if in.BankName != nil {
		business.BankName = *in.BankName
	}
	if in.IBAN != nil {
		business.IBAN = *in.IBAN
	}
	if in.Swift != nil {
		business.Swift = *in.Swift
	}
	if in.BudgetLimit != nil {
		if in.BudgetLimit.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		business.BudgetLimit = *in.BudgetLimit
	}
	if in.DefaultCurrency != nil {
		if !entity.ValidCurrency(*in.DefaultCurrency) {
			return nil, domain.ErrInvalidInput
		}
		business.DefaultCurrency = *in.DefaultCurrency
	}
	if in.DefaultTheme != nil {
		if !entity.ValidTheme(*in.DefaultTheme) {
			return nil, domain.ErrInvalidInput
		}
		business.DefaultTheme = *in.DefaultTheme
	}
	business.UpdatedAt = time.Now()

	if err := uc.businessRepo.Update(business); err != nil {
		return nil, err
	}
	uc.cache.Invalidate(actor.BusinessID)
	uc.cache.Invalidate(userNamespace(actor.UserID))

	resp := toBusinessResponse(business)
	return &resp, nil
}

// Delete elimina el negocio activo y todo su contenido (el esquema cascada).
func (uc *BusinessUseCase) Delete(ctx context.Context, actor tenant.Actor) error {
	decision := rbac.Authorize(actor.Role, rbac.ActionDelete, rbac.ResourceBusiness)
	if !decision.Allowed {
		return domain.ErrForbidden
	}
	business, err := uc.businessRepo.GetByID(actor.BusinessID)
	if err != nil {
		return err
	}
	if business == nil {
		return domain.ErrNotFound
	}
	if err := uc.businessRepo.Delete(business.ID); err != nil {
		return err
	}
	uc.cache.Invalidate(business.ID)
	uc.cache.Invalidate(userNamespace(actor.UserID))
	return nil
}

// Switch cambia el negocio activo del usuario. Delegado al resolver: valida
// la membresía en el destino y descarta el caché del negocio anterior.
func (uc *BusinessUseCase) Switch(ctx context.Context, userID, fromBusinessID, toBusinessID string) (*dto.ActiveContextResponse, error) {
	membership, business, err := uc.resolver.Switch(userID, fromBusinessID, toBusinessID)
	if err != nil {
		return nil, err
	}
	return &dto.ActiveContextResponse{
		Business:     toBusinessResponse(business),
		MembershipID: membership.ID,
		Role:         string(membership.Role),
	}, nil
}

// userNamespace es el namespace de caché ligado al usuario, no al tenant:
// sobrevive a los cambios de negocio activo.
func userNamespace(userID string) string {
	return "user:" + userID
}

func toBusinessResponse(b *entity.Business) dto.BusinessResponse {
	return dto.BusinessResponse{
		ID:              b.ID,
		Name:            b.Name,
		TaxID:           b.TaxID,
		Address:         b.Address,
		City:            b.City,
		Phone:           b.Phone,
		Email:           b.Email,
		Website:         b.Website,
		BankName:        b.BankName,
		IBAN:            b.IBAN,
		Swift:           b.Swift,
		BudgetLimit:     b.BudgetLimit,
		DefaultCurrency: b.DefaultCurrency,
		DefaultTheme:    b.DefaultTheme,
		IsActive:        b.IsActive,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}
