package usecase

import (
	"context"
	"fmt"
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

// ClientUseCase gestiona los clientes del negocio activo. Los SALES_REP
// operan solo sobre sus clientes asignados; lo que creen queda asignado a
// ellos mismos.
type ClientUseCase struct {
	clientRepo     repository.ClientRepository
	membershipRepo repository.MembershipRepository
	publisher      billing.EventPublisher
	cache          tenant.Cache
}

// NewClientUseCase construye el caso de uso.
func NewClientUseCase(clientRepo repository.ClientRepository, membershipRepo repository.MembershipRepository, publisher billing.EventPublisher, cache tenant.Cache) *ClientUseCase {
	return &ClientUseCase{
		clientRepo:     clientRepo,
		membershipRepo: membershipRepo,
		publisher:      publisher,
		cache:          cache,
	}
}

// Create crea un cliente, sujeto al cupo de clientes del plan.
func (uc *ClientUseCase) Create(ctx context.Context, actor tenant.Actor, in dto.CreateClientRequest) (*dto.ClientResponse, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionCreate, rbac.ResourceClient)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	if in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	clientType := in.ClientType
	if clientType == "" {
		clientType = entity.ClientTypeIndividual
	}
	if clientType != entity.ClientTypeIndividual && clientType != entity.ClientTypeCompany {
		return nil, domain.ErrInvalidInput
	}

	limits := entity.LimitsForPlan(actor.Plan)
	if limits.Clients != entity.Unlimited {
		count, err := uc.clientRepo.CountByOwner(actor.UserID)
		if err != nil {
			return nil, err
		}
		if !limits.Allows(limits.Clients, count) {
			return nil, &domain.LimitExceededError{Resource: "clients", Limit: limits.Clients, Current: count}
		}
	}

	assignedTo := in.AssignedTo
	if decision.Scope == rbac.ScopeAssigned {
		// Lo que un vendedor crea es suyo, pida lo que pida
		assignedTo = actor.MembershipID
	} else if assignedTo != "" {
		if err := uc.validateAssignee(actor, assignedTo); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	client := &entity.Client{
		ID:            uuid.New().String(),
		BusinessID:    actor.BusinessID,
		Name:          in.Name,
		ClientType:    clientType,
		ContactPerson: in.ContactPerson,
		Email:         in.Email,
		Phone:         in.Phone,
		TaxID:         in.TaxID,
		Address:       in.Address,
		Notes:         in.Notes,
		AssignedTo:    assignedTo,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.clientRepo.Create(client); err != nil {
		return nil, err
	}

	uc.cache.Invalidate(actor.BusinessID)
	uc.publisher.Publish(&entity.Event{
		BusinessID: actor.BusinessID,
		ActorID:    actor.MembershipID,
		EntityKind: entity.EntityClient,
		EntityID:   client.ID,
		Action:     entity.EventCreated,
		Detail:     client.Name,
		OccurredAt: now,
	})

	resp := toClientResponse(client)
	return &resp, nil
}

// Get devuelve un cliente del negocio activo.
func (uc *ClientUseCase) Get(ctx context.Context, actor tenant.Actor, id string) (*dto.ClientResponse, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionRead, rbac.ResourceClient)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	client, err := uc.loadScoped(actor, id, decision.Scope)
	if err != nil {
		return nil, err
	}
	resp := toClientResponse(client)
	return &resp, nil
}

// List lista los clientes; con alcance de vendedor, solo los asignados.
func (uc *ClientUseCase) List(ctx context.Context, actor tenant.Actor, page dto.PageRequest) ([]dto.ClientResponse, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionRead, rbac.ResourceClient)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	page.DefaultPage()

	if decision.Scope == rbac.ScopeAssigned {
		list, err := uc.clientRepo.ListAssigned(actor.BusinessID, actor.MembershipID, page.Limit, page.Offset)
		if err != nil {
			return nil, err
		}
		return toClientResponses(list), nil
	}

	cacheKey := fmt.Sprintf("clients:%d:%d", page.Limit, page.Offset)
	if cached, ok := uc.cache.Get(actor.BusinessID, cacheKey); ok {
		if list, ok := cached.([]dto.ClientResponse); ok {
			return list, nil
		}
	}
	list, err := uc.clientRepo.ListByBusiness(actor.BusinessID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := toClientResponses(list)
	uc.cache.Set(actor.BusinessID, cacheKey, out)
	return out, nil
}

// Update edita un cliente.
func (uc *ClientUseCase) Update(ctx context.Context, actor tenant.Actor, id string, in dto.UpdateClientRequest) (*dto.ClientResponse, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionUpdate, rbac.ResourceClient)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	client, err := uc.loadScoped(actor, id, decision.Scope)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, domain.ErrInvalidInput
		}
		client.Name = *in.Name
	}
	if in.ClientType != nil {
		if *in.ClientType != entity.ClientTypeIndividual && *in.ClientType != entity.ClientTypeCompany {
			return nil, domain.ErrInvalidInput
		}
		client.ClientType = *in.ClientType
	}
	if in.ContactPerson != nil {
		client.ContactPerson = *in.ContactPerson
	}
	if in.Email != nil {
		client.Email = *in.Email
	}
	if in.Phone != nil {
		client.Phone = *in.Phone
	}
	if in.TaxID != nil {
		client.TaxID = *in.TaxID
	}
	if in.Address != nil {
		client.Address = *in.Address
	}
	if in.Notes != nil {
		client.Notes = *in.Notes
	}
	if in.AssignedTo != nil {
		if decision.Scope == rbac.ScopeAssigned {
			// Un vendedor no reasigna clientes
			return nil, domain.ErrForbidden
		}
		if *in.AssignedTo != "" {
			if err := uc.validateAssignee(actor, *in.AssignedTo); err != nil {
				return nil, err
			}
		}
		client.AssignedTo = *in.AssignedTo
	}
	client.UpdatedAt = time.Now()

	if err := uc.clientRepo.Update(client); err != nil {
		return nil, err
	}
	uc.cache.Invalidate(actor.BusinessID)
	uc.publisher.Publish(&entity.Event{
		BusinessID: actor.BusinessID,
		ActorID:    actor.MembershipID,
		EntityKind: entity.EntityClient,
		EntityID:   client.ID,
		Action:     entity.EventUpdated,
		Detail:     client.Name,
		OccurredAt: client.UpdatedAt,
	})

	resp := toClientResponse(client)
	return &resp, nil
}

// Delete elimina un cliente.
func (uc *ClientUseCase) Delete(ctx context.Context, actor tenant.Actor, id string) error {
	decision := rbac.Authorize(actor.Role, rbac.ActionDelete, rbac.ResourceClient)
	if !decision.Allowed {
		return domain.ErrForbidden
	}
	client, err := uc.loadScoped(actor, id, decision.Scope)
	if err != nil {
		return err
	}
	if err := uc.clientRepo.Delete(client.ID); err != nil {
		return err
	}
	uc.cache.Invalidate(actor.BusinessID)
	uc.publisher.Publish(&entity.Event{
		BusinessID: actor.BusinessID,
		ActorID:    actor.MembershipID,
		EntityKind: entity.EntityClient,
		EntityID:   client.ID,
		Action:     entity.EventDeleted,
		Detail:     client.Name,
		OccurredAt: time.Now(),
	})
	return nil
}

func (uc *ClientUseCase) loadScoped(actor tenant.Actor, id string, scope rbac.Scope) (*entity.Client, error) {
	client, err := uc.clientRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, domain.ErrNotFound
	}
	if err := tenant.SameTenant(actor.BusinessID, client.BusinessID); err != nil {
		return nil, err
	}
	if scope == rbac.ScopeAssigned && client.AssignedTo != actor.MembershipID {
		return nil, domain.ErrForbidden
	}
	return client, nil
}

// validateAssignee verifica que la membresía asignada exista y sea del
// negocio activo.
func (uc *ClientUseCase) validateAssignee(actor tenant.Actor, membershipID string) error {
	membership, err := uc.membershipRepo.GetByID(membershipID)
	if err != nil {
		return err
	}
	if membership == nil {
		return fmt.Errorf("membresía asignada inexistente: %w", domain.ErrInvalidInput)
	}
	return tenant.SameTenant(actor.BusinessID, membership.BusinessID)
}

func toClientResponse(c *entity.Client) dto.ClientResponse {
	return dto.ClientResponse{
		ID:            c.ID,
		BusinessID:    c.BusinessID,
		Name:          c.Name,
		ClientType:    c.ClientType,
		ContactPerson: c.ContactPerson,
		Email:         c.Email,
		Phone:         c.Phone,
		TaxID:         c.TaxID,
		Address:       c.Address,
		Notes:         c.Notes,
		AssignedTo:    c.AssignedTo,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func toClientResponses(list []*entity.Client) []dto.ClientResponse {
	out := make([]dto.ClientResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toClientResponse(c))
	}
	return out
}
