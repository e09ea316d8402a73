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

// TeamUseCase gestiona las membresías del negocio activo. Solo OWNER y
// MANAGER pasan la política; el OWNER es intocable: ni cambia de rol ni
// se elimina.
type TeamUseCase struct {
	membershipRepo repository.MembershipRepository
	userRepo       repository.UserRepository
	publisher      billing.EventPublisher
	cache          tenant.Cache
}

// NewTeamUseCase construye el caso de uso.
func NewTeamUseCase(membershipRepo repository.MembershipRepository, userRepo repository.UserRepository, publisher billing.EventPublisher, cache tenant.Cache) *TeamUseCase {
	return &TeamUseCase{
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		publisher:      publisher,
		cache:          cache,
	}
}

// List devuelve los miembros del negocio activo con sus datos de usuario.
func (uc *TeamUseCase) List(ctx context.Context, actor tenant.Actor) ([]dto.TeamMemberResponse, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionRead, rbac.ResourceTeam)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	memberships, err := uc.membershipRepo.ListByBusiness(actor.BusinessID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TeamMemberResponse, 0, len(memberships))
	for _, m := range memberships {
		member := dto.TeamMemberResponse{
			MembershipID: m.ID,
			UserID:       m.UserID,
			Role:         string(m.Role),
			CreatedAt:    m.CreatedAt,
		}
		if user, err := uc.userRepo.GetByID(m.UserID); err == nil && user != nil {
			member.Email = user.Email
			member.Name = user.Name
		}
		out = append(out, member)
	}
	return out, nil
}

// Invite agrega un usuario registrado al equipo por email.
func (uc *TeamUseCase) Invite(ctx context.Context, actor tenant.Actor, in dto.InviteMemberRequest) (*dto.TeamMemberResponse, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionCreate, rbac.ResourceTeam)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	role := entity.Role(in.Role)
	if !role.Valid() || role == entity.RoleOwner {
		// El OWNER nace con el negocio, no por invitación
		return nil, fmt.Errorf("rol %q no invitable: %w", in.Role, domain.ErrInvalidInput)
	}

	user, err := uc.userRepo.FindByEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	existing, err := uc.membershipRepo.GetByUserAndBusiness(user.ID, actor.BusinessID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	// Cupo de equipo del plan: el OWNER no cuenta
	limits := entity.LimitsForPlan(actor.Plan)
	if limits.TeamMembers != entity.Unlimited {
		total, err := uc.membershipRepo.CountByBusiness(actor.BusinessID)
		if err != nil {
			return nil, err
		}
		members := total - 1
		if members < 0 {
			members = 0
		}
		if !limits.Allows(limits.TeamMembers, members) {
			return nil, &domain.LimitExceededError{Resource: "team_members", Limit: limits.TeamMembers, Current: members}
		}
	}

	now := time.Now()
	membership := &entity.Membership{
		ID:         uuid.New().String(),
		UserID:     user.ID,
		BusinessID: actor.BusinessID,
		Role:       role,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.membershipRepo.Create(membership); err != nil {
		return nil, err
	}

	uc.publisher.Publish(&entity.Event{
		BusinessID: actor.BusinessID,
		ActorID:    actor.MembershipID,
		EntityKind: entity.EntityTeam,
		EntityID:   membership.ID,
		Action:     entity.EventCreated,
		Detail:     fmt.Sprintf("%s como %s", user.Email, role),
		OccurredAt: now,
	})

	return &dto.TeamMemberResponse{
		MembershipID: membership.ID,
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         string(role),
		CreatedAt:    now,
	}, nil
}

// UpdateRole cambia el rol de un miembro del equipo.
func (uc *TeamUseCase) UpdateRole(ctx context.Context, actor tenant.Actor, membershipID string, in dto.UpdateMemberRoleRequest) (*dto.TeamMemberResponse, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionUpdate, rbac.ResourceTeam)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	role := entity.Role(in.Role)
	if !role.Valid() || role == entity.RoleOwner {
		return nil, fmt.Errorf("rol %q no asignable: %w", in.Role, domain.ErrInvalidInput)
	}

	membership, err := uc.loadMember(actor, membershipID)
	if err != nil {
		return nil, err
	}
	if membership.Role == entity.RoleOwner {
		return nil, fmt.Errorf("el OWNER no cambia de rol: %w", domain.ErrForbidden)
	}
	if membership.ID == actor.MembershipID {
		return nil, fmt.Errorf("no puede cambiar su propio rol: %w", domain.ErrForbidden)
	}

	membership.Role = role
	membership.UpdatedAt = time.Now()
	if err := uc.membershipRepo.Update(membership); err != nil {
		return nil, err
	}

	uc.publisher.Publish(&entity.Event{
		BusinessID: actor.BusinessID,
		ActorID:    actor.MembershipID,
		EntityKind: entity.EntityTeam,
		EntityID:   membership.ID,
		Action:     entity.EventUpdated,
		Detail:     fmt.Sprintf("rol cambiado a %s", role),
		OccurredAt: membership.UpdatedAt,
	})

	member := &dto.TeamMemberResponse{
		MembershipID: membership.ID,
		UserID:       membership.UserID,
		Role:         string(membership.Role),
		CreatedAt:    membership.CreatedAt,
	}
	if user, err := uc.userRepo.GetByID(membership.UserID); err == nil && user != nil {
		member.Email = user.Email
		member.Name = user.Name
	}
	return member, nil
}

// Remove saca a un miembro del equipo. Sus facturas y clientes asignados
// quedan; solo desaparece el acceso.
func (uc *TeamUseCase) Remove(ctx context.Context, actor tenant.Actor, membershipID string) error {
	decision := rbac.Authorize(actor.Role, rbac.ActionDelete, rbac.ResourceTeam)
	if !decision.Allowed {
		return domain.ErrForbidden
	}
	membership, err := uc.loadMember(actor, membershipID)
	if err != nil {
		return err
	}
	if membership.Role == entity.RoleOwner {
		return fmt.Errorf("el OWNER no se elimina del equipo: %w", domain.ErrForbidden)
	}

	if err := uc.membershipRepo.Delete(membership.ID); err != nil {
		return err
	}
	uc.publisher.Publish(&entity.Event{
		BusinessID: actor.BusinessID,
		ActorID:    actor.MembershipID,
		EntityKind: entity.EntityTeam,
		EntityID:   membership.ID,
		Action:     entity.EventDeleted,
		OccurredAt: time.Now(),
	})
	return nil
}

func (uc *TeamUseCase) loadMember(actor tenant.Actor, membershipID string) (*entity.Membership, error) {
	membership, err := uc.membershipRepo.GetByID(membershipID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, domain.ErrNotFound
	}
	if err := tenant.SameTenant(actor.BusinessID, membership.BusinessID); err != nil {
		return nil, err
	}
	return membership, nil
}
