package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/invoiceaz/billing-api/internal/application/tenant"
	"github.com/invoiceaz/billing-api/internal/domain"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
	invdomain "github.com/invoiceaz/billing-api/internal/domain/invoice"
	"github.com/invoiceaz/billing-api/internal/domain/rbac"
	"github.com/invoiceaz/billing-api/internal/domain/repository"
	"github.com/invoiceaz/billing-api/pkg/logger"
)

// LifecycleUseCase cubre las transiciones de estado explícitas, el envío por
// correo y la generación del PDF autenticado.
type LifecycleUseCase struct {
	txRunner      TxRunner
	invoiceRepo   repository.InvoiceRepository
	clientRepo    repository.ClientRepository
	businessRepo  repository.BusinessRepository
	pdfGenerator  InvoicePDFGenerator
	sender        DeliverySender
	publisher     EventPublisher
	cache         tenant.Cache
	publicBaseURL string
	log           *logger.Logger
}

// NewLifecycleUseCase construye el caso de uso.
func NewLifecycleUseCase(
	txRunner TxRunner,
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	businessRepo repository.BusinessRepository,
	pdfGenerator InvoicePDFGenerator,
	sender DeliverySender,
	publisher EventPublisher,
	cache tenant.Cache,
	publicBaseURL string,
	log *logger.Logger,
) *LifecycleUseCase {
	return &LifecycleUseCase{
		txRunner:      txRunner,
		invoiceRepo:   invoiceRepo,
		clientRepo:    clientRepo,
		businessRepo:  businessRepo,
		pdfGenerator:  pdfGenerator,
		sender:        sender,
		publisher:     publisher,
		cache:         cache,
		publicBaseURL: publicBaseURL,
		log:           log,
	}
}

// Transition aplica un cambio de estado explícito (finalizar, cancelar,
// marcar pagada a mano). Las reglas de la máquina de estados deciden; aquí
// solo se autoriza, se persiste y se emite el evento.
func (uc *LifecycleUseCase) Transition(ctx context.Context, actor tenant.Actor, id, status string) (*entity.Invoice, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionUpdate, rbac.ResourceInvoice)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	to, ok := entity.ParseInvoiceStatus(status)
	if !ok {
		return nil, domain.ErrInvalidInput
	}

	var inv *entity.Invoice
	from := entity.InvoiceStatus("")
	err := uc.txRunner.RunInvoice(ctx, func(invoiceRepo repository.InvoiceRepository, paymentRepo repository.PaymentRepository) error {
		loaded, err := loadInvoiceScoped(invoiceRepo, uc.clientRepo, actor, id, decision.Scope, true)
		if err != nil {
			return err
		}
		inv = loaded
		from = inv.Status
		if err := invdomain.Apply(inv, to, time.Now()); err != nil {
			return err
		}
		if inv.Status == from {
			return nil // idempotente, nada que persistir
		}
		return invoiceRepo.Update(inv)
	})
	if err != nil {
		return nil, err
	}

	if inv.Status != from {
		uc.cache.Invalidate(actor.BusinessID)
		uc.publisher.Publish(&entity.Event{
			BusinessID: actor.BusinessID,
			ActorID:    actor.MembershipID,
			EntityKind: entity.EntityInvoice,
			EntityID:   inv.ID,
			Action:     entity.EventStatusChanged,
			FromStatus: string(from),
			ToStatus:   string(inv.Status),
			Detail:     inv.Number,
			OccurredAt: time.Now(),
		})
	}
	return inv, nil
}

// MarkSent marca la factura como enviada sin pasar por el correo (entrega
// manual, WhatsApp, impresa). Idempotente si ya avanzó más allá de sent.
func (uc *LifecycleUseCase) MarkSent(ctx context.Context, actor tenant.Actor, id string) (*entity.Invoice, error) {
	return uc.Transition(ctx, actor, id, string(entity.StatusSent))
}

// Send genera el PDF, lo envía por correo al cliente y marca la factura como
// enviada. Si el remitente está deshabilitado (sin credenciales) la marca
// igual y lo deja registrado en el log.
func (uc *LifecycleUseCase) Send(ctx context.Context, actor tenant.Actor, id string) (*entity.Invoice, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionUpdate, rbac.ResourceInvoice)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	inv, err := loadInvoiceScoped(uc.invoiceRepo, uc.clientRepo, actor, id, decision.Scope, false)
	if err != nil {
		return nil, err
	}
	if inv.Status == entity.StatusDraft || inv.Status == entity.StatusCancelled {
		return nil, fmt.Errorf("%s → %s: %w", inv.Status, entity.StatusSent, domain.ErrInvalidTransition)
	}

	business, err := uc.businessRepo.GetByID(inv.BusinessID)
	if err != nil {
		return nil, err
	}
	client, err := uc.clientRepo.GetByID(inv.ClientID)
	if err != nil {
		return nil, err
	}
	if business == nil || client == nil {
		return nil, domain.ErrNotFound
	}

	publicURL := uc.publicURL(inv)
	if uc.sender.Enabled() {
		items, err := uc.invoiceRepo.ListItems(inv.ID)
		if err != nil {
			return nil, err
		}
		pdf, err := uc.pdfGenerator.GenerateInvoicePDF(ctx, inv, items, business, client, publicURL)
		if err != nil {
			return nil, err
		}
		if err := uc.sender.SendInvoice(ctx, business, client, inv, pdf, publicURL); err != nil {
			return nil, fmt.Errorf("envío de factura %s: %w", inv.Number, err)
		}
	} else {
		uc.log.Warn().Str("invoice", inv.Number).Msg("remitente de correo deshabilitado, factura marcada como enviada sin entrega")
	}

	return uc.Transition(ctx, actor, id, string(entity.StatusSent))
}

// PDF genera el PDF de la factura para el usuario autenticado.
func (uc *LifecycleUseCase) PDF(ctx context.Context, actor tenant.Actor, id string) ([]byte, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionRead, rbac.ResourceInvoice)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	inv, err := loadInvoiceScoped(uc.invoiceRepo, uc.clientRepo, actor, id, decision.Scope, false)
	if err != nil {
		return nil, err
	}
	items, err := uc.invoiceRepo.ListItems(inv.ID)
	if err != nil {
		return nil, err
	}
	business, err := uc.businessRepo.GetByID(inv.BusinessID)
	if err != nil {
		return nil, err
	}
	client, err := uc.clientRepo.GetByID(inv.ClientID)
	if err != nil {
		return nil, err
	}
	if business == nil || client == nil {
		return nil, domain.ErrNotFound
	}
	return uc.pdfGenerator.GenerateInvoicePDF(ctx, inv, items, business, client, uc.publicURL(inv))
}

func (uc *LifecycleUseCase) publicURL(inv *entity.Invoice) string {
	return fmt.Sprintf("%s/%s", uc.publicBaseURL, inv.ShareToken)
}

// loadInvoiceScoped carga una factura verificando tenant y alcance del rol.
// forUpdate usa el bloqueo de fila del repo; solo tiene sentido dentro de
// una transacción.
func loadInvoiceScoped(invoiceRepo repository.InvoiceRepository, clientRepo repository.ClientRepository, actor tenant.Actor, id string, scope rbac.Scope, forUpdate bool) (*entity.Invoice, error) {
	var (
		inv *entity.Invoice
		err error
	)
	if forUpdate {
		inv, err = invoiceRepo.GetByIDForUpdate(id)
	} else {
		inv, err = invoiceRepo.GetByID(id)
	}
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if err := tenant.SameTenant(actor.BusinessID, inv.BusinessID); err != nil {
		return nil, err
	}
	if scope == rbac.ScopeAssigned {
		if inv.CreatedBy == actor.MembershipID {
			return inv, nil
		}
		client, err := clientRepo.GetByID(inv.ClientID)
		if err != nil {
			return nil, err
		}
		if client == nil || client.AssignedTo != actor.MembershipID {
			return nil, domain.ErrForbidden
		}
	}
	return inv, nil
}
