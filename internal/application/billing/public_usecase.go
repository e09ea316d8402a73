package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/invoiceaz/billing-api/internal/application/dto"
	"github.com/invoiceaz/billing-api/internal/application/tenant"
	"github.com/invoiceaz/billing-api/internal/domain"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
	invdomain "github.com/invoiceaz/billing-api/internal/domain/invoice"
	"github.com/invoiceaz/billing-api/internal/domain/repository"
)

// PublicUseCase sirve la vista de factura por share token, sin autenticación.
// Los borradores y las canceladas no se exponen: para el mundo exterior
// simplemente no existen.
type PublicUseCase struct {
	txRunner     TxRunner
	invoiceRepo  repository.InvoiceRepository
	clientRepo   repository.ClientRepository
	businessRepo repository.BusinessRepository
	pdfGenerator InvoicePDFGenerator
	publisher    EventPublisher
	cache        tenant.Cache
}

// NewPublicUseCase construye el caso de uso.
func NewPublicUseCase(
	txRunner TxRunner,
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	businessRepo repository.BusinessRepository,
	pdfGenerator InvoicePDFGenerator,
	publisher EventPublisher,
	cache tenant.Cache,
) *PublicUseCase {
	return &PublicUseCase{
		txRunner:     txRunner,
		invoiceRepo:  invoiceRepo,
		clientRepo:   clientRepo,
		businessRepo: businessRepo,
		pdfGenerator: pdfGenerator,
		publisher:    publisher,
		cache:        cache,
	}
}

// View devuelve la factura asociada al token y la marca como vista la
// primera vez. El marcado es parte de la consulta: abrir el enlace ES el
// evento de visualización.
func (uc *PublicUseCase) View(ctx context.Context, token string) (*dto.PublicInvoiceResponse, error) {
	inv, err := uc.loadByToken(token)
	if err != nil {
		return nil, err
	}

	from := inv.Status
	if invdomain.CanTransition(inv.Status, entity.StatusViewed) {
		now := time.Now()
		err = uc.txRunner.RunInvoice(ctx, func(invoiceRepo repository.InvoiceRepository, _ repository.PaymentRepository) error {
			locked, err := invoiceRepo.GetByIDForUpdate(inv.ID)
			if err != nil {
				return err
			}
			if locked == nil {
				return domain.ErrNotFound
			}
			if err := invdomain.Apply(locked, entity.StatusViewed, now); err != nil {
				return err
			}
			inv = locked
			if inv.Status == from {
				return nil
			}
			return invoiceRepo.Update(inv)
		})
		if err != nil {
			return nil, err
		}
		if inv.Status != from {
			uc.cache.Invalidate(inv.BusinessID)
			uc.publisher.Publish(&entity.Event{
				BusinessID: inv.BusinessID,
				EntityKind: entity.EntityInvoice,
				EntityID:   inv.ID,
				Action:     entity.EventStatusChanged,
				FromStatus: string(from),
				ToStatus:   string(inv.Status),
				Detail:     fmt.Sprintf("%s: abierta por el cliente", inv.Number),
				OccurredAt: now,
			})
		}
	}

	return uc.toPublicResponse(inv)
}

// Pay salda el monto pendiente completo con método online. El flujo público
// no acepta pagos parciales; esos los registra el negocio a mano.
func (uc *PublicUseCase) Pay(ctx context.Context, token string) (*dto.PublicInvoiceResponse, error) {
	inv, err := uc.loadByToken(token)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var from entity.InvoiceStatus
	err = uc.txRunner.RunInvoice(ctx, func(invoiceRepo repository.InvoiceRepository, paymentRepo repository.PaymentRepository) error {
		locked, err := invoiceRepo.GetByIDForUpdate(inv.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return domain.ErrNotFound
		}
		inv = locked
		from = inv.Status
		if !invdomain.Payable(inv.Status) {
			return fmt.Errorf("factura en %s no acepta pagos: %w", inv.Status, domain.ErrStateConflict)
		}

		paid, err := paymentRepo.SumByInvoice(inv.ID)
		if err != nil {
			return err
		}
		inv.PaidAmount = paid
		remaining := invdomain.Remaining(inv)
		if !remaining.IsPositive() {
			return fmt.Errorf("factura sin saldo pendiente: %w", domain.ErrStateConflict)
		}

		payment := &entity.Payment{
			ID:          uuid.New().String(),
			InvoiceID:   inv.ID,
			Amount:      remaining,
			PaymentDate: now,
			Method:      entity.PaymentMethodOnline,
			Reference:   fmt.Sprintf("pago online por enlace %s", inv.Number),
			CreatedAt:   now,
		}
		if err := paymentRepo.Create(payment); err != nil {
			return err
		}
		inv.PaidAmount = paid.Add(remaining)
		inv.UpdatedAt = now
		if err := invdomain.Apply(inv, entity.StatusPaid, now); err != nil {
			return err
		}
		return invoiceRepo.Update(inv)
	})
	if err != nil {
		return nil, err
	}

	uc.cache.Invalidate(inv.BusinessID)
	uc.publisher.Publish(&entity.Event{
		BusinessID: inv.BusinessID,
		EntityKind: entity.EntityInvoice,
		EntityID:   inv.ID,
		Action:     entity.EventPaymentAdded,
		Detail:     fmt.Sprintf("%s: pago online, saldada", inv.Number),
		OccurredAt: now,
	})
	uc.publisher.Publish(&entity.Event{
		BusinessID: inv.BusinessID,
		EntityKind: entity.EntityInvoice,
		EntityID:   inv.ID,
		Action:     entity.EventStatusChanged,
		FromStatus: string(from),
		ToStatus:   string(inv.Status),
		Detail:     inv.Number,
		OccurredAt: now,
	})

	return uc.toPublicResponse(inv)
}

// PDF genera el PDF de la factura compartida.
func (uc *PublicUseCase) PDF(ctx context.Context, token string) ([]byte, string, error) {
	inv, err := uc.loadByToken(token)
	if err != nil {
		return nil, "", err
	}
	items, err := uc.invoiceRepo.ListItems(inv.ID)
	if err != nil {
		return nil, "", err
	}
	business, err := uc.businessRepo.GetByID(inv.BusinessID)
	if err != nil {
		return nil, "", err
	}
	client, err := uc.clientRepo.GetByID(inv.ClientID)
	if err != nil {
		return nil, "", err
	}
	if business == nil || client == nil {
		return nil, "", domain.ErrNotFound
	}
	pdf, err := uc.pdfGenerator.GenerateInvoicePDF(ctx, inv, items, business, client, "")
	if err != nil {
		return nil, "", err
	}
	return pdf, inv.Number, nil
}

// loadByToken resuelve el token ocultando borradores y canceladas.
func (uc *PublicUseCase) loadByToken(token string) (*entity.Invoice, error) {
	if token == "" {
		return nil, domain.ErrNotFound
	}
	inv, err := uc.invoiceRepo.GetByShareToken(token)
	if err != nil {
		return nil, err
	}
	if inv == nil || inv.Status == entity.StatusDraft || inv.Status == entity.StatusCancelled {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

func (uc *PublicUseCase) toPublicResponse(inv *entity.Invoice) (*dto.PublicInvoiceResponse, error) {
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
	resp := &dto.PublicInvoiceResponse{
		Number:     inv.Number,
		Date:       inv.InvoiceDate.Format(dateLayout),
		DueDate:    inv.DueDate.Format(dateLayout),
		Status:     string(inv.Status),
		Currency:   inv.Currency,
		Subtotal:   inv.Subtotal,
		TaxAmount:  inv.TaxAmount,
		Discount:   inv.Discount,
		Total:      inv.Total,
		PaidAmount: inv.PaidAmount,
		Theme:      inv.Theme,
	}
	if business != nil {
		resp.BusinessName = business.Name
	}
	if client != nil {
		resp.ClientName = client.Name
	}
	for _, it := range items {
		resp.Items = append(resp.Items, toItemResponse(it))
	}
	return resp, nil
}
