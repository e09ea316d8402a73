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
	"github.com/invoiceaz/billing-api/internal/domain/rbac"
	"github.com/invoiceaz/billing-api/internal/domain/repository"
)

// PaymentUseCase registra pagos contra facturas. Los pagos son append-only:
// no hay edición ni borrado, un error se corrige con un registro correctivo.
type PaymentUseCase struct {
	txRunner    TxRunner
	invoiceRepo repository.InvoiceRepository
	paymentRepo repository.PaymentRepository
	clientRepo  repository.ClientRepository
	publisher   EventPublisher
	cache       tenant.Cache
}

// NewPaymentUseCase construye el caso de uso.
func NewPaymentUseCase(
	txRunner TxRunner,
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
	clientRepo repository.ClientRepository,
	publisher EventPublisher,
	cache tenant.Cache,
) *PaymentUseCase {
	return &PaymentUseCase{
		txRunner:    txRunner,
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		clientRepo:  clientRepo,
		publisher:   publisher,
		cache:       cache,
	}
}

// Apply registra un pago. Todo ocurre bajo bloqueo de fila de la factura en
// una sola transacción: releer la suma de pagos, validar contra el saldo,
// insertar el pago, recalcular PaidAmount y transicionar a paid si quedó
// saldada. Dos pagos concurrentes sobre el mismo saldo se serializan y el
// segundo recibe OverpaymentError si ya no cabe.
func (uc *PaymentUseCase) Apply(ctx context.Context, actor tenant.Actor, invoiceID string, in dto.ApplyPaymentRequest) (*dto.PaymentResponse, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionCreate, rbac.ResourcePayment)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	if !in.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if !entity.ValidPaymentMethod(in.Method) {
		return nil, fmt.Errorf("método de pago %q: %w", in.Method, domain.ErrInvalidInput)
	}
	paymentDate := time.Now()
	if in.PaymentDate != "" {
		d, err := parseDate(in.PaymentDate)
		if err != nil {
			return nil, err
		}
		paymentDate = d
	}

	now := time.Now()
	payment := &entity.Payment{
		ID:          uuid.New().String(),
		Amount:      in.Amount,
		PaymentDate: paymentDate,
		Method:      in.Method,
		Reference:   in.Reference,
		Notes:       in.Notes,
		RecordedBy:  actor.MembershipID,
		CreatedAt:   now,
	}

	var (
		inv     *entity.Invoice
		from    entity.InvoiceStatus
		settled bool
	)
	err := uc.txRunner.RunInvoice(ctx, func(invoiceRepo repository.InvoiceRepository, paymentRepo repository.PaymentRepository) error {
		loaded, err := loadInvoiceScoped(invoiceRepo, uc.clientRepo, actor, invoiceID, decision.Scope, true)
		if err != nil {
			return err
		}
		inv = loaded
		from = inv.Status
		if !invdomain.Payable(inv.Status) {
			return fmt.Errorf("factura en %s no acepta pagos: %w", inv.Status, domain.ErrStateConflict)
		}

		// Suma releída bajo el bloqueo, nunca la copia de la cabecera.
		paid, err := paymentRepo.SumByInvoice(inv.ID)
		if err != nil {
			return err
		}
		inv.PaidAmount = paid
		remaining := invdomain.Remaining(inv)
		if in.Amount.Sub(remaining).GreaterThan(invdomain.Epsilon) {
			return &domain.OverpaymentError{Remaining: remaining}
		}

		payment.InvoiceID = inv.ID
		if err := paymentRepo.Create(payment); err != nil {
			return err
		}
		inv.PaidAmount = paid.Add(in.Amount)
		inv.UpdatedAt = now
		if invdomain.Settled(inv.Total, inv.PaidAmount) {
			if err := invdomain.Apply(inv, entity.StatusPaid, now); err != nil {
				return err
			}
			settled = true
		}
		return invoiceRepo.Update(inv)
	})
	if err != nil {
		return nil, err
	}

	uc.cache.Invalidate(actor.BusinessID)
	uc.publisher.Publish(&entity.Event{
		BusinessID: actor.BusinessID,
		ActorID:    actor.MembershipID,
		EntityKind: entity.EntityInvoice,
		EntityID:   inv.ID,
		Action:     entity.EventPaymentAdded,
		Detail:     fmt.Sprintf("%s: pago de %s %s", inv.Number, in.Amount.StringFixed(2), inv.Currency),
		OccurredAt: now,
	})
	if settled {
		uc.publisher.Publish(&entity.Event{
			BusinessID: actor.BusinessID,
			ActorID:    actor.MembershipID,
			EntityKind: entity.EntityInvoice,
			EntityID:   inv.ID,
			Action:     entity.EventStatusChanged,
			FromStatus: string(from),
			ToStatus:   string(inv.Status),
			Detail:     fmt.Sprintf("%s: saldada", inv.Number),
			OccurredAt: now,
		})
	}

	resp := toPaymentResponse(payment)
	return &resp, nil
}

// List devuelve los pagos de una factura.
func (uc *PaymentUseCase) List(ctx context.Context, actor tenant.Actor, invoiceID string) ([]dto.PaymentResponse, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionRead, rbac.ResourcePayment)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	if _, err := loadInvoiceScoped(uc.invoiceRepo, uc.clientRepo, actor, invoiceID, decision.Scope, false); err != nil {
		return nil, err
	}
	payments, err := uc.paymentRepo.ListByInvoice(invoiceID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	return out, nil
}
