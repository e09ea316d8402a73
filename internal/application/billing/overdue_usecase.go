package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/invoiceaz/billing-api/internal/application/tenant"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
	invdomain "github.com/invoiceaz/billing-api/internal/domain/invoice"
	"github.com/invoiceaz/billing-api/internal/domain/repository"
	"github.com/invoiceaz/billing-api/pkg/logger"
)

// sweepBatchSize facturas por lote del barrido.
const sweepBatchSize = 200

// OverdueUseCase materializa el estado overdue: un barrido periódico busca
// facturas vencidas con saldo pendiente y las transiciona. El estado queda
// persistido, nunca calculado al vuelo en las lecturas.
type OverdueUseCase struct {
	txRunner    TxRunner
	invoiceRepo repository.InvoiceRepository
	publisher   EventPublisher
	cache       tenant.Cache
	log         *logger.Logger
}

// NewOverdueUseCase construye el caso de uso.
func NewOverdueUseCase(txRunner TxRunner, invoiceRepo repository.InvoiceRepository, publisher EventPublisher, cache tenant.Cache, log *logger.Logger) *OverdueUseCase {
	return &OverdueUseCase{
		txRunner:    txRunner,
		invoiceRepo: invoiceRepo,
		publisher:   publisher,
		cache:       cache,
		log:         log,
	}
}

// Sweep marca como vencidas las facturas con due_date anterior a now que
// siguen en un estado entregable. Procesa por lotes hasta agotar candidatas
// y devuelve cuántas transicionó. Cada factura se confirma por separado:
// un fallo puntual no frena el barrido.
func (uc *OverdueUseCase) Sweep(ctx context.Context, now time.Time) (int, error) {
	total := 0
	for {
		candidates, err := uc.invoiceRepo.ListOverdueCandidates(now, sweepBatchSize)
		if err != nil {
			return total, err
		}
		if len(candidates) == 0 {
			return total, nil
		}
		progressed := 0
		for _, candidate := range candidates {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			ok, err := uc.markOverdue(ctx, candidate.ID, now)
			if err != nil {
				uc.log.Error().Err(err).Str("invoice", candidate.Number).Msg("barrido de vencidas: factura omitida")
				continue
			}
			if ok {
				progressed++
				total++
			}
		}
		if progressed == 0 {
			// Nada avanzó en el lote completo; reintentar sería un bucle.
			return total, nil
		}
		if len(candidates) < sweepBatchSize {
			return total, nil
		}
	}
}

// markOverdue transiciona una factura bajo bloqueo de fila, revalidando que
// siga siendo candidata: pudo pagarse o cancelarse entre el listado y el lock.
func (uc *OverdueUseCase) markOverdue(ctx context.Context, id string, now time.Time) (bool, error) {
	var (
		inv  *entity.Invoice
		from entity.InvoiceStatus
	)
	moved := false
	err := uc.txRunner.RunInvoice(ctx, func(invoiceRepo repository.InvoiceRepository, _ repository.PaymentRepository) error {
		locked, err := invoiceRepo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if locked == nil {
			return nil
		}
		inv = locked
		from = inv.Status
		if !invdomain.OverdueCandidate(inv.Status) || !inv.DueDate.Before(now) {
			return nil
		}
		if err := invdomain.Apply(inv, entity.StatusOverdue, now); err != nil {
			return err
		}
		moved = true
		return invoiceRepo.Update(inv)
	})
	if err != nil || !moved {
		return false, err
	}

	uc.cache.Invalidate(inv.BusinessID)
	uc.publisher.Publish(&entity.Event{
		BusinessID: inv.BusinessID,
		EntityKind: entity.EntityInvoice,
		EntityID:   inv.ID,
		Action:     entity.EventStatusChanged,
		FromStatus: string(from),
		ToStatus:   string(inv.Status),
		Detail:     fmt.Sprintf("%s: vencida", inv.Number),
		OccurredAt: now,
	})
	return true, nil
}

// Run ejecuta el barrido cada interval hasta que el contexto se cancele.
// Pensado para correr como goroutine desde main.
func (uc *OverdueUseCase) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := uc.Sweep(ctx, time.Now())
			if err != nil {
				uc.log.Error().Err(err).Msg("barrido de vencidas falló")
				continue
			}
			if n > 0 {
				uc.log.Info().Int("invoices", n).Msg("facturas marcadas como vencidas")
			}
		}
	}
}
