package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoiceaz/billing-api/internal/application/billing"
	"github.com/invoiceaz/billing-api/internal/application/usecase"
	"github.com/invoiceaz/billing-api/internal/domain/repository"
)

// Ensure TxRunner implements billing.TxRunner and usecase.BusinessTxRunner.
var _ billing.TxRunner = (*TxRunner)(nil)
var _ usecase.BusinessTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunInvoice inicia una transacción con los repos de facturación atados a
// ella y hace Commit o Rollback. Las escrituras de factura y pago
// (bloqueo de fila, inserción, recálculo, transición) confirman juntas.
func (r *TxRunner) RunInvoice(ctx context.Context, fn func(
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	invoiceRepo := NewInvoiceRepository(tx)
	paymentRepo := NewPaymentRepository(tx)

	if err := fn(invoiceRepo, paymentRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunBusiness inicia una transacción con los repos de negocio y membresía.
// Crear un negocio y su membresía OWNER es atómico.
func (r *TxRunner) RunBusiness(ctx context.Context, fn func(
	businessRepo repository.BusinessRepository,
	membershipRepo repository.MembershipRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	businessRepo := NewBusinessRepository(tx)
	membershipRepo := NewMembershipRepository(tx)

	if err := fn(businessRepo, membershipRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
