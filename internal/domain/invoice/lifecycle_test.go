package invoice_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoiceaz/billing-api/internal/domain"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
	"github.com/invoiceaz/billing-api/internal/domain/invoice"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func newInvoice(status entity.InvoiceStatus) *entity.Invoice {
	return &entity.Invoice{
		ID:         "inv-1",
		BusinessID: "biz-1",
		Status:     status,
		Total:      decimal.NewFromInt(100),
		PaidAmount: decimal.Zero,
	}
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// ──────────────────────────────────────────────────────────────────────────────
// Matriz de transiciones
// ──────────────────────────────────────────────────────────────────────────────

func TestApply_TransicionesValidas(t *testing.T) {
	cases := []struct {
		from, to entity.InvoiceStatus
	}{
		{entity.StatusDraft, entity.StatusFinalized},
		{entity.StatusDraft, entity.StatusCancelled},
		{entity.StatusFinalized, entity.StatusSent},
		{entity.StatusFinalized, entity.StatusViewed},
		{entity.StatusFinalized, entity.StatusPaid},
		{entity.StatusFinalized, entity.StatusOverdue},
		{entity.StatusFinalized, entity.StatusCancelled},
		{entity.StatusSent, entity.StatusViewed},
		{entity.StatusSent, entity.StatusPaid},
		{entity.StatusSent, entity.StatusOverdue},
		{entity.StatusSent, entity.StatusCancelled},
		{entity.StatusViewed, entity.StatusPaid},
		{entity.StatusViewed, entity.StatusOverdue},
		{entity.StatusViewed, entity.StatusCancelled},
		{entity.StatusOverdue, entity.StatusPaid},
		{entity.StatusOverdue, entity.StatusCancelled},
	}
	for _, c := range cases {
		inv := newInvoice(c.from)
		err := invoice.Apply(inv, c.to, testNow)
		require.NoError(t, err, "%s → %s debe permitirse", c.from, c.to)
		assert.Equal(t, c.to, inv.Status)
	}
}

func TestApply_TransicionesInvalidas(t *testing.T) {
	cases := []struct {
		from, to entity.InvoiceStatus
	}{
		{entity.StatusDraft, entity.StatusSent},    // draft debe finalizarse primero
		{entity.StatusDraft, entity.StatusPaid},    // draft no acepta pagos
		{entity.StatusDraft, entity.StatusOverdue}, // draft no vence
		{entity.StatusPaid, entity.StatusCancelled},
		{entity.StatusPaid, entity.StatusOverdue},
		{entity.StatusCancelled, entity.StatusFinalized},
		{entity.StatusCancelled, entity.StatusPaid},
		{entity.StatusViewed, entity.StatusDraft}, // nunca se vuelve a borrador
		{entity.StatusCancelled, entity.StatusDraft},
	}
	for _, c := range cases {
		inv := newInvoice(c.from)
		err := invoice.Apply(inv, c.to, testNow)
		require.Error(t, err, "%s → %s debe rechazarse", c.from, c.to)
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
		assert.Equal(t, c.from, inv.Status, "el estado no debe cambiar tras un rechazo")
	}
}

// Pedir sent sobre una factura que ya avanzó es un no-op, no un error.
func TestApply_SentEsIdempotente(t *testing.T) {
	for _, st := range []entity.InvoiceStatus{entity.StatusSent, entity.StatusViewed, entity.StatusPaid} {
		inv := newInvoice(st)
		require.NoError(t, invoice.Apply(inv, entity.StatusSent, testNow))
		assert.Equal(t, st, inv.Status, "marcar sent de nuevo no debe retroceder el estado")
	}
}

// viewed es monotónico: una factura vista jamás vuelve a sent.
func TestApply_ViewedEsMonotonico(t *testing.T) {
	inv := newInvoice(entity.StatusSent)
	require.NoError(t, invoice.Apply(inv, entity.StatusViewed, testNow))
	require.NotNil(t, inv.ViewedAt)
	firstViewed := *inv.ViewedAt

	later := testNow.Add(2 * time.Hour)
	require.NoError(t, invoice.Apply(inv, entity.StatusViewed, later))
	assert.Equal(t, entity.StatusViewed, inv.Status)
	assert.Equal(t, firstViewed, *inv.ViewedAt, "el primer viewed_at se conserva")
}

func TestApply_TimestampsDeTransicion(t *testing.T) {
	inv := newInvoice(entity.StatusFinalized)
	require.NoError(t, invoice.Apply(inv, entity.StatusSent, testNow))
	require.NotNil(t, inv.SentAt)
	assert.Equal(t, testNow, *inv.SentAt)

	require.NoError(t, invoice.Apply(inv, entity.StatusViewed, testNow))
	require.NotNil(t, inv.ViewedAt)

	require.NoError(t, invoice.Apply(inv, entity.StatusPaid, testNow))
	require.NotNil(t, inv.PaidAt)
}

func TestApply_FinalizarBorradorConPagosEsConflicto(t *testing.T) {
	inv := newInvoice(entity.StatusDraft)
	inv.PaidAmount = decimal.NewFromInt(10) // solo posible con datos corruptos
	err := invoice.Apply(inv, entity.StatusFinalized, testNow)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStateConflict))
}

// ──────────────────────────────────────────────────────────────────────────────
// Predicados
// ──────────────────────────────────────────────────────────────────────────────

func TestPayable(t *testing.T) {
	assert.False(t, invoice.Payable(entity.StatusDraft))
	assert.False(t, invoice.Payable(entity.StatusCancelled))
	assert.True(t, invoice.Payable(entity.StatusFinalized))
	assert.True(t, invoice.Payable(entity.StatusSent))
	assert.True(t, invoice.Payable(entity.StatusViewed))
	assert.True(t, invoice.Payable(entity.StatusOverdue))
	assert.True(t, invoice.Payable(entity.StatusPaid)) // el caso de uso rechaza por saldo cero
}

func TestEditable_SoloBorrador(t *testing.T) {
	assert.True(t, invoice.Editable(entity.StatusDraft))
	for _, st := range []entity.InvoiceStatus{
		entity.StatusFinalized, entity.StatusSent, entity.StatusViewed,
		entity.StatusPaid, entity.StatusOverdue, entity.StatusCancelled,
	} {
		assert.False(t, invoice.Editable(st), "%s no debe ser editable", st)
	}
}

func TestOverdueCandidate(t *testing.T) {
	assert.True(t, invoice.OverdueCandidate(entity.StatusFinalized))
	assert.True(t, invoice.OverdueCandidate(entity.StatusSent))
	assert.True(t, invoice.OverdueCandidate(entity.StatusViewed))
	assert.False(t, invoice.OverdueCandidate(entity.StatusDraft))
	assert.False(t, invoice.OverdueCandidate(entity.StatusPaid))
	assert.False(t, invoice.OverdueCandidate(entity.StatusCancelled))
}
