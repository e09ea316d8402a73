package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/invoiceaz/billing-api/internal/domain"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
	"github.com/invoiceaz/billing-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `id, business_id, client_id, created_by, number, invoice_date, due_date,
	status, currency, subtotal, tax_amount, discount, total, paid_amount,
	notes, terms, theme, share_token, sent_at, viewed_at, paid_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	err := row.Scan(
		&inv.ID, &inv.BusinessID, &inv.ClientID, &inv.CreatedBy, &inv.Number,
		&inv.InvoiceDate, &inv.DueDate, &inv.Status, &inv.Currency,
		&inv.Subtotal, &inv.TaxAmount, &inv.Discount, &inv.Total, &inv.PaidAmount,
		&inv.Notes, &inv.Terms, &inv.Theme, &inv.ShareToken,
		&inv.SentAt, &inv.ViewedAt, &inv.PaidAt,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Create persiste la cabecera de la factura.
func (r *InvoiceRepo) Create(inv *entity.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`
	_, err := r.q.Exec(context.Background(), query,
		inv.ID, inv.BusinessID, inv.ClientID, inv.CreatedBy, inv.Number,
		inv.InvoiceDate, inv.DueDate, inv.Status, inv.Currency,
		inv.Subtotal, inv.TaxAmount, inv.Discount, inv.Total, inv.PaidAmount,
		inv.Notes, inv.Terms, inv.Theme, inv.ShareToken,
		inv.SentAt, inv.ViewedAt, inv.PaidAt,
		inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// CreateItem persiste una línea de la factura.
func (r *InvoiceRepo) CreateItem(item *entity.InvoiceItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoice_items (id, invoice_id, product_id, description, quantity, unit, unit_price, tax_rate, amount, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		item.ID, item.InvoiceID, nullIfEmpty(item.ProductID), item.Description,
		item.Quantity, item.Unit, item.UnitPrice, item.TaxRate, item.Amount, item.SortOrder,
	)
	if err != nil {
		return fmt.Errorf("insert invoice item: %w", err)
	}
	return nil
}

// Update persiste la cabecera completa: campos editables, estado, montos
// derivados y timestamps de transición.
func (r *InvoiceRepo) Update(inv *entity.Invoice) error {
	query := `
		UPDATE invoices
		SET client_id = $2, invoice_date = $3, due_date = $4, status = $5, currency = $6,
		    subtotal = $7, tax_amount = $8, discount = $9, total = $10, paid_amount = $11,
		    notes = $12, terms = $13, theme = $14,
		    sent_at = $15, viewed_at = $16, paid_at = $17, updated_at = $18
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		inv.ID, inv.ClientID, inv.InvoiceDate, inv.DueDate, inv.Status, inv.Currency,
		inv.Subtotal, inv.TaxAmount, inv.Discount, inv.Total, inv.PaidAmount,
		inv.Notes, inv.Terms, inv.Theme,
		inv.SentAt, inv.ViewedAt, inv.PaidAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	return nil
}

// Delete elimina la factura. El caso de uso garantiza antes que no
// existan pagos; las líneas se borran con DeleteItems.
func (r *InvoiceRepo) Delete(id string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	return nil
}

// DeleteItems elimina todas las líneas de una factura.
func (r *InvoiceRepo) DeleteItems(invoiceID string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM invoice_items WHERE invoice_id = $1`, invoiceID)
	if err != nil {
		return fmt.Errorf("delete invoice items: %w", err)
	}
	return nil
}

// GetByID obtiene una factura por ID.
func (r *InvoiceRepo) GetByID(id string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	inv, err := scanInvoice(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// GetByIDForUpdate bloquea la fila (SELECT ... FOR UPDATE); solo tiene
// sentido dentro de una transacción. Serializa pagos y transiciones
// concurrentes sobre la misma factura.
func (r *InvoiceRepo) GetByIDForUpdate(id string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 FOR UPDATE`
	inv, err := scanInvoice(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice for update: %w", err)
	}
	return inv, nil
}

// GetByShareToken obtiene una factura por su token público.
func (r *InvoiceRepo) GetByShareToken(token string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE share_token = $1`
	inv, err := scanInvoice(r.q.QueryRow(context.Background(), query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice by share token: %w", err)
	}
	return inv, nil
}

// ListItems obtiene las líneas de una factura en su orden original.
func (r *InvoiceRepo) ListItems(invoiceID string) ([]*entity.InvoiceItem, error) {
	query := `
		SELECT id, invoice_id, COALESCE(product_id, ''), description, quantity, unit, unit_price, tax_rate, amount, sort_order
		FROM invoice_items WHERE invoice_id = $1 ORDER BY sort_order`
	rows, err := r.q.Query(context.Background(), query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()
	var list []*entity.InvoiceItem
	for rows.Next() {
		var it entity.InvoiceItem
		if err := rows.Scan(
			&it.ID, &it.InvoiceID, &it.ProductID, &it.Description,
			&it.Quantity, &it.Unit, &it.UnitPrice, &it.TaxRate, &it.Amount, &it.SortOrder,
		); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}

// ListByBusiness lista facturas del negocio, opcionalmente filtradas por
// estado (status vacío = todas), de la más reciente a la más antigua.
func (r *InvoiceRepo) ListByBusiness(businessID string, status entity.InvoiceStatus, limit, offset int) ([]*entity.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE business_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	return r.queryInvoices(query, businessID, string(status), limit, offset)
}

// ListCreatedBy restringe a las facturas creadas por la membresía o de
// clientes asignados a ella (alcance SALES_REP).
func (r *InvoiceRepo) ListCreatedBy(businessID, membershipID string, limit, offset int) ([]*entity.Invoice, error) {
	query := `
		SELECT i.id, i.business_id, i.client_id, i.created_by, i.number, i.invoice_date, i.due_date,
		       i.status, i.currency, i.subtotal, i.tax_amount, i.discount, i.total, i.paid_amount,
		       i.notes, i.terms, i.theme, i.share_token, i.sent_at, i.viewed_at, i.paid_at,
		       i.created_at, i.updated_at
		FROM invoices i
		JOIN clients c ON c.id = i.client_id
		WHERE i.business_id = $1 AND (i.created_by = $2 OR c.assigned_to = $2)
		ORDER BY i.created_at DESC LIMIT $3 OFFSET $4`
	return r.queryInvoices(query, businessID, membershipID, limit, offset)
}

func (r *InvoiceRepo) queryInvoices(query string, args ...any) ([]*entity.Invoice, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// LastNumber devuelve el último número asignado en el negocio, bloqueando
// la fila contra asignaciones concurrentes ("" si no hay facturas).
// El orden es por el sufijo numérico, no lexicográfico: INV-1002 > INV-999.
func (r *InvoiceRepo) LastNumber(businessID string) (string, error) {
	query := `
		SELECT number FROM invoices
		WHERE business_id = $1
		ORDER BY split_part(number, '-', 2)::bigint DESC
		LIMIT 1
		FOR UPDATE`
	var number string
	err := r.q.QueryRow(context.Background(), query, businessID).Scan(&number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get last invoice number: %w", err)
	}
	return number, nil
}

// CountByBusiness cuenta todas las facturas del negocio.
func (r *InvoiceRepo) CountByBusiness(businessID string) (int, error) {
	var count int
	err := r.q.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM invoices WHERE business_id = $1`, businessID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}
	return count, nil
}

// CountCreatedInMonth cuenta facturas creadas en el mes (límites de plan).
func (r *InvoiceRepo) CountCreatedInMonth(businessID string, year int, month time.Month) (int, error) {
	query := `
		SELECT COUNT(*) FROM invoices
		WHERE business_id = $1
		  AND date_trunc('month', created_at) = make_date($2, $3, 1)`
	var count int
	err := r.q.QueryRow(context.Background(), query, businessID, year, int(month)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count invoices in month: %w", err)
	}
	return count, nil
}

// ListOverdueCandidates devuelve facturas con fecha de vencimiento pasada
// y saldo pendiente que aún no están marcadas como vencidas, para el
// barrido periódico.
func (r *InvoiceRepo) ListOverdueCandidates(now time.Time, limit int) ([]*entity.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE status IN ('finalized', 'sent', 'viewed')
		  AND due_date < $1
		  AND paid_amount < total
		ORDER BY due_date LIMIT $2`
	return r.queryInvoices(query, now, limit)
}
