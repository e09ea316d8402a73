package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/invoiceaz/billing-api/internal/domain/entity"
	"github.com/invoiceaz/billing-api/internal/domain/repository"
)

var _ repository.ExpenseRepository = (*ExpenseRepo)(nil)

// ExpenseRepo implementación de ExpenseRepository (usable con pool o tx).
type ExpenseRepo struct {
	q Querier
}

// NewExpenseRepository construye el adaptador. Pasar pool o tx (Querier).
func NewExpenseRepository(q Querier) *ExpenseRepo {
	return &ExpenseRepo{q: q}
}

const expenseColumns = `id, business_id, description, vendor, amount, currency, date,
	category, status, method, client_id, notes, created_at, updated_at`

// Create persiste un nuevo gasto.
func (r *ExpenseRepo) Create(e *entity.Expense) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	query := `
		INSERT INTO expenses (` + expenseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(context.Background(), query,
		e.ID, e.BusinessID, e.Description, e.Vendor, e.Amount, e.Currency, e.Date,
		e.Category, e.Status, e.Method, nullIfEmpty(e.ClientID), e.Notes,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

// Update actualiza un gasto.
func (r *ExpenseRepo) Update(e *entity.Expense) error {
	query := `
		UPDATE expenses
		SET description = $2, vendor = $3, amount = $4, currency = $5, date = $6,
		    category = $7, status = $8, method = $9, client_id = $10, notes = $11, updated_at = $12
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		e.ID, e.Description, e.Vendor, e.Amount, e.Currency, e.Date,
		e.Category, e.Status, e.Method, nullIfEmpty(e.ClientID), e.Notes, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return nil
}

// Delete elimina un gasto por ID.
func (r *ExpenseRepo) Delete(id string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// GetByID obtiene un gasto por ID.
func (r *ExpenseRepo) GetByID(id string) (*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`
	e, err := scanExpense(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func scanExpense(row pgx.Row) (*entity.Expense, error) {
	var e entity.Expense
	var clientID *string
	err := row.Scan(
		&e.ID, &e.BusinessID, &e.Description, &e.Vendor, &e.Amount, &e.Currency, &e.Date,
		&e.Category, &e.Status, &e.Method, &clientID, &e.Notes, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if clientID != nil {
		e.ClientID = *clientID
	}
	return &e, nil
}

// ListByBusiness lista los gastos del negocio, del más reciente al más antiguo.
func (r *ExpenseRepo) ListByBusiness(businessID string, limit, offset int) ([]*entity.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses WHERE business_id = $1 ORDER BY date DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, businessID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()
	var list []*entity.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// CountInMonth cuenta los gastos registrados en el mes (límites de plan).
func (r *ExpenseRepo) CountInMonth(businessID string, year int, month time.Month) (int, error) {
	query := `
		SELECT COUNT(*) FROM expenses
		WHERE business_id = $1
		  AND date_trunc('month', date) = make_date($2, $3, 1)`
	var count int
	err := r.q.QueryRow(context.Background(), query, businessID, year, int(month)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count expenses in month: %w", err)
	}
	return count, nil
}

// SumInMonth suma los gastos del mes (control del presupuesto del negocio).
func (r *ExpenseRepo) SumInMonth(businessID string, year int, month time.Month) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0) FROM expenses
		WHERE business_id = $1
		  AND date_trunc('month', date) = make_date($2, $3, 1)`
	var sum decimal.Decimal
	err := r.q.QueryRow(context.Background(), query, businessID, year, int(month)).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum expenses in month: %w", err)
	}
	return sum, nil
}
