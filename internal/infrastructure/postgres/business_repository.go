package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/invoiceaz/billing-api/internal/domain"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
	"github.com/invoiceaz/billing-api/internal/domain/repository"
)

var _ repository.BusinessRepository = (*BusinessRepo)(nil)

// BusinessRepo implementación de BusinessRepository (usable con pool o tx).
type BusinessRepo struct {
	q Querier
}

// NewBusinessRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBusinessRepository(q Querier) *BusinessRepo {
	return &BusinessRepo{q: q}
}

const businessColumns = `id, name, tax_id, address, city, phone, email, website,
	bank_name, iban, swift, budget_limit, default_currency, default_theme,
	is_active, created_at, updated_at`

// Create persiste un nuevo negocio.
func (r *BusinessRepo) Create(b *entity.Business) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	query := `
		INSERT INTO businesses (` + businessColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(context.Background(), query,
		b.ID, b.Name, b.TaxID, b.Address, b.City, b.Phone, b.Email, b.Website,
		b.BankName, b.IBAN, b.Swift, b.BudgetLimit, b.DefaultCurrency, b.DefaultTheme,
		b.IsActive, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert business: %w", err)
	}
	return nil
}

// Update actualiza un negocio.
func (r *BusinessRepo) Update(b *entity.Business) error {
	query := `
		UPDATE businesses
		SET name = $2, tax_id = $3, address = $4, city = $5, phone = $6, email = $7,
		    website = $8, bank_name = $9, iban = $10, swift = $11, budget_limit = $12,
		    default_currency = $13, default_theme = $14, is_active = $15, updated_at = $16
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		b.ID, b.Name, b.TaxID, b.Address, b.City, b.Phone, b.Email, b.Website,
		b.BankName, b.IBAN, b.Swift, b.BudgetLimit, b.DefaultCurrency, b.DefaultTheme,
		b.IsActive, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update business: %w", err)
	}
	return nil
}

// Delete elimina el negocio; las FK ON DELETE CASCADE arrastran
// membresías, clientes, productos, facturas, pagos, gastos y eventos.
func (r *BusinessRepo) Delete(id string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM businesses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete business: %w", err)
	}
	return nil
}

// GetByID obtiene un negocio por ID.
func (r *BusinessRepo) GetByID(id string) (*entity.Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE id = $1`
	var b entity.Business
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&b.ID, &b.Name, &b.TaxID, &b.Address, &b.City, &b.Phone, &b.Email, &b.Website,
		&b.BankName, &b.IBAN, &b.Swift, &b.BudgetLimit, &b.DefaultCurrency, &b.DefaultTheme,
		&b.IsActive, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get business: %w", err)
	}
	return &b, nil
}

// ListByUser devuelve los negocios donde el usuario tiene una membresía.
func (r *BusinessRepo) ListByUser(userID string) ([]*entity.Business, error) {
	query := `
		SELECT b.id, b.name, b.tax_id, b.address, b.city, b.phone, b.email, b.website,
		       b.bank_name, b.iban, b.swift, b.budget_limit, b.default_currency, b.default_theme,
		       b.is_active, b.created_at, b.updated_at
		FROM businesses b
		JOIN memberships m ON m.business_id = b.id
		WHERE m.user_id = $1
		ORDER BY b.created_at`
	rows, err := r.q.Query(context.Background(), query, userID)
	if err != nil {
		return nil, fmt.Errorf("list businesses by user: %w", err)
	}
	defer rows.Close()
	var list []*entity.Business
	for rows.Next() {
		var b entity.Business
		if err := rows.Scan(
			&b.ID, &b.Name, &b.TaxID, &b.Address, &b.City, &b.Phone, &b.Email, &b.Website,
			&b.BankName, &b.IBAN, &b.Swift, &b.BudgetLimit, &b.DefaultCurrency, &b.DefaultTheme,
			&b.IsActive, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan business: %w", err)
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}

// CountOwnedBy cuenta los negocios cuyo OWNER es el usuario (límite de plan).
func (r *BusinessRepo) CountOwnedBy(userID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM memberships
		WHERE user_id = $1 AND role = 'OWNER'`
	var count int
	if err := r.q.QueryRow(context.Background(), query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count owned businesses: %w", err)
	}
	return count, nil
}
