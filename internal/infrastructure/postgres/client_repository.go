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

var _ repository.ClientRepository = (*ClientRepo)(nil)

// ClientRepo implementación de ClientRepository (usable con pool o tx).
type ClientRepo struct {
	q Querier
}

// NewClientRepository construye el adaptador. Pasar pool o tx (Querier).
func NewClientRepository(q Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

const clientColumns = `id, business_id, name, client_type, contact_person, email, phone,
	tax_id, address, notes, assigned_to, created_at, updated_at`

func scanClient(row pgx.Row) (*entity.Client, error) {
	var c entity.Client
	var assignedTo *string
	err := row.Scan(
		&c.ID, &c.BusinessID, &c.Name, &c.ClientType, &c.ContactPerson, &c.Email, &c.Phone,
		&c.TaxID, &c.Address, &c.Notes, &assignedTo, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if assignedTo != nil {
		c.AssignedTo = *assignedTo
	}
	return &c, nil
}

// Create persiste un nuevo cliente.
func (r *ClientRepo) Create(c *entity.Client) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(context.Background(), query,
		c.ID, c.BusinessID, c.Name, c.ClientType, c.ContactPerson, c.Email, c.Phone,
		c.TaxID, c.Address, c.Notes, nullIfEmpty(c.AssignedTo), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

// Update actualiza un cliente.
func (r *ClientRepo) Update(c *entity.Client) error {
	query := `
		UPDATE clients
		SET name = $2, client_type = $3, contact_person = $4, email = $5, phone = $6,
		    tax_id = $7, address = $8, notes = $9, assigned_to = $10, updated_at = $11
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		c.ID, c.Name, c.ClientType, c.ContactPerson, c.Email, c.Phone,
		c.TaxID, c.Address, c.Notes, nullIfEmpty(c.AssignedTo), c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return nil
}

// Delete elimina un cliente por ID.
func (r *ClientRepo) Delete(id string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return nil
}

// GetByID obtiene un cliente por ID.
func (r *ClientRepo) GetByID(id string) (*entity.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	c, err := scanClient(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

// ListByBusiness lista los clientes del negocio con paginación.
func (r *ClientRepo) ListByBusiness(businessID string, limit, offset int) ([]*entity.Client, error) {
	query := `
		SELECT ` + clientColumns + `
		FROM clients WHERE business_id = $1 ORDER BY name LIMIT $2 OFFSET $3`
	return r.queryClients(query, businessID, limit, offset)
}

// ListAssigned devuelve solo los clientes asignados a la membresía (SALES_REP).
func (r *ClientRepo) ListAssigned(businessID, membershipID string, limit, offset int) ([]*entity.Client, error) {
	query := `
		SELECT ` + clientColumns + `
		FROM clients WHERE business_id = $1 AND assigned_to = $2 ORDER BY name LIMIT $3 OFFSET $4`
	return r.queryClients(query, businessID, membershipID, limit, offset)
}

func (r *ClientRepo) queryClients(query string, args ...any) ([]*entity.Client, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()
	var list []*entity.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// CountByOwner cuenta los clientes de todos los negocios del usuario (límite de plan).
func (r *ClientRepo) CountByOwner(userID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM clients c
		JOIN memberships m ON m.business_id = c.business_id
		WHERE m.user_id = $1 AND m.role = 'OWNER'`
	var count int
	if err := r.q.QueryRow(context.Background(), query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count clients by owner: %w", err)
	}
	return count, nil
}
