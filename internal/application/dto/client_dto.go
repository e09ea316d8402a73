package dto

import "time"

// CreateClientRequest alta de cliente.
type CreateClientRequest struct {
	Name          string `json:"name"`
	ClientType    string `json:"client_type"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	TaxID         string `json:"tax_id"`
	Address       string `json:"address"`
	Notes         string `json:"notes"`
	AssignedTo    string `json:"assigned_to"` // membership ID del vendedor
}

// UpdateClientRequest edición de cliente.
type UpdateClientRequest struct {
	Name          *string `json:"name"`
	ClientType    *string `json:"client_type"`
	ContactPerson *string `json:"contact_person"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	TaxID         *string `json:"tax_id"`
	Address       *string `json:"address"`
	Notes         *string `json:"notes"`
	AssignedTo    *string `json:"assigned_to"`
}

// ClientResponse representación de un cliente.
type ClientResponse struct {
	ID            string    `json:"id"`
	BusinessID    string    `json:"business_id"`
	Name          string    `json:"name"`
	ClientType    string    `json:"client_type"`
	ContactPerson string    `json:"contact_person,omitempty"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	TaxID         string    `json:"tax_id,omitempty"`
	Address       string    `json:"address,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	AssignedTo    string    `json:"assigned_to,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
