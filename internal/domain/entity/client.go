package entity

import "time"

// Tipos de cliente.
const (
	ClientTypeIndividual = "individual"
	ClientTypeCompany    = "company"
)

// Client representa un cliente facturable de un negocio.
// AssignedTo (opcional) referencia la membresía del vendedor responsable;
// los SALES_REP solo ven y usan los clientes que tienen asignados.
type Client struct {
	ID            string
	BusinessID    string
	Name          string
	ClientType    string // individual, company
	ContactPerson string
	Email         string
	Phone         string
	TaxID         string // VOEN
	Address       string
	Notes         string
	AssignedTo    string // membership ID del vendedor; vacío = sin asignar
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
