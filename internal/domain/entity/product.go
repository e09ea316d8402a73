package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unidades de medida.
const (
	UnitPiece   = "pcs"
	UnitKg      = "kg"
	UnitMeter   = "m"
	UnitLiter   = "l"
	UnitService = "service"
)

// Product representa un producto o servicio del catálogo de un negocio.
// StockQuantity y MinStockLevel nunca son negativos.
type Product struct {
	ID            string
	BusinessID    string
	Name          string
	Description   string
	SKU           string // único por negocio
	BasePrice     decimal.Decimal
	Unit          string // pcs, kg, m, l, service
	StockQuantity decimal.Decimal
	MinStockLevel decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// LowStock indica si el stock cayó al nivel mínimo o por debajo.
func (p *Product) LowStock() bool {
	return p.StockQuantity.LessThanOrEqual(p.MinStockLevel)
}
