package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest alta de producto.
type CreateProductRequest struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	SKU           string          `json:"sku"`
	BasePrice     decimal.Decimal `json:"base_price"`
	Unit          string          `json:"unit"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	MinStockLevel decimal.Decimal `json:"min_stock_level"`
}

// UpdateProductRequest edición de producto. Editar precio/descripción no
// altera líneas de factura existentes (quedaron copiadas al agregarlas).
type UpdateProductRequest struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	SKU           *string          `json:"sku"`
	BasePrice     *decimal.Decimal `json:"base_price"`
	Unit          *string          `json:"unit"`
	StockQuantity *decimal.Decimal `json:"stock_quantity"`
	MinStockLevel *decimal.Decimal `json:"min_stock_level"`
}

// ProductResponse representación de un producto.
type ProductResponse struct {
	ID            string          `json:"id"`
	BusinessID    string          `json:"business_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	SKU           string          `json:"sku,omitempty"`
	BasePrice     decimal.Decimal `json:"base_price"`
	Unit          string          `json:"unit"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	MinStockLevel decimal.Decimal `json:"min_stock_level"`
	LowStock      bool            `json:"low_stock"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
