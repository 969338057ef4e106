package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	SKU             string `json:"sku" validate:"required,min=1,max=100"`
	Name            string `json:"name" validate:"required,min=1,max=200"`
	UnitMeasure     string `json:"unit_measure"`
	IsLotTracked    bool   `json:"is_lot_tracked"`
	IsSerialTracked bool   `json:"is_serial_tracked"`
}

// UpdateProductRequest entrada para actualizar un producto (sin Cost ni trazabilidad).
type UpdateProductRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	UnitMeasure *string `json:"unit_measure"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID              string          `json:"id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	Cost            decimal.Decimal `json:"cost"`
	UnitMeasure     string          `json:"unit_measure"`
	IsLotTracked    bool            `json:"is_lot_tracked"`
	IsSerialTracked bool            `json:"is_serial_tracked"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
