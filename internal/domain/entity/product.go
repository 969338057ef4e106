package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del catálogo (multi-bodega).
// El catálogo lo administra el colaborador externo; el ledger solo necesita
// el costo promedio y las banderas de trazabilidad por lote/serial.
type Product struct {
	ID              string
	SKU             string // código único
	Name            string
	Cost            decimal.Decimal // costo promedio ponderado (inicia en 0)
	UnitMeasure     string
	IsLotTracked    bool // asignación FEFO por lote
	IsSerialTracked bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
