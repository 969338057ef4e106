package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CellKey identifica una celda de stock: producto + bodega + ubicación,
// con lote y serial opcionales. Es comparable y se usa como llave de mapa.
type CellKey struct {
	ProductID   string
	WarehouseID string
	LocationID  string
	LotID       string
	SerialID    string
}

// String devuelve la forma canónica de la llave (para logs, errores y hashing de shard).
func (k CellKey) String() string {
	return strings.Join([]string{k.ProductID, k.WarehouseID, k.LocationID, k.LotID, k.SerialID}, "|")
}

// StockCell es el estado autoritativo de cantidades para una celda.
// Se crea con el primer movimiento que toca la llave; nunca se elimina, solo se lleva a cero.
// Mutada exclusivamente aplicando entradas del journal de movimientos.
type StockCell struct {
	Key          CellKey
	OnHand       decimal.Decimal // >= 0
	Reserved     decimal.Decimal // 0 <= Reserved <= OnHand
	InTransitOut decimal.Decimal
	InTransitIn  decimal.Decimal
	UpdatedAt    time.Time
}

// Available devuelve la cantidad que puede reservarse: OnHand - Reserved.
func (c *StockCell) Available() decimal.Decimal {
	return c.OnHand.Sub(c.Reserved)
}
