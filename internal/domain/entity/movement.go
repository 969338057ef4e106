package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType clasifica los hechos que cambian cantidades (conjunto cerrado).
type MovementType string

const (
	MovementPurchase           MovementType = "PURCHASE"
	MovementSalesIssue         MovementType = "SALES_ISSUE"
	MovementSalesReturn        MovementType = "SALES_RETURN"
	MovementTransferOut        MovementType = "TRANSFER_OUT"
	MovementTransferIn         MovementType = "TRANSFER_IN"
	MovementAdjustmentIncrease MovementType = "ADJUSTMENT_INCREASE"
	MovementAdjustmentDecrease MovementType = "ADJUSTMENT_DECREASE"
	MovementOpening            MovementType = "OPENING"
	MovementFound              MovementType = "FOUND"
	MovementLost               MovementType = "LOST"
	MovementReversal           MovementType = "REVERSAL"
)

// ValidMovementType reporta si t pertenece al conjunto cerrado de tipos.
func ValidMovementType(t MovementType) bool {
	switch t {
	case MovementPurchase, MovementSalesIssue, MovementSalesReturn,
		MovementTransferOut, MovementTransferIn,
		MovementAdjustmentIncrease, MovementAdjustmentDecrease,
		MovementOpening, MovementFound, MovementLost, MovementReversal:
		return true
	}
	return false
}

// ConsumesReserved reporta si el tipo descuenta la cantidad reservada junto con onHand
// (salida a ventas o despacho de transferencia: la reserva se consume, no se libera).
func (t MovementType) ConsumesReserved() bool {
	return t == MovementSalesIssue || t == MovementTransferOut
}

// AffectsAverageCost reporta si el tipo recalcula el costo promedio ponderado
// del producto: entradas que traen mercancía valorada desde afuera de la bodega.
func (t MovementType) AffectsAverageCost() bool {
	return t == MovementPurchase || t == MovementTransferIn
}

// MovementEntry es un hecho inmutable del journal. Nunca se actualiza ni se borra;
// una corrección es una nueva entrada con ReversesMovementID, jamás una edición.
type MovementEntry struct {
	ID                 string
	DocumentNumber     string // único por tipo; llave de idempotencia para replays
	Timestamp          time.Time
	CellKey            CellKey
	Type               MovementType
	SignedQuantity     decimal.Decimal // positivo entra, negativo sale
	UnitCost           decimal.Decimal
	TotalCostImpact    decimal.Decimal
	ReversesMovementID string
	Reason             string
	CreatedBy          string
}
