package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un ajuste de inventario.
type AdjustmentStatus string

const (
	AdjustmentDraft           AdjustmentStatus = "DRAFT"
	AdjustmentPendingApproval AdjustmentStatus = "PENDING_APPROVAL"
	AdjustmentApproved        AdjustmentStatus = "APPROVED"
	AdjustmentProcessed       AdjustmentStatus = "PROCESSED"
	AdjustmentRejected        AdjustmentStatus = "REJECTED"
	AdjustmentCancelled       AdjustmentStatus = "CANCELLED"
)

// AdjustmentLine es una línea del ajuste: delta firmado sobre una celda.
type AdjustmentLine struct {
	CellKey       CellKey
	DeltaQuantity decimal.Decimal // positivo incrementa, negativo decrementa
	UnitCost      decimal.Decimal
	Reason        string
}

// InventoryAdjustment corrige cantidades fuera del flujo operativo normal
// (mermas, hallazgos, daños). Procesarlo postea un movimiento por línea.
type InventoryAdjustment struct {
	ID               string
	AdjustmentNumber string
	WarehouseID      string
	Lines            []AdjustmentLine
	Status           AdjustmentStatus
	Notes            string
	CreatedAt        time.Time
	ApprovedAt       *time.Time
	ProcessedAt      *time.Time
	CreatedBy        string
	ApprovedBy       string
}
