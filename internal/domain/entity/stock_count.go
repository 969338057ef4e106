package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un conteo físico / conteo cíclico.
type CountStatus string

const (
	CountDraft      CountStatus = "DRAFT"
	CountInProgress CountStatus = "IN_PROGRESS"
	CountCompleted  CountStatus = "COMPLETED"
	CountApproved   CountStatus = "APPROVED"
	CountRejected   CountStatus = "REJECTED"
	CountCancelled  CountStatus = "CANCELLED"
	CountAdjusted   CountStatus = "ADJUSTED"
)

// CountLine es una línea del conteo. SystemQuantity se congela al iniciar el
// conteo y no deriva aunque lleguen movimientos concurrentes sobre la celda.
type CountLine struct {
	CellKey         CellKey
	SystemQuantity  decimal.Decimal // snapshot al congelar
	CountedQuantity decimal.Decimal
	Variance        decimal.Decimal // Counted - System
	Counted         bool
	Recount         bool
	Notes           string
}

// StockCount congela un snapshot del sistema, lo compara contra el conteo
// físico y emite movimientos de corrección al procesarse.
type StockCount struct {
	ID            string
	CountNumber   string
	WarehouseID   string
	Scope         string // producto/categoría/bodega completa; vacío = toda la bodega
	Lines         []CountLine
	Status        CountStatus
	ScheduledDate *time.Time
	StartedAt     time.Time
	CompletedAt   *time.Time
	ApprovedAt    *time.Time
	ProcessedAt   *time.Time
	CreatedBy     string
	ApprovedBy    string
}
