package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReorderRule define el umbral de reposición para un producto en una bodega.
type ReorderRule struct {
	ID              string
	ProductID       string
	WarehouseID     string
	MinimumStock    decimal.Decimal
	ReorderPoint    decimal.Decimal
	ReorderQuantity decimal.Decimal
	MaximumStock    decimal.Decimal
	IsActive        bool
	UpdatedAt       time.Time
}

// Estados de una sugerencia de reposición.
type SuggestionStatus string

const (
	SuggestionPending          SuggestionStatus = "PENDING"
	SuggestionApproved         SuggestionStatus = "APPROVED"
	SuggestionRejected         SuggestionStatus = "REJECTED"
	SuggestionConvertedToOrder SuggestionStatus = "CONVERTED_TO_ORDER"
	SuggestionCancelled        SuggestionStatus = "CANCELLED"
	SuggestionExpired          SuggestionStatus = "EXPIRED"
)

// ReorderSuggestion se genera cuando available <= reorderPoint.
// A lo sumo una sugerencia abierta por (producto, bodega): disparo idempotente.
type ReorderSuggestion struct {
	ID                 string
	ProductID          string
	WarehouseID        string
	SuggestedQuantity  decimal.Decimal
	AvailableAtTrigger decimal.Decimal
	DaysUntilStockout  int // estimado; -1 si no hay demanda histórica
	Status             SuggestionStatus
	PurchaseOrderRef   string // set al convertir a orden de compra
	CreatedAt          time.Time
	ResolvedAt         *time.Time
}

// Open reporta si la sugerencia sigue abierta (bloquea un nuevo disparo).
func (s *ReorderSuggestion) Open() bool {
	return s.Status == SuggestionPending || s.Status == SuggestionApproved
}
