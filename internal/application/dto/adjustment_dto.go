package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// CreateAdjustmentRequest body para POST /api/adjustments.
type CreateAdjustmentRequest struct {
	WarehouseID string                  `json:"warehouse_id"`
	Lines       []AdjustmentLineRequest `json:"lines"`
	Notes       string                  `json:"notes,omitempty"`
}

// AdjustmentLineRequest línea del ajuste.
type AdjustmentLineRequest struct {
	Cell          CellKeyDTO      `json:"cell"`
	DeltaQuantity decimal.Decimal `json:"delta_quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost,omitempty"`
	Reason        string          `json:"reason,omitempty"`
}

// AdjustmentLineResponse línea del ajuste.
type AdjustmentLineResponse struct {
	Cell          CellKeyDTO      `json:"cell"`
	DeltaQuantity decimal.Decimal `json:"delta_quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	Reason        string          `json:"reason,omitempty"`
}

// AdjustmentResponse estado de un ajuste de inventario.
type AdjustmentResponse struct {
	ID               string                   `json:"id"`
	AdjustmentNumber string                   `json:"adjustment_number"`
	WarehouseID      string                   `json:"warehouse_id"`
	Lines            []AdjustmentLineResponse `json:"lines"`
	Status           string                   `json:"status"`
	Notes            string                   `json:"notes,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
	ApprovedAt       *time.Time               `json:"approved_at,omitempty"`
	ProcessedAt      *time.Time               `json:"processed_at,omitempty"`
}

// FromAdjustment mapea la entidad al DTO.
func FromAdjustment(a *entity.InventoryAdjustment) AdjustmentResponse {
	lines := make([]AdjustmentLineResponse, 0, len(a.Lines))
	for _, l := range a.Lines {
		lines = append(lines, AdjustmentLineResponse{
			Cell:          FromKey(l.CellKey),
			DeltaQuantity: l.DeltaQuantity,
			UnitCost:      l.UnitCost,
			Reason:        l.Reason,
		})
	}
	return AdjustmentResponse{
		ID:               a.ID,
		AdjustmentNumber: a.AdjustmentNumber,
		WarehouseID:      a.WarehouseID,
		Lines:            lines,
		Status:           string(a.Status),
		Notes:            a.Notes,
		CreatedAt:        a.CreatedAt,
		ApprovedAt:       a.ApprovedAt,
		ProcessedAt:      a.ProcessedAt,
	}
}
