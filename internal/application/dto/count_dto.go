package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// StartCountRequest body para POST /api/counts.
type StartCountRequest struct {
	WarehouseID string `json:"warehouse_id"`
	Scope       string `json:"scope,omitempty"` // product_id; vacío = toda la bodega
}

// RecordCountRequest body para POST /api/counts/:id/lines.
type RecordCountRequest struct {
	Cell            CellKeyDTO      `json:"cell"`
	CountedQuantity decimal.Decimal `json:"counted_quantity"`
}

// CountLineResponse línea del conteo.
type CountLineResponse struct {
	Cell            CellKeyDTO      `json:"cell"`
	SystemQuantity  decimal.Decimal `json:"system_quantity"`
	CountedQuantity decimal.Decimal `json:"counted_quantity"`
	Variance        decimal.Decimal `json:"variance"`
	Counted         bool            `json:"counted"`
	Recount         bool            `json:"recount,omitempty"`
}

// CountResponse estado de un conteo físico.
type CountResponse struct {
	ID          string              `json:"id"`
	CountNumber string              `json:"count_number"`
	WarehouseID string              `json:"warehouse_id"`
	Scope       string              `json:"scope,omitempty"`
	Lines       []CountLineResponse `json:"lines"`
	Status      string              `json:"status"`
	StartedAt   time.Time           `json:"started_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	ApprovedAt  *time.Time          `json:"approved_at,omitempty"`
	ProcessedAt *time.Time          `json:"processed_at,omitempty"`
}

// FromCount mapea la entidad al DTO.
func FromCount(sc *entity.StockCount) CountResponse {
	lines := make([]CountLineResponse, 0, len(sc.Lines))
	for _, l := range sc.Lines {
		lines = append(lines, CountLineResponse{
			Cell:            FromKey(l.CellKey),
			SystemQuantity:  l.SystemQuantity,
			CountedQuantity: l.CountedQuantity,
			Variance:        l.Variance,
			Counted:         l.Counted,
			Recount:         l.Recount,
		})
	}
	return CountResponse{
		ID:          sc.ID,
		CountNumber: sc.CountNumber,
		WarehouseID: sc.WarehouseID,
		Scope:       sc.Scope,
		Lines:       lines,
		Status:      string(sc.Status),
		StartedAt:   sc.StartedAt,
		CompletedAt: sc.CompletedAt,
		ApprovedAt:  sc.ApprovedAt,
		ProcessedAt: sc.ProcessedAt,
	}
}
