package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// CellKeyDTO identifica la celda de stock en requests y respuestas.
type CellKeyDTO struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	LocationID  string `json:"location_id,omitempty"`
	LotID       string `json:"lot_id,omitempty"`
	SerialID    string `json:"serial_id,omitempty"`
}

// ToKey convierte el DTO a la clave de dominio.
func (k CellKeyDTO) ToKey() entity.CellKey {
	return entity.CellKey{
		ProductID:   k.ProductID,
		WarehouseID: k.WarehouseID,
		LocationID:  k.LocationID,
		LotID:       k.LotID,
		SerialID:    k.SerialID,
	}
}

// FromKey convierte la clave de dominio al DTO.
func FromKey(key entity.CellKey) CellKeyDTO {
	return CellKeyDTO{
		ProductID:   key.ProductID,
		WarehouseID: key.WarehouseID,
		LocationID:  key.LocationID,
		LotID:       key.LotID,
		SerialID:    key.SerialID,
	}
}

// AppendMovementRequest body para POST /api/movements.
type AppendMovementRequest struct {
	DocumentNumber string           `json:"document_number"`
	Cell           CellKeyDTO       `json:"cell"`
	Type           string           `json:"type"`
	Quantity       decimal.Decimal  `json:"quantity"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
	Reason         string           `json:"reason,omitempty"`
}

// ReverseMovementRequest body para POST /api/movements/:id/reverse.
type ReverseMovementRequest struct {
	Reason string `json:"reason"`
}

// MovementResponse representa una entrada del journal.
type MovementResponse struct {
	ID                 string          `json:"id"`
	DocumentNumber     string          `json:"document_number"`
	Timestamp          time.Time       `json:"timestamp"`
	Cell               CellKeyDTO      `json:"cell"`
	Type               string          `json:"type"`
	SignedQuantity     decimal.Decimal `json:"signed_quantity"`
	UnitCost           decimal.Decimal `json:"unit_cost"`
	TotalCostImpact    decimal.Decimal `json:"total_cost_impact"`
	ReversesMovementID string          `json:"reverses_movement_id,omitempty"`
	Reason             string          `json:"reason,omitempty"`
	CreatedBy          string          `json:"created_by,omitempty"`
}

// FromMovement mapea la entidad al DTO.
func FromMovement(m *entity.MovementEntry) MovementResponse {
	return MovementResponse{
		ID:                 m.ID,
		DocumentNumber:     m.DocumentNumber,
		Timestamp:          m.Timestamp,
		Cell:               FromKey(m.CellKey),
		Type:               string(m.Type),
		SignedQuantity:     m.SignedQuantity,
		UnitCost:           m.UnitCost,
		TotalCostImpact:    m.TotalCostImpact,
		ReversesMovementID: m.ReversesMovementID,
		Reason:             m.Reason,
		CreatedBy:          m.CreatedBy,
	}
}

// StockCellResponse estado actual de una celda.
type StockCellResponse struct {
	Cell         CellKeyDTO      `json:"cell"`
	OnHand       decimal.Decimal `json:"on_hand"`
	Reserved     decimal.Decimal `json:"reserved"`
	Available    decimal.Decimal `json:"available"`
	InTransitOut decimal.Decimal `json:"in_transit_out"`
	InTransitIn  decimal.Decimal `json:"in_transit_in"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// FromCell mapea la celda al DTO.
func FromCell(c *entity.StockCell) StockCellResponse {
	return StockCellResponse{
		Cell:         FromKey(c.Key),
		OnHand:       c.OnHand,
		Reserved:     c.Reserved,
		Available:    c.Available(),
		InTransitOut: c.InTransitOut,
		InTransitIn:  c.InTransitIn,
		UpdatedAt:    c.UpdatedAt,
	}
}

// AvailableResponse respuesta de GET /api/stock/available.
type AvailableResponse struct {
	Cell      CellKeyDTO      `json:"cell"`
	Available decimal.Decimal `json:"available"`
}
