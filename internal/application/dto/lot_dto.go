package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stock-ledger/internal/application/lot"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// ReceiveLotRequest body para POST /api/lots/receive.
type ReceiveLotRequest struct {
	LotNumber      string          `json:"lot_number"`
	ProductID      string          `json:"product_id"`
	WarehouseID    string          `json:"warehouse_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitCost       decimal.Decimal `json:"unit_cost,omitempty"`
	ExpiryDate     *time.Time      `json:"expiry_date,omitempty"`
	DocumentNumber string          `json:"document_number,omitempty"`
}

// LotResponse estado de un lote.
type LotResponse struct {
	ID                string          `json:"id"`
	LotNumber         string          `json:"lot_number"`
	ProductID         string          `json:"product_id"`
	WarehouseID       string          `json:"warehouse_id"`
	ReceivedQuantity  decimal.Decimal `json:"received_quantity"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty"`
	Status            string          `json:"status"`
	ReceivedAt        time.Time       `json:"received_at"`
}

// FromLot mapea la entidad al DTO.
func FromLot(l *entity.LotBatch) LotResponse {
	return LotResponse{
		ID:                l.ID,
		LotNumber:         l.LotNumber,
		ProductID:         l.ProductID,
		WarehouseID:       l.WarehouseID,
		ReceivedQuantity:  l.ReceivedQuantity,
		RemainingQuantity: l.RemainingQuantity,
		ExpiryDate:        l.ExpiryDate,
		Status:            string(l.Status),
		ReceivedAt:        l.ReceivedAt,
	}
}

// ConsumeLotRequest body para POST /api/lots/{id}/consume.
type ConsumeLotRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// AllocateRequest body para POST /api/lots/allocate (propuesta FEFO).
type AllocateRequest struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// AllocationResponse una porción de la propuesta FEFO.
type AllocationResponse struct {
	LotID     string          `json:"lot_id"`
	LotNumber string          `json:"lot_number"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// FromAllocations mapea la propuesta al DTO.
func FromAllocations(allocs []lot.Allocation) []AllocationResponse {
	out := make([]AllocationResponse, 0, len(allocs))
	for _, a := range allocs {
		out = append(out, AllocationResponse{LotID: a.LotID, LotNumber: a.LotNumber, Quantity: a.Quantity})
	}
	return out
}

// RegisterSerialRequest body para POST /api/serials.
type RegisterSerialRequest struct {
	Serial      string `json:"serial"`
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	LotID       string `json:"lot_id,omitempty"`
}

// TransitionSerialRequest body para POST /api/serials/:id/transition.
type TransitionSerialRequest struct {
	Status string `json:"status"`
}

// SerialResponse estado de una unidad serializada.
type SerialResponse struct {
	ID          string    `json:"id"`
	Serial      string    `json:"serial"`
	ProductID   string    `json:"product_id"`
	WarehouseID string    `json:"warehouse_id"`
	LotID       string    `json:"lot_id,omitempty"`
	Status      string    `json:"status"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FromSerial mapea la entidad al DTO.
func FromSerial(s *entity.SerialNumber) SerialResponse {
	return SerialResponse{
		ID:          s.ID,
		Serial:      s.Serial,
		ProductID:   s.ProductID,
		WarehouseID: s.WarehouseID,
		LotID:       s.LotID,
		Status:      string(s.Status),
		UpdatedAt:   s.UpdatedAt,
	}
}
