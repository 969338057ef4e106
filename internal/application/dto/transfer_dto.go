package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// CreateTransferRequest body para POST /api/transfers.
type CreateTransferRequest struct {
	SourceWarehouseID      string                `json:"source_warehouse_id"`
	DestinationWarehouseID string                `json:"destination_warehouse_id"`
	Lines                  []TransferLineRequest `json:"lines"`
	Type                   string                `json:"type,omitempty"`
	Notes                  string                `json:"notes,omitempty"`
	ExpectedArrivalDate    *time.Time            `json:"expected_arrival_date,omitempty"`
}

// TransferLineRequest línea solicitada.
type TransferLineRequest struct {
	ProductID    string           `json:"product_id"`
	LotID        string           `json:"lot_id,omitempty"`
	UnitCost     *decimal.Decimal `json:"unit_cost,omitempty"`
	RequestedQty decimal.Decimal  `json:"requested_qty"`
}

// ShipTransferRequest body para POST /api/transfers/:id/ship.
// Sin líneas se despacha todo lo solicitado pendiente.
type ShipTransferRequest struct {
	Lines []ShipLineRequest `json:"lines,omitempty"`
}

// ShipLineRequest cantidad a despachar por producto.
type ShipLineRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// ReceiveTransferRequest body para POST /api/transfers/:id/receive.
type ReceiveTransferRequest struct {
	Lines []ReceiveLineRequest `json:"lines"`
}

// ReceiveLineRequest cantidades recibidas y dañadas por producto.
type ReceiveLineRequest struct {
	ProductID string          `json:"product_id"`
	Received  decimal.Decimal `json:"received"`
	Damaged   decimal.Decimal `json:"damaged,omitempty"`
}

// CompleteTransferRequest body para POST /api/transfers/:id/complete.
type CompleteTransferRequest struct {
	CloseShort bool `json:"close_short,omitempty"`
}

// CancelTransferRequest body para POST /api/transfers/:id/cancel.
type CancelTransferRequest struct {
	Reason string `json:"reason,omitempty"`
}

// TransferLineResponse estado de una línea.
type TransferLineResponse struct {
	ProductID     string          `json:"product_id"`
	LotID         string          `json:"lot_id,omitempty"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	RequestedQty  decimal.Decimal `json:"requested_qty"`
	ShippedQty    decimal.Decimal `json:"shipped_qty"`
	ReceivedQty   decimal.Decimal `json:"received_qty"`
	DamagedQty    decimal.Decimal `json:"damaged_qty"`
	ReservationID string          `json:"reservation_id,omitempty"`
	ClosedShort   bool            `json:"closed_short,omitempty"`
}

// TransferResponse estado de una transferencia.
type TransferResponse struct {
	ID                     string                 `json:"id"`
	TransferNumber         string                 `json:"transfer_number"`
	SourceWarehouseID      string                 `json:"source_warehouse_id"`
	DestinationWarehouseID string                 `json:"destination_warehouse_id"`
	Lines                  []TransferLineResponse `json:"lines"`
	Status                 string                 `json:"status"`
	Type                   string                 `json:"type"`
	Notes                  string                 `json:"notes,omitempty"`
	CancellationReason     string                 `json:"cancellation_reason,omitempty"`
	ExpectedArrivalDate    *time.Time             `json:"expected_arrival_date,omitempty"`
	CreatedAt              time.Time              `json:"created_at"`
	ApprovedAt             *time.Time             `json:"approved_at,omitempty"`
	ShippedAt              *time.Time             `json:"shipped_at,omitempty"`
	ReceivedAt             *time.Time             `json:"received_at,omitempty"`
	CompletedAt            *time.Time             `json:"completed_at,omitempty"`
	CancelledAt            *time.Time             `json:"cancelled_at,omitempty"`
}

// FromTransfer mapea la entidad al DTO.
func FromTransfer(t *entity.StockTransfer) TransferResponse {
	lines := make([]TransferLineResponse, 0, len(t.Lines))
	for _, l := range t.Lines {
		lines = append(lines, TransferLineResponse{
			ProductID:     l.ProductID,
			LotID:         l.LotID,
			UnitCost:      l.UnitCost,
			RequestedQty:  l.RequestedQty,
			ShippedQty:    l.ShippedQty,
			ReceivedQty:   l.ReceivedQty,
			DamagedQty:    l.DamagedQty,
			ReservationID: l.ReservationID,
			ClosedShort:   l.ClosedShort,
		})
	}
	return TransferResponse{
		ID:                     t.ID,
		TransferNumber:         t.TransferNumber,
		SourceWarehouseID:      t.SourceWarehouseID,
		DestinationWarehouseID: t.DestinationWarehouseID,
		Lines:                  lines,
		Status:                 string(t.Status),
		Type:                   string(t.Type),
		Notes:                  t.Notes,
		CancellationReason:     t.CancellationReason,
		ExpectedArrivalDate:    t.ExpectedArrivalDate,
		CreatedAt:              t.CreatedAt,
		ApprovedAt:             t.ApprovedAt,
		ShippedAt:              t.ShippedAt,
		ReceivedAt:             t.ReceivedAt,
		CompletedAt:            t.CompletedAt,
		CancelledAt:            t.CancelledAt,
	}
}
