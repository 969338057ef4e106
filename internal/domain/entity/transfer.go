package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una transferencia entre bodegas (saga Draft→...→Completed).
type TransferStatus string

const (
	TransferDraft           TransferStatus = "DRAFT"
	TransferPendingApproval TransferStatus = "PENDING_APPROVAL"
	TransferApproved        TransferStatus = "APPROVED"
	TransferShipped         TransferStatus = "SHIPPED"
	TransferReceived        TransferStatus = "RECEIVED"
	TransferCompleted       TransferStatus = "COMPLETED"
	TransferCancelled       TransferStatus = "CANCELLED"
)

// Tipos de transferencia.
type TransferType string

const (
	TransferStandard  TransferType = "STANDARD"
	TransferUrgent    TransferType = "URGENT"
	TransferRebalance TransferType = "REBALANCE"
)

// TransferLine es una línea de la transferencia.
// Invariantes: Shipped <= Requested; Received + Damaged <= Shipped.
type TransferLine struct {
	ProductID     string
	LotID         string // lote pineado, opcional
	UnitCost      decimal.Decimal
	RequestedQty  decimal.Decimal
	ShippedQty    decimal.Decimal
	ReceivedQty   decimal.Decimal
	DamagedQty    decimal.Decimal // merma registrada en la línea, no entra a destino
	ReservationID string          // reserva en origen creada al aprobar
	ClosedShort   bool            // cerrada corta explícitamente al completar
}

// Remaining devuelve lo despachado aún no recibido ni dañado.
func (l *TransferLine) Remaining() decimal.Decimal {
	return l.ShippedQty.Sub(l.ReceivedQty).Sub(l.DamagedQty)
}

// StockTransfer mueve stock de una bodega origen a una destino.
// No es atómica entre origen y destino: progresa por estados con compensaciones.
type StockTransfer struct {
	ID                     string
	TransferNumber         string
	SourceWarehouseID      string
	DestinationWarehouseID string
	Lines                  []TransferLine
	Status                 TransferStatus
	Type                   TransferType
	Notes                  string
	CancellationReason     string
	ExpectedArrivalDate    *time.Time
	CreatedAt              time.Time
	ApprovedAt             *time.Time
	ShippedAt              *time.Time
	ReceivedAt             *time.Time
	CompletedAt            *time.Time
	CancelledAt            *time.Time
	CreatedBy              string
}
