package event

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// Kind identifica la variante del evento (conjunto cerrado).
type Kind string

const (
	MovementAppended     Kind = "MOVEMENT_APPENDED"
	MovementReversed     Kind = "MOVEMENT_REVERSED"
	ReservationCreated   Kind = "RESERVATION_CREATED"
	ReservationFulfilled Kind = "RESERVATION_FULFILLED"
	ReservationReleased  Kind = "RESERVATION_RELEASED"
	ReservationExpired   Kind = "RESERVATION_EXPIRED"
	TransferShipped      Kind = "TRANSFER_SHIPPED"
	TransferCompleted    Kind = "TRANSFER_COMPLETED"
	LotExpiring          Kind = "LOT_EXPIRING"
	LotExhausted         Kind = "LOT_EXHAUSTED"
	StockBelowMinimum    Kind = "STOCK_BELOW_MINIMUM"
	ReorderSuggested     Kind = "REORDER_SUGGESTED"
)

// Event es la variante etiquetada: Kind más los campos de payload que apliquen.
// Evita una jerarquía de tipos por evento; los suscriptores filtran por Kind.
type Event struct {
	Kind       Kind
	OccurredAt time.Time

	CellKey      entity.CellKey
	MovementID   string
	MovementType entity.MovementType
	Quantity     decimal.Decimal
	UnitCost     decimal.Decimal
	Available    decimal.Decimal

	ReservationID     string
	ReservationNumber string
	TransferID        string
	TransferNumber    string
	LotID             string
	LotNumber         string
	SuggestionID      string

	Reference string
}
