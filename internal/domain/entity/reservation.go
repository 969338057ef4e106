package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una reserva de stock.
type ReservationStatus string

const (
	ReservationActive             ReservationStatus = "ACTIVE"
	ReservationPartiallyFulfilled ReservationStatus = "PARTIALLY_FULFILLED"
	ReservationFulfilled          ReservationStatus = "FULFILLED"
	ReservationCancelled          ReservationStatus = "CANCELLED"
	ReservationExpired            ReservationStatus = "EXPIRED"
)

// Tipos de reserva según el documento de demanda que la origina.
type ReservationType string

const (
	ReservationSalesOrder ReservationType = "SALES_ORDER"
	ReservationTransfer   ReservationType = "TRANSFER"
	ReservationProduction ReservationType = "PRODUCTION"
	ReservationManual     ReservationType = "MANUAL"
)

// StockReservation asigna blandamente disponible a un documento de demanda
// sin mover onHand: solo estrecha la disponibilidad de la celda.
// Invariante por celda: suma de remanentes ACTIVE+PARTIALLY_FULFILLED <= cell.Reserved.
type StockReservation struct {
	ID                      string
	ReservationNumber       string
	CellKey                 CellKey
	RequestedQuantity       decimal.Decimal
	FulfilledQuantity       decimal.Decimal // 0 <= Fulfilled <= Requested
	Status                  ReservationStatus
	Type                    ReservationType
	ReferenceDocumentType   string
	ReferenceDocumentNumber string
	ReservedAt              time.Time
	ExpirationDate          *time.Time
	FulfilledAt             *time.Time
	CancelledAt             *time.Time
	Notes                   string
	CreatedBy               string
}

// Remaining devuelve la cantidad aún no despachada de la reserva.
func (r *StockReservation) Remaining() decimal.Decimal {
	return r.RequestedQuantity.Sub(r.FulfilledQuantity)
}

// Open reporta si la reserva todavía retiene disponible.
func (r *StockReservation) Open() bool {
	return r.Status == ReservationActive || r.Status == ReservationPartiallyFulfilled
}

// ExpiredAt reporta si la reserva está vencida en el instante dado.
func (r *StockReservation) ExpiredAt(now time.Time) bool {
	return r.ExpirationDate != nil && now.After(*r.ExpirationDate)
}
