package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// CreateReservationRequest body para POST /api/reservations.
type CreateReservationRequest struct {
	Cell                    CellKeyDTO      `json:"cell"`
	Quantity                decimal.Decimal `json:"quantity"`
	Type                    string          `json:"type,omitempty"`
	ReferenceDocumentType   string          `json:"reference_document_type,omitempty"`
	ReferenceDocumentNumber string          `json:"reference_document_number,omitempty"`
	TTLSeconds              int             `json:"ttl_seconds,omitempty"`
	FEFO                    bool            `json:"fefo,omitempty"`
	Notes                   string          `json:"notes,omitempty"`
}

// FulfillReservationRequest body para POST /api/reservations/:id/fulfill.
type FulfillReservationRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost,omitempty"`
}

// ReservationResponse estado de una reserva.
type ReservationResponse struct {
	ID                      string          `json:"id"`
	ReservationNumber       string          `json:"reservation_number"`
	Cell                    CellKeyDTO      `json:"cell"`
	RequestedQuantity       decimal.Decimal `json:"requested_quantity"`
	FulfilledQuantity       decimal.Decimal `json:"fulfilled_quantity"`
	Remaining               decimal.Decimal `json:"remaining"`
	Status                  string          `json:"status"`
	Type                    string          `json:"type,omitempty"`
	ReferenceDocumentType   string          `json:"reference_document_type,omitempty"`
	ReferenceDocumentNumber string          `json:"reference_document_number,omitempty"`
	ReservedAt              time.Time       `json:"reserved_at"`
	ExpirationDate          *time.Time      `json:"expiration_date,omitempty"`
	FulfilledAt             *time.Time      `json:"fulfilled_at,omitempty"`
	Notes                   string          `json:"notes,omitempty"`
}

// FromReservation mapea la entidad al DTO.
func FromReservation(r *entity.StockReservation) ReservationResponse {
	return ReservationResponse{
		ID:                      r.ID,
		ReservationNumber:       r.ReservationNumber,
		Cell:                    FromKey(r.CellKey),
		RequestedQuantity:       r.RequestedQuantity,
		FulfilledQuantity:       r.FulfilledQuantity,
		Remaining:               r.Remaining(),
		Status:                  string(r.Status),
		Type:                    string(r.Type),
		ReferenceDocumentType:   r.ReferenceDocumentType,
		ReferenceDocumentNumber: r.ReferenceDocumentNumber,
		ReservedAt:              r.ReservedAt,
		ExpirationDate:          r.ExpirationDate,
		FulfilledAt:             r.FulfilledAt,
		Notes:                   r.Notes,
	}
}
