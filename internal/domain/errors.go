package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// InsufficientAvailableError indica que una reserva o despacho excede el disponible.
// Recuperable: el caller puede reintentar con menor cantidad o esperar reposición.
type InsufficientAvailableError struct {
	Cell      string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientAvailableError) Error() string {
	return fmt.Sprintf("disponible insuficiente en %s: solicitado %s, disponible %s",
		e.Cell, e.Requested, e.Available)
}

// NegativeStockError indica que un movimiento dejaría el onHand por debajo de cero.
// El movimiento se rechaza completo, nunca se recorta la cantidad.
type NegativeStockError struct {
	Cell   string
	OnHand decimal.Decimal
	Delta  decimal.Decimal
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("el movimiento dejaría stock negativo en %s: onHand %s, delta %s",
		e.Cell, e.OnHand, e.Delta)
}

// InvalidStateTransitionError indica una transición de estado no permitida
// en Transfer, LotBatch, Reservation, Count o SerialNumber.
type InvalidStateTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("transición inválida en %s: %s → %s", e.Entity, e.From, e.To)
}

// DuplicateDocumentError indica un documentNumber ya usado para ese tipo de movimiento.
// Se trata como replay exitoso: MovementID contiene el id del movimiento original.
type DuplicateDocumentError struct {
	DocumentNumber string
	MovementID     string
}

func (e *DuplicateDocumentError) Error() string {
	return fmt.Sprintf("documento %s ya registrado (movimiento %s)", e.DocumentNumber, e.MovementID)
}

// AlreadyReversedError indica que el movimiento ya tiene una reversión registrada.
type AlreadyReversedError struct {
	MovementID string
	ReversalID string
}

func (e *AlreadyReversedError) Error() string {
	return fmt.Sprintf("movimiento %s ya revertido por %s", e.MovementID, e.ReversalID)
}

// LotNotEligibleError indica una reserva/asignación contra un lote no aprobado.
type LotNotEligibleError struct {
	LotNumber string
	Status    string
}

func (e *LotNotEligibleError) Error() string {
	return fmt.Sprintf("lote %s no elegible para asignación (estado %s)", e.LotNumber, e.Status)
}

// ReservationExpiredError indica una operación sobre una reserva ya expirada.
type ReservationExpiredError struct {
	ReservationNumber string
}

func (e *ReservationExpiredError) Error() string {
	return fmt.Sprintf("reserva %s expirada", e.ReservationNumber)
}
