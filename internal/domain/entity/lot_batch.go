package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de un lote.
type LotStatus string

const (
	LotReceived    LotStatus = "RECEIVED"
	LotQuarantined LotStatus = "QUARANTINED"
	LotApproved    LotStatus = "APPROVED"
	LotRejected    LotStatus = "REJECTED"
	LotExhausted   LotStatus = "EXHAUSTED"
	LotExpired     LotStatus = "EXPIRED"
)

// LotBatch representa un lote/batch de un producto. El lote pertenece al producto;
// StockCell y SerialNumber lo referencian por LotID sin ser dueños.
type LotBatch struct {
	ID                string
	LotNumber         string // único por producto
	ProductID         string
	WarehouseID       string
	ReceivedQuantity  decimal.Decimal
	RemainingQuantity decimal.Decimal // 0 <= Remaining <= Received
	ExpiryDate        *time.Time
	Status            LotStatus
	ReceivedAt        time.Time
	UpdatedAt         time.Time
}

// Expirable reporta si el lote debe pasar a EXPIRED: fecha vencida y cantidad remanente.
// La transición se evalúa perezosamente en lectura, nunca con un timer de fondo,
// para no producir transiciones falsas con entradas retro-fechadas.
func (l *LotBatch) Expirable(now time.Time) bool {
	return l.ExpiryDate != nil && now.After(*l.ExpiryDate) &&
		l.RemainingQuantity.GreaterThan(decimal.Zero) &&
		l.Status != LotExpired && l.Status != LotRejected
}
