package entity

import "time"

// Estados del ciclo de vida de una unidad serializada.
type SerialStatus string

const (
	SerialCreated   SerialStatus = "CREATED"
	SerialReceived  SerialStatus = "RECEIVED"
	SerialReserved  SerialStatus = "RESERVED"
	SerialSold      SerialStatus = "SOLD"
	SerialReturned  SerialStatus = "RETURNED"
	SerialDefective SerialStatus = "DEFECTIVE"
	SerialInRepair  SerialStatus = "IN_REPAIR"
	SerialScrapped  SerialStatus = "SCRAPPED" // terminal
	SerialLost      SerialStatus = "LOST"     // terminal
)

// SerialNumber representa una unidad serializada de un producto.
// A lo sumo una reserva activa de StockCell a la vez.
type SerialNumber struct {
	ID          string
	Serial      string // único por producto
	ProductID   string
	WarehouseID string
	LotID       string // referencia al lote de origen, si aplica
	Status      SerialStatus
	UpdatedAt   time.Time
}

// Terminal reporta si el estado no admite más transiciones.
func (s SerialStatus) Terminal() bool {
	return s == SerialScrapped || s == SerialLost
}
