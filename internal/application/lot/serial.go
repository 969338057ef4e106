package lot

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// Transiciones permitidas de una unidad serializada:
// Created → Received → {Reserved ↔ liberada} → Sold → {Returned → Received},
// Defective → {InRepair → Received}, Scrapped/Lost terminales.
var serialTransitions = map[entity.SerialStatus][]entity.SerialStatus{
	entity.SerialCreated:   {entity.SerialReceived, entity.SerialScrapped, entity.SerialLost},
	entity.SerialReceived:  {entity.SerialReserved, entity.SerialSold, entity.SerialDefective, entity.SerialScrapped, entity.SerialLost},
	entity.SerialReserved:  {entity.SerialReceived, entity.SerialSold, entity.SerialScrapped, entity.SerialLost},
	entity.SerialSold:      {entity.SerialReturned, entity.SerialLost},
	entity.SerialReturned:  {entity.SerialReceived, entity.SerialDefective, entity.SerialScrapped, entity.SerialLost},
	entity.SerialDefective: {entity.SerialInRepair, entity.SerialScrapped, entity.SerialLost},
	entity.SerialInRepair:  {entity.SerialReceived, entity.SerialScrapped, entity.SerialLost},
}

// RegisterSerial registra una unidad serializada en estado CREATED.
// serial es único por producto.
func (t *Tracker) RegisterSerial(serial, productID, warehouseID, lotID string) (*entity.SerialNumber, error) {
	if serial == "" || productID == "" {
		return nil, fmt.Errorf("%w: serial y producto requeridos", domain.ErrInvalidInput)
	}
	sk := lotNumberKey{ProductID: productID, LotNumber: serial}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.bySerial[sk]; exists {
		return nil, fmt.Errorf("%w: serial %s del producto %s", domain.ErrDuplicate, serial, productID)
	}
	sn := &entity.SerialNumber{
		ID:          uuid.New().String(),
		Serial:      serial,
		ProductID:   productID,
		WarehouseID: warehouseID,
		LotID:       lotID,
		Status:      entity.SerialCreated,
		UpdatedAt:   time.Now(),
	}
	t.serials[sn.ID] = sn
	t.bySerial[sk] = sn.ID
	return copySerial(sn), nil
}

// TransitionSerial mueve la unidad al estado destino validando la máquina de estados.
// Los estados SCRAPPED y LOST son terminales.
func (t *Tracker) TransitionSerial(serialID string, to entity.SerialStatus) (*entity.SerialNumber, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sn, ok := t.serials[serialID]
	if !ok {
		return nil, fmt.Errorf("%w: serial %s", domain.ErrNotFound, serialID)
	}
	if sn.Status.Terminal() {
		return nil, &domain.InvalidStateTransitionError{
			Entity: "SerialNumber", From: string(sn.Status), To: string(to),
		}
	}
	for _, allowed := range serialTransitions[sn.Status] {
		if allowed == to {
			sn.Status = to
			sn.UpdatedAt = time.Now()
			return copySerial(sn), nil
		}
	}
	return nil, &domain.InvalidStateTransitionError{
		Entity: "SerialNumber", From: string(sn.Status), To: string(to),
	}
}

// GetSerial devuelve la unidad por id.
func (t *Tracker) GetSerial(serialID string) (*entity.SerialNumber, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sn, ok := t.serials[serialID]
	if !ok {
		return nil, fmt.Errorf("%w: serial %s", domain.ErrNotFound, serialID)
	}
	return copySerial(sn), nil
}

// SerialsByProduct devuelve las unidades serializadas del producto.
func (t *Tracker) SerialsByProduct(productID string) []*entity.SerialNumber {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []*entity.SerialNumber
	for _, sn := range t.serials {
		if sn.ProductID == productID {
			out = append(out, copySerial(sn))
		}
	}
	return out
}

func copySerial(sn *entity.SerialNumber) *entity.SerialNumber {
	cp := *sn
	return &cp
}
