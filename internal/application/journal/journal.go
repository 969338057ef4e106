package journal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/event"
	"github.com/tu-usuario/stock-ledger/internal/domain/ledger"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

// docKey es la llave de idempotencia: un documentNumber no puede repetirse
// para el mismo tipo de movimiento.
type docKey struct {
	Type entity.MovementType
	Doc  string
}

// Journal es el único escritor de deltas sobre las celdas de stock.
// Toda operación aceptada por los motores de ciclo de vida se traduce en
// entradas del journal; los demás componentes llegan al stock compartido
// solo por el camino bloqueado del journal.
type Journal struct {
	store   *cellStore
	storage repository.LedgerStorage
	bus     *event.Bus
	cache   AvailabilityCache // opcional
	log     *logger.Logger

	mu         sync.Mutex
	movements  map[string]*entity.MovementEntry
	order      []string // ids en orden de registro
	byDoc      map[docKey]string
	byCell     map[entity.CellKey][]string
	reversedBy map[string]string // movimiento original → id de la reversión
}

// New construye el journal. cache puede ser nil.
func New(storage repository.LedgerStorage, bus *event.Bus, cache AvailabilityCache, log *logger.Logger) *Journal {
	return &Journal{
		store:      newCellStore(),
		storage:    storage,
		bus:        bus,
		cache:      cache,
		log:        log,
		movements:  make(map[string]*entity.MovementEntry),
		byDoc:      make(map[docKey]string),
		byCell:     make(map[entity.CellKey][]string),
		reversedBy: make(map[string]string),
	}
}

// AppendInput entrada para registrar un movimiento.
type AppendInput struct {
	DocumentNumber string
	CellKey        entity.CellKey
	Type           entity.MovementType
	Quantity       decimal.Decimal // firmada: positiva entra, negativa sale
	UnitCost       decimal.Decimal
	Reason         string
	CreatedBy      string
}

// Append valida, aplica el delta a la celda y registra la entrada, todo dentro
// de la sección crítica de la celda: ambos pasos ocurren o ninguno.
// Replays del mismo (documentNumber, tipo) con el mismo payload devuelven el id
// original sin efecto adicional; con payload distinto fallan con DuplicateDocumentError.
func (j *Journal) Append(ctx context.Context, in AppendInput) (string, error) {
	qty := ledger.Quantize(in.Quantity)
	if qty.IsZero() {
		return "", fmt.Errorf("%w: cantidad cero", domain.ErrInvalidInput)
	}
	if !entity.ValidMovementType(in.Type) {
		return "", fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, in.Type)
	}
	if in.DocumentNumber == "" || in.CellKey.ProductID == "" || in.CellKey.WarehouseID == "" {
		return "", fmt.Errorf("%w: documento y celda requeridos", domain.ErrInvalidInput)
	}
	return j.append(ctx, in, qty, "")
}

// append es el camino común de Append y Reverse. reverses lleva el id del
// movimiento original cuando la entrada es una reversión.
func (j *Journal) append(ctx context.Context, in AppendInput, qty decimal.Decimal, reverses string) (string, error) {
	var (
		movementID string
		available  decimal.Decimal
		replayed   bool
		claimed    bool
	)
	key := docKey{Type: in.Type, Doc: in.DocumentNumber}

	err := j.store.withCell(in.CellKey, func(c *entity.StockCell) error {
		// Idempotencia bajo el lock de la celda. La llave se reclama aquí mismo,
		// antes de aplicar: el mismo documento aterrizando concurrente sobre otra
		// celda (otro shard, otro lock) no puede pasar la verificación dos veces.
		j.mu.Lock()
		if prevID, ok := j.byDoc[key]; ok {
			if prevID == "" {
				// Reclamo en vuelo de otra goroutine sobre otra celda.
				j.mu.Unlock()
				return &domain.DuplicateDocumentError{DocumentNumber: in.DocumentNumber}
			}
			prev := j.movements[prevID]
			j.mu.Unlock()
			if prev.CellKey == in.CellKey && prev.SignedQuantity.Equal(qty) {
				movementID = prevID
				replayed = true
				return nil
			}
			return &domain.DuplicateDocumentError{DocumentNumber: in.DocumentNumber, MovementID: prevID}
		}
		if reverses != "" {
			if revID, ok := j.reversedBy[reverses]; ok {
				j.mu.Unlock()
				return &domain.AlreadyReversedError{MovementID: reverses, ReversalID: revID}
			}
		}
		j.byDoc[key] = ""
		claimed = true
		j.mu.Unlock()

		newOnHand := c.OnHand.Add(qty)
		if newOnHand.IsNegative() {
			return &domain.NegativeStockError{Cell: in.CellKey.String(), OnHand: c.OnHand, Delta: qty}
		}
		newReserved := c.Reserved
		if in.Type.ConsumesReserved() && qty.IsNegative() {
			// Salida contra reserva: onHand y reserved bajan juntos.
			newReserved = c.Reserved.Sub(qty.Neg())
			if newReserved.IsNegative() {
				newReserved = decimal.Zero
			}
		}
		if newReserved.GreaterThan(newOnHand) {
			// Un decremento que comería stock reservado no se aplica nunca.
			return &domain.InsufficientAvailableError{
				Cell:      in.CellKey.String(),
				Requested: qty.Neg(),
				Available: c.Available(),
			}
		}

		now := time.Now()
		mov := &entity.MovementEntry{
			ID:                 uuid.New().String(),
			DocumentNumber:     in.DocumentNumber,
			Timestamp:          now,
			CellKey:            in.CellKey,
			Type:               in.Type,
			SignedQuantity:     qty,
			UnitCost:           ledger.Quantize(in.UnitCost),
			TotalCostImpact:    ledger.CostImpact(qty, in.UnitCost),
			ReversesMovementID: reverses,
			Reason:             in.Reason,
			CreatedBy:          in.CreatedBy,
		}

		after := *c
		after.OnHand = newOnHand
		after.Reserved = newReserved
		after.UpdatedAt = now
		if err := j.storage.AppendMovement(ctx, &after, mov); err != nil {
			return fmt.Errorf("persistir movimiento %s: %w", in.DocumentNumber, err)
		}

		c.OnHand = newOnHand
		c.Reserved = newReserved
		c.UpdatedAt = now
		movementID = mov.ID
		available = c.Available()

		j.mu.Lock()
		j.movements[mov.ID] = mov
		j.order = append(j.order, mov.ID)
		j.byDoc[key] = mov.ID
		j.byCell[in.CellKey] = append(j.byCell[in.CellKey], mov.ID)
		if reverses != "" {
			j.reversedBy[reverses] = mov.ID
		}
		j.mu.Unlock()
		return nil
	})
	if err != nil {
		if claimed {
			// El movimiento no se aplicó: liberar el reclamo para reintentos.
			j.mu.Lock()
			if j.byDoc[key] == "" {
				delete(j.byDoc, key)
			}
			j.mu.Unlock()
		}
		return "", err
	}
	if replayed {
		j.log.Debug().Str("document", in.DocumentNumber).Str("movement_id", movementID).
			Msg("replay idempotente de movimiento")
		return movementID, nil
	}

	j.updateCache(ctx, in.CellKey, available)
	kind := event.MovementAppended
	if reverses != "" {
		kind = event.MovementReversed
	}
	j.bus.Publish(event.Event{
		Kind:         kind,
		OccurredAt:   time.Now(),
		CellKey:      in.CellKey,
		MovementID:   movementID,
		MovementType: in.Type,
		Quantity:     qty,
		UnitCost:     ledger.Quantize(in.UnitCost),
		Available:    available,
		Reference:    in.DocumentNumber,
	})
	return movementID, nil
}

// Reverse crea una nueva entrada con la cantidad negada y ReversesMovementID.
// Jamás muta ni borra el original; una segunda reversión falla con AlreadyReversedError.
func (j *Journal) Reverse(ctx context.Context, movementID, reason string) (string, error) {
	j.mu.Lock()
	orig, ok := j.movements[movementID]
	if !ok {
		j.mu.Unlock()
		return "", fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, movementID)
	}
	if revID, exists := j.reversedBy[movementID]; exists {
		j.mu.Unlock()
		return "", &domain.AlreadyReversedError{MovementID: movementID, ReversalID: revID}
	}
	j.mu.Unlock()

	in := AppendInput{
		DocumentNumber: "REV-" + orig.DocumentNumber,
		CellKey:        orig.CellKey,
		Type:           entity.MovementReversal,
		Quantity:       orig.SignedQuantity.Neg(),
		UnitCost:       orig.UnitCost,
		Reason:         reason,
		CreatedBy:      orig.CreatedBy,
	}
	return j.append(ctx, in, in.Quantity, movementID)
}

// Reserve incrementa la cantidad reservada de la celda sin postear movimiento:
// una reserva no es un movimiento de stock, solo estrecha la disponibilidad.
// Requiere available >= qty re-verificado dentro del lock.
func (j *Journal) Reserve(ctx context.Context, key entity.CellKey, qty decimal.Decimal) error {
	qty = ledger.Quantize(qty)
	if !qty.IsPositive() {
		return fmt.Errorf("%w: la cantidad a reservar debe ser positiva", domain.ErrInvalidInput)
	}
	var available decimal.Decimal
	err := j.store.withCell(key, func(c *entity.StockCell) error {
		if c.Available().LessThan(qty) {
			return &domain.InsufficientAvailableError{
				Cell:      key.String(),
				Requested: qty,
				Available: c.Available(),
			}
		}
		now := time.Now()
		after := *c
		after.Reserved = c.Reserved.Add(qty)
		after.UpdatedAt = now
		if err := j.storage.SaveCell(ctx, &after); err != nil {
			return fmt.Errorf("persistir reserva en celda %s: %w", key, err)
		}
		c.Reserved = after.Reserved
		c.UpdatedAt = now
		available = c.Available()
		return nil
	})
	if err != nil {
		return err
	}
	j.updateCache(ctx, key, available)
	return nil
}

// ReleaseReserved libera cantidad reservada (cancelación o expiración de reserva).
// Si qty excede lo reservado se libera solo lo reservado: el sweep puede correr
// concurrente con un Fulfill que ya consumió parte de la reserva.
func (j *Journal) ReleaseReserved(ctx context.Context, key entity.CellKey, qty decimal.Decimal) error {
	qty = ledger.Quantize(qty)
	if !qty.IsPositive() {
		return fmt.Errorf("%w: la cantidad a liberar debe ser positiva", domain.ErrInvalidInput)
	}
	var available decimal.Decimal
	err := j.store.withCell(key, func(c *entity.StockCell) error {
		release := qty
		if release.GreaterThan(c.Reserved) {
			j.log.Warn().Str("cell", key.String()).
				Str("reserved", c.Reserved.String()).Str("requested", qty.String()).
				Msg("liberación mayor que lo reservado; se recorta")
			release = c.Reserved
		}
		now := time.Now()
		after := *c
		after.Reserved = c.Reserved.Sub(release)
		after.UpdatedAt = now
		if err := j.storage.SaveCell(ctx, &after); err != nil {
			return fmt.Errorf("persistir liberación en celda %s: %w", key, err)
		}
		c.Reserved = after.Reserved
		c.UpdatedAt = now
		available = c.Available()
		return nil
	})
	if err != nil {
		return err
	}
	j.updateCache(ctx, key, available)
	return nil
}

// AdjustInTransit actualiza los contadores informativos de tránsito de la celda
// (positivo suma, negativo resta; se recortan en cero). No afecta onHand.
func (j *Journal) AdjustInTransit(ctx context.Context, key entity.CellKey, outDelta, inDelta decimal.Decimal) error {
	return j.store.withCell(key, func(c *entity.StockCell) error {
		now := time.Now()
		after := *c
		after.InTransitOut = clampZero(c.InTransitOut.Add(outDelta))
		after.InTransitIn = clampZero(c.InTransitIn.Add(inDelta))
		after.UpdatedAt = now
		if err := j.storage.SaveCell(ctx, &after); err != nil {
			return fmt.Errorf("persistir tránsito en celda %s: %w", key, err)
		}
		c.InTransitOut = after.InTransitOut
		c.InTransitIn = after.InTransitIn
		c.UpdatedAt = now
		return nil
	})
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func (j *Journal) updateCache(ctx context.Context, key entity.CellKey, available decimal.Decimal) {
	if j.cache == nil {
		return
	}
	if err := j.cache.SetAvailable(ctx, key, available); err != nil {
		j.log.Debug().Err(err).Str("cell", key.String()).Msg("actualización de caché de disponible")
	}
}

// GetAvailable devuelve el disponible de la celda. Intenta primero el caché;
// lectura sin lock de escritura, apta para display.
func (j *Journal) GetAvailable(ctx context.Context, key entity.CellKey) decimal.Decimal {
	if j.cache != nil {
		if av, ok, err := j.cache.GetAvailable(ctx, key); err == nil && ok {
			return av
		}
	}
	return j.store.available(key)
}

// Cell devuelve una copia de la celda, o nil si nunca fue tocada.
func (j *Journal) Cell(key entity.CellKey) *entity.StockCell {
	return j.store.get(key)
}

// CellsByProduct devuelve copias de todas las celdas del producto.
func (j *Journal) CellsByProduct(productID string) []*entity.StockCell {
	return j.store.snapshot(func(k entity.CellKey) bool { return k.ProductID == productID })
}

// CellsByWarehouse devuelve copias de todas las celdas de la bodega.
// Es el snapshot congelado que usa el conteo físico.
func (j *Journal) CellsByWarehouse(warehouseID string) []*entity.StockCell {
	return j.store.snapshot(func(k entity.CellKey) bool { return k.WarehouseID == warehouseID })
}

// Movements devuelve las entradas históricas de una celda en orden de registro.
func (j *Journal) Movements(key entity.CellKey) []*entity.MovementEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	ids := j.byCell[key]
	out := make([]*entity.MovementEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, j.movements[id])
	}
	return out
}

// Movement devuelve la entrada por id, o nil.
func (j *Journal) Movement(id string) *entity.MovementEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.movements[id]
}

// AllMovements devuelve todas las entradas en orden de registro.
func (j *Journal) AllMovements() []*entity.MovementEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]*entity.MovementEntry, 0, len(j.order))
	for _, id := range j.order {
		out = append(out, j.movements[id])
	}
	return out
}
