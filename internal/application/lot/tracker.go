package lot

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stock-ledger/internal/application/journal"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/event"
	"github.com/tu-usuario/stock-ledger/internal/domain/ledger"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

// Transiciones permitidas del lote. EXPIRED se evalúa perezosamente en lectura
// y EXHAUSTED solo se alcanza por consumo, nunca por transición manual.
var lotTransitions = map[entity.LotStatus][]entity.LotStatus{
	entity.LotReceived:    {entity.LotQuarantined, entity.LotApproved},
	entity.LotQuarantined: {entity.LotApproved, entity.LotRejected},
}

type lotNumberKey struct {
	ProductID string
	LotNumber string
}

// Tracker administra el ciclo de vida de lotes y seriales. Mantiene su estado
// privado y llega al stock compartido únicamente a través del journal.
type Tracker struct {
	journal *journal.Journal
	bus     *event.Bus
	log     *logger.Logger

	mu       sync.Mutex
	lots     map[string]*entity.LotBatch
	byNumber map[lotNumberKey]string
	serials  map[string]*entity.SerialNumber
	bySerial map[lotNumberKey]string // (productID, serial) → id
}

// NewTracker construye el tracker.
func NewTracker(j *journal.Journal, bus *event.Bus, log *logger.Logger) *Tracker {
	return &Tracker{
		journal:  j,
		bus:      bus,
		log:      log,
		lots:     make(map[string]*entity.LotBatch),
		byNumber: make(map[lotNumberKey]string),
		serials:  make(map[string]*entity.SerialNumber),
		bySerial: make(map[lotNumberKey]string),
	}
}

// ReceiveInput entrada para recibir un lote (contrato de compras/recepción).
type ReceiveInput struct {
	LotNumber      string
	ProductID      string
	WarehouseID    string
	Quantity       decimal.Decimal
	UnitCost       decimal.Decimal
	ExpiryDate     *time.Time
	DocumentNumber string // vacío: se deriva del número de lote
	CreatedBy      string
}

// Receive crea el lote en estado RECEIVED y postea el movimiento de compra
// sobre la celda del lote. Si el journal rechaza el movimiento, el lote no queda creado.
func (t *Tracker) Receive(ctx context.Context, in ReceiveInput) (*entity.LotBatch, error) {
	qty := ledger.Quantize(in.Quantity)
	if in.LotNumber == "" || in.ProductID == "" || in.WarehouseID == "" || !qty.IsPositive() {
		return nil, fmt.Errorf("%w: lote, producto, bodega y cantidad positiva requeridos", domain.ErrInvalidInput)
	}
	nk := lotNumberKey{ProductID: in.ProductID, LotNumber: in.LotNumber}

	t.mu.Lock()
	if _, exists := t.byNumber[nk]; exists {
		t.mu.Unlock()
		return nil, fmt.Errorf("%w: lote %s del producto %s", domain.ErrDuplicate, in.LotNumber, in.ProductID)
	}
	t.mu.Unlock()

	id := uuid.New().String()
	doc := in.DocumentNumber
	if doc == "" {
		doc = "LOT-" + in.LotNumber
	}
	_, err := t.journal.Append(ctx, journal.AppendInput{
		DocumentNumber: doc,
		CellKey: entity.CellKey{
			ProductID:   in.ProductID,
			WarehouseID: in.WarehouseID,
			LotID:       id,
		},
		Type:      entity.MovementPurchase,
		Quantity:  qty,
		UnitCost:  in.UnitCost,
		CreatedBy: in.CreatedBy,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	lot := &entity.LotBatch{
		ID:                id,
		LotNumber:         in.LotNumber,
		ProductID:         in.ProductID,
		WarehouseID:       in.WarehouseID,
		ReceivedQuantity:  qty,
		RemainingQuantity: qty,
		ExpiryDate:        in.ExpiryDate,
		Status:            entity.LotReceived,
		ReceivedAt:        now,
		UpdatedAt:         now,
	}
	t.mu.Lock()
	// Carrera de recepción doble: el segundo pierde, pero su movimiento ya fue
	// idempotente por documentNumber, así que no hay doble efecto de stock.
	if _, exists := t.byNumber[nk]; exists {
		t.mu.Unlock()
		return nil, fmt.Errorf("%w: lote %s del producto %s", domain.ErrDuplicate, in.LotNumber, in.ProductID)
	}
	t.lots[id] = lot
	t.byNumber[nk] = id
	t.mu.Unlock()

	cp := *lot
	return &cp, nil
}

// transition aplica una transición manual del lote validando la tabla.
func (t *Tracker) transition(lotID string, to entity.LotStatus) (*entity.LotBatch, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	lot, ok := t.lots[lotID]
	if !ok {
		return nil, fmt.Errorf("%w: lote %s", domain.ErrNotFound, lotID)
	}
	t.lazyExpireLocked(lot, time.Now())
	for _, allowed := range lotTransitions[lot.Status] {
		if allowed == to {
			lot.Status = to
			lot.UpdatedAt = time.Now()
			cp := *lot
			return &cp, nil
		}
	}
	return nil, &domain.InvalidStateTransitionError{
		Entity: "LotBatch", From: string(lot.Status), To: string(to),
	}
}

// Quarantine pone el lote recibido en cuarentena.
func (t *Tracker) Quarantine(lotID string) (*entity.LotBatch, error) {
	return t.transition(lotID, entity.LotQuarantined)
}

// Approve habilita el lote para reservas y asignación FEFO.
func (t *Tracker) Approve(lotID string) (*entity.LotBatch, error) {
	return t.transition(lotID, entity.LotApproved)
}

// Reject rechaza un lote en cuarentena. El stock del lote queda bloqueado para
// asignación; darlo de baja es un ajuste aparte del operador.
func (t *Tracker) Reject(lotID string) (*entity.LotBatch, error) {
	return t.transition(lotID, entity.LotRejected)
}

// Consume descuenta cantidad remanente de un lote aprobado (salida de stock ya
// posteada en el journal por el motor que llama). EXHAUSTED al llegar a cero.
func (t *Tracker) Consume(ctx context.Context, lotID string, qty decimal.Decimal) error {
	qty = ledger.Quantize(qty)
	if !qty.IsPositive() {
		return fmt.Errorf("%w: cantidad a consumir debe ser positiva", domain.ErrInvalidInput)
	}
	var exhausted *entity.LotBatch

	t.mu.Lock()
	lot, ok := t.lots[lotID]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("%w: lote %s", domain.ErrNotFound, lotID)
	}
	t.lazyExpireLocked(lot, time.Now())
	if lot.Status != entity.LotApproved {
		t.mu.Unlock()
		return &domain.LotNotEligibleError{LotNumber: lot.LotNumber, Status: string(lot.Status)}
	}
	if qty.GreaterThan(lot.RemainingQuantity) {
		remaining := lot.RemainingQuantity
		t.mu.Unlock()
		return &domain.InsufficientAvailableError{
			Cell:      lot.ProductID + "|" + lot.WarehouseID + "||" + lot.ID + "|",
			Requested: qty,
			Available: remaining,
		}
	}
	lot.RemainingQuantity = lot.RemainingQuantity.Sub(qty)
	lot.UpdatedAt = time.Now()
	if lot.RemainingQuantity.IsZero() {
		lot.Status = entity.LotExhausted
		cp := *lot
		exhausted = &cp
	}
	t.mu.Unlock()

	if exhausted != nil {
		t.bus.Publish(event.Event{
			Kind:       event.LotExhausted,
			OccurredAt: time.Now(),
			LotID:      exhausted.ID,
			LotNumber:  exhausted.LotNumber,
			CellKey: entity.CellKey{
				ProductID:   exhausted.ProductID,
				WarehouseID: exhausted.WarehouseID,
				LotID:       exhausted.ID,
			},
		})
	}
	return nil
}

// ConsumeForCell implementa el puerto de consumo de lote de los motores de
// reserva y transferencia: descuenta contra el lote referido por la celda.
func (t *Tracker) ConsumeForCell(ctx context.Context, key entity.CellKey, qty decimal.Decimal) error {
	if key.LotID == "" {
		return nil
	}
	return t.Consume(ctx, key.LotID, qty)
}

// CheckEligible valida que el lote esté aprobado para reserva/asignación.
// Solo los lotes APPROVED son elegibles.
func (t *Tracker) CheckEligible(lotID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	lot, ok := t.lots[lotID]
	if !ok {
		return fmt.Errorf("%w: lote %s", domain.ErrNotFound, lotID)
	}
	t.lazyExpireLocked(lot, time.Now())
	if lot.Status != entity.LotApproved {
		return &domain.LotNotEligibleError{LotNumber: lot.LotNumber, Status: string(lot.Status)}
	}
	return nil
}

// Allocation es una porción de asignación FEFO propuesta sobre un lote.
type Allocation struct {
	LotID     string
	LotNumber string
	Quantity  decimal.Decimal
}

// ProposeAllocation propone lotes aprobados del producto en la bodega, en orden
// ascendente de fecha de expiración (sin fecha al final), partiendo entre lotes
// hasta cubrir qty (FEFO). La propuesta no reserva: el disponible real se
// re-verifica celda por celda al momento de reservar.
func (t *Tracker) ProposeAllocation(productID, warehouseID string, qty decimal.Decimal) ([]Allocation, error) {
	qty = ledger.Quantize(qty)
	if !qty.IsPositive() {
		return nil, fmt.Errorf("%w: cantidad debe ser positiva", domain.ErrInvalidInput)
	}
	now := time.Now()

	t.mu.Lock()
	var eligible []*entity.LotBatch
	for _, lot := range t.lots {
		if lot.ProductID != productID || lot.WarehouseID != warehouseID {
			continue
		}
		t.lazyExpireLocked(lot, now)
		if lot.Status == entity.LotApproved && lot.RemainingQuantity.IsPositive() {
			cp := *lot
			eligible = append(eligible, &cp)
		}
	}
	t.mu.Unlock()

	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i].ExpiryDate, eligible[j].ExpiryDate
		switch {
		case a == nil && b == nil:
			return eligible[i].LotNumber < eligible[j].LotNumber
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})

	remaining := qty
	var out []Allocation
	for _, lot := range eligible {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, lot.RemainingQuantity)
		out = append(out, Allocation{LotID: lot.ID, LotNumber: lot.LotNumber, Quantity: take})
		remaining = remaining.Sub(take)
	}
	if remaining.IsPositive() {
		return nil, &domain.InsufficientAvailableError{
			Cell:      productID + "|" + warehouseID + "|||",
			Requested: qty,
			Available: qty.Sub(remaining),
		}
	}
	return out, nil
}

// Get devuelve el lote con el chequeo perezoso de expiración aplicado.
func (t *Tracker) Get(lotID string) (*entity.LotBatch, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	lot, ok := t.lots[lotID]
	if !ok {
		return nil, fmt.Errorf("%w: lote %s", domain.ErrNotFound, lotID)
	}
	t.lazyExpireLocked(lot, time.Now())
	cp := *lot
	return &cp, nil
}

// ByProduct devuelve los lotes del producto.
func (t *Tracker) ByProduct(productID string) []*entity.LotBatch {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []*entity.LotBatch
	for _, lot := range t.lots {
		if lot.ProductID != productID {
			continue
		}
		t.lazyExpireLocked(lot, now)
		cp := *lot
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LotNumber < out[j].LotNumber })
	return out
}

// SweepExpiring publica LotExpiring para lotes con remanente que vencen dentro
// de la ventana. Corre como tarea periódica desde main; idempotente (el bus es
// fire-and-forget y los suscriptores deduplican si lo necesitan).
func (t *Tracker) SweepExpiring(window time.Duration) int {
	now := time.Now()
	limit := now.Add(window)

	t.mu.Lock()
	var expiring []*entity.LotBatch
	for _, lot := range t.lots {
		t.lazyExpireLocked(lot, now)
		if lot.Status != entity.LotApproved && lot.Status != entity.LotReceived && lot.Status != entity.LotQuarantined {
			continue
		}
		if lot.ExpiryDate != nil && lot.ExpiryDate.Before(limit) && lot.RemainingQuantity.IsPositive() {
			cp := *lot
			expiring = append(expiring, &cp)
		}
	}
	t.mu.Unlock()

	for _, lot := range expiring {
		t.bus.Publish(event.Event{
			Kind:       event.LotExpiring,
			OccurredAt: now,
			LotID:      lot.ID,
			LotNumber:  lot.LotNumber,
			CellKey: entity.CellKey{
				ProductID:   lot.ProductID,
				WarehouseID: lot.WarehouseID,
				LotID:       lot.ID,
			},
		})
	}
	return len(expiring)
}

// RunExpirySweeper ejecuta SweepExpiring periódicamente hasta que ctx se cancele.
func (t *Tracker) RunExpirySweeper(ctx context.Context, interval, window time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := t.SweepExpiring(window); n > 0 {
				t.log.Info().Int("lotes", n).Msg("lotes próximos a expirar notificados")
			}
		}
	}
}

// lazyExpireLocked aplica la transición perezosa a EXPIRED. Caller sostiene t.mu.
func (t *Tracker) lazyExpireLocked(lot *entity.LotBatch, now time.Time) {
	if lot.Expirable(now) {
		lot.Status = entity.LotExpired
		lot.UpdatedAt = now
	}
}
