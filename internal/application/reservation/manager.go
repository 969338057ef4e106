package reservation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stock-ledger/internal/application/journal"
	"github.com/tu-usuario/stock-ledger/internal/application/lot"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/event"
	"github.com/tu-usuario/stock-ledger/internal/domain/ledger"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

// Allocator propone la asignación FEFO por lotes para productos trazados por lote.
type Allocator interface {
	ProposeAllocation(productID, warehouseID string, qty decimal.Decimal) ([]lot.Allocation, error)
}

// LotGuard valida elegibilidad de lote y consume remanente al despachar.
type LotGuard interface {
	CheckEligible(lotID string) error
	ConsumeForCell(ctx context.Context, key entity.CellKey, qty decimal.Decimal) error
}

// Manager asigna blandamente disponible a documentos de demanda. Su estado es
// privado; el stock compartido se toca solo vía Reserve/ReleaseReserved/Append
// del journal. El mutex del manager se sostiene durante la mutación completa:
// así el sweep de expiración y Fulfill nunca liberan dos veces el mismo remanente
// (compare-and-set sobre el estado bajo el mismo lock).
type Manager struct {
	journal *journal.Journal
	lots    LotGuard  // opcional
	fefo    Allocator // opcional
	bus     *event.Bus
	log     *logger.Logger

	mu           sync.Mutex
	reservations map[string]*entity.StockReservation
	fulfillSeq   map[string]int
	seq          int
}

// NewManager construye el manager. lots y fefo pueden ser nil si no hay
// productos trazados por lote.
func NewManager(j *journal.Journal, lots LotGuard, fefo Allocator, bus *event.Bus, log *logger.Logger) *Manager {
	return &Manager{
		journal:      j,
		lots:         lots,
		fefo:         fefo,
		bus:          bus,
		log:          log,
		reservations: make(map[string]*entity.StockReservation),
		fulfillSeq:   make(map[string]int),
	}
}

// ReserveInput entrada para crear una reserva.
type ReserveInput struct {
	CellKey                 entity.CellKey
	Quantity                decimal.Decimal
	Type                    entity.ReservationType
	ReferenceDocumentType   string
	ReferenceDocumentNumber string
	ExpiresAt               *time.Time
	Notes                   string
	CreatedBy               string
}

// Reserve requiere available >= qty, incrementa cell.Reserved (sin entrada de
// journal) y crea la reserva en ACTIVE. Falla con InsufficientAvailableError
// dejando todo el estado intacto.
func (m *Manager) Reserve(ctx context.Context, in ReserveInput) (*entity.StockReservation, error) {
	qty := ledger.Quantize(in.Quantity)
	if !qty.IsPositive() {
		return nil, fmt.Errorf("%w: cantidad a reservar debe ser positiva", domain.ErrInvalidInput)
	}
	if in.CellKey.ProductID == "" || in.CellKey.WarehouseID == "" {
		return nil, fmt.Errorf("%w: producto y bodega requeridos", domain.ErrInvalidInput)
	}
	if in.CellKey.LotID != "" && m.lots != nil {
		if err := m.lots.CheckEligible(in.CellKey.LotID); err != nil {
			return nil, err
		}
	}
	if in.Type == "" {
		in.Type = entity.ReservationManual
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.journal.Reserve(ctx, in.CellKey, qty); err != nil {
		return nil, err
	}
	m.seq++
	now := time.Now()
	r := &entity.StockReservation{
		ID:                      uuid.New().String(),
		ReservationNumber:       fmt.Sprintf("RES-%06d", m.seq),
		CellKey:                 in.CellKey,
		RequestedQuantity:       qty,
		FulfilledQuantity:       decimal.Zero,
		Status:                  entity.ReservationActive,
		Type:                    in.Type,
		ReferenceDocumentType:   in.ReferenceDocumentType,
		ReferenceDocumentNumber: in.ReferenceDocumentNumber,
		ReservedAt:              now,
		ExpirationDate:          in.ExpiresAt,
		Notes:                   in.Notes,
		CreatedBy:               in.CreatedBy,
	}
	m.reservations[r.ID] = r

	m.bus.Publish(event.Event{
		Kind:              event.ReservationCreated,
		OccurredAt:        now,
		CellKey:           in.CellKey,
		ReservationID:     r.ID,
		ReservationNumber: r.ReservationNumber,
		Quantity:          qty,
		Available:         m.journal.GetAvailable(ctx, in.CellKey),
		Reference:         in.ReferenceDocumentNumber,
	})
	cp := *r
	return &cp, nil
}

// ReserveFEFO reserva qty de un producto trazado por lote sin lote pineado:
// el tracker propone lotes por expiración ascendente y se crea una reserva por
// porción. Si una porción falla se compensan las anteriores y no queda efecto.
func (m *Manager) ReserveFEFO(ctx context.Context, productID, warehouseID string, qty decimal.Decimal, in ReserveInput) ([]*entity.StockReservation, error) {
	if m.fefo == nil {
		return nil, fmt.Errorf("%w: asignación FEFO no configurada", domain.ErrInvalidInput)
	}
	allocs, err := m.fefo.ProposeAllocation(productID, warehouseID, qty)
	if err != nil {
		return nil, err
	}

	created := make([]*entity.StockReservation, 0, len(allocs))
	for _, a := range allocs {
		part := in
		part.CellKey = entity.CellKey{
			ProductID:   productID,
			WarehouseID: warehouseID,
			LocationID:  in.CellKey.LocationID,
			LotID:       a.LotID,
		}
		part.Quantity = a.Quantity
		r, err := m.Reserve(ctx, part)
		if err != nil {
			for _, prev := range created {
				if relErr := m.Release(ctx, prev.ID); relErr != nil {
					m.log.Error().Err(relErr).Str("reservation", prev.ID).
						Msg("compensación de reserva FEFO")
				}
			}
			return nil, err
		}
		created = append(created, r)
	}
	return created, nil
}

// Fulfill despacha qty contra la reserva: postea un SalesIssue vía el journal
// (onHand y reserved bajan juntos) y transiciona a PARTIALLY_FULFILLED o
// FULFILLED cuando el remanente llega a cero.
func (m *Manager) Fulfill(ctx context.Context, reservationID string, qty decimal.Decimal) (*entity.StockReservation, error) {
	qty = ledger.Quantize(qty)
	if !qty.IsPositive() {
		return nil, fmt.Errorf("%w: cantidad a despachar debe ser positiva", domain.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reservations[reservationID]
	if !ok {
		return nil, fmt.Errorf("%w: reserva %s", domain.ErrNotFound, reservationID)
	}
	if r.Status == entity.ReservationExpired || r.ExpiredAt(time.Now()) {
		return nil, &domain.ReservationExpiredError{ReservationNumber: r.ReservationNumber}
	}
	if !r.Open() {
		return nil, &domain.InvalidStateTransitionError{
			Entity: "StockReservation", From: string(r.Status), To: "fulfill",
		}
	}
	if qty.GreaterThan(r.Remaining()) {
		return nil, fmt.Errorf("%w: despacho %s excede remanente %s", domain.ErrInvalidInput, qty, r.Remaining())
	}

	m.fulfillSeq[r.ID]++
	doc := fmt.Sprintf("%s-F%d", r.ReservationNumber, m.fulfillSeq[r.ID])
	if _, err := m.journal.Append(ctx, journal.AppendInput{
		DocumentNumber: doc,
		CellKey:        r.CellKey,
		Type:           entity.MovementSalesIssue,
		Quantity:       qty.Neg(),
		Reason:         "despacho de reserva " + r.ReservationNumber,
		CreatedBy:      r.CreatedBy,
	}); err != nil {
		return nil, err
	}
	if r.CellKey.LotID != "" && m.lots != nil {
		if err := m.lots.ConsumeForCell(ctx, r.CellKey, qty); err != nil {
			m.log.Error().Err(err).Str("reservation", r.ID).Msg("consumo de lote tras despacho")
		}
	}

	now := time.Now()
	r.FulfilledQuantity = r.FulfilledQuantity.Add(qty)
	if r.Remaining().IsZero() {
		r.Status = entity.ReservationFulfilled
		r.FulfilledAt = &now
	} else {
		r.Status = entity.ReservationPartiallyFulfilled
	}

	m.bus.Publish(event.Event{
		Kind:              event.ReservationFulfilled,
		OccurredAt:        now,
		CellKey:           r.CellKey,
		ReservationID:     r.ID,
		ReservationNumber: r.ReservationNumber,
		Quantity:          qty,
		Available:         m.journal.GetAvailable(ctx, r.CellKey),
	})
	cp := *r
	return &cp, nil
}

// FulfillTransferOut consume la reserva posteando un TransferOut (despacho de
// transferencia) en lugar de un SalesIssue. Mismas reglas que Fulfill; el
// documentNumber lo aporta el orquestador de transferencias para idempotencia.
func (m *Manager) FulfillTransferOut(ctx context.Context, reservationID string, qty decimal.Decimal, documentNumber string) (*entity.StockReservation, error) {
	qty = ledger.Quantize(qty)
	if !qty.IsPositive() || documentNumber == "" {
		return nil, fmt.Errorf("%w: cantidad positiva y documento requeridos", domain.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reservations[reservationID]
	if !ok {
		return nil, fmt.Errorf("%w: reserva %s", domain.ErrNotFound, reservationID)
	}
	if !r.Open() {
		return nil, &domain.InvalidStateTransitionError{
			Entity: "StockReservation", From: string(r.Status), To: "transfer-out",
		}
	}
	if qty.GreaterThan(r.Remaining()) {
		return nil, fmt.Errorf("%w: despacho %s excede remanente %s", domain.ErrInvalidInput, qty, r.Remaining())
	}

	if _, err := m.journal.Append(ctx, journal.AppendInput{
		DocumentNumber: documentNumber,
		CellKey:        r.CellKey,
		Type:           entity.MovementTransferOut,
		Quantity:       qty.Neg(),
		Reason:         "despacho de transferencia, reserva " + r.ReservationNumber,
		CreatedBy:      r.CreatedBy,
	}); err != nil {
		return nil, err
	}
	if r.CellKey.LotID != "" && m.lots != nil {
		if err := m.lots.ConsumeForCell(ctx, r.CellKey, qty); err != nil {
			m.log.Error().Err(err).Str("reservation", r.ID).Msg("consumo de lote tras despacho de transferencia")
		}
	}

	now := time.Now()
	r.FulfilledQuantity = r.FulfilledQuantity.Add(qty)
	if r.Remaining().IsZero() {
		r.Status = entity.ReservationFulfilled
		r.FulfilledAt = &now
	} else {
		r.Status = entity.ReservationPartiallyFulfilled
	}
	cp := *r
	return &cp, nil
}

// Release cancela la reserva liberando el remanente no despachado.
func (m *Manager) Release(ctx context.Context, reservationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reservations[reservationID]
	if !ok {
		return fmt.Errorf("%w: reserva %s", domain.ErrNotFound, reservationID)
	}
	if !r.Open() {
		return &domain.InvalidStateTransitionError{
			Entity: "StockReservation", From: string(r.Status), To: string(entity.ReservationCancelled),
		}
	}
	remainder := r.Remaining()
	if remainder.IsPositive() {
		if err := m.journal.ReleaseReserved(ctx, r.CellKey, remainder); err != nil {
			return err
		}
	}
	now := time.Now()
	r.Status = entity.ReservationCancelled
	r.CancelledAt = &now

	m.bus.Publish(event.Event{
		Kind:              event.ReservationReleased,
		OccurredAt:        now,
		CellKey:           r.CellKey,
		ReservationID:     r.ID,
		ReservationNumber: r.ReservationNumber,
		Quantity:          remainder,
		Available:         m.journal.GetAvailable(ctx, r.CellKey),
	})
	return nil
}

// Get devuelve la reserva por id.
func (m *Manager) Get(reservationID string) (*entity.StockReservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[reservationID]
	if !ok {
		return nil, fmt.Errorf("%w: reserva %s", domain.ErrNotFound, reservationID)
	}
	cp := *r
	return &cp, nil
}

// OpenReservations devuelve las reservas que aún retienen disponible,
// ordenadas por número (lectura para UI/reportes).
func (m *Manager) OpenReservations() []*entity.StockReservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.StockReservation
	for _, r := range m.reservations {
		if r.Open() {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReservationNumber < out[j].ReservationNumber })
	return out
}
