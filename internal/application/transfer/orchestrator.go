package transfer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stock-ledger/internal/application/journal"
	"github.com/tu-usuario/stock-ledger/internal/application/reservation"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/event"
	"github.com/tu-usuario/stock-ledger/internal/domain/ledger"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

// Transiciones manuales permitidas de la transferencia. SHIPPED y RECEIVED se
// alcanzan por Ship/Receive cuando todas las líneas quedan cubiertas.
var transferTransitions = map[entity.TransferStatus][]entity.TransferStatus{
	entity.TransferDraft:           {entity.TransferPendingApproval, entity.TransferCancelled},
	entity.TransferPendingApproval: {entity.TransferApproved, entity.TransferCancelled},
	entity.TransferApproved:        {entity.TransferCancelled},
	entity.TransferReceived:        {entity.TransferCompleted},
}

// Orchestrator ejecuta la saga de transferencia entre bodegas:
// Draft → PendingApproval → Approved → Shipped → Received → Completed.
// No es atómica entre origen y destino: tras Ship el stock de origen ya salió y
// el destino aún no recibe; la brecha la cubre el estado de la transferencia,
// con visibilidad operativa sobre las SHIPPED, no un two-phase commit bloqueante.
type Orchestrator struct {
	journal      *journal.Journal
	reservations *reservation.Manager
	bus          *event.Bus
	log          *logger.Logger

	mu        sync.Mutex
	transfers map[string]*entity.StockTransfer
	shipSeq   map[string]int
	recvSeq   map[string]int
	seq       int
}

// NewOrchestrator construye el orquestador.
func NewOrchestrator(j *journal.Journal, rm *reservation.Manager, bus *event.Bus, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		journal:      j,
		reservations: rm,
		bus:          bus,
		log:          log,
		transfers:    make(map[string]*entity.StockTransfer),
		shipSeq:      make(map[string]int),
		recvSeq:      make(map[string]int),
	}
}

// LineInput línea solicitada al crear la transferencia.
type LineInput struct {
	ProductID    string
	LotID        string
	UnitCost     decimal.Decimal
	RequestedQty decimal.Decimal
}

// CreateInput entrada para crear una transferencia en DRAFT.
type CreateInput struct {
	SourceWarehouseID      string
	DestinationWarehouseID string
	Lines                  []LineInput
	Type                   entity.TransferType
	Notes                  string
	ExpectedArrivalDate    *time.Time
	CreatedBy              string
}

// Create crea la transferencia en borrador.
func (o *Orchestrator) Create(in CreateInput) (*entity.StockTransfer, error) {
	if in.SourceWarehouseID == "" || in.DestinationWarehouseID == "" ||
		in.SourceWarehouseID == in.DestinationWarehouseID || len(in.Lines) == 0 {
		return nil, fmt.Errorf("%w: bodegas distintas y al menos una línea", domain.ErrInvalidInput)
	}
	lines := make([]entity.TransferLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		qty := ledger.Quantize(l.RequestedQty)
		if l.ProductID == "" || !qty.IsPositive() {
			return nil, fmt.Errorf("%w: línea con producto y cantidad positiva", domain.ErrInvalidInput)
		}
		lines = append(lines, entity.TransferLine{
			ProductID:    l.ProductID,
			LotID:        l.LotID,
			UnitCost:     ledger.Quantize(l.UnitCost),
			RequestedQty: qty,
			ShippedQty:   decimal.Zero,
			ReceivedQty:  decimal.Zero,
			DamagedQty:   decimal.Zero,
		})
	}
	typ := in.Type
	if typ == "" {
		typ = entity.TransferStandard
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.seq++
	t := &entity.StockTransfer{
		ID:                     uuid.New().String(),
		TransferNumber:         fmt.Sprintf("TRF-%06d", o.seq),
		SourceWarehouseID:      in.SourceWarehouseID,
		DestinationWarehouseID: in.DestinationWarehouseID,
		Lines:                  lines,
		Status:                 entity.TransferDraft,
		Type:                   typ,
		Notes:                  in.Notes,
		ExpectedArrivalDate:    in.ExpectedArrivalDate,
		CreatedAt:              time.Now(),
		CreatedBy:              in.CreatedBy,
	}
	o.transfers[t.ID] = t
	cp := copyTransfer(t)
	return cp, nil
}

// Submit pasa la transferencia a PENDING_APPROVAL.
func (o *Orchestrator) Submit(transferID string) (*entity.StockTransfer, error) {
	return o.transition(transferID, entity.TransferPendingApproval, func(*entity.StockTransfer) {})
}

// Approve valida las cantidades solicitadas contra el disponible actual en
// origen y las reserva (vía el manager de reservas) para evitar sobreventa
// mientras la transferencia esté en tránsito. Si una línea no alcanza, las
// reservas ya tomadas se compensan y la transferencia queda en PENDING_APPROVAL.
func (o *Orchestrator) Approve(ctx context.Context, transferID string) (*entity.StockTransfer, error) {
	o.mu.Lock()
	t, ok := o.transfers[transferID]
	if !ok {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: transferencia %s", domain.ErrNotFound, transferID)
	}
	if t.Status != entity.TransferPendingApproval {
		status := t.Status
		o.mu.Unlock()
		return nil, &domain.InvalidStateTransitionError{
			Entity: "StockTransfer", From: string(status), To: string(entity.TransferApproved),
		}
	}
	// Copia de trabajo: las reservas se toman fuera del lock del orquestador
	// para no sostenerlo durante llamadas al journal.
	work := copyTransfer(t)
	o.mu.Unlock()

	reserved := make([]string, 0, len(work.Lines))
	for i := range work.Lines {
		l := &work.Lines[i]
		r, err := o.reservations.Reserve(ctx, reservation.ReserveInput{
			CellKey: entity.CellKey{
				ProductID:   l.ProductID,
				WarehouseID: work.SourceWarehouseID,
				LotID:       l.LotID,
			},
			Quantity:                l.RequestedQty,
			Type:                    entity.ReservationTransfer,
			ReferenceDocumentType:   "STOCK_TRANSFER",
			ReferenceDocumentNumber: work.TransferNumber,
			CreatedBy:               work.CreatedBy,
		})
		if err != nil {
			for _, id := range reserved {
				if relErr := o.reservations.Release(ctx, id); relErr != nil {
					o.log.Error().Err(relErr).Str("reservation", id).Msg("compensación de reserva de transferencia")
				}
			}
			return nil, err
		}
		l.ReservationID = r.ID
		reserved = append(reserved, r.ID)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	t = o.transfers[transferID]
	if t.Status != entity.TransferPendingApproval {
		// Carrera con Cancel: compensar las reservas recién tomadas.
		for _, id := range reserved {
			if relErr := o.reservations.Release(ctx, id); relErr != nil {
				o.log.Error().Err(relErr).Str("reservation", id).Msg("compensación tras carrera de aprobación")
			}
		}
		return nil, &domain.InvalidStateTransitionError{
			Entity: "StockTransfer", From: string(t.Status), To: string(entity.TransferApproved),
		}
	}
	now := time.Now()
	for i := range t.Lines {
		t.Lines[i].ReservationID = work.Lines[i].ReservationID
	}
	t.Status = entity.TransferApproved
	t.ApprovedAt = &now
	return copyTransfer(t), nil
}

// ShipLine cantidad a despachar de una línea.
type ShipLine struct {
	ProductID string
	Quantity  decimal.Decimal
}

// Ship despacha líneas: por cada una postea TransferOut en origen (consumiendo
// la reserva tomada al aprobar) y registra shippedQty. Una línea fallida deja
// su reserva intacta para reintento; las demás quedan despachadas. La
// transferencia pasa a SHIPPED cuando todas las líneas quedan completas.
func (o *Orchestrator) Ship(ctx context.Context, transferID string, lines []ShipLine) (*entity.StockTransfer, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	t, ok := o.transfers[transferID]
	if !ok {
		return nil, fmt.Errorf("%w: transferencia %s", domain.ErrNotFound, transferID)
	}
	if t.Status != entity.TransferApproved {
		return nil, &domain.InvalidStateTransitionError{
			Entity: "StockTransfer", From: string(t.Status), To: string(entity.TransferShipped),
		}
	}
	if len(lines) == 0 {
		for _, l := range t.Lines {
			lines = append(lines, ShipLine{ProductID: l.ProductID, Quantity: l.RequestedQty.Sub(l.ShippedQty)})
		}
	}

	var firstErr error
	for _, s := range lines {
		qty := ledger.Quantize(s.Quantity)
		if !qty.IsPositive() {
			continue
		}
		l := findLine(t, s.ProductID)
		if l == nil {
			return nil, fmt.Errorf("%w: producto %s no está en la transferencia", domain.ErrInvalidInput, s.ProductID)
		}
		if qty.GreaterThan(l.RequestedQty.Sub(l.ShippedQty)) {
			return nil, fmt.Errorf("%w: despacho %s excede lo aprobado pendiente", domain.ErrInvalidInput, qty)
		}
		o.shipSeq[t.ID]++
		doc := fmt.Sprintf("%s-OUT-%d", t.TransferNumber, o.shipSeq[t.ID])
		if _, err := o.reservations.FulfillTransferOut(ctx, l.ReservationID, qty, doc); err != nil {
			o.log.Warn().Err(err).Str("transfer", t.TransferNumber).Str("product", l.ProductID).
				Msg("línea no despachada; reserva intacta para reintento")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		l.ShippedQty = l.ShippedQty.Add(qty)

		srcKey := entity.CellKey{ProductID: l.ProductID, WarehouseID: t.SourceWarehouseID, LotID: l.LotID}
		dstKey := entity.CellKey{ProductID: l.ProductID, WarehouseID: t.DestinationWarehouseID, LotID: l.LotID}
		if err := o.journal.AdjustInTransit(ctx, srcKey, qty, decimal.Zero); err != nil {
			o.log.Error().Err(err).Str("cell", srcKey.String()).Msg("tránsito saliente")
		}
		if err := o.journal.AdjustInTransit(ctx, dstKey, decimal.Zero, qty); err != nil {
			o.log.Error().Err(err).Str("cell", dstKey.String()).Msg("tránsito entrante")
		}
	}

	if allShipped(t) {
		now := time.Now()
		t.Status = entity.TransferShipped
		t.ShippedAt = &now
		o.bus.Publish(event.Event{
			Kind:           event.TransferShipped,
			OccurredAt:     now,
			TransferID:     t.ID,
			TransferNumber: t.TransferNumber,
		})
	} else if firstErr != nil {
		return copyTransfer(t), firstErr
	}
	return copyTransfer(t), nil
}

// ReceiveLine cantidades recibidas y dañadas de una línea.
type ReceiveLine struct {
	ProductID string
	Received  decimal.Decimal
	Damaged   decimal.Decimal
}

// Receive registra la llegada a destino: postea TransferIn solo por lo recibido;
// lo dañado queda en la línea como merma (se concilia aparte con un ajuste si el
// operador lo decide). Invariante: received + damaged <= shipped.
func (o *Orchestrator) Receive(ctx context.Context, transferID string, lines []ReceiveLine) (*entity.StockTransfer, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	t, ok := o.transfers[transferID]
	if !ok {
		return nil, fmt.Errorf("%w: transferencia %s", domain.ErrNotFound, transferID)
	}
	if t.Status != entity.TransferShipped {
		return nil, &domain.InvalidStateTransitionError{
			Entity: "StockTransfer", From: string(t.Status), To: string(entity.TransferReceived),
		}
	}
	for _, rl := range lines {
		received := ledger.Quantize(rl.Received)
		damaged := ledger.Quantize(rl.Damaged)
		if received.IsNegative() || damaged.IsNegative() {
			return nil, fmt.Errorf("%w: cantidades recibidas/dañadas no pueden ser negativas", domain.ErrInvalidInput)
		}
		if received.IsZero() && damaged.IsZero() {
			continue
		}
		l := findLine(t, rl.ProductID)
		if l == nil {
			return nil, fmt.Errorf("%w: producto %s no está en la transferencia", domain.ErrInvalidInput, rl.ProductID)
		}
		if received.Add(damaged).GreaterThan(l.Remaining()) {
			return nil, fmt.Errorf("%w: recibido+dañado %s excede lo despachado pendiente %s",
				domain.ErrInvalidInput, received.Add(damaged), l.Remaining())
		}

		if received.IsPositive() {
			o.recvSeq[t.ID]++
			doc := fmt.Sprintf("%s-IN-%d", t.TransferNumber, o.recvSeq[t.ID])
			if _, err := o.journal.Append(ctx, journal.AppendInput{
				DocumentNumber: doc,
				CellKey: entity.CellKey{
					ProductID:   l.ProductID,
					WarehouseID: t.DestinationWarehouseID,
					LotID:       l.LotID,
				},
				Type:      entity.MovementTransferIn,
				Quantity:  received,
				UnitCost:  l.UnitCost,
				Reason:    "recepción de transferencia " + t.TransferNumber,
				CreatedBy: t.CreatedBy,
			}); err != nil {
				// El origen ya descontó: ventana de consistencia eventual aceptada,
				// cerrada por visibilidad de las transferencias SHIPPED.
				return copyTransfer(t), err
			}
		}
		l.ReceivedQty = l.ReceivedQty.Add(received)
		l.DamagedQty = l.DamagedQty.Add(damaged)
		if damaged.IsPositive() {
			o.log.Warn().Str("transfer", t.TransferNumber).Str("product", l.ProductID).
				Str("damaged", damaged.String()).Msg("merma registrada en recepción")
		}

		moved := received.Add(damaged)
		srcKey := entity.CellKey{ProductID: l.ProductID, WarehouseID: t.SourceWarehouseID, LotID: l.LotID}
		dstKey := entity.CellKey{ProductID: l.ProductID, WarehouseID: t.DestinationWarehouseID, LotID: l.LotID}
		if err := o.journal.AdjustInTransit(ctx, srcKey, moved.Neg(), decimal.Zero); err != nil {
			o.log.Error().Err(err).Str("cell", srcKey.String()).Msg("tránsito saliente")
		}
		if err := o.journal.AdjustInTransit(ctx, dstKey, decimal.Zero, moved.Neg()); err != nil {
			o.log.Error().Err(err).Str("cell", dstKey.String()).Msg("tránsito entrante")
		}
	}

	if allReceived(t) {
		now := time.Now()
		t.Status = entity.TransferReceived
		t.ReceivedAt = &now
	}
	return copyTransfer(t), nil
}

// Complete cierra la transferencia. Requiere todas las líneas totalmente
// recibidas, o closeShort explícito para cerrar corto lo pendiente.
func (o *Orchestrator) Complete(transferID string, closeShort bool) (*entity.StockTransfer, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	t, ok := o.transfers[transferID]
	if !ok {
		return nil, fmt.Errorf("%w: transferencia %s", domain.ErrNotFound, transferID)
	}
	switch t.Status {
	case entity.TransferReceived:
	case entity.TransferShipped:
		if !closeShort {
			return nil, &domain.InvalidStateTransitionError{
				Entity: "StockTransfer", From: string(t.Status), To: string(entity.TransferCompleted),
			}
		}
		for i := range t.Lines {
			if t.Lines[i].Remaining().IsPositive() {
				t.Lines[i].ClosedShort = true
			}
		}
	default:
		return nil, &domain.InvalidStateTransitionError{
			Entity: "StockTransfer", From: string(t.Status), To: string(entity.TransferCompleted),
		}
	}
	now := time.Now()
	t.Status = entity.TransferCompleted
	t.CompletedAt = &now

	o.bus.Publish(event.Event{
		Kind:           event.TransferCompleted,
		OccurredAt:     now,
		TransferID:     t.ID,
		TransferNumber: t.TransferNumber,
	})
	return copyTransfer(t), nil
}

// Cancel cancela la transferencia desde cualquier estado previo a SHIPPED;
// si estaba aprobada, libera las reservas de origen (compensación completa).
// Después de Ship solo compensa una reversión/ajuste manual.
func (o *Orchestrator) Cancel(ctx context.Context, transferID, reason string) (*entity.StockTransfer, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	t, ok := o.transfers[transferID]
	if !ok {
		return nil, fmt.Errorf("%w: transferencia %s", domain.ErrNotFound, transferID)
	}
	switch t.Status {
	case entity.TransferDraft, entity.TransferPendingApproval, entity.TransferApproved:
	default:
		return nil, &domain.InvalidStateTransitionError{
			Entity: "StockTransfer", From: string(t.Status), To: string(entity.TransferCancelled),
		}
	}
	if t.Status == entity.TransferApproved {
		for _, l := range t.Lines {
			if l.ReservationID == "" {
				continue
			}
			if err := o.reservations.Release(ctx, l.ReservationID); err != nil {
				o.log.Error().Err(err).Str("reservation", l.ReservationID).Msg("liberación al cancelar transferencia")
			}
		}
	}
	now := time.Now()
	t.Status = entity.TransferCancelled
	t.CancellationReason = reason
	t.CancelledAt = &now
	return copyTransfer(t), nil
}

// Get devuelve la transferencia por id.
func (o *Orchestrator) Get(transferID string) (*entity.StockTransfer, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	t, ok := o.transfers[transferID]
	if !ok {
		return nil, fmt.Errorf("%w: transferencia %s", domain.ErrNotFound, transferID)
	}
	return copyTransfer(t), nil
}

// ActiveTransfers devuelve las transferencias no terminales (lectura UI):
// visibilidad operativa sobre lo que está en tránsito.
func (o *Orchestrator) ActiveTransfers() []*entity.StockTransfer {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []*entity.StockTransfer
	for _, t := range o.transfers {
		if t.Status != entity.TransferCompleted && t.Status != entity.TransferCancelled {
			out = append(out, copyTransfer(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TransferNumber < out[j].TransferNumber })
	return out
}

func (o *Orchestrator) transition(transferID string, to entity.TransferStatus, apply func(*entity.StockTransfer)) (*entity.StockTransfer, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	t, ok := o.transfers[transferID]
	if !ok {
		return nil, fmt.Errorf("%w: transferencia %s", domain.ErrNotFound, transferID)
	}
	for _, allowed := range transferTransitions[t.Status] {
		if allowed == to {
			t.Status = to
			apply(t)
			return copyTransfer(t), nil
		}
	}
	return nil, &domain.InvalidStateTransitionError{
		Entity: "StockTransfer", From: string(t.Status), To: string(to),
	}
}

func findLine(t *entity.StockTransfer, productID string) *entity.TransferLine {
	for i := range t.Lines {
		if t.Lines[i].ProductID == productID {
			return &t.Lines[i]
		}
	}
	return nil
}

func allShipped(t *entity.StockTransfer) bool {
	for _, l := range t.Lines {
		if l.ShippedQty.LessThan(l.RequestedQty) {
			return false
		}
	}
	return true
}

func allReceived(t *entity.StockTransfer) bool {
	for _, l := range t.Lines {
		if l.Remaining().IsPositive() {
			return false
		}
	}
	return true
}

func copyTransfer(t *entity.StockTransfer) *entity.StockTransfer {
	cp := *t
	cp.Lines = make([]entity.TransferLine, len(t.Lines))
	copy(cp.Lines, t.Lines)
	return &cp
}
