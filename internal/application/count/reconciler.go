package count

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
	"github.com/tu-usuario/stock-ledger/internal/domain/ledger"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

// Transiciones manuales permitidas del conteo.
var countTransitions = map[entity.CountStatus][]entity.CountStatus{
	entity.CountDraft:      {entity.CountInProgress, entity.CountCancelled},
	entity.CountInProgress: {entity.CountCompleted, entity.CountCancelled},
	entity.CountCompleted:  {entity.CountApproved, entity.CountRejected, entity.CountCancelled},
	entity.CountApproved:   {entity.CountAdjusted, entity.CountCancelled},
}

// Reconciler congela un snapshot del sistema, lo compara contra el conteo
// físico y emite movimientos de corrección. El ledger, no el conteo, es la
// fuente de verdad después de procesar.
type Reconciler struct {
	journal *journal.Journal
	log     *logger.Logger

	mu     sync.Mutex
	counts map[string]*entity.StockCount
	seq    int
}

// NewReconciler construye el reconciliador.
func NewReconciler(j *journal.Journal, log *logger.Logger) *Reconciler {
	return &Reconciler{
		journal: j,
		log:     log,
		counts:  make(map[string]*entity.StockCount),
	}
}

// StartCount congela systemQuantity con el onHand de cada celda de la bodega
// en este instante. Movimientos concurrentes posteriores no alteran el snapshot:
// se congela copiando, no bloqueando las celdas durante el conteo.
// scope opcional: limita a un producto.
func (r *Reconciler) StartCount(warehouseID, scope, createdBy string) (*entity.StockCount, error) {
	if warehouseID == "" {
		return nil, fmt.Errorf("%w: bodega requerida", domain.ErrInvalidInput)
	}
	cells := r.journal.CellsByWarehouse(warehouseID)
	var lines []entity.CountLine
	for _, c := range cells {
		if scope != "" && c.Key.ProductID != scope {
			continue
		}
		lines = append(lines, entity.CountLine{
			CellKey:        c.Key,
			SystemQuantity: c.OnHand,
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].CellKey.String() < lines[j].CellKey.String() })

	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	now := time.Now()
	sc := &entity.StockCount{
		ID:          uuid.New().String(),
		CountNumber: fmt.Sprintf("CNT-%06d", r.seq),
		WarehouseID: warehouseID,
		Scope:       scope,
		Lines:       lines,
		Status:      entity.CountInProgress,
		StartedAt:   now,
		CreatedBy:   createdBy,
	}
	r.counts[sc.ID] = sc
	return copyCount(sc), nil
}

// RecordCount registra la cantidad contada de una celda y calcula la varianza
// contra el snapshot congelado.
func (r *Reconciler) RecordCount(countID string, key entity.CellKey, counted decimal.Decimal) (*entity.StockCount, error) {
	counted = ledger.Quantize(counted)
	if counted.IsNegative() {
		return nil, fmt.Errorf("%w: cantidad contada no puede ser negativa", domain.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	sc, ok := r.counts[countID]
	if !ok {
		return nil, fmt.Errorf("%w: conteo %s", domain.ErrNotFound, countID)
	}
	if sc.Status != entity.CountInProgress {
		return nil, &domain.InvalidStateTransitionError{
			Entity: "StockCount", From: string(sc.Status), To: "record",
		}
	}
	for i := range sc.Lines {
		l := &sc.Lines[i]
		if l.CellKey == key {
			if l.Counted {
				l.Recount = true
			}
			l.CountedQuantity = counted
			l.Variance = counted.Sub(l.SystemQuantity)
			l.Counted = true
			return copyCount(sc), nil
		}
	}
	return nil, fmt.Errorf("%w: celda %s no está en el conteo", domain.ErrNotFound, key)
}

// Complete cierra la captura. Requiere todas las líneas contadas.
func (r *Reconciler) Complete(countID string) (*entity.StockCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc, ok := r.counts[countID]
	if !ok {
		return nil, fmt.Errorf("%w: conteo %s", domain.ErrNotFound, countID)
	}
	if sc.Status != entity.CountInProgress {
		return nil, &domain.InvalidStateTransitionError{
			Entity: "StockCount", From: string(sc.Status), To: string(entity.CountCompleted),
		}
	}
	for _, l := range sc.Lines {
		if !l.Counted {
			return nil, fmt.Errorf("%w: celda %s sin contar", domain.ErrConflict, l.CellKey)
		}
	}
	now := time.Now()
	sc.Status = entity.CountCompleted
	sc.CompletedAt = &now
	return copyCount(sc), nil
}

// Approve es la compuerta humana obligatoria antes de postear correcciones.
func (r *Reconciler) Approve(countID, approvedBy string) (*entity.StockCount, error) {
	return r.transition(countID, entity.CountApproved, func(sc *entity.StockCount) {
		now := time.Now()
		sc.ApprovedAt = &now
		sc.ApprovedBy = approvedBy
	})
}

// Reject rechaza el conteo; el stock queda intacto.
func (r *Reconciler) Reject(countID string) (*entity.StockCount, error) {
	return r.transition(countID, entity.CountRejected, func(*entity.StockCount) {})
}

// Cancel cancela el conteo; el stock queda intacto.
func (r *Reconciler) Cancel(countID string) (*entity.StockCount, error) {
	return r.transition(countID, entity.CountCancelled, func(*entity.StockCount) {})
}

// Process postea por cada línea con varianza distinta de cero un movimiento de
// ajuste igual a la varianza, calculada contra el snapshot congelado (no contra
// el onHand actual): la compra concurrente que llegó a mitad del conteo y la
// corrección quedan reflejadas de forma independiente en el ledger.
func (r *Reconciler) Process(ctx context.Context, countID, processedBy string) (*entity.StockCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc, ok := r.counts[countID]
	if !ok {
		return nil, fmt.Errorf("%w: conteo %s", domain.ErrNotFound, countID)
	}
	if sc.Status != entity.CountApproved {
		return nil, &domain.InvalidStateTransitionError{
			Entity: "StockCount", From: string(sc.Status), To: string(entity.CountAdjusted),
		}
	}

	for i := range sc.Lines {
		l := &sc.Lines[i]
		if l.Variance.IsZero() {
			continue
		}
		typ := entity.MovementAdjustmentIncrease
		if l.Variance.IsNegative() {
			typ = entity.MovementAdjustmentDecrease
		}
		// documentNumber determinístico por conteo+celda: reintentos tras un
		// fallo parcial hacen replay idempotente de las líneas ya posteadas.
		doc := fmt.Sprintf("%s-%s", sc.CountNumber, l.CellKey)
		if _, err := r.journal.Append(ctx, journal.AppendInput{
			DocumentNumber: doc,
			CellKey:        l.CellKey,
			Type:           typ,
			Quantity:       l.Variance,
			Reason:         "corrección de conteo " + sc.CountNumber,
			CreatedBy:      processedBy,
		}); err != nil {
			return copyCount(sc), fmt.Errorf("procesar línea %s: %w", l.CellKey, err)
		}
	}
	now := time.Now()
	sc.Status = entity.CountAdjusted
	sc.ProcessedAt = &now
	r.log.Info().Str("count", sc.CountNumber).Msg("conteo procesado; correcciones posteadas")
	return copyCount(sc), nil
}

// Get devuelve el conteo por id.
func (r *Reconciler) Get(countID string) (*entity.StockCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc, ok := r.counts[countID]
	if !ok {
		return nil, fmt.Errorf("%w: conteo %s", domain.ErrNotFound, countID)
	}
	return copyCount(sc), nil
}

// List devuelve todos los conteos ordenados por número.
func (r *Reconciler) List() []*entity.StockCount {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.StockCount, 0, len(r.counts))
	for _, sc := range r.counts {
		out = append(out, copyCount(sc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CountNumber < out[j].CountNumber })
	return out
}

func (r *Reconciler) transition(countID string, to entity.CountStatus, apply func(*entity.StockCount)) (*entity.StockCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc, ok := r.counts[countID]
	if !ok {
		return nil, fmt.Errorf("%w: conteo %s", domain.ErrNotFound, countID)
	}
	for _, allowed := range countTransitions[sc.Status] {
		if allowed == to {
			sc.Status = to
			apply(sc)
			return copyCount(sc), nil
		}
	}
	return nil, &domain.InvalidStateTransitionError{
		Entity: "StockCount", From: string(sc.Status), To: string(to),
	}
}

func copyCount(sc *entity.StockCount) *entity.StockCount {
	cp := *sc
	cp.Lines = make([]entity.CountLine, len(sc.Lines))
	copy(cp.Lines, sc.Lines)
	return &cp
}
