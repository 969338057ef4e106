package adjustment

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

// Transiciones manuales permitidas del ajuste.
var adjustmentTransitions = map[entity.AdjustmentStatus][]entity.AdjustmentStatus{
	entity.AdjustmentDraft:           {entity.AdjustmentPendingApproval, entity.AdjustmentCancelled},
	entity.AdjustmentPendingApproval: {entity.AdjustmentApproved, entity.AdjustmentRejected, entity.AdjustmentCancelled},
	entity.AdjustmentApproved:        {entity.AdjustmentProcessed, entity.AdjustmentCancelled},
}

// UseCase administra el ciclo de vida de ajustes de inventario:
// Draft → PendingApproval → Approved → Processed. Procesar postea un
// movimiento por línea a través del journal.
type UseCase struct {
	journal *journal.Journal
	log     *logger.Logger

	mu          sync.Mutex
	adjustments map[string]*entity.InventoryAdjustment
	seq         int
}

// NewUseCase construye el caso de uso.
func NewUseCase(j *journal.Journal, log *logger.Logger) *UseCase {
	return &UseCase{
		journal:     j,
		log:         log,
		adjustments: make(map[string]*entity.InventoryAdjustment),
	}
}

// LineInput línea del ajuste.
type LineInput struct {
	CellKey       entity.CellKey
	DeltaQuantity decimal.Decimal
	UnitCost      decimal.Decimal
	Reason        string
}

// Create crea el ajuste en DRAFT.
func (uc *UseCase) Create(warehouseID, notes, createdBy string, lines []LineInput) (*entity.InventoryAdjustment, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: al menos una línea", domain.ErrInvalidInput)
	}
	entLines := make([]entity.AdjustmentLine, 0, len(lines))
	for _, l := range lines {
		delta := ledger.Quantize(l.DeltaQuantity)
		if delta.IsZero() || l.CellKey.ProductID == "" || l.CellKey.WarehouseID == "" {
			return nil, fmt.Errorf("%w: línea con celda y delta distinto de cero", domain.ErrInvalidInput)
		}
		entLines = append(entLines, entity.AdjustmentLine{
			CellKey:       l.CellKey,
			DeltaQuantity: delta,
			UnitCost:      ledger.Quantize(l.UnitCost),
			Reason:        l.Reason,
		})
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.seq++
	adj := &entity.InventoryAdjustment{
		ID:               uuid.New().String(),
		AdjustmentNumber: fmt.Sprintf("ADJ-%06d", uc.seq),
		WarehouseID:      warehouseID,
		Lines:            entLines,
		Status:           entity.AdjustmentDraft,
		Notes:            notes,
		CreatedAt:        time.Now(),
		CreatedBy:        createdBy,
	}
	uc.adjustments[adj.ID] = adj
	return copyAdjustment(adj), nil
}

// Submit envía el ajuste a aprobación.
func (uc *UseCase) Submit(adjustmentID string) (*entity.InventoryAdjustment, error) {
	return uc.transition(adjustmentID, entity.AdjustmentPendingApproval, func(*entity.InventoryAdjustment) {})
}

// Approve aprueba el ajuste (compuerta humana).
func (uc *UseCase) Approve(adjustmentID, approvedBy string) (*entity.InventoryAdjustment, error) {
	return uc.transition(adjustmentID, entity.AdjustmentApproved, func(a *entity.InventoryAdjustment) {
		now := time.Now()
		a.ApprovedAt = &now
		a.ApprovedBy = approvedBy
	})
}

// Reject rechaza el ajuste; el stock queda intacto.
func (uc *UseCase) Reject(adjustmentID string) (*entity.InventoryAdjustment, error) {
	return uc.transition(adjustmentID, entity.AdjustmentRejected, func(*entity.InventoryAdjustment) {})
}

// Cancel cancela el ajuste; el stock queda intacto.
func (uc *UseCase) Cancel(adjustmentID string) (*entity.InventoryAdjustment, error) {
	return uc.transition(adjustmentID, entity.AdjustmentCancelled, func(*entity.InventoryAdjustment) {})
}

// Process postea un movimiento por línea (AdjustmentIncrease/Decrease según el
// signo del delta). documentNumber determinístico por ajuste+celda: un reintento
// tras fallo parcial hace replay idempotente de las líneas ya posteadas.
func (uc *UseCase) Process(ctx context.Context, adjustmentID, processedBy string) (*entity.InventoryAdjustment, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	adj, ok := uc.adjustments[adjustmentID]
	if !ok {
		return nil, fmt.Errorf("%w: ajuste %s", domain.ErrNotFound, adjustmentID)
	}
	if adj.Status != entity.AdjustmentApproved {
		return nil, &domain.InvalidStateTransitionError{
			Entity: "InventoryAdjustment", From: string(adj.Status), To: string(entity.AdjustmentProcessed),
		}
	}
	for _, l := range adj.Lines {
		typ := entity.MovementAdjustmentIncrease
		if l.DeltaQuantity.IsNegative() {
			typ = entity.MovementAdjustmentDecrease
		}
		doc := fmt.Sprintf("%s-%s", adj.AdjustmentNumber, l.CellKey)
		if _, err := uc.journal.Append(ctx, journal.AppendInput{
			DocumentNumber: doc,
			CellKey:        l.CellKey,
			Type:           typ,
			Quantity:       l.DeltaQuantity,
			UnitCost:       l.UnitCost,
			Reason:         l.Reason,
			CreatedBy:      processedBy,
		}); err != nil {
			return copyAdjustment(adj), fmt.Errorf("procesar línea %s: %w", l.CellKey, err)
		}
	}
	now := time.Now()
	adj.Status = entity.AdjustmentProcessed
	adj.ProcessedAt = &now
	uc.log.Info().Str("adjustment", adj.AdjustmentNumber).Msg("ajuste procesado")
	return copyAdjustment(adj), nil
}

// Get devuelve el ajuste por id.
func (uc *UseCase) Get(adjustmentID string) (*entity.InventoryAdjustment, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	adj, ok := uc.adjustments[adjustmentID]
	if !ok {
		return nil, fmt.Errorf("%w: ajuste %s", domain.ErrNotFound, adjustmentID)
	}
	return copyAdjustment(adj), nil
}

// List devuelve todos los ajustes ordenados por número.
func (uc *UseCase) List() []*entity.InventoryAdjustment {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	out := make([]*entity.InventoryAdjustment, 0, len(uc.adjustments))
	for _, adj := range uc.adjustments {
		out = append(out, copyAdjustment(adj))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AdjustmentNumber < out[j].AdjustmentNumber })
	return out
}

func (uc *UseCase) transition(adjustmentID string, to entity.AdjustmentStatus, apply func(*entity.InventoryAdjustment)) (*entity.InventoryAdjustment, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	adj, ok := uc.adjustments[adjustmentID]
	if !ok {
		return nil, fmt.Errorf("%w: ajuste %s", domain.ErrNotFound, adjustmentID)
	}
	for _, allowed := range adjustmentTransitions[adj.Status] {
		if allowed == to {
			adj.Status = to
			apply(adj)
			return copyAdjustment(adj), nil
		}
	}
	return nil, &domain.InvalidStateTransitionError{
		Entity: "InventoryAdjustment", From: string(adj.Status), To: string(to),
	}
}

func copyAdjustment(adj *entity.InventoryAdjustment) *entity.InventoryAdjustment {
	cp := *adj
	cp.Lines = make([]entity.AdjustmentLine, len(adj.Lines))
	copy(cp.Lines, adj.Lines)
	return &cp
}
