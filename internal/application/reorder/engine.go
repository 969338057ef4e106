package reorder

import (
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

// consumptionWindow es la ventana histórica para estimar demanda diaria.
const consumptionWindow = 30 * 24 * time.Hour

type ruleKey struct {
	ProductID   string
	WarehouseID string
}

// Engine evalúa reglas de reposición cada vez que cambia la disponibilidad
// de una celda. Se suscribe al bus (MovementAppended, ReservationCreated) y
// garantiza a lo sumo una sugerencia abierta por (producto, bodega).
type Engine struct {
	journal *journal.Journal
	bus     *event.Bus
	log     *logger.Logger

	mu          sync.Mutex
	rules       map[ruleKey]*entity.ReorderRule
	suggestions map[string]*entity.ReorderSuggestion
	openByKey   map[ruleKey]string
}

// NewEngine construye el motor y lo suscribe al bus.
func NewEngine(j *journal.Journal, bus *event.Bus, log *logger.Logger) *Engine {
	e := &Engine{
		journal:     j,
		bus:         bus,
		log:         log,
		rules:       make(map[ruleKey]*entity.ReorderRule),
		suggestions: make(map[string]*entity.ReorderSuggestion),
		openByKey:   make(map[ruleKey]string),
	}
	bus.Subscribe(e.onStockChanged, event.MovementAppended, event.ReservationCreated)
	return e
}

// SetRule crea o reemplaza la regla del par (producto, bodega).
func (e *Engine) SetRule(r entity.ReorderRule) (*entity.ReorderRule, error) {
	if r.ProductID == "" || r.WarehouseID == "" {
		return nil, fmt.Errorf("%w: producto y bodega requeridos", domain.ErrInvalidInput)
	}
	if r.ReorderPoint.IsNegative() || r.ReorderQuantity.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: punto de reorden >= 0 y cantidad > 0", domain.ErrInvalidInput)
	}
	if r.MinimumStock.GreaterThan(r.ReorderPoint) {
		return nil, fmt.Errorf("%w: stock mínimo no puede exceder el punto de reorden", domain.ErrInvalidInput)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	k := ruleKey{ProductID: r.ProductID, WarehouseID: r.WarehouseID}
	rule := r
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	rule.MinimumStock = ledger.Quantize(rule.MinimumStock)
	rule.ReorderPoint = ledger.Quantize(rule.ReorderPoint)
	rule.ReorderQuantity = ledger.Quantize(rule.ReorderQuantity)
	rule.MaximumStock = ledger.Quantize(rule.MaximumStock)
	rule.UpdatedAt = time.Now()
	e.rules[k] = &rule
	cp := rule
	return &cp, nil
}

// Rule devuelve la regla del par, si existe.
func (e *Engine) Rule(productID, warehouseID string) (*entity.ReorderRule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rule, ok := e.rules[ruleKey{ProductID: productID, WarehouseID: warehouseID}]
	if !ok {
		return nil, fmt.Errorf("%w: regla %s/%s", domain.ErrNotFound, productID, warehouseID)
	}
	cp := *rule
	return &cp, nil
}

// onStockChanged es el handler del bus. Corre en la goroutine del suscriptor.
func (e *Engine) onStockChanged(ev event.Event) {
	key := ruleKey{ProductID: ev.CellKey.ProductID, WarehouseID: ev.CellKey.WarehouseID}
	if key.ProductID == "" || key.WarehouseID == "" {
		return
	}
	if _, err := e.Evaluate(key.ProductID, key.WarehouseID); err != nil {
		e.log.Error().Err(err).Str("product", key.ProductID).Msg("evaluar regla de reposición")
	}
}

// Evaluate revisa la regla del par contra la disponibilidad agregada de la
// bodega. Devuelve la sugerencia creada, o nil si no hubo disparo. Es
// idempotente mientras exista una sugerencia abierta.
func (e *Engine) Evaluate(productID, warehouseID string) (*entity.ReorderSuggestion, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	k := ruleKey{ProductID: productID, WarehouseID: warehouseID}
	rule, ok := e.rules[k]
	if !ok || !rule.IsActive {
		return nil, nil
	}

	available := e.availableLocked(productID, warehouseID)
	if available.LessThanOrEqual(rule.MinimumStock) {
		e.bus.Publish(event.Event{
			Kind:       event.StockBelowMinimum,
			OccurredAt: time.Now(),
			CellKey:    entity.CellKey{ProductID: productID, WarehouseID: warehouseID},
			Available:  available,
		})
	}
	if available.GreaterThan(rule.ReorderPoint) {
		return nil, nil
	}
	if _, open := e.openByKey[k]; open {
		return nil, nil
	}

	qty := rule.ReorderQuantity
	if rule.MaximumStock.IsPositive() {
		// No superar el stock máximo con la reposición sugerida.
		if headroom := rule.MaximumStock.Sub(available); headroom.LessThan(qty) {
			qty = headroom
		}
		if qty.LessThanOrEqual(decimal.Zero) {
			return nil, nil
		}
	}

	s := &entity.ReorderSuggestion{
		ID:                 uuid.New().String(),
		ProductID:          productID,
		WarehouseID:        warehouseID,
		SuggestedQuantity:  ledger.Quantize(qty),
		AvailableAtTrigger: available,
		DaysUntilStockout:  e.daysUntilStockout(productID, warehouseID, available),
		Status:             entity.SuggestionPending,
		CreatedAt:          time.Now(),
	}
	e.suggestions[s.ID] = s
	e.openByKey[k] = s.ID
	e.log.Info().
		Str("product", productID).
		Str("warehouse", warehouseID).
		Str("available", available.String()).
		Msg("sugerencia de reposición generada")
	e.bus.Publish(event.Event{
		Kind:         event.ReorderSuggested,
		OccurredAt:   s.CreatedAt,
		CellKey:      entity.CellKey{ProductID: productID, WarehouseID: warehouseID},
		Quantity:     s.SuggestedQuantity,
		Available:    available,
		SuggestionID: s.ID,
	})
	cp := *s
	return &cp, nil
}

// availableLocked suma available de todas las celdas del producto en la bodega.
func (e *Engine) availableLocked(productID, warehouseID string) decimal.Decimal {
	total := decimal.Zero
	for _, cell := range e.journal.CellsByProduct(productID) {
		if cell.Key.WarehouseID == warehouseID {
			total = total.Add(cell.Available())
		}
	}
	return total
}

// daysUntilStockout estima días hasta agotamiento a partir del consumo de
// salida de los últimos 30 días. -1 cuando no hay demanda histórica.
func (e *Engine) daysUntilStockout(productID, warehouseID string, available decimal.Decimal) int {
	since := time.Now().Add(-consumptionWindow)
	consumed := decimal.Zero
	for _, m := range e.journal.AllMovements() {
		if m.CellKey.ProductID != productID || m.CellKey.WarehouseID != warehouseID {
			continue
		}
		if m.Timestamp.Before(since) || !m.SignedQuantity.IsNegative() {
			continue
		}
		switch m.Type {
		case entity.MovementSalesIssue, entity.MovementTransferOut, entity.MovementLost:
			consumed = consumed.Add(m.SignedQuantity.Neg())
		}
	}
	if !consumed.IsPositive() {
		return -1
	}
	perDay := consumed.Div(decimal.NewFromInt(int64(consumptionWindow / (24 * time.Hour))))
	return int(available.Div(perDay).IntPart())
}

// Approve aprueba la sugerencia pendiente.
func (e *Engine) Approve(suggestionID string) (*entity.ReorderSuggestion, error) {
	return e.resolve(suggestionID, entity.SuggestionApproved, map[entity.SuggestionStatus]bool{
		entity.SuggestionPending: true,
	}, "")
}

// Reject rechaza la sugerencia y reabre el disparo del par.
func (e *Engine) Reject(suggestionID string) (*entity.ReorderSuggestion, error) {
	return e.resolve(suggestionID, entity.SuggestionRejected, map[entity.SuggestionStatus]bool{
		entity.SuggestionPending: true,
	}, "")
}

// Cancel cancela una sugerencia abierta.
func (e *Engine) Cancel(suggestionID string) (*entity.ReorderSuggestion, error) {
	return e.resolve(suggestionID, entity.SuggestionCancelled, map[entity.SuggestionStatus]bool{
		entity.SuggestionPending:  true,
		entity.SuggestionApproved: true,
	}, "")
}

// ConvertToOrder marca la sugerencia aprobada como convertida a orden de compra.
func (e *Engine) ConvertToOrder(suggestionID, purchaseOrderRef string) (*entity.ReorderSuggestion, error) {
	if purchaseOrderRef == "" {
		return nil, fmt.Errorf("%w: referencia de orden de compra requerida", domain.ErrInvalidInput)
	}
	return e.resolve(suggestionID, entity.SuggestionConvertedToOrder, map[entity.SuggestionStatus]bool{
		entity.SuggestionApproved: true,
	}, purchaseOrderRef)
}

func (e *Engine) resolve(suggestionID string, to entity.SuggestionStatus, from map[entity.SuggestionStatus]bool, poRef string) (*entity.ReorderSuggestion, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.suggestions[suggestionID]
	if !ok {
		return nil, fmt.Errorf("%w: sugerencia %s", domain.ErrNotFound, suggestionID)
	}
	if !from[s.Status] {
		return nil, &domain.InvalidStateTransitionError{
			Entity: "ReorderSuggestion", From: string(s.Status), To: string(to),
		}
	}
	s.Status = to
	if poRef != "" {
		s.PurchaseOrderRef = poRef
	}
	now := time.Now()
	s.ResolvedAt = &now
	if !s.Open() {
		k := ruleKey{ProductID: s.ProductID, WarehouseID: s.WarehouseID}
		if e.openByKey[k] == s.ID {
			delete(e.openByKey, k)
		}
	}
	cp := *s
	return &cp, nil
}

// Suggestion devuelve la sugerencia por id.
func (e *Engine) Suggestion(suggestionID string) (*entity.ReorderSuggestion, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.suggestions[suggestionID]
	if !ok {
		return nil, fmt.Errorf("%w: sugerencia %s", domain.ErrNotFound, suggestionID)
	}
	cp := *s
	return &cp, nil
}

// Suggestions devuelve las sugerencias, opcionalmente filtradas por estado.
func (e *Engine) Suggestions(status entity.SuggestionStatus) []*entity.ReorderSuggestion {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*entity.ReorderSuggestion, 0, len(e.suggestions))
	for _, s := range e.suggestions {
		if status != "" && s.Status != status {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
