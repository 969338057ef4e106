package usecase

import (
	"sync"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stock-ledger/internal/application/journal"
	"github.com/tu-usuario/stock-ledger/internal/domain/event"
	"github.com/tu-usuario/stock-ledger/internal/domain/ledger"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

// CostUpdater mantiene el costo promedio ponderado del producto: cada entrada
// valorada (compra, recepción de transferencia) recalcula Product.Cost con
// ledger.CostCalculator. Escucha MovementAppended en el bus; el costo es
// informativo y su actualización nunca bloquea el camino del journal.
type CostUpdater struct {
	products repository.ProductRepository
	journal  *journal.Journal
	log      *logger.Logger

	mu sync.Mutex // serializa el leer-calcular-escribir del costo por producto
}

// NewCostUpdater construye el actualizador y lo suscribe al bus.
func NewCostUpdater(products repository.ProductRepository, j *journal.Journal, bus *event.Bus, log *logger.Logger) *CostUpdater {
	u := &CostUpdater{products: products, journal: j, log: log}
	bus.Subscribe(u.onMovementAppended, event.MovementAppended)
	return u
}

func (u *CostUpdater) onMovementAppended(ev event.Event) {
	u.Apply(ev)
}

// Apply recalcula el costo promedio del producto para una entrada valorada.
// NuevoCosto = ((StockPrevio * CostoActual) + (CantEntrada * CostoEntrada)) / (StockPrevio + CantEntrada)
func (u *CostUpdater) Apply(ev event.Event) {
	if !ev.MovementType.AffectsAverageCost() || !ev.Quantity.IsPositive() {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	productID := ev.CellKey.ProductID
	product, err := u.products.GetByID(productID)
	if err != nil || product == nil {
		// Movimientos sobre productos fuera del catálogo no llevan costo promedio.
		return
	}

	// Stock previo a la entrada: total en mano del producto menos lo recién aplicado.
	prev := u.totalOnHand(productID).Sub(ev.Quantity)
	if prev.IsNegative() {
		prev = decimal.Zero
	}
	newCost := ledger.Quantize(ledger.CostCalculator(prev, product.Cost, ev.Quantity, ev.UnitCost))
	if newCost.Equal(product.Cost) {
		return
	}
	if err := u.products.UpdateCost(productID, newCost); err != nil {
		u.log.Warn().Err(err).Str("product_id", productID).
			Str("cost", newCost.String()).Msg("actualización de costo promedio")
		return
	}
	u.log.Debug().Str("product_id", productID).
		Str("previous_cost", product.Cost.String()).Str("cost", newCost.String()).
		Msg("costo promedio recalculado")
}

func (u *CostUpdater) totalOnHand(productID string) decimal.Decimal {
	total := decimal.Zero
	for _, c := range u.journal.CellsByProduct(productID) {
		total = total.Add(c.OnHand)
	}
	return total
}
