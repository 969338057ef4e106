package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/stock-ledger/internal/application/journal"
	"github.com/tu-usuario/stock-ledger/internal/application/usecase"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/event"
	"github.com/tu-usuario/stock-ledger/internal/infrastructure/memory"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

// El updater se construye con un bus propio y se ejercita llamando Apply
// directamente: las aserciones no dependen del despacho asíncrono.
func newCostFixture(t *testing.T) (*usecase.CostUpdater, *journal.Journal, *memory.ProductRepo) {
	t.Helper()
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	repo := memory.NewProductRepository()
	j := journal.New(memory.NewLedgerStorage(), event.NewBus(0), nil, log)
	return usecase.NewCostUpdater(repo, j, event.NewBus(0), log), j, repo
}

func seedProduct(t *testing.T, repo *memory.ProductRepo, id string) {
	t.Helper()
	now := time.Now()
	require.NoError(t, repo.Create(&entity.Product{
		ID: id, SKU: "SKU-" + id, Name: "Producto " + id,
		Cost: decimal.Zero, UnitMeasure: "94", CreatedAt: now, UpdatedAt: now,
	}))
}

func purchase(t *testing.T, j *journal.Journal, doc, product string, qty, unitCost string) event.Event {
	t.Helper()
	key := entity.CellKey{ProductID: product, WarehouseID: "W1"}
	id, err := j.Append(context.Background(), journal.AppendInput{
		DocumentNumber: doc,
		CellKey:        key,
		Type:           entity.MovementPurchase,
		Quantity:       decimal.RequireFromString(qty),
		UnitCost:       decimal.RequireFromString(unitCost),
	})
	require.NoError(t, err)
	return event.Event{
		Kind:         event.MovementAppended,
		CellKey:      key,
		MovementID:   id,
		MovementType: entity.MovementPurchase,
		Quantity:     decimal.RequireFromString(qty),
		UnitCost:     decimal.RequireFromString(unitCost),
	}
}

func TestCostUpdater_PrimeraCompraFijaElCosto(t *testing.T) {
	u, j, repo := newCostFixture(t)
	seedProduct(t, repo, "P1")

	u.Apply(purchase(t, j, "FC-001", "P1", "10", "5"))

	p, err := repo.GetByID("P1")
	require.NoError(t, err)
	assert.True(t, p.Cost.Equal(decimal.RequireFromString("5")), "costo %s", p.Cost)
}

func TestCostUpdater_PromedioPonderadoEntreCompras(t *testing.T) {
	u, j, repo := newCostFixture(t)
	seedProduct(t, repo, "P1")

	u.Apply(purchase(t, j, "FC-001", "P1", "10", "5"))
	// (10*5 + 10*7) / 20 = 6
	u.Apply(purchase(t, j, "FC-002", "P1", "10", "7"))

	p, err := repo.GetByID("P1")
	require.NoError(t, err)
	assert.True(t, p.Cost.Equal(decimal.RequireFromString("6")), "costo %s", p.Cost)
}

func TestCostUpdater_SalidasNoCambianElCosto(t *testing.T) {
	u, j, repo := newCostFixture(t)
	seedProduct(t, repo, "P1")
	u.Apply(purchase(t, j, "FC-001", "P1", "10", "5"))

	key := entity.CellKey{ProductID: "P1", WarehouseID: "W1"}
	_, err := j.Append(context.Background(), journal.AppendInput{
		DocumentNumber: "VD-001",
		CellKey:        key,
		Type:           entity.MovementSalesIssue,
		Quantity:       decimal.RequireFromString("-4"),
	})
	require.NoError(t, err)
	u.Apply(event.Event{
		Kind:         event.MovementAppended,
		CellKey:      key,
		MovementType: entity.MovementSalesIssue,
		Quantity:     decimal.RequireFromString("-4"),
	})

	p, err := repo.GetByID("P1")
	require.NoError(t, err)
	assert.True(t, p.Cost.Equal(decimal.RequireFromString("5")), "una salida no recalcula el promedio")
}

func TestCostUpdater_ProductoFueraDelCatalogoSeIgnora(t *testing.T) {
	u, j, _ := newCostFixture(t)

	// Sin producto registrado: no debe fallar ni crear nada.
	u.Apply(purchase(t, j, "FC-001", "P-DESCONOCIDO", "10", "5"))
}

func TestCostUpdater_RedondeaACuatroDecimales(t *testing.T) {
	u, j, repo := newCostFixture(t)
	seedProduct(t, repo, "P1")

	u.Apply(purchase(t, j, "FC-001", "P1", "3", "10"))
	// (3*10 + 1*0.01) / 4 = 7.5025
	u.Apply(purchase(t, j, "FC-002", "P1", "1", "0.01"))

	p, err := repo.GetByID("P1")
	require.NoError(t, err)
	assert.True(t, p.Cost.Equal(decimal.RequireFromString("7.5025")), "costo %s", p.Cost)
}
