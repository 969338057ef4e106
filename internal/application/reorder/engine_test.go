package reorder_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/stock-ledger/internal/application/journal"
	"github.com/tu-usuario/stock-ledger/internal/application/reorder"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/event"
	"github.com/tu-usuario/stock-ledger/internal/infrastructure/memory"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

// newEngine usa buses separados para el journal y el motor: así los tests
// evalúan explícitamente sin carreras con el disparo asíncrono por eventos.
func newEngine(t *testing.T) (*reorder.Engine, *journal.Journal) {
	t.Helper()
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	j := journal.New(memory.NewLedgerStorage(), event.NewBus(0), nil, log)
	return reorder.NewEngine(j, event.NewBus(0), log), j
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func post(t *testing.T, j *journal.Journal, doc, product string, typ entity.MovementType, qty string) {
	t.Helper()
	_, err := j.Append(context.Background(), journal.AppendInput{
		DocumentNumber: doc,
		CellKey:        entity.CellKey{ProductID: product, WarehouseID: "W1"},
		Type:           typ,
		Quantity:       dec(qty),
	})
	require.NoError(t, err)
}

func setRule(t *testing.T, e *reorder.Engine, min, point, qty, max string) *entity.ReorderRule {
	t.Helper()
	r, err := e.SetRule(entity.ReorderRule{
		ProductID:       "P1",
		WarehouseID:     "W1",
		MinimumStock:    dec(min),
		ReorderPoint:    dec(point),
		ReorderQuantity: dec(qty),
		MaximumStock:    dec(max),
		IsActive:        true,
	})
	require.NoError(t, err)
	return r
}

func TestSetRule_Validaciones(t *testing.T) {
	e, _ := newEngine(t)

	_, err := e.SetRule(entity.ReorderRule{ProductID: "P1", WarehouseID: "W1",
		ReorderPoint: dec("-1"), ReorderQuantity: dec("10")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.SetRule(entity.ReorderRule{ProductID: "P1", WarehouseID: "W1",
		ReorderPoint: dec("5"), ReorderQuantity: decimal.Zero})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.SetRule(entity.ReorderRule{ProductID: "P1", WarehouseID: "W1",
		MinimumStock: dec("10"), ReorderPoint: dec("5"), ReorderQuantity: dec("10")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEvaluate_DisparaEnPuntoDeReorden(t *testing.T) {
	e, j := newEngine(t)
	setRule(t, e, "2", "10", "50", "0")
	post(t, j, "OPEN-1", "P1", entity.MovementOpening, "30")

	// Disponible 30 > punto 10: sin disparo.
	s, err := e.Evaluate("P1", "W1")
	require.NoError(t, err)
	assert.Nil(t, s)

	// Sale stock hasta quedar en el punto de reorden.
	post(t, j, "VD-1", "P1", entity.MovementSalesIssue, "-20")
	s, err = e.Evaluate("P1", "W1")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, entity.SuggestionPending, s.Status)
	assert.True(t, s.SuggestedQuantity.Equal(dec("50")))
	assert.True(t, s.AvailableAtTrigger.Equal(dec("10")))
}

func TestEvaluate_UnaSolaSugerenciaAbierta(t *testing.T) {
	e, j := newEngine(t)
	setRule(t, e, "0", "10", "50", "0")
	post(t, j, "OPEN-1", "P1", entity.MovementOpening, "5")

	s1, err := e.Evaluate("P1", "W1")
	require.NoError(t, err)
	require.NotNil(t, s1)

	// Una segunda evaluación bajo el punto no crea otra sugerencia.
	s2, err := e.Evaluate("P1", "W1")
	require.NoError(t, err)
	assert.Nil(t, s2)
	assert.Len(t, e.Suggestions(""), 1)
}

func TestResolve_RechazarReabreElDisparo(t *testing.T) {
	e, j := newEngine(t)
	setRule(t, e, "0", "10", "50", "0")
	post(t, j, "OPEN-1", "P1", entity.MovementOpening, "5")

	s1, err := e.Evaluate("P1", "W1")
	require.NoError(t, err)
	require.NotNil(t, s1)

	_, err = e.Reject(s1.ID)
	require.NoError(t, err)

	// Rechazada: el par vuelve a ser elegible.
	s2, err := e.Evaluate("P1", "W1")
	require.NoError(t, err)
	require.NotNil(t, s2)
	assert.NotEqual(t, s1.ID, s2.ID)
}

func TestResolve_AprobadaSigueBloqueando(t *testing.T) {
	e, j := newEngine(t)
	setRule(t, e, "0", "10", "50", "0")
	post(t, j, "OPEN-1", "P1", entity.MovementOpening, "5")

	s1, err := e.Evaluate("P1", "W1")
	require.NoError(t, err)
	_, err = e.Approve(s1.ID)
	require.NoError(t, err)

	s2, err := e.Evaluate("P1", "W1")
	require.NoError(t, err)
	assert.Nil(t, s2, "una sugerencia aprobada sin convertir sigue abierta")
}

func TestConvertToOrder_RequiereAprobadaYReferencia(t *testing.T) {
	e, j := newEngine(t)
	setRule(t, e, "0", "10", "50", "0")
	post(t, j, "OPEN-1", "P1", entity.MovementOpening, "5")

	s, err := e.Evaluate("P1", "W1")
	require.NoError(t, err)

	// Sin aprobar no se convierte.
	_, err = e.ConvertToOrder(s.ID, "PO-99")
	var stateErr *domain.InvalidStateTransitionError
	require.True(t, errors.As(err, &stateErr))

	_, err = e.Approve(s.ID)
	require.NoError(t, err)

	_, err = e.ConvertToOrder(s.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := e.ConvertToOrder(s.ID, "PO-99")
	require.NoError(t, err)
	assert.Equal(t, entity.SuggestionConvertedToOrder, got.Status)
	assert.Equal(t, "PO-99", got.PurchaseOrderRef)

	// Convertida: el par queda libre para un nuevo disparo.
	s2, err := e.Evaluate("P1", "W1")
	require.NoError(t, err)
	assert.NotNil(t, s2)
}

func TestEvaluate_RespetaStockMaximo(t *testing.T) {
	e, j := newEngine(t)
	setRule(t, e, "0", "10", "50", "40")
	post(t, j, "OPEN-1", "P1", entity.MovementOpening, "8")

	s, err := e.Evaluate("P1", "W1")
	require.NoError(t, err)
	require.NotNil(t, s)
	// 40 máximo - 8 disponibles = 32 sugeridas, no las 50 de la regla.
	assert.True(t, s.SuggestedQuantity.Equal(dec("32")))
}

func TestEvaluate_ReglaInactivaNoDispara(t *testing.T) {
	e, j := newEngine(t)
	r := setRule(t, e, "0", "10", "50", "0")
	r.IsActive = false
	_, err := e.SetRule(*r)
	require.NoError(t, err)
	post(t, j, "OPEN-1", "P1", entity.MovementOpening, "5")

	s, err := e.Evaluate("P1", "W1")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestDaysUntilStockout_SinDemandaEsMenosUno(t *testing.T) {
	e, j := newEngine(t)
	setRule(t, e, "0", "10", "50", "0")
	post(t, j, "OPEN-1", "P1", entity.MovementOpening, "5")

	s, err := e.Evaluate("P1", "W1")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, -1, s.DaysUntilStockout)
}

func TestOnStockChanged_DisparaPorEventoDelBus(t *testing.T) {
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	bus := event.NewBus(0)
	j := journal.New(memory.NewLedgerStorage(), bus, nil, log)
	e := reorder.NewEngine(j, bus, log)

	_, err := e.SetRule(entity.ReorderRule{
		ProductID: "P1", WarehouseID: "W1",
		ReorderPoint: dec("10"), ReorderQuantity: dec("50"), IsActive: true,
	})
	require.NoError(t, err)

	// El movimiento deja el disponible bajo el punto; el motor reacciona solo.
	post(t, j, "OPEN-1", "P1", entity.MovementOpening, "5")

	require.Eventually(t, func() bool {
		return len(e.Suggestions(entity.SuggestionPending)) == 1
	}, 2*time.Second, 10*time.Millisecond, "el evento del bus debe generar la sugerencia")
}

func TestDaysUntilStockout_ConConsumoReciente(t *testing.T) {
	e, j := newEngine(t)
	setRule(t, e, "0", "40", "50", "0")
	post(t, j, "OPEN-1", "P1", entity.MovementOpening, "90")
	post(t, j, "VD-1", "P1", entity.MovementSalesIssue, "-60") // 2/día en 30 días

	s, err := e.Evaluate("P1", "W1")
	require.NoError(t, err)
	require.NotNil(t, s)
	// 30 disponibles / 2 por día = 15 días.
	assert.Equal(t, 15, s.DaysUntilStockout)
}
