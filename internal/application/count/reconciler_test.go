package count_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/stock-ledger/internal/application/count"
	"github.com/tu-usuario/stock-ledger/internal/application/journal"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/event"
	"github.com/tu-usuario/stock-ledger/internal/infrastructure/memory"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

func newReconciler(t *testing.T) (*count.Reconciler, *journal.Journal) {
	t.Helper()
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	j := journal.New(memory.NewLedgerStorage(), event.NewBus(0), nil, log)
	return count.NewReconciler(j, log), j
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seed(t *testing.T, j *journal.Journal, product, warehouse, qty string) entity.CellKey {
	t.Helper()
	key := entity.CellKey{ProductID: product, WarehouseID: warehouse}
	_, err := j.Append(context.Background(), journal.AppendInput{
		DocumentNumber: "OPEN-" + product + "-" + warehouse,
		CellKey:        key,
		Type:           entity.MovementOpening,
		Quantity:       dec(qty),
	})
	require.NoError(t, err)
	return key
}

func TestStartCount_CongelaSnapshot(t *testing.T) {
	r, j := newReconciler(t)
	k1 := seed(t, j, "P1", "W1", "40")
	seed(t, j, "P2", "W1", "7")
	seed(t, j, "P3", "W2", "99") // otra bodega, fuera del conteo

	sc, err := r.StartCount("W1", "", "auditor-1")
	require.NoError(t, err)
	assert.Equal(t, entity.CountInProgress, sc.Status)
	require.Len(t, sc.Lines, 2)

	// Un movimiento concurrente no altera el snapshot congelado.
	_, err = j.Append(context.Background(), journal.AppendInput{
		DocumentNumber: "FC-MID",
		CellKey:        k1,
		Type:           entity.MovementPurchase,
		Quantity:       dec("10"),
	})
	require.NoError(t, err)

	got, err := r.Get(sc.ID)
	require.NoError(t, err)
	for _, l := range got.Lines {
		if l.CellKey == k1 {
			assert.True(t, l.SystemQuantity.Equal(dec("40")),
				"el snapshot debe conservar 40, tiene %s", l.SystemQuantity)
		}
	}
}

func TestStartCount_ScopePorProducto(t *testing.T) {
	r, j := newReconciler(t)
	seed(t, j, "P1", "W1", "5")
	seed(t, j, "P2", "W1", "5")

	sc, err := r.StartCount("W1", "P2", "auditor-1")
	require.NoError(t, err)
	require.Len(t, sc.Lines, 1)
	assert.Equal(t, "P2", sc.Lines[0].CellKey.ProductID)
}

func TestRecordCount_CalculaVarianza(t *testing.T) {
	r, j := newReconciler(t)
	key := seed(t, j, "P1", "W1", "40")

	sc, err := r.StartCount("W1", "", "auditor-1")
	require.NoError(t, err)

	sc, err = r.RecordCount(sc.ID, key, dec("37"))
	require.NoError(t, err)
	assert.True(t, sc.Lines[0].Variance.Equal(dec("-3")))
	assert.True(t, sc.Lines[0].Counted)

	// Reconteo: se marca y la varianza se recalcula.
	sc, err = r.RecordCount(sc.ID, key, dec("38"))
	require.NoError(t, err)
	assert.True(t, sc.Lines[0].Recount)
	assert.True(t, sc.Lines[0].Variance.Equal(dec("-2")))
}

func TestComplete_RequiereTodasContadas(t *testing.T) {
	r, j := newReconciler(t)
	k1 := seed(t, j, "P1", "W1", "10")
	seed(t, j, "P2", "W1", "10")

	sc, err := r.StartCount("W1", "", "auditor-1")
	require.NoError(t, err)

	_, err = r.RecordCount(sc.ID, k1, dec("10"))
	require.NoError(t, err)

	_, err = r.Complete(sc.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestProcess_PosteaAjustesPorVarianza(t *testing.T) {
	r, j := newReconciler(t)
	k1 := seed(t, j, "P1", "W1", "40")
	k2 := seed(t, j, "P2", "W1", "10")

	sc, err := r.StartCount("W1", "", "auditor-1")
	require.NoError(t, err)

	_, err = r.RecordCount(sc.ID, k1, dec("37")) // faltante de 3
	require.NoError(t, err)
	_, err = r.RecordCount(sc.ID, k2, dec("10")) // sin varianza
	require.NoError(t, err)

	_, err = r.Complete(sc.ID)
	require.NoError(t, err)
	_, err = r.Approve(sc.ID, "jefe-1")
	require.NoError(t, err)

	sc, err = r.Process(context.Background(), sc.ID, "jefe-1")
	require.NoError(t, err)
	assert.Equal(t, entity.CountAdjusted, sc.Status)

	// Solo la celda con varianza recibe corrección.
	assert.True(t, j.Cell(k1).OnHand.Equal(dec("37")))
	assert.True(t, j.Cell(k2).OnHand.Equal(dec("10")))

	movs := j.Movements(k1)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementAdjustmentDecrease, movs[1].Type)
	assert.True(t, movs[1].SignedQuantity.Equal(dec("-3")))
	assert.Len(t, j.Movements(k2), 1)
}

func TestProcess_VarianzaContraSnapshotNoContraActual(t *testing.T) {
	r, j := newReconciler(t)
	key := seed(t, j, "P1", "W1", "40")

	sc, err := r.StartCount("W1", "", "auditor-1")
	require.NoError(t, err)

	// Compra concurrente a mitad del conteo.
	_, err = j.Append(context.Background(), journal.AppendInput{
		DocumentNumber: "FC-MID2",
		CellKey:        key,
		Type:           entity.MovementPurchase,
		Quantity:       dec("10"),
	})
	require.NoError(t, err)

	_, err = r.RecordCount(sc.ID, key, dec("38")) // contra snapshot 40: varianza -2
	require.NoError(t, err)
	_, err = r.Complete(sc.ID)
	require.NoError(t, err)
	_, err = r.Approve(sc.ID, "jefe-1")
	require.NoError(t, err)
	_, err = r.Process(context.Background(), sc.ID, "jefe-1")
	require.NoError(t, err)

	// 40 + 10 (compra) - 2 (corrección) = 48: la compra y la corrección
	// quedan reflejadas de forma independiente.
	assert.True(t, j.Cell(key).OnHand.Equal(dec("48")))
}

func TestProcess_SinAprobarFalla(t *testing.T) {
	r, j := newReconciler(t)
	key := seed(t, j, "P1", "W1", "10")

	sc, err := r.StartCount("W1", "", "auditor-1")
	require.NoError(t, err)
	_, err = r.RecordCount(sc.ID, key, dec("9"))
	require.NoError(t, err)
	_, err = r.Complete(sc.ID)
	require.NoError(t, err)

	_, err = r.Process(context.Background(), sc.ID, "jefe-1")
	var stateErr *domain.InvalidStateTransitionError
	require.True(t, errors.As(err, &stateErr))
}

func TestReject_NoTocaElStock(t *testing.T) {
	r, j := newReconciler(t)
	key := seed(t, j, "P1", "W1", "10")

	sc, err := r.StartCount("W1", "", "auditor-1")
	require.NoError(t, err)
	_, err = r.RecordCount(sc.ID, key, dec("3"))
	require.NoError(t, err)
	_, err = r.Complete(sc.ID)
	require.NoError(t, err)

	sc, err = r.Reject(sc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CountRejected, sc.Status)
	assert.True(t, j.Cell(key).OnHand.Equal(dec("10")))
}

func TestProcess_ReintentoEsIdempotente(t *testing.T) {
	r, j := newReconciler(t)
	key := seed(t, j, "P1", "W1", "40")

	sc, err := r.StartCount("W1", "", "auditor-1")
	require.NoError(t, err)
	_, err = r.RecordCount(sc.ID, key, dec("35"))
	require.NoError(t, err)
	_, err = r.Complete(sc.ID)
	require.NoError(t, err)
	_, err = r.Approve(sc.ID, "jefe-1")
	require.NoError(t, err)
	_, err = r.Process(context.Background(), sc.ID, "jefe-1")
	require.NoError(t, err)

	// Un segundo Process falla por estado, pero aunque se reintentara la línea,
	// el documento determinístico garantiza replay sin doble efecto.
	_, err = r.Process(context.Background(), sc.ID, "jefe-1")
	assert.Error(t, err)
	assert.True(t, j.Cell(key).OnHand.Equal(dec("35")))
}
