package adjustment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/stock-ledger/internal/application/adjustment"
	"github.com/tu-usuario/stock-ledger/internal/application/journal"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/event"
	"github.com/tu-usuario/stock-ledger/internal/infrastructure/memory"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

func newUseCase(t *testing.T) (*adjustment.UseCase, *journal.Journal) {
	t.Helper()
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	j := journal.New(memory.NewLedgerStorage(), event.NewBus(0), nil, log)
	return adjustment.NewUseCase(j, log), j
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seed(t *testing.T, j *journal.Journal, product, qty string) entity.CellKey {
	t.Helper()
	key := entity.CellKey{ProductID: product, WarehouseID: "W1"}
	_, err := j.Append(context.Background(), journal.AppendInput{
		DocumentNumber: "OPEN-" + product,
		CellKey:        key,
		Type:           entity.MovementOpening,
		Quantity:       dec(qty),
	})
	require.NoError(t, err)
	return key
}

func TestAdjustment_FlujoAprobadoYProcesado(t *testing.T) {
	uc, j := newUseCase(t)
	k1 := seed(t, j, "P1", "20")
	k2 := seed(t, j, "P2", "5")

	adj, err := uc.Create("W1", "conteo parcial", "bodeguero-1", []adjustment.LineInput{
		{CellKey: k1, DeltaQuantity: dec("-3"), Reason: "faltante"},
		{CellKey: k2, DeltaQuantity: dec("2"), Reason: "sobrante"},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentDraft, adj.Status)
	assert.Equal(t, "ADJ-000001", adj.AdjustmentNumber)

	_, err = uc.Submit(adj.ID)
	require.NoError(t, err)
	_, err = uc.Approve(adj.ID, "jefe-1")
	require.NoError(t, err)

	adj, err = uc.Process(context.Background(), adj.ID, "jefe-1")
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentProcessed, adj.Status)

	assert.True(t, j.Cell(k1).OnHand.Equal(dec("17")))
	assert.True(t, j.Cell(k2).OnHand.Equal(dec("7")))

	movs := j.Movements(k1)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementAdjustmentDecrease, movs[1].Type)
}

func TestAdjustment_ProcessSinAprobarFalla(t *testing.T) {
	uc, j := newUseCase(t)
	k := seed(t, j, "P1", "10")

	adj, err := uc.Create("W1", "", "b1", []adjustment.LineInput{
		{CellKey: k, DeltaQuantity: dec("1")},
	})
	require.NoError(t, err)
	_, err = uc.Submit(adj.ID)
	require.NoError(t, err)

	_, err = uc.Process(context.Background(), adj.ID, "b1")
	var stateErr *domain.InvalidStateTransitionError
	require.True(t, errors.As(err, &stateErr))
	assert.True(t, j.Cell(k).OnHand.Equal(dec("10")))
}

func TestAdjustment_RejectNoTocaStock(t *testing.T) {
	uc, j := newUseCase(t)
	k := seed(t, j, "P1", "10")

	adj, err := uc.Create("W1", "", "b1", []adjustment.LineInput{
		{CellKey: k, DeltaQuantity: dec("-4")},
	})
	require.NoError(t, err)
	_, err = uc.Submit(adj.ID)
	require.NoError(t, err)

	adj, err = uc.Reject(adj.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentRejected, adj.Status)
	assert.True(t, j.Cell(k).OnHand.Equal(dec("10")))

	// Un ajuste rechazado no puede procesarse.
	_, err = uc.Process(context.Background(), adj.ID, "b1")
	assert.Error(t, err)
}

func TestAdjustment_LineaConDeltaCeroRechazada(t *testing.T) {
	uc, _ := newUseCase(t)
	_, err := uc.Create("W1", "", "b1", []adjustment.LineInput{
		{CellKey: entity.CellKey{ProductID: "P1", WarehouseID: "W1"}, DeltaQuantity: decimal.Zero},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAdjustment_FalloParcialConservaEstadoYPermiteReintento(t *testing.T) {
	uc, j := newUseCase(t)
	k1 := seed(t, j, "P1", "10")
	k2 := seed(t, j, "P2", "2")

	adj, err := uc.Create("W1", "", "b1", []adjustment.LineInput{
		{CellKey: k1, DeltaQuantity: dec("5")},
		{CellKey: k2, DeltaQuantity: dec("-3")}, // dejaría onHand negativo
	})
	require.NoError(t, err)
	_, err = uc.Submit(adj.ID)
	require.NoError(t, err)
	_, err = uc.Approve(adj.ID, "jefe-1")
	require.NoError(t, err)

	_, err = uc.Process(context.Background(), adj.ID, "jefe-1")
	require.Error(t, err)

	// La primera línea ya quedó posteada; el estado sigue APPROVED para reintento.
	got, err := uc.Get(adj.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentApproved, got.Status)
	assert.True(t, j.Cell(k1).OnHand.Equal(dec("15")))

	// Se corrige la causa y el reintento hace replay idempotente de la línea 1.
	_, err = j.Append(context.Background(), journal.AppendInput{
		DocumentNumber: "FC-EXTRA",
		CellKey:        k2,
		Type:           entity.MovementPurchase,
		Quantity:       dec("5"),
	})
	require.NoError(t, err)

	adj, err = uc.Process(context.Background(), adj.ID, "jefe-1")
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentProcessed, adj.Status)
	assert.True(t, j.Cell(k1).OnHand.Equal(dec("15")), "la línea 1 no debe postearse dos veces")
	assert.True(t, j.Cell(k2).OnHand.Equal(dec("4")))
}
