package transfer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/stock-ledger/internal/application/journal"
	"github.com/tu-usuario/stock-ledger/internal/application/reservation"
	"github.com/tu-usuario/stock-ledger/internal/application/transfer"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/event"
	"github.com/tu-usuario/stock-ledger/internal/infrastructure/memory"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

func newOrchestrator(t *testing.T) (*transfer.Orchestrator, *journal.Journal) {
	t.Helper()
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	bus := event.NewBus(0)
	j := journal.New(memory.NewLedgerStorage(), bus, nil, log)
	rm := reservation.NewManager(j, nil, nil, bus, log)
	o := transfer.NewOrchestrator(j, rm, bus, log)
	return o, j
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seed(t *testing.T, j *journal.Journal, product, warehouse, qty string) {
	t.Helper()
	_, err := j.Append(context.Background(), journal.AppendInput{
		DocumentNumber: "OPEN-" + product + "-" + warehouse,
		CellKey:        entity.CellKey{ProductID: product, WarehouseID: warehouse},
		Type:           entity.MovementOpening,
		Quantity:       dec(qty),
	})
	require.NoError(t, err)
}

func TestTransfer_SagaCompletaConMerma(t *testing.T) {
	o, j := newOrchestrator(t)
	seed(t, j, "P1", "WA", "10")

	// Borrador de 10 unidades de WA a WB.
	tr, err := o.Create(transfer.CreateInput{
		SourceWarehouseID:      "WA",
		DestinationWarehouseID: "WB",
		Lines:                  []transfer.LineInput{{ProductID: "P1", RequestedQty: dec("10"), UnitCost: dec("4")}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferDraft, tr.Status)
	assert.Equal(t, "TRF-000001", tr.TransferNumber)

	_, err = o.Submit(tr.ID)
	require.NoError(t, err)

	// Aprobar reserva las 10 en origen.
	tr, err = o.Approve(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferApproved, tr.Status)

	srcCell := j.Cell(entity.CellKey{ProductID: "P1", WarehouseID: "WA"})
	assert.True(t, srcCell.Reserved.Equal(dec("10")))
	assert.True(t, srcCell.Available().IsZero())

	// Despachar todo: origen baja a 0 y la transferencia queda SHIPPED.
	tr, err = o.Ship(context.Background(), tr.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferShipped, tr.Status)

	srcCell = j.Cell(entity.CellKey{ProductID: "P1", WarehouseID: "WA"})
	assert.True(t, srcCell.OnHand.IsZero())
	assert.True(t, srcCell.Reserved.IsZero())
	assert.True(t, srcCell.InTransitOut.Equal(dec("10")))

	// Recibir 9 buenas y 1 dañada: destino suma solo 9.
	tr, err = o.Receive(context.Background(), tr.ID, []transfer.ReceiveLine{
		{ProductID: "P1", Received: dec("9"), Damaged: dec("1")},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferReceived, tr.Status)
	assert.True(t, tr.Lines[0].DamagedQty.Equal(dec("1")))

	dstCell := j.Cell(entity.CellKey{ProductID: "P1", WarehouseID: "WB"})
	assert.True(t, dstCell.OnHand.Equal(dec("9")))
	assert.True(t, dstCell.InTransitIn.IsZero())

	srcCell = j.Cell(entity.CellKey{ProductID: "P1", WarehouseID: "WA"})
	assert.True(t, srcCell.InTransitOut.IsZero())

	tr, err = o.Complete(tr.ID, false)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCompleted, tr.Status)
}

func TestTransfer_RecepcionParcialYCompletarCorto(t *testing.T) {
	o, j := newOrchestrator(t)
	seed(t, j, "P1", "WA", "20")

	tr, err := o.Create(transfer.CreateInput{
		SourceWarehouseID:      "WA",
		DestinationWarehouseID: "WB",
		Lines:                  []transfer.LineInput{{ProductID: "P1", RequestedQty: dec("20")}},
	})
	require.NoError(t, err)
	_, err = o.Submit(tr.ID)
	require.NoError(t, err)
	_, err = o.Approve(context.Background(), tr.ID)
	require.NoError(t, err)
	_, err = o.Ship(context.Background(), tr.ID, nil)
	require.NoError(t, err)

	// Llegan solo 15; la transferencia sigue SHIPPED.
	tr, err = o.Receive(context.Background(), tr.ID, []transfer.ReceiveLine{
		{ProductID: "P1", Received: dec("15")},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferShipped, tr.Status)

	// Completar sin closeShort falla.
	_, err = o.Complete(tr.ID, false)
	var stateErr *domain.InvalidStateTransitionError
	require.True(t, errors.As(err, &stateErr))

	// Cerrar corto marca la línea pendiente.
	tr, err = o.Complete(tr.ID, true)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCompleted, tr.Status)
	assert.True(t, tr.Lines[0].ClosedShort)
}

func TestTransfer_ApproveSinDisponibleCompensa(t *testing.T) {
	o, j := newOrchestrator(t)
	seed(t, j, "P1", "WA", "50")
	seed(t, j, "P2", "WA", "3")

	tr, err := o.Create(transfer.CreateInput{
		SourceWarehouseID:      "WA",
		DestinationWarehouseID: "WB",
		Lines: []transfer.LineInput{
			{ProductID: "P1", RequestedQty: dec("10")},
			{ProductID: "P2", RequestedQty: dec("5")}, // solo hay 3
		},
	})
	require.NoError(t, err)
	_, err = o.Submit(tr.ID)
	require.NoError(t, err)

	_, err = o.Approve(context.Background(), tr.ID)
	var insErr *domain.InsufficientAvailableError
	require.True(t, errors.As(err, &insErr))

	// La reserva de P1 se compensó: nada queda retenido.
	c1 := j.Cell(entity.CellKey{ProductID: "P1", WarehouseID: "WA"})
	assert.True(t, c1.Reserved.IsZero())

	got, err := o.Get(tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferPendingApproval, got.Status)
}

func TestTransfer_CancelAprobadaLiberaReservas(t *testing.T) {
	o, j := newOrchestrator(t)
	seed(t, j, "P1", "WA", "10")

	tr, err := o.Create(transfer.CreateInput{
		SourceWarehouseID:      "WA",
		DestinationWarehouseID: "WB",
		Lines:                  []transfer.LineInput{{ProductID: "P1", RequestedQty: dec("6")}},
	})
	require.NoError(t, err)
	_, err = o.Submit(tr.ID)
	require.NoError(t, err)
	_, err = o.Approve(context.Background(), tr.ID)
	require.NoError(t, err)

	tr, err = o.Cancel(context.Background(), tr.ID, "ya no se necesita")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCancelled, tr.Status)
	assert.Equal(t, "ya no se necesita", tr.CancellationReason)

	c := j.Cell(entity.CellKey{ProductID: "P1", WarehouseID: "WA"})
	assert.True(t, c.Reserved.IsZero())
	assert.True(t, c.OnHand.Equal(dec("10")))
}

func TestTransfer_CancelDespuesDeShipFalla(t *testing.T) {
	o, j := newOrchestrator(t)
	seed(t, j, "P1", "WA", "10")

	tr, err := o.Create(transfer.CreateInput{
		SourceWarehouseID:      "WA",
		DestinationWarehouseID: "WB",
		Lines:                  []transfer.LineInput{{ProductID: "P1", RequestedQty: dec("10")}},
	})
	require.NoError(t, err)
	_, err = o.Submit(tr.ID)
	require.NoError(t, err)
	_, err = o.Approve(context.Background(), tr.ID)
	require.NoError(t, err)
	_, err = o.Ship(context.Background(), tr.ID, nil)
	require.NoError(t, err)

	_, err = o.Cancel(context.Background(), tr.ID, "tarde")
	var stateErr *domain.InvalidStateTransitionError
	require.True(t, errors.As(err, &stateErr))
}

func TestTransfer_MismaBodegaRechazada(t *testing.T) {
	o, _ := newOrchestrator(t)
	_, err := o.Create(transfer.CreateInput{
		SourceWarehouseID:      "WA",
		DestinationWarehouseID: "WA",
		Lines:                  []transfer.LineInput{{ProductID: "P1", RequestedQty: dec("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTransfer_RecibirMasDeLoDespachadoFalla(t *testing.T) {
	o, j := newOrchestrator(t)
	seed(t, j, "P1", "WA", "10")

	tr, err := o.Create(transfer.CreateInput{
		SourceWarehouseID:      "WA",
		DestinationWarehouseID: "WB",
		Lines:                  []transfer.LineInput{{ProductID: "P1", RequestedQty: dec("10")}},
	})
	require.NoError(t, err)
	_, err = o.Submit(tr.ID)
	require.NoError(t, err)
	_, err = o.Approve(context.Background(), tr.ID)
	require.NoError(t, err)
	_, err = o.Ship(context.Background(), tr.ID, nil)
	require.NoError(t, err)

	_, err = o.Receive(context.Background(), tr.ID, []transfer.ReceiveLine{
		{ProductID: "P1", Received: dec("11")},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTransfer_ActiveTransfersExcluyeTerminales(t *testing.T) {
	o, j := newOrchestrator(t)
	seed(t, j, "P1", "WA", "10")

	t1, err := o.Create(transfer.CreateInput{
		SourceWarehouseID:      "WA",
		DestinationWarehouseID: "WB",
		Lines:                  []transfer.LineInput{{ProductID: "P1", RequestedQty: dec("1")}},
	})
	require.NoError(t, err)
	t2, err := o.Create(transfer.CreateInput{
		SourceWarehouseID:      "WA",
		DestinationWarehouseID: "WB",
		Lines:                  []transfer.LineInput{{ProductID: "P1", RequestedQty: dec("1")}},
	})
	require.NoError(t, err)

	_, err = o.Cancel(context.Background(), t2.ID, "duplicada")
	require.NoError(t, err)

	active := o.ActiveTransfers()
	require.Len(t, active, 1)
	assert.Equal(t, t1.ID, active[0].ID)
}
