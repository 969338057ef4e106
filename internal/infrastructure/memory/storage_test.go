package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/infrastructure/memory"
)

func testKey() entity.CellKey {
	return entity.CellKey{ProductID: "P1", WarehouseID: "W1"}
}

func TestLedgerStorage_LoadCellInexistente(t *testing.T) {
	s := memory.NewLedgerStorage()

	cell, err := s.LoadCell(context.Background(), testKey())
	assert.Nil(t, cell)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedgerStorage_SaveYLoadDevuelveCopia(t *testing.T) {
	s := memory.NewLedgerStorage()
	key := testKey()

	cell := &entity.StockCell{Key: key, OnHand: decimal.NewFromInt(10), UpdatedAt: time.Now()}
	require.NoError(t, s.SaveCell(context.Background(), cell))

	got, err := s.LoadCell(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, got.OnHand.Equal(decimal.NewFromInt(10)))

	// Mutar la copia no debe afectar lo persistido.
	got.OnHand = decimal.NewFromInt(99)
	again, err := s.LoadCell(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, again.OnHand.Equal(decimal.NewFromInt(10)))
}

func TestLedgerStorage_AppendMovementPersisteCeldaYMovimiento(t *testing.T) {
	s := memory.NewLedgerStorage()
	key := testKey()

	cell := &entity.StockCell{Key: key, OnHand: decimal.NewFromInt(5)}
	mov := &entity.MovementEntry{
		ID:             "m1",
		DocumentNumber: "PUR-000001",
		CellKey:        key,
		Type:           entity.MovementPurchase,
		SignedQuantity: decimal.NewFromInt(5),
	}
	require.NoError(t, s.AppendMovement(context.Background(), cell, mov))

	got, err := s.LoadCell(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, got.OnHand.Equal(decimal.NewFromInt(5)))

	movs, err := s.MovementsByCell(context.Background(), key)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, "m1", movs[0].ID)
	assert.Equal(t, "PUR-000001", movs[0].DocumentNumber)
}

func TestLedgerStorage_MovementsByCellEnOrdenYCopiados(t *testing.T) {
	s := memory.NewLedgerStorage()
	key := testKey()
	ctx := context.Background()

	cell := &entity.StockCell{Key: key}
	for i, id := range []string{"m1", "m2", "m3"} {
		cell.OnHand = decimal.NewFromInt(int64(i + 1))
		mov := &entity.MovementEntry{ID: id, CellKey: key, SignedQuantity: decimal.NewFromInt(1)}
		require.NoError(t, s.AppendMovement(ctx, cell, mov))
	}

	movs, err := s.MovementsByCell(ctx, key)
	require.NoError(t, err)
	require.Len(t, movs, 3)
	assert.Equal(t, "m1", movs[0].ID)
	assert.Equal(t, "m2", movs[1].ID)
	assert.Equal(t, "m3", movs[2].ID)

	// El slice devuelto contiene copias; mutarlas no toca el almacenamiento.
	movs[0].ID = "mutado"
	again, err := s.MovementsByCell(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "m1", again[0].ID)
}

func TestLedgerStorage_MovementsByCellVaciaSinMovimientos(t *testing.T) {
	s := memory.NewLedgerStorage()

	movs, err := s.MovementsByCell(context.Background(), testKey())
	require.NoError(t, err)
	assert.Empty(t, movs)
}
