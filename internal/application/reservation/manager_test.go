package reservation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/stock-ledger/internal/application/journal"
	"github.com/tu-usuario/stock-ledger/internal/application/reservation"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/event"
	"github.com/tu-usuario/stock-ledger/internal/infrastructure/memory"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

func newManager(t *testing.T) (*reservation.Manager, *journal.Journal) {
	t.Helper()
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	j := journal.New(memory.NewLedgerStorage(), event.NewBus(0), nil, log)
	m := reservation.NewManager(j, nil, nil, event.NewBus(0), log)
	return m, j
}

func seedStock(t *testing.T, j *journal.Journal, key entity.CellKey, qty string) {
	t.Helper()
	_, err := j.Append(context.Background(), journal.AppendInput{
		DocumentNumber: "OPEN-" + key.String(),
		CellKey:        key,
		Type:           entity.MovementOpening,
		Quantity:       decimal.RequireFromString(qty),
	})
	require.NoError(t, err)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestReserve_FlujoCompleto(t *testing.T) {
	m, j := newManager(t)
	key := entity.CellKey{ProductID: "P1", WarehouseID: "W1"}
	seedStock(t, j, key, "100")

	// Reservar 30 de 100: disponible baja a 70, onHand no cambia.
	r, err := m.Reserve(context.Background(), reservation.ReserveInput{
		CellKey:  key,
		Quantity: dec("30"),
		Type:     entity.ReservationSalesOrder,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationActive, r.Status)
	assert.Equal(t, "RES-000001", r.ReservationNumber)

	c := j.Cell(key)
	assert.True(t, c.OnHand.Equal(dec("100")))
	assert.True(t, c.Available().Equal(dec("70")))

	// Despachar 20: onHand y reserved bajan juntos, la reserva queda parcial.
	r, err = m.Fulfill(context.Background(), r.ID, dec("20"))
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationPartiallyFulfilled, r.Status)
	assert.True(t, r.Remaining().Equal(dec("10")))

	c = j.Cell(key)
	assert.True(t, c.OnHand.Equal(dec("80")))
	assert.True(t, c.Reserved.Equal(dec("10")))
	assert.True(t, c.Available().Equal(dec("70")), "el disponible no cambia al despachar contra reserva")

	// Despachar el remanente: la reserva cierra en FULFILLED.
	r, err = m.Fulfill(context.Background(), r.ID, dec("10"))
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationFulfilled, r.Status)
	require.NotNil(t, r.FulfilledAt)

	c = j.Cell(key)
	assert.True(t, c.OnHand.Equal(dec("70")))
	assert.True(t, c.Reserved.IsZero())
}

func TestReserve_InsuficienteNoDejaEfecto(t *testing.T) {
	m, j := newManager(t)
	key := entity.CellKey{ProductID: "P1", WarehouseID: "W1"}
	seedStock(t, j, key, "10")

	_, err := m.Reserve(context.Background(), reservation.ReserveInput{CellKey: key, Quantity: dec("11")})
	var insErr *domain.InsufficientAvailableError
	require.True(t, errors.As(err, &insErr))

	assert.True(t, j.Cell(key).Reserved.IsZero())
	assert.Empty(t, m.OpenReservations())
}

func TestFulfill_ExcedeRemanenteFalla(t *testing.T) {
	m, j := newManager(t)
	key := entity.CellKey{ProductID: "P1", WarehouseID: "W1"}
	seedStock(t, j, key, "50")

	r, err := m.Reserve(context.Background(), reservation.ReserveInput{CellKey: key, Quantity: dec("5")})
	require.NoError(t, err)

	_, err = m.Fulfill(context.Background(), r.ID, dec("6"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRelease_LiberaSoloElRemanente(t *testing.T) {
	m, j := newManager(t)
	key := entity.CellKey{ProductID: "P1", WarehouseID: "W1"}
	seedStock(t, j, key, "100")

	r, err := m.Reserve(context.Background(), reservation.ReserveInput{CellKey: key, Quantity: dec("40")})
	require.NoError(t, err)
	_, err = m.Fulfill(context.Background(), r.ID, dec("15"))
	require.NoError(t, err)

	require.NoError(t, m.Release(context.Background(), r.ID))

	got, err := m.Get(r.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationCancelled, got.Status)

	// Se despacharon 15, se liberaron 25: onHand 85, reserved 0.
	c := j.Cell(key)
	assert.True(t, c.OnHand.Equal(dec("85")))
	assert.True(t, c.Reserved.IsZero())
}

func TestRelease_ReservaCerradaFalla(t *testing.T) {
	m, j := newManager(t)
	key := entity.CellKey{ProductID: "P1", WarehouseID: "W1"}
	seedStock(t, j, key, "10")

	r, err := m.Reserve(context.Background(), reservation.ReserveInput{CellKey: key, Quantity: dec("10")})
	require.NoError(t, err)
	_, err = m.Fulfill(context.Background(), r.ID, dec("10"))
	require.NoError(t, err)

	err = m.Release(context.Background(), r.ID)
	var stateErr *domain.InvalidStateTransitionError
	require.True(t, errors.As(err, &stateErr))
}

func TestSweep_ExpiraYLiberaUnaSolaVez(t *testing.T) {
	m, j := newManager(t)
	key := entity.CellKey{ProductID: "P1", WarehouseID: "W1"}
	seedStock(t, j, key, "100")

	exp := time.Now().Add(-time.Minute)
	r, err := m.Reserve(context.Background(), reservation.ReserveInput{
		CellKey:   key,
		Quantity:  dec("30"),
		ExpiresAt: &exp,
	})
	require.NoError(t, err)

	n := m.Sweep(context.Background(), time.Now())
	assert.Equal(t, 1, n)

	got, err := m.Get(r.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationExpired, got.Status)
	assert.True(t, j.Cell(key).Reserved.IsZero())
	assert.True(t, j.Cell(key).Available().Equal(dec("100")))

	// Segundo sweep: nada que expirar, nada se libera dos veces.
	assert.Equal(t, 0, m.Sweep(context.Background(), time.Now()))
	assert.True(t, j.Cell(key).Reserved.IsZero())
}

func TestSweep_NoTocaReservasSinVencimiento(t *testing.T) {
	m, j := newManager(t)
	key := entity.CellKey{ProductID: "P1", WarehouseID: "W1"}
	seedStock(t, j, key, "100")

	_, err := m.Reserve(context.Background(), reservation.ReserveInput{CellKey: key, Quantity: dec("10")})
	require.NoError(t, err)

	assert.Equal(t, 0, m.Sweep(context.Background(), time.Now()))
	assert.True(t, j.Cell(key).Reserved.Equal(dec("10")))
}

func TestFulfill_ReservaExpiradaFalla(t *testing.T) {
	m, j := newManager(t)
	key := entity.CellKey{ProductID: "P1", WarehouseID: "W1"}
	seedStock(t, j, key, "100")

	exp := time.Now().Add(-time.Second)
	r, err := m.Reserve(context.Background(), reservation.ReserveInput{
		CellKey:   key,
		Quantity:  dec("10"),
		ExpiresAt: &exp,
	})
	require.NoError(t, err)

	_, err = m.Fulfill(context.Background(), r.ID, dec("5"))
	var expErr *domain.ReservationExpiredError
	require.True(t, errors.As(err, &expErr))
}

func TestOpenReservations_SoloAbiertasOrdenadas(t *testing.T) {
	m, j := newManager(t)
	key := entity.CellKey{ProductID: "P1", WarehouseID: "W1"}
	seedStock(t, j, key, "100")

	r1, err := m.Reserve(context.Background(), reservation.ReserveInput{CellKey: key, Quantity: dec("10")})
	require.NoError(t, err)
	r2, err := m.Reserve(context.Background(), reservation.ReserveInput{CellKey: key, Quantity: dec("20")})
	require.NoError(t, err)

	_, err = m.Fulfill(context.Background(), r1.ID, dec("10"))
	require.NoError(t, err)

	open := m.OpenReservations()
	require.Len(t, open, 1)
	assert.Equal(t, r2.ID, open[0].ID)
}
