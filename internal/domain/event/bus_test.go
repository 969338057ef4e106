package event_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/stock-ledger/internal/domain/event"
)

// collector acumula eventos entregados a un suscriptor para inspección.
type collector struct {
	mu   sync.Mutex
	got  []event.Event
	done chan struct{} // cerrado al alcanzar want
	want int
}

func newCollector(want int) *collector {
	return &collector{done: make(chan struct{}), want: want}
}

func (c *collector) handle(ev event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, ev)
	if len(c.got) == c.want {
		close(c.done)
	}
}

func (c *collector) events() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]event.Event, len(c.got))
	copy(out, c.got)
	return out
}

func (c *collector) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout esperando %d eventos, llegaron %d", c.want, len(c.events()))
	}
}

func TestBus_EntregaEnOrdenDePublicacion(t *testing.T) {
	bus := event.NewBus(16)
	defer bus.Close()

	c := newCollector(3)
	bus.Subscribe(c.handle)

	bus.Publish(event.Event{Kind: event.MovementAppended, MovementID: "m1"})
	bus.Publish(event.Event{Kind: event.MovementReversed, MovementID: "m2"})
	bus.Publish(event.Event{Kind: event.MovementAppended, MovementID: "m3"})

	c.wait(t)
	got := c.events()
	require.Len(t, got, 3)
	assert.Equal(t, "m1", got[0].MovementID)
	assert.Equal(t, "m2", got[1].MovementID)
	assert.Equal(t, "m3", got[2].MovementID)
}

func TestBus_FiltraPorKind(t *testing.T) {
	bus := event.NewBus(16)
	defer bus.Close()

	c := newCollector(2)
	bus.Subscribe(c.handle, event.ReservationCreated, event.ReservationReleased)

	bus.Publish(event.Event{Kind: event.MovementAppended})
	bus.Publish(event.Event{Kind: event.ReservationCreated, ReservationID: "r1"})
	bus.Publish(event.Event{Kind: event.LotExpiring})
	bus.Publish(event.Event{Kind: event.ReservationReleased, ReservationID: "r1"})

	c.wait(t)
	got := c.events()
	require.Len(t, got, 2)
	assert.Equal(t, event.ReservationCreated, got[0].Kind)
	assert.Equal(t, event.ReservationReleased, got[1].Kind)
}

func TestBus_MultiplesSuscriptoresRecibenCopia(t *testing.T) {
	bus := event.NewBus(16)
	defer bus.Close()

	a := newCollector(1)
	b := newCollector(1)
	bus.Subscribe(a.handle)
	bus.Subscribe(b.handle)

	bus.Publish(event.Event{Kind: event.TransferShipped, TransferID: "t1"})

	a.wait(t)
	b.wait(t)
	assert.Equal(t, "t1", a.events()[0].TransferID)
	assert.Equal(t, "t1", b.events()[0].TransferID)
}

func TestBus_PublishDespuesDeCloseNoEntrega(t *testing.T) {
	bus := event.NewBus(16)

	c := newCollector(1)
	bus.Subscribe(c.handle)
	bus.Close()

	// No debe entrar en pánico ni entregar nada.
	bus.Publish(event.Event{Kind: event.MovementAppended})

	select {
	case <-c.done:
		t.Fatal("no debería entregarse ningún evento tras Close")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Empty(t, c.events())
}

func TestBus_SubscribeDespuesDeCloseEsNoOp(t *testing.T) {
	bus := event.NewBus(16)
	bus.Close()

	c := newCollector(1)
	bus.Subscribe(c.handle)
	bus.Publish(event.Event{Kind: event.MovementAppended})

	select {
	case <-c.done:
		t.Fatal("un suscriptor registrado tras Close no debe recibir eventos")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_CloseEsIdempotente(t *testing.T) {
	bus := event.NewBus(4)
	bus.Subscribe(func(event.Event) {})
	bus.Close()
	bus.Close()
}
