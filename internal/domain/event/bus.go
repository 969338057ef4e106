package event

import "sync"

// Handler procesa un evento publicado. No debe bloquear: el bus despacha
// en una goroutine propia por suscriptor y descarta si el buffer se llena.
type Handler func(Event)

type subscriber struct {
	kinds map[Kind]bool // nil = todos los kinds
	ch    chan Event
}

// Bus despacha eventos a suscriptores de forma fire-and-forget.
// La corrección del ledger nunca depende de la entrega de un evento.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscriber
	buffer int
	closed bool
}

// NewBus construye el bus. buffer es el tamaño de cola por suscriptor.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	return &Bus{buffer: buffer}
}

// Subscribe registra un handler para los kinds indicados (ninguno = todos).
// El handler corre en una goroutine propia en orden de publicación.
func (b *Bus) Subscribe(h Handler, kinds ...Kind) {
	s := &subscriber{ch: make(chan Event, b.buffer)}
	if len(kinds) > 0 {
		s.kinds = make(map[Kind]bool, len(kinds))
		for _, k := range kinds {
			s.kinds[k] = true
		}
	}
	go func() {
		for ev := range s.ch {
			h(ev)
		}
	}()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(s.ch)
		return
	}
	b.subs = append(b.subs, s)
}

// Publish entrega el evento a los suscriptores interesados sin bloquear:
// si la cola de un suscriptor está llena, el evento se descarta para él.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, s := range b.subs {
		if s.kinds != nil && !s.kinds[ev.Kind] {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			// suscriptor lento: descartar antes que frenar el ledger
		}
	}
}

// Close detiene el despacho y cierra las colas de los suscriptores.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
}
