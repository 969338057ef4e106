package reservation

import (
	"context"
	"time"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/event"
)

// Sweep expira las reservas ACTIVE/PARTIALLY_FULFILLED vencidas a now,
// liberando su remanente. Idempotente: una reserva ya expirada o despachada
// no vuelve a liberarse (el estado se verifica y se muta bajo el mismo lock
// que usa Fulfill, nunca hay doble liberación). Devuelve cuántas expiró.
func (m *Manager) Sweep(ctx context.Context, now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	expired := 0
	for _, r := range m.reservations {
		if !r.Open() || !r.ExpiredAt(now) {
			continue
		}
		remainder := r.Remaining()
		if remainder.IsPositive() {
			if err := m.journal.ReleaseReserved(ctx, r.CellKey, remainder); err != nil {
				m.log.Error().Err(err).Str("reservation", r.ID).Msg("liberación en sweep de expiración")
				continue
			}
		}
		r.Status = entity.ReservationExpired
		expired++

		m.bus.Publish(event.Event{
			Kind:              event.ReservationExpired,
			OccurredAt:        now,
			CellKey:           r.CellKey,
			ReservationID:     r.ID,
			ReservationNumber: r.ReservationNumber,
			Quantity:          remainder,
			Available:         m.journal.GetAvailable(ctx, r.CellKey),
		})
	}
	return expired
}

// RunSweeper ejecuta Sweep periódicamente hasta que ctx se cancele.
// Tarea de fondo disparada desde main, nunca incrustada en el camino de requests.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(ctx, time.Now()); n > 0 {
				m.log.Info().Int("reservas", n).Msg("reservas expiradas liberadas")
			}
		}
	}
}
