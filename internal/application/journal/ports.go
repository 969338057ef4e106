package journal

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// AvailabilityCache es un caché de lectura opcional para el disponible por celda
// (ej. Redis). Mejor esfuerzo: el journal lo actualiza tras cada mutación y sus
// errores nunca afectan la corrección del ledger.
type AvailabilityCache interface {
	SetAvailable(ctx context.Context, key entity.CellKey, available decimal.Decimal) error
	GetAvailable(ctx context.Context, key entity.CellKey) (decimal.Decimal, bool, error)
}
