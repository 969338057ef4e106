package repository

import (
	"context"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// LedgerStorage define el puerto angosto de persistencia del ledger (DIP).
// El colaborador de persistencia debe garantizar que onHand sea siempre
// recomputable reproduciendo los movimientos desde un snapshot inicial:
// ese es el contrato de reconciliación del que depende el conteo físico.
type LedgerStorage interface {
	// LoadCell carga la celda; domain.ErrNotFound si nunca fue tocada.
	LoadCell(ctx context.Context, key entity.CellKey) (*entity.StockCell, error)

	// SaveCell persiste el estado de la celda (sin movimiento asociado;
	// usado por ajustes de reserva, que no son movimientos de stock).
	SaveCell(ctx context.Context, cell *entity.StockCell) error

	// AppendMovement persiste celda y movimiento como una unidad atómica.
	// Se invoca dentro de la sección crítica por celda del journal.
	AppendMovement(ctx context.Context, cell *entity.StockCell, mov *entity.MovementEntry) error

	// MovementsByCell devuelve los movimientos históricos de una celda en orden de registro.
	MovementsByCell(ctx context.Context, key entity.CellKey) ([]*entity.MovementEntry, error)
}
