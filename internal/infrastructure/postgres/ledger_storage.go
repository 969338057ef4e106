package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

var _ repository.LedgerStorage = (*LedgerStorage)(nil)

// LedgerStorage persistencia del ledger sobre PostgreSQL. AppendMovement corre
// celda y movimiento en una transacción; las columnas de cantidad son
// numeric(18,4) y se escanean como shopspring/decimal (codec registrado en el pool).
type LedgerStorage struct {
	pool *pgxpool.Pool
}

// NewLedgerStorage construye el adaptador con el pool.
func NewLedgerStorage(pool *pgxpool.Pool) *LedgerStorage {
	return &LedgerStorage{pool: pool}
}

// LoadCell carga la celda; domain.ErrNotFound si nunca fue tocada.
func (s *LedgerStorage) LoadCell(ctx context.Context, key entity.CellKey) (*entity.StockCell, error) {
	query := `
		SELECT on_hand, reserved, in_transit_out, in_transit_in, updated_at
		FROM stock_cells
		WHERE product_id = $1 AND warehouse_id = $2 AND location_id = $3 AND lot_id = $4 AND serial_id = $5`
	cell := entity.StockCell{Key: key}
	err := s.pool.QueryRow(ctx, query,
		key.ProductID, key.WarehouseID, key.LocationID, key.LotID, key.SerialID,
	).Scan(&cell.OnHand, &cell.Reserved, &cell.InTransitOut, &cell.InTransitIn, &cell.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: celda %s", domain.ErrNotFound, key)
		}
		return nil, fmt.Errorf("load cell: %w", err)
	}
	return &cell, nil
}

// SaveCell inserta o actualiza la celda (por clave compuesta).
func (s *LedgerStorage) SaveCell(ctx context.Context, cell *entity.StockCell) error {
	if err := upsertCell(ctx, s.pool, cell); err != nil {
		return fmt.Errorf("save cell: %w", err)
	}
	return nil
}

// AppendMovement persiste celda y movimiento en una transacción.
func (s *LedgerStorage) AppendMovement(ctx context.Context, cell *entity.StockCell, mov *entity.MovementEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := upsertCell(ctx, tx, cell); err != nil {
		return fmt.Errorf("upsert cell: %w", err)
	}

	query := `
		INSERT INTO movement_entries (id, document_number, ts, product_id, warehouse_id, location_id, lot_id, serial_id,
			type, signed_quantity, unit_cost, total_cost_impact, reverses_movement_id, reason, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	reverses := (*string)(nil)
	if mov.ReversesMovementID != "" {
		reverses = &mov.ReversesMovementID
	}
	createdBy := (*string)(nil)
	if mov.CreatedBy != "" {
		createdBy = &mov.CreatedBy
	}
	if _, err := tx.Exec(ctx, query,
		mov.ID, mov.DocumentNumber, mov.Timestamp,
		mov.CellKey.ProductID, mov.CellKey.WarehouseID, mov.CellKey.LocationID, mov.CellKey.LotID, mov.CellKey.SerialID,
		string(mov.Type), mov.SignedQuantity, mov.UnitCost, mov.TotalCostImpact, reverses, mov.Reason, createdBy,
	); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: movimiento %s", domain.ErrDuplicate, mov.DocumentNumber)
		}
		return fmt.Errorf("insert movement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// MovementsByCell devuelve los movimientos de la celda en orden de registro.
func (s *LedgerStorage) MovementsByCell(ctx context.Context, key entity.CellKey) ([]*entity.MovementEntry, error) {
	query := `
		SELECT id, document_number, ts, type, signed_quantity, unit_cost, total_cost_impact,
			COALESCE(reverses_movement_id, ''), reason, COALESCE(created_by, '')
		FROM movement_entries
		WHERE product_id = $1 AND warehouse_id = $2 AND location_id = $3 AND lot_id = $4 AND serial_id = $5
		ORDER BY ts, id`
	rows, err := s.pool.Query(ctx, query,
		key.ProductID, key.WarehouseID, key.LocationID, key.LotID, key.SerialID)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var out []*entity.MovementEntry
	for rows.Next() {
		m := entity.MovementEntry{CellKey: key}
		var typ string
		if err := rows.Scan(&m.ID, &m.DocumentNumber, &m.Timestamp, &typ, &m.SignedQuantity,
			&m.UnitCost, &m.TotalCostImpact, &m.ReversesMovementID, &m.Reason, &m.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.Type = entity.MovementType(typ)
		out = append(out, &m)
	}
	return out, rows.Err()
}

func upsertCell(ctx context.Context, q Querier, cell *entity.StockCell) error {
	query := `
		INSERT INTO stock_cells (product_id, warehouse_id, location_id, lot_id, serial_id,
			on_hand, reserved, in_transit_out, in_transit_in, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (product_id, warehouse_id, location_id, lot_id, serial_id)
		DO UPDATE SET on_hand = EXCLUDED.on_hand, reserved = EXCLUDED.reserved,
			in_transit_out = EXCLUDED.in_transit_out, in_transit_in = EXCLUDED.in_transit_in,
			updated_at = EXCLUDED.updated_at`
	_, err := q.Exec(ctx, query,
		cell.Key.ProductID, cell.Key.WarehouseID, cell.Key.LocationID, cell.Key.LotID, cell.Key.SerialID,
		cell.OnHand, cell.Reserved, cell.InTransitOut, cell.InTransitIn, cell.UpdatedAt)
	return err
}
