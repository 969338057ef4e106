package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

var _ repository.LedgerStorage = (*LedgerStorage)(nil)

// LedgerStorage persistencia en memoria del ledger. Es el backend por defecto
// cuando no hay PostgreSQL configurado, y el que usan los tests.
type LedgerStorage struct {
	mu        sync.RWMutex
	cells     map[entity.CellKey]entity.StockCell
	movements map[entity.CellKey][]entity.MovementEntry
}

// NewLedgerStorage construye el almacenamiento en memoria.
func NewLedgerStorage() *LedgerStorage {
	return &LedgerStorage{
		cells:     make(map[entity.CellKey]entity.StockCell),
		movements: make(map[entity.CellKey][]entity.MovementEntry),
	}
}

// LoadCell carga la celda; domain.ErrNotFound si nunca fue tocada.
func (s *LedgerStorage) LoadCell(_ context.Context, key entity.CellKey) (*entity.StockCell, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cells[key]
	if !ok {
		return nil, fmt.Errorf("%w: celda %s", domain.ErrNotFound, key)
	}
	cp := c
	return &cp, nil
}

// SaveCell persiste el estado de la celda.
func (s *LedgerStorage) SaveCell(_ context.Context, cell *entity.StockCell) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells[cell.Key] = *cell
	return nil
}

// AppendMovement persiste celda y movimiento bajo el mismo lock.
func (s *LedgerStorage) AppendMovement(_ context.Context, cell *entity.StockCell, mov *entity.MovementEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells[cell.Key] = *cell
	s.movements[cell.Key] = append(s.movements[cell.Key], *mov)
	return nil
}

// MovementsByCell devuelve los movimientos de la celda en orden de registro.
func (s *LedgerStorage) MovementsByCell(_ context.Context, key entity.CellKey) ([]*entity.MovementEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.movements[key]
	out := make([]*entity.MovementEntry, len(list))
	for i := range list {
		cp := list[i]
		out[i] = &cp
	}
	return out, nil
}
