package journal

import (
	"hash/fnv"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// shardCount dimensiona el mapa de locks para evitar contención entre
// productos/bodegas no relacionados. Potencia de dos para enmascarar el hash.
const shardCount = 64

type shard struct {
	mu    sync.RWMutex
	cells map[entity.CellKey]*entity.StockCell
}

// cellStore es el estado autoritativo de celdas con serialización por llave:
// dos mutaciones sobre la misma celda nunca entrelazan su read-modify-write;
// llaves distintas proceden en paralelo (salvo colisión de shard).
type cellStore struct {
	shards [shardCount]*shard
}

func newCellStore() *cellStore {
	s := &cellStore{}
	for i := range s.shards {
		s.shards[i] = &shard{cells: make(map[entity.CellKey]*entity.StockCell)}
	}
	return s
}

func (s *cellStore) shardFor(key entity.CellKey) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key.String()))
	return s.shards[h.Sum32()&(shardCount-1)]
}

// withCell ejecuta fn dentro de la sección crítica de la celda, creándola si
// no existe. fn recibe la celda viva: toda mutación debe ocurrir dentro de fn.
func (s *cellStore) withCell(key entity.CellKey, fn func(c *entity.StockCell) error) error {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	c, ok := sh.cells[key]
	if !ok {
		c = &entity.StockCell{
			Key:          key,
			OnHand:       decimal.Zero,
			Reserved:     decimal.Zero,
			InTransitOut: decimal.Zero,
			InTransitIn:  decimal.Zero,
		}
		sh.cells[key] = c
	}
	return fn(c)
}

// get devuelve una copia de la celda, o nil si nunca fue tocada.
func (s *cellStore) get(key entity.CellKey) *entity.StockCell {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	c, ok := sh.cells[key]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

// available lee el disponible sin tomar el lock de escritura.
// Lectura eventualmente consistente, apta para display; las decisiones de
// reserva/despacho siempre re-verifican dentro de withCell.
func (s *cellStore) available(key entity.CellKey) decimal.Decimal {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	c, ok := sh.cells[key]
	if !ok {
		return decimal.Zero
	}
	return c.Available()
}

// snapshot devuelve copias de las celdas que cumplen el filtro, congeladas
// al instante de la visita de cada shard.
func (s *cellStore) snapshot(match func(entity.CellKey) bool) []*entity.StockCell {
	var out []*entity.StockCell
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k, c := range sh.cells {
			if match(k) {
				cp := *c
				out = append(out, &cp)
			}
		}
		sh.mu.RUnlock()
	}
	return out
}
