package memory

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

var (
	_ repository.ProductRepository   = (*ProductRepo)(nil)
	_ repository.WarehouseRepository = (*WarehouseRepo)(nil)
)

// ProductRepo implementación en memoria del catálogo de productos.
// Útil para desarrollo y pruebas sin PostgreSQL.
type ProductRepo struct {
	mu       sync.RWMutex
	products map[string]entity.Product
	bySKU    map[string]string
}

func NewProductRepository() *ProductRepo {
	return &ProductRepo{
		products: make(map[string]entity.Product),
		bySKU:    make(map[string]string),
	}
}

func (r *ProductRepo) Create(product *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySKU[product.SKU]; ok {
		return domain.ErrDuplicate
	}
	r.products[product.ID] = *product
	r.bySKU[product.SKU] = product.ID
	return nil
}

func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *ProductRepo) GetBySKU(sku string) (*entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.bySKU[sku]
	if !ok {
		return nil, nil
	}
	p := r.products[id]
	return &p, nil
}

func (r *ProductRepo) Update(product *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[product.ID]; !ok {
		return domain.ErrNotFound
	}
	r.products[product.ID] = *product
	return nil
}

func (r *ProductRepo) UpdateCost(productID string, cost decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	p.Cost = cost
	r.products[productID] = p
	return nil
}

func (r *ProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*entity.Product, 0, len(r.products))
	for id := range r.products {
		p := r.products[id]
		all = append(all, &p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, limit, offset), nil
}

func (r *ProductRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.bySKU, p.SKU)
	delete(r.products, id)
	return nil
}

// WarehouseRepo implementación en memoria del catálogo de bodegas.
type WarehouseRepo struct {
	mu         sync.RWMutex
	warehouses map[string]entity.Warehouse
}

func NewWarehouseRepository() *WarehouseRepo {
	return &WarehouseRepo{warehouses: make(map[string]entity.Warehouse)}
}

func (r *WarehouseRepo) Create(warehouse *entity.Warehouse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.warehouses {
		if w.Code == warehouse.Code {
			return domain.ErrDuplicate
		}
	}
	r.warehouses[warehouse.ID] = *warehouse
	return nil
}

func (r *WarehouseRepo) GetByID(id string) (*entity.Warehouse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.warehouses[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *WarehouseRepo) Update(warehouse *entity.Warehouse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.warehouses[warehouse.ID]; !ok {
		return domain.ErrNotFound
	}
	r.warehouses[warehouse.ID] = *warehouse
	return nil
}

func (r *WarehouseRepo) List(limit, offset int) ([]*entity.Warehouse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*entity.Warehouse, 0, len(r.warehouses))
	for id := range r.warehouses {
		w := r.warehouses[id]
		all = append(all, &w)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, limit, offset), nil
}

func (r *WarehouseRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.warehouses[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.warehouses, id)
	return nil
}

func paginate[T any](all []*T, limit, offset int) []*T {
	if offset >= len(all) {
		return nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}
