package entity

import "time"

// Warehouse representa una bodega donde se almacena inventario (multi-bodega).
// Administrada por el colaborador externo; el ledger la referencia por ID.
type Warehouse struct {
	ID        string
	Code      string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
