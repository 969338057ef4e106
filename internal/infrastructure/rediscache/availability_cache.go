package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stock-ledger/internal/application/journal"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

const (
	availableKeyPrefix = "available:"
	availableTTL       = 5 * time.Minute
)

var _ journal.AvailabilityCache = (*AvailabilityCache)(nil)

// AvailabilityCache caché de disponible por celda sobre Redis. Los valores se
// guardan como string decimal con TTL corto; un miss manda al lector de vuelta
// a la memoria del journal.
type AvailabilityCache struct {
	client *redis.Client
}

// NewAvailabilityCache construye el caché con el cliente.
func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

// SetAvailable escribe el disponible de la celda.
func (c *AvailabilityCache) SetAvailable(ctx context.Context, key entity.CellKey, available decimal.Decimal) error {
	return c.client.Set(ctx, availableKeyPrefix+key.String(), available.String(), availableTTL).Err()
}

// GetAvailable lee el disponible; ok=false en miss.
func (c *AvailabilityCache) GetAvailable(ctx context.Context, key entity.CellKey) (decimal.Decimal, bool, error) {
	raw, err := c.client.Get(ctx, availableKeyPrefix+key.String()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, err
	}
	av, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("valor de caché corrupto para %s: %w", key, err)
	}
	return av, true, nil
}
