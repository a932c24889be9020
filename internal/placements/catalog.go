package placements

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// SlotCatalog resolves a slot's configured minimum price. A false second
// return means the slot is not configured.
type SlotCatalog interface {
	LookupBasePrice(ctx context.Context, slotID string) (decimal.Decimal, bool, error)
}

// StaticCatalog is an in-memory catalog for deployments without a slot registry.
type StaticCatalog struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

func NewStaticCatalog(prices map[string]string) *StaticCatalog {
	c := &StaticCatalog{prices: make(map[string]decimal.Decimal, len(prices))}
	for id, price := range prices {
		c.prices[id] = decimal.RequireFromString(price)
	}
	return c
}

func (c *StaticCatalog) Set(slotID string, basePrice decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[slotID] = basePrice
}

func (c *StaticCatalog) LookupBasePrice(_ context.Context, slotID string) (decimal.Decimal, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	price, ok := c.prices[slotID]
	return price, ok, nil
}
