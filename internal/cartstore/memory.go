package cartstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hushimx/hostservice-cart/internal/cart"
)

// Memory keeps serialized cart records in a map. It backs local development
// and tests, and goes through the same encode/decode path as the durable
// stores so the round-trip behavior matches.
type Memory struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string][]byte)}
}

func (m *Memory) Load(ctx context.Context, key string) (*cart.Cart, error) {
	m.mu.RLock()
	raw, ok := m.records[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	var c cart.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		// Undecodable record means "no cart yet", same as absent.
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) Save(ctx context.Context, key string, c *cart.Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.records[key] = raw
	m.mu.Unlock()
	return nil
}
