package buffer

import (
	"slices"
	"sync"
)

// Manager keeps the buffer pools of all active backends in registration
// order. The order is stable: renderer resolution walks pools in it.
type Manager struct {
	mu    sync.RWMutex
	pools []Pool
}

// NewManager creates a manager holding pools in the given order.
func NewManager(pools ...Pool) *Manager {
	m := &Manager{}
	for _, p := range pools {
		m.AddPool(p)
	}
	return m
}

// AddPool appends p. Nil and already registered pools are ignored.
func (m *Manager) AddPool(p Pool) {
	if p == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(m.pools, p) {
		m.pools = append(m.pools, p)
	}
}

// Pools returns a copy of the registered pools.
func (m *Manager) Pools() []Pool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.pools)
}

// Len returns the number of registered pools.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pools)
}

// Flush flushes every pool.
func (m *Manager) Flush() {
	for _, p := range m.Pools() {
		p.Flush()
	}
}
