package tokenstore

import (
	"context"
	"sync"
	"time"

	"github.com/devilmonastery/inkwell/internal/pkg/metrics"
)

// Memory keeps items in process memory. Tokens do not survive a restart.
type Memory struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

func (m *Memory) GetItem(_ context.Context, key string) (string, bool, error) {
	start := time.Now()
	m.mu.RLock()
	v, ok := m.items[key]
	m.mu.RUnlock()
	metrics.RecordStoreOperation("memory", "get", time.Since(start), nil)
	return v, ok, nil
}

func (m *Memory) SetItem(_ context.Context, key, value string) error {
	start := time.Now()
	m.mu.Lock()
	m.items[key] = value
	m.mu.Unlock()
	metrics.RecordStoreOperation("memory", "set", time.Since(start), nil)
	return nil
}

func (m *Memory) RemoveItem(_ context.Context, key string) error {
	start := time.Now()
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	metrics.RecordStoreOperation("memory", "remove", time.Since(start), nil)
	return nil
}

func (m *Memory) Close() error { return nil }
