package storage

import (
	"context"
	"sync"

	"github.com/JonMunkholm/tablekit/internal/core"
)

// Memory keeps column configuration in process memory.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// LoadColumns returns the columns stored under namespace.
func (m *Memory) LoadColumns(_ context.Context, namespace string) ([]core.Column, bool, error) {
	m.mu.RLock()
	payload, ok := m.data[namespace]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	cols, err := decodeColumns(payload)
	if err != nil {
		return nil, false, err
	}
	return cols, true, nil
}

// SaveColumns replaces the columns stored under namespace.
func (m *Memory) SaveColumns(_ context.Context, namespace string, cols []core.Column) error {
	payload, err := encodeColumns(cols)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[namespace] = payload
	m.mu.Unlock()
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
