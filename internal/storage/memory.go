package storage

import (
	"context"
	"fmt"
	"sync"

	json "github.com/goccy/go-json"
)

// MemoryStore keeps encoded slots in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[Slot][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[Slot][]byte)}
}

func (m *MemoryStore) Save(_ context.Context, slot Slot, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode slot %s: %w", slot, err)
	}
	return m.SaveRaw(slot, data)
}

func (m *MemoryStore) Load(_ context.Context, slot Slot, dst any) (bool, error) {
	data, ok, _ := m.LoadRaw(slot)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode slot %s: %w", slot, err)
	}
	return true, nil
}

func (m *MemoryStore) SaveRaw(slot Slot, data []byte) error {
	m.mu.Lock()
	m.slots[slot] = append([]byte(nil), data...)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) LoadRaw(slot Slot) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.slots[slot]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	m.slots = make(map[Slot][]byte)
	m.mu.Unlock()
	return nil
}
