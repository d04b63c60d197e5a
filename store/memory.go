package store

import (
	"sync"
	"unicode/utf16"
)

// MemoryStore is an in-process KV used by tests and as the fallback when no
// store file is configured. A MaxBytes of zero means unlimited.
type MemoryStore struct {
	mu       sync.RWMutex
	data     map[string]string
	MaxBytes int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]string{}}
}

func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MaxBytes > 0 {
		next := m.sizeLocked() + utf16Bytes(key) + utf16Bytes(value)
		if prev, ok := m.data[key]; ok {
			next -= utf16Bytes(key) + utf16Bytes(prev)
		}
		if next > m.MaxBytes {
			return ErrQuotaExceeded
		}
	}
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

func (m *MemoryStore) ListKeys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

func (m *MemoryStore) EstimateByteSize() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sizeLocked()
}

func (m *MemoryStore) sizeLocked() int64 {
	var total int64
	for k, v := range m.data {
		total += utf16Bytes(k) + utf16Bytes(v)
	}
	return total
}

// utf16Bytes is the UTF-16 code unit count times two, the browser's
// localStorage accounting.
func utf16Bytes(s string) int64 {
	return int64(len(utf16.Encode([]rune(s)))) * 2
}
