package collection

import "sync"

// SyncMap is a mutex guarded generic map.
type SyncMap[K comparable, V any] struct {
	m   map[K]V
	mux sync.RWMutex
}

func (m *SyncMap[K, V]) Get(k K) (V, bool) {
	m.mux.RLock()
	defer m.mux.RUnlock()
	v, ok := m.m[k]
	return v, ok
}

// GetOrPut returns the value stored under k, or stores and returns the value built by fn.
// fn runs at most once per missing key.
func (m *SyncMap[K, V]) GetOrPut(k K, fn func() V) V {
	if v, ok := m.Get(k); ok {
		return v
	}
	m.mux.Lock()
	defer m.mux.Unlock()
	if v, ok := m.m[k]; ok {
		return v
	}
	v := fn()
	m.m[k] = v
	return v
}

func NewSyncMap[K comparable, V any]() *SyncMap[K, V] {
	return &SyncMap[K, V]{m: make(map[K]V)}
}
