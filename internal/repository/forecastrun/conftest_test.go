package forecastrun

import (
	"context"
	"sync"
	"time"
)

// memStore is an in-memory KV and list store.
type memStore struct {
	mu    sync.Mutex
	kv    map[string][]byte
	lists map[string][]string

	setErr   error
	pushErr  error
	trimErr  error
	rangeErr error
	getErr   error
}

func newMemStore() *memStore {
	return &memStore{kv: make(map[string][]byte), lists: make(map[string][]string)}
}

func (m *memStore) MGet(_ context.Context, keys []string) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = m.kv[k]
	}
	return out, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.kv[key] = value
	return nil
}

func (m *memStore) LPush(_ context.Context, key string, values ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pushErr != nil {
		return m.pushErr
	}
	for _, v := range values {
		m.lists[key] = append([]string{v}, m.lists[key]...)
	}
	return nil
}

func (m *memStore) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rangeErr != nil {
		return nil, m.rangeErr
	}
	l := m.lists[key]
	if stop >= int64(len(l)) {
		stop = int64(len(l)) - 1
	}
	if start > stop {
		return []string{}, nil
	}
	return append([]string(nil), l[start:stop+1]...), nil
}

func (m *memStore) LTrim(_ context.Context, key string, start, stop int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.trimErr != nil {
		return m.trimErr
	}
	l := m.lists[key]
	if stop >= int64(len(l)) {
		stop = int64(len(l)) - 1
	}
	if start > stop {
		m.lists[key] = nil
		return nil
	}
	m.lists[key] = l[start : stop+1]
	return nil
}

var baseTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
