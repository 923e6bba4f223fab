package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/colmap/internal/db"
)

type mockStore struct {
	values  map[string][]byte
	getErr  error
	incrErr error
	expires map[string]time.Duration
	nx      map[string]bool
}

func newMockStore() *mockStore {
	return &mockStore{
		values:  make(map[string][]byte),
		expires: make(map[string]time.Duration),
		nx:      make(map[string]bool),
	}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) IncrBy(_ context.Context, key string, _ int64) error {
	return m.incrErr
}

func (m *mockStore) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	m.expires[key] = ttl
	m.nx[key] = nx
	return nil
}

func TestStore_IncrBySetsTTLByPeriod(t *testing.T) {
	ms := newMockStore()
	s := New(ms, 48*time.Hour, 62*24*time.Hour)
	ctx := context.Background()

	daily := "colmap:budget:openai:daily:2026-01-02"
	monthly := "colmap:budget:openai:monthly:2026-01"
	if err := s.IncrBy(ctx, daily, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.IncrBy(ctx, monthly, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ms.expires[daily] != 48*time.Hour || !ms.nx[daily] {
		t.Errorf("daily key TTL = %v (nx=%v)", ms.expires[daily], ms.nx[daily])
	}
	if ms.expires[monthly] != 62*24*time.Hour {
		t.Errorf("monthly key TTL = %v", ms.expires[monthly])
	}
}

func TestStore_IncrByError(t *testing.T) {
	ms := newMockStore()
	ms.incrErr = errors.New("down")
	s := New(ms, time.Hour, time.Hour)

	if err := s.IncrBy(context.Background(), "k:daily:x", 1); err == nil {
		t.Fatal("expected error")
	}
	if len(ms.expires) != 0 {
		t.Error("TTL must not be set when INCRBY fails")
	}
}

func TestStore_Get(t *testing.T) {
	ms := newMockStore()
	ms.values["present"] = []byte("42")
	ms.values["garbage"] = []byte("x")
	s := New(ms, time.Hour, time.Hour)
	ctx := context.Background()

	if v, err := s.Get(ctx, "present"); err != nil || v != 42 {
		t.Errorf("Get(present) = %d, %v", v, err)
	}
	if v, err := s.Get(ctx, "missing"); err != nil || v != 0 {
		t.Errorf("Get(missing) = %d, %v", v, err)
	}
	if _, err := s.Get(ctx, "garbage"); err == nil {
		t.Error("expected parse error")
	}

	ms.getErr = errors.New("down")
	if _, err := s.Get(ctx, "present"); err == nil {
		t.Error("expected store error")
	}
}
