package kv

import (
	"context"
	"testing"
	"time"
)

func TestMemoryTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemoryWithClock(func() time.Time { return now })
	ctx := context.Background()

	if err := m.Set(ctx, "a", []byte("1"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Set(ctx, "forever", []byte("2"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	now = now.Add(59 * time.Second)
	if v, ok, _ := m.Get(ctx, "a"); !ok || string(v) != "1" {
		t.Fatalf("Get before expiry: want=1 got=%q ok=%v", v, ok)
	}

	now = now.Add(time.Second)
	if _, ok, _ := m.Get(ctx, "a"); ok {
		t.Fatalf("Get at expiry: want miss")
	}
	if _, ok, _ := m.Get(ctx, "forever"); !ok {
		t.Fatalf("Get no-ttl: want hit")
	}

	if err := m.Delete(ctx, "forever"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "forever"); ok {
		t.Fatalf("Get after delete: want miss")
	}
}

func TestMemoryRejectsEmptyKey(t *testing.T) {
	m := NewMemory()
	if err := m.Set(context.Background(), "", nil, 0); err != ErrEmptyKey {
		t.Fatalf("Set empty: want=%v got=%v", ErrEmptyKey, err)
	}
}
