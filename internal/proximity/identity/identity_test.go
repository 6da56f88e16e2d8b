package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/ghostline-backend/internal/platform/kv"
)

func TestGetIsStableAcrossProviders(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	a := NewKVProvider(store, "")
	id, err := a.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("id should be a uuid: %q", id)
	}
	again, _ := a.Get(ctx)
	if again != id {
		t.Fatalf("cached get: want=%s got=%s", id, again)
	}
	b := NewKVProvider(store, "")
	fromStore, _ := b.Get(ctx)
	if fromStore != id {
		t.Fatalf("persisted get: want=%s got=%s", id, fromStore)
	}
}

func TestRotateAndClear(t *testing.T) {
	ctx := context.Background()
	p := NewKVProvider(kv.NewMemory(), "id")
	first, _ := p.Get(ctx)
	rotated, err := p.Rotate(ctx)
	if err != nil || rotated == first {
		t.Fatalf("rotate: want new id got=%s err=%v", rotated, err)
	}
	if got, _ := p.Get(ctx); got != rotated {
		t.Fatalf("get after rotate: want=%s got=%s", rotated, got)
	}
	if err := p.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got, _ := p.Get(ctx); got == rotated || got == "" {
		t.Fatalf("get after clear: want fresh id got=%s", got)
	}
}
