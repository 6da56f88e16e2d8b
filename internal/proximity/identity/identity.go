// Package identity provides the device's pseudonymous id. The id is a random UUID kept in
// a key-value store; rotating it severs the link to everything sent under the old one.
package identity

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/ghostline-backend/internal/platform/kv"
)

const DefaultKey = "device_id"

type Provider interface {
	// Get returns the current id, creating one on first use.
	Get(ctx context.Context) (string, error)
	// Rotate replaces the id with a fresh one.
	Rotate(ctx context.Context) (string, error)
	// Clear forgets the id; the next Get creates a new one.
	Clear(ctx context.Context) error
}

type KVProvider struct {
	store kv.Store
	key   string

	mu     sync.Mutex
	cached string
}

func NewKVProvider(store kv.Store, key string) *KVProvider {
	if key == "" {
		key = DefaultKey
	}
	return &KVProvider{store: store, key: key}
}

func (p *KVProvider) Get(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != "" {
		return p.cached, nil
	}
	raw, ok, err := p.store.Get(ctx, p.key)
	if err != nil {
		return "", err
	}
	if ok {
		if id, perr := uuid.ParseBytes(raw); perr == nil {
			p.cached = id.String()
			return p.cached, nil
		}
	}
	return p.rotateLocked(ctx)
}

func (p *KVProvider) Rotate(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rotateLocked(ctx)
}

func (p *KVProvider) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = ""
	return p.store.Delete(ctx, p.key)
}

func (p *KVProvider) rotateLocked(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if err := p.store.Set(ctx, p.key, []byte(id), 0); err != nil {
		return "", err
	}
	p.cached = id
	return id, nil
}
