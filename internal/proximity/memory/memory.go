// Package memory keeps the device's per-peer resonance memory: how often it has met each
// peer, cached locally and bumped optimistically between syncs.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	types "github.com/yungbote/ghostline-backend/internal/domain"
	"github.com/yungbote/ghostline-backend/internal/domain/presence"
	"github.com/yungbote/ghostline-backend/internal/platform/kv"
)

const DefaultTTL = 24 * time.Hour

type SignalMemory struct {
	PeerID         string    `json:"peer_id"`
	EncounterCount int       `json:"encounter_count"`
	LastEncounter  time.Time `json:"last_encounter"`
	HasRitual      bool      `json:"has_ritual"`
	MemoryLevel    int       `json:"memory_level"`
}

// Source is the server-side frequency query.
type Source interface {
	GetEncounterFrequency(ctx context.Context, deviceID string) ([]types.EncounterFrequency, error)
}

// Memory is safe for concurrent use; writes to the cached list are serialized.
type Memory struct {
	mu    sync.Mutex
	cache kv.Store
	src   Source
	ttl   time.Duration
}

func New(cache kv.Store, src Source, ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{cache: cache, src: src, ttl: ttl}
}

func key(deviceID string) string { return "memory:" + deviceID }

// Load returns the cached memory for deviceID, syncing from the source on a miss.
func (m *Memory) Load(ctx context.Context, deviceID string) ([]SignalMemory, error) {
	if out, ok, err := m.cached(ctx, deviceID); err != nil || ok {
		return out, err
	}
	return m.Sync(ctx, deviceID)
}

// Sync replaces the cached memory with the server's view, dropping optimistic bumps.
func (m *Memory) Sync(ctx context.Context, deviceID string) ([]SignalMemory, error) {
	if m.src == nil {
		return nil, fmt.Errorf("memory: no source configured")
	}
	rows, err := m.src.GetEncounterFrequency(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SignalMemory, 0, len(rows))
	for _, r := range rows {
		out = append(out, SignalMemory{
			PeerID:         r.PeerID,
			EncounterCount: r.EncounterCount,
			LastEncounter:  r.LastEncounter,
			HasRitual:      r.HasRitual,
			MemoryLevel:    presence.MemoryLevel(r.EncounterCount),
		})
	}
	return out, m.store(ctx, deviceID, out)
}

// RecordEncounter bumps peerID's count in the local cache. The next Sync overwrites it.
func (m *Memory) RecordEncounter(ctx context.Context, deviceID, peerID string, at time.Time, ritual bool) (SignalMemory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list, _, err := m.cached(ctx, deviceID)
	if err != nil {
		return SignalMemory{}, err
	}
	idx := -1
	for i := range list {
		if list[i].PeerID == peerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		list = append(list, SignalMemory{PeerID: peerID})
		idx = len(list) - 1
	}
	e := &list[idx]
	e.EncounterCount++
	if at.After(e.LastEncounter) {
		e.LastEncounter = at.UTC()
	}
	e.HasRitual = e.HasRitual || ritual
	e.MemoryLevel = presence.MemoryLevel(e.EncounterCount)
	updated := *e

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].EncounterCount != list[j].EncounterCount {
			return list[i].EncounterCount > list[j].EncounterCount
		}
		return list[i].LastEncounter.After(list[j].LastEncounter)
	})
	return updated, m.store(ctx, deviceID, list)
}

// Peer returns the memory for one peer, if any.
func (m *Memory) Peer(ctx context.Context, deviceID, peerID string) (SignalMemory, bool, error) {
	list, err := m.Load(ctx, deviceID)
	if err != nil {
		return SignalMemory{}, false, err
	}
	for _, e := range list {
		if e.PeerID == peerID {
			return e, true, nil
		}
	}
	return SignalMemory{}, false, nil
}

func (m *Memory) Forget(ctx context.Context, deviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Delete(ctx, key(deviceID))
}

func (m *Memory) cached(ctx context.Context, deviceID string) ([]SignalMemory, bool, error) {
	raw, ok, err := m.cache.Get(ctx, key(deviceID))
	if err != nil || !ok {
		return nil, false, err
	}
	var out []SignalMemory
	if err := json.Unmarshal(raw, &out); err != nil {
		// unreadable cache is a miss
		return nil, false, nil
	}
	return out, true, nil
}

func (m *Memory) store(ctx context.Context, deviceID string, list []SignalMemory) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return m.cache.Set(ctx, key(deviceID), raw, m.ttl)
}
