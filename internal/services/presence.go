package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/ghostline-backend/internal/data/repos"
	types "github.com/yungbote/ghostline-backend/internal/domain"
	"github.com/yungbote/ghostline-backend/internal/platform/dbctx"
	"github.com/yungbote/ghostline-backend/internal/platform/kv"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
	"github.com/yungbote/ghostline-backend/internal/realtime"
)

const presenceCountCacheKey = "presence:count"

// PresenceService is the heartbeat store. Staleness is bounded by the online window and
// the retention sweep, never reconciled eagerly.
type PresenceService interface {
	UpdatePresence(ctx context.Context, deviceID, cellID string) (uuid.UUID, error)
	RemovePresence(ctx context.Context, deviceID string) error
	GetPresenceCount(ctx context.Context) (types.PresenceCount, error)
	GetPresenceByCell(ctx context.Context, cellID string) (int64, error)
}

type presenceService struct {
	log   *logger.Logger
	repo  repos.PresenceRepo
	cache kv.Store
	emit  SSEEmitter
	cfg   Config
}

// NewPresenceService wires the heartbeat store; cache may be nil to disable count caching.
func NewPresenceService(log *logger.Logger, repo repos.PresenceRepo, cache kv.Store, emit SSEEmitter, cfg Config) PresenceService {
	return &presenceService{
		log:   log.With("service", "PresenceService"),
		repo:  repo,
		cache: cache,
		emit:  emitterOrNop(emit),
		cfg:   cfg.withDefaults(),
	}
}

func (s *presenceService) UpdatePresence(ctx context.Context, deviceID, cellID string) (uuid.UUID, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return uuid.Nil, invalid("missing_device_id", "device id required")
	}
	row, err := s.repo.Upsert(dbctx.Context{Ctx: ctx}, deviceID, cellID, s.cfg.now())
	if err != nil {
		s.log.Warn("presence upsert failed", "device_id", deviceID, "error", err)
		return uuid.Nil, err
	}
	if row == nil {
		return uuid.Nil, nil
	}
	// created_at is only written on insert
	if row.CreatedAt.Equal(row.LastSeen) {
		s.invalidateCount(ctx)
	}
	return row.ID, nil
}

func (s *presenceService) RemovePresence(ctx context.Context, deviceID string) error {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return invalid("missing_device_id", "device id required")
	}
	n, err := s.repo.DeleteByDevice(dbctx.Context{Ctx: ctx}, deviceID)
	if err != nil {
		s.log.Warn("presence delete failed", "device_id", deviceID, "error", err)
		return err
	}
	if n > 0 {
		s.invalidateCount(ctx)
	}
	return nil
}

func (s *presenceService) GetPresenceCount(ctx context.Context) (types.PresenceCount, error) {
	if out, ok := s.cachedCount(ctx); ok {
		return out, nil
	}
	now := s.cfg.now()
	dbc := dbctx.Context{Ctx: ctx}
	total, err := s.repo.CountSeenSince(dbc, now.Add(-s.cfg.PresenceOnlineWindow))
	if err != nil {
		return types.PresenceCount{}, err
	}
	recent, err := s.repo.CountSeenSince(dbc, now.Add(-s.cfg.PresenceRecentWindow))
	if err != nil {
		return types.PresenceCount{}, err
	}
	out := types.PresenceCount{Total: total, Recent: recent}
	s.storeCount(ctx, out)
	s.emit.Emit(ctx, realtime.SSEMessage{Channel: realtime.ChannelNetwork, Event: realtime.SSEEventPresenceCount, Data: out})
	return out, nil
}

func (s *presenceService) GetPresenceByCell(ctx context.Context, cellID string) (int64, error) {
	cellID = strings.TrimSpace(cellID)
	if cellID == "" {
		return 0, invalid("missing_cell_id", "cell id required")
	}
	return s.repo.CountByCellSeenSince(dbctx.Context{Ctx: ctx}, cellID, s.cfg.now().Add(-s.cfg.PresenceOnlineWindow))
}

func (s *presenceService) cachedCount(ctx context.Context) (types.PresenceCount, bool) {
	if s.cache == nil || s.cfg.PresenceCountCacheTTL <= 0 {
		return types.PresenceCount{}, false
	}
	raw, ok, err := s.cache.Get(ctx, presenceCountCacheKey)
	if err != nil {
		s.log.Debug("presence count cache read failed", "error", err)
		return types.PresenceCount{}, false
	}
	if !ok {
		return types.PresenceCount{}, false
	}
	var out types.PresenceCount
	if err := json.Unmarshal(raw, &out); err != nil {
		return types.PresenceCount{}, false
	}
	return out, true
}

func (s *presenceService) storeCount(ctx context.Context, v types.PresenceCount) {
	if s.cache == nil || s.cfg.PresenceCountCacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, presenceCountCacheKey, raw, s.cfg.PresenceCountCacheTTL); err != nil {
		s.log.Debug("presence count cache write failed", "error", err)
	}
}

func (s *presenceService) invalidateCount(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, presenceCountCacheKey)
}
