package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/ghostline-backend/internal/data/repos"
	types "github.com/yungbote/ghostline-backend/internal/domain"
	"github.com/yungbote/ghostline-backend/internal/domain/presence"
	"github.com/yungbote/ghostline-backend/internal/platform/dbctx"
	"github.com/yungbote/ghostline-backend/internal/platform/geo"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
	"github.com/yungbote/ghostline-backend/internal/realtime"
)

// BroadcastService is the ephemeral broadcast store. Every row gets its TTL at write time
// and is never updated afterwards.
type BroadcastService interface {
	SendGhostPing(ctx context.Context, deviceID string, payload presence.GhostPayload) (uuid.UUID, error)
	SendWindowBroadcast(ctx context.Context, deviceID string, payload presence.WindowPayload) (uuid.UUID, error)
	SendDensityPing(ctx context.Context, deviceID, cellID string) (uuid.UUID, error)
	GetRecentGhostPings(ctx context.Context) ([]types.GhostPing, error)
	GetCurrentWindowMoment(ctx context.Context) (types.WindowMomentSignal, error)
	GetDensityForCell(ctx context.Context, cellID string) (types.DensityReading, error)
}

type broadcastService struct {
	log  *logger.Logger
	repo repos.BroadcastRepo
	emit SSEEmitter
	cfg  Config
}

func NewBroadcastService(log *logger.Logger, repo repos.BroadcastRepo, emit SSEEmitter, cfg Config) BroadcastService {
	return &broadcastService{
		log:  log.With("service", "BroadcastService"),
		repo: repo,
		emit: emitterOrNop(emit),
		cfg:  cfg.withDefaults(),
	}
}

func (s *broadcastService) SendGhostPing(ctx context.Context, deviceID string, payload presence.GhostPayload) (uuid.UUID, error) {
	if !geo.ValidLatLng(payload.Lat, payload.Lng) {
		return uuid.Nil, invalid("invalid_location", "lat/lng out of range")
	}
	payload.Lat = geo.Quantize(payload.Lat)
	payload.Lng = geo.Quantize(payload.Lng)
	payload.Intensity = clamp01(payload.Intensity)
	return s.insert(ctx, deviceID, payload, nil, s.cfg.GhostPingTTL, realtime.SSEEventGhostPing)
}

func (s *broadcastService) SendWindowBroadcast(ctx context.Context, deviceID string, payload presence.WindowPayload) (uuid.UUID, error) {
	if payload.StartedAt.IsZero() || !payload.EndsAt.After(payload.StartedAt) {
		return uuid.Nil, invalid("invalid_window", "ends_at must be after started_at")
	}
	payload.StartedAt = payload.StartedAt.UTC()
	payload.EndsAt = payload.EndsAt.UTC()
	payload.PositionX = clamp01(payload.PositionX)
	payload.PositionY = clamp01(payload.PositionY)
	return s.insert(ctx, deviceID, payload, nil, s.cfg.WindowBroadcastTTL, realtime.SSEEventWindowOpened)
}

func (s *broadcastService) SendDensityPing(ctx context.Context, deviceID, cellID string) (uuid.UUID, error) {
	cellID = strings.TrimSpace(cellID)
	if cellID == "" {
		return uuid.Nil, invalid("missing_cell_id", "cell id required")
	}
	return s.insert(ctx, deviceID, presence.DensityPayload{CellID: cellID}, &cellID, s.cfg.DensityPingTTL, realtime.SSEEventDensityPulse)
}

func (s *broadcastService) insert(ctx context.Context, deviceID string, payload presence.BroadcastPayload, cellID *string, ttl time.Duration, event realtime.SSEEvent) (uuid.UUID, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return uuid.Nil, invalid("missing_device_id", "device id required")
	}
	raw, err := presence.EncodePayload(payload)
	if err != nil {
		return uuid.Nil, err
	}
	now := s.cfg.now()
	row, err := s.repo.Create(dbctx.Context{Ctx: ctx}, &types.Broadcast{
		ID:        uuid.New(),
		Type:      payload.Kind(),
		DeviceID:  deviceID,
		CellID:    cellID,
		Payload:   raw,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	})
	if err != nil {
		s.log.Warn("broadcast insert failed", "type", payload.Kind(), "device_id", deviceID, "error", err)
		return uuid.Nil, err
	}

	data := map[string]any{
		"id":         row.ID,
		"type":       row.Type,
		"payload":    payload,
		"expires_at": row.ExpiresAt,
	}
	s.emit.Emit(ctx, realtime.SSEMessage{Channel: realtime.ChannelNetwork, Event: event, Data: data})
	if cellID != nil {
		s.emit.Emit(ctx, realtime.SSEMessage{Channel: realtime.CellChannel(*cellID), Event: event, Data: data})
	}
	return row.ID, nil
}

func (s *broadcastService) GetRecentGhostPings(ctx context.Context) ([]types.GhostPing, error) {
	rows, err := s.repo.ListLive(dbctx.Context{Ctx: ctx}, types.BroadcastGhost, s.cfg.now(), s.cfg.GhostPingCap)
	if err != nil {
		return nil, err
	}
	out := make([]types.GhostPing, 0, len(rows))
	for _, r := range rows {
		sig, err := r.Decode()
		if err != nil {
			s.log.Warn("skipping undecodable ghost ping", "id", r.ID, "error", err)
			continue
		}
		gp, ok := sig.Payload.(presence.GhostPayload)
		if !ok {
			continue
		}
		out = append(out, types.GhostPing{
			ID:        r.ID,
			DeviceID:  r.DeviceID,
			Payload:   gp,
			CreatedAt: r.CreatedAt,
			ExpiresAt: r.ExpiresAt,
		})
	}
	return out, nil
}

// GetCurrentWindowMoment reads the newest live window broadcast. No live broadcast, or one
// whose window has already ended, yields the closed zero value.
func (s *broadcastService) GetCurrentWindowMoment(ctx context.Context) (types.WindowMomentSignal, error) {
	now := s.cfg.now()
	rows, err := s.repo.ListLive(dbctx.Context{Ctx: ctx}, types.BroadcastWindow, now, 1)
	if err != nil {
		return types.WindowMomentSignal{}, err
	}
	if len(rows) == 0 {
		return types.WindowMomentSignal{}, nil
	}
	sig, err := rows[0].Decode()
	if err != nil {
		s.log.Warn("undecodable window broadcast", "id", rows[0].ID, "error", err)
		return types.WindowMomentSignal{}, nil
	}
	wp, ok := sig.Payload.(presence.WindowPayload)
	if !ok || !wp.EndsAt.After(now) {
		return types.WindowMomentSignal{}, nil
	}
	started, ends := wp.StartedAt, wp.EndsAt
	return types.WindowMomentSignal{
		IsOpen:           true,
		StartedAt:        &started,
		EndsAt:           &ends,
		PositionX:        wp.PositionX,
		PositionY:        wp.PositionY,
		TriggeredBy:      wp.TriggeredBy,
		ParticipantCount: wp.ParticipantCount,
	}, nil
}

func (s *broadcastService) GetDensityForCell(ctx context.Context, cellID string) (types.DensityReading, error) {
	cellID = strings.TrimSpace(cellID)
	if cellID == "" {
		return types.DensityReading{}, invalid("missing_cell_id", "cell id required")
	}
	n, err := s.repo.CountLiveByCell(dbctx.Context{Ctx: ctx}, types.BroadcastDensity, cellID, s.cfg.now())
	if err != nil {
		return types.DensityReading{}, err
	}
	return types.DensityReading{CellID: cellID, Count: n, DensityScore: presence.DensityScore(n)}, nil
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
