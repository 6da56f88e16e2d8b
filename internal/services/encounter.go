package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/ghostline-backend/internal/data/repos"
	types "github.com/yungbote/ghostline-backend/internal/domain"
	"github.com/yungbote/ghostline-backend/internal/domain/presence"
	"github.com/yungbote/ghostline-backend/internal/platform/apierr"
	"github.com/yungbote/ghostline-backend/internal/platform/dbctx"
	"github.com/yungbote/ghostline-backend/internal/platform/geo"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
)

type EncounterInput struct {
	DeviceA         string   `json:"device_a"`
	DeviceB         string   `json:"device_b"`
	Lat             *float64 `json:"lat,omitempty"`
	Lng             *float64 `json:"lng,omitempty"`
	DurationMs      int64    `json:"duration_ms"`
	MaxResonance    float64  `json:"max_resonance"`
	RitualTriggered bool     `json:"ritual_triggered"`
}

type EncounterService interface {
	InsertEncounter(ctx context.Context, in EncounterInput) (uuid.UUID, error)
	GetEncounterFrequency(ctx context.Context, deviceID string) ([]types.EncounterFrequency, error)
	GetRecentEncounters(ctx context.Context, deviceID string, limit int) ([]*types.Encounter, error)
	GetEncountersInRange(ctx context.Context, since time.Time) ([]types.EncounterPoint, error)
}

type encounterService struct {
	log  *logger.Logger
	repo repos.EncounterRepo
	cfg  Config
}

func NewEncounterService(log *logger.Logger, repo repos.EncounterRepo, cfg Config) EncounterService {
	return &encounterService{
		log:  log.With("service", "EncounterService"),
		repo: repo,
		cfg:  cfg.withDefaults(),
	}
}

func (s *encounterService) InsertEncounter(ctx context.Context, in EncounterInput) (uuid.UUID, error) {
	a, b := strings.TrimSpace(in.DeviceA), strings.TrimSpace(in.DeviceB)
	if a == "" || b == "" {
		return uuid.Nil, invalid("missing_device_id", "both device ids required")
	}
	if a == b {
		return uuid.Nil, invalid("self_encounter", "device cannot encounter itself")
	}
	if !presence.IsValidEncounter(time.Duration(in.DurationMs) * time.Millisecond) {
		return uuid.Nil, apierr.BadRequest("encounter_too_short", fmt.Errorf("%w: %w: %dms", ErrInvalidArgument, ErrEncounterShort, in.DurationMs))
	}
	row := &types.Encounter{
		ID:              uuid.New(),
		DeviceA:         a,
		DeviceB:         b,
		DurationMs:      in.DurationMs,
		MaxResonance:    clamp01(in.MaxResonance),
		RitualTriggered: in.RitualTriggered,
		CreatedAt:       s.cfg.now(),
	}
	if in.Lat != nil && in.Lng != nil {
		if !geo.ValidLatLng(*in.Lat, *in.Lng) {
			return uuid.Nil, invalid("invalid_location", "lat/lng out of range")
		}
		lat, lng := geo.Quantize(*in.Lat), geo.Quantize(*in.Lng)
		row.Lat, row.Lng = &lat, &lng
	}
	if _, err := s.repo.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
		s.log.Warn("encounter insert failed", "device_a", a, "device_b", b, "error", err)
		return uuid.Nil, err
	}
	return row.ID, nil
}

// GetEncounterFrequency groups the device's encounters by peer, most frequent first.
func (s *encounterService) GetEncounterFrequency(ctx context.Context, deviceID string) ([]types.EncounterFrequency, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, invalid("missing_device_id", "device id required")
	}
	rows, err := s.repo.ListByDevice(dbctx.Context{Ctx: ctx}, deviceID, 0)
	if err != nil {
		return nil, err
	}
	byPeer := map[string]*types.EncounterFrequency{}
	for _, r := range rows {
		peer := r.DeviceB
		if peer == deviceID {
			peer = r.DeviceA
		}
		f := byPeer[peer]
		if f == nil {
			f = &types.EncounterFrequency{PeerID: peer}
			byPeer[peer] = f
		}
		f.EncounterCount++
		if r.CreatedAt.After(f.LastEncounter) {
			f.LastEncounter = r.CreatedAt
		}
		f.HasRitual = f.HasRitual || r.RitualTriggered
	}
	out := make([]types.EncounterFrequency, 0, len(byPeer))
	for _, f := range byPeer {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EncounterCount != out[j].EncounterCount {
			return out[i].EncounterCount > out[j].EncounterCount
		}
		if !out[i].LastEncounter.Equal(out[j].LastEncounter) {
			return out[i].LastEncounter.After(out[j].LastEncounter)
		}
		return out[i].PeerID < out[j].PeerID
	})
	return out, nil
}

func (s *encounterService) GetRecentEncounters(ctx context.Context, deviceID string, limit int) ([]*types.Encounter, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, invalid("missing_device_id", "device id required")
	}
	if limit <= 0 {
		limit = s.cfg.RecentEncounterLimit
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.ListByDevice(dbctx.Context{Ctx: ctx}, deviceID, limit)
}

// GetEncountersInRange returns every encounter since the cutoff with device ids stripped.
func (s *encounterService) GetEncountersInRange(ctx context.Context, since time.Time) ([]types.EncounterPoint, error) {
	rows, err := s.repo.ListSince(dbctx.Context{Ctx: ctx}, since)
	if err != nil {
		return nil, err
	}
	return toEncounterPoints(rows), nil
}

func toEncounterPoints(rows []*types.Encounter) []types.EncounterPoint {
	out := make([]types.EncounterPoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.EncounterPoint{
			Lat:             r.Lat,
			Lng:             r.Lng,
			DurationMs:      r.DurationMs,
			MaxResonance:    r.MaxResonance,
			RitualTriggered: r.RitualTriggered,
			At:              r.CreatedAt,
		})
	}
	return out
}
