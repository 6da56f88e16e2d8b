package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/ghostline-backend/internal/data/repos"
	types "github.com/yungbote/ghostline-backend/internal/domain"
	"github.com/yungbote/ghostline-backend/internal/platform/dbctx"
	"github.com/yungbote/ghostline-backend/internal/platform/geo"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
)

type TrailPointInput struct {
	DeviceID  string  `json:"device_id"`
	SessionID string  `json:"session_id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Accuracy  float64 `json:"accuracy"`
	Seq       int     `json:"seq"`
}

type TrailService interface {
	InsertTrailPoint(ctx context.Context, in TrailPointInput) (uuid.UUID, error)
	GetTrailsInRange(ctx context.Context, deviceID string, since time.Time, excludeSessionID string) ([]types.TrailSession, error)
}

type trailService struct {
	log  *logger.Logger
	repo repos.TrailRepo
	cfg  Config
}

func NewTrailService(log *logger.Logger, repo repos.TrailRepo, cfg Config) TrailService {
	return &trailService{
		log:  log.With("service", "TrailService"),
		repo: repo,
		cfg:  cfg.withDefaults(),
	}
}

func (s *trailService) InsertTrailPoint(ctx context.Context, in TrailPointInput) (uuid.UUID, error) {
	in.DeviceID = strings.TrimSpace(in.DeviceID)
	in.SessionID = strings.TrimSpace(in.SessionID)
	if in.DeviceID == "" || in.SessionID == "" {
		return uuid.Nil, invalid("missing_id", "device id and session id required")
	}
	if in.Seq < 0 {
		return uuid.Nil, invalid("invalid_seq", "seq must be non-negative")
	}
	if !geo.ValidLatLng(in.Lat, in.Lng) {
		return uuid.Nil, invalid("invalid_location", "lat/lng out of range")
	}
	row, err := s.repo.Create(dbctx.Context{Ctx: ctx}, &types.TrailPoint{
		ID:        uuid.New(),
		DeviceID:  in.DeviceID,
		SessionID: in.SessionID,
		Lat:       geo.Quantize(in.Lat),
		Lng:       geo.Quantize(in.Lng),
		Accuracy:  in.Accuracy,
		Seq:       in.Seq,
		CreatedAt: s.cfg.now(),
	})
	if err != nil {
		s.log.Warn("trail insert failed", "device_id", in.DeviceID, "session_id", in.SessionID, "error", err)
		return uuid.Nil, err
	}
	return row.ID, nil
}

func (s *trailService) GetTrailsInRange(ctx context.Context, deviceID string, since time.Time, excludeSessionID string) ([]types.TrailSession, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, invalid("missing_device_id", "device id required")
	}
	rows, err := s.repo.ListByDeviceSince(dbctx.Context{Ctx: ctx}, deviceID, since, excludeSessionID)
	if err != nil {
		return nil, err
	}
	return groupTrailSessions(rows), nil
}

// groupTrailSessions relies on rows arriving ordered by session then seq.
func groupTrailSessions(rows []*types.TrailPoint) []types.TrailSession {
	out := []types.TrailSession{}
	for _, r := range rows {
		if n := len(out); n == 0 || out[n-1].SessionID != r.SessionID {
			out = append(out, types.TrailSession{SessionID: r.SessionID})
		}
		last := &out[len(out)-1]
		last.Points = append(last.Points, *r)
	}
	return out
}
