package services

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/ghostline-backend/internal/data/repos"
	types "github.com/yungbote/ghostline-backend/internal/domain"
	"github.com/yungbote/ghostline-backend/internal/domain/presence"
	"github.com/yungbote/ghostline-backend/internal/platform/dbctx"
	"github.com/yungbote/ghostline-backend/internal/platform/geo"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
)

// DefaultSignalIntensity is the heat contributed by one device's ping.
const DefaultSignalIntensity = 0.5

type PingInput struct {
	DeviceID string  `json:"device_id"`
	Postcode string  `json:"postcode"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Source   string  `json:"source"`
}

type PingService interface {
	// SendPing records the ping and refreshes the device's presence signal in one transaction.
	SendPing(ctx context.Context, in PingInput) (uuid.UUID, error)
	GetNearbyPresence(ctx context.Context, lat, lng, radiusKm float64) ([]types.NearbyPoint, error)
	GetNetworkActivity(ctx context.Context) (types.NetworkActivity, error)
}

type pingService struct {
	db      *gorm.DB
	log     *logger.Logger
	pings   repos.PingRepo
	signals repos.PresenceSignalRepo
	cfg     Config
}

func NewPingService(db *gorm.DB, log *logger.Logger, pings repos.PingRepo, signals repos.PresenceSignalRepo, cfg Config) PingService {
	return &pingService{
		db:      db,
		log:     log.With("service", "PingService"),
		pings:   pings,
		signals: signals,
		cfg:     cfg.withDefaults(),
	}
}

func (s *pingService) SendPing(ctx context.Context, in PingInput) (uuid.UUID, error) {
	in.DeviceID = strings.TrimSpace(in.DeviceID)
	if in.DeviceID == "" {
		return uuid.Nil, invalid("missing_device_id", "device id required")
	}
	if !geo.ValidLatLng(in.Lat, in.Lng) {
		return uuid.Nil, invalid("invalid_location", "lat/lng out of range")
	}
	lat, lng := geo.Quantize(in.Lat), geo.Quantize(in.Lng)
	now := s.cfg.now()

	var id uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		row, err := s.pings.Create(dbc, &types.Ping{
			ID:        uuid.New(),
			DeviceID:  in.DeviceID,
			Postcode:  strings.TrimSpace(in.Postcode),
			Lat:       lat,
			Lng:       lng,
			Source:    strings.TrimSpace(in.Source),
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
		id = row.ID
		return s.signals.Upsert(dbc, &types.PresenceSignal{
			ID:        uuid.New(),
			DeviceID:  in.DeviceID,
			Lat:       lat,
			Lng:       lng,
			Intensity: DefaultSignalIntensity,
			ExpiresAt: now.Add(s.cfg.PresenceSignalTTL),
			UpdatedAt: now,
		})
	})
	if err != nil {
		s.log.Warn("ping insert failed", "device_id", in.DeviceID, "error", err)
		return uuid.Nil, err
	}
	return id, nil
}

// GetNearbyPresence narrows with a bounding box, then keeps only signals within radiusKm by
// haversine distance. Age is how long ago the signal was last refreshed.
func (s *pingService) GetNearbyPresence(ctx context.Context, lat, lng, radiusKm float64) ([]types.NearbyPoint, error) {
	if !geo.ValidLatLng(lat, lng) {
		return nil, invalid("invalid_location", "lat/lng out of range")
	}
	if radiusKm <= 0 || math.IsNaN(radiusKm) {
		return nil, invalid("invalid_radius", "radius must be positive")
	}
	radiusKm = math.Min(radiusKm, s.cfg.MaxNearbyRadiusKm)

	now := s.cfg.now()
	rows, err := s.signals.ListLiveInBox(dbctx.Context{Ctx: ctx}, geo.BoundingBox(lat, lng, radiusKm), now)
	if err != nil {
		return nil, err
	}
	out := make([]types.NearbyPoint, 0, len(rows))
	for _, r := range rows {
		if geo.HaversineKm(lat, lng, r.Lat, r.Lng) > radiusKm {
			continue
		}
		remaining := r.ExpiresAt.Sub(now)
		age := s.cfg.PresenceSignalTTL - remaining
		if age < 0 {
			age = 0
		}
		out = append(out, types.NearbyPoint{
			Lat:        r.Lat,
			Lng:        r.Lng,
			Intensity:  r.Intensity,
			AgeMinutes: math.Floor(age.Minutes()),
		})
	}
	return out, nil
}

func (s *pingService) GetNetworkActivity(ctx context.Context) (types.NetworkActivity, error) {
	n, err := s.pings.CountSince(dbctx.Context{Ctx: ctx}, s.cfg.now().Add(-s.cfg.NetworkActivityWindow))
	if err != nil {
		return types.NetworkActivity{}, err
	}
	return types.NetworkActivity{PingCount: n, Level: presence.ActivityLevel(n)}, nil
}
