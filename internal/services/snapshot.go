package services

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/ghostline-backend/internal/data/repos"
	types "github.com/yungbote/ghostline-backend/internal/domain"
	"github.com/yungbote/ghostline-backend/internal/platform/dbctx"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
)

// SnapshotService reconstructs history for a time range. It only reads, so repeated calls
// with different since values are how clients scrub backwards.
type SnapshotService interface {
	GetTemporalSnapshot(ctx context.Context, deviceID string, since time.Time, currentSessionID string) (types.TemporalSnapshot, error)
}

type snapshotService struct {
	log        *logger.Logger
	trails     repos.TrailRepo
	encounters repos.EncounterRepo
	windows    repos.WindowMomentRepo
	pings      repos.PingRepo
	cfg        Config
}

func NewSnapshotService(log *logger.Logger, trails repos.TrailRepo, encounters repos.EncounterRepo, windows repos.WindowMomentRepo, pings repos.PingRepo, cfg Config) SnapshotService {
	return &snapshotService{
		log:        log.With("service", "SnapshotService"),
		trails:     trails,
		encounters: encounters,
		windows:    windows,
		pings:      pings,
		cfg:        cfg.withDefaults(),
	}
}

func (s *snapshotService) GetTemporalSnapshot(ctx context.Context, deviceID string, since time.Time, currentSessionID string) (types.TemporalSnapshot, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return types.TemporalSnapshot{}, invalid("missing_device_id", "device id required")
	}
	now := s.cfg.now()
	since = since.UTC()
	if since.IsZero() || since.After(now) {
		return types.TemporalSnapshot{}, invalid("invalid_since", "since must be in the past")
	}

	ctx, span := otel.Tracer("ghostline/services").Start(ctx, "snapshot.get")
	defer span.End()
	span.SetAttributes(attribute.String("snapshot.since", since.Format(time.RFC3339)))

	var (
		trailRows     []*types.TrailPoint
		encounterRows []*types.Encounter
		windowRows    []*types.WindowMoment
		uniqueDevices int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		trailRows, err = s.trails.ListByDeviceSince(dbctx.Context{Ctx: gctx}, deviceID, since, currentSessionID)
		return err
	})
	g.Go(func() error {
		var err error
		encounterRows, err = s.encounters.ListSince(dbctx.Context{Ctx: gctx}, since)
		return err
	})
	g.Go(func() error {
		var err error
		windowRows, err = s.windows.ListStartedSince(dbctx.Context{Ctx: gctx}, since)
		return err
	})
	g.Go(func() error {
		var err error
		uniqueDevices, err = s.pings.CountDistinctDevicesSince(dbctx.Context{Ctx: gctx}, since)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot query failed")
		s.log.Warn("snapshot query failed", "device_id", deviceID, "error", err)
		return types.TemporalSnapshot{}, err
	}

	windows := make([]types.WindowMoment, 0, len(windowRows))
	for _, w := range windowRows {
		windows = append(windows, *w)
	}
	out := types.TemporalSnapshot{
		Since:          since,
		TakenAt:        now,
		Trails:         groupTrailSessions(trailRows),
		Encounters:     toEncounterPoints(encounterRows),
		WindowMoments:  windows,
		PresenceCount:  uniqueDevices,
		EncounterCount: len(encounterRows),
		WindowCount:    len(windows),
	}
	span.SetAttributes(
		attribute.Int("snapshot.trails", len(out.Trails)),
		attribute.Int("snapshot.encounters", out.EncounterCount),
		attribute.Int("snapshot.windows", out.WindowCount),
	)
	return out, nil
}
