package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/ghostline-backend/internal/data/repos"
	"github.com/yungbote/ghostline-backend/internal/platform/dbctx"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
)

const (
	JobExpirePresenceSignals = "expire_presence_signals"
	JobExpireBroadcasts      = "expire_broadcasts"
	JobExpireStalePresence   = "expire_stale_presence"
	JobPurgeOldTrails        = "purge_old_trails"
	JobPurgeOldPings         = "purge_old_pings"
)

// RetentionJob is one idempotent cleanup pass and how often it should run.
type RetentionJob struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (int64, error)
}

type RetentionIntervals struct {
	PresenceSignals time.Duration `yaml:"presence_signals"`
	Broadcasts      time.Duration `yaml:"broadcasts"`
	StalePresence   time.Duration `yaml:"stale_presence"`
	Trails          time.Duration `yaml:"trails"`
	Pings           time.Duration `yaml:"pings"`
}

func DefaultRetentionIntervals() RetentionIntervals {
	return RetentionIntervals{
		PresenceSignals: 5 * time.Minute,
		Broadcasts:      5 * time.Minute,
		StalePresence:   5 * time.Minute,
		Trails:          24 * time.Hour,
		Pings:           24 * time.Hour,
	}
}

// RetentionService is the only code path that hard-deletes rows.
type RetentionService interface {
	PurgeExpiredPresenceSignals(ctx context.Context) (int64, error)
	PurgeExpiredBroadcasts(ctx context.Context) (int64, error)
	PurgeStalePresence(ctx context.Context) (int64, error)
	PurgeOldTrails(ctx context.Context) (int64, error)
	PurgeOldPings(ctx context.Context) (int64, error)
	Jobs(intervals RetentionIntervals) []RetentionJob
	// RunAll runs every job once, continuing past failures; it returns the first error.
	RunAll(ctx context.Context) (map[string]int64, error)
}

type retentionService struct {
	log        *logger.Logger
	signals    repos.PresenceSignalRepo
	broadcasts repos.BroadcastRepo
	presence   repos.PresenceRepo
	trails     repos.TrailRepo
	pings      repos.PingRepo
	cfg        Config
}

func NewRetentionService(log *logger.Logger, set repos.Set, cfg Config) RetentionService {
	return &retentionService{
		log:        log.With("service", "RetentionService"),
		signals:    set.PresenceSignals,
		broadcasts: set.Broadcasts,
		presence:   set.Presence,
		trails:     set.Trails,
		pings:      set.Pings,
		cfg:        cfg.withDefaults(),
	}
}

func (s *retentionService) PurgeExpiredPresenceSignals(ctx context.Context) (int64, error) {
	return s.run(ctx, JobExpirePresenceSignals, func(dbc dbctx.Context, now time.Time) (int64, error) {
		return s.signals.DeleteExpired(dbc, now)
	})
}

func (s *retentionService) PurgeExpiredBroadcasts(ctx context.Context) (int64, error) {
	return s.run(ctx, JobExpireBroadcasts, func(dbc dbctx.Context, now time.Time) (int64, error) {
		return s.broadcasts.DeleteExpired(dbc, now)
	})
}

func (s *retentionService) PurgeStalePresence(ctx context.Context) (int64, error) {
	return s.run(ctx, JobExpireStalePresence, func(dbc dbctx.Context, now time.Time) (int64, error) {
		return s.presence.DeleteSeenBefore(dbc, now.Add(-s.cfg.PresenceStaleAfter))
	})
}

func (s *retentionService) PurgeOldTrails(ctx context.Context) (int64, error) {
	return s.run(ctx, JobPurgeOldTrails, func(dbc dbctx.Context, now time.Time) (int64, error) {
		return s.trails.DeleteOlderThan(dbc, now.Add(-s.cfg.TrailRetention))
	})
}

func (s *retentionService) PurgeOldPings(ctx context.Context) (int64, error) {
	return s.run(ctx, JobPurgeOldPings, func(dbc dbctx.Context, now time.Time) (int64, error) {
		return s.pings.DeleteOlderThan(dbc, now.Add(-s.cfg.PingRetention))
	})
}

func (s *retentionService) run(ctx context.Context, name string, fn func(dbctx.Context, time.Time) (int64, error)) (int64, error) {
	ctx, span := otel.Tracer("ghostline/retention").Start(ctx, "retention."+name)
	defer span.End()

	n, err := fn(dbctx.Context{Ctx: ctx}, s.cfg.now())
	if err != nil {
		span.RecordError(err)
		s.log.Error("retention job failed", "job", name, "error", err)
		return 0, err
	}
	span.SetAttributes(attribute.Int64("retention.deleted", n))
	if n > 0 {
		s.log.Info("retention job purged rows", "job", name, "deleted", n)
	}
	return n, nil
}

func (s *retentionService) Jobs(iv RetentionIntervals) []RetentionJob {
	d := DefaultRetentionIntervals()
	pick := func(v, def time.Duration) time.Duration {
		if v <= 0 {
			return def
		}
		return v
	}
	return []RetentionJob{
		{Name: JobExpirePresenceSignals, Interval: pick(iv.PresenceSignals, d.PresenceSignals), Run: s.PurgeExpiredPresenceSignals},
		{Name: JobExpireBroadcasts, Interval: pick(iv.Broadcasts, d.Broadcasts), Run: s.PurgeExpiredBroadcasts},
		{Name: JobExpireStalePresence, Interval: pick(iv.StalePresence, d.StalePresence), Run: s.PurgeStalePresence},
		{Name: JobPurgeOldTrails, Interval: pick(iv.Trails, d.Trails), Run: s.PurgeOldTrails},
		{Name: JobPurgeOldPings, Interval: pick(iv.Pings, d.Pings), Run: s.PurgeOldPings},
	}
}

func (s *retentionService) RunAll(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64, 5)
	var first error
	for _, job := range s.Jobs(RetentionIntervals{}) {
		n, err := job.Run(ctx)
		if err != nil && first == nil {
			first = err
		}
		out[job.Name] = n
	}
	return out, first
}
