package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/ghostline-backend/internal/data/repos"
	ghttp "github.com/yungbote/ghostline-backend/internal/http"
	"github.com/yungbote/ghostline-backend/internal/jobs/retention"
	"github.com/yungbote/ghostline-backend/internal/observability"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
	"github.com/yungbote/ghostline-backend/internal/realtime"
	"github.com/yungbote/ghostline-backend/internal/services"
	"github.com/yungbote/ghostline-backend/internal/temporalx/temporalworker"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  Clients
	Repos    repos.Set
	Services Services
	Handlers Handlers
	Hub      *realtime.SSEHub
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
}

type Options struct {
	// WithTemporal dials Temporal when it is configured; serve only needs it in temporal mode.
	WithTemporal bool
}

func New(ctx context.Context, opts Options) (*App, error) {
	boot, err := logger.New("development")
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	cfg, err := LoadConfig(boot)
	if err != nil {
		boot.Sync()
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &App{Log: log, Cfg: cfg}
	a.otelShutdown = observability.InitOTel(ctx, log, cfg.Otel)
	a.Metrics = observability.Init(cfg.MetricsEnabled)

	withTemporal := opts.WithTemporal || cfg.RetentionMode == RetentionTemporal
	clients, err := wireClients(ctx, log, cfg, withTemporal)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Clients = clients

	a.Hub = realtime.NewSSEHub(log)
	var emit services.SSEEmitter = &services.HubEmitter{Hub: a.Hub}
	if clients.Bus != nil {
		emit = &services.RedisEmitter{Bus: clients.Bus, Log: log}
	}

	theDB := clients.DB.DB()
	a.Repos = repos.NewSet(theDB, log)
	a.Services = wireServices(theDB, log, cfg.Services, a.Repos, clients.Cache, emit)

	sqlDB, err := theDB.DB()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("database handle: %w", err)
	}
	a.Handlers = wireHandlers(log, sqlDB, a.Services, a.Hub, a.Metrics)
	return a, nil
}

func (a *App) retentionJobs() []services.RetentionJob {
	return a.Services.Retention.Jobs(a.Cfg.Retention)
}

// Serve runs the API until ctx is done, along with whatever retention mode is configured.
func (a *App) Serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if a.Clients.Bus != nil {
		if err := a.Clients.Bus.StartForwarder(ctx, a.Hub.Broadcast); err != nil {
			return fmt.Errorf("start SSE forwarder: %w", err)
		}
	}
	a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)

	switch a.Cfg.RetentionMode {
	case RetentionLocal:
		sched := retention.NewScheduler(a.Log, a.retentionJobs(), a.Metrics)
		sched.Start(ctx)
		defer sched.Stop()
	case RetentionTemporal:
		g.Go(func() error { return a.startWorker(ctx) })
	default:
		a.Log.Info("Retention disabled")
	}

	srv := ghttp.NewServer(routerConfig(a.Log, a.Cfg, a.Handlers, a.Metrics))
	g.Go(func() error { return srv.Run(ctx, ":"+a.Cfg.Port) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// RunCleanupOnce runs every retention job once, continuing past failures.
func (a *App) RunCleanupOnce(ctx context.Context) (map[string]int64, error) {
	return retention.NewScheduler(a.Log, a.retentionJobs(), a.Metrics).RunOnce(ctx)
}

// RunRetention runs the in-process retention scheduler until ctx is done.
func (a *App) RunRetention(ctx context.Context) error {
	sched := retention.NewScheduler(a.Log, a.retentionJobs(), a.Metrics)
	sched.Start(ctx)
	<-ctx.Done()
	sched.Stop()
	return nil
}

// RunWorker serves the Temporal retention task queue until ctx is done.
func (a *App) RunWorker(ctx context.Context) error {
	if a.Clients.Temporal == nil {
		return fmt.Errorf("worker requires TEMPORAL_ADDRESS")
	}
	a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
	if err := a.startWorker(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func (a *App) startWorker(ctx context.Context) error {
	runner, err := temporalworker.NewRunner(a.Log, a.Clients.Temporal, a.Cfg.Temporal, a.retentionJobs(), a.Metrics)
	if err != nil {
		return err
	}
	return runner.Start(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
