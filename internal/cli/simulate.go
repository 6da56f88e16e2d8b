package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/ghostline-backend/internal/apiclient"
	"github.com/yungbote/ghostline-backend/internal/platform/envutil"
	"github.com/yungbote/ghostline-backend/internal/platform/kv"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
	"github.com/yungbote/ghostline-backend/internal/proximity/discovery"
	"github.com/yungbote/ghostline-backend/internal/proximity/engine"
	"github.com/yungbote/ghostline-backend/internal/proximity/identity"
	"github.com/yungbote/ghostline-backend/internal/proximity/memory"
	"github.com/yungbote/ghostline-backend/internal/proximity/sched"
)

var simOpts struct {
	api      string
	peers    int
	duration time.Duration
	distance float64
	interval time.Duration
	cell     string
	demo     bool
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Drive a device-side proximity engine against a running API",
	Long: "Runs one simulated device: scripted peers connect, range at a fixed distance, then leave. " +
		"Encounters, rituals and window moments are persisted through the HTTP API.",
	RunE: runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simOpts.api, "api", envutil.String("GHOSTLINE_API", "http://localhost:8080"), "API base URL")
	f.IntVar(&simOpts.peers, "peers", 1, "number of simulated peers")
	f.DurationVar(&simOpts.duration, "duration", 20*time.Second, "how long each peer stays")
	f.Float64Var(&simOpts.distance, "distance", 0.8, "reported distance in meters")
	f.DurationVar(&simOpts.interval, "interval", 100*time.Millisecond, "ranging update interval")
	f.StringVar(&simOpts.cell, "cell", "", "geofence cell reported with heartbeats")
	f.BoolVar(&simOpts.demo, "demo-window", false, "open a demo window at start")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	client, err := apiclient.New(log, apiclient.Config{BaseURL: simOpts.api})
	if err != nil {
		return err
	}
	local := kv.NewMemory()
	loop := sched.NewLoop(256)
	adapter := discovery.NewChannel(256)

	eng, err := engine.New(engine.Deps{
		Log:       log,
		Scheduler: loop,
		Adapter:   adapter,
		Identity:  identity.NewKVProvider(local, ""),
		Store:     client,
		Memory:    memory.New(local, client, 0),
		Counter:   client,
	}, engine.Config{
		CellID: func() string { return simOpts.cell },
	})
	if err != nil {
		return err
	}

	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	go loop.Run(loopCtx)

	if err := eng.Start(ctx); err != nil {
		return err
	}
	sub := eng.Subscribe()
	go func() {
		for ev := range sub.C {
			logEvent(log, ev)
		}
	}()
	if simOpts.demo {
		eng.TriggerDemoWindow()
	}

	runErr := scriptPeers(ctx, adapter)

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	eng.Stop(stopCtx)
	return runErr
}

// scriptPeers connects every peer, reports ranging until the duration ends, then drops them.
func scriptPeers(ctx context.Context, adapter *discovery.Channel) error {
	ids := make([]string, simOpts.peers)
	for i := range ids {
		ids[i] = fmt.Sprintf("sim-peer-%d", i+1)
		if err := adapter.Emit(discovery.PeerFound{ID: ids[i]}); err != nil {
			return err
		}
		if err := adapter.Emit(discovery.SessionState{ID: ids[i], State: discovery.StateConnected}); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(simOpts.interval)
	defer ticker.Stop()
	deadline := time.NewTimer(simOpts.duration)
	defer deadline.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-deadline.C:
			for _, id := range ids {
				if err := adapter.Emit(discovery.PeerLost{ID: id}); err != nil {
					return err
				}
			}
			return nil
		case <-ticker.C:
			objs := make([]discovery.NearbyObject, len(ids))
			for i, id := range ids {
				objs[i] = discovery.NearbyObject{ID: id, Distance: simOpts.distance + float64(i)}
			}
			if err := adapter.Emit(discovery.NearbyUpdate{Objects: objs}); err != nil {
				return err
			}
		}
	}
}

func logEvent(log *logger.Logger, ev engine.Event) {
	switch ev.Kind {
	case engine.EventRitual:
		if ev.Ritual.Active || ev.Ritual.ArmingProgress == 0 {
			log.Info("ritual", "phase", ev.Ritual.Phase.String(), "phrase", ev.Ritual.Phrase, "peer_id", ev.Ritual.PeerID)
		}
	case engine.EventWindow:
		log.Info("window", "open", ev.Window.IsOpen, "triggered_by", ev.Window.TriggeredBy, "participants", ev.Window.ParticipantCount)
	case engine.EventEncounter:
		log.Info("encounter", "peer_id", ev.Encounter.PeerID, "duration_ms", ev.Encounter.DurationMs,
			"max_resonance", ev.Encounter.MaxResonance, "ritual", ev.Encounter.RitualTriggered)
	case engine.EventError:
		log.Warn("discovery error", "error", ev.Error)
	}
}
