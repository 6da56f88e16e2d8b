// Package engine wires the device-side proximity machinery together: discovery events go
// in, encounters, rituals and window moments come out, and persistence happens on the side.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/ghostline-backend/internal/domain"
	"github.com/yungbote/ghostline-backend/internal/domain/presence"
	"github.com/yungbote/ghostline-backend/internal/platform/eventbus"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
	"github.com/yungbote/ghostline-backend/internal/proximity/discovery"
	"github.com/yungbote/ghostline-backend/internal/proximity/encounter"
	"github.com/yungbote/ghostline-backend/internal/proximity/heartbeat"
	"github.com/yungbote/ghostline-backend/internal/proximity/identity"
	"github.com/yungbote/ghostline-backend/internal/proximity/memory"
	"github.com/yungbote/ghostline-backend/internal/proximity/ritual"
	"github.com/yungbote/ghostline-backend/internal/proximity/sched"
	"github.com/yungbote/ghostline-backend/internal/proximity/window"
	"github.com/yungbote/ghostline-backend/internal/services"
)

// Store is the backing store the engine writes to. The HTTP API client satisfies it.
type Store interface {
	InsertEncounter(ctx context.Context, in services.EncounterInput) (uuid.UUID, error)
	InsertWindowMoment(ctx context.Context, in services.WindowMomentInput) (uuid.UUID, error)
	SendWindowBroadcast(ctx context.Context, deviceID string, payload presence.WindowPayload) (uuid.UUID, error)
	UpdatePresence(ctx context.Context, deviceID, cellID string) (uuid.UUID, error)
	RemovePresence(ctx context.Context, deviceID string) error
}

// PresenceCounter reports the network-wide online count used by the window coordinator.
type PresenceCounter interface {
	GetPresenceCount(ctx context.Context) (types.PresenceCount, error)
}

type Config struct {
	Discovery         discovery.Config
	Ritual            ritual.Config
	Window            window.Config
	HeartbeatInterval time.Duration
	HistoryLimit      int
	PersistTimeout    time.Duration
	BusBuffer         int

	// Location returns the current fix; nil or ok=false leaves encounters without coordinates.
	Location func() (lat, lng float64, ok bool)
	// CellID is reported with each heartbeat.
	CellID func() string
	Rand   func() float64
	Phrase func() string
}

type Deps struct {
	Log       *logger.Logger
	Scheduler sched.Scheduler
	Adapter   discovery.Adapter
	Identity  identity.Provider
	Store     Store
	// Optional.
	Memory  *memory.Memory
	Counter PresenceCounter
}

// Engine is single-threaded: Handle and every callback run on the scheduler's loop.
// Methods that may be called from elsewhere post onto the loop.
type Engine struct {
	log     *logger.Logger
	s       sched.Scheduler
	adapter discovery.Adapter
	ids     identity.Provider
	store   Store
	mem     *memory.Memory
	counter PresenceCounter
	cfg     Config

	bus  *eventbus.Bus[Event]
	sink *Sink

	tracker   *encounter.Tracker
	ritual    *ritual.Machine
	window    *window.Coordinator
	heartbeat *heartbeat.Heartbeat
	// in-flight presence.update calls; drained before presence.remove
	beats sync.WaitGroup

	stopped      bool
	deviceID     string
	networkCount int
	lastError    string
	cancel       context.CancelFunc
}

func New(d Deps, cfg Config) (*Engine, error) {
	if d.Scheduler == nil || d.Adapter == nil || d.Identity == nil || d.Store == nil {
		return nil, fmt.Errorf("engine: scheduler, adapter, identity and store are required")
	}
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	e := &Engine{
		log:     log.With("component", "ProximityEngine"),
		s:       d.Scheduler,
		adapter: d.Adapter,
		ids:     d.Identity,
		store:   d.Store,
		mem:     d.Memory,
		counter: d.Counter,
		cfg:     cfg,
		bus:     eventbus.New[Event](log, cfg.BusBuffer),
		sink:    NewSink(log, cfg.PersistTimeout, 0),
	}
	e.tracker = encounter.NewTracker(e.s.Now, cfg.Location, cfg.HistoryLimit)
	e.ritual = ritual.New(e.s, cfg.Ritual, cfg.Phrase, e.onRitualChange, e.onRitualFire)
	e.window = window.New(e.s, cfg.Window, window.Options{
		PeerCount: e.effectivePeerCount,
		Rand:      cfg.Rand,
		OnChange:  e.onWindowChange,
		OnOpen:    e.onWindowOpen,
	})
	e.heartbeat = heartbeat.New(e.s, cfg.HeartbeatInterval, e.beat)
	return e, nil
}

// Start resolves the device id, starts discovery and begins heartbeats. Only discovery
// start-up errors are returned; everything after that degrades quietly.
func (e *Engine) Start(ctx context.Context) error {
	id, err := e.ids.Get(ctx)
	if err != nil {
		return fmt.Errorf("engine: device id: %w", err)
	}
	if err := e.adapter.Start(ctx, e.cfg.Discovery); err != nil {
		return fmt.Errorf("engine: start discovery: %w", err)
	}
	e.deviceID = id
	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	go e.pump(runCtx, e.adapter.Events())
	go e.sink.Drain(runCtx)

	e.s.Post(e.heartbeat.Start)
	if e.mem != nil {
		e.sink.Go("memory.sync", func(ctx context.Context) error {
			_, err := e.mem.Load(ctx, id)
			return err
		})
	}
	e.log.Info("proximity engine started", "device_id", id)
	return nil
}

// Stop finalizes live encounters, cancels every timer, removes presence and waits for
// pending persistence, bounded by ctx. If ctx ends before the loop runs the finalizer,
// presence is left for retention to purge.
func (e *Engine) Stop(ctx context.Context) {
	done := make(chan struct{})
	e.s.Post(func() {
		defer close(done)
		if e.stopped {
			return
		}
		e.stopped = true
		for _, rec := range e.tracker.LostAll() {
			e.persistEncounter(rec)
		}
		e.ritual.Stop()
		e.window.Stop()
		e.heartbeat.Stop()
	})
	finalized := waitCtx(ctx, done)
	if err := e.adapter.Stop(); err != nil {
		e.log.Warn("discovery stop failed", "error", err)
	}
	if finalized {
		e.removePresence(ctx)
		finalized = waitCtx(ctx, doneWhen(e.sink.Wait))
	}
	if !finalized {
		e.log.Warn("engine stop timed out", "device_id", e.deviceID, "error", ctx.Err())
	}
	if e.cancel != nil {
		e.cancel()
	}
	e.bus.Close()
}

// removePresence runs after the last heartbeat write so the row cannot be recreated.
func (e *Engine) removePresence(ctx context.Context) {
	id := e.deviceID
	if id == "" {
		return
	}
	if !waitCtx(ctx, doneWhen(e.beats.Wait)) {
		return
	}
	e.sink.Go("presence.remove", func(ctx context.Context) error {
		return e.store.RemovePresence(ctx, id)
	})
}

func doneWhen(wait func()) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		wait()
		close(ch)
	}()
	return ch
}

func waitCtx(ctx context.Context, ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	case <-ctx.Done():
		return false
	}
}

func (e *Engine) pump(ctx context.Context, events <-chan discovery.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			e.s.Post(func() { e.Handle(ev) })
		}
	}
}

// Handle applies one discovery event.
func (e *Engine) Handle(ev discovery.Event) {
	if e.stopped {
		return
	}
	switch ev := ev.(type) {
	case discovery.PeerFound:
		e.log.Debug("peer found", "peer_id", ev.ID)
	case discovery.SessionState:
		if ev.State == discovery.StateConnected {
			if e.tracker.Connected(ev.ID) {
				e.window.Evaluate()
			}
			return
		}
		if e.tracker.Tracking(ev.ID) {
			e.lost(ev.ID)
		}
	case discovery.PeerLost:
		e.lost(ev.ID)
	case discovery.NearbyUpdate:
		if n, ok := e.tracker.Ranging(ev.Objects); ok {
			e.ritual.Observe(n.PeerID, n.Distance, n.Resonance)
		} else {
			e.ritual.Clear()
		}
		e.publish(Event{Kind: EventResonance, Resonance: e.tracker.Resonance()})
	case discovery.Error:
		e.lastError = ev.String()
		e.log.Warn("discovery error", "source", ev.Source, "message", ev.Message)
		e.publish(Event{Kind: EventError, Error: e.lastError})
	}
}

func (e *Engine) lost(peerID string) {
	rec, ok := e.tracker.Lost(peerID)
	e.ritual.PeerGone(peerID)
	if !ok {
		return
	}
	e.persistEncounter(rec)
	e.publish(Event{Kind: EventEncounter, Encounter: rec})
}

func (e *Engine) persistEncounter(rec encounter.Record) {
	deviceID := e.deviceID
	in := services.EncounterInput{
		DeviceA:         deviceID,
		DeviceB:         rec.PeerID,
		Lat:             rec.Lat,
		Lng:             rec.Lng,
		DurationMs:      rec.DurationMs,
		MaxResonance:    rec.MaxResonance,
		RitualTriggered: rec.RitualTriggered,
	}
	e.sink.Go("encounter.insert", func(ctx context.Context) error {
		_, err := e.store.InsertEncounter(ctx, in)
		return err
	})
	if e.mem != nil {
		at := rec.StartedAt.Add(time.Duration(rec.DurationMs) * time.Millisecond)
		e.sink.Go("memory.record", func(ctx context.Context) error {
			_, err := e.mem.RecordEncounter(ctx, deviceID, rec.PeerID, at, rec.RitualTriggered)
			return err
		})
	}
}

func (e *Engine) onRitualFire(peerID string) {
	e.tracker.MarkRitualTriggered(peerID)
}

func (e *Engine) onRitualChange(st ritual.State) {
	e.publish(Event{Kind: EventRitual, Ritual: st})
}

func (e *Engine) effectivePeerCount() int {
	if n := e.tracker.ConnectedCount(); n > e.networkCount {
		return n
	}
	return e.networkCount
}

func (e *Engine) onWindowChange(m window.Moment) {
	e.publish(Event{Kind: EventWindow, Window: m})
}

func (e *Engine) onWindowOpen(m window.Moment) {
	deviceID := e.deviceID
	e.sink.Go("window_moment.insert", func(ctx context.Context) error {
		_, err := e.store.InsertWindowMoment(ctx, services.WindowMomentInput{
			StartedAt:        m.StartedAt,
			EndsAt:           m.EndsAt,
			PositionX:        m.PositionX,
			PositionY:        m.PositionY,
			TriggeredBy:      m.TriggeredBy,
			ParticipantCount: m.ParticipantCount,
		})
		return err
	})
	e.sink.Go("broadcast.window", func(ctx context.Context) error {
		_, err := e.store.SendWindowBroadcast(ctx, deviceID, presence.WindowPayload{
			StartedAt:        m.StartedAt,
			EndsAt:           m.EndsAt,
			PositionX:        m.PositionX,
			PositionY:        m.PositionY,
			TriggeredBy:      m.TriggeredBy,
			ParticipantCount: m.ParticipantCount,
		})
		return err
	})
}

func (e *Engine) beat() {
	if e.stopped {
		return
	}
	deviceID := e.deviceID
	cell := ""
	if e.cfg.CellID != nil {
		cell = e.cfg.CellID()
	}
	e.beats.Add(1)
	e.sink.Go("presence.update", func(ctx context.Context) error {
		defer e.beats.Done()
		_, err := e.store.UpdatePresence(ctx, deviceID, cell)
		return err
	})
	if e.counter != nil {
		e.sink.Go("presence.count", func(ctx context.Context) error {
			pc, err := e.counter.GetPresenceCount(ctx)
			if err != nil {
				return err
			}
			e.SetNetworkPresence(int(pc.Total))
			return nil
		})
	}
}

// SetNetworkPresence records the network-wide online count and re-checks the window trigger.
func (e *Engine) SetNetworkPresence(n int) {
	e.s.Post(func() {
		if e.stopped {
			return
		}
		e.networkCount = n
		e.window.Evaluate()
	})
}

// TriggerDemoWindow opens a short demo window regardless of peer count or interval.
func (e *Engine) TriggerDemoWindow() {
	e.s.Post(func() {
		if !e.stopped {
			e.window.TriggerDemo()
		}
	})
}

func (e *Engine) publish(ev Event) {
	ev.At = e.s.Now()
	e.bus.Publish(ev)
}

// Subscribe returns a handle on the engine's event stream; Close it when done.
func (e *Engine) Subscribe() *eventbus.Subscription[Event] { return e.bus.Subscribe() }

// Flush waits for every persistence call started so far.
func (e *Engine) Flush() { e.sink.Wait() }

// DeviceID is set by Start and safe to read from any goroutine afterwards.
func (e *Engine) DeviceID() string { return e.deviceID }

// The accessors below read loop-owned state and must be called from the loop.

func (e *Engine) LastError() string                       { return e.lastError }
func (e *Engine) Resonance() float64                      { return e.tracker.Resonance() }
func (e *Engine) Encounters() []encounter.Record          { return e.tracker.Encounters() }
func (e *Engine) LastEncounter() (encounter.Record, bool) { return e.tracker.LastEncounter() }
func (e *Engine) Ritual() ritual.State                    { return e.ritual.State() }
func (e *Engine) Window() window.Moment                   { return e.window.Moment() }
