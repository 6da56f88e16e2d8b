package services

import "time"

// Config holds the server-side tunables shared by the services.
type Config struct {
	GhostPingTTL          time.Duration `yaml:"ghost_ping_ttl"`
	WindowBroadcastTTL    time.Duration `yaml:"window_broadcast_ttl"`
	DensityPingTTL        time.Duration `yaml:"density_ping_ttl"`
	GhostPingCap          int           `yaml:"ghost_ping_cap"`
	PresenceSignalTTL     time.Duration `yaml:"presence_signal_ttl"`
	PresenceOnlineWindow  time.Duration `yaml:"presence_online_window"`
	PresenceRecentWindow  time.Duration `yaml:"presence_recent_window"`
	PresenceStaleAfter    time.Duration `yaml:"presence_stale_after"`
	PresenceCountCacheTTL time.Duration `yaml:"presence_count_cache_ttl"`
	NetworkActivityWindow time.Duration `yaml:"network_activity_window"`
	TrailRetention        time.Duration `yaml:"trail_retention"`
	PingRetention         time.Duration `yaml:"ping_retention"`
	RecentEncounterLimit  int           `yaml:"recent_encounter_limit"`
	MaxNearbyRadiusKm     float64       `yaml:"max_nearby_radius_km"`

	// Now is the clock every service reads; nil means time.Now.
	Now func() time.Time `yaml:"-"`
}

func DefaultConfig() Config {
	return Config{
		GhostPingTTL:          15 * time.Minute,
		WindowBroadcastTTL:    10 * time.Minute,
		DensityPingTTL:        5 * time.Minute,
		GhostPingCap:          8,
		PresenceSignalTTL:     15 * time.Minute,
		PresenceOnlineWindow:  15 * time.Minute,
		PresenceRecentWindow:  5 * time.Minute,
		PresenceStaleAfter:    30 * time.Minute,
		PresenceCountCacheTTL: 5 * time.Second,
		NetworkActivityWindow: 15 * time.Minute,
		TrailRetention:        7 * 24 * time.Hour,
		PingRetention:         7 * 24 * time.Hour,
		RecentEncounterLimit:  20,
		MaxNearbyRadiusKm:     50,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.GhostPingTTL <= 0 {
		c.GhostPingTTL = d.GhostPingTTL
	}
	if c.WindowBroadcastTTL <= 0 {
		c.WindowBroadcastTTL = d.WindowBroadcastTTL
	}
	if c.DensityPingTTL <= 0 {
		c.DensityPingTTL = d.DensityPingTTL
	}
	if c.GhostPingCap <= 0 {
		c.GhostPingCap = d.GhostPingCap
	}
	if c.PresenceSignalTTL <= 0 {
		c.PresenceSignalTTL = d.PresenceSignalTTL
	}
	if c.PresenceOnlineWindow <= 0 {
		c.PresenceOnlineWindow = d.PresenceOnlineWindow
	}
	if c.PresenceRecentWindow <= 0 {
		c.PresenceRecentWindow = d.PresenceRecentWindow
	}
	if c.PresenceStaleAfter <= 0 {
		c.PresenceStaleAfter = d.PresenceStaleAfter
	}
	if c.PresenceCountCacheTTL < 0 {
		c.PresenceCountCacheTTL = 0
	}
	if c.NetworkActivityWindow <= 0 {
		c.NetworkActivityWindow = d.NetworkActivityWindow
	}
	if c.TrailRetention <= 0 {
		c.TrailRetention = d.TrailRetention
	}
	if c.PingRetention <= 0 {
		c.PingRetention = d.PingRetention
	}
	if c.RecentEncounterLimit <= 0 {
		c.RecentEncounterLimit = d.RecentEncounterLimit
	}
	if c.MaxNearbyRadiusKm <= 0 {
		c.MaxNearbyRadiusKm = d.MaxNearbyRadiusKm
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

func (c Config) now() time.Time { return c.Now().UTC() }
