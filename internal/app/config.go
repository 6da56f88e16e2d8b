package app

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/ghostline-backend/internal/data/db"
	"github.com/yungbote/ghostline-backend/internal/observability"
	"github.com/yungbote/ghostline-backend/internal/platform/envutil"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
	"github.com/yungbote/ghostline-backend/internal/services"
	"github.com/yungbote/ghostline-backend/internal/temporalx"
)

const (
	RetentionLocal    = "local"
	RetentionTemporal = "temporal"
	RetentionOff      = "off"
)

// Version is stamped at build time with -ldflags "-X ...app.Version=...".
var Version = "dev"

type Config struct {
	Port           string   `yaml:"port"`
	LogMode        string   `yaml:"log_mode"`
	CORSOrigins    []string `yaml:"cors_origins"`
	MetricsEnabled bool     `yaml:"metrics_enabled"`
	MetricsAddr    string   `yaml:"metrics_addr"`
	RedisAddr      string   `yaml:"redis_addr"`
	RedisChannel   string   `yaml:"redis_channel"`
	RetentionMode  string   `yaml:"retention_mode"`

	Services  services.Config             `yaml:"services"`
	Retention services.RetentionIntervals `yaml:"retention"`

	DB       db.Config                `yaml:"-"`
	Temporal temporalx.Config         `yaml:"-"`
	Otel     observability.OtelConfig `yaml:"-"`
}

func defaultConfig() Config {
	return Config{
		Port:          "8080",
		LogMode:       "development",
		CORSOrigins:   []string{"*"},
		MetricsAddr:   ":9090",
		RedisChannel:  "ghostline:sse",
		RetentionMode: RetentionLocal,
		Services:      services.DefaultConfig(),
		Retention:     services.DefaultRetentionIntervals(),
	}
}

// LoadConfig layers defaults, then the YAML file named by GHOSTLINE_CONFIG, then env.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()
	if path := strings.TrimSpace(os.Getenv("GHOSTLINE_CONFIG")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		if log != nil {
			log.Info("Loaded config overlay", "path", path)
		}
	}

	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	if v := envutil.String("CORS_ALLOWED_ORIGINS", ""); v != "" {
		cfg.CORSOrigins = splitCSV(v)
	}
	cfg.MetricsEnabled = envutil.Bool("METRICS_ENABLED", cfg.MetricsEnabled)
	cfg.MetricsAddr = envutil.String("METRICS_ADDR", cfg.MetricsAddr)
	cfg.RedisAddr = envutil.String("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisChannel = envutil.String("REDIS_CHANNEL", cfg.RedisChannel)
	cfg.RetentionMode = strings.ToLower(envutil.String("RETENTION_MODE", cfg.RetentionMode))

	s := &cfg.Services
	s.GhostPingTTL = envutil.Duration("GHOST_PING_TTL", s.GhostPingTTL)
	s.WindowBroadcastTTL = envutil.Duration("WINDOW_BROADCAST_TTL", s.WindowBroadcastTTL)
	s.DensityPingTTL = envutil.Duration("DENSITY_PING_TTL", s.DensityPingTTL)
	s.GhostPingCap = envutil.Int("GHOST_PING_CAP", s.GhostPingCap)
	s.PresenceSignalTTL = envutil.Duration("PRESENCE_SIGNAL_TTL", s.PresenceSignalTTL)
	s.PresenceStaleAfter = envutil.Duration("PRESENCE_STALE_AFTER", s.PresenceStaleAfter)
	s.PresenceCountCacheTTL = envutil.Duration("PRESENCE_COUNT_CACHE_TTL", s.PresenceCountCacheTTL)
	s.TrailRetention = envutil.Duration("TRAIL_RETENTION", s.TrailRetention)
	s.PingRetention = envutil.Duration("PING_RETENTION", s.PingRetention)

	cfg.DB = db.LoadConfig()
	cfg.Temporal = temporalx.LoadConfig()
	cfg.Otel = observability.OtelConfigFromEnv("ghostline-api", Version)

	switch cfg.RetentionMode {
	case RetentionLocal, RetentionTemporal, RetentionOff:
	default:
		return Config{}, fmt.Errorf("unsupported RETENTION_MODE %q", cfg.RetentionMode)
	}
	if cfg.RetentionMode == RetentionTemporal && !cfg.Temporal.Enabled() {
		return Config{}, fmt.Errorf("RETENTION_MODE=temporal requires TEMPORAL_ADDRESS")
	}
	return cfg, nil
}

func splitCSV(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
