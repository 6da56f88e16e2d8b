package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("GHOSTLINE_CONFIG", "")
	t.Setenv("RETENTION_MODE", "")
	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RetentionMode != RetentionLocal {
		t.Fatalf("retention mode: want=%s got=%s", RetentionLocal, cfg.RetentionMode)
	}
	if cfg.Services.GhostPingCap != 8 || cfg.Services.GhostPingTTL != 15*time.Minute {
		t.Fatalf("services: got cap=%d ttl=%v", cfg.Services.GhostPingCap, cfg.Services.GhostPingTTL)
	}
	if cfg.Retention.Trails != 24*time.Hour {
		t.Fatalf("trail interval: want=24h got=%v", cfg.Retention.Trails)
	}
}

func TestLoadConfigOverlayThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghostline.yaml")
	raw := []byte(`port: "9001"
cors_origins: ["https://a.example"]
services:
  ghost_ping_cap: 12
  density_ping_ttl: 2m
retention:
  broadcasts: 1m
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("GHOSTLINE_CONFIG", path)
	t.Setenv("PORT", "9002")
	t.Setenv("RETENTION_MODE", "off")

	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "9002" {
		t.Fatalf("port: env should win, got=%s", cfg.Port)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://a.example" {
		t.Fatalf("cors: got=%v", cfg.CORSOrigins)
	}
	if cfg.Services.GhostPingCap != 12 || cfg.Services.DensityPingTTL != 2*time.Minute {
		t.Fatalf("services overlay: got cap=%d density=%v", cfg.Services.GhostPingCap, cfg.Services.DensityPingTTL)
	}
	if cfg.Services.WindowBroadcastTTL != 10*time.Minute {
		t.Fatalf("untouched default: want=10m got=%v", cfg.Services.WindowBroadcastTTL)
	}
	if cfg.Retention.Broadcasts != time.Minute {
		t.Fatalf("retention overlay: got=%v", cfg.Retention.Broadcasts)
	}
	if cfg.RetentionMode != RetentionOff {
		t.Fatalf("retention mode: got=%s", cfg.RetentionMode)
	}
}

func TestLoadConfigRejectsBadRetentionMode(t *testing.T) {
	t.Setenv("GHOSTLINE_CONFIG", "")
	t.Setenv("RETENTION_MODE", "sometimes")
	if _, err := LoadConfig(nil); err == nil {
		t.Fatalf("LoadConfig: want error for unknown retention mode")
	}
}

func TestTemporalModeNeedsAddress(t *testing.T) {
	t.Setenv("GHOSTLINE_CONFIG", "")
	t.Setenv("RETENTION_MODE", "temporal")
	t.Setenv("TEMPORAL_ADDRESS", "")
	if _, err := LoadConfig(nil); err == nil {
		t.Fatalf("LoadConfig: want error without TEMPORAL_ADDRESS")
	}
}
